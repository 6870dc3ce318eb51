// Copyright 2021 CUE Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package adt

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInternIsStable(t *testing.T) {
	a := Intern("foo")
	b := Intern("foo")
	require.Equal(t, a, b)
	require.Equal(t, "foo", a.String())
}

func TestInternDistinguishesDifferentText(t *testing.T) {
	a := Intern("alpha-distinct")
	b := Intern("beta-distinct")
	require.NotEqual(t, a, b)
}

func TestInternNormalizesToNFC(t *testing.T) {
	// "é" (precomposed) vs. "é" (bare "e" plus a combining
	// acute accent): two different byte sequences for the same visible
	// text, which must intern to the same Ident so attribute lookups
	// don't silently fail on encoding alone.
	precomposed := "café"
	decomposed := "café"
	require.NotEqual(t, precomposed, decomposed, "test fixture sanity check")

	require.Equal(t, Intern(precomposed), Intern(decomposed))
}

func TestIdentStringOfUnknownIdent(t *testing.T) {
	require.Equal(t, "<invalid ident>", Ident(-1).String())
}
