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

package eval

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nixeval/nix-eval/internal/core/adt"
)

func TestCoerceToStringPathWithoutCopy(t *testing.T) {
	ev, _, _ := newTestEval(t)
	s, err := ev.CoerceToString(adt.Path{Abs: "/some/path"}, CoerceOpts{})
	require.NoError(t, err)
	require.Equal(t, "/some/path", s.Text)
	require.Empty(t, s.Paths)
}

func TestCoerceToStringPathWithCopyToStore(t *testing.T) {
	ev, _, _ := newTestEval(t)
	s, err := ev.CoerceToString(adt.Path{Abs: "/some/path"}, CoerceOpts{CopyToStore: true})
	require.NoError(t, err)
	require.Contains(t, s.Text, "/nix/store/")
	require.NotEmpty(t, s.Paths)
}

func TestCoerceToStringStringPassthroughKeepsContext(t *testing.T) {
	ev, _, _ := newTestEval(t)
	paths := adt.PathSet{}.Add(adt.PathRef("/nix/store/x"))
	s, err := ev.CoerceToString(adt.String{Text: "hi", Paths: paths}, CoerceOpts{})
	require.NoError(t, err)
	require.Equal(t, "hi", s.Text)
	require.Equal(t, paths, s.Paths)
}

func TestCoerceToStringInt(t *testing.T) {
	ev, _, _ := newTestEval(t)
	s, err := ev.CoerceToString(adt.Int{Val: -7}, CoerceOpts{})
	require.NoError(t, err)
	require.Equal(t, "-7", s.Text)
}

func TestCoerceToStringBoolGatedByExtended(t *testing.T) {
	ev, _, _ := newTestEval(t)
	_, err := ev.CoerceToString(adt.Bool{Val: true}, CoerceOpts{})
	var coerceErr *adt.CoerceError
	require.ErrorAs(t, err, &coerceErr)

	s, err := ev.CoerceToString(adt.Bool{Val: true}, CoerceOpts{Extended: true})
	require.NoError(t, err)
	require.Equal(t, "1", s.Text)

	s, err = ev.CoerceToString(adt.Bool{Val: false}, CoerceOpts{Extended: true})
	require.NoError(t, err)
	require.Equal(t, "", s.Text)
}

func TestCoerceToStringNullGatedByExtended(t *testing.T) {
	ev, _, _ := newTestEval(t)
	_, err := ev.CoerceToString(adt.Null{}, CoerceOpts{})
	var coerceErr *adt.CoerceError
	require.ErrorAs(t, err, &coerceErr)

	s, err := ev.CoerceToString(adt.Null{}, CoerceOpts{Extended: true})
	require.NoError(t, err)
	require.Equal(t, "", s.Text)
}

func TestCoerceToStringListJoinsWithSpace(t *testing.T) {
	ev, _, _ := newTestEval(t)
	list := &adt.List{}
	list.Elems = append(list.Elems, ev.Thunks.AllocValue(adt.Int{Val: 1}))
	list.Elems = append(list.Elems, ev.Thunks.AllocValue(adt.Int{Val: 2}))

	_, err := ev.CoerceToString(list, CoerceOpts{})
	var coerceErr *adt.CoerceError
	require.ErrorAs(t, err, &coerceErr)

	s, err := ev.CoerceToString(list, CoerceOpts{Extended: true})
	require.NoError(t, err)
	require.Equal(t, "1 2", s.Text)
}

func TestCoerceToStringAttrSetViaOutPath(t *testing.T) {
	ev, _, _ := newTestEval(t)
	set := adt.NewAttrSet()
	set.Set(adt.Intern("outPath"), ev.Thunks.AllocValue(adt.String{Text: "/nix/store/abc"}))

	s, err := ev.CoerceToString(set, CoerceOpts{})
	require.NoError(t, err)
	require.Equal(t, "/nix/store/abc", s.Text)
}

func TestCoerceToStringAttrSetWithoutOutPathErrors(t *testing.T) {
	ev, _, _ := newTestEval(t)
	set := adt.NewAttrSet()
	_, err := ev.CoerceToString(set, CoerceOpts{})
	var coerceErr *adt.CoerceError
	require.ErrorAs(t, err, &coerceErr)
}

func TestCoerceToStringLambdaErrors(t *testing.T) {
	ev, _, _ := newTestEval(t)
	_, err := ev.CoerceToString(&adt.Lambda{}, CoerceOpts{})
	var coerceErr *adt.CoerceError
	require.ErrorAs(t, err, &coerceErr)
}
