// Copyright 2020 CUE Authors
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

// Package adt holds the algebraic data types shared by the expression arena
// and the value algebra: interned identifiers, expression nodes with source
// spans, the context stack, and the runtime value representation. Nothing in
// this package performs evaluation; that lives in internal/core/eval.
package adt

import (
	"sync"

	"golang.org/x/text/unicode/norm"
)

// Ident is a small interned identifier. Two idents with equal text compare
// equal and hash cheaply, since they are small integers indexing into a
// shared table.
type Ident int32

// internerTable interns identifier text to a stable, process-wide Ident.
type internerTable struct {
	mu   sync.RWMutex
	ids  map[string]Ident
	text []string
}

var idents = &internerTable{ids: map[string]Ident{}}

// Intern returns the stable Ident for s, allocating one if this is the
// first time s has been seen. s is normalized to NFC first (matching
// cuelang-cue's cue/internal/compile label handling) so that
// visually-identical attribute names reaching the evaluator via different
// Unicode encodings intern to the same Ident.
func Intern(s string) Ident {
	s = norm.NFC.String(s)

	idents.mu.RLock()
	id, ok := idents.ids[s]
	idents.mu.RUnlock()
	if ok {
		return id
	}

	idents.mu.Lock()
	defer idents.mu.Unlock()
	if id, ok := idents.ids[s]; ok {
		return id
	}
	id = Ident(len(idents.text))
	idents.text = append(idents.text, s)
	idents.ids[s] = id
	return id
}

// String returns the identifier's text as interned, i.e. in NFC form.
func (id Ident) String() string {
	idents.mu.RLock()
	defer idents.mu.RUnlock()
	if int(id) < 0 || int(id) >= len(idents.text) {
		return "<invalid ident>"
	}
	return idents.text[id]
}
