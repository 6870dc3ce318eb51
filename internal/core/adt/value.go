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

package adt

import (
	"golang.org/x/exp/slices"

	"github.com/nixeval/nix-eval/internal/core/thunk"
)

// Value is the sum type of spec.md §3: Int, Float, Bool, Null, String, Path,
// List, AttrSet, Lambda, Primop, Ref.
type Value interface {
	Kind() string
	valueNode()
}

// Int is a 64-bit integer value.
type Int struct{ Val int64 }

// Float is a 64-bit floating point value.
type Float struct{ Val float64 }

// Bool is a boolean value.
type Bool struct{ Val bool }

// Null is the singleton null value.
type Null struct{}

// PathRef is one store path referenced by a string's context.
type PathRef string

// PathSet is a set of PathRefs, used as string context.
type PathSet map[PathRef]struct{}

// Union returns a new set containing the members of both sets. Either
// argument may be nil.
func (s PathSet) Union(other PathSet) PathSet {
	if len(s) == 0 && len(other) == 0 {
		return nil
	}
	out := make(PathSet, len(s)+len(other))
	for k := range s {
		out[k] = struct{}{}
	}
	for k := range other {
		out[k] = struct{}{}
	}
	return out
}

// Add inserts p into the set, allocating the set if necessary, and returns
// the (possibly new) set.
func (s PathSet) Add(p PathRef) PathSet {
	if s == nil {
		s = PathSet{}
	}
	s[p] = struct{}{}
	return s
}

// String is a Nix string value with an attached store-path context
// (spec.md §3).
type String struct {
	Text  string
	Paths PathSet
}

// Path is a resolved, absolute filesystem path value.
type Path struct{ Abs string }

// List is an ordered sequence of thunks.
type List struct{ Elems []thunk.ID }

// AttrSet is an attribute set: a mapping from identifier to thunk.
// Insertion order is not semantically significant (spec.md §3).
type AttrSet struct {
	Keys   []Ident // insertion order, kept only for diagnostics/debug printing
	Values map[Ident]thunk.ID
}

// NewAttrSet returns an empty attribute set.
func NewAttrSet() *AttrSet {
	return &AttrSet{Values: map[Ident]thunk.ID{}}
}

// Set installs name -> id, appending to Keys only the first time name is
// seen.
func (a *AttrSet) Set(name Ident, id thunk.ID) {
	if _, ok := a.Values[name]; !ok {
		a.Keys = append(a.Keys, name)
	}
	a.Values[name] = id
}

// Get looks up name.
func (a *AttrSet) Get(name Ident) (thunk.ID, bool) {
	id, ok := a.Values[name]
	return id, ok
}

// SortedNames returns the attribute names in a stable, locale-naive
// lexicographic order for diagnostics and `builtins.attrNames` (spec.md
// §3 notes set order is not semantically significant for evaluation, but
// display order must still be deterministic).
func (a *AttrSet) SortedNames() []string {
	names := make([]string, 0, len(a.Values))
	for k := range a.Values {
		names = append(names, k.String())
	}
	slices.Sort(names)
	return names
}

// Lambda is a function value: a pattern, a body expression, and the
// context it closed over at the point of definition.
type Lambda struct {
	Pattern Pattern
	Body    ExprRef
	Captures *Context
}

// Primop is a builtin function value. It may be partially applied: Arity
// is the number of arguments still missing and counts down with every
// PartialArgs append; Dispatch is invoked when the last one is applied
// (spec.md §4.5, Primop currying).
type Primop struct {
	Name        string
	Arity       int
	PartialArgs []thunk.ID
	Dispatch    func(h Host, args []thunk.ID) (Value, error)
}

// Ref is a forwarding indirection: "go look at this other thunk instead".
// Produced by evaluation of application, attribute sets and variables (and
// by primops such as head, elemAt, getAttr and import) so that
// a fresh Ref can be returned before the underlying work is actually
// scheduled (spec.md §3).
type Ref struct{ To thunk.ID }

func (Int) Kind() string     { return "int" }
func (Float) Kind() string   { return "float" }
func (Bool) Kind() string    { return "bool" }
func (Null) Kind() string    { return "null" }
func (String) Kind() string  { return "string" }
func (Path) Kind() string    { return "path" }
func (*List) Kind() string   { return "list" }
func (*AttrSet) Kind() string { return "set" }
func (*Lambda) Kind() string { return "lambda" }
func (*Primop) Kind() string { return "primop" }
func (Ref) Kind() string     { return "ref" }

func (Int) valueNode()      {}
func (Float) valueNode()    {}
func (Bool) valueNode()     {}
func (Null) valueNode()     {}
func (String) valueNode()   {}
func (Path) valueNode()     {}
func (*List) valueNode()    {}
func (*AttrSet) valueNode() {}
func (*Lambda) valueNode()  {}
func (*Primop) valueNode()  {}
func (Ref) valueNode()      {}

// Host is the set of evaluator operations visible to values and primops
// without creating an import cycle back into internal/core/eval: Primop
// dispatch functions and lazily-evaluated scopes need to force thunks and
// allocate new ones, but adt must not import eval. eval.Eval implements
// this interface (dependency inversion, mirroring the teacher's
// adt.Runtime / runtime.Runtime split).
type Host interface {
	// Force drives a thunk to WHNF and returns its value.
	Force(id thunk.ID) (Value, error)
	// NewThunk allocates a thunk wrapping an already-evaluated value.
	NewThunk(v Value) thunk.ID
	// NewExprThunk allocates a thunk that evaluates expr under ctx when
	// first forced.
	NewExprThunk(expr ExprRef, ctx *Context) thunk.ID
	// Span returns the source span an ExprRef was parsed from.
	Span(expr ExprRef) Span
	// FileDir returns the resolution directory for relative path literals
	// in the given file.
	FileDir(file FileID) string
}
