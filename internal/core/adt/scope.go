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

import "github.com/nixeval/nix-eval/internal/core/thunk"

// ScopeKind distinguishes lexical (Static) from dynamic (`with`) scopes
// (spec.md §3, §4.2).
type ScopeKind int

const (
	// Static is a lexical binder: `let`, lambda formals, and the
	// top-level builtin scope.
	Static ScopeKind = iota
	// Dynamic is a `with`-introduced scope: a lazily-forced attribute set
	// whose keys are only consulted on lookup.
	Dynamic
)

// Scope is one link of a Context: either a static map of bindings, or a
// thunk that forces to an attribute set.
type Scope struct {
	Kind ScopeKind

	// Static:
	Bindings map[Ident]thunk.ID

	// Dynamic:
	Env thunk.ID
}

// NewStaticScope wraps a ready-made binding map as a lexical scope.
func NewStaticScope(bindings map[Ident]thunk.ID) *Scope {
	return &Scope{Kind: Static, Bindings: bindings}
}

// NewDynamicScope wraps a thunk expected to force to an attribute set as a
// `with` scope.
func NewDynamicScope(env thunk.ID) *Scope {
	return &Scope{Kind: Dynamic, Env: env}
}

// Context is a persistent, immutable ordered sequence of scopes threaded
// through evaluation (spec.md §3, §4.2). Contexts are shared structurally:
// Prepend/Append never mutate the receiver, so a Context already captured
// by a closure or thunk remains valid forever.
type Context struct {
	scope *Scope
	next  *Context // not read by Scopes or Lookup; ordering comes from the two links below
	prependedBefore *Context
	appendedAfter   *Context
}

// Empty is the context with no scopes.
var Empty = &Context{}

// Prepend adds a scope at the front (highest priority): used for lexical
// binders (`let`, lambda formals).
func (c *Context) Prepend(s *Scope) *Context {
	return &Context{scope: s, prependedBefore: c}
}

// Append adds a scope at the back (lowest priority): used for `with`.
func (c *Context) Append(s *Scope) *Context {
	return &Context{scope: s, appendedAfter: c}
}

// Scopes returns the sequence of scopes in priority order (highest first).
// It is allocation-light for the common case of a short chain of Prepends,
// but Append requires flattening since the new scope belongs at the tail.
func (c *Context) Scopes() []*Scope {
	var prepended []*Scope
	cur := c
	for cur != nil && cur.prependedBefore != nil {
		if cur.scope != nil {
			prepended = append(prepended, cur.scope)
		}
		cur = cur.prependedBefore
	}
	if cur != nil && cur.scope != nil {
		prepended = append(prepended, cur.scope)
	}

	// cur is now the root of a chain built purely by Prepend (or Empty);
	// if it has an appendedAfter link, continue from there.
	var tail []*Scope
	if cur != nil && cur.appendedAfter != nil {
		tail = cur.appendedAfter.Scopes()
	}
	return append(prepended, tail...)
}

// Lookup walks the context in priority order and returns the first scope
// that binds name, forcing Dynamic scopes as needed via host (spec.md
// §4.2). A Dynamic scope simply not containing name is not an error;
// lookup proceeds to the next scope.
func (c *Context) Lookup(host Host, name Ident) (thunk.ID, bool, error) {
	for _, s := range c.Scopes() {
		switch s.Kind {
		case Static:
			if id, ok := s.Bindings[name]; ok {
				return id, true, nil
			}
		case Dynamic:
			v, err := host.Force(s.Env)
			if err != nil {
				return 0, false, err
			}
			attrs, ok := v.(*AttrSet)
			if !ok {
				return 0, false, &TypeError{Expected: "set", Got: v.Kind()}
			}
			if id, ok := attrs.Get(name); ok {
				return id, true, nil
			}
		}
	}
	return 0, false, nil
}
