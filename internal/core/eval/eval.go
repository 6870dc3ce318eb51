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

// Package eval is the call-by-need evaluator of spec.md §4.5 (C5): WHNF
// reduction of expression nodes under a context stack of lexical and
// dynamic scopes, driven by a thunk arena (internal/core/thunk) and the
// value algebra (internal/core/adt).
package eval

import (
	"fmt"
	"path/filepath"

	"github.com/nixeval/nix-eval/internal/core/adt"
	"github.com/nixeval/nix-eval/internal/core/evalerr"
	"github.com/nixeval/nix-eval/internal/core/thunk"
)

// cellExpr is a pending "evaluate this node under this context" unit of
// work (spec.md §3, ThunkCell::Expr).
type cellExpr struct {
	Expr adt.ExprRef
	Ctx  *adt.Context
}

// cellApply is a pending "force fn, then apply to arg" unit of work
// (spec.md §3, ThunkCell::Apply).
type cellApply struct {
	Fn, Arg thunk.ID
}

// Options tunes evaluator behavior at points spec.md leaves to the host.
type Options struct {
	// AllowEmptyHash records the host's opt-in for empty hash inputs. No
	// evaluator code reads it: the evaluator has no hash handling, so there
	// is no fallback for it to enable (see SPEC_FULL.md, Open Question (ii)).
	AllowEmptyHash bool
}

// Eval is a single evaluation session: the expression arena it was handed
// by an external producer, its own thunk arena, and the external
// collaborators of spec.md §6.
type Eval struct {
	Arena   *adt.ExprArena
	Thunks  *thunk.Arena
	Builtin *adt.Context // top-level static scope; consulted last (spec.md §4.2)

	Store Store
	FS    Filesystem
	Env   Environ

	Options Options

	loadedFiles map[string]thunk.ID
	inlineSeq   int
}

// New constructs an Eval over an already-populated expression arena,
// registering the primop table (§4.6) into the top-level scope.
func New(arena *adt.ExprArena, collab Collaborators) *Eval {
	if collab.Store == nil {
		collab.Store = NewOSStore()
	}
	if collab.FS == nil {
		collab.FS = OSFilesystem{}
	}
	if collab.Env == nil {
		collab.Env = OSEnviron{}
	}
	ev := &Eval{
		Arena:       arena,
		Thunks:      thunk.New(),
		Store:       collab.Store,
		FS:          collab.FS,
		Env:         collab.Env,
		loadedFiles: map[string]thunk.ID{},
	}
	ev.Builtin = adt.Empty.Prepend(adt.NewStaticScope(registerPrimops(ev)))
	return ev
}

// Collaborators bundles the external contracts of spec.md §6. Any field
// left nil gets an OS-backed default.
type Collaborators struct {
	Store Store
	FS    Filesystem
	Env   Environ
}

// NewThunk implements adt.Host: allocate a thunk already holding v.
func (e *Eval) NewThunk(v adt.Value) thunk.ID {
	return e.Thunks.AllocValue(v)
}

// NewValue is the §6 "exposes" contract `new_value`, an alias of NewThunk
// used for injecting externally-constructed values (e.g. to seed
// builtins).
func (e *Eval) NewValue(v adt.Value) thunk.ID { return e.NewThunk(v) }

// NewExprThunk implements adt.Host: allocate a thunk that evaluates expr
// under ctx the first time it is forced.
func (e *Eval) NewExprThunk(expr adt.ExprRef, ctx *adt.Context) thunk.ID {
	return e.Thunks.Alloc(cellExpr{Expr: expr, Ctx: ctx})
}

// NewApplyThunk allocates a thunk that, when forced, forces fn and applies
// it to arg (spec.md §4.5, "Application").
func (e *Eval) NewApplyThunk(fn, arg thunk.ID) thunk.ID {
	return e.Thunks.Alloc(cellApply{Fn: fn, Arg: arg})
}

// Span implements adt.Host.
func (e *Eval) Span(expr adt.ExprRef) adt.Span { return e.Arena.Span(expr) }

// FileDir implements adt.Host.
func (e *Eval) FileDir(file adt.FileID) string { return e.Arena.Files.Dir(file) }

// Force drives a thunk to WHNF (spec.md §4.1/§4.5). It is the single entry
// point for the one-shot Cell→Value transition, the black-hole protocol,
// and Ref-chain flattening.
func (e *Eval) Force(id thunk.ID) (adt.Value, error) {
	return e.forceVisiting(id, map[thunk.ID]bool{})
}

func (e *Eval) forceVisiting(id thunk.ID, refChain map[thunk.ID]bool) (adt.Value, error) {
	cell, value, ok, wasBlackhole := e.Thunks.BeginForce(id)
	if wasBlackhole {
		return nil, &adt.InfiniteLoopError{}
	}
	if ok {
		return e.followRefs(value.(adt.Value), refChain)
	}

	var result adt.Value
	var err error
	switch c := cell.(type) {
	case cellExpr:
		result, err = e.stepEval(c.Expr, c.Ctx)
	case cellApply:
		result, err = e.apply(c.Fn, c.Arg)
	case cellInheritFrom:
		result, err = e.evalInheritFrom(c)
	case thunk.Blackhole:
		// BeginForce already special-cases this; unreachable.
		return nil, &adt.InfiniteLoopError{}
	default:
		return nil, fmt.Errorf("eval: thunk %d holds an unrecognised cell %T", id, cell)
	}
	if err != nil {
		return nil, err
	}
	if r, isRef := result.(adt.Ref); isRef && r.To == id {
		// A thunk that forwards to itself can only be forced by forcing itself.
		return nil, &adt.InfiniteLoopError{}
	}
	e.Thunks.PutValue(id, result)
	return e.followRefs(result, refChain)
}

// followRefs transparently follows Value::Ref forwarding, failing with
// ReferenceCycle if a chain revisits a thunk (spec.md §3, Invariant 4).
func (e *Eval) followRefs(v adt.Value, refChain map[thunk.ID]bool) (adt.Value, error) {
	ref, ok := v.(adt.Ref)
	if !ok {
		return v, nil
	}
	if refChain[ref.To] {
		return nil, &adt.ReferenceCycleError{}
	}
	refChain[ref.To] = true
	return e.forceVisiting(ref.To, refChain)
}

// LoadInline registers source (a JSON-encoded expression tree; see
// loader.go) as a fresh synthetic file and returns a thunk for its root
// expression (spec.md §6, `load_inline`).
func (e *Eval) LoadInline(source []byte) (thunk.ID, error) {
	e.inlineSeq++
	name := fmt.Sprintf("<inline-%d>", e.inlineSeq)
	root, err := decodeInto(e.Arena, source, name, "")
	if err != nil {
		return 0, &adt.ParseError{Cause: err}
	}
	return e.NewExprThunk(root, e.Builtin), nil
}

// LoadFile reads path via the Filesystem collaborator, decodes it as a
// serialized expression tree, and returns a thunk for its root expression,
// memoized by canonical path (spec.md §6, `load_file`).
func (e *Eval) LoadFile(path string) (thunk.ID, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return 0, &adt.IOError{Cause: err}
	}
	if id, ok := e.loadedFiles[abs]; ok {
		return id, nil
	}
	data, err := e.FS.ReadFile(abs)
	if err != nil {
		return 0, &adt.IOError{Cause: err}
	}
	root, err := decodeInto(e.Arena, data, abs, filepath.Dir(abs))
	if err != nil {
		return 0, &adt.ParseError{Cause: err}
	}
	id := e.NewExprThunk(root, e.Builtin)
	e.loadedFiles[abs] = id
	return id, nil
}

// Typed accessors (spec.md §6).

func (e *Eval) AsBool(id thunk.ID) (bool, error) {
	v, err := e.Force(id)
	if err != nil {
		return false, err
	}
	b, ok := v.(adt.Bool)
	if !ok {
		return false, &adt.TypeError{Expected: "bool", Got: v.Kind()}
	}
	return b.Val, nil
}

func (e *Eval) AsInt(id thunk.ID) (int64, error) {
	v, err := e.Force(id)
	if err != nil {
		return 0, err
	}
	i, ok := v.(adt.Int)
	if !ok {
		return 0, &adt.TypeError{Expected: "int", Got: v.Kind()}
	}
	return i.Val, nil
}

func (e *Eval) AsStringAndContext(id thunk.ID) (string, adt.PathSet, error) {
	v, err := e.Force(id)
	if err != nil {
		return "", nil, err
	}
	s, ok := v.(adt.String)
	if !ok {
		return "", nil, &adt.TypeError{Expected: "string", Got: v.Kind()}
	}
	return s.Text, s.Paths, nil
}

func (e *Eval) AsPath(id thunk.ID) (string, error) {
	v, err := e.Force(id)
	if err != nil {
		return "", err
	}
	p, ok := v.(adt.Path)
	if !ok {
		return "", &adt.TypeError{Expected: "path", Got: v.Kind()}
	}
	return p.Abs, nil
}

func (e *Eval) AsList(id thunk.ID) ([]thunk.ID, error) {
	v, err := e.Force(id)
	if err != nil {
		return nil, err
	}
	l, ok := v.(*adt.List)
	if !ok {
		return nil, &adt.TypeError{Expected: "list", Got: v.Kind()}
	}
	return l.Elems, nil
}

func (e *Eval) AsAttrs(id thunk.ID) (*adt.AttrSet, error) {
	v, err := e.Force(id)
	if err != nil {
		return nil, err
	}
	a, ok := v.(*adt.AttrSet)
	if !ok {
		return nil, &adt.TypeError{Expected: "set", Got: v.Kind()}
	}
	return a, nil
}

// wrapSpan is a small helper used throughout step.go/operators.go to
// attach an evaluation frame before propagating an error upward.
func wrapSpan(err error, span adt.Span) error {
	if err == nil {
		return nil
	}
	return evalerr.WithFrame(err, span)
}
