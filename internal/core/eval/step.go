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
	"path/filepath"

	"github.com/nixeval/nix-eval/internal/core/adt"
	"github.com/nixeval/nix-eval/internal/core/thunk"
)

// forceExpr allocates a throwaway thunk for ref under ctx and immediately
// forces it. Used wherever spec.md requires an operand to be reduced to
// WHNF inline (binary/unary operands, `if`/`assert` conditions, selection
// heads) rather than remaining a standalone, independently-shared thunk.
func (e *Eval) forceExpr(ref adt.ExprRef, ctx *adt.Context) (adt.Value, error) {
	id := e.NewExprThunk(ref, ctx)
	return e.Force(id)
}

// stepEval is the large switch of spec.md §4.5 over expression node kinds.
func (e *Eval) stepEval(ref adt.ExprRef, ctx *adt.Context) (adt.Value, error) {
	span := e.Arena.Span(ref)
	v, err := e.stepEvalNode(e.Arena.Node(ref), ref, ctx)
	if err != nil {
		return nil, wrapSpan(err, span)
	}
	return v, nil
}

func (e *Eval) stepEvalNode(node adt.Expr, ref adt.ExprRef, ctx *adt.Context) (adt.Value, error) {
	switch x := node.(type) {
	case adt.IntLit:
		return adt.Int{Val: x.Value}, nil
	case adt.FloatLit:
		return adt.Float{Val: x.Value}, nil
	case adt.BoolLit:
		return adt.Bool{Val: x.Value}, nil
	case adt.NullLit:
		return adt.Null{}, nil
	case adt.URILit:
		return adt.String{Text: x.Text}, nil

	case adt.StrTemplate:
		return e.evalStrTemplate(x, ctx)

	case adt.PathLit:
		return e.evalPathLit(x, ref, ctx)

	case adt.Var:
		id, ok, err := ctx.Lookup(e, x.Name)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, &adt.UnboundVariableError{Name: x.Name.String()}
		}
		return adt.Ref{To: id}, nil

	case adt.LambdaExpr:
		return &adt.Lambda{Pattern: x.Pattern, Body: x.Body, Captures: ctx}, nil

	case adt.App:
		fn := e.NewExprThunk(x.Fn, ctx)
		arg := e.NewExprThunk(x.Arg, ctx)
		return adt.Ref{To: e.NewApplyThunk(fn, arg)}, nil

	case adt.AttrSetExpr:
		return e.evalAttrSetExpr(x, ctx)

	case adt.ListExpr:
		elems := make([]thunk.ID, len(x.Elems))
		for i, el := range x.Elems {
			elems[i] = e.NewExprThunk(el, ctx)
		}
		return &adt.List{Elems: elems}, nil

	case adt.Select:
		return e.evalSelect(x, ctx)

	case adt.HasAttr:
		return e.evalHasAttr(x, ctx)

	case adt.LetExpr:
		placeholder := e.Thunks.Alloc(thunk.Blackhole{})
		inner := ctx.Prepend(adt.NewDynamicScope(placeholder))
		set, err := e.buildAttrs(x.Bindings, inner, ctx)
		if err != nil {
			return nil, err
		}
		e.Thunks.PutValue(placeholder, set)
		return e.stepEval(x.Body, inner)

	case adt.WithExpr:
		envThunk := e.NewExprThunk(x.Env, ctx)
		inner := ctx.Append(adt.NewDynamicScope(envThunk))
		return e.stepEval(x.Body, inner)

	case adt.AssertExpr:
		v, err := e.forceExpr(x.Cond, ctx)
		if err != nil {
			return nil, err
		}
		b, ok := v.(adt.Bool)
		if !ok {
			return nil, &adt.TypeError{Expected: "bool", Got: v.Kind()}
		}
		if !b.Val {
			return nil, &adt.AssertionFailedError{CondSpan: e.Arena.Span(x.Cond)}
		}
		return e.stepEval(x.Body, ctx)

	case adt.IfExpr:
		v, err := e.forceExpr(x.Cond, ctx)
		if err != nil {
			return nil, err
		}
		b, ok := v.(adt.Bool)
		if !ok {
			return nil, &adt.TypeError{Expected: "bool", Got: v.Kind()}
		}
		if b.Val {
			return e.stepEval(x.Then, ctx)
		}
		return e.stepEval(x.Else, ctx)

	case adt.Binary:
		return e.evalBinary(x, ctx)

	case adt.Unary:
		return e.evalUnary(x, ctx)

	default:
		return nil, &adt.TypeError{Expected: "expression", Got: "unknown"}
	}
}

func (e *Eval) evalStrTemplate(x adt.StrTemplate, ctx *adt.Context) (adt.Value, error) {
	var text string
	var paths adt.PathSet
	for _, part := range x.Parts {
		if !part.IsInterp {
			text += part.Plain
			continue
		}
		v, err := e.forceExpr(part.Interp, ctx)
		if err != nil {
			return nil, err
		}
		s, err := e.CoerceToString(v, CoerceOpts{Extended: false, CopyToStore: true})
		if err != nil {
			return nil, err
		}
		text += s.Text
		paths = paths.Union(s.Paths)
	}
	return adt.String{Text: text, Paths: paths}, nil
}

func (e *Eval) evalPathLit(x adt.PathLit, ref adt.ExprRef, ctx *adt.Context) (adt.Value, error) {
	switch x.Kind {
	case adt.PathPlain:
		if filepath.IsAbs(x.Text) {
			return adt.Path{Abs: filepath.Clean(x.Text)}, nil
		}
		file := e.Arena.Span(ref).File
		return adt.Path{Abs: filepath.Clean(filepath.Join(e.FileDir(file), x.Text))}, nil
	case adt.PathHome:
		home, err := e.Env.HomeDir()
		if err != nil {
			return nil, &adt.IOError{Cause: err}
		}
		return adt.Path{Abs: filepath.Clean(filepath.Join(home, x.Text))}, nil
	case adt.PathSearch:
		id, ok, err := ctx.Lookup(e, adt.Intern("__nixPath"))
		if err != nil {
			return nil, err
		}
		var entries []NixPathEntry
		if ok {
			v, err := e.Force(id)
			if err != nil {
				return nil, err
			}
			entries, err = decodeNixPathList(e, v)
			if err != nil {
				return nil, err
			}
		}
		abs, err := e.Store.FindFile(entries, x.Text)
		if err != nil {
			return nil, err
		}
		return adt.Path{Abs: abs}, nil
	default:
		return nil, &adt.TypeError{Expected: "path literal", Got: "unknown"}
	}
}

// resolveAttrName evaluates one AttrName to its Ident, forcing Str/Dynamic
// name expressions to a string (spec.md §4.7).
func (e *Eval) resolveAttrName(n adt.AttrName, ctx *adt.Context) (adt.Ident, error) {
	switch n.Kind {
	case adt.AttrPlain:
		return n.Plain, nil
	case adt.AttrStr, adt.AttrDynamic:
		v, err := e.forceExpr(n.Expr, ctx)
		if err != nil {
			return 0, err
		}
		s, ok := v.(adt.String)
		if !ok {
			return 0, &adt.TypeError{Expected: "string", Got: v.Kind()}
		}
		return adt.Intern(s.Text), nil
	default:
		return 0, &adt.TypeError{Expected: "attribute name", Got: "unknown"}
	}
}

func (e *Eval) evalSelect(x adt.Select, ctx *adt.Context) (adt.Value, error) {
	v, err := e.forceExpr(x.LHS, ctx)
	if err != nil {
		return nil, err
	}
	for _, comp := range x.Path {
		name, err := e.resolveAttrName(comp, ctx)
		if err != nil {
			return nil, err
		}
		attrs, ok := v.(*adt.AttrSet)
		if !ok {
			if x.HasFallback {
				return e.stepEval(x.Fallback, ctx)
			}
			return nil, &adt.TypeError{Expected: "set", Got: v.Kind()}
		}
		id, found := attrs.Get(name)
		if !found {
			if x.HasFallback {
				return e.stepEval(x.Fallback, ctx)
			}
			return nil, &adt.MissingAttributeError{Name: name.String()}
		}
		v, err = e.Force(id)
		if err != nil {
			return nil, err
		}
	}
	return v, nil
}

func (e *Eval) evalHasAttr(x adt.HasAttr, ctx *adt.Context) (adt.Value, error) {
	v, err := e.forceExpr(x.LHS, ctx)
	if err != nil {
		return nil, err
	}
	for _, comp := range x.Path {
		name, err := e.resolveAttrName(comp, ctx)
		if err != nil {
			return nil, err
		}
		attrs, ok := v.(*adt.AttrSet)
		if !ok {
			return adt.Bool{Val: false}, nil
		}
		id, found := attrs.Get(name)
		if !found {
			return adt.Bool{Val: false}, nil
		}
		v, err = e.Force(id)
		if err != nil {
			return nil, err
		}
	}
	return adt.Bool{Val: true}, nil
}

func (e *Eval) evalAttrSetExpr(x adt.AttrSetExpr, ctx *adt.Context) (adt.Value, error) {
	attrsID := e.Thunks.Alloc(thunk.Blackhole{})
	inner := ctx
	if x.Rec {
		inner = ctx.Prepend(adt.NewDynamicScope(attrsID))
	}
	set, err := e.buildAttrs(x.Bindings, inner, ctx)
	if err != nil {
		return nil, err
	}
	e.Thunks.PutValue(attrsID, set)
	return adt.Ref{To: attrsID}, nil
}
