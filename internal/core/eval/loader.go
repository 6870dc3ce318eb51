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

// loader.go stands in for the Parser collaborator of spec.md §6. spec.md
// §1 explicitly puts lexing/parsing Nix surface syntax out of scope for
// this module; rather than hand-roll one anyway, LoadFile/LoadInline
// consume a serialized expression tree (the shape a real frontend would
// produce) and decode it directly into the shared adt.ExprArena.
package eval

import (
	"encoding/json"
	"fmt"

	"github.com/nixeval/nix-eval/internal/core/adt"
)

// jsonNode is the wire shape of one expression node. Only the fields
// relevant to Type are populated by a well-formed producer; the rest are
// left zero.
type jsonNode struct {
	Type  string `json:"type"`
	Start int    `json:"start"`
	End   int    `json:"end"`

	Int   int64   `json:"int"`
	Float float64 `json:"float"`
	Bool  bool    `json:"bool"`
	Text  string  `json:"text"` // uri text, path text, bare name

	Parts []jsonStrPart `json:"parts"` // string

	PathKind string `json:"pathKind"` // path: "plain" | "home" | "search"

	Pattern *jsonPattern `json:"pattern"` // lambda
	Body    *jsonNode    `json:"body"`    // lambda, let, with

	Fn  *jsonNode `json:"fn"`  // app
	Arg *jsonNode `json:"arg"` // app

	Op  string    `json:"op"` // binary, unary
	LHS *jsonNode `json:"lhs"`
	RHS *jsonNode `json:"rhs"`
	X   *jsonNode `json:"x"`

	Bindings []jsonBinding `json:"bindings"` // let, attrset

	Env *jsonNode `json:"env"` // with

	Cond *jsonNode `json:"cond"` // if, assert
	Then *jsonNode `json:"then"`
	Else *jsonNode `json:"else"`

	Rec bool `json:"rec"` // attrset

	Elems []jsonNode `json:"elems"` // list

	Path        []jsonAttrName `json:"path"` // select, hasattr
	Fallback    *jsonNode      `json:"fallback"`
	HasFallback bool           `json:"hasFallback"`
}

type jsonStrPart struct {
	Plain    string    `json:"plain"`
	Interp   *jsonNode `json:"interp"`
	IsInterp bool      `json:"isInterp"`
}

type jsonPattern struct {
	IsName   bool          `json:"isName"`
	Name     string        `json:"name"`
	Formals  []jsonFormal  `json:"formals"`
	Ellipsis bool          `json:"ellipsis"`
	HasAt    bool          `json:"hasAt"`
	At       string        `json:"at"`
}

type jsonFormal struct {
	Name       string    `json:"name"`
	Default    *jsonNode `json:"default"`
	HasDefault bool      `json:"hasDefault"`
}

type jsonAttrName struct {
	Kind  string    `json:"kind"` // "plain" | "str" | "dynamic"
	Plain string    `json:"plain"`
	Expr  *jsonNode `json:"expr"`
}

type jsonBinding struct {
	Kind string `json:"kind"` // "plain" | "inherit"

	Path []jsonAttrName `json:"path"`
	RHS  *jsonNode      `json:"rhs"`

	From    *jsonNode `json:"from"`
	HasFrom bool      `json:"hasFrom"`
	Names   []string  `json:"names"`

	Start int `json:"start"`
	End   int `json:"end"`
}

// decodeInto unmarshals a JSON-encoded expression tree into arena under a
// freshly registered file name/dir, returning the root node's ExprRef.
func decodeInto(arena *adt.ExprArena, data []byte, name, dir string) (adt.ExprRef, error) {
	var root jsonNode
	if err := json.Unmarshal(data, &root); err != nil {
		return 0, err
	}
	d := &decoder{arena: arena, file: arena.Files.Add(name, dir)}
	return d.expr(&root)
}

type decoder struct {
	arena *adt.ExprArena
	file  adt.FileID
}

func (d *decoder) span(n *jsonNode) adt.Span {
	return adt.Span{File: d.file, Start: n.Start, End: n.End}
}

func (d *decoder) bindingSpan(b jsonBinding) adt.Span {
	return adt.Span{File: d.file, Start: b.Start, End: b.End}
}

func (d *decoder) add(e adt.Expr, n *jsonNode) adt.ExprRef {
	return d.arena.Add(e, d.span(n))
}

func (d *decoder) expr(n *jsonNode) (adt.ExprRef, error) {
	if n == nil {
		return 0, fmt.Errorf("loader: nil expression node")
	}
	switch n.Type {
	case "int":
		return d.add(adt.IntLit{Value: n.Int}, n), nil
	case "float":
		return d.add(adt.FloatLit{Value: n.Float}, n), nil
	case "bool":
		return d.add(adt.BoolLit{Value: n.Bool}, n), nil
	case "null":
		return d.add(adt.NullLit{}, n), nil
	case "uri":
		return d.add(adt.URILit{Text: n.Text}, n), nil

	case "string":
		parts := make([]adt.StrPart, len(n.Parts))
		for i, p := range n.Parts {
			if p.IsInterp {
				interp, err := d.expr(p.Interp)
				if err != nil {
					return 0, err
				}
				parts[i] = adt.StrPart{Interp: interp, IsInterp: true}
			} else {
				parts[i] = adt.StrPart{Plain: p.Plain}
			}
		}
		return d.add(adt.StrTemplate{Parts: parts}, n), nil

	case "path":
		kind, err := decodePathKind(n.PathKind)
		if err != nil {
			return 0, err
		}
		return d.add(adt.PathLit{Kind: kind, Text: n.Text}, n), nil

	case "var":
		return d.add(adt.Var{Name: adt.Intern(n.Text)}, n), nil

	case "lambda":
		pattern, err := d.pattern(n.Pattern)
		if err != nil {
			return 0, err
		}
		body, err := d.expr(n.Body)
		if err != nil {
			return 0, err
		}
		return d.add(adt.LambdaExpr{Pattern: pattern, Body: body}, n), nil

	case "app":
		fn, err := d.expr(n.Fn)
		if err != nil {
			return 0, err
		}
		arg, err := d.expr(n.Arg)
		if err != nil {
			return 0, err
		}
		return d.add(adt.App{Fn: fn, Arg: arg}, n), nil

	case "binary":
		op, err := decodeBinOp(n.Op)
		if err != nil {
			return 0, err
		}
		lhs, err := d.expr(n.LHS)
		if err != nil {
			return 0, err
		}
		rhs, err := d.expr(n.RHS)
		if err != nil {
			return 0, err
		}
		return d.add(adt.Binary{Op: op, LHS: lhs, RHS: rhs}, n), nil

	case "unary":
		op, err := decodeUnOp(n.Op)
		if err != nil {
			return 0, err
		}
		x, err := d.expr(n.X)
		if err != nil {
			return 0, err
		}
		return d.add(adt.Unary{Op: op, X: x}, n), nil

	case "let":
		bindings, err := d.bindings(n.Bindings)
		if err != nil {
			return 0, err
		}
		body, err := d.expr(n.Body)
		if err != nil {
			return 0, err
		}
		return d.add(adt.LetExpr{Bindings: bindings, Body: body}, n), nil

	case "with":
		env, err := d.expr(n.Env)
		if err != nil {
			return 0, err
		}
		body, err := d.expr(n.Body)
		if err != nil {
			return 0, err
		}
		return d.add(adt.WithExpr{Env: env, Body: body}, n), nil

	case "if":
		cond, err := d.expr(n.Cond)
		if err != nil {
			return 0, err
		}
		then, err := d.expr(n.Then)
		if err != nil {
			return 0, err
		}
		els, err := d.expr(n.Else)
		if err != nil {
			return 0, err
		}
		return d.add(adt.IfExpr{Cond: cond, Then: then, Else: els}, n), nil

	case "assert":
		cond, err := d.expr(n.Cond)
		if err != nil {
			return 0, err
		}
		body, err := d.expr(n.Body)
		if err != nil {
			return 0, err
		}
		return d.add(adt.AssertExpr{Cond: cond, Body: body}, n), nil

	case "attrset":
		bindings, err := d.bindings(n.Bindings)
		if err != nil {
			return 0, err
		}
		return d.add(adt.AttrSetExpr{Rec: n.Rec, Bindings: bindings}, n), nil

	case "list":
		elems := make([]adt.ExprRef, len(n.Elems))
		for i := range n.Elems {
			el, err := d.expr(&n.Elems[i])
			if err != nil {
				return 0, err
			}
			elems[i] = el
		}
		return d.add(adt.ListExpr{Elems: elems}, n), nil

	case "select":
		lhs, err := d.expr(n.LHS)
		if err != nil {
			return 0, err
		}
		path, err := d.attrNames(n.Path)
		if err != nil {
			return 0, err
		}
		sel := adt.Select{LHS: lhs, Path: path, HasFallback: n.HasFallback}
		if n.HasFallback {
			fb, err := d.expr(n.Fallback)
			if err != nil {
				return 0, err
			}
			sel.Fallback = fb
		}
		return d.add(sel, n), nil

	case "hasattr":
		lhs, err := d.expr(n.LHS)
		if err != nil {
			return 0, err
		}
		path, err := d.attrNames(n.Path)
		if err != nil {
			return 0, err
		}
		return d.add(adt.HasAttr{LHS: lhs, Path: path}, n), nil

	default:
		return 0, fmt.Errorf("loader: unknown expression node type %q", n.Type)
	}
}

func (d *decoder) pattern(p *jsonPattern) (adt.Pattern, error) {
	if p == nil {
		return adt.Pattern{}, fmt.Errorf("loader: lambda missing pattern")
	}
	if p.IsName {
		return adt.Pattern{IsName: true, Name: adt.Intern(p.Name)}, nil
	}
	formals := make([]adt.FormalArg, len(p.Formals))
	for i, f := range p.Formals {
		formal := adt.FormalArg{Name: adt.Intern(f.Name), HasDefault: f.HasDefault}
		if f.HasDefault {
			def, err := d.expr(f.Default)
			if err != nil {
				return adt.Pattern{}, err
			}
			formal.Default = def
		}
		formals[i] = formal
	}
	return adt.Pattern{
		Formals:  formals,
		Ellipsis: p.Ellipsis,
		HasAt:    p.HasAt,
		At:       adt.Intern(p.At),
	}, nil
}

func (d *decoder) attrNames(names []jsonAttrName) ([]adt.AttrName, error) {
	out := make([]adt.AttrName, len(names))
	for i, n := range names {
		switch n.Kind {
		case "plain":
			out[i] = adt.AttrName{Kind: adt.AttrPlain, Plain: adt.Intern(n.Plain)}
		case "str":
			e, err := d.expr(n.Expr)
			if err != nil {
				return nil, err
			}
			out[i] = adt.AttrName{Kind: adt.AttrStr, Expr: e}
		case "dynamic":
			e, err := d.expr(n.Expr)
			if err != nil {
				return nil, err
			}
			out[i] = adt.AttrName{Kind: adt.AttrDynamic, Expr: e}
		default:
			return nil, fmt.Errorf("loader: unknown attribute name kind %q", n.Kind)
		}
	}
	return out, nil
}

func (d *decoder) bindings(bs []jsonBinding) ([]adt.Binding, error) {
	out := make([]adt.Binding, len(bs))
	for i, b := range bs {
		span := d.bindingSpan(b)
		switch b.Kind {
		case "plain":
			path, err := d.attrNames(b.Path)
			if err != nil {
				return nil, err
			}
			rhs, err := d.expr(b.RHS)
			if err != nil {
				return nil, err
			}
			out[i] = adt.Binding{Kind: adt.BindPlain, Path: path, RHS: rhs, Span: span}
		case "inherit":
			names := make([]adt.Ident, len(b.Names))
			for j, name := range b.Names {
				names[j] = adt.Intern(name)
			}
			binding := adt.Binding{Kind: adt.BindInherit, Names: names, HasFrom: b.HasFrom, Span: span}
			if b.HasFrom {
				from, err := d.expr(b.From)
				if err != nil {
					return nil, err
				}
				binding.From = from
			}
			out[i] = binding
		default:
			return nil, fmt.Errorf("loader: unknown binding kind %q", b.Kind)
		}
	}
	return out, nil
}

func decodePathKind(s string) (adt.PathKind, error) {
	switch s {
	case "plain", "":
		return adt.PathPlain, nil
	case "home":
		return adt.PathHome, nil
	case "search":
		return adt.PathSearch, nil
	default:
		return 0, fmt.Errorf("loader: unknown path kind %q", s)
	}
}

func decodeBinOp(s string) (adt.BinOp, error) {
	switch s {
	case "add":
		return adt.OpAdd, nil
	case "sub":
		return adt.OpSub, nil
	case "mul":
		return adt.OpMul, nil
	case "div":
		return adt.OpDiv, nil
	case "eq":
		return adt.OpEq, nil
	case "ne":
		return adt.OpNe, nil
	case "lt":
		return adt.OpLt, nil
	case "le":
		return adt.OpLe, nil
	case "gt":
		return adt.OpGt, nil
	case "ge":
		return adt.OpGe, nil
	case "and":
		return adt.OpAnd, nil
	case "or":
		return adt.OpOr, nil
	case "impl":
		return adt.OpImpl, nil
	case "update":
		return adt.OpUpdate, nil
	case "concat":
		return adt.OpConcat, nil
	default:
		return 0, fmt.Errorf("loader: unknown binary operator %q", s)
	}
}

func decodeUnOp(s string) (adt.UnOp, error) {
	switch s {
	case "not":
		return adt.OpNot, nil
	case "neg":
		return adt.OpNeg, nil
	default:
		return 0, fmt.Errorf("loader: unknown unary operator %q", s)
	}
}
