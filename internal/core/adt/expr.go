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

// Expr is the tagged-variant sum of expression node kinds (spec.md §3).
// Implementations are marker-only; internal/core/eval switches on the
// concrete Go type.
type Expr interface {
	exprNode()
}

// IntLit is an integer literal.
type IntLit struct{ Value int64 }

// FloatLit is a float literal.
type FloatLit struct{ Value float64 }

// BoolLit is a boolean literal.
type BoolLit struct{ Value bool }

// NullLit is the null literal.
type NullLit struct{}

// URILit is a bare URI literal (e.g. https://example.com/x), carried as
// plain text; the evaluator treats it as an opaque string with no context.
type URILit struct{ Text string }

// StrPart is one piece of a string template: either plain text or an
// interpolated expression.
type StrPart struct {
	Plain string // used when Interp == 0 and IsInterp is false
	Interp ExprRef
	IsInterp bool
}

// StrTemplate is a string template: "...${e}...".
type StrTemplate struct{ Parts []StrPart }

// PathKind distinguishes the three path literal forms (spec.md §3).
type PathKind int

const (
	PathPlain PathKind = iota
	PathHome
	PathSearch
)

// PathLit is a path literal. For PathSearch, Text holds the "name/sub" part
// of <name/sub>.
type PathLit struct {
	Kind PathKind
	Text string
}

// Var is a variable reference.
type Var struct{ Name Ident }

// FormalArg is one declared formal in a lambda's attr-set pattern.
type FormalArg struct {
	Name Ident
	Default ExprRef // zero value (ExprRef(0)) with HasDefault == false means no default
	HasDefault bool
}

// Pattern is a lambda's argument pattern: either a single bound name, or a
// formal attr-set pattern with an optional `...` and `@name` binder.
type Pattern struct {
	// Single-name pattern, e.g. `x: ...`.
	IsName bool
	Name Ident

	// Formals pattern, e.g. `{ a, b ? 1, ... }@args: ...`.
	Formals []FormalArg
	Ellipsis bool
	HasAt bool
	At Ident
}

// LambdaExpr is a function literal.
type LambdaExpr struct {
	Pattern Pattern
	Body ExprRef
}

// App is function application.
type App struct{ Fn, Arg ExprRef }

// BinOp identifies a binary operator (spec.md §4.4).
type BinOp int

const (
	OpAdd BinOp = iota
	OpSub
	OpMul
	OpDiv
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpAnd
	OpOr
	OpImpl // ->
	OpUpdate // //
	OpConcat // ++
)

// Binary is a binary operator expression.
type Binary struct {
	Op BinOp
	LHS, RHS ExprRef
}

// UnOp identifies a unary operator.
type UnOp int

const (
	OpNot UnOp = iota
	OpNeg
)

// Unary is a unary operator expression.
type Unary struct {
	Op UnOp
	X ExprRef
}

// LetExpr is a `let` binding set followed by a body.
type LetExpr struct {
	Bindings []Binding
	Body ExprRef
}

// WithExpr is `with env; body`.
type WithExpr struct {
	Env ExprRef
	Body ExprRef
}

// IfExpr is `if cond then t else f`.
type IfExpr struct {
	Cond, Then, Else ExprRef
}

// AssertExpr is `assert cond; body`.
type AssertExpr struct {
	Cond, Body ExprRef
}

// AttrNameKind distinguishes static from computed attribute names.
type AttrNameKind int

const (
	AttrPlain AttrNameKind = iota // a plain identifier
	AttrStr                      // a string template, e.g. "${x}"
	AttrDynamic                   // ${expr}
)

// AttrName is one path component of an attribute binding (spec.md §4.7).
type AttrName struct {
	Kind AttrNameKind
	Plain Ident
	Expr ExprRef // valid when Kind != AttrPlain
}

// BindingKind distinguishes plain bindings from inherit clauses.
type BindingKind int

const (
	BindPlain BindingKind = iota
	BindInherit
)

// Binding is one entry of an attribute-set or let-block's binding list.
type Binding struct {
	Kind BindingKind

	// BindPlain:
	Path []AttrName
	RHS  ExprRef

	// BindInherit:
	From      ExprRef
	HasFrom   bool
	Names     []Ident

	Span Span
}

// AttrSetExpr is an attribute-set literal.
type AttrSetExpr struct {
	Rec      bool
	Bindings []Binding
}

// ListExpr is a list literal.
type ListExpr struct{ Elems []ExprRef }

// Select is `lhs.path.q or fallback`.
type Select struct {
	LHS      ExprRef
	Path     []AttrName
	Fallback ExprRef
	HasFallback bool
}

// HasAttr is `lhs ? path`.
type HasAttr struct {
	LHS  ExprRef
	Path []AttrName
}

func (IntLit) exprNode()     {}
func (FloatLit) exprNode()   {}
func (BoolLit) exprNode()    {}
func (NullLit) exprNode()    {}
func (URILit) exprNode()     {}
func (StrTemplate) exprNode(){}
func (PathLit) exprNode()    {}
func (Var) exprNode()        {}
func (LambdaExpr) exprNode() {}
func (App) exprNode()        {}
func (Binary) exprNode()     {}
func (Unary) exprNode()      {}
func (LetExpr) exprNode()    {}
func (WithExpr) exprNode()   {}
func (IfExpr) exprNode()     {}
func (AssertExpr) exprNode() {}
func (AttrSetExpr) exprNode(){}
func (ListExpr) exprNode()   {}
func (Select) exprNode()     {}
func (HasAttr) exprNode()    {}
