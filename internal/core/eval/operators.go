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
	"errors"
	"path/filepath"

	"github.com/nixeval/nix-eval/internal/core/adt"
	"github.com/nixeval/nix-eval/internal/core/thunk"
)

// evalBinary implements the binary operator table of spec.md §4.4.
func (e *Eval) evalBinary(x adt.Binary, ctx *adt.Context) (adt.Value, error) {
	switch x.Op {
	case adt.OpAnd:
		return e.evalShortCircuit(x, ctx, false)
	case adt.OpOr:
		return e.evalShortCircuit(x, ctx, true)
	case adt.OpImpl:
		return e.evalImplies(x, ctx)
	}

	lv, err := e.forceExpr(x.LHS, ctx)
	if err != nil {
		return nil, err
	}
	rv, err := e.forceExpr(x.RHS, ctx)
	if err != nil {
		return nil, err
	}

	switch x.Op {
	case adt.OpAdd:
		return e.evalAdd(lv, rv)
	case adt.OpSub:
		return arithmetic(lv, rv, func(a, b int64) int64 { return a - b }, func(a, b float64) float64 { return a - b })
	case adt.OpMul:
		return arithmetic(lv, rv, func(a, b int64) int64 { return a * b }, func(a, b float64) float64 { return a * b })
	case adt.OpDiv:
		return evalDiv(lv, rv)
	case adt.OpEq:
		eq, err := e.valuesEqual(lv, rv)
		return adt.Bool{Val: eq}, err
	case adt.OpNe:
		eq, err := e.valuesEqual(lv, rv)
		return adt.Bool{Val: !eq}, err
	case adt.OpLt:
		lt, err := e.valueLess(lv, rv)
		return adt.Bool{Val: lt}, err
	case adt.OpLe:
		gt, err := e.valueLess(rv, lv)
		return adt.Bool{Val: !gt}, err
	case adt.OpGt:
		gt, err := e.valueLess(rv, lv)
		return adt.Bool{Val: gt}, err
	case adt.OpGe:
		lt, err := e.valueLess(lv, rv)
		return adt.Bool{Val: !lt}, err
	case adt.OpUpdate:
		return evalUpdate(lv, rv)
	case adt.OpConcat:
		return evalConcat(lv, rv)
	}
	return nil, &adt.TypeError{Expected: "operator", Got: "unknown"}
}

func (e *Eval) evalShortCircuit(x adt.Binary, ctx *adt.Context, shortOn bool) (adt.Value, error) {
	lv, err := e.forceExpr(x.LHS, ctx)
	if err != nil {
		return nil, err
	}
	lb, ok := lv.(adt.Bool)
	if !ok {
		return nil, &adt.TypeError{Expected: "bool", Got: lv.Kind()}
	}
	if lb.Val == shortOn {
		return adt.Bool{Val: shortOn}, nil
	}
	rv, err := e.forceExpr(x.RHS, ctx)
	if err != nil {
		return nil, err
	}
	rb, ok := rv.(adt.Bool)
	if !ok {
		return nil, &adt.TypeError{Expected: "bool", Got: rv.Kind()}
	}
	return rb, nil
}

func (e *Eval) evalImplies(x adt.Binary, ctx *adt.Context) (adt.Value, error) {
	lv, err := e.forceExpr(x.LHS, ctx)
	if err != nil {
		return nil, err
	}
	lb, ok := lv.(adt.Bool)
	if !ok {
		return nil, &adt.TypeError{Expected: "bool", Got: lv.Kind()}
	}
	if !lb.Val {
		return adt.Bool{Val: true}, nil
	}
	rv, err := e.forceExpr(x.RHS, ctx)
	if err != nil {
		return nil, err
	}
	rb, ok := rv.(adt.Bool)
	if !ok {
		return nil, &adt.TypeError{Expected: "bool", Got: rv.Kind()}
	}
	return rb, nil
}

// evalAdd dispatches on LHS type (spec.md §4.4).
func (e *Eval) evalAdd(lv, rv adt.Value) (adt.Value, error) {
	switch l := lv.(type) {
	case adt.Int, adt.Float:
		return arithmetic(lv, rv, func(a, b int64) int64 { return a + b }, func(a, b float64) float64 { return a + b })
	case adt.Path:
		switch r := rv.(type) {
		case adt.Path:
			return adt.Path{Abs: filepath.Clean(filepath.Join(l.Abs, r.Abs))}, nil
		case adt.String:
			if len(r.Paths) > 0 {
				return nil, &adt.StringContextConflictError{}
			}
			return adt.Path{Abs: filepath.Clean(filepath.Join(l.Abs, r.Text))}, nil
		default:
			return nil, &adt.TypeError{Expected: "path or string", Got: rv.Kind()}
		}
	default:
		// copy_to_store is gated on the LHS actually being a string value
		// (original_source/src/eval/operators.rs's lhs_is_string), applied
		// to both operands, not unconditionally true: a path reached via
		// e.g. an attrset's outPath should not be copied to the store just
		// because it ends up on the addition's left-hand side.
		_, lIsString := lv.(adt.String)
		ls, err := e.CoerceToString(lv, CoerceOpts{Extended: false, CopyToStore: lIsString})
		if err != nil {
			return nil, err
		}
		rs, err := e.CoerceToString(rv, CoerceOpts{Extended: false, CopyToStore: lIsString})
		if err != nil {
			return nil, err
		}
		return adt.String{Text: ls.Text + rs.Text, Paths: ls.Paths.Union(rs.Paths)}, nil
	}
}

func arithmetic(a, b adt.Value, opInt func(int64, int64) int64, opFloat func(float64, float64) float64) (adt.Value, error) {
	switch av := a.(type) {
	case adt.Int:
		switch bv := b.(type) {
		case adt.Int:
			return adt.Int{Val: opInt(av.Val, bv.Val)}, nil
		case adt.Float:
			return adt.Float{Val: opFloat(float64(av.Val), bv.Val)}, nil
		}
	case adt.Float:
		switch bv := b.(type) {
		case adt.Float:
			return adt.Float{Val: opFloat(av.Val, bv.Val)}, nil
		case adt.Int:
			return adt.Float{Val: opFloat(av.Val, float64(bv.Val))}, nil
		}
	}
	return nil, &adt.TypeError{Expected: "number", Got: a.Kind()}
}

func evalDiv(a, b adt.Value) (adt.Value, error) {
	switch av := a.(type) {
	case adt.Int:
		switch bv := b.(type) {
		case adt.Int:
			if bv.Val == 0 {
				return nil, errors.New("division by zero")
			}
			return adt.Int{Val: av.Val / bv.Val}, nil
		case adt.Float:
			return adt.Float{Val: float64(av.Val) / bv.Val}, nil
		}
	case adt.Float:
		switch bv := b.(type) {
		case adt.Float:
			return adt.Float{Val: av.Val / bv.Val}, nil
		case adt.Int:
			return adt.Float{Val: av.Val / float64(bv.Val)}, nil
		}
	}
	return nil, &adt.TypeError{Expected: "number", Got: a.Kind()}
}

func evalUpdate(lv, rv adt.Value) (adt.Value, error) {
	la, ok := lv.(*adt.AttrSet)
	if !ok {
		return nil, &adt.TypeError{Expected: "set", Got: lv.Kind()}
	}
	ra, ok := rv.(*adt.AttrSet)
	if !ok {
		return nil, &adt.TypeError{Expected: "set", Got: rv.Kind()}
	}
	out := adt.NewAttrSet()
	for _, k := range la.Keys {
		id, _ := la.Get(k)
		out.Set(k, id)
	}
	for _, k := range ra.Keys {
		id, _ := ra.Get(k)
		out.Set(k, id)
	}
	return out, nil
}

func evalConcat(lv, rv adt.Value) (adt.Value, error) {
	ll, ok := lv.(*adt.List)
	if !ok {
		return nil, &adt.TypeError{Expected: "list", Got: lv.Kind()}
	}
	rl, ok := rv.(*adt.List)
	if !ok {
		return nil, &adt.TypeError{Expected: "list", Got: rv.Kind()}
	}
	elems := make([]thunk.ID, 0, len(ll.Elems)+len(rl.Elems))
	elems = append(elems, ll.Elems...)
	elems = append(elems, rl.Elems...)
	return &adt.List{Elems: elems}, nil
}

// evalUnary implements `!` and unary `-` (spec.md §4.4).
func (e *Eval) evalUnary(x adt.Unary, ctx *adt.Context) (adt.Value, error) {
	v, err := e.forceExpr(x.X, ctx)
	if err != nil {
		return nil, err
	}
	switch x.Op {
	case adt.OpNot:
		b, ok := v.(adt.Bool)
		if !ok {
			return nil, &adt.TypeError{Expected: "bool", Got: v.Kind()}
		}
		return adt.Bool{Val: !b.Val}, nil
	case adt.OpNeg:
		return arithmetic(adt.Int{Val: 0}, v, func(a, b int64) int64 { return a - b }, func(a, b float64) float64 { return a - b })
	}
	return nil, &adt.TypeError{Expected: "operator", Got: "unknown"}
}

// valuesEqual implements the structural, deep, cycle-free equality of
// spec.md §4.3.
func (e *Eval) valuesEqual(a, b adt.Value) (bool, error) {
	switch av := a.(type) {
	case adt.Int:
		switch bv := b.(type) {
		case adt.Int:
			return av.Val == bv.Val, nil
		case adt.Float:
			return av.Val == int64(bv.Val), nil
		}
		return false, nil
	case adt.Float:
		switch bv := b.(type) {
		case adt.Float:
			return av.Val == bv.Val, nil
		case adt.Int:
			return int64(av.Val) == bv.Val, nil
		}
		return false, nil
	case adt.Bool:
		bv, ok := b.(adt.Bool)
		return ok && av.Val == bv.Val, nil
	case adt.Null:
		_, ok := b.(adt.Null)
		return ok, nil
	case adt.String:
		bv, ok := b.(adt.String)
		return ok && av.Text == bv.Text, nil
	case adt.Path:
		bv, ok := b.(adt.Path)
		return ok && filepath.Clean(av.Abs) == filepath.Clean(bv.Abs), nil
	case *adt.List:
		bv, ok := b.(*adt.List)
		if !ok || len(av.Elems) != len(bv.Elems) {
			return false, nil
		}
		for i := range av.Elems {
			ea, err := e.Force(av.Elems[i])
			if err != nil {
				return false, err
			}
			eb, err := e.Force(bv.Elems[i])
			if err != nil {
				return false, err
			}
			eq, err := e.valuesEqual(ea, eb)
			if err != nil || !eq {
				return false, err
			}
		}
		return true, nil
	case *adt.AttrSet:
		bv, ok := b.(*adt.AttrSet)
		if !ok {
			return false, nil
		}
		return e.attrSetsEqual(av, bv)
	case *adt.Lambda, *adt.Primop:
		return false, nil
	default:
		return false, nil
	}
}

func (e *Eval) attrSetsEqual(av, bv *adt.AttrSet) (bool, error) {
	outPath := adt.Intern("outPath")
	aOut, aHas := av.Get(outPath)
	bOut, bHas := bv.Get(outPath)
	if aHas && bHas {
		va, err := e.Force(aOut)
		if err != nil {
			return false, err
		}
		vb, err := e.Force(bOut)
		if err != nil {
			return false, err
		}
		return e.valuesEqual(va, vb)
	}
	if len(av.Values) != len(bv.Values) {
		return false, nil
	}
	for k, idA := range av.Values {
		idB, ok := bv.Values[k]
		if !ok {
			return false, nil
		}
		va, err := e.Force(idA)
		if err != nil {
			return false, err
		}
		vb, err := e.Force(idB)
		if err != nil {
			return false, err
		}
		eq, err := e.valuesEqual(va, vb)
		if err != nil || !eq {
			return false, err
		}
	}
	return true, nil
}

// valueLess implements the ordering of spec.md §4.3.
func (e *Eval) valueLess(a, b adt.Value) (bool, error) {
	switch av := a.(type) {
	case adt.Int:
		switch bv := b.(type) {
		case adt.Int:
			return av.Val < bv.Val, nil
		case adt.Float:
			return float64(av.Val) < bv.Val, nil
		}
	case adt.Float:
		switch bv := b.(type) {
		case adt.Float:
			return av.Val < bv.Val, nil
		case adt.Int:
			return av.Val < float64(bv.Val), nil
		}
	case adt.String:
		if bv, ok := b.(adt.String); ok {
			return av.Text < bv.Text, nil
		}
	case adt.Path:
		if bv, ok := b.(adt.Path); ok {
			return av.Abs < bv.Abs, nil
		}
	}
	return false, &adt.TypeError{Expected: "orderable value", Got: a.Kind()}
}
