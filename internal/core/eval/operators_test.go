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
	"github.com/nixeval/nix-eval/internal/core/thunk"
)

func TestArithmeticIntAndFloatPromotion(t *testing.T) {
	v, err := arithmetic(adt.Int{Val: 2}, adt.Int{Val: 3}, func(a, b int64) int64 { return a + b }, func(a, b float64) float64 { return a + b })
	require.NoError(t, err)
	require.Equal(t, adt.Int{Val: 5}, v)

	v, err = arithmetic(adt.Int{Val: 2}, adt.Float{Val: 0.5}, func(a, b int64) int64 { return a + b }, func(a, b float64) float64 { return a + b })
	require.NoError(t, err)
	require.Equal(t, adt.Float{Val: 2.5}, v)
}

func TestEvalAddDispatchesOnLHSType(t *testing.T) {
	ev, _, _ := newTestEval(t)

	v, err := ev.evalAdd(adt.Int{Val: 1}, adt.Int{Val: 2})
	require.NoError(t, err)
	require.Equal(t, adt.Int{Val: 3}, v)

	v, err = ev.evalAdd(adt.Path{Abs: "/a"}, adt.Path{Abs: "/a/b"})
	require.NoError(t, err)
	require.Equal(t, adt.Path{Abs: "/a/a/b"}, v)

	v, err = ev.evalAdd(adt.Path{Abs: "/a"}, adt.String{Text: "b"})
	require.NoError(t, err)
	require.Equal(t, adt.Path{Abs: "/a/b"}, v)

	_, err = ev.evalAdd(adt.Path{Abs: "/a"}, adt.String{Text: "b", Paths: adt.PathSet{}.Add(adt.PathRef("/nix/store/x"))})
	var conflict *adt.StringContextConflictError
	require.ErrorAs(t, err, &conflict)

	v, err = ev.evalAdd(adt.String{Text: "a"}, adt.String{Text: "b"})
	require.NoError(t, err)
	require.Equal(t, adt.String{Text: "ab"}, v)
}

// TestEvalAddCopyToStoreGatedOnLHSBeingString checks that a path reached via
// an attrset's outPath is coerced without copying to the fake store, since
// the LHS of the `+` is a set, not a string literal (original_source's
// lhs_is_string gate in eval/operators.rs).
func TestEvalAddCopyToStoreGatedOnLHSBeingString(t *testing.T) {
	ev, _, _ := newTestEval(t)
	set := adt.NewAttrSet()
	set.Set(adt.Intern("outPath"), ev.Thunks.AllocValue(adt.Path{Abs: "/foo"}))

	v, err := ev.evalAdd(set, adt.String{Text: "bar"})
	require.NoError(t, err)
	require.Equal(t, adt.String{Text: "/foobar"}, v)
}

func TestEvalDivByZero(t *testing.T) {
	_, err := evalDiv(adt.Int{Val: 1}, adt.Int{Val: 0})
	require.Error(t, err)
}

func TestEvalDivFloat(t *testing.T) {
	v, err := evalDiv(adt.Float{Val: 5}, adt.Int{Val: 2})
	require.NoError(t, err)
	require.Equal(t, adt.Float{Val: 2.5}, v)
}

func TestEvalUpdateRightOverridesLeft(t *testing.T) {
	ev, _, _ := newTestEval(t)
	left := adt.NewAttrSet()
	left.Set(adt.Intern("a"), ev.Thunks.AllocValue(adt.Int{Val: 1}))
	left.Set(adt.Intern("b"), ev.Thunks.AllocValue(adt.Int{Val: 2}))
	right := adt.NewAttrSet()
	right.Set(adt.Intern("b"), ev.Thunks.AllocValue(adt.Int{Val: 20}))

	v, err := evalUpdate(left, right)
	require.NoError(t, err)
	out := v.(*adt.AttrSet)

	aID, _ := out.Get(adt.Intern("a"))
	aVal, _ := ev.Force(aID)
	require.Equal(t, adt.Int{Val: 1}, aVal)

	bID, _ := out.Get(adt.Intern("b"))
	bVal, _ := ev.Force(bID)
	require.Equal(t, adt.Int{Val: 20}, bVal)
}

func TestEvalConcatAppendsElements(t *testing.T) {
	ev, _, _ := newTestEval(t)
	left := &adt.List{Elems: []thunk.ID{ev.Thunks.AllocValue(adt.Int{Val: 1})}}
	right := &adt.List{Elems: []thunk.ID{ev.Thunks.AllocValue(adt.Int{Val: 2})}}

	v, err := evalConcat(left, right)
	require.NoError(t, err)
	out := v.(*adt.List)
	require.Len(t, out.Elems, 2)

	a, err := ev.Force(out.Elems[0])
	require.NoError(t, err)
	require.Equal(t, adt.Int{Val: 1}, a)
	b, err := ev.Force(out.Elems[1])
	require.NoError(t, err)
	require.Equal(t, adt.Int{Val: 2}, b)
}

func TestValuesEqualCrossNumericKind(t *testing.T) {
	ev, _, _ := newTestEval(t)

	eq, err := ev.valuesEqual(adt.Int{Val: 3}, adt.Float{Val: 3})
	require.NoError(t, err)
	require.True(t, eq)

	// The float is truncated to an int before comparing, so 3 == 3.5.
	eq, err = ev.valuesEqual(adt.Int{Val: 3}, adt.Float{Val: 3.5})
	require.NoError(t, err)
	require.True(t, eq)
}

func TestValuesEqualAttrSetsViaOutPathShortcut(t *testing.T) {
	ev, _, _ := newTestEval(t)
	outPath := adt.Intern("outPath")

	a := adt.NewAttrSet()
	a.Set(outPath, ev.Thunks.AllocValue(adt.String{Text: "/nix/store/same"}))
	a.Set(adt.Intern("irrelevant"), ev.Thunks.AllocValue(adt.Int{Val: 1}))

	b := adt.NewAttrSet()
	b.Set(outPath, ev.Thunks.AllocValue(adt.String{Text: "/nix/store/same"}))
	b.Set(adt.Intern("irrelevant"), ev.Thunks.AllocValue(adt.Int{Val: 999}))

	eq, err := ev.valuesEqual(a, b)
	require.NoError(t, err)
	require.True(t, eq, "equal outPath short-circuits deep comparison of the rest")
}

func TestValueLess(t *testing.T) {
	ev, _, _ := newTestEval(t)

	lt, err := ev.valueLess(adt.Int{Val: 1}, adt.Float{Val: 1.5})
	require.NoError(t, err)
	require.True(t, lt)

	lt, err = ev.valueLess(adt.String{Text: "a"}, adt.String{Text: "b"})
	require.NoError(t, err)
	require.True(t, lt)

	_, err = ev.valueLess(adt.Bool{Val: true}, adt.Bool{Val: false})
	var typeErr *adt.TypeError
	require.ErrorAs(t, err, &typeErr)
}

func TestEvalUnaryNegAndNot(t *testing.T) {
	ev, _, _ := newTestEval(t)
	src := `{"type":"unary","op":"neg","x":{"type":"float","float":1.5}}`
	v := evalJSON(t, ev, src)
	require.Equal(t, adt.Float{Val: -1.5}, v)

	not := `{"type":"unary","op":"not","x":{"type":"bool","bool":true}}`
	require.Equal(t, adt.Bool{Val: false}, evalJSON(t, ev, not))
}
