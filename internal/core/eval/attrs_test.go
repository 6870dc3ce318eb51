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

func plainName(s string) adt.AttrName {
	return adt.AttrName{Kind: adt.AttrPlain, Plain: adt.Intern(s)}
}

func TestBuildAttrsNestedDottedPathMerges(t *testing.T) {
	ev, _, _ := newTestEval(t)
	// { a.b = 1; a.c = 2; }
	rhs1 := ev.Arena.Add(adt.IntLit{Value: 1}, adt.Span{})
	rhs2 := ev.Arena.Add(adt.IntLit{Value: 2}, adt.Span{})
	bindings := []adt.Binding{
		{Kind: adt.BindPlain, Path: []adt.AttrName{plainName("a"), plainName("b")}, RHS: rhs1},
		{Kind: adt.BindPlain, Path: []adt.AttrName{plainName("a"), plainName("c")}, RHS: rhs2},
	}

	set, err := ev.buildAttrs(bindings, adt.Empty, adt.Empty)
	require.NoError(t, err)

	aID, ok := set.Get(adt.Intern("a"))
	require.True(t, ok)
	aVal, err := ev.Force(aID)
	require.NoError(t, err)
	aSet, ok := aVal.(*adt.AttrSet)
	require.True(t, ok)

	bID, ok := aSet.Get(adt.Intern("b"))
	require.True(t, ok)
	bVal, err := ev.Force(bID)
	require.NoError(t, err)
	require.Equal(t, adt.Int{Val: 1}, bVal)

	cID, ok := aSet.Get(adt.Intern("c"))
	require.True(t, ok)
	cVal, err := ev.Force(cID)
	require.NoError(t, err)
	require.Equal(t, adt.Int{Val: 2}, cVal)
}

func TestBuildAttrsDuplicateLeafVsLeaf(t *testing.T) {
	ev, _, _ := newTestEval(t)
	rhs1 := ev.Arena.Add(adt.IntLit{Value: 1}, adt.Span{})
	rhs2 := ev.Arena.Add(adt.IntLit{Value: 2}, adt.Span{})
	bindings := []adt.Binding{
		{Kind: adt.BindPlain, Path: []adt.AttrName{plainName("x")}, RHS: rhs1},
		{Kind: adt.BindPlain, Path: []adt.AttrName{plainName("x")}, RHS: rhs2},
	}

	_, err := ev.buildAttrs(bindings, adt.Empty, adt.Empty)
	var dup *adt.DuplicateAttributeError
	require.ErrorAs(t, err, &dup)
	require.Equal(t, "x", dup.Name)
}

func TestBuildAttrsDuplicateLeafVsNestedConflict(t *testing.T) {
	ev, _, _ := newTestEval(t)
	rhs1 := ev.Arena.Add(adt.IntLit{Value: 1}, adt.Span{})
	rhs2 := ev.Arena.Add(adt.IntLit{Value: 2}, adt.Span{})
	bindings := []adt.Binding{
		{Kind: adt.BindPlain, Path: []adt.AttrName{plainName("x")}, RHS: rhs1},
		{Kind: adt.BindPlain, Path: []adt.AttrName{plainName("x"), plainName("y")}, RHS: rhs2},
	}

	_, err := ev.buildAttrs(bindings, adt.Empty, adt.Empty)
	var dup *adt.DuplicateAttributeError
	require.ErrorAs(t, err, &dup)
}

// TestInheritBareDefersToOuterScope checks `inherit name;`: the bound value
// comes from outerCtx, not from a binding within the set being built.
func TestInheritBareDefersToOuterScope(t *testing.T) {
	ev, _, _ := newTestEval(t)
	outerID := ev.Thunks.AllocValue(adt.Int{Val: 11})
	outerCtx := adt.Empty.Prepend(adt.NewStaticScope(map[adt.Ident]thunk.ID{
		adt.Intern("x"): outerID,
	}))

	bindings := []adt.Binding{
		{Kind: adt.BindInherit, Names: []adt.Ident{adt.Intern("x")}},
	}
	set, err := ev.buildAttrs(bindings, adt.Empty, outerCtx)
	require.NoError(t, err)

	id, ok := set.Get(adt.Intern("x"))
	require.True(t, ok)
	v, err := ev.Force(id)
	require.NoError(t, err)
	require.Equal(t, adt.Int{Val: 11}, v)
}

// TestInheritFromUsesOuterScope checks `inherit (from) name;`: the source
// set expression evaluates under outerCtx, not innerCtx, so it cannot see
// the rec-set's own bindings (matching original_source/src/lib.rs's
// push_inherit, which passes the plain outer context for Inherit{from}).
func TestInheritFromUsesOuterScope(t *testing.T) {
	ev, _, _ := newTestEval(t)
	fromSet := adt.NewAttrSet()
	fromSet.Set(adt.Intern("y"), ev.Thunks.AllocValue(adt.Int{Val: 22}))
	fromID := ev.Thunks.AllocValue(fromSet)
	fromExpr := ev.Arena.Add(adt.Var{Name: adt.Intern("src")}, adt.Span{})
	outerCtx := adt.Empty.Prepend(adt.NewStaticScope(map[adt.Ident]thunk.ID{
		adt.Intern("src"): fromID,
	}))
	// innerCtx has no binding for "src" at all, proving the lookup cannot
	// be falling back to it.
	innerCtx := adt.Empty

	bindings := []adt.Binding{
		{Kind: adt.BindInherit, Names: []adt.Ident{adt.Intern("y")}, HasFrom: true, From: fromExpr},
	}
	set, err := ev.buildAttrs(bindings, innerCtx, outerCtx)
	require.NoError(t, err)

	id, ok := set.Get(adt.Intern("y"))
	require.True(t, ok)
	v, err := ev.Force(id)
	require.NoError(t, err)
	require.Equal(t, adt.Int{Val: 22}, v)
}

func TestInheritDuplicateNameErrors(t *testing.T) {
	ev, _, _ := newTestEval(t)
	bindings := []adt.Binding{
		{Kind: adt.BindInherit, Names: []adt.Ident{adt.Intern("x")}},
		{Kind: adt.BindInherit, Names: []adt.Ident{adt.Intern("x")}},
	}
	_, err := ev.buildAttrs(bindings, adt.Empty, adt.Empty)
	var dup *adt.DuplicateAttributeError
	require.ErrorAs(t, err, &dup)
}
