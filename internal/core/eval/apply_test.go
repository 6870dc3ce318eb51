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
)

func attrArg(ev *Eval, fields map[string]int64) *adt.AttrSet {
	set := adt.NewAttrSet()
	for name, val := range fields {
		set.Set(adt.Intern(name), ev.Thunks.AllocValue(adt.Int{Val: val}))
	}
	return set
}

func TestBindPatternNamePattern(t *testing.T) {
	ev, _, _ := newTestEval(t)
	argID := ev.Thunks.AllocValue(adt.Int{Val: 1})
	scope, err := ev.bindPattern(adt.Pattern{IsName: true, Name: adt.Intern("x")}, adt.Empty, argID)
	require.NoError(t, err)
	id, ok := scope.Bindings[adt.Intern("x")]
	require.True(t, ok)
	require.Equal(t, argID, id)
}

func TestBindPatternMissingRequiredFormal(t *testing.T) {
	ev, _, _ := newTestEval(t)
	argID := ev.Thunks.AllocValue(attrArg(ev, nil))
	pattern := adt.Pattern{Formals: []adt.FormalArg{{Name: adt.Intern("a")}}}

	_, err := ev.bindPattern(pattern, adt.Empty, argID)
	var missing *adt.MissingArgError
	require.ErrorAs(t, err, &missing)
}

func TestBindPatternTooManyArgsWithoutEllipsis(t *testing.T) {
	ev, _, _ := newTestEval(t)
	argID := ev.Thunks.AllocValue(attrArg(ev, map[string]int64{"a": 1, "extra": 2}))
	pattern := adt.Pattern{Formals: []adt.FormalArg{{Name: adt.Intern("a")}}}

	_, err := ev.bindPattern(pattern, adt.Empty, argID)
	var tooMany *adt.TooManyArgsError
	require.ErrorAs(t, err, &tooMany)
	require.Equal(t, []string{"extra"}, tooMany.Names)
}

func TestBindPatternTooManyArgsWithEllipsisAllowed(t *testing.T) {
	ev, _, _ := newTestEval(t)
	argID := ev.Thunks.AllocValue(attrArg(ev, map[string]int64{"a": 1, "extra": 2}))
	pattern := adt.Pattern{Formals: []adt.FormalArg{{Name: adt.Intern("a")}}, Ellipsis: true}

	scope, err := ev.bindPattern(pattern, adt.Empty, argID)
	require.NoError(t, err)
	_, ok := scope.Bindings[adt.Intern("a")]
	require.True(t, ok)
}

func TestBindPatternAtBindsWholeArgSet(t *testing.T) {
	ev, _, _ := newTestEval(t)
	argID := ev.Thunks.AllocValue(attrArg(ev, map[string]int64{"a": 1}))
	pattern := adt.Pattern{
		Formals: []adt.FormalArg{{Name: adt.Intern("a")}},
		HasAt:   true,
		At:      adt.Intern("args"),
	}

	scope, err := ev.bindPattern(pattern, adt.Empty, argID)
	require.NoError(t, err)
	id, ok := scope.Bindings[adt.Intern("args")]
	require.True(t, ok)
	require.Equal(t, argID, id)
}

func TestBindPatternDefaultReferencesSiblingFormal(t *testing.T) {
	ev, _, _ := newTestEval(t)
	argID := ev.Thunks.AllocValue(attrArg(ev, map[string]int64{"a": 4}))
	defaultExpr := ev.Arena.Add(adt.Var{Name: adt.Intern("a")}, adt.Span{})
	pattern := adt.Pattern{Formals: []adt.FormalArg{
		{Name: adt.Intern("a")},
		{Name: adt.Intern("b"), HasDefault: true, Default: defaultExpr},
	}}

	scope, err := ev.bindPattern(pattern, adt.Empty, argID)
	require.NoError(t, err)
	bID, ok := scope.Bindings[adt.Intern("b")]
	require.True(t, ok)
	v, err := ev.Force(bID)
	require.NoError(t, err)
	require.Equal(t, adt.Int{Val: 4}, v)
}

func TestApplyNonFunctionErrors(t *testing.T) {
	ev, _, _ := newTestEval(t)
	fnID := ev.Thunks.AllocValue(adt.Int{Val: 1})
	argID := ev.Thunks.AllocValue(adt.Int{Val: 2})
	_, err := ev.apply(fnID, argID)
	var notFn *adt.NotAFunctionError
	require.ErrorAs(t, err, &notFn)
}
