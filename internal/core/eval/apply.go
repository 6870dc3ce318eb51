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
	"github.com/nixeval/nix-eval/internal/core/adt"
	"github.com/nixeval/nix-eval/internal/core/thunk"
)

// apply implements spec.md §4.5 "Application": force fn, then dispatch on
// its kind.
func (e *Eval) apply(fnID, argID thunk.ID) (adt.Value, error) {
	fn, err := e.Force(fnID)
	if err != nil {
		return nil, err
	}
	switch f := fn.(type) {
	case *adt.Lambda:
		scope, err := e.bindPattern(f.Pattern, f.Captures, argID)
		if err != nil {
			return nil, err
		}
		return e.stepEval(f.Body, f.Captures.Prepend(scope))

	case *adt.Primop:
		args := make([]thunk.ID, 0, len(f.PartialArgs)+1)
		args = append(args, f.PartialArgs...)
		args = append(args, argID)
		if f.Arity > 1 {
			return &adt.Primop{
				Name:        f.Name,
				Arity:       f.Arity - 1,
				PartialArgs: args,
				Dispatch:    f.Dispatch,
			}, nil
		}
		return f.Dispatch(e, args)

	default:
		return nil, &adt.NotAFunctionError{Got: fn.Kind()}
	}
}

// bindPattern builds the static scope a lambda's body evaluates under: a
// single bound name, or a formals attr-set pattern where unfilled formals
// with defaults may reference sibling formals (spec.md §4.5, scenario J).
func (e *Eval) bindPattern(p adt.Pattern, captures *adt.Context, argID thunk.ID) (*adt.Scope, error) {
	if p.IsName {
		return adt.NewStaticScope(map[adt.Ident]thunk.ID{p.Name: argID}), nil
	}

	argAttrs, err := e.AsAttrs(argID)
	if err != nil {
		return nil, err
	}

	bindings := map[adt.Ident]thunk.ID{}
	scope := adt.NewStaticScope(bindings)
	formalsCtx := captures.Prepend(scope)

	declared := make(map[adt.Ident]bool, len(p.Formals))
	for _, f := range p.Formals {
		declared[f.Name] = true
		if id, ok := argAttrs.Get(f.Name); ok {
			bindings[f.Name] = id
			continue
		}
		if f.HasDefault {
			bindings[f.Name] = e.NewExprThunk(f.Default, formalsCtx)
			continue
		}
		return nil, &adt.MissingArgError{Name: f.Name.String()}
	}

	if !p.Ellipsis {
		var extra []string
		for _, name := range argAttrs.Keys {
			if !declared[name] {
				extra = append(extra, name.String())
			}
		}
		if len(extra) > 0 {
			return nil, &adt.TooManyArgsError{Names: extra}
		}
	}

	if p.HasAt {
		bindings[p.At] = argID
	}

	return scope, nil
}
