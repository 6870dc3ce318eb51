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
	"strconv"
	"strings"

	"github.com/nixeval/nix-eval/internal/core/adt"
)

// CoerceOpts tunes string coercion (spec.md §4.4).
type CoerceOpts struct {
	// Extended allows Bool, Null, and List to coerce (the rules Nix uses
	// for string interpolation-adjacent contexts like `toString`).
	Extended bool
	// CopyToStore, when coercing a Path, delegates to the Store
	// collaborator instead of returning the literal path text.
	CopyToStore bool
}

// CoerceToString implements spec.md §4.4's coercion rules, accumulating
// store-path context as it goes.
func (e *Eval) CoerceToString(v adt.Value, opts CoerceOpts) (adt.String, error) {
	switch x := v.(type) {
	case adt.Path:
		if opts.CopyToStore {
			storePath, err := e.Store.CopyPathToStore(x.Abs)
			if err != nil {
				return adt.String{}, err
			}
			return adt.String{Text: storePath, Paths: adt.PathSet{}.Add(adt.PathRef(storePath))}, nil
		}
		return adt.String{Text: x.Abs}, nil

	case adt.String:
		return adt.String{Text: x.Text, Paths: x.Paths}, nil

	case adt.Int:
		return adt.String{Text: strconv.FormatInt(x.Val, 10)}, nil

	case adt.Bool:
		if !opts.Extended {
			return adt.String{}, &adt.CoerceError{Got: "bool"}
		}
		if x.Val {
			return adt.String{Text: "1"}, nil
		}
		return adt.String{Text: ""}, nil

	case adt.Null:
		if !opts.Extended {
			return adt.String{}, &adt.CoerceError{Got: "null"}
		}
		return adt.String{Text: ""}, nil

	case *adt.List:
		if !opts.Extended {
			return adt.String{}, &adt.CoerceError{Got: "list"}
		}
		var parts []string
		var paths adt.PathSet
		for _, id := range x.Elems {
			ev, err := e.Force(id)
			if err != nil {
				return adt.String{}, err
			}
			s, err := e.CoerceToString(ev, opts)
			if err != nil {
				return adt.String{}, err
			}
			parts = append(parts, s.Text)
			paths = paths.Union(s.Paths)
		}
		return adt.String{Text: strings.Join(parts, " "), Paths: paths}, nil

	case *adt.AttrSet:
		id, ok := x.Get(adt.Intern("outPath"))
		if !ok {
			return adt.String{}, &adt.CoerceError{Got: "set"}
		}
		ev, err := e.Force(id)
		if err != nil {
			return adt.String{}, err
		}
		return e.CoerceToString(ev, opts)

	default:
		return adt.String{}, &adt.CoerceError{Got: v.Kind()}
	}
}
