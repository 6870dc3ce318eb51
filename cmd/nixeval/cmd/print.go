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

package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/nixeval/nix-eval/internal/core/adt"
	"github.com/nixeval/nix-eval/internal/core/eval"
	"github.com/nixeval/nix-eval/internal/core/thunk"
)

// renderText deep-forces id and renders it the way `nix-instantiate --eval`
// renders a value: recursive, with list elements and attribute values
// forced at every depth rather than printed as thunks.
func renderText(ev *eval.Eval, id thunk.ID) (string, error) {
	v, err := ev.Force(id)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	if err := writeText(&b, ev, v); err != nil {
		return "", err
	}
	return b.String(), nil
}

func writeText(b *strings.Builder, ev *eval.Eval, v adt.Value) error {
	switch x := v.(type) {
	case adt.Int:
		b.WriteString(strconv.FormatInt(x.Val, 10))
	case adt.Float:
		b.WriteString(strconv.FormatFloat(x.Val, 'g', -1, 64))
	case adt.Bool:
		if x.Val {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case adt.Null:
		b.WriteString("null")
	case adt.String:
		b.WriteString(strconv.Quote(x.Text))
	case adt.Path:
		b.WriteString(x.Abs)
	case *adt.List:
		b.WriteString("[ ")
		for _, elem := range x.Elems {
			fv, err := ev.Force(elem)
			if err != nil {
				return err
			}
			if err := writeText(b, ev, fv); err != nil {
				return err
			}
			b.WriteString(" ")
		}
		b.WriteString("]")
	case *adt.AttrSet:
		b.WriteString("{ ")
		for _, name := range x.SortedNames() {
			id, _ := x.Get(adt.Intern(name))
			fmt.Fprintf(b, "%s = ", name)
			fv, err := ev.Force(id)
			if err != nil {
				return err
			}
			if err := writeText(b, ev, fv); err != nil {
				return err
			}
			b.WriteString("; ")
		}
		b.WriteString("}")
	case *adt.Lambda:
		b.WriteString("<lambda>")
	case *adt.Primop:
		fmt.Fprintf(b, "<primop %s>", x.Name)
	default:
		return fmt.Errorf("nixeval: cannot render value of kind %q", v.Kind())
	}
	return nil
}

// renderJSON deep-forces id and marshals it as JSON: paths become their
// absolute text and attribute sets become objects of all their attributes
// (an outPath attribute gets no special treatment). Lambdas/primops have no
// JSON representation and are rejected.
func renderJSON(ev *eval.Eval, id thunk.ID) (string, error) {
	v, err := ev.Force(id)
	if err != nil {
		return "", err
	}
	out, err := toJSONValue(ev, v)
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func toJSONValue(ev *eval.Eval, v adt.Value) (interface{}, error) {
	switch x := v.(type) {
	case adt.Int:
		return x.Val, nil
	case adt.Float:
		return x.Val, nil
	case adt.Bool:
		return x.Val, nil
	case adt.Null:
		return nil, nil
	case adt.String:
		return x.Text, nil
	case adt.Path:
		return x.Abs, nil
	case *adt.List:
		out := make([]interface{}, len(x.Elems))
		for i, elem := range x.Elems {
			fv, err := ev.Force(elem)
			if err != nil {
				return nil, err
			}
			jv, err := toJSONValue(ev, fv)
			if err != nil {
				return nil, err
			}
			out[i] = jv
		}
		return out, nil
	case *adt.AttrSet:
		out := make(map[string]interface{}, len(x.Values))
		for _, name := range x.SortedNames() {
			id, _ := x.Get(adt.Intern(name))
			fv, err := ev.Force(id)
			if err != nil {
				return nil, err
			}
			jv, err := toJSONValue(ev, fv)
			if err != nil {
				return nil, err
			}
			out[name] = jv
		}
		return out, nil
	default:
		return nil, fmt.Errorf("nixeval: value of kind %q has no JSON representation", v.Kind())
	}
}
