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
	"strings"

	"golang.org/x/text/runes"

	"github.com/nixeval/nix-eval/internal/core/adt"
	"github.com/nixeval/nix-eval/internal/core/thunk"
)

// sanitizeExternalText repairs byte sequences from outside the evaluator
// (file contents, environment variables) that are not valid UTF-8, the way
// cuelang-cue's cue/internal/adt value formatting does before a string
// crosses back out of the evaluator.
var sanitizeExternalText = runes.ReplaceIllFormed()

func sanitizeBytes(b []byte) string {
	return sanitizeExternalText.Bytes(b)
}

func sanitizeString(s string) string {
	return sanitizeExternalText.String(s)
}

// primopDef is the declarative form of one builtin (spec.md §4.6): its
// name, arity, and implementation. registerPrimops turns a table of these
// into the thunks installed in both the bare top-level scope and
// `builtins`.
type primopDef struct {
	name  string
	arity int
	fn    func(ev *Eval, args []thunk.ID) (adt.Value, error)
}

// newPrimopValue wraps def as an adt.Primop whose Dispatch recovers the
// concrete *Eval from the adt.Host it is called with (always an *Eval in
// this module; apply.go's `f.Dispatch(e, args)` is the only caller).
func newPrimopValue(def primopDef) *adt.Primop {
	return &adt.Primop{
		Name:  def.name,
		Arity: def.arity,
		Dispatch: func(h adt.Host, args []thunk.ID) (adt.Value, error) {
			return def.fn(h.(*Eval), args)
		},
	}
}

// registerPrimops builds the bindings installed into Eval.Builtin: every
// primop bound bare (`substring ...`) and, additionally, collected into a
// `builtins` attribute set (`builtins.substring ...`), per spec.md §8
// scenario G.
func registerPrimops(ev *Eval) map[adt.Ident]thunk.ID {
	defs := primopTable()

	bindings := map[adt.Ident]thunk.ID{}
	builtinsSet := adt.NewAttrSet()
	for _, def := range defs {
		id := ev.Thunks.AllocValue(newPrimopValue(def))
		name := adt.Intern(def.name)
		bindings[name] = id
		builtinsSet.Set(name, id)
	}

	nixPathID := ev.Thunks.AllocValue(buildNixPathValue(ev))
	bindings[adt.Intern("__nixPath")] = nixPathID
	builtinsSet.Set(adt.Intern("nixPath"), nixPathID)

	bindings[adt.Intern("true")] = ev.Thunks.AllocValue(adt.Bool{Val: true})
	bindings[adt.Intern("false")] = ev.Thunks.AllocValue(adt.Bool{Val: false})
	bindings[adt.Intern("null")] = ev.Thunks.AllocValue(adt.Null{})

	bindings[adt.Intern("builtins")] = ev.Thunks.AllocValue(builtinsSet)
	return bindings
}

// buildNixPathValue reads NIX_PATH from the Environ collaborator and
// encodes it the way real Nix exposes `__nixPath`/`builtins.nixPath`: a
// list of `{ prefix, path }` sets (spec.md §8 scenario H).
func buildNixPathValue(ev *Eval) *adt.List {
	raw, _ := ev.Env.Getenv("NIX_PATH")
	entries := ParseNixPath(raw)
	elems := make([]thunk.ID, len(entries))
	for i, entry := range entries {
		set := adt.NewAttrSet()
		set.Set(adt.Intern("prefix"), ev.Thunks.AllocValue(adt.String{Text: entry.Prefix}))
		set.Set(adt.Intern("path"), ev.Thunks.AllocValue(adt.Path{Abs: entry.Path}))
		elems[i] = ev.Thunks.AllocValue(set)
	}
	return &adt.List{Elems: elems}
}

func primopTable() []primopDef {
	return []primopDef{
		{"isString", 1, primopIsString},
		{"isInt", 1, primopIsInt},
		{"isFloat", 1, primopIsFloat},
		{"isBool", 1, primopIsBool},
		{"isNull", 1, primopIsNull},
		{"isList", 1, primopIsList},
		{"isAttrs", 1, primopIsAttrs},
		{"isFunction", 1, primopIsFunction},
		{"isPath", 1, primopIsPath},

		{"length", 1, primopLength},
		{"head", 1, primopHead},
		{"tail", 1, primopTail},
		{"elemAt", 2, primopElemAt},
		{"attrNames", 1, primopAttrNames},
		{"attrValues", 1, primopAttrValues},
		{"hasAttr", 2, primopHasAttr},
		{"getAttr", 2, primopGetAttr},
		{"map", 2, primopMap},
		{"filter", 2, primopFilter},

		{"substring", 3, primopSubstring},
		{"toString", 1, primopToString},
		{"concatStringsSep", 2, primopConcatStringsSep},
		{"stringLength", 1, primopStringLength},

		{"pathExists", 1, primopPathExists},
		{"readFile", 1, primopReadFile},

		{"getEnv", 1, primopGetEnv},

		{"import", 1, primopImport},
	}
}

func primopIsString(ev *Eval, args []thunk.ID) (adt.Value, error) { return isKind[adt.String](ev, args[0]) }
func primopIsInt(ev *Eval, args []thunk.ID) (adt.Value, error)    { return isKind[adt.Int](ev, args[0]) }
func primopIsFloat(ev *Eval, args []thunk.ID) (adt.Value, error)  { return isKind[adt.Float](ev, args[0]) }
func primopIsBool(ev *Eval, args []thunk.ID) (adt.Value, error)   { return isKind[adt.Bool](ev, args[0]) }
func primopIsNull(ev *Eval, args []thunk.ID) (adt.Value, error)   { return isKind[adt.Null](ev, args[0]) }
func primopIsPath(ev *Eval, args []thunk.ID) (adt.Value, error)   { return isKind[adt.Path](ev, args[0]) }

func primopIsList(ev *Eval, args []thunk.ID) (adt.Value, error) {
	v, err := ev.Force(args[0])
	if err != nil {
		return nil, err
	}
	_, ok := v.(*adt.List)
	return adt.Bool{Val: ok}, nil
}

func primopIsAttrs(ev *Eval, args []thunk.ID) (adt.Value, error) {
	v, err := ev.Force(args[0])
	if err != nil {
		return nil, err
	}
	_, ok := v.(*adt.AttrSet)
	return adt.Bool{Val: ok}, nil
}

func primopIsFunction(ev *Eval, args []thunk.ID) (adt.Value, error) {
	v, err := ev.Force(args[0])
	if err != nil {
		return nil, err
	}
	switch v.(type) {
	case *adt.Lambda, *adt.Primop:
		return adt.Bool{Val: true}, nil
	default:
		return adt.Bool{Val: false}, nil
	}
}

// isKind reports whether args[0] forces to the value type T (used for the
// bulk of the §4.6 type predicates).
func isKind[T adt.Value](ev *Eval, id thunk.ID) (adt.Value, error) {
	v, err := ev.Force(id)
	if err != nil {
		return nil, err
	}
	_, ok := v.(T)
	return adt.Bool{Val: ok}, nil
}

func primopLength(ev *Eval, args []thunk.ID) (adt.Value, error) {
	elems, err := ev.AsList(args[0])
	if err != nil {
		return nil, err
	}
	return adt.Int{Val: int64(len(elems))}, nil
}

func primopHead(ev *Eval, args []thunk.ID) (adt.Value, error) {
	elems, err := ev.AsList(args[0])
	if err != nil {
		return nil, err
	}
	if len(elems) == 0 {
		return nil, &adt.TypeError{Expected: "non-empty list", Got: "empty list"}
	}
	return adt.Ref{To: elems[0]}, nil
}

func primopTail(ev *Eval, args []thunk.ID) (adt.Value, error) {
	elems, err := ev.AsList(args[0])
	if err != nil {
		return nil, err
	}
	if len(elems) == 0 {
		return nil, &adt.TypeError{Expected: "non-empty list", Got: "empty list"}
	}
	rest := make([]thunk.ID, len(elems)-1)
	copy(rest, elems[1:])
	return &adt.List{Elems: rest}, nil
}

func primopElemAt(ev *Eval, args []thunk.ID) (adt.Value, error) {
	elems, err := ev.AsList(args[0])
	if err != nil {
		return nil, err
	}
	idx, err := ev.AsInt(args[1])
	if err != nil {
		return nil, err
	}
	if idx < 0 || idx >= int64(len(elems)) {
		return nil, &adt.TypeError{Expected: "index in range", Got: "out of range"}
	}
	return adt.Ref{To: elems[idx]}, nil
}

func primopAttrNames(ev *Eval, args []thunk.ID) (adt.Value, error) {
	attrs, err := ev.AsAttrs(args[0])
	if err != nil {
		return nil, err
	}
	names := attrs.SortedNames()
	elems := make([]thunk.ID, len(names))
	for i, n := range names {
		elems[i] = ev.Thunks.AllocValue(adt.String{Text: n})
	}
	return &adt.List{Elems: elems}, nil
}

func primopAttrValues(ev *Eval, args []thunk.ID) (adt.Value, error) {
	attrs, err := ev.AsAttrs(args[0])
	if err != nil {
		return nil, err
	}
	names := attrs.SortedNames()
	elems := make([]thunk.ID, len(names))
	for i, n := range names {
		id, _ := attrs.Get(adt.Intern(n))
		elems[i] = id
	}
	return &adt.List{Elems: elems}, nil
}

func primopHasAttr(ev *Eval, args []thunk.ID) (adt.Value, error) {
	name, _, err := ev.AsStringAndContext(args[0])
	if err != nil {
		return nil, err
	}
	attrs, err := ev.AsAttrs(args[1])
	if err != nil {
		return nil, err
	}
	_, ok := attrs.Get(adt.Intern(name))
	return adt.Bool{Val: ok}, nil
}

func primopGetAttr(ev *Eval, args []thunk.ID) (adt.Value, error) {
	name, _, err := ev.AsStringAndContext(args[0])
	if err != nil {
		return nil, err
	}
	attrs, err := ev.AsAttrs(args[1])
	if err != nil {
		return nil, err
	}
	id, ok := attrs.Get(adt.Intern(name))
	if !ok {
		return nil, &adt.MissingAttributeError{Name: name}
	}
	return adt.Ref{To: id}, nil
}

func primopMap(ev *Eval, args []thunk.ID) (adt.Value, error) {
	fn := args[0]
	elems, err := ev.AsList(args[1])
	if err != nil {
		return nil, err
	}
	out := make([]thunk.ID, len(elems))
	for i, el := range elems {
		out[i] = ev.NewApplyThunk(fn, el)
	}
	return &adt.List{Elems: out}, nil
}

func primopFilter(ev *Eval, args []thunk.ID) (adt.Value, error) {
	fn := args[0]
	elems, err := ev.AsList(args[1])
	if err != nil {
		return nil, err
	}
	var out []thunk.ID
	for _, el := range elems {
		resID := ev.NewApplyThunk(fn, el)
		v, err := ev.Force(resID)
		if err != nil {
			return nil, err
		}
		b, ok := v.(adt.Bool)
		if !ok {
			return nil, &adt.TypeError{Expected: "bool", Got: v.Kind()}
		}
		if b.Val {
			out = append(out, el)
		}
	}
	return &adt.List{Elems: out}, nil
}

func primopSubstring(ev *Eval, args []thunk.ID) (adt.Value, error) {
	start, err := ev.AsInt(args[0])
	if err != nil {
		return nil, err
	}
	length, err := ev.AsInt(args[1])
	if err != nil {
		return nil, err
	}
	text, paths, err := ev.AsStringAndContext(args[2])
	if err != nil {
		return nil, err
	}
	if start < 0 {
		return nil, &adt.TypeError{Expected: "first argument to `substring' must be >= 0", Got: "negative start"}
	}
	if length < 0 {
		length = 0
	}
	if start >= int64(len(text)) {
		return adt.String{Paths: paths}, nil
	}
	end := int64(len(text))
	if start+length < end {
		end = start + length
	}
	return adt.String{Text: text[start:end], Paths: paths}, nil
}

func primopToString(ev *Eval, args []thunk.ID) (adt.Value, error) {
	v, err := ev.Force(args[0])
	if err != nil {
		return nil, err
	}
	return ev.CoerceToString(v, CoerceOpts{Extended: true, CopyToStore: true})
}

func primopConcatStringsSep(ev *Eval, args []thunk.ID) (adt.Value, error) {
	sep, sepPaths, err := ev.AsStringAndContext(args[0])
	if err != nil {
		return nil, err
	}
	elems, err := ev.AsList(args[1])
	if err != nil {
		return nil, err
	}
	parts := make([]string, len(elems))
	paths := sepPaths
	for i, id := range elems {
		v, err := ev.Force(id)
		if err != nil {
			return nil, err
		}
		s, err := ev.CoerceToString(v, CoerceOpts{Extended: false, CopyToStore: true})
		if err != nil {
			return nil, err
		}
		parts[i] = s.Text
		paths = paths.Union(s.Paths)
	}
	return adt.String{Text: strings.Join(parts, sep), Paths: paths}, nil
}

func primopStringLength(ev *Eval, args []thunk.ID) (adt.Value, error) {
	text, _, err := ev.AsStringAndContext(args[0])
	if err != nil {
		return nil, err
	}
	return adt.Int{Val: int64(len(text))}, nil
}

// pathOf resolves a Path or coercible-String argument to a plain filesystem
// path, the way `builtins.pathExists`/`builtins.readFile` accept both.
func pathOf(ev *Eval, id thunk.ID) (string, error) {
	v, err := ev.Force(id)
	if err != nil {
		return "", err
	}
	switch p := v.(type) {
	case adt.Path:
		return p.Abs, nil
	case adt.String:
		return p.Text, nil
	default:
		return "", &adt.TypeError{Expected: "path", Got: v.Kind()}
	}
}

func primopPathExists(ev *Eval, args []thunk.ID) (adt.Value, error) {
	path, err := pathOf(ev, args[0])
	if err != nil {
		return nil, err
	}
	return adt.Bool{Val: ev.FS.Exists(path)}, nil
}

func primopReadFile(ev *Eval, args []thunk.ID) (adt.Value, error) {
	path, err := pathOf(ev, args[0])
	if err != nil {
		return nil, err
	}
	data, err := ev.FS.ReadFile(path)
	if err != nil {
		return nil, &adt.IOError{Cause: err}
	}
	return adt.String{Text: sanitizeBytes(data)}, nil
}

func primopGetEnv(ev *Eval, args []thunk.ID) (adt.Value, error) {
	name, _, err := ev.AsStringAndContext(args[0])
	if err != nil {
		return nil, err
	}
	val, _ := ev.Env.Getenv(name)
	return adt.String{Text: sanitizeString(val)}, nil
}

func primopImport(ev *Eval, args []thunk.ID) (adt.Value, error) {
	path, err := pathOf(ev, args[0])
	if err != nil {
		return nil, err
	}
	id, err := ev.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return adt.Ref{To: id}, nil
}
