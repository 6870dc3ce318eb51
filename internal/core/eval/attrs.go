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

// cellInheritFrom is the pending work for one name of an `inherit (from)
// a b;` clause (spec.md §4.7): force `from`, then forward to whatever
// thunk it binds `name` to.
type cellInheritFrom struct {
	From thunk.ID
	Name adt.Ident
}

func (e *Eval) evalInheritFrom(c cellInheritFrom) (adt.Value, error) {
	v, err := e.Force(c.From)
	if err != nil {
		return nil, err
	}
	attrs, ok := v.(*adt.AttrSet)
	if !ok {
		return nil, &adt.TypeError{Expected: "set", Got: v.Kind()}
	}
	id, ok := attrs.Get(c.Name)
	if !ok {
		return nil, &adt.MissingAttributeError{Name: c.Name.String()}
	}
	return adt.Ref{To: id}, nil
}

// attrNode is the mutable tree buildAttrs assembles nested paths into
// before converting it to immutable *adt.AttrSet values (spec.md §4.7,
// "intermediate sets built this way are independent thunks whose values
// are installed eagerly").
type attrNode struct {
	span     adt.Span
	leaf     bool
	leafID   thunk.ID
	children map[adt.Ident]*attrNode
}

func newAttrNode(span adt.Span) *attrNode {
	return &attrNode{span: span, children: map[adt.Ident]*attrNode{}}
}

// buildAttrs realizes a binding list into an attribute set without eagerly
// evaluating any right-hand side (spec.md §4.7). innerCtx is used for
// right-hand sides (it is the recursive context when the set is `rec` or a
// `let`); outerCtx is used for bare `inherit name;` clauses and for the
// `from` expression of `inherit (from) name;`, both of which always defer to
// the enclosing scope rather than the rec-set's own bindings.
func (e *Eval) buildAttrs(bindings []adt.Binding, innerCtx, outerCtx *adt.Context) (*adt.AttrSet, error) {
	root := map[adt.Ident]*attrNode{}

	for _, b := range bindings {
		switch b.Kind {
		case adt.BindPlain:
			if err := e.insertPlain(root, b, innerCtx); err != nil {
				return nil, err
			}
		case adt.BindInherit:
			if err := e.insertInherit(root, b, outerCtx); err != nil {
				return nil, err
			}
		}
	}

	return e.materializeAttrNode(root), nil
}

func (e *Eval) insertPlain(root map[adt.Ident]*attrNode, b adt.Binding, ctx *adt.Context) error {
	children := root
	var cur *attrNode
	for i, comp := range b.Path {
		name, err := e.resolveAttrName(comp, ctx)
		if err != nil {
			return err
		}
		last := i == len(b.Path)-1
		child, exists := children[name]

		if last {
			if exists && (child.leaf || len(child.children) > 0) {
				return &adt.DuplicateAttributeError{Name: name.String(), First: child.span, Second: b.Span}
			}
			if !exists {
				child = newAttrNode(b.Span)
				children[name] = child
			}
			child.leaf = true
			child.leafID = e.NewExprThunk(b.RHS, ctx)
			child.span = b.Span
			return nil
		}

		if exists && child.leaf {
			return &adt.DuplicateAttributeError{Name: name.String(), First: child.span, Second: b.Span}
		}
		if !exists {
			child = newAttrNode(b.Span)
			children[name] = child
		}
		cur = child
		children = cur.children
	}
	return nil
}

func (e *Eval) insertInherit(root map[adt.Ident]*attrNode, b adt.Binding, outerCtx *adt.Context) error {
	var fromThunk thunk.ID
	if b.HasFrom {
		// from is evaluated in outerCtx, not innerCtx: inherit (from) x;
		// cannot see the rec-set's own bindings, only the enclosing scope.
		fromThunk = e.NewExprThunk(b.From, outerCtx)
	}
	for _, name := range b.Names {
		if existing, ok := root[name]; ok {
			return &adt.DuplicateAttributeError{Name: name.String(), First: existing.span, Second: b.Span}
		}
		var leafID thunk.ID
		if b.HasFrom {
			leafID = e.Thunks.Alloc(cellInheritFrom{From: fromThunk, Name: name})
		} else {
			varRef := e.Arena.Add(adt.Var{Name: name}, b.Span)
			leafID = e.NewExprThunk(varRef, outerCtx)
		}
		root[name] = &attrNode{leaf: true, leafID: leafID, span: b.Span}
	}
	return nil
}

func (e *Eval) materializeAttrNode(children map[adt.Ident]*attrNode) *adt.AttrSet {
	set := adt.NewAttrSet()
	for name, node := range children {
		if node.leaf {
			set.Set(name, node.leafID)
			continue
		}
		child := e.materializeAttrNode(node.children)
		set.Set(name, e.Thunks.AllocValue(child))
	}
	return set
}
