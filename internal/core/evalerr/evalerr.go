// Copyright 2018 The CUE Authors
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

// Package evalerr turns the plain error kinds of internal/core/adt into
// span-carrying diagnostics with a frame trace, in the manner of CUE's
// cue/errors list-of-errors package (spec.md §7: "the primary label is the
// innermost span; secondary labels are the outer frames").
package evalerr

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/xerrors"

	"github.com/nixeval/nix-eval/internal/core/adt"
)

// Frame pairs a span with the error observed at that point of evaluation.
type Frame struct {
	Span adt.Span
	Err  error
}

// Trace is a user-visible diagnostic: the innermost (primary) frame first,
// followed by the enclosing frames it was raised through.
type Trace struct {
	Frames []Frame
}

func (t *Trace) Error() string {
	if len(t.Frames) == 0 {
		return "evaluation error"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %v", t.Frames[0].Span, t.Frames[0].Err)
	for _, f := range t.Frames[1:] {
		fmt.Fprintf(&b, "\n  while evaluating %s", f.Span)
	}
	return b.String()
}

// Unwrap exposes the innermost cause for xerrors.Is/As and %w chains.
func (t *Trace) Unwrap() error {
	if len(t.Frames) == 0 {
		return nil
	}
	return errors.Cause(t.Frames[0].Err)
}

// New starts a Trace at span, wrapping cause with a stack trace via
// github.com/pkg/errors so panics-turned-errors retain their origin.
func New(span adt.Span, cause error) *Trace {
	return &Trace{Frames: []Frame{{Span: span, Err: errors.WithStack(cause)}}}
}

// WithFrame appends an outer frame — "this error surfaced while evaluating
// the expression at span" — without discarding the inner ones.
func WithFrame(err error, span adt.Span) error {
	t, ok := err.(*Trace)
	if !ok {
		t = New(span, err)
		return t
	}
	t.Frames = append(t.Frames, Frame{Span: span})
	return t
}

// Is reports whether target appears anywhere in err's frame chain, using
// golang.org/x/xerrors so Trace composes with errors produced outside this
// package too (e.g. collaborator errors wrapped as adt.IOError).
func Is(err, target error) bool {
	return xerrors.Is(err, target)
}

// As finds the first error in err's chain assignable to target, via
// golang.org/x/xerrors.
func As(err error, target interface{}) bool {
	return xerrors.As(err, target)
}
