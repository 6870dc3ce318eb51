// Copyright 2020 CUE Authors
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

package adt

import "fmt"

// The error kinds of spec.md §7. Each is a plain Go error; span-tracking
// and frame-trace accumulation is layered on top in internal/core/evalerr,
// which must import adt for Span — so the base kinds live here rather than
// in evalerr, to avoid an import cycle.

// TypeError reports a value of the wrong kind reaching an operation.
type TypeError struct{ Expected, Got string }

func (e *TypeError) Error() string {
	return fmt.Sprintf("type error: expected %s, got %s", e.Expected, e.Got)
}

// UnboundVariableError reports a variable with no binding in scope.
type UnboundVariableError struct{ Name string }

func (e *UnboundVariableError) Error() string {
	return fmt.Sprintf("undefined variable %q", e.Name)
}

// MissingAttributeError reports a selection miss with no `or` fallback.
type MissingAttributeError struct{ Name string }

func (e *MissingAttributeError) Error() string {
	return fmt.Sprintf("attribute %q missing", e.Name)
}

// DuplicateAttributeError reports two bindings for the same name at one
// level of an attribute set.
type DuplicateAttributeError struct {
	Name         string
	First, Second Span
}

func (e *DuplicateAttributeError) Error() string {
	return fmt.Sprintf("attribute %q already defined at %s", e.Name, e.First)
}

// AssertionFailedError reports a failed `assert`.
type AssertionFailedError struct{ CondSpan Span }

func (e *AssertionFailedError) Error() string {
	return "assertion failed"
}

// InfiniteLoopError reports black-hole reentry (spec.md §4.1, Invariant 3).
type InfiniteLoopError struct{}

func (e *InfiniteLoopError) Error() string { return "infinite recursion encountered" }

// ReferenceCycleError reports a Value::Ref chain that cycles back on
// itself (spec.md §3, Invariant 4).
type ReferenceCycleError struct{}

func (e *ReferenceCycleError) Error() string { return "reference cycle encountered" }

// TooManyArgsError reports extra keys in a call to a non-`...` formals
// lambda.
type TooManyArgsError struct{ Names []string }

func (e *TooManyArgsError) Error() string {
	return fmt.Sprintf("function called with unexpected arguments %v", e.Names)
}

// MissingArgError reports a formal with no default and no supplied value.
type MissingArgError struct{ Name string }

func (e *MissingArgError) Error() string {
	return fmt.Sprintf("function call is missing required argument %q", e.Name)
}

// NotAFunctionError reports application of a non-callable value.
type NotAFunctionError struct{ Got string }

func (e *NotAFunctionError) Error() string {
	return fmt.Sprintf("value of type %s is not callable", e.Got)
}

// CoerceError reports a value that cannot be coerced to a string.
type CoerceError struct{ Got string }

func (e *CoerceError) Error() string {
	return fmt.Sprintf("cannot coerce %s to a string", e.Got)
}

// StringContextConflictError reports Path+String where the string carries
// a nonempty context (spec.md §4.4).
type StringContextConflictError struct{}

func (e *StringContextConflictError) Error() string {
	return "a string with store-path references cannot be joined to a path"
}

// IOError wraps a failure from the Filesystem/Store collaborators (§6).
type IOError struct{ Cause error }

func (e *IOError) Error() string { return fmt.Sprintf("I/O error: %v", e.Cause) }
func (e *IOError) Unwrap() error { return e.Cause }

// ParseError wraps a failure from the Parser collaborator (§6).
type ParseError struct{ Cause error }

func (e *ParseError) Error() string { return fmt.Sprintf("parse error: %v", e.Cause) }
func (e *ParseError) Unwrap() error { return e.Cause }
