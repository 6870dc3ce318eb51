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

package evalerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nixeval/nix-eval/internal/core/adt"
)

func TestNewProducesSingleFrameTrace(t *testing.T) {
	span := adt.Span{File: 0, Start: 1, End: 5}
	cause := errors.New("boom")

	trace := New(span, cause)
	require.Len(t, trace.Frames, 1)
	require.Equal(t, span, trace.Frames[0].Span)
	require.Contains(t, trace.Error(), "boom")
	require.Contains(t, trace.Error(), span.String())
}

func TestWithFrameWrapsPlainErrorOnFirstCall(t *testing.T) {
	span := adt.Span{File: 0, Start: 1, End: 2}
	cause := errors.New("inner failure")

	wrapped := WithFrame(cause, span)
	trace, ok := wrapped.(*Trace)
	require.True(t, ok)
	require.Len(t, trace.Frames, 1)
}

func TestWithFrameAccumulatesOuterFrames(t *testing.T) {
	innerSpan := adt.Span{File: 0, Start: 1, End: 2}
	outerSpan := adt.Span{File: 0, Start: 10, End: 20}
	outermostSpan := adt.Span{File: 0, Start: 30, End: 40}

	cause := errors.New("deep failure")
	err := WithFrame(cause, innerSpan)
	err = WithFrame(err, outerSpan)
	err = WithFrame(err, outermostSpan)

	trace, ok := err.(*Trace)
	require.True(t, ok)
	require.Len(t, trace.Frames, 3)
	require.Equal(t, innerSpan, trace.Frames[0].Span)
	require.Equal(t, outerSpan, trace.Frames[1].Span)
	require.Equal(t, outermostSpan, trace.Frames[2].Span)

	msg := trace.Error()
	require.Contains(t, msg, "deep failure")
	require.Contains(t, msg, "while evaluating")
}

func TestIsFindsWrappedSentinel(t *testing.T) {
	sentinel := errors.New("sentinel")
	span := adt.Span{File: 0, Start: 1, End: 2}

	trace := New(span, sentinel)
	require.True(t, Is(trace, sentinel))
}

func TestAsFindsWrappedConcreteType(t *testing.T) {
	span := adt.Span{File: 0, Start: 1, End: 2}
	cause := &adt.TypeError{Expected: "int", Got: "string"}

	trace := New(span, cause)

	var typeErr *adt.TypeError
	require.True(t, As(trace, &typeErr))
	require.Equal(t, "int", typeErr.Expected)
}

func TestTraceErrorOnEmptyFrames(t *testing.T) {
	trace := &Trace{}
	require.Equal(t, "evaluation error", trace.Error())
}
