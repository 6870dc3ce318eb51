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
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nixeval/nix-eval/internal/core/adt"
)

// memFS is an in-memory Filesystem for deterministic primop tests.
type memFS struct {
	files map[string]string
	dirs  map[string][]string
}

func newMemFS() *memFS { return &memFS{files: map[string]string{}, dirs: map[string][]string{}} }

func (f *memFS) ReadFile(path string) ([]byte, error) {
	text, ok := f.files[path]
	if !ok {
		return nil, fmt.Errorf("no such file: %s", path)
	}
	return []byte(text), nil
}

func (f *memFS) Exists(path string) bool {
	_, ok := f.files[path]
	if ok {
		return true
	}
	_, ok = f.dirs[path]
	return ok
}

func (f *memFS) ReadDir(path string) ([]string, error) {
	entries, ok := f.dirs[path]
	if !ok {
		return nil, fmt.Errorf("no such directory: %s", path)
	}
	return entries, nil
}

// memEnviron is an in-memory Environ for deterministic getEnv/NIX_PATH tests.
type memEnviron struct {
	vars map[string]string
	home string
}

func (e *memEnviron) Getenv(name string) (string, bool) {
	v, ok := e.vars[name]
	return v, ok
}

func (e *memEnviron) HomeDir() (string, error) { return e.home, nil }

// newTestEval builds an *Eval with in-memory collaborators, so primop tests
// never touch the real filesystem or environment.
func newTestEval(t *testing.T) (*Eval, *memFS, *memEnviron) {
	t.Helper()
	fs := newMemFS()
	env := &memEnviron{vars: map[string]string{}, home: "/home/test"}
	ev := New(&adt.ExprArena{}, Collaborators{FS: fs, Env: env})
	return ev, fs, env
}

// evalJSON loads src (a JSON-encoded expression tree) into ev and forces it.
func evalJSON(t *testing.T, ev *Eval, src string) adt.Value {
	t.Helper()
	root, err := ev.LoadInline([]byte(src))
	require.NoError(t, err, "LoadInline(%s)", src)
	v, err := ev.Force(root)
	require.NoError(t, err, "Force(%s)", src)
	return v
}

// evalJSONErr is like evalJSON but asserts evaluation fails and returns the
// error instead of a value.
func evalJSONErr(t *testing.T, ev *Eval, src string) error {
	t.Helper()
	root, err := ev.LoadInline([]byte(src))
	require.NoError(t, err, "LoadInline(%s)", src)
	_, err = ev.Force(root)
	require.Error(t, err, "expected Force(%s) to fail", src)
	return err
}
