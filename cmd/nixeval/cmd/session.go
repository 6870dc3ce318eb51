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
	"github.com/nixeval/nix-eval/internal/core/adt"
	"github.com/nixeval/nix-eval/internal/core/eval"
)

// overrideEnviron wraps a base Environ, substituting NIX_PATH when the
// caller supplied an override (flag, then config file) — both take
// priority over whatever the process environment holds.
type overrideEnviron struct {
	eval.Environ
	nixPath    string
	hasNixPath bool
}

func (e overrideEnviron) Getenv(name string) (string, bool) {
	if name == "NIX_PATH" && e.hasNixPath {
		return e.nixPath, true
	}
	return e.Environ.Getenv(name)
}

// newSession builds an *eval.Eval from the resolved --config/--nix-path/
// --allow-empty-hash flags, in the shape of newRootCmd wiring a
// runtime.Runtime collaborator into the teacher's engine.
func newSession(c *Command) (*eval.Eval, error) {
	cfgPath, _ := c.Flags().GetString(flagConfig)
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return nil, err
	}

	nixPath, _ := c.Flags().GetString(flagNixPath)
	if nixPath == "" {
		nixPath = cfg.NixPath
	}

	allowEmptyHash, _ := c.Flags().GetBool(flagAllowEmptyHash)
	if !allowEmptyHash {
		allowEmptyHash = cfg.AllowEmptyHash
	}

	env := eval.Environ(eval.OSEnviron{})
	if nixPath != "" {
		env = overrideEnviron{Environ: env, nixPath: nixPath, hasNixPath: true}
	}

	ev := eval.New(&adt.ExprArena{}, eval.Collaborators{Env: env})
	ev.Options.AllowEmptyHash = allowEmptyHash
	return ev, nil
}
