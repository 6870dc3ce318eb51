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

import "github.com/spf13/pflag"

// Global flags, in the manner of cmd/cue/cmd/flags.go's flagName constants.
const (
	flagConfig         = "config"
	flagNixPath        = "nix-path"
	flagAllowEmptyHash = "allow-empty-hash"
	flagJSON           = "json"
	flagExpr           = "expr"
)

func addGlobalFlags(f *pflag.FlagSet) {
	f.String(flagConfig, "", "path to a YAML config file (default NIX_PATH entries, allowEmptyHash)")
	f.String(flagNixPath, "", "override NIX_PATH for this invocation (colon-separated)")
	f.Bool(flagAllowEmptyHash, false, "set the evaluator's AllowEmptyHash option (no evaluator operation reads it)")
}

func addEvalFlags(f *pflag.FlagSet) {
	f.StringP(flagExpr, "e", "", "evaluate this JSON-encoded expression tree instead of a file")
	f.Bool(flagJSON, false, "print the result as JSON instead of Nix-like text")
}
