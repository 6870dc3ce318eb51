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

// Command nixeval is a thin CLI over internal/core/eval, in the shape of
// cuelang-cue's cmd/cue: a cobra command tree that loads a serialized
// expression tree (see internal/core/eval/loader.go) and forces it.
package main

import (
	"os"

	"github.com/nixeval/nix-eval/cmd/nixeval/cmd"
)

func main() {
	os.Exit(cmd.Main())
}
