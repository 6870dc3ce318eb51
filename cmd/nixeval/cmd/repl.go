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
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// newReplCmd creates the repl subcommand: a read-eval-print loop that
// shares one *eval.Eval (and so one thunk arena/Builtin scope) across
// lines, reading each line as one JSON-encoded expression tree.
func newReplCmd(c *Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repl",
		Short: "read-eval-print loop over serialized expression trees",
		Long: `repl reads one JSON-encoded expression tree per line from stdin,
forces it, and prints the result, sharing a single evaluator session (and
so a single thunk arena) across the whole run.`,
		Args: cobra.NoArgs,
		RunE: mkRunE(c, runRepl),
	}
	addEvalFlags(cmd.Flags())
	return cmd
}

func runRepl(c *Command, args []string) error {
	ev, err := newSession(c)
	if err != nil {
		return err
	}
	asJSON, _ := c.Flags().GetBool(flagJSON)

	out := c.OutOrStdout()
	in := bufio.NewScanner(c.InOrStdin())
	in.Buffer(make([]byte, 0, 64*1024), 1<<20)

	for {
		fmt.Fprint(out, "nix-eval> ")
		if !in.Scan() {
			fmt.Fprintln(out)
			return in.Err()
		}
		line := strings.TrimSpace(in.Text())
		if line == "" {
			continue
		}

		root, err := ev.LoadInline([]byte(line))
		if err != nil {
			fmt.Fprintf(c.Stderr(), "error: %v\n", err)
			continue
		}

		var rendered string
		if asJSON {
			rendered, err = renderJSON(ev, root)
		} else {
			rendered, err = renderText(ev, root)
		}
		if err != nil {
			fmt.Fprintf(c.Stderr(), "error: %v\n", err)
			continue
		}
		fmt.Fprintln(out, rendered)
	}
}
