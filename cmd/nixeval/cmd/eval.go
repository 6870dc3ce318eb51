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
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/nixeval/nix-eval/internal/core/thunk"
)

// newEvalCmd creates the eval subcommand (cmd/cue/cmd/def.go's newDefCmd
// shape): force a loaded expression to WHNF and print it.
func newEvalCmd(c *Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval [file]",
		Short: "force a serialized expression tree and print its value",
		Long: `eval reads a JSON-encoded expression tree from a file (or, with
--expr, from the flag value directly) and forces it to weak head normal
form, printing the result.

Input is not Nix surface syntax: it is the wire format internal/core/eval's
loader decodes, the shape an external parser would emit (see
internal/core/eval/loader.go).`,
		Args: cobra.MaximumNArgs(1),
		RunE: mkRunE(c, runEval),
	}
	addEvalFlags(cmd.Flags())
	return cmd
}

func runEval(c *Command, args []string) error {
	ev, err := newSession(c)
	if err != nil {
		return err
	}

	var root thunk.ID
	if exprFlag, _ := c.Flags().GetString(flagExpr); exprFlag != "" {
		root, err = ev.LoadInline([]byte(exprFlag))
	} else if len(args) == 1 {
		root, err = ev.LoadFile(args[0])
	} else {
		data, readErr := io.ReadAll(os.Stdin)
		if readErr != nil {
			return readErr
		}
		root, err = ev.LoadInline(data)
	}
	if err != nil {
		return err
	}

	asJSON, _ := c.Flags().GetBool(flagJSON)
	var out string
	if asJSON {
		out, err = renderJSON(ev, root)
	} else {
		out, err = renderText(ev, root)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(c.OutOrStdout(), out)
	return nil
}
