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
)

// Command wraps a cobra.Command the way cmd/cue/cmd.Command does: the
// active subcommand plus a hasErr flag so Run can translate "something was
// printed to stderr" into a non-zero exit code.
type Command struct {
	*cobra.Command

	root *cobra.Command

	hasErr bool
}

type errWriter Command

func (w *errWriter) Write(b []byte) (int, error) {
	c := (*Command)(w)
	c.hasErr = true
	return c.Command.OutOrStderr().Write(b)
}

// Stderr returns a writer that should be used for error messages; writing
// to it marks the run as failed even if no error is ultimately returned.
func (c *Command) Stderr() io.Writer {
	return (*errWriter)(c)
}

type runFunction func(cmd *Command, args []string) error

// mkRunE adapts a runFunction into the func(*cobra.Command, []string) error
// shape cobra.Command.RunE expects, installing the active *cobra.Command
// onto c before calling f (cmd/cue/cmd/root.go's mkRunE).
func mkRunE(c *Command, f runFunction) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		c.Command = cmd
		err := f(c, args)
		if err != nil {
			exitOnErr(c, err)
		}
		return err
	}
}

// newRootCmd builds the base command tree: eval and repl, plus the global
// flags every subcommand shares.
func newRootCmd() *Command {
	root := &cobra.Command{
		Use:   "nixeval",
		Short: "nixeval evaluates serialized Nix expression trees",
		Long: `nixeval is a call-by-need evaluator for Nix expressions.

It does not parse Nix surface syntax itself (no lexer/parser is in scope);
instead "eval" and "repl" read a JSON-encoded expression tree, the shape a
real frontend would produce, and force it to weak head normal form.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	c := &Command{Command: root, root: root}

	addGlobalFlags(root.PersistentFlags())

	root.AddCommand(newEvalCmd(c))
	root.AddCommand(newReplCmd(c))

	return c
}

// ErrPrintedError indicates error messages have already been printed to
// stderr, so the caller should just exit(1) without printing err again.
var ErrPrintedError = fmt.Errorf("terminating because of errors")

func exitOnErr(c *Command, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(c.Stderr(), "nixeval: %v\n", err)
}

// New constructs the command tree and parses args into it.
func New(args []string) *Command {
	c := newRootCmd()
	c.root.SetArgs(args)
	return c
}

// Run executes the parsed command tree.
func (c *Command) Run() error {
	if err := c.root.Execute(); err != nil {
		if c.hasErr {
			return ErrPrintedError
		}
		return err
	}
	if c.hasErr {
		return ErrPrintedError
	}
	return nil
}

// Main runs the nixeval tool and returns the process exit code, in the
// shape of cmd/cue/cmd's Main/mainErr split.
func Main() int {
	c := New(os.Args[1:])
	if err := c.Run(); err != nil {
		if err != ErrPrintedError {
			fmt.Fprintln(os.Stderr, err)
		}
		return 1
	}
	return 0
}
