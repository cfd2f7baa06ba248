// Copyright 2026 The VeGen Authors
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

// Command vegen compiles row-polymorphic view templates into a reactive
// TypeScript runtime module.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"vegen.dev/compiler/internal/vgconfig"
)

// command wraps a *cobra.Command the way cmd/cue's Command does, tracking
// whether anything has been written to Stderr so Run can report a non-zero
// exit code without duplicating error text.
type command struct {
	*cobra.Command
	hasErr bool
}

type errWriter command

func (w *errWriter) Write(b []byte) (int, error) {
	c := (*command)(w)
	c.hasErr = len(b) > 0
	return c.Command.OutOrStderr().Write(b)
}

func (c *command) Stderr() io.Writer { return (*errWriter)(c) }

// errPrintedError indicates the command already printed diagnostics to
// Stderr, so Main should not print the error a second time.
var errPrintedError = fmt.Errorf("terminating because of errors")

// loadConfig resolves the optional --config flag into a *vgconfig.Config,
// returning vgconfig's own default-filled zero value when no flag was set.
func loadConfig(cmd *cobra.Command) (*vgconfig.Config, error) {
	// --config is registered on the root command's PersistentFlags; reached
	// through cmd.Root() rather than cmd.Flags() so this works whether or
	// not cobra has merged persistent flags into the invoked subcommand yet.
	path, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return nil, err
	}
	if path == "" {
		cfg := &vgconfig.Config{}
		cfg.Compile.WatchPollInterval = vgconfig.DefaultWatchPollInterval
		return cfg, nil
	}
	return vgconfig.Load(path)
}

func newRootCmd() *command {
	root := &cobra.Command{
		Use:   "vegen",
		Short: "vegen compiles view templates into a reactive TypeScript module",

		SilenceErrors: true,
		SilenceUsage:  true,
	}
	c := &command{Command: root}

	root.PersistentFlags().String("config", "", "path to a YAML config document (lsp initializationOptions, compile watch poll interval)")

	root.AddCommand(newCompileCmd(c))
	root.AddCommand(newLSPCmd(c))

	return c
}

func main() {
	os.Exit(run())
}

func run() int {
	c := newRootCmd()
	if err := c.Execute(); err != nil {
		if err != errPrintedError {
			fmt.Fprintf(os.Stderr, "vegen: %v\n", err)
		}
		return 1
	}
	if c.hasErr {
		return 1
	}
	return 0
}
