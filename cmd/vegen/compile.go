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

package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"vegen.dev/compiler/internal/compiler"
	"vegen.dev/compiler/internal/emit"
	"vegen.dev/compiler/internal/loader"
	"vegen.dev/compiler/internal/srcmap"
	"vegen.dev/compiler/internal/vgerrors"
)

func newCompileCmd(c *command) *cobra.Command {
	var (
		outFlag   string
		watchFlag bool
		quietFlag bool
	)

	cmd := &cobra.Command{
		Use:   "compile INPUT...",
		Short: "compile one or more view template entry files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if outFlag == "" && len(args) > 1 {
				return fmt.Errorf("-o must name an output directory when more than one input is given")
			}

			compileAll := func() bool {
				ok := true
				for _, input := range args {
					if err := compileOne(c, input, outFlag, len(args) > 1, watchFlag && !quietFlag); err != nil {
						ok = false
					}
				}
				return ok
			}

			if !compileAll() && !watchFlag {
				return errPrintedError
			}
			if !watchFlag {
				return nil
			}

			interval := time.Duration(cfg.Compile.WatchPollInterval)
			return watchAndRecompile(args, interval, quietFlag, compileAll)
		},
	}

	addCompileFlags(cmd.Flags(), &outFlag, &watchFlag, &quietFlag)

	return cmd
}

// addCompileFlags registers the compile subcommand's flags directly against
// a *pflag.FlagSet, the way cmd/cue's addOutFlags/addGlobalFlags/
// addOrphanFlags share flag registration across subcommands.
func addCompileFlags(f *pflag.FlagSet, outFlag *string, watchFlag, quietFlag *bool) {
	f.StringVarP(outFlag, "out", "o", "", "output file (single input) or directory (multiple inputs); defaults to stdout")
	f.BoolVarP(watchFlag, "watch", "w", false, "recompile whenever an input file changes")
	f.BoolVarP(quietFlag, "quiet", "q", false, "suppress watch-loop progress lines")
}

// compileOne loads, compiles, and emits a single entry file, writing the
// result to stdout, a single output file, or a directory depending on
// outFlag/isMulti. Diagnostics are printed to c.Stderr() and a non-nil
// return means at least one was printed.
func compileOne(c *command, input, outFlag string, isMulti, logRecompiles bool) error {
	srcMap := srcmap.NewMap()
	ordered, loadErr := loader.LoadOrderedViews(input, loader.FileResolver{}, srcMap)
	if loadErr != nil {
		vgerrors.Print(c.Stderr(), loadErr, srcMap)
		return loadErr
	}

	defs, compileErr := compiler.Compile(ordered)
	if compileErr != nil {
		vgerrors.Print(c.Stderr(), compileErr, srcMap)
		return compileErr
	}

	if logRecompiles {
		for _, v := range ordered {
			log.Printf("vegen: compiled view %s [%s]", v.Name, v.View.ID)
		}
	}

	output := emit.EmitViews(defs)

	switch {
	case outFlag == "":
		fmt.Fprint(c.OutOrStdout(), output)
		return nil
	case isMulti:
		if err := os.MkdirAll(outFlag, 0o777); err != nil {
			fmt.Fprintf(c.Stderr(), "vegen: %v\n", err)
			return err
		}
		name := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input)) + ".ts"
		path := filepath.Join(outFlag, name)
		if err := os.WriteFile(path, []byte(output), 0o644); err != nil {
			fmt.Fprintf(c.Stderr(), "vegen: %v\n", err)
			return err
		}
		return nil
	default:
		if err := os.WriteFile(outFlag, []byte(output), 0o644); err != nil {
			fmt.Fprintf(c.Stderr(), "vegen: %v\n", err)
			return err
		}
		return nil
	}
}

// watchAndRecompile polls every input's modification time at interval and
// reruns compileAll whenever any of them changes, matching the -w poll-based
// design: the pack carries no filesystem-notification dependency, so the
// watch loop is a plain stat poll, the config document's
// compile.watchPollInterval knob exists precisely to tune it.
func watchAndRecompile(inputs []string, interval time.Duration, quiet bool, compileAll func() bool) error {
	last := make(map[string]time.Time, len(inputs))
	stat := func() {
		for _, in := range inputs {
			if info, err := os.Stat(in); err == nil {
				last[in] = info.ModTime()
			}
		}
	}
	stat()

	if !quiet {
		log.Printf("vegen: watching %d input(s), polling every %s", len(inputs), interval)
	}

	for {
		time.Sleep(interval)
		changed := false
		for _, in := range inputs {
			info, err := os.Stat(in)
			if err != nil {
				continue
			}
			if !info.ModTime().Equal(last[in]) {
				changed = true
			}
		}
		if !changed {
			continue
		}
		stat()
		if !quiet {
			log.Printf("vegen: recompiling")
		}
		compileAll()
	}
}
