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

// Package vgconfig decodes the optional YAML document a caller can pass to
// cmd/vegen via --config: initialization options handed to the lsp
// subcommand, and the poll interval the compile subcommand's -w watch loop
// uses.
package vgconfig

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the decoded shape of a --config document.
type Config struct {
	LSP struct {
		// InitializationOptions is handed back verbatim in the lsp
		// subcommand's initialize response; VeGen does not interpret it.
		InitializationOptions map[string]any `yaml:"initializationOptions"`
	} `yaml:"lsp"`

	Compile struct {
		// WatchPollInterval overrides the -w watch loop's default poll
		// interval. Zero means "use the default".
		WatchPollInterval Duration `yaml:"watchPollInterval"`
	} `yaml:"compile"`
}

// Duration decodes a YAML scalar like "500ms" or "2s" into a time.Duration;
// yaml.v3 has no built-in notion of Go duration strings.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// DefaultWatchPollInterval is used by the -w watch loop when a --config
// document is absent, or present without a compile.watchPollInterval entry.
const DefaultWatchPollInterval = Duration(500 * time.Millisecond)

// Load reads and decodes the YAML document at path. A missing file is an
// error; callers that want an absent --config flag to mean "use defaults"
// should simply not call Load.
func Load(path string) (*Config, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("vgconfig: cannot read %s: %w", path, err)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(body, cfg); err != nil {
		return nil, fmt.Errorf("vgconfig: cannot decode %s: %w", path, err)
	}
	if cfg.Compile.WatchPollInterval <= 0 {
		cfg.Compile.WatchPollInterval = DefaultWatchPollInterval
	}
	return cfg, nil
}
