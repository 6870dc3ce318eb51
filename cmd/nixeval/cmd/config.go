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
	"os"

	"gopkg.in/yaml.v3"
)

// fileConfig is the optional YAML config file's shape (SPEC_FULL.md
// "Configuration"): default NIX_PATH entries plus evaluator options a
// command-line flag can still override.
type fileConfig struct {
	NixPath        string `yaml:"nixPath"`
	AllowEmptyHash bool   `yaml:"allowEmptyHash"`
}

// loadConfig reads path, if non-empty, returning the zero value (not an
// error) when no path was given.
func loadConfig(path string) (fileConfig, error) {
	var cfg fileConfig
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
