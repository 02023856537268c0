// Copyright 2025 walteh LLC
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

package config

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// 🔌 Parser is the interface for config parsers
type Parser interface {
	// 📝 Parse parses the config from bytes
	Parse(ctx context.Context, filename string, data []byte) (*Config, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// 📁 DefaultFiles are looked up in the working directory when no --config
// flag is given, in this order
var DefaultFiles = []string{".kcdutil.yaml", ".kcdutil.yml", ".kcdutil.hcl", ".kcdutil.json"}

// 🎞️ VideoArgs configures how video folders are transferred
type VideoArgs struct {
	CarryUnlisted bool     `json:"carry_unlisted,omitempty" yaml:"carry_unlisted,omitempty"` // Also transfer folder entries the HDR does not list
	Ignore        []string `json:"ignore,omitempty" yaml:"ignore,omitempty"`                 // Glob patterns for entries never transferred
}

// 📚 Config represents the complete configuration
type Config struct {
	Mode        string     `json:"mode,omitempty" yaml:"mode,omitempty"`                 // Default transfer mode: copy or move
	Overwrite   bool       `json:"overwrite,omitempty" yaml:"overwrite,omitempty"`       // Replace existing destinations
	Progress    string     `json:"progress,omitempty" yaml:"progress,omitempty"`         // auto, always or never
	HistoryFile string     `json:"history_file,omitempty" yaml:"history_file,omitempty"` // Append executed plans here
	Video       *VideoArgs `json:"video,omitempty" yaml:"video,omitempty"`

	location string
}

// 🏭 Default returns the configuration used when no file is present
func Default() *Config {
	return &Config{
		Mode:     "copy",
		Progress: "auto",
		Video:    &VideoArgs{},
	}
}

// Location is the file the config was loaded from, empty for defaults.
func (cfg *Config) Location() string {
	return cfg.location
}

// 🎯 Load loads the configuration from a file
func Load(ctx context.Context, path string) (*Config, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading configuration")

	// Read config file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	// Get parser
	p := GetParser(path)
	if p == nil {
		return nil, errors.Errorf("no parser found for file: %s", path)
	}

	// Parse config
	cfg, err := p.Parse(ctx, path, data)
	if err != nil {
		return nil, errors.Errorf("parsing config: %w", err)
	}
	cfg.location = path

	// Validate
	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating config %s: %w", path, err)
	}

	return cfg, nil
}

// 🔍 Discover loads path when set, otherwise the first default file found in
// dir, otherwise the built-in defaults.
func Discover(ctx context.Context, dir, path string) (*Config, error) {
	if path != "" {
		return Load(ctx, path)
	}
	for _, name := range DefaultFiles {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return Load(ctx, candidate)
		} else if !os.IsNotExist(err) {
			return nil, errors.Errorf("checking %s: %w", candidate, err)
		}
	}
	zerolog.Ctx(ctx).Debug().Str("dir", dir).Msg("no config file found, using defaults")
	return Default(), nil
}

// 🔍 Validate checks if the configuration is valid and fills defaults
func (cfg *Config) Validate() error {
	switch cfg.Mode {
	case "":
		cfg.Mode = "copy"
	case "copy", "move":
	default:
		return errors.Errorf("mode must be copy or move, got %q", cfg.Mode)
	}

	switch cfg.Progress {
	case "":
		cfg.Progress = "auto"
	case "auto", "always", "never":
	default:
		return errors.Errorf("progress must be auto, always or never, got %q", cfg.Progress)
	}

	if cfg.Video == nil {
		cfg.Video = &VideoArgs{}
	}
	for _, pattern := range cfg.Video.Ignore {
		if !doublestar.ValidatePattern(pattern) {
			return errors.Errorf("video.ignore: invalid pattern %q", pattern)
		}
	}

	// History paths are relative to the config file
	if cfg.HistoryFile != "" && !filepath.IsAbs(cfg.HistoryFile) && cfg.location != "" {
		cfg.HistoryFile = filepath.Join(filepath.Dir(cfg.location), cfg.HistoryFile)
	}
	if cfg.HistoryFile != "" {
		cfg.HistoryFile = filepath.Clean(cfg.HistoryFile)
	}

	return nil
}

// 📝 String returns a string representation of the config
func (cfg *Config) String() string {
	src := cfg.location
	if src == "" {
		src = "defaults"
	}
	return fmt.Sprintf("%s (mode=%s overwrite=%t progress=%s)", src, cfg.Mode, cfg.Overwrite, cfg.Progress)
}

// 🔧 YAMLParser implements the Parser interface for YAML files
type YAMLParser struct{}

func init() {
	Register(&YAMLParser{})
}

func (p *YAMLParser) CanParse(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return ext == ".yaml" || ext == ".yml"
}

func (p *YAMLParser) Parse(ctx context.Context, filename string, data []byte) (*Config, error) {
	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, errors.Errorf("parsing YAML: %w", err)
	}
	return &cfg, nil
}
