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
	"context"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
)

func init() {
	Register(&HCLParser{})
}

type HCLParser struct{}

func (p *HCLParser) CanParse(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".hcl")
}

func (p *HCLParser) Parse(ctx context.Context, filename string, data []byte) (*Config, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, filepath.Base(filename))
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	// Create evaluation context
	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"home": cty.StringVal(homeDir()),
		},
	}

	// Define HCL schema
	type hclConfig struct {
		Mode        string `hcl:"mode,optional"`
		Overwrite   bool   `hcl:"overwrite,optional"`
		Progress    string `hcl:"progress,optional"`
		HistoryFile string `hcl:"history_file,optional"`
		Video       *struct {
			CarryUnlisted bool     `hcl:"carry_unlisted,optional"`
			Ignore        []string `hcl:"ignore,optional"`
		} `hcl:"video,block"`
	}

	// Decode HCL
	var hclCfg hclConfig
	diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &hclCfg)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}

	// Convert to model
	cfg := &Config{
		Mode:        hclCfg.Mode,
		Overwrite:   hclCfg.Overwrite,
		Progress:    hclCfg.Progress,
		HistoryFile: hclCfg.HistoryFile,
	}
	if hclCfg.Video != nil {
		cfg.Video = &VideoArgs{
			CarryUnlisted: hclCfg.Video.CarryUnlisted,
			Ignore:        hclCfg.Video.Ignore,
		}
	}

	return cfg, nil
}
