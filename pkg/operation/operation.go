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

package operation

import (
	"os"
	"path/filepath"

	"github.com/walteh/kcdutil/pkg/bundle"
	"github.com/walteh/kcdutil/pkg/fault"
	"github.com/walteh/kcdutil/pkg/transfer"
)

// 🗺️ Planner resolves command arguments into plans. Planning reads the
// files involved but never writes.
type Planner struct {
	// CarryUnlisted also transfers video folder entries the HDR does not list.
	CarryUnlisted bool
	// Ignored reports folder entries, by name, that are never carried.
	Ignored func(name string) bool
}

// 🏭 NewPlanner creates a planner that skips what engine ignores
func NewPlanner(engine *transfer.Engine, carryUnlisted bool) *Planner {
	p := &Planner{CarryUnlisted: carryUnlisted}
	if engine != nil {
		p.Ignored = engine.Ignored
	}
	return p
}

func (p *Planner) ignored(name string) bool {
	return p.Ignored != nil && p.Ignored(name)
}

// unlisted returns the entries of dir that are neither listed, headers nor
// ignored, ordered by name.
func (p *Planner) unlisted(dir string, listed map[string]bool) ([]string, error) {
	if !p.CarryUnlisted {
		return nil, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fault.IO("list", dir, err)
	}
	var out []string
	for _, e := range entries {
		path := filepath.Join(dir, e.Name())
		if listed[path] || bundle.Detect(path) == bundle.KindHDR || p.ignored(e.Name()) {
			continue
		}
		if e.Name() != "" && e.Name()[0] == '.' && filepath.Ext(e.Name()) == transfer.StageSuffix {
			continue
		}
		out = append(out, path)
	}
	return out, nil
}

func expectKind(path string, want bundle.Kind) error {
	if got := bundle.Detect(path); got != want {
		return &fault.FormatError{Path: path, Reason: "expected a " + want.Ext() + " file, got a " + got.String() + " file"}
	}
	return nil
}
