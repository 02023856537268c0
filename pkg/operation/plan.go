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
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/walteh/kcdutil/pkg/bundle"
	"github.com/walteh/kcdutil/pkg/fault"
	"github.com/walteh/kcdutil/pkg/transfer"
	"gitlab.com/tozd/go/errors"
)

// 🧱 StepKind is the action a step performs
type StepKind string

const (
	StepMkdir    StepKind = "mkdir"
	StepTransfer StepKind = "transfer"
	StepRewrite  StepKind = "rewrite"
	StepRemove   StepKind = "remove"
)

// 🪜 Step is one action of a plan
type Step struct {
	Kind StepKind
	// Src is the file a transfer or rewrite reads from.
	Src string
	// Dst is the path the step creates, rewrites or removes.
	Dst string
	// FileKind is the bundle kind of Dst, used for display.
	FileKind bundle.Kind
	// Mode applies to transfer steps.
	Mode transfer.Mode
	// Record holds the pre-encoded field edits of a rewrite step, located at Dst.
	Record bundle.Record
	// IfEmpty makes a remove step skip non-empty folders.
	IfEmpty bool

	Description string
}

// InPlace reports whether a rewrite replaces its own source.
func (s Step) InPlace() bool {
	return s.Kind == StepRewrite && filepath.Clean(s.Src) == filepath.Clean(s.Dst)
}

// 📋 Plan is the ordered list of steps one command needs
type Plan struct {
	ID      string
	Command string
	Source  string
	Label   string
	Mode    transfer.Mode

	Steps []Step
	// Graph holds the records as they will exist once the plan ran.
	Graph *bundle.Graph
	// Closure, when set, requires every reference in Graph to stay inside
	// the bundle with this label.
	Closure string
	// Overwrite allows steps to replace existing destinations.
	Overwrite bool
	// Note explains a plan with no steps.
	Note string
}

func newPlan(command, source string) *Plan {
	return &Plan{
		Command: command,
		Source:  filepath.Clean(source),
		Mode:    transfer.ModeCopy,
		Graph:   bundle.NewGraph(),
	}
}

func (p *Plan) add(s Step) {
	s.Src = cleanOrEmpty(s.Src)
	s.Dst = cleanOrEmpty(s.Dst)
	p.Steps = append(p.Steps, s)
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}

func cleanOrEmpty(p string) string {
	if p == "" {
		return ""
	}
	return filepath.Clean(p)
}

// Empty reports whether the plan has nothing to do.
func (p *Plan) Empty() bool {
	return len(p.Steps) == 0
}

// 🔍 Validate checks the plan before anything is written: destinations must
// be free (unless Overwrite is set) and the planned graph must not reference
// anything that will be missing once the plan ran.
func (p *Plan) Validate() error {
	created := map[string]bool{}
	removed := map[string]bool{}

	for _, s := range p.Steps {
		dst := absPath(s.Dst)
		switch s.Kind {
		case StepRemove:
			removed[dst] = true
			continue
		case StepTransfer:
			if s.Mode == transfer.ModeMove && s.Src != s.Dst {
				removed[absPath(s.Src)] = true
			}
		}

		if created[dst] {
			return errors.Errorf("%s is planned twice", s.Dst)
		}
		created[dst] = true
		delete(removed, dst)

		if s.InPlace() || s.Src == s.Dst || p.Overwrite {
			continue
		}
		if _, err := os.Lstat(s.Dst); err == nil {
			return &fault.AlreadyExistsError{Path: s.Dst}
		} else if !os.IsNotExist(err) {
			return fault.IO("stat", s.Dst, err)
		}
	}

	exists := func(path string) bool {
		path = absPath(path)
		if created[path] {
			return true
		}
		if removed[path] {
			return false
		}
		_, err := os.Stat(path)
		return err == nil
	}

	if err := p.Graph.Validate(exists); err != nil {
		return err
	}
	if p.Closure != "" {
		if err := p.Graph.Closed(p.Closure); err != nil {
			return errors.Errorf("checking clone closure: %w", err)
		}
	}
	return nil
}

// 🖨️ Table renders the plan for --dry-run
func (p *Plan) Table() string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle(fmt.Sprintf("%s %s", p.Command, p.Source))
	tw.AppendHeader(table.Row{"#", "step", "kind", "source", "destination", "description"})
	for i, s := range p.Steps {
		kind := ""
		if s.Kind != StepMkdir {
			kind = s.FileKind.String()
		}
		tw.AppendRow(table.Row{strconv.Itoa(i + 1), string(s.Kind), kind, s.Src, s.Dst, s.Description})
	}
	if p.Empty() && p.Note != "" {
		tw.AppendFooter(table.Row{"", p.Note})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}
