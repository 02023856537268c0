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

package status

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// 📊 FileStatus is what happened to a bundle file
type FileStatus int

const (
	StatusUnknown   FileStatus = iota
	StatusCreated              // new file written from a staged copy
	StatusRewritten            // existing file rewritten in place
	StatusCopied               // copied, source kept
	StatusMoved                // moved, source gone
	StatusRemoved              // deleted
	StatusUnchanged            // already in the desired state
	StatusRestored             // put back by a rollback
)

// String returns a string representation of FileStatus
func (s FileStatus) String() string {
	switch s {
	case StatusCreated:
		return "created"
	case StatusRewritten:
		return "rewritten"
	case StatusCopied:
		return "copied"
	case StatusMoved:
		return "moved"
	case StatusRemoved:
		return "removed"
	case StatusUnchanged:
		return "unchanged"
	case StatusRestored:
		return "restored"
	default:
		return "unknown"
	}
}

// 📈 Reporter reports progress of a multi-file operation
type Reporter interface {
	StartOperation(ctx context.Context, title string, total int)
	UpdateProgress(ctx context.Context, processed int)
	FinishOperation(ctx context.Context)
}

// Progress display modes.
const (
	ProgressAuto   = "auto"
	ProgressAlways = "always"
	ProgressNever  = "never"
)

// NewReporter picks a reporter for mode. In auto mode a progress bar is used
// only when out is a terminal.
func NewReporter(mode string, out io.Writer) Reporter {
	if out == nil {
		out = os.Stderr
	}
	switch mode {
	case ProgressAlways:
		return NewBarReporter(out)
	case ProgressNever:
		return NewLogReporter(NewDefaultFileFormatter())
	}
	if f, ok := out.(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		return NewBarReporter(out)
	}
	return NewLogReporter(NewDefaultFileFormatter())
}

// 📝 LogReporter writes progress lines to the context logger
type LogReporter struct {
	formatter FileFormatter

	mu        sync.Mutex
	title     string
	total     int
	processed int
}

// NewLogReporter creates a new LogReporter
func NewLogReporter(formatter FileFormatter) *LogReporter {
	return &LogReporter{formatter: formatter}
}

func (r *LogReporter) StartOperation(ctx context.Context, title string, total int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.title = title
	r.total = total
	r.processed = 0
	zerolog.Ctx(ctx).Info().Str("operation", title).Int("total", total).Msg(r.formatter.FormatProgress(0, total))
}

func (r *LogReporter) UpdateProgress(ctx context.Context, processed int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.processed = processed
	zerolog.Ctx(ctx).Debug().
		Str("operation", r.title).
		Int("processed", processed).
		Int("total", r.total).
		Msg(r.formatter.FormatProgress(processed, r.total))
}

func (r *LogReporter) FinishOperation(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	zerolog.Ctx(ctx).Info().
		Str("operation", r.title).
		Int("processed", r.processed).
		Int("total", r.total).
		Msg(r.formatter.FormatProgress(r.processed, r.total))
}

// Processed returns the last reported count.
func (r *LogReporter) Processed() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.processed
}
