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

package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/walteh/kcdutil/pkg/status"
)

// 🎨 Display configuration
const (
	fileIndent  = 4  // spaces to indent file entries
	nameWidth   = 35 // Base width for filename
	kindWidth   = 8  // Width for file kind
	statusWidth = 12 // Width for status text
)

// 🎯 FileOperation is one file touched by a command
type FileOperation struct {
	Path   string            // File path
	Kind   string            // kcd, hdr, raf or video
	Status status.FileStatus // What happened to the file
}

// 📦 CommandOperation describes the command being run
type CommandOperation struct {
	Command string // kcd, raf, hdr, video or clone
	Source  string // Main input path
	Label   string // Target label, if any
	Mode    string // copy or move
	DryRun  bool
}

// 🎯 Logger handles structured logging with console output
type Logger struct {
	zlog       zerolog.Logger
	console    io.Writer
	formatter  status.FileFormatter
	mu         sync.Mutex
	currentOp  *CommandOperation
	operations []FileOperation
}

// 🏭 New creates a new logger
func New(console io.Writer, level zerolog.Level) *Logger {
	zlog := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger().Level(level)
	return &Logger{
		zlog:      zlog,
		console:   console,
		formatter: status.NewDefaultFileFormatter(),
		mu:        sync.Mutex{},
	}
}

// 🔑 contextKey is the type for context values
type contextKey struct{}

var discard = &Logger{zlog: zerolog.Nop(), console: io.Discard, formatter: status.NewDefaultFileFormatter()}

// 🎯 FromContext gets the logger from context, or a logger that drops
// everything when none was attached
func FromContext(ctx context.Context) *Logger {
	logger, ok := ctx.Value(contextKey{}).(*Logger)
	if !ok {
		return discard
	}
	return logger
}

// 🎯 NewContext adds the logger to context
func NewContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// 📝 formatFileOperation formats a file operation for display
func (l *Logger) formatFileOperation(op FileOperation) string {
	var symbol rune
	var symbolColor color.Attribute
	switch op.Status {
	case status.StatusRemoved:
		symbol = '✗'
		symbolColor = color.FgRed
	case status.StatusCreated, status.StatusCopied:
		symbol = '✓'
		symbolColor = color.FgGreen
	case status.StatusRewritten:
		symbol = '⟳'
		symbolColor = color.FgBlue
	case status.StatusMoved:
		symbol = '→'
		symbolColor = color.FgYellow
	case status.StatusRestored:
		symbol = '↺'
		symbolColor = color.FgMagenta
	default:
		symbol = '•'
		symbolColor = color.FgCyan
	}

	var kindColor color.Attribute
	switch op.Kind {
	case "video":
		kindColor = color.FgYellow
	case "hdr":
		kindColor = color.FgCyan
	default:
		kindColor = color.FgBlue
	}

	return fmt.Sprintf("%s%s %s %s %s",
		fmt.Sprintf("%*s", fileIndent, ""),
		color.New(symbolColor).Sprint(string(symbol)),
		fmt.Sprintf("%-*s", nameWidth, op.Path),
		color.New(kindColor).Sprint(fmt.Sprintf("%-*s", kindWidth, op.Kind)),
		fmt.Sprintf("%-*s", statusWidth, op.Status))
}

// 📝 LogFileOperation logs a file operation
func (l *Logger) LogFileOperation(ctx context.Context, op FileOperation) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.operations = append(l.operations, op)

	fmt.Fprintln(l.console, l.formatFileOperation(op))

	l.zlog.Info().
		Str("file", op.Path).
		Str("kind", op.Kind).
		Stringer("status", op.Status).
		Msg(l.formatter.FormatFileOperation(op.Path, op.Kind, op.Status))
}

// 📝 StartCommand starts a new command section
func (l *Logger) StartCommand(ctx context.Context, op CommandOperation) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.currentOp = &op
	l.operations = nil

	header := op.Command
	if op.DryRun {
		header += " (dry run)"
	}
	fmt.Fprintf(l.console, "[%s %s]\n",
		color.New(color.FgCyan).Sprint(header),
		op.Source)

	if op.Label != "" || op.Mode != "" {
		fmt.Fprintf(l.console, "%s %s %s %s\n",
			color.New(color.FgMagenta).Sprint("◆"),
			color.New(color.Bold).Sprint(op.Label),
			color.New(color.Faint).Sprint("•"),
			color.New(color.FgYellow).Sprint(op.Mode))
	}

	l.zlog.Info().
		Str("command", op.Command).
		Str("source", op.Source).
		Str("label", op.Label).
		Str("mode", op.Mode).
		Bool("dry_run", op.DryRun).
		Msg("starting command")
}

// 📝 EndCommand ends the current command section
func (l *Logger) EndCommand(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.currentOp == nil {
		return
	}

	l.zlog.Info().
		Str("command", l.currentOp.Command).
		Int("files", len(l.operations)).
		Msg("command complete")

	l.currentOp = nil
	l.operations = nil
}

// Operations returns the file operations logged since the command started.
func (l *Logger) Operations() []FileOperation {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]FileOperation(nil), l.operations...)
}

// 📝 Success logs a success message
func (l *Logger) Success(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "✅ %s\n", color.New(color.FgGreen).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Warning logs a warning message
func (l *Logger) Warning(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "⚠️  %s\n", color.New(color.FgYellow).Sprint(msg))
	l.zlog.Warn().Msg(msg)
}

// 📝 Failure logs err the way the file formatter renders errors
func (l *Logger) Failure(err error) {
	if err == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.console, color.New(color.FgRed).Sprint(l.formatter.FormatError(err)))
	l.zlog.Error().Err(err).Msg("command failed")
}

// 📝 Info logs an info message
func (l *Logger) Info(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "ℹ️  %s\n", color.New(color.FgCyan).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Infof logs a formatted info message
func (l *Logger) Infof(format string, args ...interface{}) {
	l.Info(fmt.Sprintf(format, args...))
}

// 📝 Warningf logs a formatted warning message
func (l *Logger) Warningf(format string, args ...interface{}) {
	l.Warning(fmt.Sprintf(format, args...))
}

// 📝 Successf logs a formatted success message
func (l *Logger) Successf(format string, args ...interface{}) {
	l.Success(fmt.Sprintf(format, args...))
}
