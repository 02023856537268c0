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
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/kcdutil/pkg/status"
	"gitlab.com/tozd/go/errors"
)

func TestLogger(t *testing.T) {
	// Disable color for testing
	color.NoColor = true
	defer func() { color.NoColor = false }()

	tests := []struct {
		name     string
		op       func(t *testing.T, logger *Logger)
		wantLogs []string
	}{
		{
			name: "log_file_operation",
			op: func(t *testing.T, logger *Logger) {
				logger.LogFileOperation(context.Background(), FileOperation{
					Path:   "b.kcd",
					Kind:   "kcd",
					Status: status.StatusCreated,
				})
			},
			wantLogs: []string{
				"✓ b.kcd                               kcd      created",
			},
		},
		{
			name: "log_command",
			op: func(t *testing.T, logger *Logger) {
				logger.StartCommand(context.Background(), CommandOperation{
					Command: "clone",
					Source:  "/data/a/a.hdr",
					Label:   "b",
					Mode:    "copy",
				})
			},
			wantLogs: []string{
				"[clone /data/a/a.hdr]",
				"◆ b • copy",
			},
		},
		{
			name: "log_dry_run_command_without_label",
			op: func(t *testing.T, logger *Logger) {
				logger.StartCommand(context.Background(), CommandOperation{
					Command: "raf",
					Source:  "a.raf",
					DryRun:  true,
				})
			},
			wantLogs: []string{
				"[raf (dry run) a.raf]",
			},
		},
		{
			name: "log_messages",
			op: func(t *testing.T, logger *Logger) {
				logger.Info("info message")
				logger.Warning("warning message")
				logger.Failure(errors.New("error message"))
				logger.Failure(nil)
				logger.Success("success message")
			},
			wantLogs: []string{
				"ℹ️  info message",
				"⚠️  warning message",
				"❌ Error: error message",
				"✅ success message",
			},
		},
		{
			name: "log_formatted_messages",
			op: func(t *testing.T, logger *Logger) {
				logger.Infof("info %s", "test")
				logger.Warningf("warning %s", "test")
				logger.Failure(errors.Errorf("rollback incomplete: %w", errors.New("test")))
				logger.Successf("success %s", "test")
			},
			wantLogs: []string{
				"ℹ️  info test",
				"⚠️  warning test",
				"❌ Error: rollback incomplete: test",
				"✅ success test",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := New(buf, zerolog.Disabled)

			tt.op(t, logger)

			output := strings.TrimSpace(buf.String())
			lines := strings.Split(output, "\n")

			require.Equal(t, len(tt.wantLogs), len(lines), "number of log lines should match")
			for i, want := range tt.wantLogs {
				assert.Equal(t, want, strings.TrimSpace(lines[i]), "log line %d should match", i)
			}
		})
	}
}

func TestLoggerContext(t *testing.T) {
	logger := New(io.Discard, zerolog.Disabled)

	ctx := NewContext(context.Background(), logger)
	assert.Same(t, logger, FromContext(ctx), "logger from context should be the same instance")

	fallback := FromContext(context.Background())
	require.NotNil(t, fallback)
	assert.NotPanics(t, func() { fallback.Info("dropped") })
}

func TestOperationsTracking(t *testing.T) {
	logger := New(io.Discard, zerolog.Disabled)
	ctx := context.Background()

	logger.StartCommand(ctx, CommandOperation{Command: "video", Source: "a.hdr"})
	logger.LogFileOperation(ctx, FileOperation{Path: "a_cam1.avi", Kind: "video", Status: status.StatusMoved})
	logger.LogFileOperation(ctx, FileOperation{Path: "b.hdr", Kind: "hdr", Status: status.StatusRewritten})

	ops := logger.Operations()
	require.Len(t, ops, 2)
	assert.Equal(t, status.StatusMoved, ops[0].Status)

	logger.EndCommand(ctx)
	assert.Empty(t, logger.Operations())
}
