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

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/kcdutil/pkg/bundle"
	"github.com/walteh/kcdutil/pkg/bundle/bundletest"
)

func TestRun(t *testing.T) {
	color.NoColor = true

	tests := []struct {
		name     string
		args     func(t *testing.T, dir string) []string
		wantCode int
		contains string
		validate func(t *testing.T, dir string)
	}{
		{
			name: "help",
			args: func(t *testing.T, dir string) []string {
				return []string{"help"}
			},
			wantCode: 0,
			contains: "clone",
		},
		{
			name: "version",
			args: func(t *testing.T, dir string) []string {
				return []string{"version", "--json"}
			},
			wantCode: 0,
			contains: `"go_version"`,
		},
		{
			name: "missing_required_flag",
			args: func(t *testing.T, dir string) []string {
				return []string{"raf", "--kcd", filepath.Join(dir, "a.kcd")}
			},
			wantCode: 1,
			contains: "input",
		},
		{
			name: "clone",
			args: func(t *testing.T, dir string) []string {
				b := bundletest.WriteBundle(t, dir, "alpha", "cam1", "cam2")
				return []string{"clone", "--src", b.KCD, "--label", "beta", "--progress", "never"}
			},
			wantCode: 0,
			contains: "clone complete",
			validate: func(t *testing.T, dir string) {
				for _, p := range []string{"beta.kcd", "beta.raf", "beta/beta.hdr", "beta/beta_cam1.avi", "beta/beta_cam2.avi"} {
					assert.FileExists(t, filepath.Join(dir, p))
				}
				rec, err := bundle.LoadPath(filepath.Join(dir, "beta.kcd"))
				require.NoError(t, err)
				v, ok := rec.Value(bundle.RoleHDR)
				require.True(t, ok)
				assert.Equal(t, `beta\beta.hdr`, v)
			},
		},
		{
			name: "clone_move_rejected",
			args: func(t *testing.T, dir string) []string {
				b := bundletest.WriteBundle(t, dir, "alpha", "cam1")
				return []string{"clone", "--src", b.HDR, "--label", "beta", "--mode", "move"}
			},
			wantCode: 1,
			contains: "move is not supported",
			validate: func(t *testing.T, dir string) {
				assert.NoFileExists(t, filepath.Join(dir, "beta.kcd"))
			},
		},
		{
			name: "clone_existing_label",
			args: func(t *testing.T, dir string) []string {
				b := bundletest.WriteBundle(t, dir, "alpha", "cam1")
				bundletest.WriteBundle(t, dir, "beta", "cam1")
				return []string{"clone", "--src", b.KCD, "--label", "beta"}
			},
			wantCode: 5,
		},
		{
			name: "raf_dangling",
			args: func(t *testing.T, dir string) []string {
				b := bundletest.WriteBundle(t, dir, "alpha", "cam1")
				return []string{"raf", "--input", b.RAF, "--kcd", filepath.Join(dir, "missing.kcd")}
			},
			wantCode: 4,
		},
		{
			name: "kcd_not_a_kcd",
			args: func(t *testing.T, dir string) []string {
				b := bundletest.WriteBundle(t, dir, "alpha", "cam1")
				return []string{"kcd", "--input", b.RAF, "--output", filepath.Join(dir, "alpha", "alpha.hdr")}
			},
			wantCode: 2,
		},
		{
			name: "invalid_mode",
			args: func(t *testing.T, dir string) []string {
				b := bundletest.WriteBundle(t, dir, "alpha", "cam1")
				return []string{"kcd", "--input", b.KCD, "--output", b.HDR, "--mode", "teleport"}
			},
			wantCode: 1,
			contains: "teleport",
		},
		{
			name: "hdr_dry_run",
			args: func(t *testing.T, dir string) []string {
				b := bundletest.WriteBundle(t, dir, "alpha", "cam1")
				return []string{"hdr", "--input", b.HDR, "--label", "beta", "--dry-run"}
			},
			wantCode: 0,
			contains: "hdr (dry run)",
			validate: func(t *testing.T, dir string) {
				assert.NoFileExists(t, filepath.Join(dir, "alpha", "beta.hdr"))
			},
		},
		{
			name: "config_sets_move_mode",
			args: func(t *testing.T, dir string) []string {
				alpha := bundletest.WriteBundle(t, dir, "alpha", "cam1")
				bundletest.WriteBundle(t, dir, "beta", "cam1")
				cfg := bundletest.Write(t, filepath.Join(dir, "kcdutil.yaml"), []byte("mode: move\n"))
				require.NoError(t, os.Remove(filepath.Join(dir, "beta.kcd")))
				return []string{"kcd", "--config", cfg, "--input", alpha.KCD, "--output", filepath.Join(dir, "beta", "beta.hdr")}
			},
			wantCode: 0,
			validate: func(t *testing.T, dir string) {
				assert.FileExists(t, filepath.Join(dir, "beta.kcd"))
				assert.NoFileExists(t, filepath.Join(dir, "alpha.kcd"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			ctx := zerolog.New(zerolog.NewTestWriter(t)).WithContext(context.Background())

			stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
			code := run(ctx, tt.args(t, dir), stdout, stderr)

			assert.Equal(t, tt.wantCode, code, "stdout:\n%s\nstderr:\n%s", stdout.String(), stderr.String())
			if tt.contains != "" {
				assert.Contains(t, stdout.String()+stderr.String(), tt.contains)
			}
			if tt.validate != nil {
				tt.validate(t, dir)
			}
		})
	}
}

func TestRunWithBrokenConfig(t *testing.T) {
	color.NoColor = true

	dir := t.TempDir()
	bundletest.Write(t, filepath.Join(dir, ".kcdutil.yaml"), []byte("bogus_key: 1\n"))
	b := bundletest.WriteBundle(t, dir, "alpha", "cam1")
	t.Chdir(dir)

	tests := []struct {
		name     string
		args     []string
		wantCode int
		contains string
	}{
		{name: "help_command", args: []string{"help", "kcd"}, wantCode: 0, contains: "--input"},
		{name: "help_flag", args: []string{"kcd", "--help"}, wantCode: 0, contains: "--output"},
		{name: "version", args: []string{"version"}, wantCode: 0, contains: "kcdutil version info"},
		{name: "bundle_command", args: []string{"hdr", "--input", b.HDR, "--label", "beta"}, wantCode: 1, contains: "bogus_key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := zerolog.New(zerolog.NewTestWriter(t)).WithContext(context.Background())

			stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
			code := run(ctx, tt.args, stdout, stderr)

			assert.Equal(t, tt.wantCode, code, "stdout:\n%s\nstderr:\n%s", stdout.String(), stderr.String())
			assert.Contains(t, stdout.String()+stderr.String(), tt.contains)
		})
	}
	assert.NoFileExists(t, filepath.Join(dir, "alpha", "beta.hdr"))
}
