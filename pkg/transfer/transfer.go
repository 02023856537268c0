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

// Package transfer copies and moves bundle files and folders. Every transfer
// either completes or leaves the destination untouched, and returns a Receipt
// that can undo it.
package transfer

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/walteh/kcdutil/pkg/fault"
	"github.com/walteh/kcdutil/pkg/status"
	"gitlab.com/tozd/go/errors"
)

// 🚚 Mode selects whether a transfer keeps its source
type Mode string

const (
	ModeCopy Mode = "copy"
	ModeMove Mode = "move"
)

// ParseMode parses a --mode value. An empty string means copy.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeCopy:
		return ModeCopy, nil
	case ModeMove:
		return ModeMove, nil
	}
	return "", errors.Errorf("unknown mode %q (want copy or move)", s)
}

// 🧾 Action is what a transfer actually did on disk
type Action string

const (
	ActionNone          Action = "unchanged"
	ActionRenamed       Action = "renamed"
	ActionCopied        Action = "copied"
	ActionCopiedRemoved Action = "copied+removed"
)

// 🧾 Receipt records one completed transfer
type Receipt struct {
	Src    string
	Dst    string
	Action Action
	Dir    bool

	// Backup holds the previous destination when it was overwritten.
	Backup string
}

// Status maps the receipt onto the file status shown to the user.
func (r Receipt) Status() status.FileStatus {
	switch r.Action {
	case ActionRenamed, ActionCopiedRemoved:
		return status.StatusMoved
	case ActionCopied:
		return status.StatusCopied
	}
	return status.StatusUnchanged
}

// 📎 Pair is one source and destination handed to TransferAll
type Pair struct {
	Src string
	Dst string
}

// copyBufferSize bounds the memory used by a single copy.
const copyBufferSize = 1 << 20

// StageSuffix marks temporary files and folders written next to their
// destination before they are renamed into place.
const StageSuffix = ".kcdutil"

// ⚙️ Engine performs transfers
type Engine struct {
	// Overwrite allows replacing an existing destination.
	Overwrite bool
	// Ignore holds doublestar patterns, relative to the folder being copied,
	// for entries that are skipped when a folder is copied.
	Ignore []string
	// Reporter receives progress from TransferAll. Nil reports nothing.
	Reporter status.Reporter

	rename    func(oldpath, newpath string) error
	copy      func(src, dst string) error
	removeAll func(path string) error
}

// Option configures an Engine
type Option func(*Engine)

// WithOverwrite allows existing destinations to be replaced.
func WithOverwrite(overwrite bool) Option {
	return func(e *Engine) { e.Overwrite = overwrite }
}

// WithIgnore skips folder entries matching any of patterns.
func WithIgnore(patterns ...string) Option {
	return func(e *Engine) { e.Ignore = append(e.Ignore, patterns...) }
}

// WithReporter sends TransferAll progress to r.
func WithReporter(r status.Reporter) Option {
	return func(e *Engine) { e.Reporter = r }
}

// New creates an Engine backed by the local filesystem.
func New(opts ...Option) *Engine {
	e := &Engine{
		rename:    os.Rename,
		copy:      copyFileVerified,
		removeAll: os.RemoveAll,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// StageName returns a hidden, unique sibling path for staging writes to dst.
func StageName(dst string) string {
	return filepath.Join(filepath.Dir(dst), fmt.Sprintf(".%s.%s%s", filepath.Base(dst), uuid.NewString(), StageSuffix))
}

// Transfer copies or moves src (a file or a folder) to dst.
func (e *Engine) Transfer(ctx context.Context, src, dst string, mode Mode) (Receipt, error) {
	logger := zerolog.Ctx(ctx)
	src, dst = filepath.Clean(src), filepath.Clean(dst)

	info, err := os.Stat(src)
	if err != nil {
		return Receipt{}, fault.IO("stat", src, err)
	}
	receipt := Receipt{Src: src, Dst: dst, Dir: info.IsDir(), Action: ActionNone}
	if src == dst {
		logger.Debug().Str("path", src).Msg("source and destination are the same, nothing to transfer")
		return receipt, nil
	}

	if _, err := os.Lstat(dst); err == nil {
		if !e.Overwrite {
			return Receipt{}, &fault.AlreadyExistsError{Path: dst}
		}
		receipt.Backup = StageName(dst)
		if err := e.rename(dst, receipt.Backup); err != nil {
			return Receipt{}, fault.IO("backup", dst, err)
		}
		logger.Debug().Str("path", dst).Str("backup", receipt.Backup).Msg("moved existing destination aside")
	} else if !os.IsNotExist(err) {
		return Receipt{}, fault.IO("stat", dst, err)
	}

	if err := e.transfer(ctx, &receipt, info, mode); err != nil {
		if receipt.Backup != "" {
			if rerr := e.rename(receipt.Backup, dst); rerr != nil {
				logger.Error().Err(rerr).Str("path", dst).Msg("restoring overwritten destination")
			}
		}
		return Receipt{}, err
	}

	logger.Debug().
		Str("src", src).
		Str("dst", dst).
		Str("action", string(receipt.Action)).
		Msg("transfer complete")
	return receipt, nil
}

func (e *Engine) transfer(ctx context.Context, receipt *Receipt, info fs.FileInfo, mode Mode) error {
	if mode == ModeMove {
		err := e.rename(receipt.Src, receipt.Dst)
		if err == nil {
			receipt.Action = ActionRenamed
			return nil
		}
		if !crossDevice(err) {
			return fault.IO("rename", receipt.Src, err)
		}
		zerolog.Ctx(ctx).Debug().Err(err).Str("src", receipt.Src).Msg("rename crosses devices, falling back to copy")
	}

	// A move carries everything, like the rename it stands in for.
	if err := e.stage(ctx, receipt.Src, receipt.Dst, info, mode == ModeCopy); err != nil {
		return err
	}
	receipt.Action = ActionCopied

	if mode == ModeMove {
		if err := e.removeAll(receipt.Src); err != nil {
			return e.refill(ctx, receipt.Dst, receipt.Src, fault.IO("remove", receipt.Src, err))
		}
		receipt.Action = ActionCopiedRemoved
	}
	return nil
}

// refill puts back every entry of src that a failed removal already deleted,
// copying it from the verified copy at dst, and then drops dst. The copy is
// kept when src cannot be completed, so the data always exists in one place.
func (e *Engine) refill(ctx context.Context, dst, src string, cause error) error {
	logger := zerolog.Ctx(ctx)

	err := filepath.WalkDir(dst, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dst, path)
		if err != nil {
			return errors.Errorf("relative path of %s: %w", path, err)
		}
		target := filepath.Join(src, rel)
		if d.IsDir() {
			info, err := d.Info()
			if err != nil {
				return err
			}
			return os.MkdirAll(target, info.Mode().Perm()|0o700)
		}
		if _, err := os.Lstat(target); err == nil {
			return nil
		} else if !os.IsNotExist(err) {
			return err
		}
		logger.Debug().Str("path", target).Msg("restoring removed source entry")
		return e.copy(path, target)
	})
	if err != nil {
		logger.Error().Err(err).Str("src", src).Str("copy", dst).Msg("source is incomplete, keeping the copy")
		return errors.Errorf("%w (source could not be restored, complete copy kept at %s: %v)", cause, dst, err)
	}

	if err := os.RemoveAll(dst); err != nil {
		logger.Error().Err(err).Str("path", dst).Msg("removing copy after restoring source")
	}
	return cause
}

// stage copies src into a staging path next to dst and renames it into place.
// Folder entries matching the ignore patterns are skipped when skipIgnored
// is set.
func (e *Engine) stage(ctx context.Context, src, dst string, info fs.FileInfo, skipIgnored bool) error {
	tmp := StageName(dst)

	var err error
	if info.IsDir() {
		err = e.copyDir(ctx, src, tmp, skipIgnored)
	} else {
		err = e.copy(src, tmp)
	}
	if err != nil {
		_ = os.RemoveAll(tmp)
		return fault.IO("copy", src, err)
	}

	if err := os.Rename(tmp, dst); err != nil {
		_ = os.RemoveAll(tmp)
		return fault.IO("rename", tmp, err)
	}
	return nil
}

func (e *Engine) copyDir(ctx context.Context, src, dst string, skipIgnored bool) error {
	logger := zerolog.Ctx(ctx)
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return errors.Errorf("relative path of %s: %w", path, err)
		}
		if skipIgnored && rel != "." && e.Ignored(rel) {
			logger.Debug().Str("path", path).Msg("skipping ignored entry")
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		target := filepath.Join(dst, rel)
		if d.IsDir() {
			info, err := d.Info()
			if err != nil {
				return err
			}
			return os.MkdirAll(target, info.Mode().Perm()|0o700)
		}
		if !d.Type().IsRegular() {
			return errors.Errorf("%s: only regular files can be copied", path)
		}
		return e.copy(path, target)
	})
}

// Ignored reports whether rel (relative to a copied folder) matches an
// ignore pattern.
func (e *Engine) Ignored(rel string) bool {
	rel = filepath.ToSlash(rel)
	for _, pattern := range e.Ignore {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
		if ok, _ := doublestar.Match(pattern, filepath.Base(rel)); ok {
			return true
		}
	}
	return false
}

// TransferAll runs every transfer in order. If one fails the completed ones
// are undone and the error is returned.
func (e *Engine) TransferAll(ctx context.Context, pairs []Pair, mode Mode) ([]Receipt, error) {
	reporter := e.Reporter
	if reporter != nil {
		reporter.StartOperation(ctx, string(mode)+" videos", len(pairs))
		defer reporter.FinishOperation(ctx)
	}

	receipts := make([]Receipt, 0, len(pairs))
	for i, p := range pairs {
		r, err := e.Transfer(ctx, p.Src, p.Dst, mode)
		if err != nil {
			for j := len(receipts) - 1; j >= 0; j-- {
				if uerr := e.Undo(ctx, receipts[j]); uerr != nil {
					zerolog.Ctx(ctx).Error().Err(uerr).Str("path", receipts[j].Dst).Msg("undoing transfer")
				}
			}
			return nil, errors.Errorf("transferring %s: %w", p.Src, err)
		}
		receipts = append(receipts, r)
		if reporter != nil {
			reporter.UpdateProgress(ctx, i+1)
		}
	}
	return receipts, nil
}

// Undo reverses a completed transfer.
func (e *Engine) Undo(ctx context.Context, r Receipt) error {
	zerolog.Ctx(ctx).Debug().Str("src", r.Src).Str("dst", r.Dst).Str("action", string(r.Action)).Msg("undoing transfer")

	switch r.Action {
	case ActionRenamed:
		if err := e.rename(r.Dst, r.Src); err != nil {
			if !crossDevice(err) {
				return fault.IO("rename", r.Dst, err)
			}
			if err := e.restore(ctx, r.Dst, r.Src); err != nil {
				return err
			}
		}
	case ActionCopied:
		if err := os.RemoveAll(r.Dst); err != nil {
			return fault.IO("remove", r.Dst, err)
		}
	case ActionCopiedRemoved:
		if err := e.restore(ctx, r.Dst, r.Src); err != nil {
			return err
		}
	}

	if r.Backup != "" {
		if err := e.rename(r.Backup, r.Dst); err != nil {
			return fault.IO("restore", r.Dst, err)
		}
	}
	return nil
}

// restore copies from back to to and then removes from.
func (e *Engine) restore(ctx context.Context, from, to string) error {
	info, err := os.Stat(from)
	if err != nil {
		return fault.IO("stat", from, err)
	}
	if err := e.stage(ctx, from, to, info, false); err != nil {
		return err
	}
	if err := os.RemoveAll(from); err != nil {
		return fault.IO("remove", from, err)
	}
	return nil
}

// Finalize drops the backup of an overwritten destination.
func (e *Engine) Finalize(ctx context.Context, r Receipt) error {
	if r.Backup == "" {
		return nil
	}
	if err := os.RemoveAll(r.Backup); err != nil {
		return fault.IO("remove", r.Backup, err)
	}
	return nil
}

func crossDevice(err error) bool {
	var le *os.LinkError
	return errors.As(err, &le) && errors.Is(le.Err, syscall.EXDEV)
}

// copyFileVerified streams src into a new file at dst and checks size and
// SHA-256 of what landed on disk. dst is removed on any failure.
func copyFileVerified(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return errors.Errorf("opening source file: %w", err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return errors.Errorf("stat source file: %w", err)
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return errors.Errorf("creating destination file: %w", err)
	}
	defer func() {
		_ = out.Close()
		if err != nil {
			_ = os.Remove(dst)
		}
	}()

	srcHasher := sha256.New()
	buf := make([]byte, copyBufferSize)
	written, err := io.CopyBuffer(out, io.TeeReader(in, srcHasher), buf)
	if err != nil {
		return errors.Errorf("copying file content: %w", err)
	}
	if err := out.Sync(); err != nil {
		return errors.Errorf("syncing destination file: %w", err)
	}
	if err := out.Close(); err != nil {
		return errors.Errorf("closing destination file: %w", err)
	}

	if written != info.Size() {
		return errors.Errorf("copy size mismatch: source %d bytes, copied %d bytes", info.Size(), written)
	}

	sum, err := fileSum(dst, buf)
	if err != nil {
		return err
	}
	if !bytes.Equal(srcHasher.Sum(nil), sum) {
		return errors.Errorf("copy hash mismatch: %s corrupted during copy", dst)
	}
	return nil
}

func fileSum(path string, buf []byte) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Errorf("opening copied file: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return nil, errors.Errorf("hashing copied file: %w", err)
	}
	return h.Sum(nil), nil
}
