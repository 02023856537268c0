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
	"context"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/walteh/kcdutil/pkg/bundle"
	"github.com/walteh/kcdutil/pkg/fault"
	"github.com/walteh/kcdutil/pkg/log"
	"github.com/walteh/kcdutil/pkg/status"
	"github.com/walteh/kcdutil/pkg/transfer"
	"gitlab.com/tozd/go/errors"
)

// 🔧 Options contains configuration for the runner
type Options struct {
	// Engine performs every file transfer
	Engine *transfer.Engine
	// DryRun prints the plan instead of executing it
	DryRun bool
	// HistoryFile receives one entry per plan when set
	HistoryFile string
	// Out receives the dry-run table
	Out io.Writer
}

// 🏃 Runner validates and executes plans
type Runner struct {
	engine      *transfer.Engine
	dryRun      bool
	historyFile string
	out         io.Writer

	link func(oldname, newname string) error
}

// 🏗️ NewRunner creates a new runner
func NewRunner(opts Options) (*Runner, error) {
	if opts.Engine == nil {
		return nil, errors.Errorf("transfer engine is required")
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	return &Runner{
		engine:      opts.Engine,
		dryRun:      opts.DryRun,
		historyFile: opts.HistoryFile,
		out:         out,
		link:        os.Link,
	}, nil
}

// 🏃 Run validates plan and executes it. A failed step rolls back every
// earlier step before the error is returned.
func (r *Runner) Run(ctx context.Context, plan *Plan) error {
	logger := zerolog.Ctx(ctx)
	if plan.ID == "" {
		plan.ID = uuid.NewString()
	}
	plan.Overwrite = r.engine.Overwrite

	logger.Debug().
		Str("id", plan.ID).
		Str("command", plan.Command).
		Int("steps", len(plan.Steps)).
		Msg("validating plan")

	if err := plan.Validate(); err != nil {
		r.record(ctx, plan, PhaseRejected, err)
		return errors.Errorf("validating %s plan: %w", plan.Command, err)
	}

	if r.dryRun {
		fmt.Fprintln(r.out, plan.Table())
		log.FromContext(ctx).Infof("dry run: %d steps planned, nothing was changed", len(plan.Steps))
		r.record(ctx, plan, PhasePlan, nil)
		return nil
	}

	if plan.Empty() {
		if plan.Note != "" {
			log.FromContext(ctx).Info(plan.Note)
		}
		return nil
	}

	err := r.execute(ctx, plan)
	if err != nil {
		r.record(ctx, plan, PhaseFailed, err)
		return err
	}
	r.record(ctx, plan, PhaseApplied, nil)
	return nil
}

func (r *Runner) record(ctx context.Context, plan *Plan, phase string, cause error) {
	if r.historyFile == "" {
		return
	}
	if err := AppendHistory(r.historyFile, plan, phase, cause); err != nil {
		log.FromContext(ctx).Warningf("could not append to history %s: %v", r.historyFile, err)
	}
}

func (r *Runner) execute(ctx context.Context, plan *Plan) error {
	j := &Journal{}

	for i := 0; i < len(plan.Steps); {
		s := plan.Steps[i]

		if s.Kind == StepTransfer {
			n := i + 1
			for n < len(plan.Steps) && plan.Steps[n].Kind == StepTransfer && plan.Steps[n].Mode == s.Mode {
				n++
			}
			if err := r.transfer(ctx, j, plan.Steps[i:n]); err != nil {
				return r.abort(ctx, j, errors.Errorf("steps %d-%d (%s videos): %w", i+1, n, s.Mode, err))
			}
			i = n
			continue
		}

		var err error
		switch s.Kind {
		case StepMkdir:
			err = r.mkdir(ctx, j, s)
		case StepRewrite:
			err = r.rewrite(ctx, j, s)
		case StepRemove:
			r.remove(ctx, j, s)
		default:
			err = errors.Errorf("unknown step kind %q", s.Kind)
		}
		if err != nil {
			return r.abort(ctx, j, errors.Errorf("step %d (%s %s): %w", i+1, s.Kind, s.Dst, err))
		}
		i++
	}

	if err := j.Commit(ctx); err != nil {
		return fault.IO("clean up after", plan.Source, err)
	}
	return nil
}

func (r *Runner) abort(ctx context.Context, j *Journal, cause error) error {
	zerolog.Ctx(ctx).Debug().Err(cause).Int("undo", j.Pending()).Msg("plan failed, rolling back")
	if err := j.Rollback(ctx); err != nil {
		log.FromContext(ctx).Failure(errors.Errorf("rollback incomplete: %w", err))
	}
	return cause
}

func (r *Runner) transfer(ctx context.Context, j *Journal, steps []Step) error {
	pairs := make([]transfer.Pair, 0, len(steps))
	for _, s := range steps {
		pairs = append(pairs, transfer.Pair{Src: s.Src, Dst: s.Dst})
	}

	receipts, err := r.engine.TransferAll(ctx, pairs, steps[0].Mode)
	if err != nil {
		return err
	}

	for i, receipt := range receipts {
		kind := steps[i].FileKind
		j.OnRollback("undo transfer to "+receipt.Dst, func(ctx context.Context) error {
			if err := r.engine.Undo(ctx, receipt); err != nil {
				return err
			}
			logFile(ctx, receipt.Src, kind, status.StatusRestored)
			return nil
		})
		j.OnCommit("finalize transfer to "+receipt.Dst, func(ctx context.Context) error {
			return r.engine.Finalize(ctx, receipt)
		})
		logFile(ctx, receipt.Dst, kind, receipt.Status())
	}
	return nil
}

func (r *Runner) mkdir(ctx context.Context, j *Journal, s Step) error {
	if info, err := os.Stat(s.Dst); err == nil && info.IsDir() {
		logFile(ctx, s.Dst, s.FileKind, status.StatusUnchanged)
		return nil
	}
	if err := os.Mkdir(s.Dst, 0o755); err != nil {
		return fault.IO("mkdir", s.Dst, err)
	}
	j.OnRollback("remove folder "+s.Dst, func(ctx context.Context) error {
		return os.Remove(s.Dst)
	})
	zerolog.Ctx(ctx).Debug().Str("path", s.Dst).Msg("created folder")
	return nil
}

// rewrite stages a copy of s.Src next to s.Dst, applies the field edits to
// the copy and renames it over s.Dst. An existing s.Dst is kept as a backup
// until the plan commits.
func (r *Runner) rewrite(ctx context.Context, j *Journal, s Step) error {
	tmp := transfer.StageName(s.Dst)
	if _, err := r.engine.Transfer(ctx, s.Src, tmp, transfer.ModeCopy); err != nil {
		return err
	}
	if err := s.Record.Apply(tmp); err != nil {
		_ = os.Remove(tmp)
		return err
	}

	if _, err := os.Lstat(s.Dst); err != nil {
		if !os.IsNotExist(err) {
			_ = os.Remove(tmp)
			return fault.IO("stat", s.Dst, err)
		}
		if err := os.Rename(tmp, s.Dst); err != nil {
			_ = os.Remove(tmp)
			return fault.IO("rename", tmp, err)
		}
		j.OnRollback("remove "+s.Dst, func(ctx context.Context) error {
			if err := os.Remove(s.Dst); err != nil {
				return err
			}
			logFile(ctx, s.Dst, s.FileKind, status.StatusRemoved)
			return nil
		})
		logFile(ctx, s.Dst, s.FileKind, status.StatusCreated)
		return nil
	}

	backup := transfer.StageName(s.Dst)
	if err := r.link(s.Dst, backup); err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Str("path", s.Dst).Msg("hard link failed, copying backup")
		if _, err := r.engine.Transfer(ctx, s.Dst, backup, transfer.ModeCopy); err != nil {
			_ = os.Remove(tmp)
			return err
		}
	}
	if err := os.Rename(tmp, s.Dst); err != nil {
		_ = os.Remove(tmp)
		_ = os.Remove(backup)
		return fault.IO("rename", tmp, err)
	}

	j.OnRollback("restore "+s.Dst, func(ctx context.Context) error {
		if err := os.Rename(backup, s.Dst); err != nil {
			return err
		}
		logFile(ctx, s.Dst, s.FileKind, status.StatusRestored)
		return nil
	})
	j.OnCommit("drop backup of "+s.Dst, func(ctx context.Context) error {
		return os.Remove(backup)
	})
	logFile(ctx, s.Dst, s.FileKind, status.StatusRewritten)
	return nil
}

// remove defers deletion until every other step succeeded.
func (r *Runner) remove(ctx context.Context, j *Journal, s Step) {
	j.OnCommit("remove "+s.Dst, func(ctx context.Context) error {
		if s.IfEmpty {
			entries, err := os.ReadDir(s.Dst)
			if os.IsNotExist(err) {
				return nil
			}
			if err != nil {
				return err
			}
			if len(entries) > 0 {
				zerolog.Ctx(ctx).Debug().Str("path", s.Dst).Int("entries", len(entries)).Msg("folder not empty, keeping it")
				return nil
			}
		}
		if err := os.Remove(s.Dst); err != nil && !os.IsNotExist(err) {
			return err
		}
		logFile(ctx, s.Dst, s.FileKind, status.StatusRemoved)
		return nil
	})
}

func logFile(ctx context.Context, path string, kind bundle.Kind, st status.FileStatus) {
	log.FromContext(ctx).LogFileOperation(ctx, log.FileOperation{
		Path:   path,
		Kind:   kind.String(),
		Status: st,
	})
}
