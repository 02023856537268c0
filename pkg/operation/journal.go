package operation

import (
	"context"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

type action struct {
	desc string
	fn   func(ctx context.Context) error
}

// 📒 Journal records how to undo each executed step and what to clean up
// once every step succeeded
type Journal struct {
	undo     []action
	finalize []action
}

// OnRollback registers fn to run, in reverse order, if the plan fails.
func (j *Journal) OnRollback(desc string, fn func(ctx context.Context) error) {
	j.undo = append(j.undo, action{desc: desc, fn: fn})
}

// OnCommit registers fn to run, in order, once the plan succeeded.
func (j *Journal) OnCommit(desc string, fn func(ctx context.Context) error) {
	j.finalize = append(j.finalize, action{desc: desc, fn: fn})
}

// Rollback runs every undo action newest first. It keeps going after a
// failure and returns the first error.
func (j *Journal) Rollback(ctx context.Context) error {
	logger := zerolog.Ctx(ctx)
	var first error
	for i := len(j.undo) - 1; i >= 0; i-- {
		a := j.undo[i]
		logger.Debug().Str("action", a.desc).Msg("rolling back")
		if err := a.fn(ctx); err != nil {
			logger.Error().Err(err).Str("action", a.desc).Msg("rollback step failed")
			if first == nil {
				first = errors.Errorf("%s: %w", a.desc, err)
			}
		}
	}
	j.undo = nil
	j.finalize = nil
	return first
}

// Commit runs every finalizer in order. It keeps going after a failure and
// returns the first error.
func (j *Journal) Commit(ctx context.Context) error {
	logger := zerolog.Ctx(ctx)
	var first error
	for _, a := range j.finalize {
		logger.Debug().Str("action", a.desc).Msg("finalizing")
		if err := a.fn(ctx); err != nil {
			logger.Error().Err(err).Str("action", a.desc).Msg("finalizer failed")
			if first == nil {
				first = errors.Errorf("%s: %w", a.desc, err)
			}
		}
	}
	j.undo = nil
	j.finalize = nil
	return first
}

// Pending returns the number of registered undo actions.
func (j *Journal) Pending() int {
	return len(j.undo)
}
