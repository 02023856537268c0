package status

import (
	"context"
	"io"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
)

// 📶 BarReporter draws a pterm progress bar
type BarReporter struct {
	out     io.Writer
	bar     *pterm.ProgressbarPrinter
	current int
}

// NewBarReporter creates a progress bar reporter writing to out
func NewBarReporter(out io.Writer) *BarReporter {
	return &BarReporter{out: out}
}

func (r *BarReporter) StartOperation(ctx context.Context, title string, total int) {
	bar, err := pterm.DefaultProgressbar.
		WithTotal(total).
		WithTitle(title).
		WithWriter(r.out).
		WithRemoveWhenDone(false).
		Start()
	if err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Msg("starting progress bar")
		return
	}
	r.bar = bar
	r.current = 0
}

func (r *BarReporter) UpdateProgress(ctx context.Context, processed int) {
	if r.bar == nil || processed <= r.current {
		return
	}
	r.bar.Add(processed - r.current)
	r.current = processed
}

func (r *BarReporter) FinishOperation(ctx context.Context) {
	if r.bar == nil {
		return
	}
	if _, err := r.bar.Stop(); err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Msg("stopping progress bar")
	}
	r.bar = nil
}
