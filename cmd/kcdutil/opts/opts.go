package opts

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/walteh/kcdutil/pkg/config"
	"github.com/walteh/kcdutil/pkg/log"
	"github.com/walteh/kcdutil/pkg/operation"
	"github.com/walteh/kcdutil/pkg/transfer"
	"gitlab.com/tozd/go/errors"
)

// RootOpts contains shared options used by all commands
type RootOpts struct {
	Config  *config.Config
	Engine  *transfer.Engine
	Planner *operation.Planner
	Runner  *operation.Runner
	Logger  *log.Logger
	DryRun  bool
}

// Mode returns the --mode flag of cmd, or the configured default when the
// flag was not given.
func (o *RootOpts) Mode(cmd *cobra.Command) (transfer.Mode, error) {
	value := o.Config.Mode
	if cmd.Flags().Changed("mode") {
		flag, err := cmd.Flags().GetString("mode")
		if err != nil {
			return "", errors.Errorf("reading --mode: %w", err)
		}
		value = flag
	}
	return transfer.ParseMode(value)
}

// Execute logs the command header, runs plan and reports the outcome.
func (o *RootOpts) Execute(ctx context.Context, op log.CommandOperation, plan *operation.Plan) error {
	op.DryRun = o.DryRun
	o.Logger.StartCommand(ctx, op)
	if err := o.Runner.Run(ctx, plan); err != nil {
		return err
	}
	if !o.DryRun && !plan.Empty() {
		o.Logger.Successf("%s complete (%d steps, %d files)", op.Command, len(plan.Steps), len(o.Logger.Operations()))
	}
	return nil
}
