package commands

import (
	"github.com/spf13/cobra"
	"github.com/walteh/kcdutil/cmd/kcdutil/opts"
	"github.com/walteh/kcdutil/pkg/log"
	"gitlab.com/tozd/go/errors"
)

// NewRAFCmd creates the raf command
func NewRAFCmd(opts *opts.RootOpts) *cobra.Command {
	var input, kcd string

	cmd := &cobra.Command{
		Use:   "raf",
		Short: "Point a RAF file at a KCD file",
		Long: `Rewrite the KCD reference stored inside a RAF file in place. The KCD
file must exist; its absolute path is stored with backslash separators.`,
		Example: "  kcdutil raf --input /data/b.raf --kcd /data/b.kcd",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			plan, err := opts.Planner.RAF(ctx, input, kcd)
			if err != nil {
				return errors.Errorf("planning raf: %w", err)
			}

			return opts.Execute(ctx, log.CommandOperation{
				Command: "raf",
				Source:  input,
				Label:   plan.Label,
			}, plan)
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "RAF file to rewrite")
	cmd.Flags().StringVarP(&kcd, "kcd", "k", "", "KCD file the RAF should reference")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("kcd")

	return cmd
}
