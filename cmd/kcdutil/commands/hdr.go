package commands

import (
	"github.com/spf13/cobra"
	"github.com/walteh/kcdutil/cmd/kcdutil/opts"
	"github.com/walteh/kcdutil/pkg/log"
	"gitlab.com/tozd/go/errors"
)

// NewHDRCmd creates the hdr command
func NewHDRCmd(opts *opts.RootOpts) *cobra.Command {
	var input, label string

	cmd := &cobra.Command{
		Use:   "hdr",
		Short: "Write a relabelled copy of an HDR file",
		Long: `Write a copy of an HDR file next to the input, named after the new
label. Every video path in the copy is relocated into the folder of the
new label. Running the command twice with the same label is a no-op.`,
		Example: "  kcdutil hdr --input /data/a/a.hdr --label b",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			plan, err := opts.Planner.HDR(ctx, input, label)
			if err != nil {
				return errors.Errorf("planning hdr: %w", err)
			}

			return opts.Execute(ctx, log.CommandOperation{
				Command: "hdr",
				Source:  input,
				Label:   label,
			}, plan)
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "HDR file to relabel")
	cmd.Flags().StringVarP(&label, "label", "l", "", "new label")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("label")

	return cmd
}
