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

package commands

import (
	"github.com/spf13/cobra"
	"github.com/walteh/kcdutil/cmd/kcdutil/opts"
	"github.com/walteh/kcdutil/pkg/log"
	"gitlab.com/tozd/go/errors"
)

// NewKCDCmd creates the kcd command
func NewKCDCmd(opts *opts.RootOpts) *cobra.Command {
	var input, output string

	cmd := &cobra.Command{
		Use:   "kcd",
		Short: "Copy or move a KCD file and point it at the HDR of another label",
		Long: `Write <label>.kcd next to the input KCD, where the label is taken from
the name of the output HDR. The HDR reference inside the new KCD is
rewritten to that header, which must already exist.`,
		Example: "  kcdutil kcd --input /data/a.kcd --output /data/b/b.hdr --mode copy",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			mode, err := opts.Mode(cmd)
			if err != nil {
				return errors.Errorf("parsing mode: %w", err)
			}

			plan, err := opts.Planner.KCD(ctx, input, output, mode)
			if err != nil {
				return errors.Errorf("planning kcd: %w", err)
			}

			return opts.Execute(ctx, log.CommandOperation{
				Command: "kcd",
				Source:  input,
				Label:   plan.Label,
				Mode:    string(mode),
			}, plan)
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "KCD file to copy or move")
	cmd.Flags().StringVarP(&output, "output", "o", "", "HDR the new KCD should reference")
	cmd.Flags().StringP("mode", "m", "", "copy or move (default from config)")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}
