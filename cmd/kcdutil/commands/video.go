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

// NewVideoCmd creates the video command
func NewVideoCmd(opts *opts.RootOpts) *cobra.Command {
	var src, dst string

	cmd := &cobra.Command{
		Use:   "video",
		Short: "Copy or move the videos of one HDR to the folder of another",
		Long: `Transfer every video listed by the source HDR to the folder of the
destination HDR, pairing videos by position. Both headers must list the same
number of videos. The destination HDR is rewritten to reference the
transferred files.`,
		Example: "  kcdutil video --src /data/a/a.hdr --dst /data/b/b.hdr --mode move",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			mode, err := opts.Mode(cmd)
			if err != nil {
				return errors.Errorf("parsing mode: %w", err)
			}

			plan, err := opts.Planner.Video(ctx, src, dst, mode)
			if err != nil {
				return errors.Errorf("planning video: %w", err)
			}

			return opts.Execute(ctx, log.CommandOperation{
				Command: "video",
				Source:  src,
				Label:   plan.Label,
				Mode:    string(mode),
			}, plan)
		},
	}

	cmd.Flags().StringVarP(&src, "src", "s", "", "HDR whose videos are transferred")
	cmd.Flags().StringVarP(&dst, "dst", "t", "", "HDR of the destination bundle")
	cmd.Flags().StringP("mode", "m", "", "copy or move (default from config)")
	_ = cmd.MarkFlagRequired("src")
	_ = cmd.MarkFlagRequired("dst")

	return cmd
}
