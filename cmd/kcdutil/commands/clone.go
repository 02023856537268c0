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

// NewCloneCmd creates the clone command
func NewCloneCmd(opts *opts.RootOpts) *cobra.Command {
	var src, label string

	cmd := &cobra.Command{
		Use:   "clone",
		Short: "Clone a whole bundle under a new label",
		Long: `Clone the bundle that src belongs to (its KCD, RAF, HDR and videos)
under a new label in the same directory. src may be the KCD or the HDR of
the bundle. The source bundle is never modified. Only copy mode is
supported.`,
		Example: "  kcdutil clone --src /data/a.kcd --label b",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			mode, err := opts.Mode(cmd)
			if err != nil {
				return errors.Errorf("parsing mode: %w", err)
			}

			plan, err := opts.Planner.Clone(ctx, src, label, mode)
			if err != nil {
				return errors.Errorf("planning clone: %w", err)
			}

			return opts.Execute(ctx, log.CommandOperation{
				Command: "clone",
				Source:  src,
				Label:   label,
				Mode:    string(mode),
			}, plan)
		},
	}

	cmd.Flags().StringVarP(&src, "src", "s", "", "KCD or HDR of the bundle to clone")
	cmd.Flags().StringVarP(&label, "label", "l", "", "label of the new bundle")
	cmd.Flags().StringP("mode", "m", "", "copy (move is rejected)")
	_ = cmd.MarkFlagRequired("src")
	_ = cmd.MarkFlagRequired("label")

	return cmd
}
