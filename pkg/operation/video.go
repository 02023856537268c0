package operation

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/walteh/kcdutil/pkg/bundle"
	"github.com/walteh/kcdutil/pkg/fault"
	"github.com/walteh/kcdutil/pkg/text"
	"github.com/walteh/kcdutil/pkg/transfer"
)

// Video plans transferring the videos listed by src into the folder of dst
// and pointing dst at them. Block i of src feeds block i of dst, so both
// headers must list the same number of videos. With move mode src is retired
// and its folder removed once empty.
func (p *Planner) Video(ctx context.Context, src, dst string, mode transfer.Mode) (*Plan, error) {
	if err := expectKind(src, bundle.KindHDR); err != nil {
		return nil, err
	}
	if err := expectKind(dst, bundle.KindHDR); err != nil {
		return nil, err
	}

	srcRec, err := bundle.Load(bundle.KindHDR, src)
	if err != nil {
		return nil, err
	}
	dstRec, err := bundle.Load(bundle.KindHDR, dst)
	if err != nil {
		return nil, err
	}
	if len(srcRec.Bindings) != len(dstRec.Bindings) {
		return nil, &fault.FormatError{
			Path:   dstRec.Ref.Path,
			Field:  "count",
			Reason: fmt.Sprintf("lists %d videos but %s lists %d", len(dstRec.Bindings), srcRec.Ref.Path, len(srcRec.Bindings)),
		}
	}

	label := bundle.Stem(dst)
	folder := filepath.Dir(dstRec.Ref.Path)
	if filepath.Base(folder) != label {
		zerolog.Ctx(ctx).Warn().Str("folder", folder).Str("label", label).Msg("video folder is not named after its header")
	}

	relabelled, err := dstRec.Relabel(label)
	if err != nil {
		return nil, err
	}

	sources := map[string]bundle.Edge{}
	for _, e := range srcRec.Edges() {
		sources[e.Role] = e
	}

	plan := newPlan("video", src)
	plan.Label = label
	plan.Mode = mode

	next := relabelled
	listed := map[string]bool{}
	for _, b := range relabelled.Bindings {
		from, ok := sources[b.Role]
		if !ok {
			continue
		}
		value := b.Value
		if value == "" {
			carried, err := text.Relabel(from.Value, label)
			if err != nil {
				return nil, err
			}
			value = carried.Modified
			if next, err = next.Rebind(b.Role, value); err != nil {
				return nil, err
			}
		}
		listed[from.Target] = true

		target := filepath.Join(folder, text.LastComponent(value))
		if target == from.Target {
			continue
		}
		plan.add(Step{
			Kind:        StepTransfer,
			Src:         from.Target,
			Dst:         target,
			Mode:        mode,
			FileKind:    bundle.KindVideo,
			Description: fmt.Sprintf("%s %s", mode, b.Role),
		})
	}

	srcFolder := filepath.Dir(srcRec.Ref.Path)
	if srcFolder != folder {
		extra, err := p.unlisted(srcFolder, listed)
		if err != nil {
			return nil, err
		}
		for _, path := range extra {
			plan.add(Step{
				Kind:        StepTransfer,
				Src:         path,
				Dst:         filepath.Join(folder, filepath.Base(path)),
				Mode:        mode,
				FileKind:    bundle.Detect(path),
				Description: fmt.Sprintf("%s unlisted entry", mode),
			})
		}
	}

	plan.Graph.Add(next)
	if next.Dirty() {
		plan.add(Step{
			Kind:        StepRewrite,
			Src:         next.Ref.Path,
			Dst:         next.Ref.Path,
			FileKind:    bundle.KindHDR,
			Record:      next,
			Description: "reference videos in " + label,
		})
	}

	if mode == transfer.ModeMove && srcRec.Ref.Path != dstRec.Ref.Path {
		plan.add(Step{
			Kind:        StepRemove,
			Dst:         srcRec.Ref.Path,
			FileKind:    bundle.KindHDR,
			Description: "retire the source header",
		})
		if srcFolder != folder {
			plan.add(Step{
				Kind:        StepRemove,
				Dst:         srcFolder,
				FileKind:    bundle.KindVideo,
				IfEmpty:     true,
				Description: "remove the source folder if empty",
			})
		}
	}

	if plan.Empty() {
		plan.Note = fmt.Sprintf("%s already references its videos", dstRec.Ref.Path)
	}
	return plan, nil
}
