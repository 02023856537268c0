package operation

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/walteh/kcdutil/pkg/bundle"
	"github.com/walteh/kcdutil/pkg/transfer"
)

// KCD plans pointing the container at input to the HDR named by output. The
// result is <dir(input)>/<stem(output)>.kcd; with move mode the input is
// removed once everything else succeeded.
func (p *Planner) KCD(ctx context.Context, input, output string, mode transfer.Mode) (*Plan, error) {
	if err := expectKind(input, bundle.KindKCD); err != nil {
		return nil, err
	}
	if err := expectKind(output, bundle.KindHDR); err != nil {
		return nil, err
	}
	label := bundle.Stem(output)
	if err := bundle.ValidateLabel(label); err != nil {
		return nil, err
	}

	rec, err := bundle.Load(bundle.KindKCD, input)
	if err != nil {
		return nil, err
	}
	ref := bundle.HDRReference(label)
	next, err := rec.Rebind(bundle.RoleHDR, ref)
	if err != nil {
		return nil, err
	}

	dst := filepath.Join(filepath.Dir(rec.Ref.Path), label+bundle.KindKCD.Ext())
	next = next.Relocate(dst)

	if want := (bundle.Layout{Dir: filepath.Dir(dst), Label: label}).HDR(); filepath.Clean(output) != want {
		zerolog.Ctx(ctx).Warn().
			Str("output", output).
			Str("resolved", want).
			Msg("the container will reference the hdr in its standard location, not the given path")
	}

	plan := newPlan("kcd", input)
	plan.Label = label
	plan.Mode = mode
	plan.Graph.Add(next)

	if dst == rec.Ref.Path && !next.Dirty() {
		plan.Note = fmt.Sprintf("%s already references %s", dst, ref)
		return plan, nil
	}

	plan.add(Step{
		Kind:        StepRewrite,
		Src:         rec.Ref.Path,
		Dst:         dst,
		FileKind:    bundle.KindKCD,
		Record:      next,
		Description: "reference " + ref,
	})
	if mode == transfer.ModeMove && dst != rec.Ref.Path {
		plan.add(Step{
			Kind:        StepRemove,
			Dst:         rec.Ref.Path,
			FileKind:    bundle.KindKCD,
			Description: "remove the original container",
		})
	}
	return plan, nil
}
