package operation

import (
	"context"
	"fmt"

	"github.com/walteh/kcdutil/pkg/bundle"
)

// RAF plans rewriting the KCD reference of input in place. The KCD must
// exist; the graph check rejects the plan before anything is written.
func (p *Planner) RAF(ctx context.Context, input, kcd string) (*Plan, error) {
	if err := expectKind(input, bundle.KindRAF); err != nil {
		return nil, err
	}
	if err := expectKind(kcd, bundle.KindKCD); err != nil {
		return nil, err
	}

	rec, err := bundle.Load(bundle.KindRAF, input)
	if err != nil {
		return nil, err
	}
	ref, err := bundle.KCDReference(kcd)
	if err != nil {
		return nil, err
	}
	next, err := rec.Rebind(bundle.RoleKCD, ref)
	if err != nil {
		return nil, err
	}

	plan := newPlan("raf", input)
	plan.Label = bundle.Stem(kcd)
	plan.Graph.Add(next)

	if !next.Dirty() {
		plan.Note = fmt.Sprintf("%s already references %s", rec.Ref.Path, ref)
		return plan, nil
	}

	plan.add(Step{
		Kind:        StepRewrite,
		Src:         rec.Ref.Path,
		Dst:         rec.Ref.Path,
		FileKind:    bundle.KindRAF,
		Record:      next,
		Description: "reference " + ref,
	})
	return plan, nil
}
