package operation

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/walteh/kcdutil/pkg/bundle"
	"github.com/walteh/kcdutil/pkg/fault"
)

// HDR plans writing a relabelled copy of input to <dir(input)>/<label>.hdr.
// The input is never modified. Running it again when the output already
// holds the expected bytes is a no-op.
//
// Video references of the new header are not checked: the videos are moved
// into place afterwards with the video command.
func (p *Planner) HDR(ctx context.Context, input, label string) (*Plan, error) {
	if err := expectKind(input, bundle.KindHDR); err != nil {
		return nil, err
	}

	rec, err := bundle.Load(bundle.KindHDR, input)
	if err != nil {
		return nil, err
	}
	next, err := rec.Relabel(label)
	if err != nil {
		return nil, err
	}
	dst := filepath.Join(filepath.Dir(rec.Ref.Path), label+bundle.KindHDR.Ext())
	next = next.Relocate(dst)

	want, err := os.ReadFile(rec.Ref.Path)
	if err != nil {
		return nil, fault.IO("read", rec.Ref.Path, err)
	}
	if err := next.Patch(want); err != nil {
		return nil, err
	}

	plan := newPlan("hdr", input)
	plan.Label = label

	have, err := os.ReadFile(dst)
	switch {
	case err == nil && bytes.Equal(have, want):
		plan.Note = fmt.Sprintf("%s is already up to date", dst)
		return plan, nil
	case err == nil && dst == rec.Ref.Path:
		return nil, &fault.AlreadyExistsError{Path: dst}
	case err != nil && !os.IsNotExist(err):
		return nil, fault.IO("read", dst, err)
	}

	plan.add(Step{
		Kind:        StepRewrite,
		Src:         rec.Ref.Path,
		Dst:         dst,
		FileKind:    bundle.KindHDR,
		Record:      next,
		Description: fmt.Sprintf("relabel %d video entries to %s", len(next.Bindings), label),
	})
	return plan, nil
}
