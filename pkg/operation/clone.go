package operation

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/walteh/kcdutil/pkg/bundle"
	"github.com/walteh/kcdutil/pkg/fault"
	"github.com/walteh/kcdutil/pkg/text"
	"github.com/walteh/kcdutil/pkg/transfer"
	"gitlab.com/tozd/go/errors"
)

// Clone plans a full copy of the bundle src belongs to under label: a new
// folder with the videos and header, a new container and, when the source has
// one, a new raw data file. Every reference of the new files points inside the
// new bundle. The source bundle is left as it is.
func (p *Planner) Clone(ctx context.Context, src, label string, mode transfer.Mode) (*Plan, error) {
	if mode == transfer.ModeMove {
		return nil, errors.Errorf("clone always keeps the source bundle; --mode move is not supported")
	}
	if err := bundle.ValidateLabel(label); err != nil {
		return nil, err
	}

	var kcdRec, hdrRec bundle.Record
	var err error
	switch bundle.Detect(src) {
	case bundle.KindHDR:
		if hdrRec, err = bundle.Load(bundle.KindHDR, src); err != nil {
			return nil, err
		}
		if kcdRec, err = bundle.Load(bundle.KindKCD, bundle.LayoutOf(src).KCD()); err != nil {
			return nil, err
		}
	case bundle.KindKCD:
		if kcdRec, err = bundle.Load(bundle.KindKCD, src); err != nil {
			return nil, err
		}
		edges := kcdRec.Edges()
		if len(edges) == 0 {
			return nil, &fault.FormatError{Path: kcdRec.Ref.Path, Field: bundle.RoleHDR, Reason: "container does not reference a header"}
		}
		if hdrRec, err = bundle.Load(bundle.KindHDR, edges[0].Target); err != nil {
			return nil, err
		}
	default:
		return nil, &fault.FormatError{Path: src, Reason: "clone needs a .hdr or .kcd file"}
	}

	from := bundle.LayoutOf(kcdRec.Ref.Path)
	to := bundle.Layout{Dir: from.Dir, Label: label}

	plan := newPlan("clone", src)
	plan.Label = label
	plan.Closure = label

	plan.add(Step{Kind: StepMkdir, Dst: to.Folder(), Description: "create the video folder"})

	newHDR, err := hdrRec.Relabel(label)
	if err != nil {
		return nil, err
	}
	newHDR = newHDR.Relocate(to.HDR())

	listed := map[string]bool{}
	for _, e := range hdrRec.Edges() {
		value, _ := newHDR.Value(e.Role)
		listed[e.Target] = true
		plan.add(Step{
			Kind:        StepTransfer,
			Src:         e.Target,
			Dst:         filepath.Join(to.Folder(), text.LastComponent(value)),
			Mode:        transfer.ModeCopy,
			FileKind:    bundle.KindVideo,
			Description: "copy " + e.Role,
		})
	}

	extra, err := p.unlisted(filepath.Dir(hdrRec.Ref.Path), listed)
	if err != nil {
		return nil, err
	}
	for _, path := range extra {
		plan.add(Step{
			Kind:        StepTransfer,
			Src:         path,
			Dst:         filepath.Join(to.Folder(), filepath.Base(path)),
			Mode:        transfer.ModeCopy,
			FileKind:    bundle.Detect(path),
			Description: "copy unlisted entry",
		})
	}

	plan.add(Step{
		Kind:        StepRewrite,
		Src:         hdrRec.Ref.Path,
		Dst:         to.HDR(),
		FileKind:    bundle.KindHDR,
		Record:      newHDR,
		Description: fmt.Sprintf("relabel %d video entries", len(newHDR.Bindings)),
	})
	plan.Graph.Add(newHDR)

	ref := bundle.HDRReference(label)
	newKCD, err := kcdRec.Rebind(bundle.RoleHDR, ref)
	if err != nil {
		return nil, err
	}
	newKCD = newKCD.Relocate(to.KCD())
	plan.add(Step{
		Kind:        StepRewrite,
		Src:         kcdRec.Ref.Path,
		Dst:         to.KCD(),
		FileKind:    bundle.KindKCD,
		Record:      newKCD,
		Description: "reference " + ref,
	})
	plan.Graph.Add(newKCD)

	if _, err := os.Stat(from.RAF()); err == nil {
		rafRec, err := bundle.Load(bundle.KindRAF, from.RAF())
		if err != nil {
			return nil, err
		}
		kcdRef, err := bundle.KCDReference(to.KCD())
		if err != nil {
			return nil, err
		}
		newRAF, err := rafRec.Rebind(bundle.RoleKCD, kcdRef)
		if err != nil {
			return nil, err
		}
		newRAF = newRAF.Relocate(to.RAF())
		plan.add(Step{
			Kind:        StepRewrite,
			Src:         rafRec.Ref.Path,
			Dst:         to.RAF(),
			FileKind:    bundle.KindRAF,
			Record:      newRAF,
			Description: "reference " + kcdRef,
		})
		plan.Graph.Add(newRAF)
	} else if !os.IsNotExist(err) {
		return nil, fault.IO("stat", from.RAF(), err)
	}

	return plan, nil
}
