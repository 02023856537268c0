package bundle

import (
	"path/filepath"
	"sort"

	"github.com/walteh/kcdutil/pkg/fault"
	"github.com/walteh/kcdutil/pkg/text"
	"gitlab.com/tozd/go/errors"
)

// 🕸️ Graph is the set of records one command reads or produces. Edges are
// resolved by path lookup when the graph is validated.
type Graph struct {
	records map[string]Record
}

// NewGraph builds a graph from records. Later records replace earlier ones
// with the same path.
func NewGraph(records ...Record) *Graph {
	g := &Graph{records: make(map[string]Record, len(records))}
	for _, r := range records {
		g.Add(r)
	}
	return g
}

// Add inserts or replaces the record at r.Ref.Path.
func (g *Graph) Add(r Record) {
	g.records[filepath.Clean(r.Ref.Path)] = r
}

// Records returns the records ordered by path.
func (g *Graph) Records() []Record {
	keys := make([]string, 0, len(g.records))
	for k := range g.records {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]Record, 0, len(keys))
	for _, k := range keys {
		out = append(out, g.records[k])
	}
	return out
}

// Validate checks that every edge resolves to an existing path and that no
// two sibling files of the same kind claim the same label.
func (g *Graph) Validate(exists func(path string) bool) error {
	type claim struct {
		dir   string
		kind  Kind
		label string
	}
	claims := map[claim]string{}

	for _, r := range g.Records() {
		for _, e := range r.Edges() {
			if !exists(e.Target) {
				return &fault.DanglingReferenceError{Path: e.From, Role: e.Role, Label: e.Value}
			}
		}

		if r.Ref.Kind == KindVideo {
			continue
		}
		c := claim{dir: filepath.Dir(r.Ref.Path), kind: r.Ref.Kind, label: r.Label()}
		if c.label == "" {
			continue
		}
		if other, ok := claims[c]; ok {
			return &fault.FormatError{
				Path:   r.Ref.Path,
				Field:  "label",
				Reason: "label " + c.label + " is also claimed by " + other,
			}
		}
		claims[c] = r.Ref.Path
	}
	return nil
}

// Closed checks that every reference in the graph stays inside the bundle
// labelled label.
func (g *Graph) Closed(label string) error {
	for _, r := range g.Records() {
		for _, b := range r.Bindings {
			if b.Value == "" {
				continue
			}
			ok := true
			switch r.Ref.Kind {
			case KindKCD:
				ok = b.Value == HDRReference(label)
			case KindHDR:
				ok = text.FirstComponent(b.Value) == label
			case KindRAF:
				ok = text.LastComponent(b.Value) == label+KindKCD.Ext()
			}
			if !ok {
				return errors.Errorf("%s: %s reference %q leaves bundle %s", r.Ref.Path, b.Role, b.Value, label)
			}
		}
	}
	return nil
}
