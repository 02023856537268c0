package bundle

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/walteh/kcdutil/pkg/fault"
	"github.com/walteh/kcdutil/pkg/field"
	"github.com/walteh/kcdutil/pkg/text"
	"gitlab.com/tozd/go/errors"
)

// 🔗 Binding is one decoded association field
type Binding struct {
	Role  string
	Field field.Field
	Value string

	// stored is the value currently on disk
	stored string
}

// Dirty reports whether the value differs from what the file holds.
func (b Binding) Dirty() bool {
	return b.Value != b.stored
}

// 📋 Record holds the association fields of one file, keyed by role.
// Records are values: Rebind and Relocate return modified copies.
type Record struct {
	Ref      FileRef
	Bindings []Binding
}

// Load decodes every association field of the file at path.
func Load(kind Kind, path string) (Record, error) {
	rec := Record{Ref: FileRef{Path: filepath.Clean(path), Kind: kind}}
	if kind == KindVideo {
		return rec, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return Record{}, fault.IO("open", path, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return Record{}, fault.IO("stat", path, err)
	}
	if info.IsDir() {
		return Record{}, &fault.FormatError{Path: path, Reason: "expected a " + kind.String() + " file, found a directory"}
	}

	fields, err := fieldsFor(kind, file, info.Size())
	if err != nil {
		return Record{}, fault.SetPath(fault.IO("read", path, err), path)
	}

	for _, rf := range fields {
		value, err := field.Read(file, info.Size(), rf.field)
		if err != nil {
			return Record{}, fault.SetPath(fault.IO("read", path, err), path)
		}
		rec.Bindings = append(rec.Bindings, Binding{Role: rf.role, Field: rf.field, Value: value, stored: value})
	}
	return rec, nil
}

// LoadPath detects the kind of path and loads it.
func LoadPath(path string) (Record, error) {
	return Load(Detect(path), path)
}

func (r Record) clone() Record {
	out := r
	out.Bindings = append([]Binding(nil), r.Bindings...)
	return out
}

// Value returns the value bound to role.
func (r Record) Value(role string) (string, bool) {
	for _, b := range r.Bindings {
		if b.Role == role {
			return b.Value, true
		}
	}
	return "", false
}

// Rebind returns a copy of r with role set to value. The value must fit the
// role's field; r itself is never modified.
func (r Record) Rebind(role, value string) (Record, error) {
	out := r.clone()
	for i, b := range out.Bindings {
		if b.Role != role {
			continue
		}
		if _, err := field.Encode(b.Field, value); err != nil {
			return Record{}, fault.SetPath(err, r.Ref.Path)
		}
		out.Bindings[i].Value = value
		return out, nil
	}
	return Record{}, &fault.FormatError{Path: r.Ref.Path, Field: role, Reason: "no such field in a " + r.Ref.Kind.String() + " file"}
}

// Relabel rebinds every video entry of an HDR record to label.
func (r Record) Relabel(label string) (Record, error) {
	if r.Ref.Kind != KindHDR {
		return Record{}, errors.Errorf("relabel: %s is a %s file, not an hdr", r.Ref.Path, r.Ref.Kind)
	}
	if err := ValidateLabel(label); err != nil {
		return Record{}, err
	}

	out := r
	for _, b := range r.Bindings {
		if b.Value == "" {
			continue
		}
		relabelled, err := text.Relabel(b.Value, label)
		if err != nil {
			return Record{}, err
		}
		next, err := out.Rebind(b.Role, relabelled.Modified)
		if err != nil {
			return Record{}, err
		}
		out = next
	}
	return out, nil
}

// Relocate returns a copy of r that describes the same bytes at path.
// References are resolved relative to the new location.
func (r Record) Relocate(path string) Record {
	out := r.clone()
	out.Ref.Path = filepath.Clean(path)
	return out
}

// Dirty reports whether any binding differs from the stored file.
func (r Record) Dirty() bool {
	for _, b := range r.Bindings {
		if b.Dirty() {
			return true
		}
	}
	return false
}

// Label returns the bundle label this record claims.
func (r Record) Label() string {
	switch r.Ref.Kind {
	case KindKCD:
		v, _ := r.Value(RoleHDR)
		return text.FirstComponent(v)
	case KindHDR:
		for _, b := range r.Bindings {
			if b.Value != "" {
				return text.FirstComponent(b.Value)
			}
		}
		return Stem(r.Ref.Path)
	case KindRAF:
		v, _ := r.Value(RoleKCD)
		if v == "" {
			return ""
		}
		return Stem(text.LastComponent(v))
	}
	return ""
}

// 🧭 Edge is one resolved reference
type Edge struct {
	From   string
	Role   string
	Value  string
	Target string
}

// Edges resolves every non-empty binding to the path it points at.
func (r Record) Edges() []Edge {
	dir := filepath.Dir(r.Ref.Path)
	out := make([]Edge, 0, len(r.Bindings))
	for _, b := range r.Bindings {
		if b.Value == "" {
			continue
		}
		var target string
		switch r.Ref.Kind {
		case KindKCD:
			target = filepath.Join(dir, FromFieldPath(b.Value))
		case KindRAF:
			target = FromFieldPath(b.Value)
			if !filepath.IsAbs(target) {
				target = filepath.Join(dir, target)
			}
		case KindHDR:
			target = filepath.Join(dir, text.LastComponent(b.Value))
		}
		out = append(out, Edge{From: r.Ref.Path, Role: b.Role, Value: b.Value, Target: filepath.Clean(target)})
	}
	return out
}

// Targets returns the paths this record references.
func (r Record) Targets() []string {
	edges := r.Edges()
	out := make([]string, 0, len(edges))
	for _, e := range edges {
		out = append(out, e.Target)
	}
	return out
}

// Patch writes every dirty binding into buf, an in-memory copy of the file.
func (r Record) Patch(buf []byte) error {
	for _, b := range r.Bindings {
		if !b.Dirty() {
			continue
		}
		if err := field.Patch(buf, b.Field, b.Value); err != nil {
			return fault.SetPath(err, r.Ref.Path)
		}
	}
	return nil
}

// Apply writes every dirty binding into the file at path, which must hold
// the same layout as the file r was loaded from.
func (r Record) Apply(path string) error {
	if !r.Dirty() {
		return nil
	}

	file, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return fault.IO("open", path, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fault.IO("stat", path, err)
	}

	for _, b := range r.Bindings {
		if !b.Dirty() {
			continue
		}
		if err := field.Write(file, info.Size(), b.Field, b.Value); err != nil {
			return fault.SetPath(fault.IO("write", path, err), path)
		}
	}

	if err := file.Sync(); err != nil {
		return fault.IO("sync", path, err)
	}
	if err := file.Close(); err != nil {
		return fault.IO("close", path, err)
	}
	return nil
}

// HDRReference is the value a KCD stores to reference the HDR of label.
func HDRReference(label string) string {
	return label + text.Separator + label + KindHDR.Ext()
}

// KCDReference is the value a RAF stores to reference the KCD at path.
func KCDReference(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", errors.Errorf("resolving %s: %w", path, err)
	}
	return ToFieldPath(abs), nil
}

// ToFieldPath converts a native path to the backslash form stored in files.
func ToFieldPath(p string) string {
	return strings.ReplaceAll(filepath.ToSlash(p), "/", text.Separator)
}

// FromFieldPath converts a stored backslash path to a native path.
func FromFieldPath(p string) string {
	return filepath.FromSlash(strings.ReplaceAll(p, text.Separator, "/"))
}
