package text

import (
	"strings"

	"gitlab.com/tozd/go/errors"
)

// Separator is the path separator used inside instrument files.
const Separator = `\`

// FirstComponent returns the leading element of a backslash path.
func FirstComponent(p string) string {
	first, _, _ := strings.Cut(p, Separator)
	return first
}

// LastComponent returns the final element of a backslash path.
func LastComponent(p string) string {
	if i := strings.LastIndex(p, Separator); i >= 0 {
		return p[i+1:]
	}
	return p
}

// Relabel swaps the path's first component for label, along with the same
// text where it leads a later component, so `A\A_cam1.avi` becomes
// `B\B_cam1.avi`. The label is left alone anywhere else in a file name.
func Relabel(p, label string) (ReplacementResult, error) {
	r := NewSimpleTextReplacer()
	rules := []ReplacementRule{{FromText: FirstComponent(p), ToText: label, Prefix: true}}
	if err := r.ValidateRules(rules); err != nil {
		return ReplacementResult{}, errors.Errorf("relabelling %q: %w", p, err)
	}
	return r.ReplaceText(p, rules), nil
}
