package operation

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gitlab.com/tozd/go/errors"
)

// History phases.
const (
	PhasePlan     = "PLAN"
	PhaseRejected = "REJECTED"
	PhaseApplied  = "APPLY_SUCCESS"
	PhaseFailed   = "APPLY_FAILED"
)

const historyHeader = "# kcdutil history - each section describes one planned or applied command. Newest entries are at the bottom.\n\n"

// AppendHistory appends a human-readable entry describing plan to path.
func AppendHistory(path string, plan *Plan, phase string, cause error) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Errorf("opening history file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err == nil && info.Size() == 0 {
		if _, err := f.WriteString(historyHeader); err != nil {
			return errors.Errorf("writing history header: %w", err)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "=== %s %s ===\n", phase, time.Now().UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "id: %s\n", plan.ID)
	fmt.Fprintf(&b, "command: %s\n", plan.Command)
	fmt.Fprintf(&b, "source: %s\n", plan.Source)
	if plan.Label != "" {
		fmt.Fprintf(&b, "label: %s\n", plan.Label)
	}
	fmt.Fprintf(&b, "mode: %s\n", plan.Mode)
	fmt.Fprintf(&b, "overwrite: %v\n", plan.Overwrite)
	fmt.Fprintf(&b, "steps:\n")
	for _, s := range plan.Steps {
		fmt.Fprintf(&b, "- %s %s: %s\n", s.Kind, s.Dst, s.Description)
	}

	switch phase {
	case PhaseApplied:
		fmt.Fprintf(&b, "result: SUCCESS\n\n")
	case PhaseFailed, PhaseRejected:
		fmt.Fprintf(&b, "result: FAILED: %v\n\n", cause)
	default:
		fmt.Fprintf(&b, "result: PENDING APPLY\n\n")
	}

	if _, err := f.WriteString(b.String()); err != nil {
		return errors.Errorf("writing history entry: %w", err)
	}
	return nil
}
