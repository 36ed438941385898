package overlay

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/afero"
)

// Phases recorded in the state log.
const (
	PhasePlan         = "PLAN"
	PhaseApplySuccess = "APPLY_SUCCESS"
	PhaseApplyFailed  = "APPLY_FAILED"
)

// AppendStateLog appends a human-readable entry to the given path,
// describing the plan or apply phase, the board, the overlay and the steps.
// It is a journal of runs, not a rollback history: only the .bak sibling
// can restore a configuration.
func AppendStateLog(fs afero.Fs, path string, plan PlanResult, steps []ExecutionStep, phase string, err error) error {
	f, openErr := fs.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if openErr != nil {
		return openErr
	}
	defer f.Close()

	info, statErr := f.Stat()
	if statErr == nil && info.Size() == 0 {
		header := "# addoverlay state log - each section describes a plan/apply run. Newest entries are at the bottom.\n\n"
		if _, err := f.WriteString(header); err != nil {
			return err
		}
	}

	now := time.Now().UTC().Format(time.RFC3339)
	var b strings.Builder

	fmt.Fprintf(&b, "=== %s %s ===\n", phase, now)
	fmt.Fprintf(&b, "board: %s\n", plan.Board.Model)
	fmt.Fprintf(&b, "series: %s\n", plan.Board.Series)
	fmt.Fprintf(&b, "config: %s\n", plan.Location.ConfigPath)
	fmt.Fprintf(&b, "overlay: %s\n", plan.OverlayID)
	fmt.Fprintf(&b, "interfaces: %s\n", plan.Toggles)
	fmt.Fprintf(&b, "steps:\n")
	for _, s := range steps {
		fmt.Fprintf(&b, "- %s: %s\n", s.Operation, s.Description)
	}

	switch phase {
	case PhaseApplySuccess:
		fmt.Fprintf(&b, "result: SUCCESS\n\n")
	case PhaseApplyFailed:
		fmt.Fprintf(&b, "result: FAILED: %v\n\n", err)
	default:
		fmt.Fprintf(&b, "result: PENDING APPLY\n\n")
	}

	_, writeErr := f.WriteString(b.String())
	return writeErr
}
