package overlay

import (
	"context"
	"fmt"
)

// Step operations.
const (
	OpEnsureConfig   = "ensure-config"
	OpResolveOverlay = "resolve-overlay"
	OpPatchConfig    = "patch-config"
)

// ExecutionStep is a high-level description of a concrete action taken to
// install an overlay. It is both structured (for automation) and has a
// human-readable description.
type ExecutionStep struct {
	Operation   string // e.g. "resolve-overlay", "patch-config"
	Target      string
	Package     string
	Description string
}

// Runner abstracts how execution steps are performed: CommandRunner
// changes the system, NoopRunner only reports.
type Runner interface {
	Run(ctx context.Context, plan PlanResult, step ExecutionStep) error
}

// BuildExecutionSteps converts a PlanResult into the ordered list of steps
// that install the overlay.
func BuildExecutionSteps(plan PlanResult) []ExecutionStep {
	var steps []ExecutionStep
	loc := plan.Location

	if loc.Series == Series4 {
		steps = append(steps, ExecutionStep{
			Operation:   OpEnsureConfig,
			Target:      loc.ConfigPath,
			Package:     RockPi4Package,
			Description: fmt.Sprintf("ensure %s exists (installs %s if missing)", loc.ConfigPath, RockPi4Package),
		})
	}

	desc := fmt.Sprintf("check %s.dtbo in %s", plan.OverlayID, loc.OverlayDir)
	if plan.Request.Type == TypeDTS {
		desc = fmt.Sprintf("compile %s with dtc, install %s.dtbo into %s and verify it",
			plan.Request.Input, plan.OverlayID, loc.OverlayDir)
	}
	steps = append(steps, ExecutionStep{
		Operation:   OpResolveOverlay,
		Target:      loc.OverlayDir,
		Description: desc,
	})

	patchDesc := fmt.Sprintf("back up %s to %s and register overlay %s", loc.ConfigPath, loc.BackupPath(), plan.OverlayID)
	if len(plan.Toggles) > 0 {
		patchDesc = fmt.Sprintf("%s with interfaces %s", patchDesc, plan.Toggles)
	}
	steps = append(steps, ExecutionStep{
		Operation:   OpPatchConfig,
		Target:      loc.ConfigPath,
		Description: patchDesc,
	})

	return steps
}

// Apply runs the provided plan using the given runner. It iterates over the
// steps and delegates to the Runner, keeping side effects behind an
// interface. The first failing step stops the run.
func Apply(ctx context.Context, plan PlanResult, runner Runner) error {
	for _, step := range BuildExecutionSteps(plan) {
		if err := runner.Run(ctx, plan, step); err != nil {
			return fmt.Errorf("apply failed on operation %q (%s): %w", step.Operation, step.Target, err)
		}
	}
	return nil
}
