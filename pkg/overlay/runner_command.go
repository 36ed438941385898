package overlay

import (
	"context"
	"fmt"

	"github.com/spf13/afero"
)

// CommandRunner performs ExecutionStep values against the real boot
// partition: it installs missing packages, compiles overlays with dtc and
// patches the boot configuration.
type CommandRunner struct {
	Fs          afero.Fs
	Sys         System
	Provisioner *Provisioner
	Options     DocumentOptions

	patched *PatchResult
}

func NewCommandRunner(fs afero.Fs, sys System, confirm ConfirmFunc, opts DocumentOptions) *CommandRunner {
	return &CommandRunner{
		Fs:          fs,
		Sys:         sys,
		Provisioner: &Provisioner{Sys: sys, Confirm: confirm},
		Options:     opts,
	}
}

func (r *CommandRunner) Run(ctx context.Context, plan PlanResult, step ExecutionStep) error {
	switch step.Operation {
	case OpEnsureConfig:
		return r.runEnsureConfig(ctx, step)
	case OpResolveOverlay:
		return r.runResolveOverlay(ctx, plan)
	case OpPatchConfig:
		return r.runPatchConfig(plan)
	default:
		logSink.Warn("unknown operation", "op", step.Operation, "step", step.Description)
		return nil
	}
}

// Patched returns the result of the patch-config step, if it ran.
func (r *CommandRunner) Patched() (PatchResult, bool) {
	if r.patched == nil {
		return PatchResult{}, false
	}
	return *r.patched, true
}

func (r *CommandRunner) runEnsureConfig(ctx context.Context, step ExecutionStep) error {
	if ok, _ := afero.Exists(r.Fs, step.Target); ok {
		return nil
	}
	logSink.Warn("boot configuration missing", "path", step.Target, "package", step.Package)
	if err := r.Provisioner.Install(ctx, step.Package); err != nil {
		return err
	}
	if ok, _ := afero.Exists(r.Fs, step.Target); !ok {
		return newError(KindMissingDependency, step.Target,
			fmt.Errorf("%s did not provide the boot configuration", step.Package))
	}
	return nil
}

func (r *CommandRunner) runResolveOverlay(ctx context.Context, plan PlanResult) error {
	resolver := &Resolver{
		Fs:          r.Fs,
		Sys:         r.Sys,
		Provisioner: r.Provisioner,
		ScratchDir:  plan.ScratchDir,
	}
	id, err := resolver.Resolve(ctx, plan.Location, plan.Request)
	if err != nil {
		return err
	}
	if id != plan.OverlayID {
		return fmt.Errorf("resolved overlay %q does not match planned %q", id, plan.OverlayID)
	}
	return nil
}

func (r *CommandRunner) runPatchConfig(plan PlanResult) error {
	res, err := NewPatcher(r.Fs, r.Options).Patch(plan.Location, plan.OverlayID, plan.Toggles)
	if err != nil {
		return err
	}
	r.patched = &res
	return nil
}
