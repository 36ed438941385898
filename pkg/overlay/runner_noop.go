package overlay

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/afero"
)

// NoopRunner logs steps but does not change the system. When Fs is set,
// installed overlays are checked for existence like a real run. When Out is
// set too, the patch-config step writes the configuration it would produce
// to Out so the operator can review it.
type NoopRunner struct {
	Fs      afero.Fs
	Out     io.Writer
	Options DocumentOptions
}

func NewNoopRunner() *NoopRunner { return &NoopRunner{} }

func (n *NoopRunner) Run(_ context.Context, plan PlanResult, step ExecutionStep) error {
	logSink.Info("NOOP", "op", step.Operation, "step", step.Description)
	if n.Fs == nil {
		return nil
	}
	switch step.Operation {
	case OpResolveOverlay:
		return n.checkOverlay(plan)
	case OpPatchConfig:
		if n.Out == nil {
			return nil
		}
	default:
		return nil
	}

	data, err := afero.ReadFile(n.Fs, plan.Location.ConfigPath)
	if err != nil {
		// The file may only appear once ensure-config runs for real.
		logSink.Warn("cannot preview boot configuration", "path", plan.Location.ConfigPath, "err", err)
		return nil
	}
	opts := n.Options
	if opts.KernelRelease == "" {
		opts.KernelRelease = plan.Location.KernelRelease
	}
	after, err := PatchDocument(plan.Location.Series, string(data), plan.OverlayID, plan.Toggles, opts)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(n.Out, "--- %s (after patch)\n%s", plan.Location.ConfigPath, after)
	return err
}

// checkOverlay verifies installed overlays. Sources only exist in the
// overlay directory after compilation, so they are reported as pending.
func (n *NoopRunner) checkOverlay(plan PlanResult) error {
	if plan.Request.Type == TypeDTS {
		logSink.Info("overlay will be compiled", "source", plan.Request.Input, "overlay", plan.OverlayID)
		if n.Out != nil {
			_, err := fmt.Fprintf(n.Out, "--- %s.dtbo pending compilation of %s\n", plan.OverlayID, plan.Request.Input)
			return err
		}
		return nil
	}
	if loc := plan.Location; loc.Series == Series4 {
		if ok, _ := afero.Exists(n.Fs, loc.ConfigPath); !ok {
			// ensure-config would install the package that ships the overlays.
			logSink.Warn("overlay check skipped until "+RockPi4Package+" is installed", "overlay", plan.OverlayID)
			return nil
		}
	}
	return VerifyOverlay(n.Fs, plan.Location.OverlayDir, plan.OverlayID)
}
