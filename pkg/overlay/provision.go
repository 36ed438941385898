package overlay

import (
	"context"
	"errors"
	"fmt"
)

const (
	// DTCPackage provides the dtc device-tree compiler.
	DTCPackage = "device-tree-compiler"
	// RockPi4Package ships /boot/hw_intfc.conf and the series 4 overlays.
	RockPi4Package = "rockpi4-dtbo"

	dtcCommand = "dtc"
)

// ConfirmFunc asks the operator a yes/no question. It is injected so the
// workflow stays free of terminal I/O.
type ConfirmFunc func(prompt string) (bool, error)

// Provisioner installs missing dependencies after asking the operator.
type Provisioner struct {
	Sys     System
	Confirm ConfirmFunc
}

// Install asks for confirmation and installs pkg with apt-get. A declined
// prompt returns an error of kind KindUserAbort.
func (p *Provisioner) Install(ctx context.Context, pkg string) error {
	if p.Confirm == nil {
		return newError(KindMissingDependency, pkg,
			errors.New("package is not installed and no operator is available to confirm installation"))
	}

	ok, err := p.Confirm(fmt.Sprintf("Package %s is required. Install now?", pkg))
	if err != nil {
		return fmt.Errorf("confirm installation of %s: %w", pkg, err)
	}
	if !ok {
		return newError(KindUserAbort, pkg, nil)
	}

	cmds, err := BuildInstallCommands(pkg)
	if err != nil {
		return err
	}
	for _, cmd := range cmds {
		if err := p.Sys.Run(ctx, cmd); err != nil {
			return newError(KindMissingDependency, pkg, err)
		}
	}
	logSink.Info("installed package", "package", pkg)
	return nil
}

// EnsureCommand installs pkg when command is not on PATH.
func (p *Provisioner) EnsureCommand(ctx context.Context, command, pkg string) error {
	if _, err := p.Sys.LookPath(command); err == nil {
		return nil
	}
	logSink.Warn("required command not found", "command", command, "package", pkg)
	if err := p.Install(ctx, pkg); err != nil {
		return err
	}
	if _, err := p.Sys.LookPath(command); err != nil {
		return newError(KindMissingDependency, command,
			fmt.Errorf("still not found after installing %s: %w", pkg, err))
	}
	return nil
}
