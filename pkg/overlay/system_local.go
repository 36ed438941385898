package overlay

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// DefaultModelPath is where the kernel exposes the board model string.
const DefaultModelPath = "/proc/device-tree/model"

// System abstracts the host facts and process execution the overlay
// workflow depends on. Tests provide a fake implementation; the real one
// reads /proc and runs commands through /bin/sh.
type System interface {
	Model() (string, error)
	KernelRelease() (string, error)
	LookPath(name string) (string, error)
	Run(ctx context.Context, command string) error
}

// localSystem is a System implementation backed by the running host.
type localSystem struct {
	modelPath string
}

// NewLocalSystem creates a System backed by the local OS. An empty
// modelPath selects DefaultModelPath.
func NewLocalSystem(modelPath string) System {
	if modelPath == "" {
		modelPath = DefaultModelPath
	}
	return localSystem{modelPath: modelPath}
}

// Model returns the device-tree model, without the trailing NUL the
// kernel appends.
func (s localSystem) Model() (string, error) {
	data, err := os.ReadFile(s.modelPath)
	if err != nil {
		return "", fmt.Errorf("cannot read board model from %s: %w", s.modelPath, err)
	}
	return parseModel(data), nil
}

func (localSystem) KernelRelease() (string, error) {
	return kernelRelease()
}

func (localSystem) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

func (localSystem) Run(ctx context.Context, command string) error {
	return runShellCommand(ctx, command)
}

func parseModel(data []byte) string {
	return strings.TrimSpace(strings.Trim(string(data), "\x00"))
}

// shellExec is swapped in tests.
var shellExec = func(ctx context.Context, cmdStr string) ([]byte, error) {
	return exec.CommandContext(ctx, "sh", "-c", cmdStr).CombinedOutput()
}

func runShellCommand(ctx context.Context, cmdStr string) error {
	logSink.Debug("exec", "cmd", cmdStr)
	out, err := shellExec(ctx, cmdStr)
	if len(out) > 0 {
		logSink.Debug("output", "cmd", cmdStr, "out", strings.TrimSpace(string(out)))
	}
	if err != nil {
		return fmt.Errorf("command %q failed: %w", cmdStr, err)
	}
	return nil
}
