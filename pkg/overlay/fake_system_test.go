package overlay

import (
	"context"
	"io"
	"os/exec"

	"github.com/charmbracelet/log"
)

type fakeSystem struct {
	model    string
	kernel   string
	modelErr error
	paths    map[string]bool
	onRun    func(cmd string) error
	ran      []string
}

func (f *fakeSystem) Model() (string, error) {
	return f.model, f.modelErr
}

func (f *fakeSystem) KernelRelease() (string, error) {
	return f.kernel, nil
}

func (f *fakeSystem) LookPath(name string) (string, error) {
	if f.paths[name] {
		return "/usr/bin/" + name, nil
	}
	return "", exec.ErrNotFound
}

func (f *fakeSystem) Run(_ context.Context, cmd string) error {
	f.ran = append(f.ran, cmd)
	if f.onRun != nil {
		return f.onRun(cmd)
	}
	return nil
}

func init() {
	SetLogger(log.New(io.Discard))
}
