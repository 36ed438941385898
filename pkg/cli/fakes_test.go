package cli

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/spf13/afero"
)

// fakeUI records output and answers confirmations from a script.
type fakeUI struct {
	out     strings.Builder
	notices []string
	prompts []string
	answers []bool
}

func (u *fakeUI) Println(a ...any)               { fmt.Fprintln(&u.out, a...) }
func (u *fakeUI) Printf(format string, a ...any) { fmt.Fprintf(&u.out, format, a...) }
func (u *fakeUI) Notice(msg string)              { u.notices = append(u.notices, msg) }

func (u *fakeUI) Ask(prompt string) (string, error) {
	return "", io.EOF
}

func (u *fakeUI) Confirm(prompt string) (bool, error) {
	u.prompts = append(u.prompts, prompt)
	if len(u.answers) == 0 {
		return false, nil
	}
	ans := u.answers[0]
	u.answers = u.answers[1:]
	return ans, nil
}

type fakeHost struct {
	model  string
	kernel string
	ran    []string
}

func (h *fakeHost) Model() (string, error)         { return h.model, nil }
func (h *fakeHost) KernelRelease() (string, error) { return h.kernel, nil }

func (h *fakeHost) LookPath(name string) (string, error) {
	return "", exec.ErrNotFound
}

func (h *fakeHost) Run(_ context.Context, cmd string) error {
	h.ran = append(h.ran, cmd)
	return nil
}

func testEnv(fs afero.Fs, ui *fakeUI, host *fakeHost) env {
	return env{ui: ui, fs: fs, sys: host, logOut: io.Discard}
}
