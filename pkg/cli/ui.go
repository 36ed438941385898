package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	noticeStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("3"))
	promptStyle = lipgloss.NewStyle().Bold(true)
)

// UI abstracts user interaction so the overlay workflow can ask for
// confirmation without owning the terminal, and so tests can script it.
type UI interface {
	Println(a ...any)
	Printf(format string, a ...any)
	Notice(msg string)
	Ask(prompt string) (string, error)
	Confirm(prompt string) (bool, error)
}

type stdUI struct {
	in  *bufio.Reader
	out io.Writer
}

// NewStdUI returns a UI backed by stdin/stdout.
func NewStdUI() UI {
	return newUI(os.Stdin, os.Stdout)
}

func newUI(in io.Reader, out io.Writer) *stdUI {
	return &stdUI{
		in:  bufio.NewReader(in),
		out: out,
	}
}

func (u *stdUI) Println(a ...any) {
	fmt.Fprintln(u.out, a...)
}

func (u *stdUI) Printf(format string, a ...any) {
	fmt.Fprintf(u.out, format, a...)
}

func (u *stdUI) Notice(msg string) {
	fmt.Fprintln(u.out, noticeStyle.Render(msg))
}

func (u *stdUI) Ask(prompt string) (string, error) {
	u.Printf("%s", prompt)
	text, err := u.in.ReadString('\n')
	if err != nil && (err != io.EOF || text == "") {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// Confirm prints the prompt and accepts only "y" (any case) as a yes.
func (u *stdUI) Confirm(prompt string) (bool, error) {
	u.Println(promptStyle.Render(prompt))
	ans, err := u.Ask("Continue? [y/N] ")
	if err != nil {
		if err == io.EOF {
			return false, nil
		}
		return false, err
	}
	return strings.ToLower(ans) == "y", nil
}

// uiWriter lets io.Writer consumers print through a UI.
type uiWriter struct{ ui UI }

func (w uiWriter) Write(p []byte) (int, error) {
	w.ui.Printf("%s", p)
	return len(p), nil
}
