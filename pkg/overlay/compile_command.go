package overlay

import (
	"fmt"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// BuildCompileCommand builds the dtc command line that compiles the
// overlay source src into the binary blob dst. It does not execute
// anything.
func BuildCompileCommand(src, dst string) (string, error) {
	if src == "" || dst == "" {
		return "", fmt.Errorf("BuildCompileCommand: source and destination are required")
	}
	return joinCommand("dtc", "-q", "-I", "dts", "-O", "dtb", "-o", dst, src)
}

// BuildInstallCommands builds the apt-get invocations that install pkg.
// The operator has already confirmed, so apt-get runs non-interactively.
func BuildInstallCommands(pkg string) ([]string, error) {
	if pkg == "" {
		return nil, fmt.Errorf("BuildInstallCommands: package is required")
	}
	install, err := joinCommand("apt-get", "install", "-y", pkg)
	if err != nil {
		return nil, err
	}
	return []string{"apt-get update", install}, nil
}

// joinCommand quotes every argument for /bin/sh and joins them.
func joinCommand(args ...string) (string, error) {
	quoted := make([]string, len(args))
	for i, arg := range args {
		q, err := syntax.Quote(arg, syntax.LangPOSIX)
		if err != nil {
			return "", fmt.Errorf("cannot quote argument %q: %w", arg, err)
		}
		quoted[i] = q
	}
	return strings.Join(quoted, " "), nil
}
