//go:build !linux

package overlay

import (
	"fmt"
	"os/exec"
	"strings"
)

func kernelRelease() (string, error) {
	out, err := exec.Command("uname", "-r").Output()
	if err != nil {
		return "", fmt.Errorf("uname -r: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}
