package overlay

import (
	"fmt"
	"os"

	"github.com/spf13/afero"
)

// PatchResult reports what a Patch call did to the boot configuration.
type PatchResult struct {
	ConfigPath string
	BackupPath string
	Before     string
	After      string
	Changed    bool
}

// Patcher applies overlay registrations to boot configuration files.
type Patcher struct {
	Fs      afero.Fs
	Options DocumentOptions
}

// NewPatcher returns a Patcher working on fs.
func NewPatcher(fs afero.Fs, opts DocumentOptions) *Patcher {
	return &Patcher{Fs: fs, Options: opts}
}

// Patch backs up the configuration at loc to loc.BackupPath(), registers
// the overlay id with its toggles and writes the result back in place.
//
// The backup is written before anything else and is overwritten on every
// run. If the final write fails, the backup is the only recovery path.
func (p *Patcher) Patch(loc Location, id string, toggles ToggleSet) (PatchResult, error) {
	res := PatchResult{ConfigPath: loc.ConfigPath, BackupPath: loc.BackupPath()}

	info, err := p.Fs.Stat(loc.ConfigPath)
	if err != nil {
		return res, fmt.Errorf("patch: cannot stat %s: %w", loc.ConfigPath, err)
	}
	data, err := afero.ReadFile(p.Fs, loc.ConfigPath)
	if err != nil {
		return res, fmt.Errorf("patch: cannot read %s: %w", loc.ConfigPath, err)
	}
	res.Before = string(data)

	if err := afero.WriteFile(p.Fs, res.BackupPath, data, info.Mode().Perm()); err != nil {
		return res, fmt.Errorf("patch: cannot write backup %s: %w", res.BackupPath, err)
	}
	logSink.Debug("backed up boot configuration", "path", res.BackupPath)

	opts := p.Options
	if opts.KernelRelease == "" {
		opts.KernelRelease = loc.KernelRelease
	}
	after, err := PatchDocument(loc.Series, res.Before, id, toggles, opts)
	if err != nil {
		return res, fmt.Errorf("patch: %s: %w", loc.ConfigPath, err)
	}
	res.After = after
	res.Changed = after != res.Before

	if err := writeFileInPlace(p.Fs, loc.ConfigPath, []byte(after), info.Mode().Perm()); err != nil {
		return res, fmt.Errorf("patch: cannot write %s (restore from %s): %w", loc.ConfigPath, res.BackupPath, err)
	}

	logSink.Info("updated boot configuration",
		"path", loc.ConfigPath, "overlay", id, "toggles", toggles.String(), "changed", res.Changed)
	return res, nil
}

// writeFileInPlace truncates and rewrites path, keeping its inode so
// hard links and bind mounts of /boot files keep working.
func writeFileInPlace(fs afero.Fs, path string, data []byte, perm os.FileMode) error {
	f, err := fs.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, perm)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
