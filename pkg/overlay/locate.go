package overlay

import (
	"fmt"
	"path"
	"path/filepath"
)

// DefaultBootDir is where ROCK Pi images mount the boot partition.
const DefaultBootDir = "/boot"

// Format is the textual schema of a boot configuration file.
type Format string

const (
	// FormatUEnv is the U-Boot environment file used by series 3 and S.
	FormatUEnv Format = "uenv"
	// FormatHwIntfc is the hw_intfc.conf directive file used by series 4.
	FormatHwIntfc Format = "hw-intfc"
	// FormatExtlinux is the extlinux boot menu used by series 5.
	FormatExtlinux Format = "extlinux"
)

// Location describes where a board keeps its boot configuration and its
// compiled overlays.
type Location struct {
	Series        Series
	Format        Format
	ConfigPath    string
	OverlayDir    string
	KernelRelease string
}

// BackupPath returns the sibling path holding the pre-patch copy.
func (l Location) BackupPath() string {
	return l.ConfigPath + ".bak"
}

// Locate resolves the boot configuration file, its format and the overlay
// directory for a board series. bootDir defaults to DefaultBootDir.
func Locate(series Series, kernelRelease, bootDir string) (Location, error) {
	if bootDir == "" {
		bootDir = DefaultBootDir
	}

	loc := Location{
		Series:        series,
		OverlayDir:    OverlayDirFor(series, kernelRelease, bootDir),
		KernelRelease: kernelRelease,
	}

	switch series {
	case Series3, SeriesS:
		loc.Format = FormatUEnv
		loc.ConfigPath = filepath.Join(bootDir, "uEnv.txt")
	case Series4:
		loc.Format = FormatHwIntfc
		loc.ConfigPath = filepath.Join(bootDir, "hw_intfc.conf")
	case Series5:
		loc.Format = FormatExtlinux
		loc.ConfigPath = filepath.Join(bootDir, "extlinux", "extlinux.conf")
	default:
		return loc, newError(KindUnknownBoardSeries, string(series),
			fmt.Errorf("cannot determine boot configuration for board series %q", series))
	}
	return loc, nil
}

// OverlayDirFor returns the overlay directory for any series, including
// unknown ones, so listing still works on unrecognized boards.
func OverlayDirFor(series Series, kernelRelease, bootDir string) string {
	if bootDir == "" {
		bootDir = DefaultBootDir
	}
	if series == Series4 {
		return filepath.Join(bootDir, "overlays")
	}
	return filepath.Join(bootDir, "dtbs", kernelRelease, "rockchip", "overlay")
}

// extlinuxOverlayPath is the path of a compiled overlay as seen by the
// bootloader, relative to the boot partition.
func extlinuxOverlayPath(kernelRelease, id string) string {
	return path.Join("/dtbs", kernelRelease, "rockchip", "overlay", id+".dtbo")
}
