package cli

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

const (
	rock3Model  = "Radxa ROCK 3A"
	rock3Kernel = "4.19.193-54-rockchip"
	overlayDir3 = "/boot/dtbs/" + rock3Kernel + "/rockchip/overlay"
)

func rock3Fs(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/boot/uEnv.txt", []byte("verbosity=7\nconsole=serial\n"), 0o644))
	for _, name := range []string{"devspi1.dtbo", "rk3568-i2c3-m0.dtbo"} {
		require.NoError(t, afero.WriteFile(fs, overlayDir3+"/"+name, nil, 0o644))
	}
	return fs
}

func TestRun_RequiresArgs(t *testing.T) {
	err := run(nil, testEnv(afero.NewMemMapFs(), &fakeUI{}, &fakeHost{}))
	require.EqualError(t, err, "no arguments provided")
}

func TestRun_EmbeddedReturnsError(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent.toml")

	err := Run([]string{AppName, "config", "show", "--config", missing})
	require.ErrorContains(t, err, "config file not found")
}

func TestRun_List(t *testing.T) {
	ui := &fakeUI{}
	host := &fakeHost{model: rock3Model, kernel: rock3Kernel}

	require.NoError(t, run([]string{AppName, "--list"}, testEnv(rock3Fs(t), ui, host)))
	require.Equal(t, "devspi1.dtbo\nrk3568-i2c3-m0.dtbo\n", ui.out.String())
}

func TestRun_InstallsOverlay(t *testing.T) {
	fs := rock3Fs(t)
	ui := &fakeUI{}
	host := &fakeHost{model: rock3Model, kernel: rock3Kernel}

	require.NoError(t, run([]string{AppName, "-i", "devspi1"}, testEnv(fs, ui, host)))

	data, err := afero.ReadFile(fs, "/boot/uEnv.txt")
	require.NoError(t, err)
	require.Equal(t, "verbosity=7\nconsole=serial\noverlays=devspi1\n", string(data))

	backup, err := afero.ReadFile(fs, "/boot/uEnv.txt.bak")
	require.NoError(t, err)
	require.Equal(t, "verbosity=7\nconsole=serial\n", string(backup))

	require.Equal(t, []string{rebootNotice}, ui.notices)
}

func TestRun_OverlayNotFound(t *testing.T) {
	fs := rock3Fs(t)
	ui := &fakeUI{}
	host := &fakeHost{model: rock3Model, kernel: rock3Kernel}

	err := run([]string{AppName, "--input", "missing-overlay"}, testEnv(fs, ui, host))

	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr), "expected ExitError, got %v", err)
	require.Equal(t, 1, exitErr.Code)
	require.Equal(t, "Overlay not found.", exitErr.Error())
	require.Empty(t, ui.notices)

	exists, _ := afero.Exists(fs, "/boot/uEnv.txt.bak")
	require.False(t, exists)
}

func TestRun_DeclinedInstallAborts(t *testing.T) {
	fs := afero.NewMemMapFs()
	ui := &fakeUI{answers: []bool{false}}
	host := &fakeHost{model: "Radxa ROCK Pi 4B", kernel: "4.4.154-112-rockchip"}

	err := run([]string{AppName, "-i", "spi1-flash"}, testEnv(fs, ui, host))
	require.EqualError(t, err, "Aborted.")
	require.Len(t, ui.prompts, 1)
	require.Contains(t, ui.prompts[0], "rockpi4-dtbo")
	require.Empty(t, host.ran)
}

func TestRun_DryRunLeavesConfig(t *testing.T) {
	fs := rock3Fs(t)
	ui := &fakeUI{}
	host := &fakeHost{model: rock3Model, kernel: rock3Kernel}

	require.NoError(t, run([]string{AppName, "-i", "devspi1", "--dry-run"}, testEnv(fs, ui, host)))

	out := ui.out.String()
	require.Contains(t, out, "Overlay plan: devspi1 -> /boot/uEnv.txt")
	require.Contains(t, out, "Planned execution steps:")
	require.Contains(t, out, "/boot/uEnv.txt (after patch)")
	require.Contains(t, out, "overlays=devspi1")

	data, err := afero.ReadFile(fs, "/boot/uEnv.txt")
	require.NoError(t, err)
	require.Equal(t, "verbosity=7\nconsole=serial\n", string(data))
	require.Empty(t, ui.notices)
}

func TestRun_DryRunOverlayNotFound(t *testing.T) {
	fs := rock3Fs(t)
	ui := &fakeUI{}
	host := &fakeHost{model: rock3Model, kernel: rock3Kernel}

	err := run([]string{AppName, "-i", "no-such-overlay", "--dry-run"}, testEnv(fs, ui, host))
	require.EqualError(t, err, "Overlay not found.")
	require.NotContains(t, ui.out.String(), "after patch")
}

func TestRun_UnsupportedBoard(t *testing.T) {
	ui := &fakeUI{}
	host := &fakeHost{model: "Raspberry Pi 4 Model B", kernel: "6.1.0"}

	err := run([]string{AppName, "-i", "devspi1"}, testEnv(afero.NewMemMapFs(), ui, host))
	require.EqualError(t, err, "Unsupported board.")
}

func TestRun_StateLog(t *testing.T) {
	fs := rock3Fs(t)
	require.NoError(t, afero.WriteFile(fs, "/etc/addoverlay/config.toml",
		[]byte("state_log = \"/var/log/addoverlay.state\"\n"), 0o644))
	host := &fakeHost{model: rock3Model, kernel: rock3Kernel}

	require.NoError(t, run([]string{AppName, "-i", "devspi1"}, testEnv(fs, &fakeUI{}, host)))

	data, err := afero.ReadFile(fs, "/var/log/addoverlay.state")
	require.NoError(t, err)
	text := string(data)
	require.Contains(t, text, "=== PLAN ")
	require.Contains(t, text, "=== APPLY_SUCCESS ")
}

func TestRun_ConfigShow(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/tmp/custom.toml",
		[]byte("boot_dir = \"/mnt/boot\"\n\n[patch]\nexact_match = true\n"), 0o644))
	ui := &fakeUI{}

	require.NoError(t, run([]string{AppName, "config", "show", "--config", "/tmp/custom.toml"}, testEnv(fs, ui, &fakeHost{})))

	out := ui.out.String()
	require.Contains(t, out, "boot_dir")
	require.Contains(t, out, "/mnt/boot")
	require.True(t, strings.Contains(out, "exact_match = true"), out)
}
