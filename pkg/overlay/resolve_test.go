package overlay

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func TestRequestNormalize(t *testing.T) {
	cases := []struct {
		name     string
		in       Request
		wantType string
		wantID   string
	}{
		{"bare name is a dtbo", Request{Input: "spi1-flash"}, TypeDTBO, "spi1-flash"},
		{"dtbo extension is trimmed", Request{Input: "devspi1.dtbo"}, TypeDTBO, "devspi1"},
		{"source named after stem", Request{Input: "/home/rock/my-display.dts"}, TypeDTS, "my-display"},
		{"name overrides stem", Request{Input: "display.dts", Name: "lcd"}, TypeDTS, "lcd"},
		{"explicit type wins", Request{Input: "overlay.src", Type: TypeDTS}, TypeDTS, "overlay"},
		{"name overrides dtbo input", Request{Input: "x.dtbo", Name: "y"}, TypeDTBO, "y"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req, err := tc.in.Normalize()
			require.NoError(t, err)
			require.Equal(t, tc.wantType, req.Type)
			require.Equal(t, tc.wantID, req.ID())
		})
	}
}

func TestRequestNormalize_Rejects(t *testing.T) {
	_, err := Request{}.Normalize()
	require.Error(t, err)

	_, err = Request{Input: "overlay.txt"}.Normalize()
	require.ErrorIs(t, err, ErrUnsupportedType)

	_, err = Request{Input: "spi1-flash", Type: "dtb"}.Normalize()
	require.ErrorIs(t, err, ErrUnsupportedType)
}

func TestResolver_InstalledOverlay(t *testing.T) {
	fs := afero.NewMemMapFs()
	loc := series4Location(t)
	require.NoError(t, afero.WriteFile(fs, loc.OverlayDir+"/spi1-flash.dtbo", []byte{0xd0, 0x0d}, 0o644))

	r := &Resolver{Fs: fs, Sys: &fakeSystem{}}
	id, err := r.Resolve(context.Background(), loc, Request{Input: "spi1-flash"})
	require.NoError(t, err)
	require.Equal(t, "spi1-flash", id)
}

func TestResolver_MissingOverlay(t *testing.T) {
	fs := afero.NewMemMapFs()
	loc := series4Location(t)

	r := &Resolver{Fs: fs, Sys: &fakeSystem{}}
	_, err := r.Resolve(context.Background(), loc, Request{Input: "nope"})
	require.ErrorIs(t, err, ErrOverlayNotFound)
	require.Contains(t, err.Error(), "/boot/overlays/nope.dtbo")
}

func TestVerifyOverlay_Directory(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/boot/overlays/odd.dtbo", 0o755))

	err := VerifyOverlay(fs, "/boot/overlays", "odd")
	require.ErrorIs(t, err, ErrOverlayNotFound)
}

// compilingSystem simulates dtc by writing the blob named after -o.
func compilingSystem(fs afero.Fs, sys *fakeSystem) *fakeSystem {
	sys.onRun = func(cmd string) error {
		if strings.HasPrefix(cmd, "apt-get install") {
			sys.paths["dtc"] = true
			return nil
		}
		if !strings.HasPrefix(cmd, "dtc ") {
			return nil
		}
		fields := strings.Fields(cmd)
		for i, f := range fields {
			if f == "-o" && i+1 < len(fields) {
				return afero.WriteFile(fs, strings.Trim(fields[i+1], "'"), []byte("dtb"), 0o644)
			}
		}
		return errors.New("no output path")
	}
	return sys
}

func TestResolver_CompilesSource(t *testing.T) {
	fs := afero.NewMemMapFs()
	loc := series4Location(t)
	sys := compilingSystem(fs, &fakeSystem{paths: map[string]bool{"dtc": true}})

	r := &Resolver{Fs: fs, Sys: sys, Provisioner: &Provisioner{Sys: sys}, ScratchDir: "/scratch"}
	id, err := r.Resolve(context.Background(), loc, Request{Input: "/src/my-display.dts"})
	require.NoError(t, err)
	require.Equal(t, "my-display", id)

	require.Len(t, sys.ran, 1)
	require.Contains(t, sys.ran[0], "/src/my-display.dts")
	require.Contains(t, sys.ran[0], "/scratch/my-display.dtbo")

	data, err := afero.ReadFile(fs, "/boot/overlays/my-display.dtbo")
	require.NoError(t, err)
	require.Equal(t, "dtb", string(data))
}

func TestResolver_CompileFailure(t *testing.T) {
	fs := afero.NewMemMapFs()
	loc := series4Location(t)
	sys := &fakeSystem{
		paths: map[string]bool{"dtc": true},
		onRun: func(string) error { return errors.New("syntax error") },
	}

	r := &Resolver{Fs: fs, Sys: sys, ScratchDir: "/scratch"}
	_, err := r.Resolve(context.Background(), loc, Request{Input: "/src/broken.dts"})
	require.ErrorContains(t, err, "syntax error")

	exists, _ := afero.Exists(fs, "/boot/overlays/broken.dtbo")
	require.False(t, exists)
}

func TestResolver_InstallsCompilerAfterConfirmation(t *testing.T) {
	fs := afero.NewMemMapFs()
	loc := series4Location(t)
	sys := compilingSystem(fs, &fakeSystem{paths: map[string]bool{}})

	var prompts []string
	confirm := func(prompt string) (bool, error) {
		prompts = append(prompts, prompt)
		return true, nil
	}
	r := &Resolver{Fs: fs, Sys: sys, Provisioner: &Provisioner{Sys: sys, Confirm: confirm}, ScratchDir: "/scratch"}

	id, err := r.Resolve(context.Background(), loc, Request{Input: "/src/lcd.dts"})
	require.NoError(t, err)
	require.Equal(t, "lcd", id)
	require.Len(t, prompts, 1)
	require.Contains(t, prompts[0], DTCPackage)
	require.Len(t, sys.ran, 3)
	require.Equal(t, "apt-get update", sys.ran[0])
	require.Contains(t, sys.ran[1], DTCPackage)
}

func TestResolver_DeclinedCompilerInstall(t *testing.T) {
	fs := afero.NewMemMapFs()
	loc := series4Location(t)
	sys := &fakeSystem{paths: map[string]bool{}}
	decline := func(string) (bool, error) { return false, nil }

	r := &Resolver{Fs: fs, Sys: sys, Provisioner: &Provisioner{Sys: sys, Confirm: decline}}
	_, err := r.Resolve(context.Background(), loc, Request{Input: "/src/lcd.dts"})
	require.ErrorIs(t, err, ErrUserAbort)
	require.Empty(t, sys.ran)
}
