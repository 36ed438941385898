package overlay

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// Overlay input types.
const (
	TypeDTS  = "dts"
	TypeDTBO = "dtbo"
)

// Request is what the operator asked to install.
type Request struct {
	// Input is a .dts source path or the name of an overlay already in the
	// overlay directory.
	Input string
	// Type overrides extension-based inference ("dts" or "dtbo").
	Type string
	// Name overrides the overlay name derived from Input.
	Name string
}

// Normalize applies the implied semantics: the type is inferred from the
// input's extension (none means dtbo) and source overlays are named after
// their file stem.
func (r Request) Normalize() (Request, error) {
	if r.Input == "" {
		return r, fmt.Errorf("overlay input is required")
	}
	if r.Type == "" {
		if ext := filepath.Ext(r.Input); ext != "" {
			r.Type = strings.TrimPrefix(ext, ".")
		} else {
			r.Type = TypeDTBO
		}
	}
	if r.Type != TypeDTS && r.Type != TypeDTBO {
		return r, newError(KindUnsupportedType, r.Type,
			fmt.Errorf("overlay type must be %q or %q", TypeDTS, TypeDTBO))
	}
	if r.Name == "" && r.Type != TypeDTBO {
		base := filepath.Base(r.Input)
		r.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return r, nil
}

// ID returns the overlay identifier of a normalized request: the name for
// sources, otherwise the literal input without a .dtbo suffix. An explicit
// Name also wins for dtbo input, so an installed blob can be registered
// under a name other than the one typed on the command line.
func (r Request) ID() string {
	if r.Name != "" {
		return r.Name
	}
	return strings.TrimSuffix(r.Input, "."+TypeDTBO)
}

// Resolver turns a Request into an overlay identifier whose blob is present
// in the board's overlay directory, compiling sources when needed.
type Resolver struct {
	Fs          afero.Fs
	Sys         System
	Provisioner *Provisioner
	// ScratchDir receives compiled blobs before they are copied into the
	// overlay directory. Defaults to os.TempDir().
	ScratchDir string
}

// Resolve compiles and installs source overlays, then checks that
// <overlayDir>/<id>.dtbo exists. A missing blob is reported with kind
// KindOverlayNotFound.
func (r *Resolver) Resolve(ctx context.Context, loc Location, req Request) (string, error) {
	req, err := req.Normalize()
	if err != nil {
		return "", err
	}

	if req.Type == TypeDTS {
		blob, err := r.Compile(ctx, req)
		if err != nil {
			return "", err
		}
		if err := r.InstallBlob(blob, loc.OverlayDir); err != nil {
			return "", err
		}
	}

	id := req.ID()
	if err := VerifyOverlay(r.Fs, loc.OverlayDir, id); err != nil {
		return "", err
	}
	return id, nil
}

// ScratchPath is where Compile writes the blob for a normalized request.
func (r *Resolver) ScratchPath(req Request) string {
	dir := r.ScratchDir
	if dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, req.ID()+"."+TypeDTBO)
}

// Compile runs dtc on the request's source and returns the path of the
// compiled blob. dtc is installed first if missing.
func (r *Resolver) Compile(ctx context.Context, req Request) (string, error) {
	if r.Provisioner != nil {
		if err := r.Provisioner.EnsureCommand(ctx, dtcCommand, DTCPackage); err != nil {
			return "", err
		}
	}

	src, err := filepath.Abs(req.Input)
	if err != nil {
		return "", fmt.Errorf("compile: cannot resolve %s: %w", req.Input, err)
	}
	dst := r.ScratchPath(req)

	cmd, err := BuildCompileCommand(src, dst)
	if err != nil {
		return "", err
	}
	if err := r.Sys.Run(ctx, cmd); err != nil {
		return "", fmt.Errorf("compile %s: %w", src, err)
	}
	logSink.Info("compiled overlay", "source", src, "blob", dst)
	return dst, nil
}

// InstallBlob copies a compiled blob into overlayDir under its base name.
func (r *Resolver) InstallBlob(blob, overlayDir string) error {
	dst := filepath.Join(overlayDir, filepath.Base(blob))

	in, err := r.Fs.Open(blob)
	if err != nil {
		return fmt.Errorf("install overlay: cannot open %s: %w", blob, err)
	}
	defer in.Close()

	if err := r.Fs.MkdirAll(overlayDir, 0o755); err != nil {
		return fmt.Errorf("install overlay: cannot create %s: %w", overlayDir, err)
	}
	out, err := r.Fs.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("install overlay: cannot create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("install overlay: copy to %s: %w", dst, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("install overlay: close %s: %w", dst, err)
	}
	logSink.Debug("installed overlay blob", "path", dst)
	return nil
}

// VerifyOverlay checks that <overlayDir>/<id>.dtbo exists and is a file.
func VerifyOverlay(fs afero.Fs, overlayDir, id string) error {
	path := filepath.Join(overlayDir, id+"."+TypeDTBO)
	st, err := fs.Stat(path)
	if err != nil {
		return newError(KindOverlayNotFound, path, err)
	}
	if st.IsDir() {
		return newError(KindOverlayNotFound, path, fmt.Errorf("expected file but found directory"))
	}
	return nil
}
