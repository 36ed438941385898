// Package overlay contains the core domain logic for addoverlay: identifying
// the ROCK Pi board series, locating its boot configuration, resolving and
// compiling device-tree overlays, and patching the boot configuration so the
// overlay (and the hardware interfaces it needs) are enabled on next boot.
// It is used by the CLI layer but can also be embedded in provisioning tools
// that need to enable overlays programmatically.
package overlay
