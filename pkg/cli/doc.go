// Package cli provides the command-line interface used by addoverlay.
//
// The CLI parses flags, loads the optional configuration file, detects the
// board and either lists the available overlays or installs one by patching
// the boot configuration. Use `Run` as the entry point when embedding the
// CLI in other tools, or `Execute` for the styled standalone binary.
//
// Example usage:
//
//	if err := cli.Run(os.Args); err != nil {
//	    log.Fatalf("addoverlay: %v", err)
//	}
package cli
