package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/woliveiras/addoverlay/pkg/overlay"
)

// Version is set via -ldflags.
var Version = "dev"

const rebootNotice = "Reboot is required to apply the changes."

// Options holds the flags of a run.
type Options struct {
	Input      string
	Type       string
	Name       string
	List       bool
	DryRun     bool
	Strict     bool
	BootDir    string
	ConfigFile string
	Verbose    bool
}

// env bundles the collaborators of a run so tests can replace them.
type env struct {
	ui     UI
	fs     afero.Fs
	sys    overlay.System // nil selects the local system
	logOut io.Writer
}

// Run executes the CLI for tools that embed addoverlay. args includes the
// program name, as in os.Args. Unlike Execute it skips fang styling and
// signal handling and returns the error, an *ExitError for the known
// failure kinds, instead of an exit code.
func Run(args []string) error {
	return run(args, env{ui: NewStdUI(), fs: afero.NewOsFs(), logOut: os.Stderr})
}

// Execute runs the CLI with fang styling and returns the process exit
// code.
func Execute(ctx context.Context) int {
	root := newRootCommand(env{ui: NewStdUI(), fs: afero.NewOsFs(), logOut: os.Stderr})
	if err := fang.Execute(
		ctx,
		root,
		fang.WithVersion(Version),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			return exitErr.Code
		}
		return 1
	}
	return 0
}

// run is the internal implementation that allows injecting a custom
// environment (useful for tests).
func run(args []string, e env) error {
	if len(args) == 0 {
		return fmt.Errorf("no arguments provided")
	}
	root := newRootCommand(e)
	root.SetArgs(args[1:])
	root.SilenceErrors = true
	root.SilenceUsage = true
	return root.ExecuteContext(context.Background())
}

func newRootCommand(e env) *cobra.Command {
	opts := &Options{}

	root := &cobra.Command{
		Use:   AppName,
		Short: "Enable device-tree overlays on ROCK Pi boards",
		Long: `addoverlay installs a device-tree overlay on a ROCK Pi board and registers it
in the boot configuration (uEnv.txt, hw_intfc.conf or extlinux.conf, depending
on the board series). Overlays that need SPI, I2C or UART changes get those
interfaces toggled too. The previous configuration is kept as <config>.bak.`,
		Example: `  addoverlay --list
  addoverlay --input spi1-flash
  addoverlay --input ./my-display.dts --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !opts.List && opts.Input == "" {
				return cmd.Help()
			}
			return exitErrorFor(runOverlay(cmd.Context(), cmd, e, opts))
		},
	}

	f := root.Flags()
	f.StringVarP(&opts.Input, "input", "i", "", "overlay source (.dts) or name of an installed .dtbo")
	f.StringVarP(&opts.Type, "type", "t", "", "input type: dts or dtbo (default: from the input extension)")
	f.StringVarP(&opts.Name, "name", "n", "", "overlay name (default: the input file name)")
	f.BoolVarP(&opts.List, "list", "l", false, "list the overlays available for this board")
	f.BoolVar(&opts.DryRun, "dry-run", false, "show the plan and the resulting configuration without changing anything")
	f.BoolVar(&opts.Strict, "strict", false, "match overlay names as whole tokens instead of substrings")
	f.StringVar(&opts.BootDir, "boot-dir", "", "boot partition mount point (default: /boot)")

	pf := root.PersistentFlags()
	pf.StringVar(&opts.ConfigFile, "config", "", "config file (default is "+DefaultConfigDir+"/config.toml)")
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "enable verbose output")

	root.AddCommand(newConfigCommand(e, opts))
	return root
}

func newConfigCommand(e env, opts *Options) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect addoverlay configuration",
	}
	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as TOML",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			cfg, err := LoadConfig(e.fs, opts.ConfigFile)
			if err != nil {
				return err
			}
			out, err := MarshalConfig(cfg)
			if err != nil {
				return err
			}
			e.ui.Printf("%s", out)
			return nil
		},
	})
	return configCmd
}

// loadEffectiveConfig loads the config file and applies flag overrides.
func loadEffectiveConfig(cmd *cobra.Command, e env, opts *Options) (Config, error) {
	cfg, err := LoadConfig(e.fs, opts.ConfigFile)
	if err != nil {
		return Config{}, err
	}
	if opts.BootDir != "" {
		cfg.BootDir = opts.BootDir
	}
	if cmd.Flags().Changed("strict") {
		cfg.Patch.ExactMatch = opts.Strict
	}
	if opts.Verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

func newLogger(out io.Writer, level string) (*log.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return log.NewWithOptions(out, log.Options{
		Prefix: AppName,
		Level:  lvl,
	}), nil
}

func runOverlay(ctx context.Context, cmd *cobra.Command, e env, opts *Options) error {
	cfg, err := loadEffectiveConfig(cmd, e, opts)
	if err != nil {
		return err
	}

	logger, err := newLogger(e.logOut, cfg.LogLevel)
	if err != nil {
		return err
	}
	overlay.SetLogger(logger)

	sys := e.sys
	if sys == nil {
		sys = overlay.NewLocalSystem(cfg.ModelPath)
	}

	board, err := overlay.DetectBoard(sys)
	if err != nil {
		return err
	}
	logger.Debug("detected board", "model", board.Model, "series", board.Series, "kernel", board.KernelRelease)

	if opts.List {
		dir := overlay.OverlayDirFor(board.Series, board.KernelRelease, cfg.BootDir)
		names, err := overlay.ListOverlays(e.fs, dir)
		if err != nil {
			return fmt.Errorf("list overlays in %s: %w", dir, err)
		}
		for _, name := range names {
			e.ui.Println(name)
		}
	}

	if opts.Input == "" {
		return nil
	}

	table, err := overlay.LoadInterfaceTable(e.fs, cfg.InterfacesDir, overlay.DefaultInterfaceTable())
	if err != nil {
		return err
	}

	plan, err := overlay.PlanForBoard(board, table, overlay.PlanOptions{
		Request:    overlay.Request{Input: opts.Input, Type: opts.Type, Name: opts.Name},
		BootDir:    cfg.BootDir,
		ScratchDir: cfg.ScratchDir,
	})
	if err != nil {
		return err
	}
	steps := overlay.BuildExecutionSteps(plan)

	if opts.DryRun {
		e.ui.Println(plan.String())
		e.ui.Println("Planned execution steps:")
		for _, step := range steps {
			e.ui.Println("  -", step.Description)
		}
		runner := &overlay.NoopRunner{Fs: e.fs, Out: uiWriter{ui: e.ui}, Options: cfg.DocumentOptions()}
		return overlay.Apply(ctx, plan, runner)
	}

	recordState(logger, e.fs, cfg.StateLog, plan, steps, overlay.PhasePlan, nil)

	runner := overlay.NewCommandRunner(e.fs, sys, e.ui.Confirm, cfg.DocumentOptions())
	if err := overlay.Apply(ctx, plan, runner); err != nil {
		recordState(logger, e.fs, cfg.StateLog, plan, steps, overlay.PhaseApplyFailed, err)
		return err
	}
	recordState(logger, e.fs, cfg.StateLog, plan, steps, overlay.PhaseApplySuccess, nil)

	if res, ok := runner.Patched(); ok && !res.Changed {
		logger.Info("overlay already enabled", "overlay", plan.OverlayID, "config", res.ConfigPath)
	}
	e.ui.Notice(rebootNotice)
	return nil
}

func recordState(logger *log.Logger, fs afero.Fs, path string, plan overlay.PlanResult, steps []overlay.ExecutionStep, phase string, err error) {
	if path == "" {
		return
	}
	if logErr := overlay.AppendStateLog(fs, path, plan, steps, phase, err); logErr != nil {
		logger.Warn("cannot write state log", "path", path, "err", logErr)
	}
}
