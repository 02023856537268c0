package main

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/kcdutil/cmd/kcdutil/commands"
	"github.com/walteh/kcdutil/cmd/kcdutil/opts"
	"github.com/walteh/kcdutil/pkg/config"
	"github.com/walteh/kcdutil/pkg/log"
	"github.com/walteh/kcdutil/pkg/operation"
	"github.com/walteh/kcdutil/pkg/status"
	"github.com/walteh/kcdutil/pkg/transfer"
	"gitlab.com/tozd/go/errors"
)

// rootFlags holds the flags shared by every command
type rootFlags struct {
	configFile string
	debug      bool
	dryRun     bool
	overwrite  bool
	progress   string
}

// newRootCmd builds the kcdutil command tree
func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	flags := &rootFlags{}
	rootOpts := &opts.RootOpts{}

	cmd := &cobra.Command{
		Use:   "kcdutil",
		Short: "Rename, copy, move and clone instrument recording bundles",
		Long: `kcdutil manages the files of a recording bundle: the container (KCD),
the raw data file (RAF), the video header (HDR) and its videos. Every command
keeps the references embedded in these files consistent and undoes its own
changes when a step fails.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !needsSetup(cmd) {
				return nil
			}
			return setup(cmd, flags, rootOpts, stdout, stderr)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if rootOpts.Logger != nil {
				rootOpts.Logger.EndCommand(cmd.Context())
			}
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	addRootFlags(cmd, flags)

	cmd.AddCommand(
		commands.NewKCDCmd(rootOpts),
		commands.NewRAFCmd(rootOpts),
		commands.NewHDRCmd(rootOpts),
		commands.NewVideoCmd(rootOpts),
		commands.NewCloneCmd(rootOpts),
		newVersionCmd(),
	)
	return cmd
}

// skipSetupAnnotation marks commands that run without loading the config
const skipSetupAnnotation = "kcdutil/skip-setup"

// needsSetup reports whether cmd works on bundles. Help, completion and
// version output must not depend on the config file being valid.
func needsSetup(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[skipSetupAnnotation] != "" {
			return false
		}
		if c.Name() == "help" || c.Name() == "completion" {
			return false
		}
	}
	return true
}

// addRootFlags adds shared flags to the root command
func addRootFlags(cmd *cobra.Command, flags *rootFlags) {
	cmd.PersistentFlags().StringVarP(&flags.configFile, "config", "c", "", "config file path (default: .kcdutil.{yaml,yml,hcl,json} in the working directory)")
	cmd.PersistentFlags().BoolVarP(&flags.debug, "debug", "d", false, "enable debug logging")
	cmd.PersistentFlags().BoolVar(&flags.dryRun, "dry-run", false, "print the plan without touching any file")
	cmd.PersistentFlags().BoolVar(&flags.overwrite, "overwrite", false, "replace existing destination files")
	cmd.PersistentFlags().StringVar(&flags.progress, "progress", "", "progress display: auto, always or never")
}

// setup loads the configuration and wires the shared dependencies
func setup(cmd *cobra.Command, flags *rootFlags, rootOpts *opts.RootOpts, stdout, stderr io.Writer) error {
	level := zerolog.WarnLevel
	if flags.debug {
		level = zerolog.DebugLevel
	}
	zlog := zerolog.New(zerolog.ConsoleWriter{Out: stderr}).Level(level).With().Timestamp().Logger()
	ctx := zlog.WithContext(cmd.Context())

	consoleLevel := zerolog.Disabled
	if flags.debug {
		consoleLevel = zerolog.DebugLevel
	}
	logger := log.New(stdout, consoleLevel)
	ctx = log.NewContext(ctx, logger)

	wd, err := os.Getwd()
	if err != nil {
		return errors.Errorf("getting working directory: %w", err)
	}
	cfg, err := config.Discover(ctx, wd, flags.configFile)
	if err != nil {
		return errors.Errorf("loading config: %w", err)
	}
	zlog.Debug().Str("config", cfg.String()).Msg("configuration loaded")

	// Flags override the config file
	if cmd.Flags().Changed("overwrite") {
		cfg.Overwrite = flags.overwrite
	}
	if cmd.Flags().Changed("progress") {
		cfg.Progress = flags.progress
		if err := cfg.Validate(); err != nil {
			return errors.Errorf("--progress: %w", err)
		}
	}

	engine := transfer.New(
		transfer.WithOverwrite(cfg.Overwrite),
		transfer.WithIgnore(cfg.Video.Ignore...),
		transfer.WithReporter(status.NewReporter(cfg.Progress, stderr)),
	)

	runner, err := operation.NewRunner(operation.Options{
		Engine:      engine,
		DryRun:      flags.dryRun,
		HistoryFile: cfg.HistoryFile,
		Out:         stdout,
	})
	if err != nil {
		return errors.Errorf("creating runner: %w", err)
	}

	*rootOpts = opts.RootOpts{
		Config:  cfg,
		Engine:  engine,
		Planner: operation.NewPlanner(engine, cfg.Video.CarryUnlisted),
		Runner:  runner,
		Logger:  logger,
		DryRun:  flags.dryRun,
	}
	cmd.SetContext(ctx)
	return nil
}
