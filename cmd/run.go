package cmd

import (
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/fersk/internal/config"
	"github.com/firefly-engineering/fersk/internal/errors"
	"github.com/firefly-engineering/fersk/internal/lifecycle"
	"github.com/firefly-engineering/fersk/internal/logging"
	"github.com/firefly-engineering/fersk/internal/runner"
	"github.com/firefly-engineering/fersk/internal/workspace"
)

var (
	runRepo               string
	runWorkRoot           string
	runIncludeUncommitted bool
	runNoSubmodules       bool
	runCommandLine        string
)

var runCmd = &cobra.Command{
	Use:   "run [flags] [--] <command> [args...]",
	Short: "Run a command in a fresh copy of the repository",
	Long: `Copies the committed state of the repository into a new workspace, runs
the command there and removes the workspace afterwards.

The command inherits fersk's standard streams and environment. fersk exits
with the command's exit status, or with:
  125  the workspace could not be provisioned
  126  the command is not executable
  127  the command was not found
  130  interrupted before the command started

Use -c to pass the whole command as one string. It is split into words
using shell quoting rules, but no shell is started.`,
	Example: `  fersk run -- go test ./...
  fersk run -C ~/src/project make check
  fersk run -c "cargo build --release"`,
	Args: func(cmd *cobra.Command, args []string) error {
		if runCommandLine != "" {
			if len(args) > 0 {
				return errors.ValidationError("-c cannot be combined with a command")
			}
			return nil
		}
		if len(args) == 0 {
			return errors.ValidationError("no command given")
		}
		return nil
	},
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVarP(&runRepo, "repo", "C", "", "Repository to copy (default: current directory)")
	runCmd.Flags().StringVar(&runWorkRoot, "work-root", "", "Directory to create workspaces in (overrides work-path)")
	runCmd.Flags().BoolVar(&runIncludeUncommitted, "include-uncommitted", false, "Also copy uncommitted changes and untracked files")
	runCmd.Flags().BoolVar(&runNoSubmodules, "no-submodules", false, "Do not check out submodules")
	runCmd.Flags().StringVarP(&runCommandLine, "command", "c", "", "Command line to run, split with shell quoting rules")
	runCmd.Flags().SetInterspersed(false)
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	spec, err := commandSpec(args)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyRunFlags(cmd, cfg); err != nil {
		return err
	}

	source := runRepo
	if source == "" {
		if source, err = os.Getwd(); err != nil {
			return errors.Wrap(errors.ExitGeneralError, "cannot determine current directory", err)
		}
	}

	// The command owns stdout; fersk's own messages go to stderr.
	restore := logging.SetUserOutput(cmd.ErrOrStderr(), cmd.ErrOrStderr())
	defer restore()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	opts := workspace.Options{
		IncludeUncommitted: cfg.IncludeUncommitted,
		Submodules:         cfg.Submodules,
	}
	provisioner := workspace.NewProvisioner(opts, workspace.WithResolved(reportSnapshot))

	r := &runner.Runner{
		Stdin:     cmd.InOrStdin(),
		Stdout:    cmd.OutOrStdout(),
		Stderr:    cmd.ErrOrStderr(),
		KillDelay: cfg.KillDelay,
	}

	coordinator := lifecycle.New(lifecycle.Config{
		WorkspaceRoot: cfg.WorkPath,
		Workspace:     opts,
		KillDelay:     cfg.KillDelay,
	}, lifecycle.WithProvisioner(provisioner), lifecycle.WithRunner(r))

	logging.Debug("running command", "source", source, "command", spec.String(), "workPath", cfg.WorkPath)

	outcome, _ := coordinator.Run(ctx, lifecycle.Invocation{Source: source, Command: spec})
	log := logging.With("workspace", outcome.Workspace.ID)
	if outcome.CleanupErr != nil {
		logWarning("Failed to remove workspace %s: %v", outcome.CleanupErr.Path, outcome.CleanupErr.Cause)
		logWarning("Run 'fersk gc --force' to remove it later")
	}
	switch {
	case outcome.Executed && outcome.Status.Signaled():
		log.Debug("command terminated by signal", "signal", outcome.Status.Signal.String())
	case outcome.Executed:
		log.Debug("command finished", "code", outcome.Status.Code)
	case outcome.Err != nil:
		log.Debug("command not run", "error", outcome.Err)
	}

	return outcome.Result()
}

// commandSpec builds the command from -c or the positional arguments.
func commandSpec(args []string) (runner.Spec, error) {
	if runCommandLine != "" {
		spec, err := runner.ParseSpec(runCommandLine)
		if err != nil {
			return runner.Spec{}, errors.ValidationError(err.Error())
		}
		return spec, nil
	}
	return runner.Spec{Name: args[0], Args: args[1:]}, nil
}

// applyRunFlags overrides file configuration with explicitly set flags.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("work-root") {
		root, err := filepath.Abs(runWorkRoot)
		if err != nil {
			return errors.ConfigError("invalid --work-root", err)
		}
		cfg.WorkPath = root
	}
	if flags.Changed("include-uncommitted") {
		cfg.IncludeUncommitted = runIncludeUncommitted
	}
	if flags.Changed("no-submodules") {
		cfg.Submodules = !runNoSubmodules
	}
	if err := cfg.Validate(); err != nil {
		return errors.ConfigError("invalid configuration", err)
	}
	return nil
}

func reportSnapshot(backend string, snap *workspace.Snapshot, target string) {
	logInfo("Source repository: %s", snap.Root)
	logInfo("Working directory: %s", target)
	if snap.Branch != "" {
		logInfo("Current branch: %s", snap.Branch)
	} else {
		logInfo("Current revision: %s (%s)", shortCommit(snap.Commit), backend)
	}
}
