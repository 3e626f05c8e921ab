package cmd

import (
	"github.com/spf13/cobra"

	"github.com/firefly-engineering/fersk/internal/config"
	"github.com/firefly-engineering/fersk/internal/errors"
	"github.com/firefly-engineering/fersk/internal/logging"
)

var (
	verbose    bool
	jsonOutput bool
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "fersk",
	Short: "Run a command in a fresh copy of a repository",
	Long: `fersk runs a command against the committed state of a git or jj
repository, without touching your working copy.

Each invocation:
  - Copies the current commit into a new directory under the work path
  - Runs the command there with your terminal attached
  - Removes the copy again, even when interrupted
  - Exits with the command's exit status`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Setup(verbose, jsonOutput, cmd.ErrOrStderr())
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output logs in JSON format")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default "+displayPath(config.DefaultPath())+")")
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// Helper aliases for user-facing output (delegates to logging package)
var (
	logInfo    = logging.UserInfo
	logSuccess = logging.UserSuccess
	logWarning = logging.UserWarning
	logError   = logging.UserError
)

// ReportError prints err for the user unless it only carries the exit
// status of a command that already reported for itself.
func ReportError(err error) {
	if err == nil || errors.IsExitStatus(err) {
		return
	}
	logError("%v", err)
}
