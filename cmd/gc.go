package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/fersk/internal/lifecycle"
	"github.com/firefly-engineering/fersk/internal/logging"
)

var gcForce bool

var gcCmd = &cobra.Command{
	Use:   "gc",
	Short: "Remove workspaces left behind by interrupted runs",
	Long: `Finds orphaned workspaces under the work path and removes them.

Without --force, prints what would be removed (dry run).
With --force, actually removes the orphaned workspaces.

A workspace is orphaned when:
  - It has no lock file
  - Its lock file cannot be read
  - The process that created it is no longer running

Workspaces owned by another host are never touched.`,
	Args: cobra.NoArgs,
	RunE: runGC,
}

func init() {
	gcCmd.Flags().BoolVar(&gcForce, "force", false, "Actually remove orphaned workspaces (default is dry run)")
	rootCmd.AddCommand(gcCmd)
}

func runGC(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	reaper := lifecycle.NewReaper(cfg.WorkPath)
	orphans, err := reaper.Scan()
	if err != nil {
		return err
	}

	if len(orphans) == 0 {
		logInfo("No orphaned workspaces found in %s", cfg.WorkPath)
		return nil
	}

	if !gcForce {
		printGCDryRun(cmd.OutOrStdout(), orphans)
		return nil
	}

	return executeGC(reaper, orphans)
}

func printGCDryRun(w io.Writer, orphans []lifecycle.Orphan) {
	fmt.Fprintln(w, "Dry run (use --force to actually clean up):")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Orphaned workspaces:")
	for _, o := range orphans {
		fmt.Fprintf(w, "  %s (%s)\n", o.Workspace.Path, o.Reason)
	}
}

func executeGC(reaper *lifecycle.Reaper, orphans []lifecycle.Orphan) error {
	failed := 0
	for _, o := range orphans {
		logInfo("Removing orphaned workspace: %s", o.Workspace.Path)
		if err := reaper.Remove(o); err != nil {
			logWarning("Failed to remove %s: %v", o.Workspace.Path, err)
			failed++
			continue
		}
		logging.With("workspace", o.Workspace.ID).Debug("removed orphaned workspace", "reason", o.Reason)
	}

	if failed > 0 {
		return fmt.Errorf("failed to remove %d of %d orphaned workspaces", failed, len(orphans))
	}

	logSuccess("Garbage collection complete")
	return nil
}
