package cmd

import (
	"github.com/spf13/cobra"

	"github.com/firefly-engineering/fersk/internal/config"
	"github.com/firefly-engineering/fersk/internal/errors"
)

var generateConfigCmd = &cobra.Command{
	Use:   "generate-config",
	Short: "Write the default configuration file",
	Long: `Writes a commented default configuration to the config location
(--config, or the user config directory). An existing file is left alone.`,
	Args: cobra.NoArgs,
	RunE: runGenerateConfig,
}

func init() {
	rootCmd.AddCommand(generateConfigCmd)
}

func runGenerateConfig(cmd *cobra.Command, args []string) error {
	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}

	written, err := config.WriteDefault(path)
	if err != nil {
		return errors.ConfigError("failed to generate configuration", err)
	}
	if !written {
		logInfo("Config file already exists: %s", path)
		return nil
	}

	logSuccess("Wrote default config to %s", path)
	return nil
}
