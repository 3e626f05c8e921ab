package cmd

import (
	"os"

	"github.com/firefly-engineering/fersk/internal/config"
	"github.com/firefly-engineering/fersk/internal/errors"
)

// loadConfig reads the config file named by --config, or the default one.
// An explicitly named file must exist.
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = config.DefaultPath()
	} else if _, err := os.Stat(path); err != nil {
		return nil, errors.ConfigError("cannot read config file "+path, err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, errors.ConfigError("failed to load configuration", err)
	}
	return cfg, nil
}

// displayPath renders an optional path for help text.
func displayPath(path string) string {
	if path == "" {
		return "none"
	}
	return path
}

// shortCommit abbreviates a commit id for display.
func shortCommit(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
