package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	// ConfigDirName is the directory under the user config dir holding fersk's config.
	ConfigDirName = "fersk"

	// ConfigFileName is the name of the config file.
	ConfigFileName = "config.toml"

	// WorkspacePrefix prefixes every workspace directory name.
	WorkspacePrefix = "fersk-"
)

// DefaultTOML is written by `fersk generate-config`.
const DefaultTOML = `# fersk configuration

# Directory under which ephemeral workspaces are created.
# Must be owned by you and not writable by others.
# Defaults to a "fersk" directory in the user cache dir.
# work-path = "~/.cache/fersk"

# Overlay uncommitted changes and untracked files onto the clean copy.
include-uncommitted = false

# Materialize git submodules inside the workspace.
submodules = true

# After an interrupt, how long to wait for the command before killing it.
# "0s" waits for as long as the command takes to exit.
kill-delay = "0s"
`

// Config is the fersk configuration.
type Config struct {
	// WorkPath is the root directory for workspaces.
	WorkPath string

	// IncludeUncommitted overlays uncommitted state onto the clean copy.
	IncludeUncommitted bool

	// Submodules materializes git submodules.
	Submodules bool

	// KillDelay bounds the wait after SIGTERM before the command is killed.
	// Zero waits indefinitely.
	KillDelay time.Duration
}

// fileConfig mirrors the TOML layout.
type fileConfig struct {
	WorkPath           string `toml:"work-path"`
	IncludeUncommitted bool   `toml:"include-uncommitted"`
	Submodules         bool   `toml:"submodules"`
	KillDelay          string `toml:"kill-delay"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		WorkPath:   DefaultWorkPath(),
		Submodules: true,
	}
}

// DefaultWorkPath returns the default workspace root, a per-user directory
// under the user cache dir. Without a cache dir it falls back to a
// uid-qualified directory in the system temp dir.
func DefaultWorkPath() string {
	if dir, err := os.UserCacheDir(); err == nil && filepath.IsAbs(dir) {
		return filepath.Join(dir, ConfigDirName)
	}
	return filepath.Join(os.TempDir(), fmt.Sprintf("%s-%d", ConfigDirName, os.Getuid()))
}

// DefaultPath returns the default config file location, or "" when the user
// config directory cannot be determined.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, ConfigDirName, ConfigFileName)
}

// Load reads the config file at path. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to stat config file %s: %w", path, err)
	}

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return nil, fmt.Errorf("unknown keys in config file %s: %s", path, strings.Join(keys, ", "))
	}

	if meta.IsDefined("work-path") {
		cfg.WorkPath = expandHome(strings.TrimSpace(raw.WorkPath))
	}

	if meta.IsDefined("include-uncommitted") {
		cfg.IncludeUncommitted = raw.IncludeUncommitted
	}

	if meta.IsDefined("submodules") {
		cfg.Submodules = raw.Submodules
	}

	if meta.IsDefined("kill-delay") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.KillDelay))
		if err != nil {
			return nil, fmt.Errorf("parse kill-delay: %w", err)
		}
		cfg.KillDelay = d
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks that the Config is valid.
func (c *Config) Validate() error {
	if c.WorkPath == "" {
		return fmt.Errorf("work-path is required")
	}
	if !filepath.IsAbs(c.WorkPath) {
		return fmt.Errorf("work-path must be an absolute path (got %q)", c.WorkPath)
	}
	if c.KillDelay < 0 {
		return fmt.Errorf("kill-delay must not be negative (got %s)", c.KillDelay)
	}
	return nil
}

// WriteDefault writes DefaultTOML to path unless a file already exists there.
// It reports whether a file was written.
func WriteDefault(path string) (bool, error) {
	if path == "" {
		return false, fmt.Errorf("no config location available")
	}

	if _, err := os.Stat(path); err == nil {
		return false, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false, fmt.Errorf("failed to create config directory for %s: %w", path, err)
	}

	if err := os.WriteFile(path, []byte(DefaultTOML), 0644); err != nil {
		return false, fmt.Errorf("failed to write config file %s: %w", path, err)
	}

	return true, nil
}

// expandHome replaces a leading "~/" with the user's home directory.
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
