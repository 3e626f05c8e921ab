// Package config loads fersk's TOML configuration.
//
// # Location
//
// The config file lives at $XDG_CONFIG_HOME/fersk/config.toml (see
// os.UserConfigDir). A missing file is not an error: Load returns Default().
//
// # Keys
//
//	work-path = "~/.cache/fersk"   # workspace root (absolute, "~/" expanded)
//	include-uncommitted = false    # overlay uncommitted changes
//	submodules = true              # materialize git submodules
//	kill-delay = "0s"              # SIGTERM -> SIGKILL escalation, 0 disables
//
// Only keys present in the file override defaults. Unknown keys are rejected.
//
// # Generating a Config
//
//	written, err := config.WriteDefault(config.DefaultPath())
package config
