// Package logging provides logging utilities for fersk.
//
// This package provides two categories of output:
//   - Debug logging: Structured logs for debugging (via slog)
//   - User output: Formatted messages for end users
//
// # Debug Logging
//
// Debug logs are written using slog and controlled by verbosity settings:
//
//	logging.Debug("provisioning workspace", "source", repo, "target", dir)
//	logging.Warn("workspace removal failed", "path", dir, "error", err)
//	logging.With("workspace", id).Debug("command finished", "code", code)
//
// # User Output
//
// User-facing messages are formatted with status indicators:
//
//	logging.UserInfo("Workspace %s", path)
//	logging.UserSuccess("Removed %d orphaned workspaces", n)
//	logging.UserWarning("Could not remove workspace: %v", err)
//	logging.UserError("%v", err)
//
// Output destinations default to:
//   - UserInfo, UserSuccess: stdout
//   - UserWarning, UserError: stderr
//
// SetUserOutput redirects them, which `fersk run` uses to keep the executed
// command's stdout free of fersk's own messages.
//
// # Status Indicators
//
// User functions prepend status indicators, colored with lipgloss when the
// terminal supports it:
//   - ℹ (info)
//   - ✓ (success)
//   - ⚠ (warning)
//   - ✗ (error)
package logging
