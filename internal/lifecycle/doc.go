// Package lifecycle runs one command in a disposable workspace and
// guarantees the workspace is removed afterwards.
//
// # States
//
// Every invocation moves through
//
//	Idle → Provisioning → Executing → Cleaning → Done
//
// and skips Executing when provisioning fails. Cleaning always runs: it is
// deferred as soon as a workspace is allocated, so it also runs when the
// context is cancelled or the runner panics.
//
// # Workspaces
//
// Each invocation gets <root>/fersk-<uuid>, plus a sibling <id>.lock file
// recording the owning pid, host and source:
//
//	~/.cache/fersk/fersk-6f1c.../
//	~/.cache/fersk/fersk-6f1c....lock
//
// The lock is created with O_EXCL before the directory, so two invocations
// can never share a workspace. The root itself must be a real directory
// owned by the current user and not writable by group or others.
//
// # Outcomes
//
// An Outcome carries exactly one primary result: the command's exit status,
// a *errors.ProvisionError, or a *errors.LaunchError. A failure to remove the
// workspace is reported separately in Outcome.CleanupErr and never changes
// the primary result.
//
// # Reaper
//
// Reaper finds workspaces whose owner died before cleaning up (a missing or
// unreadable lock, or a recorded pid that no longer exists) and removes them.
package lifecycle
