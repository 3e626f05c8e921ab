// Package runner spawns a single command and reports how it ended.
//
// A Runner connects the child to its configured streams (the current
// process's own by default), so interactive programs and streaming output
// behave as if the command were run directly:
//
//	r := runner.New()
//	status, err := r.Execute(ctx, runner.Spec{
//	    Name: "make",
//	    Args: []string{"test"},
//	    Dir:  workspacePath,
//	})
//
// Execute distinguishes two outcomes. An ExitStatus means the process ran;
// a non-zero code or a terminating signal is not an error. A
// *errors.LaunchError means it never ran, classified as ExecutableNotFound,
// PermissionDenied or SpawnFailed.
//
// # Cancellation
//
// Cancelling the context sends SIGTERM to the child and Execute keeps
// waiting for it to exit. Runner.KillDelay, when non-zero, bounds that wait
// before the child is killed.
package runner
