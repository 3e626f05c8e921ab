// Package errors provides typed errors with exit codes for fersk.
//
// # Error Types
//
// The lifecycle of an invocation produces one of three primary results:
//
//	*ProvisionError   // the workspace could not be populated
//	*LaunchError      // the command never started
//	*ExitStatusError  // the command ran and exited non-zero
//
// plus an optional, advisory *CleanupError. FerskError covers everything
// else (configuration, usage).
//
// # Exit Codes
//
//	ExitSuccess         = 0    // Success
//	ExitGeneralError    = 1    // General/unknown errors
//	ExitConfigError     = 124  // Configuration error
//	ExitProvisionFailed = 125  // Provisioning or spawn failure
//	ExitNotExecutable   = 126  // Command found but not executable
//	ExitNotFound        = 127  // Command not found
//
// An ExitStatusError exits with the command's own code.
//
// # Extracting Exit Codes
//
// Use GetExitCode to extract the exit code from an error chain:
//
//	if err != nil {
//	    os.Exit(errors.GetExitCode(err))
//	}
package errors
