package errors

import (
	"errors"
	"fmt"
)

// Exit codes for fersk.
// Codes 124-127 sit in the range shells reserve for "the command could not run",
// so they rarely collide with an exit status forwarded from the command itself.
const (
	ExitSuccess         = 0
	ExitGeneralError    = 1
	ExitConfigError     = 124
	ExitProvisionFailed = 125
	ExitNotExecutable   = 126
	ExitNotFound        = 127
	ExitInterrupted     = 130
)

// FerskError is the base error type for fersk
type FerskError struct {
	Code    int
	Message string
	Cause   error
}

func (e *FerskError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *FerskError) Unwrap() error {
	return e.Cause
}

// ExitCode returns the exit code for this error
func (e *FerskError) ExitCode() int {
	return e.Code
}

// New creates a new FerskError
func New(code int, message string) *FerskError {
	return &FerskError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with a FerskError
func Wrap(code int, message string, cause error) *FerskError {
	return &FerskError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// ConfigError returns an error for configuration issues
func ConfigError(message string, cause error) *FerskError {
	return Wrap(ExitConfigError, message, cause)
}

// ValidationError returns an error for input validation failures
func ValidationError(message string) *FerskError {
	return New(ExitGeneralError, message)
}

// Interrupted returns an error for an invocation cancelled before its command started
func Interrupted(cause error) *FerskError {
	return Wrap(ExitInterrupted, "interrupted", cause)
}

// ProvisionKind classifies a provisioning failure.
type ProvisionKind int

const (
	SourceNotFound ProvisionKind = iota + 1
	SourceInvalid
	TargetUnavailable
	ExtractionFailed
)

func (k ProvisionKind) String() string {
	switch k {
	case SourceNotFound:
		return "source not found"
	case SourceInvalid:
		return "source is not a valid repository"
	case TargetUnavailable:
		return "workspace unavailable"
	case ExtractionFailed:
		return "extraction failed"
	default:
		return "provisioning failed"
	}
}

// ProvisionError reports why a workspace could not be populated.
// Path is the source repository for source kinds and the workspace otherwise.
type ProvisionError struct {
	Kind  ProvisionKind
	Path  string
	Cause error
}

func (e *ProvisionError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Path)
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *ProvisionError) Unwrap() error {
	return e.Cause
}

// ExitCode returns the exit code for this error
func (e *ProvisionError) ExitCode() int {
	return ExitProvisionFailed
}

// Provision creates a ProvisionError.
func Provision(kind ProvisionKind, path string, cause error) *ProvisionError {
	return &ProvisionError{Kind: kind, Path: path, Cause: cause}
}

// LaunchKind classifies a failure to start the command.
type LaunchKind int

const (
	ExecutableNotFound LaunchKind = iota + 1
	PermissionDenied
	SpawnFailed
)

func (k LaunchKind) String() string {
	switch k {
	case ExecutableNotFound:
		return "executable not found"
	case PermissionDenied:
		return "permission denied"
	default:
		return "failed to start command"
	}
}

// LaunchError reports that the command never started.
type LaunchError struct {
	Kind    LaunchKind
	Command string
	Cause   error
}

func (e *LaunchError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Command)
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *LaunchError) Unwrap() error {
	return e.Cause
}

// ExitCode follows the shell conventions for commands that cannot run.
func (e *LaunchError) ExitCode() int {
	switch e.Kind {
	case ExecutableNotFound:
		return ExitNotFound
	case PermissionDenied:
		return ExitNotExecutable
	default:
		return ExitProvisionFailed
	}
}

// Launch creates a LaunchError.
func Launch(kind LaunchKind, command string, cause error) *LaunchError {
	return &LaunchError{Kind: kind, Command: command, Cause: cause}
}

// CleanupError reports a workspace that could not be removed.
// It is advisory and never replaces the outcome of an invocation.
type CleanupError struct {
	Path  string
	Cause error
}

func (e *CleanupError) Error() string {
	return fmt.Sprintf("failed to remove workspace %s: %v", e.Path, e.Cause)
}

func (e *CleanupError) Unwrap() error {
	return e.Cause
}

// ExitStatusError carries the exact exit status of the executed command so it
// can travel through cobra's error return and become fersk's own exit code.
type ExitStatusError struct {
	Code int
}

func (e *ExitStatusError) Error() string {
	return fmt.Sprintf("command exited with code %d", e.Code)
}

// ExitCode returns the command's exit code
func (e *ExitStatusError) ExitCode() int {
	return e.Code
}

// ExitStatus returns an error for a non-zero command exit, or nil for zero.
func ExitStatus(code int) error {
	if code == ExitSuccess {
		return nil
	}
	return &ExitStatusError{Code: code}
}

// IsExitStatus reports whether err only forwards the command's exit status.
func IsExitStatus(err error) bool {
	var statusErr *ExitStatusError
	return errors.As(err, &statusErr)
}

type exitCoder interface {
	ExitCode() int
}

// GetExitCode extracts the exit code from an error chain
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var coder exitCoder
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	return ExitGeneralError
}

// Is checks if an error is of a specific type
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target any) bool {
	return errors.As(err, target)
}

// IsProvision reports whether err is a ProvisionError of the given kind.
func IsProvision(err error, kind ProvisionKind) bool {
	var provErr *ProvisionError
	return errors.As(err, &provErr) && provErr.Kind == kind
}

// IsLaunch reports whether err is a LaunchError of the given kind.
func IsLaunch(err error, kind LaunchKind) bool {
	var launchErr *LaunchError
	return errors.As(err, &launchErr) && launchErr.Kind == kind
}
