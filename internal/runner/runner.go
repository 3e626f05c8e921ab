package runner

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/kballard/go-shellquote"

	"github.com/firefly-engineering/fersk/internal/errors"
	"github.com/firefly-engineering/fersk/internal/logging"
)

// Spec describes a command to execute. It is not modified by Execute.
type Spec struct {
	// Name is the executable. Names containing a path separator are resolved
	// against Dir when relative; bare names are looked up in PATH.
	Name string

	// Args are the arguments after the executable name
	Args []string

	// Dir is the working directory of the process
	Dir string

	// Env is the process environment; nil inherits the current environment
	Env []string
}

// Argv returns the full argument vector, executable first.
func (s Spec) Argv() []string {
	return append([]string{s.Name}, s.Args...)
}

// String renders the command as a shell-quoted line.
func (s Spec) String() string {
	return shellquote.Join(s.Argv()...)
}

// ParseSpec splits a shell-style command line into a Spec. Quoting and
// escapes are honored; no shell expansion takes place.
func ParseSpec(line string) (Spec, error) {
	words, err := shellquote.Split(line)
	if err != nil {
		return Spec{}, fmt.Errorf("invalid command line %q: %w", line, err)
	}
	if len(words) == 0 {
		return Spec{}, fmt.Errorf("empty command line")
	}
	return Spec{Name: words[0], Args: words[1:]}, nil
}

// ExitStatus is the terminal status of a process that ran.
type ExitStatus struct {
	// Code is the exit code, or 128 plus the signal number when the
	// process was terminated by a signal.
	Code int

	// Signal is the terminating signal, zero when the process exited.
	Signal syscall.Signal
}

// Success reports whether the process exited with code zero.
func (s ExitStatus) Success() bool {
	return s.Code == 0 && s.Signal == 0
}

// Signaled reports whether the process was terminated by a signal.
func (s ExitStatus) Signaled() bool {
	return s.Signal != 0
}

func (s ExitStatus) String() string {
	if s.Signaled() {
		return fmt.Sprintf("signal: %s", s.Signal)
	}
	return fmt.Sprintf("exit status %d", s.Code)
}

// Runner spawns processes with the configured standard streams.
type Runner struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// KillDelay is how long a process may run after receiving SIGTERM on
	// cancellation before it is killed. Zero waits indefinitely.
	KillDelay time.Duration
}

// New returns a Runner wired to the current process's standard streams.
func New() *Runner {
	return &Runner{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// Execute runs spec to completion and returns its exit status. A non-zero
// exit is not an error. The returned error, if any, is an *errors.LaunchError
// and means the process never ran.
//
// When ctx is cancelled the process receives SIGTERM and Execute keeps
// waiting for it to exit.
func (r *Runner) Execute(ctx context.Context, spec Spec) (ExitStatus, error) {
	command := spec.String()

	path, err := resolve(spec)
	if err != nil {
		return ExitStatus{}, err
	}

	cmd := exec.CommandContext(ctx, path, spec.Args...)
	cmd.Args[0] = spec.Name
	cmd.Dir = spec.Dir
	cmd.Env = spec.Env
	cmd.Stdin = r.Stdin
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	cmd.Cancel = func() error {
		logging.Debug("forwarding SIGTERM", "pid", cmd.Process.Pid)
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = r.KillDelay

	logging.Debug("starting command", "command", command, "path", path, "dir", spec.Dir)

	if err := cmd.Start(); err != nil {
		return ExitStatus{}, classify(command, err)
	}

	err = cmd.Wait()
	if cmd.ProcessState == nil {
		return ExitStatus{}, errors.Launch(errors.SpawnFailed, command, err)
	}

	status := statusOf(cmd.ProcessState)
	logging.Debug("command finished", "command", command, "status", status.String(), "wait_error", err)
	return status, nil
}

// resolve locates the executable the way a shell would, relative paths
// against the working directory and bare names against PATH.
func resolve(spec Spec) (string, error) {
	if spec.Name == "" {
		return "", errors.Launch(errors.ExecutableNotFound, "", fmt.Errorf("empty command"))
	}

	if !strings.ContainsRune(spec.Name, os.PathSeparator) {
		path, err := exec.LookPath(spec.Name)
		if err != nil {
			return "", errors.Launch(errors.ExecutableNotFound, spec.Name, err)
		}
		return path, nil
	}

	path := spec.Name
	if !filepath.IsAbs(path) {
		path = filepath.Join(spec.Dir, path)
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.Launch(errors.ExecutableNotFound, spec.Name, err)
		}
		return "", classify(spec.Name, err)
	}
	if info.IsDir() {
		return "", errors.Launch(errors.PermissionDenied, spec.Name, fmt.Errorf("%s is a directory", path))
	}
	return path, nil
}

func classify(command string, err error) error {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) && pathErr.Op == "chdir" {
		return errors.Launch(errors.SpawnFailed, command, err)
	}

	switch {
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		return errors.Launch(errors.ExecutableNotFound, command, err)
	case errors.Is(err, fs.ErrPermission):
		return errors.Launch(errors.PermissionDenied, command, err)
	default:
		return errors.Launch(errors.SpawnFailed, command, err)
	}
}

func statusOf(ps *os.ProcessState) ExitStatus {
	if ws, ok := ps.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return ExitStatus{Code: 128 + int(ws.Signal()), Signal: ws.Signal()}
	}
	return ExitStatus{Code: ps.ExitCode()}
}
