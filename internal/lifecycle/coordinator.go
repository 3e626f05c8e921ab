package lifecycle

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/firefly-engineering/fersk/internal/errors"
	"github.com/firefly-engineering/fersk/internal/logging"
	"github.com/firefly-engineering/fersk/internal/runner"
	"github.com/firefly-engineering/fersk/internal/system"
	"github.com/firefly-engineering/fersk/internal/workspace"
)

// Config is the configuration of a Coordinator.
type Config struct {
	// WorkspaceRoot is the directory workspaces are created in
	WorkspaceRoot string

	// Workspace controls what is materialized into each workspace
	Workspace workspace.Options

	// KillDelay bounds how long an interrupted command may take to exit
	// after SIGTERM. Zero waits indefinitely.
	KillDelay time.Duration
}

// Provisioner populates a workspace from a source repository.
type Provisioner interface {
	Provision(ctx context.Context, source, target string) error
}

// Runner executes a command to completion.
type Runner interface {
	Execute(ctx context.Context, spec runner.Spec) (runner.ExitStatus, error)
}

// Invocation is one request to run a command against a source repository.
type Invocation struct {
	// Source is a path inside the repository to copy
	Source string

	// Command is executed inside the workspace; its Dir is replaced by
	// the workspace path.
	Command runner.Spec
}

// Outcome is the result of an invocation.
type Outcome struct {
	// Workspace is the workspace the invocation used. It no longer exists
	// unless CleanupErr is set.
	Workspace Workspace

	// Executed reports whether the command ran and Status is valid
	Executed bool

	// Status is the command's exit status
	Status runner.ExitStatus

	// Err is the primary failure: a *errors.ProvisionError, a
	// *errors.LaunchError, or an interruption before the command started
	Err error

	// CleanupErr is set when the workspace could not be removed. It never
	// replaces the primary result.
	CleanupErr *errors.CleanupError
}

// ExitCode is the exit code fersk should terminate with.
func (o *Outcome) ExitCode() int {
	if o.Err != nil {
		return errors.GetExitCode(o.Err)
	}
	return o.Status.Code
}

// Result returns the primary failure, or the command's exit status as an
// error when it is non-zero.
func (o *Outcome) Result() error {
	if o.Err != nil {
		return o.Err
	}
	return errors.ExitStatus(o.Status.Code)
}

// Coordinator drives invocations through provisioning, execution and
// cleanup. It holds no per-invocation state and may run invocations
// concurrently.
type Coordinator struct {
	cfg         Config
	fs          system.FileSystem
	provisioner Provisioner
	runner      Runner
	newID       func() string
	now         func() time.Time
	observers   []Observer
}

// Option configures a Coordinator
type Option func(*Coordinator)

// WithFileSystem sets the filesystem used for workspace allocation and cleanup
func WithFileSystem(fsys system.FileSystem) Option {
	return func(c *Coordinator) {
		c.fs = fsys
	}
}

// WithProvisioner replaces the workspace provisioner
func WithProvisioner(p Provisioner) Option {
	return func(c *Coordinator) {
		c.provisioner = p
	}
}

// WithRunner replaces the command runner
func WithRunner(r Runner) Option {
	return func(c *Coordinator) {
		c.runner = r
	}
}

// WithIDGenerator sets the source of workspace identifiers
func WithIDGenerator(newID func() string) Option {
	return func(c *Coordinator) {
		c.newID = newID
	}
}

// WithClock sets the clock used for lock timestamps
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		c.now = now
	}
}

// WithObserver registers a state transition observer
func WithObserver(o Observer) Option {
	return func(c *Coordinator) {
		c.observers = append(c.observers, o)
	}
}

// New creates a Coordinator. Without options it provisions with git/jj and
// runs commands attached to the current process's standard streams.
func New(cfg Config, opts ...Option) *Coordinator {
	c := &Coordinator{
		cfg:   cfg,
		fs:    system.DefaultFS(),
		newID: uuid.NewString,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.provisioner == nil {
		c.provisioner = workspace.NewProvisioner(cfg.Workspace)
	}
	if c.runner == nil {
		r := runner.New()
		r.KillDelay = cfg.KillDelay
		c.runner = r
	}
	return c
}

// Run provisions a workspace from inv.Source, executes inv.Command in it and
// removes the workspace. Cleanup runs on every path, including panics and
// cancellation. The returned outcome is never nil; the returned error is
// outcome.Err.
func (c *Coordinator) Run(ctx context.Context, inv Invocation) (*Outcome, error) {
	outcome := &Outcome{}
	state := Idle
	transition := func(to State) {
		logging.Debug("invocation state",
			"from", state.String(),
			"to", to.String(),
			"workspace", outcome.Workspace.ID)
		for _, observe := range c.observers {
			observe(state, to)
		}
		state = to
	}

	transition(Provisioning)
	ws, err := c.allocate(inv.Source)

	defer func() {
		transition(Cleaning)
		if cerr := removeWorkspace(c.fs, ws); cerr != nil {
			logging.Warn("workspace cleanup failed", "path", cerr.Path, "error", cerr.Cause)
			outcome.CleanupErr = cerr
		}
		transition(Done)
	}()

	if err != nil {
		outcome.Err = err
		return outcome, err
	}
	outcome.Workspace = *ws

	logging.Debug("provisioning workspace", "source", inv.Source, "path", ws.Path)
	if err := c.provisioner.Provision(ctx, inv.Source, ws.Path); err != nil {
		var provErr *errors.ProvisionError
		if !errors.As(err, &provErr) {
			err = errors.Provision(errors.ExtractionFailed, ws.Path, err)
		}
		if ctx.Err() != nil {
			err = errors.Interrupted(err)
		}
		outcome.Err = err
		return outcome, err
	}

	if err := ctx.Err(); err != nil {
		outcome.Err = errors.Interrupted(err)
		return outcome, outcome.Err
	}

	transition(Executing)
	spec := inv.Command
	spec.Dir = ws.Path
	status, err := c.runner.Execute(ctx, spec)
	if err != nil {
		var launchErr *errors.LaunchError
		if !errors.As(err, &launchErr) {
			err = errors.Launch(errors.SpawnFailed, spec.String(), err)
		}
		outcome.Err = err
		return outcome, err
	}

	outcome.Executed = true
	outcome.Status = status
	return outcome, nil
}
