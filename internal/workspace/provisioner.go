package workspace

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	securejoin "github.com/cyphar/filepath-securejoin"

	"github.com/firefly-engineering/fersk/internal/errors"
	"github.com/firefly-engineering/fersk/internal/logging"
	"github.com/firefly-engineering/fersk/internal/system"
)

// Provisioner materializes a clean copy of a source repository into a target directory.
type Provisioner struct {
	fs       system.FileSystem
	exec     system.CommandExecutor
	backends []Backend
	opts     Options
	resolved ResolvedFunc
}

// ResolvedFunc is told which snapshot is about to be materialized into target.
type ResolvedFunc func(backend string, snap *Snapshot, target string)

// ProvisionerOption configures a Provisioner
type ProvisionerOption func(*Provisioner)

// WithFileSystem sets the filesystem used for checks and file copies
func WithFileSystem(fsys system.FileSystem) ProvisionerOption {
	return func(p *Provisioner) {
		p.fs = fsys
	}
}

// WithExecutor sets the executor used to run git and jj
func WithExecutor(exec system.CommandExecutor) ProvisionerOption {
	return func(p *Provisioner) {
		p.exec = exec
	}
}

// WithBackends overrides backend detection order
func WithBackends(backends ...Backend) ProvisionerOption {
	return func(p *Provisioner) {
		p.backends = backends
	}
}

// WithResolved registers a callback run once the source snapshot is known,
// before anything is written to the target.
func WithResolved(fn ResolvedFunc) ProvisionerOption {
	return func(p *Provisioner) {
		p.resolved = fn
	}
}

// NewProvisioner creates a Provisioner with the given options.
func NewProvisioner(opts Options, popts ...ProvisionerOption) *Provisioner {
	p := &Provisioner{
		fs:   system.DefaultFS(),
		exec: system.DefaultExecutor(),
		opts: opts,
	}
	for _, o := range popts {
		o(p)
	}
	if p.backends == nil {
		p.backends = defaultBackends(p.fs, p.exec)
	}
	return p
}

// Provision extracts the committed state of the repository containing
// source into target. Every returned error is an *errors.ProvisionError.
// Nothing outside target is written.
func (p *Provisioner) Provision(ctx context.Context, source, target string) error {
	abs, err := filepath.Abs(source)
	if err != nil {
		return errors.Provision(errors.SourceInvalid, source, err)
	}

	info, err := p.fs.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Provision(errors.SourceNotFound, abs, nil)
		}
		return errors.Provision(errors.SourceInvalid, abs, err)
	}
	if !info.IsDir() {
		return errors.Provision(errors.SourceInvalid, abs, fmt.Errorf("not a directory"))
	}

	backend, repoDir := FindRepository(abs, p.backends)
	if backend == nil {
		return errors.Provision(errors.SourceInvalid, abs, fmt.Errorf("no git or jj repository found"))
	}

	snap, err := backend.Resolve(ctx, repoDir)
	if err != nil {
		return errors.Provision(errors.SourceInvalid, repoDir, err)
	}

	logging.Debug("resolved source snapshot",
		"backend", backend.Name(),
		"root", snap.Root,
		"commit", snap.Commit,
		"branch", snap.Branch)

	if err := p.checkTarget(target); err != nil {
		return errors.Provision(errors.TargetUnavailable, target, err)
	}

	if p.resolved != nil {
		p.resolved(backend.Name(), snap, target)
	}

	if err := backend.Materialize(ctx, snap, target); err != nil {
		return errors.Provision(errors.ExtractionFailed, target, err)
	}

	if p.opts.Submodules {
		if err := p.submodules(ctx, snap, target); err != nil {
			return errors.Provision(errors.ExtractionFailed, target, fmt.Errorf("submodules: %w", err))
		}
	}

	if p.opts.IncludeUncommitted {
		if snap.Worktree == "" {
			logging.Warn("uncommitted changes are only copied from git working trees", "backend", backend.Name())
		} else if err := p.overlay(ctx, snap.Worktree, target); err != nil {
			return errors.Provision(errors.ExtractionFailed, target, fmt.Errorf("uncommitted changes: %w", err))
		}
	}

	return nil
}

// checkTarget accepts a missing or empty directory.
func (p *Provisioner) checkTarget(target string) error {
	info, err := p.fs.Stat(target)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("path exists and is not a directory")
	}
	entries, err := p.fs.ReadDir(target)
	if err != nil {
		return err
	}
	if len(entries) > 0 {
		return fmt.Errorf("directory is not empty")
	}
	return nil
}

// submodules checks out every submodule recorded in the target's .gitmodules.
// Submodules already checked out in the source are cloned from there rather
// than from their configured remote.
func (p *Provisioner) submodules(ctx context.Context, snap *Snapshot, target string) error {
	if !p.fs.Exists(filepath.Join(target, ".gitmodules")) {
		return nil
	}

	if err := gitRun(ctx, p.exec, "-C", target, "submodule", "init"); err != nil {
		return err
	}

	paths, err := gitOutput(ctx, p.exec, "-C", target, "config", "--file", ".gitmodules", "--get-regexp", `^submodule\..*\.path$`)
	if err != nil {
		return fmt.Errorf("failed to list submodules: %w", err)
	}

	for _, line := range strings.Split(paths, "\n") {
		key, path, ok := strings.Cut(strings.TrimSpace(line), " ")
		if !ok {
			continue
		}
		name := strings.TrimSuffix(strings.TrimPrefix(key, "submodule."), ".path")
		local := filepath.Join(snap.Root, path)
		if !p.fs.Exists(filepath.Join(local, ".git")) {
			continue
		}
		logging.Debug("using local submodule checkout", "name", name, "path", local)
		if err := gitRun(ctx, p.exec, "-C", target, "config", "submodule."+name+".url", local); err != nil {
			return err
		}
	}

	return gitRun(ctx, p.exec, "-C", target, "-c", "protocol.file.allow=always",
		"submodule", "update", "--init", "--recursive", "--quiet")
}

// overlay applies the worktree's uncommitted state to target: tracked
// modifications as a binary diff and untracked, non-ignored files as copies.
// Untracked nested repositories are skipped.
func (p *Provisioner) overlay(ctx context.Context, worktree, target string) error {
	diff, err := p.exec.Output(ctx, "git", sourceGit(worktree,
		"diff", "--binary", "--no-color", "--no-ext-diff", "--ignore-submodules=all", "HEAD")...)
	if err != nil {
		return fmt.Errorf("failed to diff working tree: %w", err)
	}
	if len(bytes.TrimSpace(diff)) > 0 {
		output, err := p.exec.ExecuteWithStdin(ctx, diff, "git", "-C", target, "apply", "--binary", "--whitespace=nowarn")
		if err != nil {
			return commandError("git", []string{"apply"}, output, err)
		}
	}

	untracked, err := p.exec.Output(ctx, "git", sourceGit(worktree,
		"ls-files", "-z", "--others", "--exclude-standard")...)
	if err != nil {
		return fmt.Errorf("failed to list untracked files: %w", err)
	}

	for _, rel := range strings.Split(string(untracked), "\x00") {
		if rel == "" {
			continue
		}
		// ls-files reports an untracked nested repository as "dir/"
		if strings.HasSuffix(rel, "/") {
			logging.Warn("skipping untracked nested repository", "path", strings.TrimSuffix(rel, "/"))
			continue
		}
		dst, err := securejoin.SecureJoin(target, rel)
		if err != nil {
			return fmt.Errorf("untracked file %s: %w", rel, err)
		}
		if err := p.fs.MkdirAll(filepath.Dir(dst), 0755); err != nil {
			return err
		}
		if err := p.fs.CopyFile(filepath.Join(worktree, rel), dst); err != nil {
			return fmt.Errorf("failed to copy untracked file %s: %w", rel, err)
		}
	}

	return nil
}
