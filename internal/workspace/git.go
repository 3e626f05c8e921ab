package workspace

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/firefly-engineering/fersk/internal/system"
)

// GitBackend implements Backend for git repositories by cloning into the target
type GitBackend struct {
	fs   system.FileSystem
	exec system.CommandExecutor
}

// NewGitBackend returns a git backend using the given filesystem and executor
func NewGitBackend(fsys system.FileSystem, exec system.CommandExecutor) *GitBackend {
	return &GitBackend{fs: fsys, exec: exec}
}

func (b *GitBackend) Name() string {
	return "git"
}

func (b *GitBackend) IsRepo(path string) bool {
	gitPath := filepath.Join(path, ".git")
	info, err := b.fs.Stat(gitPath)
	if err != nil {
		return false
	}
	// .git can be a directory (normal repo) or a file (worktree)
	return info.IsDir() || info.Mode().IsRegular()
}

func (b *GitBackend) Resolve(ctx context.Context, path string) (*Snapshot, error) {
	root, err := gitOutput(ctx, b.exec, sourceGit(path, "rev-parse", "--show-toplevel")...)
	if err != nil {
		return nil, fmt.Errorf("failed to get repository root: %w", err)
	}

	commit, err := gitOutput(ctx, b.exec, sourceGit(root, "rev-parse", "--verify", "--quiet", "HEAD^{commit}")...)
	if err != nil || commit == "" {
		return nil, fmt.Errorf("repository has no commits")
	}

	branch, err := gitOutput(ctx, b.exec, sourceGit(root, "rev-parse", "--abbrev-ref", "HEAD")...)
	if err != nil || branch == "HEAD" {
		branch = ""
	}

	return &Snapshot{
		Root:     root,
		Commit:   commit,
		Branch:   branch,
		GitDir:   root,
		Worktree: root,
	}, nil
}

func (b *GitBackend) Materialize(ctx context.Context, snap *Snapshot, target string) error {
	if err := gitRun(ctx, b.exec, "clone", "--no-checkout", "--quiet", snap.GitDir, target); err != nil {
		return err
	}

	// A detached HEAD that no branch points at is not part of the clone
	if !hasCommit(ctx, b.exec, target, snap.Commit) {
		if err := gitRun(ctx, b.exec, "-C", target, "fetch", "--quiet", "--no-tags", "origin", snap.Commit); err != nil {
			if err := gitRun(ctx, b.exec, "-C", target, "fetch", "--quiet", "--no-tags", "origin", "HEAD"); err != nil {
				return err
			}
		}
	}

	return checkout(ctx, b.exec, target, snap)
}

// sourceGit builds read-only git arguments against a source repository.
// --no-optional-locks keeps status-like commands from refreshing the index.
func sourceGit(repo string, args ...string) []string {
	return append([]string{"--no-optional-locks", "-C", repo}, args...)
}

// gitOutput runs git and returns its trimmed standard output.
func gitOutput(ctx context.Context, exec system.CommandExecutor, args ...string) (string, error) {
	out, err := exec.Output(ctx, "git", args...)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// gitRun runs git and folds its combined output into the error.
func gitRun(ctx context.Context, exec system.CommandExecutor, args ...string) error {
	output, err := exec.Execute(ctx, "git", args...)
	if err != nil {
		return commandError("git", args, output, err)
	}
	return nil
}

func commandError(name string, args []string, output []byte, err error) error {
	op := name
	for i := 0; i < len(args); i++ {
		switch a := args[i]; {
		case a == "-C" || a == "-c" || a == "-R":
			i++
		case !strings.HasPrefix(a, "-"):
			op = name + " " + a
			i = len(args)
		}
	}
	if msg := strings.TrimSpace(string(output)); msg != "" {
		return fmt.Errorf("%s: %s: %w", op, msg, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func hasCommit(ctx context.Context, exec system.CommandExecutor, repo, commit string) bool {
	_, err := exec.Execute(ctx, "git", "-C", repo, "cat-file", "-e", commit+"^{commit}")
	return err == nil
}

// checkout populates the target's working tree at the snapshot commit,
// recreating the source branch name when there is one. The target has no
// index yet, so --force is required for the tree to be written out.
func checkout(ctx context.Context, exec system.CommandExecutor, target string, snap *Snapshot) error {
	if snap.Branch != "" {
		return gitRun(ctx, exec, "-C", target, "checkout", "--quiet", "--force", "-B", snap.Branch, snap.Commit)
	}
	return gitRun(ctx, exec, "-C", target, "checkout", "--quiet", "--force", "--detach", snap.Commit)
}
