package workspace

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/firefly-engineering/fersk/internal/system"
)

// sourceRefPrefix namespaces the refs fetched from a jj repository's git store.
const sourceRefPrefix = "refs/fersk/source/"

// JJBackend implements Backend for jj (Jujutsu) repositories.
// jj stores commits in a git repository, so the target is populated with git
// from that store; jj itself is only queried, always with --ignore-working-copy
// so the source working copy is never snapshotted.
type JJBackend struct {
	fs   system.FileSystem
	exec system.CommandExecutor
}

// NewJJBackend returns a jj backend using the given filesystem and executor
func NewJJBackend(fsys system.FileSystem, exec system.CommandExecutor) *JJBackend {
	return &JJBackend{fs: fsys, exec: exec}
}

func (b *JJBackend) Name() string {
	return "jj"
}

func (b *JJBackend) IsRepo(path string) bool {
	// .jj/repo is a directory in the main workspace and a file pointing
	// at the repo in secondary workspaces
	return b.fs.Exists(filepath.Join(path, ".jj", "repo"))
}

func (b *JJBackend) Resolve(ctx context.Context, path string) (*Snapshot, error) {
	root, err := b.jj(ctx, "root", "-R", path)
	if err != nil {
		return nil, fmt.Errorf("failed to get workspace root: %w", err)
	}

	// The working-copy commit always carries uncommitted edits; its parent
	// is the committed state.
	parents, err := b.jj(ctx, "log", "-R", root, "--no-graph", "-r", "@-", "-T", `commit_id ++ "\n"`)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve working-copy parent: %w", err)
	}
	commits := strings.Fields(parents)
	switch {
	case len(commits) == 0:
		return nil, fmt.Errorf("repository has no commits")
	case len(commits) > 1:
		return nil, fmt.Errorf("working copy has %d parents, cannot pick one", len(commits))
	case strings.Trim(commits[0], "0") == "":
		return nil, fmt.Errorf("repository has no commits")
	}

	gitDir, err := b.gitStore(ctx, root)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Root:   root,
		Commit: commits[0],
		GitDir: gitDir,
	}

	// Colocated repositories keep git's HEAD at @-, so git can diff the
	// working copy against it.
	if b.fs.Exists(filepath.Join(root, ".git")) {
		snap.Worktree = root
	}

	return snap, nil
}

func (b *JJBackend) Materialize(ctx context.Context, snap *Snapshot, target string) error {
	if err := gitRun(ctx, b.exec, "init", "--quiet", target); err != nil {
		return err
	}

	refspec := "+refs/*:" + sourceRefPrefix + "*"
	if err := gitRun(ctx, b.exec, "-C", target, "fetch", "--quiet", "--no-tags", snap.GitDir, refspec); err != nil {
		return err
	}

	if !hasCommit(ctx, b.exec, target, snap.Commit) {
		if err := gitRun(ctx, b.exec, "-C", target, "fetch", "--quiet", "--no-tags", snap.GitDir, snap.Commit); err != nil {
			return fmt.Errorf("commit %s is not reachable in %s: %w", snap.Commit, snap.GitDir, err)
		}
	}

	return checkout(ctx, b.exec, target, snap)
}

// gitStore locates the git repository backing the jj repo at root.
func (b *JJBackend) gitStore(ctx context.Context, root string) (string, error) {
	if dir, err := b.jj(ctx, "git", "root", "-R", root); err == nil && dir != "" {
		return dir, nil
	}

	// Older jj releases lack `jj git root`; read the store's pointer instead.
	repoDir := filepath.Join(root, ".jj", "repo")
	if !b.fs.IsDir(repoDir) {
		data, err := b.fs.ReadFile(repoDir)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", repoDir, err)
		}
		repoDir = resolveRelative(filepath.Join(root, ".jj"), strings.TrimSpace(string(data)))
	}

	storeDir := filepath.Join(repoDir, "store")
	data, err := b.fs.ReadFile(filepath.Join(storeDir, "git_target"))
	if err != nil {
		return "", fmt.Errorf("repository is not backed by git: %w", err)
	}
	return resolveRelative(storeDir, strings.TrimSpace(string(data))), nil
}

// jj runs a read-only jj command and returns its trimmed output.
func (b *JJBackend) jj(ctx context.Context, args ...string) (string, error) {
	args = append(args, "--ignore-working-copy", "--color", "never")
	out, err := b.exec.Output(ctx, "jj", args...)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

func resolveRelative(base, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(base, path)
}
