// Package workspace provides a common interface for VCS workspace backends
package workspace

import (
	"context"
	"path/filepath"

	"github.com/firefly-engineering/fersk/internal/system"
)

// Backend materializes committed repository state for a version control system
type Backend interface {
	// Name returns the backend name (e.g., "jj", "git")
	Name() string

	// IsRepo checks if path is the root of a repository for this backend
	IsRepo(path string) bool

	// Resolve inspects the repository containing path without modifying it
	// and returns the snapshot to materialize.
	Resolve(ctx context.Context, path string) (*Snapshot, error)

	// Materialize populates target with the snapshot's committed tree.
	// target must not exist or be empty.
	Materialize(ctx context.Context, snap *Snapshot, target string) error
}

// Snapshot identifies the committed state of a source repository
type Snapshot struct {
	// Root is the repository's working tree root
	Root string

	// Commit is the full commit id to check out
	Commit string

	// Branch is the checked-out branch, empty when HEAD is detached
	Branch string

	// GitDir is the git repository objects are fetched from
	GitDir string

	// Worktree is a git working tree whose uncommitted changes can be
	// diffed against Commit. Empty when no git working tree exists
	// (e.g., a jj repository that is not colocated).
	Worktree string
}

// Options controls what is materialized besides the committed tree
type Options struct {
	// IncludeUncommitted overlays tracked modifications and untracked,
	// non-ignored files from the source working tree.
	IncludeUncommitted bool

	// Submodules initializes and checks out git submodules.
	Submodules bool
}

// DefaultOptions returns a clean copy with submodules.
func DefaultOptions() Options {
	return Options{Submodules: true}
}

// FindRepository walks from path up to the filesystem root and returns the
// first directory recognized by one of the backends, together with that backend.
func FindRepository(path string, backends []Backend) (Backend, string) {
	dir := filepath.Clean(path)
	for {
		if b := detectIn(dir, backends); b != nil {
			return b, dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, ""
		}
		dir = parent
	}
}

func detectIn(path string, backends []Backend) Backend {
	for _, b := range backends {
		if b.IsRepo(path) {
			return b
		}
	}
	return nil
}

// defaultBackends checks jj first, since colocated jj repos also contain .git.
func defaultBackends(fsys system.FileSystem, exec system.CommandExecutor) []Backend {
	return []Backend{
		NewJJBackend(fsys, exec),
		NewGitBackend(fsys, exec),
	}
}
