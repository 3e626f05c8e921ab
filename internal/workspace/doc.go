// Package workspace materializes clean copies of version-controlled source trees.
//
// A clean copy holds exactly the committed state of a repository: the tree of
// the checked-out commit, without staged, modified or untracked files unless
// asked for. The source repository is only read; every command run against it
// is read-only (git with --no-optional-locks, jj with --ignore-working-copy).
//
// # Backend Interface
//
// The Backend interface separates inspecting a repository from populating a
// target directory:
//
//	type Backend interface {
//	    Name() string                     // "jj" or "git"
//	    IsRepo(path string) bool          // Check for a repository root
//	    Resolve(ctx, path) (*Snapshot, error)
//	    Materialize(ctx, snap, target) error
//	}
//
// # Git Backend
//
// GitBackend clones the source into the target without a checkout, then
// checks out the source's HEAD commit, recreating the branch name when HEAD
// is attached:
//
//	git clone --no-checkout --quiet /path/to/repo ~/.cache/fersk/fersk-<id>
//	git -C ~/.cache/fersk/fersk-<id> checkout --quiet --force -B main <commit>
//
// # JJ Backend
//
// JJBackend resolves the parent of the working-copy commit (@-), since the
// working-copy commit itself carries in-progress edits, and fetches it from
// the repository's backing git store into a fresh git repository.
//
// # Provisioner
//
// Provisioner locates the repository containing a source path (walking up
// from subdirectories), picks a backend, and materializes into a target that
// must be missing or empty. Submodules are checked out from the source's
// local checkouts when present. With Options.IncludeUncommitted, tracked
// changes and untracked, non-ignored files are overlaid on top.
//
// Every error returned by Provision is an *errors.ProvisionError whose Kind
// tells source problems apart from target and extraction failures.
package workspace
