// Package testutil provides test fixtures and git repository helpers.
//
// # Fixtures
//
// TOML config fixtures are embedded using go:embed:
//
//	fixtures/valid_config.toml
//	fixtures/invalid_config.toml
//
// FixturePath writes a fixture to a temp dir so it can be passed to
// config.Load or to the --config flag:
//
//	cfg, err := config.Load(testutil.ValidConfigPath(t))
//
// # Repositories
//
// NewGitRepo creates a throwaway repository on branch main, isolated from the
// user's git configuration:
//
//	repo := testutil.NewGitRepo(t, map[string]string{"a.txt": "hello"})
//	testutil.Commit(t, repo, "second", map[string]string{"b.txt": "world"})
//
// # Source Invariants
//
// CaptureRepoState records HEAD, refs, status, worktrees, and hashes of the
// index and working tree, so a test can assert that an operation left a
// repository untouched:
//
//	before := testutil.CaptureRepoState(t, repo)
//	// ... run fersk against repo ...
//	if after := testutil.CaptureRepoState(t, repo); after != before {
//	    t.Errorf("source repository changed")
//	}
package testutil
