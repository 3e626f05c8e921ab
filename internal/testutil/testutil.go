// Package testutil provides test utilities for integration tests
package testutil

import (
	"crypto/sha256"
	"encoding/hex"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

// RequireGit skips the test if git is not available
func RequireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not found in PATH, skipping test")
	}
}

// RequireJJ skips the test if jj is not available
func RequireJJ(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("jj"); err != nil {
		t.Skip("jj not found in PATH, skipping test")
	}
}

// Git runs git in dir and returns its trimmed output, failing the test on error.
func Git(t *testing.T, dir string, args ...string) string {
	t.Helper()

	cmd := exec.Command("git", append([]string{"-C", dir}, args...)...)
	cmd.Env = gitEnv()
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git %s failed: %s: %v", strings.Join(args, " "), output, err)
	}
	return strings.TrimSpace(string(output))
}

// gitEnv isolates test git invocations from the user's configuration.
func gitEnv() []string {
	return append(os.Environ(),
		"GIT_CONFIG_GLOBAL=/dev/null",
		"GIT_CONFIG_NOSYSTEM=1",
		"GIT_AUTHOR_NAME=Test User",
		"GIT_AUTHOR_EMAIL=test@test.com",
		"GIT_COMMITTER_NAME=Test User",
		"GIT_COMMITTER_EMAIL=test@test.com",
		"GIT_ALLOW_PROTOCOL=file",
	)
}

// WriteFiles writes files relative to dir, creating parent directories.
func WriteFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()

	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("Failed to create directory for %s: %v", name, err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}
}

// NewGitRepo initializes a git repository on branch main with one commit
// containing files.
func NewGitRepo(t *testing.T, files map[string]string) string {
	t.Helper()
	RequireGit(t)

	dir := t.TempDir()
	Git(t, dir, "init", "--quiet", "--initial-branch=main")
	Git(t, dir, "config", "user.email", "test@test.com")
	Git(t, dir, "config", "user.name", "Test User")
	Git(t, dir, "config", "commit.gpgsign", "false")

	if len(files) > 0 {
		Commit(t, dir, "Initial commit", files)
	}
	return dir
}

// Commit writes files, stages everything and commits.
func Commit(t *testing.T, dir, message string, files map[string]string) string {
	t.Helper()

	WriteFiles(t, dir, files)
	Git(t, dir, "add", "--all")
	Git(t, dir, "commit", "--quiet", "-m", message)
	return Git(t, dir, "rev-parse", "HEAD")
}

// ReadFile returns the content of a file relative to dir, or "" if missing.
func ReadFile(t *testing.T, dir, name string) string {
	t.Helper()

	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return ""
	}
	return string(data)
}

// RepoState captures everything a user could observe about a repository.
type RepoState struct {
	Head      string
	Ref       string
	Refs      string
	Status    string
	Worktrees string
	IndexHash string
	TreeHash  string
}

// CaptureRepoState records the state of the repository at dir. The index is
// hashed before any git command runs, and git runs with --no-optional-locks,
// so capturing does not itself change the state.
func CaptureRepoState(t *testing.T, dir string) RepoState {
	t.Helper()

	state := RepoState{
		IndexHash: hashFile(t, filepath.Join(dir, ".git", "index")),
		TreeHash:  hashTree(t, dir),
	}

	state.Head = Git(t, dir, "--no-optional-locks", "rev-parse", "HEAD")
	state.Ref = Git(t, dir, "--no-optional-locks", "rev-parse", "--symbolic-full-name", "HEAD")
	state.Refs = Git(t, dir, "--no-optional-locks", "for-each-ref")
	state.Status = Git(t, dir, "--no-optional-locks", "status", "--porcelain=v1", "--ignored", "--untracked-files=all")
	state.Worktrees = Git(t, dir, "--no-optional-locks", "worktree", "list", "--porcelain")

	return state
}

func hashFile(t *testing.T, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ""
		}
		t.Fatalf("Failed to read %s: %v", path, err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// hashTree hashes paths, modes and contents of the working tree, skipping .git.
func hashTree(t *testing.T, dir string) string {
	t.Helper()

	var entries []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(dir, path)
		if d.IsDir() && d.Name() == ".git" {
			return filepath.SkipDir
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		entry := rel + " " + info.Mode().String()
		if info.Mode().IsRegular() {
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			sum := sha256.Sum256(data)
			entry += " " + hex.EncodeToString(sum[:])
		}
		entries = append(entries, entry)
		return nil
	})
	if err != nil {
		t.Fatalf("Failed to hash tree %s: %v", dir, err)
	}

	sort.Strings(entries)
	sum := sha256.Sum256([]byte(strings.Join(entries, "\n")))
	return hex.EncodeToString(sum[:])
}
