package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/firefly-engineering/fersk/internal/config"
	"github.com/firefly-engineering/fersk/internal/errors"
	"github.com/firefly-engineering/fersk/internal/logging"
	"github.com/firefly-engineering/fersk/internal/testutil"
)

// resetFlags restores every flag to its default so commands can be
// executed repeatedly against the shared rootCmd.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// executeCommand runs the root command with args and returns what it wrote
// to stdout and stderr. User-facing messages are captured as well.
func executeCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	// Never pick up the developer's own config file
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	resetFlags(rootCmd)

	var stdout, stderr bytes.Buffer
	restore := logging.SetUserOutput(&stdout, &stderr)
	defer restore()

	rootCmd.SetArgs(args)
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)

	err := rootCmd.Execute()

	rootCmd.SetArgs(nil)
	rootCmd.SetOut(nil)
	rootCmd.SetErr(nil)

	return stdout.String(), stderr.String(), err
}

func writeConfig(t *testing.T, workPath string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	data := "work-path = \"" + workPath + "\"\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func assertEmptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil && !os.IsNotExist(err) {
		t.Fatalf("ReadDir(%s) error = %v", dir, err)
	}
	for _, e := range entries {
		t.Errorf("leftover in %s: %s", dir, e.Name())
	}
}

func TestRootCommand_Help(t *testing.T) {
	stdout, _, err := executeCommand(t, "--help")
	if err != nil {
		t.Fatalf("Help command failed: %v", err)
	}

	for _, want := range []string{"fersk", "run", "gc", "generate-config", "version", "--config"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("help output should mention %q", want)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	stdout, _, err := executeCommand(t, "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.HasPrefix(stdout, "fersk ") {
		t.Errorf("version output = %q", stdout)
	}
}

func TestUnknownCommand(t *testing.T) {
	_, _, err := executeCommand(t, "frobnicate")
	if err == nil {
		t.Fatal("unknown command should fail")
	}
	if code := errors.GetExitCode(err); code != errors.ExitGeneralError {
		t.Errorf("exit code = %d, want %d", code, errors.ExitGeneralError)
	}
}

func TestRunCommand_Validation(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no command", []string{"run"}, "no command given"},
		{"command and -c", []string{"run", "-c", "true", "--", "false"}, "cannot be combined"},
		{"unbalanced quotes", []string{"run", "-c", "echo 'oops"}, "invalid command line"},
		{"blank -c", []string{"run", "-c", "   "}, "empty command line"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := executeCommand(t, tt.args...)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want it to mention %q", err, tt.want)
			}
			if code := errors.GetExitCode(err); code != errors.ExitGeneralError {
				t.Errorf("exit code = %d, want %d", code, errors.ExitGeneralError)
			}
		})
	}
}

func TestRunCommand_RunsInCleanCopy(t *testing.T) {
	repo := testutil.NewGitRepo(t, map[string]string{"a.txt": "hello"})
	testutil.WriteFiles(t, repo, map[string]string{"a.txt": "edited", "untracked.txt": "x"})
	workRoot := t.TempDir()

	stdout, stderr, err := executeCommand(t, "run", "--work-root", workRoot, "-C", repo, "--",
		"sh", "-c", "cat a.txt; test -e untracked.txt && echo leaked; true")
	if err != nil {
		t.Fatalf("run failed: %v\nstderr: %s", err, stderr)
	}

	if stdout != "hello" {
		t.Errorf("stdout = %q, want only the command's output", stdout)
	}
	for _, want := range []string{"Source repository:", "Working directory:", "Current branch: main"} {
		if !strings.Contains(stderr, want) {
			t.Errorf("stderr should contain %q, got:\n%s", want, stderr)
		}
	}
	assertEmptyDir(t, workRoot)
}

func TestRunCommand_IncludeUncommitted(t *testing.T) {
	repo := testutil.NewGitRepo(t, map[string]string{"a.txt": "hello"})
	testutil.WriteFiles(t, repo, map[string]string{"a.txt": "edited"})
	workRoot := t.TempDir()

	stdout, stderr, err := executeCommand(t, "run", "--work-root", workRoot, "-C", repo,
		"--include-uncommitted", "cat", "a.txt")
	if err != nil {
		t.Fatalf("run failed: %v\nstderr: %s", err, stderr)
	}
	if stdout != "edited" {
		t.Errorf("stdout = %q, want edited", stdout)
	}
}

func TestRunCommand_CommandString(t *testing.T) {
	repo := testutil.NewGitRepo(t, map[string]string{"a.txt": "hello"})
	workRoot := t.TempDir()

	stdout, stderr, err := executeCommand(t, "run", "--work-root", workRoot, "-C", repo,
		"-c", `sh -c 'echo "$0 $1"' one "two words"`)
	if err != nil {
		t.Fatalf("run failed: %v\nstderr: %s", err, stderr)
	}
	if stdout != "one two words\n" {
		t.Errorf("stdout = %q", stdout)
	}
}

func TestRunCommand_ExitCodes(t *testing.T) {
	repo := testutil.NewGitRepo(t, map[string]string{"a.txt": "hello"})

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"success", []string{"true"}, 0},
		{"command exit status", []string{"sh", "-c", "exit 42"}, 42},
		{"not found", []string{"fersk-no-such-command"}, errors.ExitNotFound},
		{"not executable", []string{"./a.txt"}, errors.ExitNotExecutable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			workRoot := t.TempDir()
			args := append([]string{"run", "--work-root", workRoot, "-C", repo, "--"}, tt.args...)
			_, _, err := executeCommand(t, args...)
			if code := errors.GetExitCode(err); code != tt.want {
				t.Errorf("exit code = %d (err %v), want %d", code, err, tt.want)
			}
			if tt.want > 0 && tt.want < 124 && !errors.IsExitStatus(err) {
				t.Errorf("a command's own exit status should pass through, got %v", err)
			}
			assertEmptyDir(t, workRoot)
		})
	}
}

func TestRunCommand_ProvisionFailure(t *testing.T) {
	workRoot := t.TempDir()
	missing := filepath.Join(t.TempDir(), "missing")

	_, _, err := executeCommand(t, "run", "--work-root", workRoot, "-C", missing, "true")
	if !errors.IsProvision(err, errors.SourceNotFound) {
		t.Fatalf("error = %v, want SourceNotFound", err)
	}
	if code := errors.GetExitCode(err); code != errors.ExitProvisionFailed {
		t.Errorf("exit code = %d, want %d", code, errors.ExitProvisionFailed)
	}
	assertEmptyDir(t, workRoot)
}

func TestRunCommand_SharedWorkRoot(t *testing.T) {
	repo := testutil.NewGitRepo(t, map[string]string{"a.txt": "hello"})
	workRoot := t.TempDir()
	if err := os.Chmod(workRoot, 0777); err != nil {
		t.Fatal(err)
	}

	stdout, _, err := executeCommand(t, "run", "--work-root", workRoot, "-C", repo, "--", "echo", "ran")
	if !errors.IsProvision(err, errors.TargetUnavailable) {
		t.Fatalf("error = %v, want TargetUnavailable", err)
	}
	if code := errors.GetExitCode(err); code != errors.ExitProvisionFailed {
		t.Errorf("exit code = %d, want %d", code, errors.ExitProvisionFailed)
	}
	if stdout != "" {
		t.Errorf("command should not run, stdout = %q", stdout)
	}
	assertEmptyDir(t, workRoot)
}

func TestRunCommand_VerboseLogsOutcome(t *testing.T) {
	repo := testutil.NewGitRepo(t, map[string]string{"a.txt": "hello"})
	workRoot := t.TempDir()

	_, stderr, err := executeCommand(t, "--verbose", "run", "--work-root", workRoot, "-C", repo, "--", "sh", "-c", "exit 3")
	if code := errors.GetExitCode(err); code != 3 {
		t.Fatalf("exit code = %d, want 3 (err = %v)", code, err)
	}
	if !strings.Contains(stderr, "command finished") || !strings.Contains(stderr, "workspace=fersk-") {
		t.Errorf("stderr should log the outcome with its workspace, got:\n%s", stderr)
	}
	if !strings.Contains(stderr, "code=3") {
		t.Errorf("stderr should log the exit code, got:\n%s", stderr)
	}
}

func TestRunCommand_ConfigFile(t *testing.T) {
	repo := testutil.NewGitRepo(t, map[string]string{"a.txt": "hello"})
	workRoot := filepath.Join(t.TempDir(), "from-config")
	cfgPath := writeConfig(t, workRoot)

	stdout, stderr, err := executeCommand(t, "--config", cfgPath, "run", "-C", repo, "--", "pwd", "-P")
	if err != nil {
		t.Fatalf("run failed: %v\nstderr: %s", err, stderr)
	}

	realRoot, err := filepath.EvalSymlinks(workRoot)
	if err != nil {
		t.Fatalf("work root should have been created: %v", err)
	}
	if !strings.HasPrefix(strings.TrimSpace(stdout), filepath.Join(realRoot, config.WorkspacePrefix)) {
		t.Errorf("command ran in %q, want a workspace under %s", stdout, realRoot)
	}
	assertEmptyDir(t, workRoot)
}

func TestRunCommand_ConfigErrors(t *testing.T) {
	dir := t.TempDir()
	invalid := testutil.InvalidConfigPath(t)

	tests := []struct {
		name string
		args []string
	}{
		{"missing explicit config", []string{"--config", filepath.Join(dir, "nope.toml"), "run", "true"}},
		{"invalid config", []string{"--config", invalid, "run", "true"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := executeCommand(t, tt.args...)
			if code := errors.GetExitCode(err); code != errors.ExitConfigError {
				t.Errorf("exit code = %d (err %v), want %d", code, err, errors.ExitConfigError)
			}
		})
	}
}

func TestGenerateConfigCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fersk", "config.toml")

	stdout, _, err := executeCommand(t, "--config", path, "generate-config")
	if err != nil {
		t.Fatalf("generate-config failed: %v", err)
	}
	if !strings.Contains(stdout, "Wrote default config") {
		t.Errorf("stdout = %q", stdout)
	}
	if got := testutil.ReadFile(t, filepath.Dir(path), "config.toml"); got != config.DefaultTOML {
		t.Errorf("generated config = %q", got)
	}
	if _, err := config.Load(path); err != nil {
		t.Errorf("generated config does not load: %v", err)
	}

	if err := os.WriteFile(path, []byte("submodules = false\n"), 0644); err != nil {
		t.Fatal(err)
	}
	stdout, _, err = executeCommand(t, "--config", path, "generate-config")
	if err != nil {
		t.Fatalf("generate-config failed: %v", err)
	}
	if !strings.Contains(stdout, "already exists") {
		t.Errorf("stdout = %q, want existing file to be reported", stdout)
	}
	if got := testutil.ReadFile(t, filepath.Dir(path), "config.toml"); got != "submodules = false\n" {
		t.Errorf("existing config was overwritten: %q", got)
	}
}

func TestGenerateConfigCommand_DefaultLocation(t *testing.T) {
	stdout, _, err := executeCommand(t, "generate-config")
	if err != nil {
		t.Fatalf("generate-config failed: %v", err)
	}

	path := config.DefaultPath()
	if !strings.Contains(stdout, path) {
		t.Errorf("stdout = %q, want it to name %s", stdout, path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("config not written to the default location: %v", err)
	}
}

func TestGCCommand_Help(t *testing.T) {
	stdout, _, err := executeCommand(t, "gc", "--help")
	if err != nil {
		t.Fatalf("Help command failed: %v", err)
	}

	if !strings.Contains(stdout, "orphaned") {
		t.Error("GC help should mention orphaned workspaces")
	}
	if !strings.Contains(stdout, "--force") {
		t.Error("GC help should mention --force flag")
	}
}

func TestGCCommand(t *testing.T) {
	workRoot := t.TempDir()
	orphan := filepath.Join(workRoot, config.WorkspacePrefix+"orphan")
	if err := os.MkdirAll(filepath.Join(orphan, "sub"), 0755); err != nil {
		t.Fatal(err)
	}
	unrelated := filepath.Join(workRoot, "keep-me")
	if err := os.Mkdir(unrelated, 0755); err != nil {
		t.Fatal(err)
	}
	cfgPath := writeConfig(t, workRoot)

	stdout, _, err := executeCommand(t, "--config", cfgPath, "gc")
	if err != nil {
		t.Fatalf("gc dry run failed: %v", err)
	}
	if !strings.Contains(stdout, "Dry run") || !strings.Contains(stdout, orphan) {
		t.Errorf("dry run output = %q, want it to list %s", stdout, orphan)
	}
	if _, err := os.Stat(orphan); err != nil {
		t.Fatal("dry run must not remove anything")
	}

	if _, _, err := executeCommand(t, "--config", cfgPath, "gc", "--force"); err != nil {
		t.Fatalf("gc --force failed: %v", err)
	}
	if _, err := os.Stat(orphan); !os.IsNotExist(err) {
		t.Error("orphaned workspace should be removed")
	}
	if _, err := os.Stat(unrelated); err != nil {
		t.Error("unrelated directories must be left alone")
	}

	stdout, _, err = executeCommand(t, "--config", cfgPath, "gc")
	if err != nil {
		t.Fatalf("gc failed: %v", err)
	}
	if !strings.Contains(stdout, "No orphaned workspaces") {
		t.Errorf("stdout = %q", stdout)
	}
}
