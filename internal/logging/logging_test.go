package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestSetup_TextOutput(t *testing.T) {
	var buf bytes.Buffer
	Setup(false, false, &buf)

	Warn("test message", "key", "value")

	output := buf.String()
	if !strings.Contains(output, "test message") {
		t.Errorf("Expected 'test message' in output, got: %s", output)
	}
}

func TestSetup_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	Setup(false, true, &buf)

	Warn("test message", "key", "value")

	output := buf.String()
	// JSON output should contain braces
	if !strings.Contains(output, "{") {
		t.Errorf("Expected JSON output, got: %s", output)
	}
	if !strings.Contains(output, "test message") {
		t.Errorf("Expected 'test message' in output, got: %s", output)
	}
}

func TestSetup_VerboseMode(t *testing.T) {
	var buf bytes.Buffer
	Setup(true, false, &buf)

	Debug("debug message")

	output := buf.String()
	if !strings.Contains(output, "debug message") {
		t.Errorf("Debug message should appear in verbose mode, got: %s", output)
	}
}

func TestSetup_NonVerboseMode(t *testing.T) {
	var buf bytes.Buffer
	Setup(false, false, &buf)

	Debug("debug message")

	output := buf.String()
	if strings.Contains(output, "debug message") {
		t.Errorf("Debug message should NOT appear in non-verbose mode, got: %s", output)
	}
}

func TestDebug(t *testing.T) {
	var buf bytes.Buffer
	Setup(true, false, &buf)

	Debug("debug test", "key", "value")

	output := buf.String()
	if !strings.Contains(output, "debug test") {
		t.Errorf("Expected 'debug test' in output, got: %s", output)
	}
}

func TestWarn(t *testing.T) {
	var buf bytes.Buffer
	Setup(false, false, &buf)

	Warn("warn test", "key", "value")

	output := buf.String()
	if !strings.Contains(output, "warn test") {
		t.Errorf("Expected 'warn test' in output, got: %s", output)
	}
}

func TestWith(t *testing.T) {
	var buf bytes.Buffer
	Setup(false, false, &buf)

	logger := With("component", "test")
	if logger == nil {
		t.Error("With() returned nil")
	}

	logger.Warn("with test")

	output := buf.String()
	if !strings.Contains(output, "with test") {
		t.Errorf("Expected 'with test' in output, got: %s", output)
	}
	if !strings.Contains(output, "component") {
		t.Errorf("Expected 'component' in output, got: %s", output)
	}
}

func TestWith_DebugFollowsVerbosity(t *testing.T) {
	var buf bytes.Buffer
	Setup(false, false, &buf)
	With("workspace", "fersk-1").Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("debug output without verbose: %s", buf.String())
	}

	Setup(true, false, &buf)
	With("workspace", "fersk-1").Debug("shown")
	if !strings.Contains(buf.String(), "workspace=fersk-1") {
		t.Errorf("Expected workspace attribute in output, got: %s", buf.String())
	}
}

func TestSetup_NilWriter(t *testing.T) {
	// Should not panic with nil writer
	Setup(false, false, nil)

	// Logger should still work (writes to stderr)
	if Logger == nil {
		t.Error("Logger should not be nil after Setup with nil writer")
	}
}

func TestSetUserOutput(t *testing.T) {
	var out, errOut bytes.Buffer
	restore := SetUserOutput(&out, &errOut)
	defer restore()

	UserInfo("workspace %s", "/tmp/ws")
	UserSuccess("done")
	UserWarning("careful %d", 1)
	UserError("failed: %v", "boom")

	if !strings.Contains(out.String(), "workspace /tmp/ws") {
		t.Errorf("UserInfo should write to the output stream, got: %s", out.String())
	}
	if !strings.Contains(out.String(), "done") {
		t.Errorf("UserSuccess should write to the output stream, got: %s", out.String())
	}
	if strings.Contains(out.String(), "careful") {
		t.Errorf("UserWarning should not write to the output stream, got: %s", out.String())
	}
	if !strings.Contains(errOut.String(), "careful 1") || !strings.Contains(errOut.String(), "failed: boom") {
		t.Errorf("warnings and errors should go to the error stream, got: %s", errOut.String())
	}
}

func TestSetUserOutput_Restore(t *testing.T) {
	var first, second bytes.Buffer
	restoreFirst := SetUserOutput(&first, &first)
	defer restoreFirst()

	restoreSecond := SetUserOutput(&second, nil)
	UserInfo("to second")
	UserWarning("still first")
	restoreSecond()

	UserInfo("back to first")

	if !strings.Contains(second.String(), "to second") {
		t.Errorf("expected message in second writer, got: %s", second.String())
	}
	if !strings.Contains(first.String(), "still first") {
		t.Errorf("nil writer should keep the previous error stream, got: %s", first.String())
	}
	if !strings.Contains(first.String(), "back to first") {
		t.Errorf("restore should reinstate the previous writer, got: %s", first.String())
	}
}
