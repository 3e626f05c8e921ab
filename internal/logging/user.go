package logging

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// User-facing output functions with status glyphs.
// These write to the user streams directly for CLI output,
// separate from the structured debug logging.

var (
	infoGlyph    = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Render("ℹ")
	successGlyph = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render("✓")
	warningGlyph = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true).Render("⚠")
	errorGlyph   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true).Render("✗")
)

var (
	userMu  sync.Mutex
	userOut io.Writer = os.Stdout
	userErr io.Writer = os.Stderr
)

// SetUserOutput redirects user-facing messages. A nil writer keeps the
// current destination. It returns a function restoring the previous writers.
//
// While a command runs in a workspace its stdout belongs to the command, so
// the run command points both streams at stderr.
func SetUserOutput(out, errOut io.Writer) func() {
	userMu.Lock()
	defer userMu.Unlock()

	prevOut, prevErr := userOut, userErr
	if out != nil {
		userOut = out
	}
	if errOut != nil {
		userErr = errOut
	}
	return func() {
		userMu.Lock()
		defer userMu.Unlock()
		userOut, userErr = prevOut, prevErr
	}
}

func userPrint(toErr bool, glyph, format string, args ...interface{}) {
	userMu.Lock()
	w := userOut
	if toErr {
		w = userErr
	}
	userMu.Unlock()
	fmt.Fprintf(w, glyph+" "+format+"\n", args...)
}

// UserInfo prints an info message to the user output stream.
func UserInfo(format string, args ...interface{}) {
	userPrint(false, infoGlyph, format, args...)
}

// UserSuccess prints a success message to the user output stream.
func UserSuccess(format string, args ...interface{}) {
	userPrint(false, successGlyph, format, args...)
}

// UserWarning prints a warning message to the user error stream.
func UserWarning(format string, args ...interface{}) {
	userPrint(true, warningGlyph, format, args...)
}

// UserError prints an error message to the user error stream.
func UserError(format string, args ...interface{}) {
	userPrint(true, errorGlyph, format, args...)
}
