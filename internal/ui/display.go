// Package ui provides colored, verbosity-leveled console output.
package ui

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"
)

var (
	// Colors
	Red    = color.New(color.FgRed)
	Green  = color.New(color.FgGreen)
	Yellow = color.New(color.FgYellow)
	Blue   = color.New(color.FgBlue)
	Cyan   = color.New(color.FgCyan)
	Bold   = color.New(color.Bold)
)

// Display writes diagnostic output gated by a verbosity level.
// Level 0 shows only Info/Warning/Error; each -v on the command line
// raises the level by one, unlocking V, VV, and VVV respectively.
type Display struct {
	verbosity int
}

// New creates a Display with the given verbosity level.
func New(verbosity int) *Display {
	return &Display{verbosity: verbosity}
}

// Verbosity returns the configured verbosity level.
func (d *Display) Verbosity() int {
	return d.verbosity
}

// Info prints a message regardless of verbosity.
func (d *Display) Info(format string, args ...any) {
	fmt.Printf(format+"\n", args...)
}

// V prints a message at verbosity >= 1.
func (d *Display) V(format string, args ...any) {
	d.at(1, format, args...)
}

// VV prints a message at verbosity >= 2.
func (d *Display) VV(format string, args ...any) {
	d.at(2, format, args...)
}

// VVV prints a message at verbosity >= 3.
func (d *Display) VVV(format string, args ...any) {
	d.at(3, format, args...)
}

func (d *Display) at(level int, format string, args ...any) {
	if d.verbosity >= level {
		fmt.Printf(format+"\n", args...)
	}
}

// Success prints a green success message with checkmark.
func (d *Display) Success(format string, args ...any) {
	Green.Printf("✓ "+format+"\n", args...)
}

// Warning prints a yellow warning message.
func (d *Display) Warning(format string, args ...any) {
	Yellow.Printf("⚠ "+format+"\n", args...)
}

// Error prints a red error message to stderr.
func (d *Display) Error(format string, args ...any) {
	Red.Fprintf(os.Stderr, "✗ "+format+"\n", args...)
}

// Fatal prints an error to stderr and exits.
func Fatal(format string, args ...any) {
	Red.Fprintf(os.Stderr, "✗ "+format+"\n", args...)
	os.Exit(1)
}

// Width returns the terminal width for stdout, or a default of 80 when
// stdout is not a terminal.
func Width() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return 80
	}
	w, _, err := term.GetSize(fd)
	if err != nil || w <= 0 {
		return 80
	}
	return w
}
