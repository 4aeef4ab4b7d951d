// Package colors provides the terminal palette used by the reasm CLI.
//
// Colors are disabled automatically when stdout is not a terminal; Init
// overrides that from the --color flag.
package colors

import "github.com/fatih/color"

// Init overrides the auto-detected color setting when forceColor is non-nil.
func Init(forceColor *bool) {
	if forceColor != nil {
		color.NoColor = !*forceColor
	}
}

// Enabled returns true if colors are currently enabled.
func Enabled() bool {
	return !color.NoColor
}

func Bold() *color.Color  { return color.New(color.Bold) }
func Faint() *color.Color { return color.New(color.Faint) }

// Format highlights an object format name (elf, macho).
func Format() *color.Color { return color.New(color.Bold, color.FgHiBlue) }

// Syntax highlights an assembler syntax name (intel, att).
func Syntax() *color.Color { return color.New(color.FgHiMagenta) }

// Default marks the syntax chosen when none is requested.
func Default() *color.Color { return color.New(color.Faint, color.FgGreen) }

// Path highlights file paths in status lines.
func Path() *color.Color { return color.New(color.FgCyan) }

// Count highlights numbers in summaries.
func Count() *color.Color { return color.New(color.Bold, color.FgHiWhite) }

// Warn highlights non-zero warning counts such as overlaps.
func Warn() *color.Color { return color.New(color.Bold, color.FgHiYellow) }
