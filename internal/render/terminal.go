package render

import (
	"os"

	"github.com/charmbracelet/x/term"
)

// Size is a terminal size in cells.
type Size struct {
	Width  int
	Height int
}

// FallbackSize is used whenever the terminal size cannot be read.
var FallbackSize = Size{Width: 80, Height: 25}

// SizeFunc reports the current terminal size.
type SizeFunc func() Size

// TerminalSize returns a SizeFunc reading the size of f, falling back to
// FallbackSize when f is not a terminal.
func TerminalSize(f *os.File) SizeFunc {
	return func() Size {
		w, h, err := term.GetSize(f.Fd())
		if err != nil || w <= 0 || h <= 0 {
			return FallbackSize
		}
		return Size{Width: w, Height: h}
	}
}

// FixedSize always reports s.
func FixedSize(s Size) SizeFunc {
	return func() Size { return s }
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(f.Fd())
}
