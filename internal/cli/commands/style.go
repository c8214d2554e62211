package commands

import (
	"os"

	"github.com/muesli/termenv"
)

// isTerminal reports whether f is attached to a character device.
func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}

func styleFaint(s string) string {
	return termenv.String(s).Faint().String()
}

func styleGreen(s string) string {
	return termenv.String(s).Foreground(termenv.ANSIGreen).String()
}

func styleRed(s string) string {
	return termenv.String(s).Foreground(termenv.ANSIRed).String()
}

func styleYellow(s string) string {
	return termenv.String(s).Foreground(termenv.ANSIYellow).String()
}

func styleBold(s string) string {
	return termenv.String(s).Bold().String()
}
