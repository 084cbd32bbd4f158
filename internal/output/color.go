package output

import (
	"io"
	"os"

	"golang.org/x/term"

	"github.com/bimmerbailey/logreason/internal/config"
)

// ANSI escape sequences used for level names.
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorGray   = "\033[90m"
)

// ColorMode determines when to use colored output.
type ColorMode int

const (
	ColorAuto   ColorMode = iota // color only when writing to a terminal
	ColorAlways                  // force color, e.g. when piping into less -R
	ColorNever                   // --no-color
)

// shouldColorize resolves mode against the destination writer. Auto only
// enables color for an *os.File attached to a terminal.
func shouldColorize(mode ColorMode, w io.Writer) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorAuto:
		f, ok := w.(*os.File)
		return ok && term.IsTerminal(int(f.Fd()))
	default:
		return false
	}
}

// levelColors maps severities to their escape sequence. Levels not listed
// (INFO, UNKNOWN) keep the terminal's default color.
var levelColors = map[config.LogLevel]string{
	config.LevelError: colorRed,
	config.LevelWarn:  colorYellow,
	config.LevelDebug: colorGray,
	config.LevelTrace: colorGray,
}

// colorizeLevel wraps text in the color for level.
func colorizeLevel(level config.LogLevel, text string) string {
	c, ok := levelColors[level]
	if !ok {
		return text
	}
	return c + text + colorReset
}

// colorizeLevelName colors a rendered level name such as "ERROR".
func colorizeLevelName(name string) string {
	return colorizeLevel(config.ParseLevel(name), name)
}
