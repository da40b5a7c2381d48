// Package dwlog provides the structured logging and CSV receive-log
// facilities shared by every other package: a small set of named
// "colors" for console output, plus an on-disk CSV log of decoded
// frames.
package dwlog

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
)

// Color is a small set of named output channels rather than free-form
// log levels, so receive/transmit/error lines keep a distinct visual
// treatment.
type Color int

const (
	ColorInfo Color = iota
	ColorError
	ColorRec
	ColorDecoded
	ColorXmit
	ColorDebug
)

// kindPrefix tags receive/decode/transmit lines so they stay
// distinguishable in a scrolling log even without color.
var kindPrefix = map[Color]string{
	ColorRec:     "REC",
	ColorDecoded: "DECODED",
	ColorXmit:    "XMIT",
}

// Logger wraps a charmbracelet/log.Logger with a "current text color":
// the last SetColor call controls how the next Printf-style line is
// emitted.
type Logger struct {
	base    *log.Logger
	current Color
}

// New builds a Logger writing to w (typically os.Stderr). debugLevel
// follows the -d command line option; 0 keeps debug lines quiet.
func New(w *os.File, debugLevel int) *Logger {
	lvl := log.InfoLevel
	if debugLevel > 0 {
		lvl = log.DebugLevel
	}
	base := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Level:           lvl,
	})
	return &Logger{base: base, current: ColorInfo}
}

// SetColor records which "color" subsequent Printf calls should use.
func (l *Logger) SetColor(c Color) {
	l.current = c
}

// Printf emits a line tagged with the current color.
func (l *Logger) Printf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	switch l.current {
	case ColorError:
		l.base.Error(msg)
	case ColorDebug:
		l.base.Debug(msg)
	case ColorRec, ColorDecoded, ColorXmit:
		l.base.With("kind", kindPrefix[l.current]).Info(msg)
	default:
		l.base.Info(msg)
	}
}
