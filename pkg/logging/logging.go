// Package logging builds the zerolog loggers used by both binaries.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// InitLog appends JSON log lines to dest. The terminal client logs here
// because it owns stdout.
func InitLog(dest, component string, debug bool) (zerolog.Logger, io.Closer, error) {
	f, err := os.OpenFile(dest, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return zerolog.Nop(), nil, err
	}
	return New(f, component, debug), f, nil
}

// Console logs to f, pretty printed when f is a terminal.
func Console(f *os.File, component string, debug bool) zerolog.Logger {
	var w io.Writer = f
	if term.IsTerminal(int(f.Fd())) {
		w = zerolog.ConsoleWriter{Out: f, TimeFormat: time.Kitchen}
	}
	return New(w, component, debug)
}

func New(w io.Writer, component string, debug bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Str("component", component).
		Logger()
}
