// Package logger configures the global zerolog logger
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup installs the global logger. format "json" writes structured lines,
// anything else a human readable console. debug lowers the level to debug.
func Setup(format string, debug bool) {
	log.Logger = New(os.Stdout, format, debug)
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
}

// New builds a logger writing to out
func New(out io.Writer, format string, debug bool) zerolog.Logger {
	if format != "json" {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
			NoColor:    !debug,
		}
	}
	return zerolog.New(out).With().Timestamp().Logger()
}
