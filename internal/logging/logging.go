// Package logging holds the process-wide zerolog logger.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the global logger. It is usable before Init is called.
var Logger zerolog.Logger

// Config configures the global logger.
type Config struct {
	Level string
	// JSON emits one JSON object per line instead of console output.
	JSON bool
	// Out defaults to os.Stderr.
	Out io.Writer
}

// Init replaces the global logger.
func Init(cfg Config) {
	out := cfg.Out
	if out == nil {
		out = os.Stderr
	}
	if !cfg.JSON {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	Logger = zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Logger()
}

func Debug() *zerolog.Event { return Logger.Debug() }

func Info() *zerolog.Event { return Logger.Info() }

func Warn() *zerolog.Event { return Logger.Warn() }

func Error() *zerolog.Event { return Logger.Error() }

func init() {
	Init(Config{Level: "info"})
}
