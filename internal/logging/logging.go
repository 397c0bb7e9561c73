// Package logging configures the global zerolog logger: human-readable
// console output, plus an optional rotating file sink for long batch runs.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Setup wires the global logger. logFile may be empty to log to the
// console only; verbose lowers the level to Debug.
func Setup(logFile string, verbose bool) {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}

	var sink io.Writer = console
	if logFile != "" {
		rotating := &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    10, // MB
			MaxBackups: 3,
			MaxAge:     14, // days
			Compress:   true,
		}
		sink = zerolog.MultiLevelWriter(console, rotating)
	}

	log.Logger = zerolog.New(sink).With().Timestamp().Logger()
}
