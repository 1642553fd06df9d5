// Package logger configures the global zerolog logger.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init sets up the global logger. Dev mode writes human readable lines to
// stderr at debug level, otherwise JSON to stdout at info level.
func Init(dev bool) {
	Setup(os.Stdout, dev)
}

// Setup same as Init with an explicit writer
func Setup(w io.Writer, dev bool) {
	zerolog.TimeFieldFormat = time.RFC3339

	if dev {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).
			With().Timestamp().Logger()
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		return
	}

	log.Logger = zerolog.New(w).With().Timestamp().Logger()
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}
