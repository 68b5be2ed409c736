// Package logger configures the process-wide zerolog logger.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"pagewatch/internal/config"
)

// Setup applies the log configuration to the global zerolog logger.
//
// JSON lines are written to stderr unless cfg.Pretty is set, in which case a
// human-readable console writer with RFC3339 timestamps is used.
func Setup(cfg config.LogConfig) {
	Configure(cfg, os.Stderr)
}

// Configure is Setup with an explicit output writer.
func Configure(cfg config.LogConfig, out io.Writer) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	log.Logger = zerolog.New(out).With().Timestamp().Logger()
}
