// Package logging provides the structured component logger used across
// the accrual engine's processes.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// ComponentLogger is a zerolog.Logger pre-tagged with a component name and
// the running build version, so every line a process emits carries both.
type ComponentLogger struct {
	logger    zerolog.Logger
	component string
	version   string
}

// NewComponentLogger builds a logger for component, writing pretty console
// output when attached to a terminal and plain JSON otherwise. LOG_LEVEL
// (debug/info/warn/error, case-insensitive) sets the global level; DEBUG=true
// is honored as a shorthand for LOG_LEVEL=debug when LOG_LEVEL is unset.
func NewComponentLogger(component, version string) *ComponentLogger {
	var output io.Writer = os.Stdout
	if isatty.IsTerminal(os.Stdout.Fd()) {
		output = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	logger := zerolog.New(output).
		With().
		Timestamp().
		Str("component", component).
		Str("version", version).
		Logger()

	zerolog.SetGlobalLevel(parseLogLevel())

	return &ComponentLogger{logger: logger, component: component, version: version}
}

func parseLogLevel() zerolog.Level {
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "info":
		return zerolog.InfoLevel
	}
	if os.Getenv("DEBUG") == "true" {
		return zerolog.DebugLevel
	}
	return zerolog.InfoLevel
}

func (cl *ComponentLogger) Info() *zerolog.Event  { return cl.logger.Info() }
func (cl *ComponentLogger) Debug() *zerolog.Event { return cl.logger.Debug() }
func (cl *ComponentLogger) Warn() *zerolog.Event  { return cl.logger.Warn() }
func (cl *ComponentLogger) Error() *zerolog.Event { return cl.logger.Error() }
func (cl *ComponentLogger) Fatal() *zerolog.Event { return cl.logger.Fatal() }

// With returns a zerolog.Context seeded from this logger, for callers that
// need to attach request-scoped fields (e.g. a request id) to a derived
// logger.
func (cl *ComponentLogger) With() zerolog.Context { return cl.logger.With() }

// Logger exposes the underlying zerolog.Logger for packages that need to
// build child loggers directly.
func (cl *ComponentLogger) Logger() zerolog.Logger { return cl.logger }

// StartupConfig holds the fields LogStartup renders; callers populate only
// what's meaningful for the process they're starting.
type StartupConfig struct {
	HTTPAddr    string
	DatabaseDSN string
	Environment string
}

// LogStartup emits one structured line summarizing how a process came up.
// DatabaseDSN is logged with its credentials stripped; callers must pass
// an already-redacted value.
func (cl *ComponentLogger) LogStartup(cfg StartupConfig) {
	cl.Info().
		Str("http_addr", cfg.HTTPAddr).
		Str("database_dsn", cfg.DatabaseDSN).
		Str("environment", cfg.Environment).
		Msg("starting referral accrual engine")
}
