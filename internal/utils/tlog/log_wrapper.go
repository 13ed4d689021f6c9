package tlog

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Logger struct {
	Audit zerolog.Logger
	HTTP  zerolog.Logger
	App   zerolog.Logger
}

var (
	Audit zerolog.Logger
	HTTP  zerolog.Logger
	App   zerolog.Logger
)

func NewLogger(level string, json bool) *Logger {
	baseLogger := log.With().
		Timestamp().
		Caller().
		Logger().
		Level(parseLogLevel(level))

	if !json {
		baseLogger = baseLogger.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		})
	}

	return &Logger{
		Audit: baseLogger.With().Str("log_stream", "audit").Logger(),
		HTTP:  baseLogger.With().Str("log_stream", "http").Logger(),
		App:   baseLogger.With().Str("log_stream", "app").Logger(),
	}
}

func NewSimpleLogger() *Logger {
	return NewLogger("info", false)
}

func (l *Logger) Init() {
	Audit = l.Audit
	HTTP = l.HTTP
	App = l.App
}

func parseLogLevel(level string) zerolog.Level {
	if level == "" {
		return zerolog.InfoLevel
	}
	parsedLevel, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		log.Warn().Err(err).Str("level", level).Msg("Invalid log level, defaulting to info")
		parsedLevel = zerolog.InfoLevel
	}
	return parsedLevel
}
