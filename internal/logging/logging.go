// Package logging provides the shared zerolog setup for all edrumulus
// components. Components derive child loggers tagged with a "component"
// field rather than creating their own root loggers.
package logging

import (
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

var (
	defaultLogger zerolog.Logger
	loggerOnce    sync.Once
)

// GetDefaultLogger returns the process-wide root logger. The log level is
// taken from EDRUMULUS_LOG_LEVEL (trace, debug, info, warn, error); it
// defaults to info.
func GetDefaultLogger() *zerolog.Logger {
	loggerOnce.Do(func() {
		level := zerolog.InfoLevel
		if env := os.Getenv("EDRUMULUS_LOG_LEVEL"); env != "" {
			if parsed, err := zerolog.ParseLevel(strings.ToLower(env)); err == nil {
				level = parsed
			}
		}
		defaultLogger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
			Level(level).
			With().
			Timestamp().
			Logger()
	})
	return &defaultLogger
}

// GetSubsystemLogger returns a child logger tagged with the given component
// name.
func GetSubsystemLogger(component string) zerolog.Logger {
	return GetDefaultLogger().With().Str("component", component).Logger()
}
