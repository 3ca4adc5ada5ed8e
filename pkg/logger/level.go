package logger

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// Level is the severity of a log entry.
type Level uint8

const (
	levelUnknown Level = iota

	// ErrorLevel is for failures that a caller will see.
	ErrorLevel

	// WarnLevel is for entries that deserve some attention, like a cache
	// check that could not tell whether a file exists.
	WarnLevel

	// InfoLevel is for general operational entries.
	InfoLevel

	// DebugLevel is very verbose: cache hits, renders and writes.
	DebugLevel
)

// ErrInvalidLevel is returned when a level name cannot be parsed.
var ErrInvalidLevel = errors.New("not a valid logging Level")

// String converts the Level to a string. E.g. DebugLevel becomes "debug".
func (level Level) String() string {
	if b, err := level.MarshalText(); err == nil {
		return string(b)
	}

	return "unknown"
}

// ParseLevel takes a string level and returns the log level constant.
func ParseLevel(lvl string) (Level, error) {
	switch strings.ToLower(lvl) {
	case "error":
		return ErrorLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "info":
		return InfoLevel, nil
	case "debug":
		return DebugLevel, nil
	}

	return levelUnknown, fmt.Errorf("%q: %w", lvl, ErrInvalidLevel)
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (level *Level) UnmarshalText(text []byte) error {
	l, err := ParseLevel(string(text))
	if err != nil {
		return err
	}

	*level = l
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (level Level) MarshalText() ([]byte, error) {
	switch level {
	case DebugLevel:
		return []byte("debug"), nil
	case InfoLevel:
		return []byte("info"), nil
	case WarnLevel:
		return []byte("warning"), nil
	case ErrorLevel:
		return []byte("error"), nil
	}

	return nil, fmt.Errorf("not a valid logging level %d", level)
}

func (level Level) logrus() logrus.Level {
	switch level {
	case DebugLevel:
		return logrus.DebugLevel
	case InfoLevel:
		return logrus.InfoLevel
	case WarnLevel:
		return logrus.WarnLevel
	default:
		return logrus.ErrorLevel
	}
}
