// Package log builds the logrus logger used by the linq CLI and bridges it
// to the logr interface the SDK accepts.
package log

import (
	"fmt"
	"io"
	"strings"

	"github.com/bombsimon/logrusr/v4"
	"github.com/go-logr/logr"
	"github.com/sirupsen/logrus"
)

const (
	JSONFormat = "json"
	TextFormat = "text"
)

// New creates a logrus logger writing to out with the given level and format.
func New(out io.Writer, level, format string) (*logrus.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	l := logrus.New()
	l.SetOutput(out)
	l.SetFormatter(CreateFormatter(format))
	l.SetLevel(lvl)
	return l, nil
}

// NewLogrLogger adapts a logrus logger for the SDK. logr V(1) messages,
// such as retry diagnostics, map to the logrus debug level.
func NewLogrLogger(fieldLogger logrus.FieldLogger) logr.Logger {
	return logrusr.New(fieldLogger)
}

// CreateFormatter create logrus formatter by string
func CreateFormatter(logFormat string) logrus.Formatter {
	switch strings.ToLower(logFormat) {
	case JSONFormat:
		return &logrus.JSONFormatter{}
	default:
		return &logrus.TextFormatter{FullTimestamp: true}
	}
}

// ParseLevel parses a level name, defaulting to info when empty.
func ParseLevel(level string) (logrus.Level, error) {
	if level == "" {
		return logrus.InfoLevel, nil
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return logrus.InfoLevel, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return lvl, nil
}
