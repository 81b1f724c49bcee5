// Package logger wraps logrus with the service's level, format and output settings.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/petguardian/quote-engine/config"
	"github.com/sirupsen/logrus"
)

// Logger is the structured logger handed to every long-lived component.
type Logger struct {
	*logrus.Logger
}

// New builds a Logger from cfg. An unknown level falls back to info, an
// unknown format to json. A log file that cannot be opened is reported on
// stderr and logging continues on stdout.
func New(cfg *config.LoggerConfig) *Logger {
	l := logrus.New()

	level, err := logrus.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	switch strings.ToLower(cfg.Format) {
	case "text":
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		l.SetFormatter(&logrus.JSONFormatter{})
	}

	var out io.Writer = os.Stdout
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			l.SetOutput(os.Stderr)
			l.WithError(err).Warn("failed to open log file, using stdout")
		} else {
			out = f
		}
	}
	l.SetOutput(out)

	return &Logger{Logger: l}
}

// Discard returns a logger that drops everything; handy in tests.
func Discard() *Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return &Logger{Logger: l}
}

// Component returns an entry tagged with the component name.
func (l *Logger) Component(name string) *logrus.Entry {
	return l.WithField("component", name)
}
