package logger

import (
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// Logger is a wrapper around logrus.Logger
type Logger struct {
	*logrus.Logger
}

// New creates a new logger writing text lines to stdout
func New() *Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
	log.SetLevel(logrus.InfoLevel)

	return &Logger{Logger: log}
}

// NewDiscard creates a logger that drops everything. Used by tests.
func NewDiscard() *Logger {
	l := New()
	l.SetOutput(io.Discard)
	return l
}

// SetLevel sets the logging level
func (l *Logger) SetLevel(level string) {
	switch level {
	case "debug":
		l.Logger.SetLevel(logrus.DebugLevel)
	case "info":
		l.Logger.SetLevel(logrus.InfoLevel)
	case "warn":
		l.Logger.SetLevel(logrus.WarnLevel)
	case "error":
		l.Logger.SetLevel(logrus.ErrorLevel)
	default:
		l.Logger.SetLevel(logrus.InfoLevel)
	}
}

// SetFormat switches between "text" and "json" output
func (l *Logger) SetFormat(format string) {
	if format == "json" {
		l.Logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
		return
	}
	l.Logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
}

// WithEntity adds the entity type to log entries
func (l *Logger) WithEntity(entity string) *logrus.Entry {
	return l.WithField("entity", entity)
}

// WithRecord adds entity type and record id to log entries
func (l *Logger) WithRecord(entity, id string) *logrus.Entry {
	return l.WithFields(logrus.Fields{
		"entity":    entity,
		"record_id": id,
	})
}

// WithTarget adds the destination system to log entries
func (l *Logger) WithTarget(target string) *logrus.Entry {
	return l.WithField("target", target)
}
