// Package diag wraps logrus the way surrealdb-surrealdb/log/log.go wraps
// it: a package-level logger, leveled constants re-exported so callers
// don't import logrus directly, and a WithFields convention for
// structured diagnostics (file-open failures, recoverable per-record DSL
// runtime-type errors, verb construction errors).
package diag

import (
	"os"

	"github.com/sirupsen/logrus"
)

const (
	PanicLevel = logrus.PanicLevel
	FatalLevel = logrus.FatalLevel
	ErrorLevel = logrus.ErrorLevel
	WarnLevel  = logrus.WarnLevel
	InfoLevel  = logrus.InfoLevel
	DebugLevel = logrus.DebugLevel
)

var log = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.Out = os.Stderr
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: false})
	l.SetLevel(logrus.WarnLevel)
	return l
}

// SetLevel adjusts the minimum level that is actually emitted.
func SetLevel(level logrus.Level) { log.SetLevel(level) }

// Fields is a typed alias so call sites don't import logrus directly.
type Fields = logrus.Fields

// WithFields starts a structured log entry.
func WithFields(f Fields) *logrus.Entry { return log.WithFields(f) }

// Warnf logs a warning, e.g. a per-record skip (missing group-by field).
func Warnf(format string, args ...interface{}) { log.Warnf(format, args...) }

// Errorf logs a non-fatal error.
func Errorf(format string, args ...interface{}) { log.Errorf(format, args...) }

// Fatalf logs a fatal error and exits the process (code 1), matching
// spec.md §7's "prints cause and exits 1" IOError handling.
func Fatalf(format string, args ...interface{}) { log.Fatalf(format, args...) }
