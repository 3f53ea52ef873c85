package logging

import (
	"context"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

type contextLoggerKey struct{}

var stdEntry = logrus.NewEntry(logrus.StandardLogger())

// Init configures the standard logger. Unknown levels fall back to info.
func Init(level, format string) {
	lvl, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logrus.SetLevel(lvl)
	logrus.SetOutput(os.Stderr)

	if strings.EqualFold(format, "json") {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

// WithFields returns a context whose logger carries fields in addition to
// those of any logger already in ctx.
func WithFields(ctx context.Context, fields logrus.Fields) context.Context {
	return context.WithValue(ctx, contextLoggerKey{}, FromContext(ctx).WithFields(fields))
}

// FromContext retrieves the request-scoped logger, or the standard one.
func FromContext(ctx context.Context) *logrus.Entry {
	if ctx == nil {
		return stdEntry
	}
	if entry, ok := ctx.Value(contextLoggerKey{}).(*logrus.Entry); ok {
		return entry
	}
	return stdEntry
}
