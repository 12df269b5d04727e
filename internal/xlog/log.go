// Package xlog wraps logrus the way the rest of the corpus wraps it: one
// package-level logger, plain field helpers, and a couple of domain helpers
// for the entities this core cares about most often.
package xlog

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is the global logger instance.
var Logger = logrus.New()

func init() {
	Logger.SetOutput(os.Stderr)
	Logger.SetLevel(logrus.InfoLevel)
	Logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
}

// SetDebug raises the log level to Debug, used by --debug.
func SetDebug() {
	Logger.SetLevel(logrus.DebugLevel)
}

// SetOutput redirects log output, mainly for tests.
func SetOutput(w io.Writer) {
	Logger.SetOutput(w)
}

// SetJSONFormat switches to JSON-formatted log lines for machine consumption.
func SetJSONFormat() {
	Logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05Z07:00",
	})
}

// WithField returns an entry annotated with a single field.
func WithField(key string, value interface{}) *logrus.Entry {
	return Logger.WithField(key, value)
}

// WithFields returns an entry annotated with several fields.
func WithFields(fields logrus.Fields) *logrus.Entry {
	return Logger.WithFields(fields)
}

// WithNode returns an entry scoped to an endpoint node.
func WithNode(name string) *logrus.Entry {
	return Logger.WithField("node", name)
}

// WithSwitch returns an entry scoped to a logical switch.
func WithSwitch(name string) *logrus.Entry {
	return Logger.WithField("switch", name)
}

// WithAlgorithm returns an entry scoped to a routing algorithm.
func WithAlgorithm(name string) *logrus.Entry {
	return Logger.WithField("algorithm", name)
}
