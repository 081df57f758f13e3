// Package logging configures the logrus logger shared by every component.
package logging

import (
	"io"

	"github.com/sirupsen/logrus"
)

// TimestampFormat is used for every log line.
const TimestampFormat = "2006/01/02 15:04:05"

// New returns a logger writing text lines with full timestamps to out.
// Colors are forced off when noColor is set, and otherwise left to logrus's
// terminal detection.
func New(level logrus.Level, out io.Writer, noColor bool) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetLevel(level)
	l.SetFormatter(&logrus.TextFormatter{
		TimestampFormat: TimestampFormat,
		FullTimestamp:   true,
		DisableColors:   noColor,
		DisableSorting:  true,
	})
	return l
}

// Discard returns a logger that drops everything.
func Discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
