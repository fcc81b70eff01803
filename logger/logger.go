package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

type Fields = logrus.Fields

var base = newLogger(os.Stdout)

func newLogger(out io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return l
}

// Init configures the process logger. Unknown levels fall back to info.
func Init(level, format string) {
	SetLevel(level)
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		base.SetFormatter(&logrus.JSONFormatter{})
		return
	}
	base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}

func SetLevel(level string) {
	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	base.SetLevel(lvl)
}

func SetOutput(w io.Writer) {
	base.SetOutput(w)
}

// L exposes the underlying logger for integrations such as the gorm adapter.
func L() *logrus.Logger {
	return base
}

func IsDebugEnabled() bool {
	return base.IsLevelEnabled(logrus.DebugLevel)
}

func WithFields(fields Fields) *logrus.Entry {
	return base.WithFields(fields)
}

func WithError(err error) *logrus.Entry {
	return base.WithError(err)
}

func Debugf(format string, v ...any) {
	base.Debugf(format, v...)
}

func Infof(format string, v ...any) {
	base.Infof(format, v...)
}

func Warnf(format string, v ...any) {
	base.Warnf(format, v...)
}

func Errorf(format string, v ...any) {
	base.Errorf(format, v...)
}

func Fatalf(format string, v ...any) {
	base.Fatalf(format, v...)
}
