// Copyright 2021 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package log

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger describes a logger to be used in pcdbuild.
type Logger interface {
	// Debugf logs a debug message.
	Debugf(format string, args ...interface{})

	// Infof logs an informational message.
	Infof(format string, args ...interface{})

	// Warnf logs an warning message.
	Warnf(format string, args ...interface{})

	// Errorf logs an error message.
	Errorf(format string, args ...interface{})

	// Fatalf logs a fatal message and immediately exits the application
	// with os.Exit.
	Fatalf(format string, args ...interface{})
}

// DefaultLogger is the logger used by default everywhere within pcdbuild.
var DefaultLogger Logger

func init() {
	DefaultLogger = New("info")
}

// New returns a logrus-backed Logger writing to stderr. Unknown levels fall
// back to "info".
func New(level string) Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:    true,
		DisableTimestamp: false,
	})
	lvl, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)
	return entryWrapper{Entry: l.WithField("component", "pcd")}
}

// Wrap adapts an existing logrus logger, for callers that already
// configured one.
func Wrap(l *logrus.Logger) Logger {
	return entryWrapper{Entry: l.WithField("component", "pcd")}
}

// Discard returns a Logger that drops everything below fatal. Useful in tests.
func Discard() Logger {
	l := logrus.New()
	l.SetLevel(logrus.FatalLevel)
	return entryWrapper{Entry: logrus.NewEntry(l)}
}

type entryWrapper struct {
	Entry *logrus.Entry
}

// Debugf implements Logger.
func (logger entryWrapper) Debugf(format string, args ...interface{}) {
	logger.Entry.Debugf(format, args...)
}

// Infof implements Logger.
func (logger entryWrapper) Infof(format string, args ...interface{}) {
	logger.Entry.Infof(format, args...)
}

// Warnf implements Logger.
func (logger entryWrapper) Warnf(format string, args ...interface{}) {
	logger.Entry.Warnf(format, args...)
}

// Errorf implements Logger.
func (logger entryWrapper) Errorf(format string, args ...interface{}) {
	logger.Entry.Errorf(format, args...)
}

// Fatalf implements Logger.
func (logger entryWrapper) Fatalf(format string, args ...interface{}) {
	logger.Entry.Fatalf(format, args...)
}

// Debugf logs a debug message.
func Debugf(format string, args ...interface{}) {
	DefaultLogger.Debugf(format, args...)
}

// Infof logs an informational message.
func Infof(format string, args ...interface{}) {
	DefaultLogger.Infof(format, args...)
}

// Warnf logs an warning message.
func Warnf(format string, args ...interface{}) {
	DefaultLogger.Warnf(format, args...)
}

// Errorf logs an error message.
func Errorf(format string, args ...interface{}) {
	DefaultLogger.Errorf(format, args...)
}

// Fatalf logs a fatal message and immediately exits the application
// with os.Exit (which is expected to be called by the DefaultLogger.Fatalf).
func Fatalf(format string, args ...interface{}) {
	DefaultLogger.Fatalf(format, args...)
}
