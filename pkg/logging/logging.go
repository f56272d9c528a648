// Copyright 2024 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package logging provides the leveled logger used by the swapper commands.
package logging

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Logger is satisfied by both *logrus.Logger and *logrus.Entry, so a logger
// carrying fields can be passed wherever a plain one is expected.
type Logger interface {
	Tracef(format string, args ...interface{})
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Info(args ...interface{})
	Warningf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Fatalf(format string, args ...interface{})
	Fatal(args ...interface{})
	WithField(key string, value interface{}) *logrus.Entry
}

// New returns a text logger writing to w at the given verbosity.
func New(w io.Writer, level logrus.Level) Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(level)
	l.SetFormatter(&logrus.TextFormatter{
		DisableColors: true,
		FullTimestamp: true,
	})

	return l
}

// Noop discards everything.
func Noop() Logger {
	return New(io.Discard, logrus.PanicLevel)
}
