/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

// Package logging is the worker's structured logger: a thin wrapper over
// logrus giving every stage of the request pipeline a consistent
// field-tagged entry (session id, peer, cause, ...) and a single place to
// swap the sink (stdout during development, a rotated file in production).
package logging

import (
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

// Level mirrors the severities the pipeline and ban arbiter emit.
type Level = logrus.Level

const (
	DebugLevel = logrus.DebugLevel
	InfoLevel  = logrus.InfoLevel
	WarnLevel  = logrus.WarnLevel
	ErrorLevel = logrus.ErrorLevel
)

// Fields carries request-scoped context (peer, host, cause, ...) into a
// log line without string concatenation in the hot path.
type Fields = logrus.Fields

// Logger is the subset of logrus the request core actually calls. Kept as
// an interface so tests can substitute a recording logger.
type Logger interface {
	WithFields(f Fields) *logrus.Entry
	SetLevel(lvl Level)
	SetOutput(w io.Writer)
}

var (
	once    sync.Once
	root    *logrus.Logger
	rootMux sync.Mutex
)

// Root returns the process-wide logger, created lazily with sane defaults
// (stdout, text formatter, Info level). Callers change these with
// SetOutput/SetLevel on the returned logger or add a file sink with UseFile.
func Root() *logrus.Logger {
	once.Do(func() {
		root = logrus.New()
		root.SetOutput(os.Stdout)
		root.SetLevel(logrus.InfoLevel)
		root.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	})
	return root
}

// UseFile redirects the root logger to an additional file sink. It
// deliberately skips the multi-hook plumbing this module never exercises
// (no syslog, no gorm, no hclog bridge — see DESIGN.md for the
// dropped-hook ledger).
func UseFile(path string) (io.Closer, error) {
	rootMux.Lock()
	defer rootMux.Unlock()

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}

	Root().SetOutput(io.MultiWriter(os.Stdout, f))
	return f, nil
}

// With is a convenience wrapper for structured call sites:
// logging.With(logging.Fields{"cause": cause}).Warn("...").
func With(f Fields) *logrus.Entry {
	return Root().WithFields(f)
}
