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

// Package errhandler resolves a host's custom error page for a given
// status code. It never performs content dispatch itself —
// that would require importing package pipeline, which imports this
// package to invoke it, a cycle. Instead the caller supplies a Dispatch
// callback (the pipeline's own re-entry point for extension detection +
// CGI classification + content dispatch), inverting the dependency.
package errhandler

import (
	"os"
	"path/filepath"

	"github.com/f446843/hiawatha/internal/logging"
	"github.com/f446843/hiawatha/session"
)

// Dispatch re-runs extension detection, CGI classification and content
// dispatch against session.Req.FileOnDisk as already rewritten by
// Handler.Handle, returning the final status code.
type Dispatch func(sess *session.Session) int

type Handler struct {
	Dispatch Dispatch
}

// Handle looks up host.ErrorHandlers[code] by exact match. If none is
// registered it returns handled=false so the caller falls back to a bare
// status. If one is registered, but the session is already inside error
// handling (HandlingError), it also returns handled=false — "the handler
// itself may not recurse into Error Handler" — so the fallback applies
// instead of looping.
func (h *Handler) Handle(sess *session.Session, code int) (handled bool, result int) {
	if sess.HandlingError {
		return false, 0
	}

	path, ok := sess.Host.ErrorHandlers[code]
	if !ok {
		return false, 0
	}

	target := filepath.Join(sess.Host.WebsiteRoot, path)
	if fi, err := os.Stat(target); err == nil && fi.IsDir() {
		if sess.Host.StartFile == "" {
			return false, 0
		}
		target = filepath.Join(target, sess.Host.StartFile)
	}

	sess.HandlingError = true
	sess.Req.FileOnDisk = target

	result = h.Dispatch(sess)

	logging.With(logging.Fields{
		"original_status": code,
		"handler_path":    path,
		"final_status":    result,
	}).Info("error handler dispatched")

	if result == 500 {
		sess.KeepAlive = false
	}

	return true, result
}
