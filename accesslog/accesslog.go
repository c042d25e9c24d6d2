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

// Package accesslog emits one Apache-combined-style line per successfully
// finalized request, through the same structured logger the rest of the
// module uses rather than a bespoke writer.
package accesslog

import (
	"time"

	"github.com/f446843/hiawatha/internal/logging"
)

type Entry struct {
	Peer      string
	Time      time.Time
	Method    string
	URI       string
	Status    int
	BytesSent int64
	Referer   string
	UserAgent string
}

// Emit writes e as a structured log line at Info level. The combined
// format's positional fields become named logrus fields instead of a
// hand-formatted string, rather than reproducing Apache's textual
// layout byte for byte.
func Emit(e Entry) {
	logging.With(logging.Fields{
		"peer":       e.Peer,
		"time":       e.Time.Format(time.RFC3339),
		"method":     e.Method,
		"uri":        e.URI,
		"status":     e.Status,
		"bytes_sent": e.BytesSent,
		"referer":    e.Referer,
		"user_agent": e.UserAgent,
	}).Info("request")
}
