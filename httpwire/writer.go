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

// Package httpwire bridges the hand-rolled, raw-socket connection handler
// (kept raw for literal control over the TLS handshake and keep-alive
// timing) with stdlib net/http helpers that expect an
// http.ResponseWriter/*http.Request pair (http.ServeContent's Range and
// conditional-GET handling, most notably). Writing this bridge is the
// documented alternative to reimplementing Range/If-Modified-Since/ETag
// handling by hand.
package httpwire

import (
	"bufio"
	"fmt"
	"net/http"
	"sort"
)

// ResponseWriter is a minimal http.ResponseWriter over a buffered
// connection writer. It writes the status line and headers lazily, on
// the first Write or an explicit WriteHeader, matching net/http's own
// "implicit 200" convention.
type ResponseWriter struct {
	w           *bufio.Writer
	header      http.Header
	wroteHeader bool
	status      int
	Sent        int64 // bytes of body written, for DataSent/access-log bookkeeping
}

func NewResponseWriter(w *bufio.Writer) *ResponseWriter {
	return &ResponseWriter{w: w, header: make(http.Header)}
}

func (rw *ResponseWriter) Header() http.Header { return rw.header }

func (rw *ResponseWriter) WriteHeader(status int) {
	if rw.wroteHeader {
		return
	}
	rw.wroteHeader = true
	rw.status = status

	fmt.Fprintf(rw.w, "HTTP/1.1 %d %s\r\n", status, http.StatusText(status))

	keys := make([]string, 0, len(rw.header))
	for k := range rw.header {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, v := range rw.header[k] {
			fmt.Fprintf(rw.w, "%s: %s\r\n", k, v)
		}
	}
	fmt.Fprint(rw.w, "\r\n")
}

func (rw *ResponseWriter) Write(p []byte) (int, error) {
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	n, err := rw.w.Write(p)
	rw.Sent += int64(n)
	return n, err
}

// Status returns the status code committed by WriteHeader, or 0 if
// nothing has been written yet.
func (rw *ResponseWriter) Status() int { return rw.status }

// WroteHeader reports whether a status line has already been committed —
// the wire-level equivalent of session.DataSent.
func (rw *ResponseWriter) WroteHeader() bool { return rw.wroteHeader }

func (rw *ResponseWriter) Flush() error { return rw.w.Flush() }
