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

package pipeline

import (
	"bufio"
	"bytes"
	"net/netip"
	"testing"
	"time"

	"github.com/f446843/hiawatha/config"
	"github.com/f446843/hiawatha/httpwire"
	"github.com/f446843/hiawatha/session"
)

func newTestHost(root string) *config.Host {
	return &config.Host{
		Hostname:    "example.com",
		WebsiteRoot: root,
	}
}

func newTestBinding(useSSL bool, hosts ...*config.Host) *config.Binding {
	return &config.Binding{
		Address:        ":8080",
		UseSSL:         useSSL,
		Time1stRequest: time.Second,
		TimeRequest:    time.Second,
		Hosts:          hosts,
	}
}

func newTestSession(t *testing.T, binding *config.Binding, host *config.Host) *session.Session {
	t.Helper()
	s := session.New(nil, netip.MustParseAddr("203.0.113.5"), &config.Config{}, binding)
	s.Host = host
	return s
}

// recordingWriter wraps a ResponseWriter over an in-memory buffer, and
// returns the buffer so a test can flush and inspect the written bytes.
func recordingWriter() (*httpwire.ResponseWriter, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	w := bufio.NewWriter(buf)
	return httpwire.NewResponseWriter(w), buf
}

func newTestContext(sess *session.Session, rw *httpwire.ResponseWriter) *Context {
	return &Context{Session: sess, Writer: rw}
}
