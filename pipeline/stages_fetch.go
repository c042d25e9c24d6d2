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
	"io"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"github.com/f446843/hiawatha/session"
)

// stageFetchAndParse reads the request line and headers, validates
// method/URI, and reads the body per Content-Length. Stage 1.
func stageFetchAndParse(ctx *Context) int {
	sess := ctx.Session
	r := ctx.Reader

	deadline := sess.Binding.TimeRequest
	if sess.IsFirstRequest() {
		deadline = sess.Binding.Time1stRequest
	}
	_ = sess.Conn.SetReadDeadline(timeNow().Add(deadline))

	line, err := r.ReadString('\n')
	if err != nil {
		sess.Req.Method = session.MethodGET // error path still logs as GET
		if sess.Kicked() {
			sess.Cause = session.CauseForceQuit
		} else if isTimeout(err) {
			sess.Cause = session.CauseTimeout
		} else if err == io.EOF {
			sess.Cause = session.CauseClientDisconnected
		} else {
			sess.Cause = session.CauseSocketReadError
		}
		return -1
	}

	parts := strings.Fields(line)
	if len(parts) != 3 {
		sess.Req.Method = session.MethodGET
		sess.Cause = session.CauseInvalidURL
		return -1
	}

	sess.Req.Method = session.ParseMethod(parts[0])
	sess.Req.RawURI = parts[1]
	sess.Req.URI = parts[1]

	headers, headerBytes, err := readHeaders(r)
	if err != nil {
		sess.Cause = session.CauseSocketReadError
		return -1
	}
	sess.Req.Headers = headers
	sess.Req.HeaderLength = int64(len(line) + headerBytes)

	if cl := sess.Req.Header("Content-Length"); cl != "" {
		n, convErr := strconv.ParseInt(cl, 10, 64)
		if convErr != nil || n < 0 {
			return http.StatusBadRequest
		}
		sess.Req.ContentLength = n
	}

	const maxRequestSize = 64 * 1024 * 1024
	if sess.Req.ContentLength > maxRequestSize {
		sess.Cause = session.CauseMaxRequestSize
		return -1
	}

	if sess.Req.ContentLength > 0 {
		body := make([]byte, sess.Req.ContentLength)
		if _, err := io.ReadFull(r, body); err != nil {
			sess.Cause = session.CauseSocketReadError
			return -1
		}
		sess.Req.Body = body
	}

	return 0
}

func readHeaders(r *bufio.Reader) (map[string][]string, int, error) {
	headers := make(map[string][]string)
	total := 0

	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return nil, total, err
		}
		total += len(line)

		trimmed := strings.TrimRight(line, "\r\n")
		if trimmed == "" {
			break
		}

		k, v, ok := strings.Cut(trimmed, ":")
		if !ok {
			continue
		}
		k, v = http.CanonicalHeaderKey(strings.TrimSpace(k)), strings.TrimSpace(v)
		headers[k] = append(headers[k], v)
	}

	return headers, total, nil
}

func isTimeout(err error) bool {
	type timeoutErr interface{ Timeout() bool }
	te, ok := err.(timeoutErr)
	return ok && te.Timeout()
}

// timeNow is a seam so tests can fake the clock; production always uses
// time.Now.
var timeNow = time.Now

// stageRecordTimestamp stamps session.Time. Stage 2.
func stageRecordTimestamp(ctx *Context) int {
	ctx.Session.Time = timeNow()
	return 0
}

// stageProxyUnmasking substitutes the peer address from X-Forwarded-For
// when the direct peer is a trusted reverse proxy. Stage 3.
func stageProxyUnmasking(ctx *Context) int {
	sess := ctx.Session

	if !addrListed(sess.Addr, sess.Config.HideProxy) {
		return 0
	}

	xff := sess.Req.Header("X-Forwarded-For")
	if xff == "" {
		return 0
	}

	tokens := strings.Split(xff, ",")
	last := strings.TrimSpace(tokens[len(tokens)-1])

	addr, err := netip.ParseAddr(last)
	if err != nil {
		return 0
	}

	oldAddr := sess.Addr
	sess.Addr = addr
	if ctx.Registry != nil {
		ctx.Registry.Rebind(sess, addr)
		_ = oldAddr
	}

	return 0
}

func addrListed(addr netip.Addr, list []string) bool {
	for _, s := range list {
		if p, err := netip.ParsePrefix(s); err == nil && p.Contains(addr) {
			return true
		}
		if a, err := netip.ParseAddr(s); err == nil && a == addr {
			return true
		}
	}
	return false
}
