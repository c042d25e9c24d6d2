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
	"crypto/tls"
	"net/http"
	"regexp"
	"strings"

	"github.com/f446843/hiawatha/internal/logging"
	"github.com/f446843/hiawatha/session"
)

// stageHostResolution strips the port from Host: and retargets
// session.Host. Stage 4.
func stageHostResolution(ctx *Context) int {
	sess := ctx.Session

	hostname := sess.Req.Header("Host")
	if idx := strings.LastIndexByte(hostname, ':'); idx >= 0 {
		hostname = hostname[:idx]
	}
	sess.Req.Hostname = hostname

	if host := sess.Binding.HostFor(hostname); host != nil {
		sess.Host = host
	}

	return 0
}

// stageTLSClientCert requires a verified peer certificate when the
// resolved host mandates one. Stage 5.
func stageTLSClientCert(ctx *Context) int {
	sess := ctx.Session
	if sess.Host == nil || sess.Host.CACertificate == "" {
		return 0
	}
	if sess.Binding == nil || !sess.Binding.UseSSL {
		return 0
	}

	tlsConn, ok := sess.Conn.(*tls.Conn)
	if !ok {
		return 440
	}

	state := tlsConn.ConnectionState()
	if len(state.PeerCertificates) == 0 {
		return 440
	}

	return 0
}

// stageForceSSLRedirect 301s plaintext requests to a host that requires
// SSL. Stage 6.
func stageForceSSLRedirect(ctx *Context) int {
	sess := ctx.Session
	if sess.Host == nil || !sess.Host.RequireSSL {
		return 0
	}
	if _, isTLS := sess.Conn.(*tls.Conn); isTLS {
		return 0
	}

	path, query, _ := strings.Cut(sess.Req.URI, "?")
	loc := "https://" + sess.Req.Hostname + path
	if query != "" {
		loc += "?" + query
	}

	sess.Location = loc
	sess.CauseOf301 = session.CauseRequireSSL
	return http.StatusMovedPermanently
}

// stageBodyDenylist matches each deny_body pattern against the body;
// on a hit, optionally bans, logs, bumps monitor counters, returns 403.
// Stage 7.
func stageBodyDenylist(ctx *Context) int {
	sess := ctx.Session
	if sess.Host == nil || len(sess.Host.DenyBody) == 0 || len(sess.Req.Body) == 0 {
		return 0
	}

	for _, pattern := range sess.Host.DenyBody {
		re, err := regexp.Compile(pattern)
		if err != nil {
			continue
		}
		if re.Match(sess.Req.Body) {
			logging.With(logging.Fields{"peer": sess.Addr.String(), "pattern": pattern}).Warn("exploit attempt: request body matched deny_body")
			if ctx.Counters != nil {
				ctx.Counters.DeniedBodyMatched()
				ctx.Counters.ExploitAttemptSeen()
			}
			ctx.ban(session.BanDeniedBody)
			return http.StatusForbidden
		}
	}

	return 0
}

// stageMethodGating enforces per-binding/per-host method availability.
// Stage 9.
func stageMethodGating(ctx *Context) int {
	sess := ctx.Session

	switch sess.Req.Method {
	case session.MethodTRACE:
		if !sess.Binding.EnableTrace {
			return http.StatusNotImplemented
		}
	case session.MethodPUT, session.MethodDELETE:
		webdav := sess.Host != nil && sess.Host.WebDAVApp
		if !sess.Binding.EnableAlter && !webdav {
			return http.StatusNotImplemented
		}
	case session.MethodUnknown:
		return http.StatusBadRequest
	case session.MethodUnsupported:
		if sess.Host == nil || !sess.Host.WebDAVApp {
			return http.StatusNotImplemented
		}
	}

	return 0
}
