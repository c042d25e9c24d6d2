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
	"net/http"
	"regexp"
	"strings"

	"github.com/f446843/hiawatha/session"
)

var (
	xssPattern  = regexp.MustCompile(`(?i)<script|javascript:|onerror=`)
	sqliPattern = regexp.MustCompile(`(?i)union\s+select|or\s+1=1|--\s|;\s*drop\s+table`)
)

// securityFilterCode applies host.prevent_xss/_csrf/_sqli against the
// current request; stageReverseProxy runs it before forwarding. SQLi is an
// adversarial indicator and drives the ban arbiter via the
// -1/CauseSQLInjection path; XSS/CSRF are plain policy refusals.
func securityFilterCode(ctx *Context) int {
	sess := ctx.Session
	host := sess.Host
	if host == nil {
		return 0
	}

	haystack := sess.Req.URI + " " + string(sess.Req.Body)

	if host.PreventSQLi && sqliPattern.MatchString(haystack) {
		sess.Cause = session.CauseSQLInjection
		return -1
	}

	if host.PreventXSS && xssPattern.MatchString(haystack) {
		return http.StatusForbidden
	}

	if host.PreventCSRF && sess.Req.Method == session.MethodPOST {
		referer := sess.Req.Header("Referer")
		if referer != "" && !strings.Contains(referer, sess.Req.Hostname) {
			return http.StatusForbidden
		}
	}

	return 0
}

// evaluateAccess runs host.access_list in order; the first rule whose
// pattern matches the request URI decides the outcome. No match at all
// is "unspecified" (spec stage 16).
func evaluateAccess(sess *session.Session) session.Access {
	host := sess.Host
	if host == nil {
		return session.AccessUnspecified
	}

	for _, rule := range host.AccessList {
		re, err := regexp.Compile(rule.Pattern)
		if err != nil || !re.MatchString(sess.Req.URI) {
			continue
		}
		if rule.Pwd {
			return session.AccessPwd
		}
		if rule.Allow {
			return session.AccessAllow
		}
		return session.AccessDeny
	}

	return session.AccessUnspecified
}

// accessControlCode composes evaluateAccess with the Authenticator and
// returns a final status to stop on (0 meaning "proceed").
func accessControlCode(ctx *Context) int {
	sess := ctx.Session

	switch evaluateAccess(sess) {
	case session.AccessDeny:
		return http.StatusForbidden
	case session.AccessPwd:
		return authenticate(ctx, true)
	case session.AccessUnspecified:
		return authenticate(ctx, false)
	default: // AccessAllow
		return 0
	}
}

func authenticate(ctx *Context, mandatory bool) int {
	if ctx.Auth == nil {
		if mandatory {
			return http.StatusUnauthorized
		}
		return 0
	}

	result := ctx.Auth.Authenticate(ctx.Session.Req.Header("Authorization"), mandatory)
	if result.Status != http.StatusOK {
		return result.Status
	}
	ctx.Session.Req.RemoteUser = result.User
	return 0
}
