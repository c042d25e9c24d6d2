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
	"net/url"
	"strings"

	"github.com/f446843/hiawatha/config"
	"github.com/f446843/hiawatha/session"
)

// stageURLToolkit applies host.toolkit_rules to the current URI, skipped
// for PUT/DELETE since those never re-target content by rewrite. Stage 10.
func stageURLToolkit(ctx *Context) int {
	sess := ctx.Session
	if sess.Host == nil || ctx.Toolkit == nil {
		return 0
	}
	if sess.Req.Method == session.MethodPUT || sess.Req.Method == session.MethodDELETE {
		return 0
	}

	outcome := ctx.Toolkit.Apply(sess.Host, sess.Req.URI)
	switch outcome.Action {
	case config.ToolkitContinue:
		return 0
	case config.ToolkitRewrite:
		sess.Req.URI = outcome.NewURI
		if outcome.FastCGI != "" {
			sess.FCGIServer = outcome.FastCGI
		}
		return 0
	case config.ToolkitRedirect:
		sess.Location = outcome.Location
		sess.CauseOf301 = session.CauseToolkitRewrite
		return http.StatusMovedPermanently
	case config.ToolkitDeny:
		return http.StatusForbidden
	case config.ToolkitBan:
		ctx.ban(session.BanToolkitRule)
		return http.StatusForbidden
	case config.ToolkitError:
		return http.StatusInternalServerError
	}

	return 0
}

// stageQueryAndNormalize splits the query string off the URI, URL-decodes
// the path, and rejects forbidden characters when host.secure_url is set.
// Stage 11.
func stageQueryAndNormalize(ctx *Context) int {
	sess := ctx.Session

	path, query, _ := strings.Cut(sess.Req.URI, "?")

	decoded, err := url.PathUnescape(path)
	if err != nil {
		sess.Cause = session.CauseInvalidURL
		return -1
	}
	sess.Req.URI = decoded

	if query != "" {
		values, err := url.ParseQuery(query)
		if err != nil {
			sess.Cause = session.CauseInvalidURL
			return -1
		}
		sess.Req.Query = values
	}

	if sess.Host != nil && sess.Host.SecureURL && containsForbiddenChars(decoded) {
		return http.StatusForbidden
	}

	return 0
}

// containsForbiddenChars flags NUL bytes and raw control characters, the
// minimal "forbidden characters" check secure_url mandates.
func containsForbiddenChars(s string) bool {
	for _, r := range s {
		if r == 0 || (r < 0x20 && r != '\t') {
			return true
		}
	}
	return false
}
