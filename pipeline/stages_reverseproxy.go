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

	"github.com/f446843/hiawatha/config"
	"github.com/f446843/hiawatha/httpwire"
)

// stageReverseProxy matches host.rproxy rules against the raw request
// URI and forwards the first hit upstream. Stage 8.
func stageReverseProxy(ctx *Context) int {
	sess := ctx.Session
	if sess.Host == nil || len(sess.Host.RProxy) == 0 {
		return 0
	}

	var rule *config.RProxyRule
	for i := range sess.Host.RProxy {
		re, err := regexp.Compile(sess.Host.RProxy[i].Pattern)
		if err != nil || !re.MatchString(sess.Req.RawURI) {
			continue
		}
		rule = &sess.Host.RProxy[i]
		break
	}
	if rule == nil {
		return 0
	}

	if ctx.RProxy != nil && ctx.RProxy.IsLoop(sess.Req.Headers) {
		return http.StatusLoopDetected
	}

	// Proxied traffic still has to clear URL validation and pick up the
	// directory-level overlay before access control runs on it. Stages
	// 12-15 normally run ahead of stage 16, but reverse-proxy dispatch
	// (stage 8) preempts that ordering, so run them here explicitly.
	for _, stage := range []Stage{stageDuplicateHost, stageValidateURL, stagePathMaterialization, stageDirectoryOverrides} {
		if code := stage(ctx); code != 0 {
			return code
		}
	}

	if code := accessControlCode(ctx); code != 0 {
		return code
	}
	if code := securityFilterCode(ctx); code != 0 {
		return code
	}

	if ctx.RProxy == nil {
		return http.StatusBadGateway
	}

	req := httpwire.StubRequestWithBody(string(sess.Req.Method), sess.Req.RawURI, sess.Req.Headers, sess.Req.Body)
	if err := ctx.RProxy.Forward(ctx.Writer, req, rule.Upstream); err != nil {
		return http.StatusBadGateway
	}

	sess.DataSent = true
	if status := ctx.Writer.Status(); status != 0 {
		return status
	}
	return http.StatusOK
}
