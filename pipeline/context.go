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

// Package pipeline is the request pipeline: twenty ordered stages, each
// either returning a final status code or falling through, plus the
// response finalizer (file finalize.go) that interprets the
// pipeline's result.
package pipeline

import (
	"bufio"

	"github.com/f446843/hiawatha/auth"
	"github.com/f446843/hiawatha/banarbiter"
	"github.com/f446843/hiawatha/banlist"
	"github.com/f446843/hiawatha/hook"
	"github.com/f446843/hiawatha/httpwire"
	"github.com/f446843/hiawatha/internal/monitor"
	"github.com/f446843/hiawatha/registry"
	"github.com/f446843/hiawatha/rproxy"
	"github.com/f446843/hiawatha/session"
	"github.com/f446843/hiawatha/toolkit"
)

// Context bundles one request's session with the transport handles and
// shared collaborators every stage may need. Built fresh per request by
// the connection handler; stages mutate ctx.Session and read the rest.
type Context struct {
	Session *session.Session
	Reader  *bufio.Reader
	Writer  *httpwire.ResponseWriter

	Toolkit    *toolkit.Engine
	RProxy     *rproxy.Engine
	Auth       auth.Authenticator
	Banlist    *banlist.List
	Registry   *registry.Registry
	Counters   *monitor.Counters
	BanArbiter *banarbiter.Arbiter
	RunHook    func(hook.Request)
}

// ban is a small convenience wrapper so stages don't need to repeat the
// nil-check and Session.Addr plumbing at every call site.
func (ctx *Context) ban(cause session.BanCause) {
	if ctx.BanArbiter != nil {
		ctx.BanArbiter.Ban(ctx.Session.Addr, cause)
	}
}
