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

// Package rproxy forwards matching requests to an upstream. Built on
// net/http/httputil.ReverseProxy, the idiomatic Go base for this rather
// than a hand-rolled dialer.
package rproxy

import (
	"net/http"
	"net/http/httputil"
	"net/url"
	"sync"
)

// LoopHeader is stamped onto every forwarded request and checked on
// inbound ones; its presence means this process already forwarded the
// request once, so stage 8's loop detection can return 508 before any
// backend contact.
const LoopHeader = "X-Hiawatha-Rproxy"

// Engine caches one *httputil.ReverseProxy per upstream so repeated
// rule matches on the same backend don't re-parse the URL or rebuild a
// director closure per request.
type Engine struct {
	mu       sync.Mutex
	proxies  map[string]*httputil.ReverseProxy
	selfMark string
}

// NewEngine builds an Engine; selfMark is this process's unique loop
// marker value (e.g. a hostname:pid string) written into LoopHeader.
func NewEngine(selfMark string) *Engine {
	return &Engine{proxies: make(map[string]*httputil.ReverseProxy), selfMark: selfMark}
}

// IsLoop reports whether req already carries this process's own loop
// marker, meaning it already passed through this proxy once.
func (e *Engine) IsLoop(headers map[string][]string) bool {
	for _, v := range headers[LoopHeader] {
		if v == e.selfMark {
			return true
		}
	}
	return false
}

func (e *Engine) proxyFor(upstream string) (*httputil.ReverseProxy, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if p, ok := e.proxies[upstream]; ok {
		return p, nil
	}

	u, err := url.Parse(upstream)
	if err != nil {
		return nil, err
	}

	p := httputil.NewSingleHostReverseProxy(u)
	baseDirector := p.Director
	mark := e.selfMark
	p.Director = func(req *http.Request) {
		baseDirector(req)
		req.Header.Add(LoopHeader, mark)
	}

	e.proxies[upstream] = p
	return p, nil
}

// Forward proxies req to upstream and writes the response onto rw.
func (e *Engine) Forward(rw http.ResponseWriter, req *http.Request, upstream string) error {
	p, err := e.proxyFor(upstream)
	if err != nil {
		return err
	}
	p.ServeHTTP(rw, req)
	return nil
}
