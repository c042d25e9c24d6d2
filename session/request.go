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

package session

import "net/url"

// Request is the in-flight HTTP request being carried through the
// pipeline. One Session ever has at most one live Request (spec
// invariant: "at most one request is in flight per session").
type Request struct {
	Method  RequestMethod
	URI     string // current, possibly toolkit-rewritten path
	RawURI  string // request_uri: the original, untouched target
	Query   url.Values
	Headers map[string][]string
	Body    []byte

	HeaderLength  int64
	ContentLength int64

	Hostname string // Host: header, port stripped

	Extension  string
	FileOnDisk string // rooted in host.WebsiteRoot, enforced by the pipeline's path-materialization stage
	PathInfo   string // extra path info trailing a resolved CGI script, host.EnablePathInfo only

	RemoteUser string // set by the access-control stage on a successful authentication
}

// Header returns the first value for key, matching net/http's convention.
func (r *Request) Header(key string) string {
	if r == nil || r.Headers == nil {
		return ""
	}
	if v, ok := r.Headers[key]; ok && len(v) > 0 {
		return v[0]
	}
	return ""
}

func (r *Request) reset() {
	r.Method = ""
	r.URI = ""
	r.RawURI = ""
	r.Query = nil
	r.Headers = nil
	r.Body = nil
	r.HeaderLength = 0
	r.ContentLength = 0
	r.Hostname = ""
	r.Extension = ""
	r.FileOnDisk = ""
	r.PathInfo = ""
	r.RemoteUser = ""
}
