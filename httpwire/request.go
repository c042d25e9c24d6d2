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

package httpwire

import (
	"bytes"
	"io"
	"net/http"
	"net/url"
)

// StubRequest builds the minimal *http.Request http.ServeContent needs:
// Method and Header (for Range/If-Modified-Since/If-None-Match). The URL
// is set for completeness but never consulted by ServeContent.
func StubRequest(method, uri string, headers map[string][]string) *http.Request {
	return StubRequestWithBody(method, uri, headers, nil)
}

// StubRequestWithBody additionally attaches body, for consumers (package
// rproxy) that forward the request body upstream.
func StubRequestWithBody(method, uri string, headers map[string][]string, body []byte) *http.Request {
	h := make(http.Header, len(headers))
	for k, v := range headers {
		h[http.CanonicalHeaderKey(k)] = v
	}

	u, _ := url.Parse(uri)
	if u == nil {
		u = &url.URL{Path: uri}
	}

	var rc io.ReadCloser
	if body != nil {
		rc = io.NopCloser(bytes.NewReader(body))
	}

	return &http.Request{
		Method:        method,
		URL:           u,
		Header:        h,
		Body:          rc,
		ContentLength: int64(len(body)),
	}
}
