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

package content

import (
	"net/http"
	"os"
)

// HandlePut writes body to path, returning 201 if the file was created,
// 204 if it already existed and was overwritten, matching WebDAV's
// convention.
func HandlePut(path string, body []byte) int {
	_, statErr := os.Stat(path)
	existed := statErr == nil

	if err := os.MkdirAll(dirOf(path), 0o755); err != nil {
		return http.StatusConflict
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		if os.IsPermission(err) {
			return http.StatusForbidden
		}
		return http.StatusInternalServerError
	}

	if existed {
		return http.StatusNoContent
	}
	return http.StatusCreated
}

// HandleDelete removes path, returning 204 on success, 404 if it never
// existed, 412 if it exists but is a directory (precondition failed —
// this handler never recurses).
func HandleDelete(path string) int {
	fi, err := os.Stat(path)
	if err != nil {
		return http.StatusNotFound
	}
	if fi.IsDir() {
		return http.StatusPreconditionFailed
	}
	if err := os.Remove(path); err != nil {
		if os.IsPermission(err) {
			return http.StatusForbidden
		}
		return http.StatusInternalServerError
	}
	return http.StatusNoContent
}

func dirOf(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[:i]
		}
	}
	return "."
}
