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
	"bufio"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/f446843/hiawatha/config"
	"github.com/f446843/hiawatha/session"
)

// stageDuplicateHost clones the resolved host into the per-request
// overlay so directory overrides (stage 15) can mutate fields without
// touching the shared, immutable config.Host. Stage 12.
func stageDuplicateHost(ctx *Context) int {
	sess := ctx.Session
	sess.Directory = sess.Host.Clone()
	return 0
}

// stageValidateURL rejects a decoded URI that contains a ".." path
// segment or a NUL byte. A failure here is a transport-level abort (-1),
// not a 4xx: the source treats a malformed URL as a protocol fault, not a
// policy refusal. Stage 13.
func stageValidateURL(ctx *Context) int {
	sess := ctx.Session

	for _, segment := range strings.Split(sess.Req.URI, "/") {
		if segment == ".." {
			sess.Cause = session.CauseInvalidURL
			return -1
		}
	}
	if strings.Contains(sess.Req.URI, "\x00") {
		sess.Cause = session.CauseInvalidURL
		return -1
	}

	return 0
}

// stagePathMaterialization computes file_on_disk rooted at website_root.
// filepath.Clean plus the explicit traversal check in stage 13 keep the
// result a genuine descendant of website_root even under adversarial
// input (spec invariant 1, §8). Stage 14.
func stagePathMaterialization(ctx *Context) int {
	sess := ctx.Session
	if sess.Directory == nil {
		return http.StatusInternalServerError
	}

	root := filepath.Clean(sess.Directory.WebsiteRoot)
	joined := filepath.Join(root, filepath.Clean("/"+sess.Req.URI))
	if joined != root && !strings.HasPrefix(joined, root+string(filepath.Separator)) {
		return http.StatusForbidden
	}

	sess.Req.FileOnDisk = joined
	return 0
}

// stageDirectoryOverrides loads a ".hiawatha" per-directory config file,
// if present in file_on_disk's directory, and merges its directives into
// the overlay host established by stageDuplicateHost. show_index and
// start_file are the overridable directives; absence of the file is not
// an error. Stage 15.
func stageDirectoryOverrides(ctx *Context) int {
	sess := ctx.Session
	if sess.Directory == nil {
		return 0
	}

	dir := filepath.Dir(sess.Req.FileOnDisk)
	f, err := os.Open(filepath.Join(dir, ".hiawatha"))
	if err == nil {
		defer f.Close()
		applyDirectiveFile(sess.Directory, f)
	}

	sess.Host = sess.Directory
	return 0
}

// applyDirectiveFile parses "key = value" lines; unrecognized keys and
// malformed lines are ignored, matching load_user_config's tolerant
// per-directory overlay semantics.
func applyDirectiveFile(host *config.Host, f *os.File) {
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), "=")
		if !ok {
			continue
		}
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)

		switch key {
		case "show_index":
			if b, err := strconv.ParseBool(value); err == nil {
				host.ShowIndex = b
			}
		case "start_file":
			host.StartFile = value
		}
	}
}
