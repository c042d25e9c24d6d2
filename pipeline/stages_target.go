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
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/f446843/hiawatha/session"
)

// stageAccessControl evaluates allow_client and, when the outcome
// requires it, delegates to the configured Authenticator. Stage 16.
func stageAccessControl(ctx *Context) int {
	return accessControlCode(ctx)
}

// dirKindVar is the Vars key stageTargetKind stashes its classification
// under, for stageDirectoryIndex to read back without re-stating.
const dirKindVar = "dir_kind"

// stageTargetKind classifies file_on_disk via is_directory. Stage 17.
func stageTargetKind(ctx *Context) int {
	sess := ctx.Session

	var kind session.DirectoryKind
	fi, err := os.Stat(sess.Req.FileOnDisk)
	switch {
	case err != nil && (os.IsNotExist(err) || errors.Is(err, syscall.ENOTDIR)):
		kind = session.DirNotFound
	case err != nil && os.IsPermission(err):
		kind = session.DirNoAccess
	case err != nil:
		kind = session.DirError
	case fi.IsDir():
		kind = session.DirYes
	default:
		kind = session.DirNo
	}

	if kind == session.DirNotFound && sess.Host != nil && sess.Host.EnablePathInfo {
		if resolved, pathInfo, ok := resolvePathInfo(sess.Req.FileOnDisk, sess.Host.WebsiteRoot); ok {
			sess.Req.FileOnDisk = resolved
			sess.Req.PathInfo = pathInfo
			kind = session.DirNo
		}
	}

	if sess.Vars == nil {
		sess.Vars = make(map[string]string)
	}
	sess.Vars[dirKindVar] = string(kind)

	switch kind {
	case session.DirError:
		return http.StatusInternalServerError
	case session.DirNoAccess:
		return http.StatusForbidden
	case session.DirNotFound:
		if sess.Req.Method == session.MethodDELETE {
			return http.StatusNotFound
		}
	}

	return 0
}

// resolvePathInfo walks file_on_disk's path upward, one segment at a
// time, looking for the longest prefix that names an existing regular
// file. That prefix becomes the resolved script; everything stripped
// off it becomes PATH_INFO. The walk never rises above root, so a
// request cannot use path-info splitting to climb out of website_root.
func resolvePathInfo(fileOnDisk, root string) (resolved, pathInfo string, ok bool) {
	root = filepath.Clean(root)
	dir := filepath.Clean(fileOnDisk)
	var extra []string

	for len(dir) >= len(root) {
		fi, err := os.Stat(dir)
		if err == nil && !fi.IsDir() {
			return dir, strings.Join(extra, "/"), true
		}
		if err == nil && fi.IsDir() {
			return "", "", false
		}
		if dir == root {
			return "", "", false
		}
		extra = append([]string{filepath.Base(dir)}, extra...)
		dir = filepath.Dir(dir)
	}

	return "", "", false
}

// stageDirectoryIndex redirects bare directory requests to a trailing
// slash, or resolves host.start_file once the slash is present. Skipped
// entirely when a toolkit rule already pinned a FastCGI backend (the
// request never resolves to a filesystem directory in that case).
// Stage 18.
func stageDirectoryIndex(ctx *Context) int {
	sess := ctx.Session
	if sess.FCGIServer != "" {
		return 0
	}
	if sess.Vars[dirKindVar] != string(session.DirYes) {
		return 0
	}

	if !strings.HasSuffix(sess.Req.URI, "/") {
		loc := sess.Req.URI + "/"
		sess.Location = loc
		sess.CauseOf301 = session.CauseTrailingSlash
		return http.StatusMovedPermanently
	}

	if sess.Host != nil && sess.Host.StartFile != "" {
		sess.Req.FileOnDisk = filepath.Join(sess.Req.FileOnDisk, sess.Host.StartFile)
	}

	return 0
}

// stageExtensionAndCGI computes the request extension and classifies the
// dispatch target: toolkit-pinned FastCGI, extension-matched FastCGI,
// binary-CGI, scripting-CGI, or no_cgi, in that priority order. Stage 19.
func stageExtensionAndCGI(ctx *Context) int {
	sess := ctx.Session
	sess.Req.Extension = strings.TrimPrefix(filepath.Ext(sess.Req.FileOnDisk), ".")

	if sess.FCGIServer != "" {
		sess.CGIType = session.FastCGI
		return 0
	}

	if sess.Host == nil {
		sess.CGIType = session.NoCGI
		return 0
	}

	for i := range sess.Host.CGIHandlers {
		h := &sess.Host.CGIHandlers[i]
		if h.Extension != sess.Req.Extension {
			continue
		}
		switch {
		case h.FastCGI != "":
			sess.CGIType = session.FastCGI
			sess.FCGIServer = h.FastCGI
		case h.Script != "":
			sess.CGIType = session.Script
			sess.CGIHandler = h
		default:
			sess.CGIType = session.Binary
			sess.CGIHandler = h
		}
		return 0
	}

	sess.CGIType = session.NoCGI
	return 0
}
