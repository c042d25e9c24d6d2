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
	"os"
	"path/filepath"
	"strings"

	"github.com/f446843/hiawatha/content"
	"github.com/f446843/hiawatha/hook"
	"github.com/f446843/hiawatha/session"
)

// stageMethodDispatch runs the final content operation: CGI, XSLT,
// static file, or a WebDAV mutation, then fires any configured
// run_on_download/run_on_alter hook. Stage 20.
func stageMethodDispatch(ctx *Context) int {
	sess := ctx.Session

	var status int
	switch sess.Req.Method {
	case session.MethodGET, session.MethodHEAD:
		status = dispatchGet(ctx)
	case session.MethodPOST, session.MethodUnsupported:
		status = dispatchPost(ctx)
	case session.MethodPUT:
		status = dispatchPut(ctx)
	case session.MethodDELETE:
		status = dispatchDelete(ctx)
	default:
		return http.StatusBadRequest
	}

	if ctx.Writer != nil && ctx.Writer.WroteHeader() {
		sess.DataSent = true
	}
	return status
}

func dispatchGet(ctx *Context) int {
	sess := ctx.Session

	if sess.CGIType != session.NoCGI {
		return runCGI(ctx)
	}

	if stylesheet, ok := xsltStylesheet(sess.Req.FileOnDisk); ok {
		return content.TransformXSLT(ctx.Writer, stylesheet, sess.Req.FileOnDisk)
	}

	status := content.SendFile(ctx.Writer, string(sess.Req.Method), sess.Req.RawURI, sess.Req.Headers, sess.Req.FileOnDisk)

	if status == http.StatusNotFound && sess.Host != nil && sess.Host.ShowIndex && strings.HasSuffix(sess.Req.URI, "/") {
		return content.RenderIndex(ctx.Writer, sess.Req.URI, filepath.Dir(sess.Req.FileOnDisk))
	}

	if status == http.StatusOK && sess.Host != nil && sess.Host.RunOnDownload != "" {
		fireHook(ctx, sess.Host.RunOnDownload, status)
	}

	return status
}

func dispatchPost(ctx *Context) int {
	sess := ctx.Session

	if sess.CGIType != session.NoCGI {
		return runCGI(ctx)
	}
	if stylesheet, ok := xsltStylesheet(sess.Req.FileOnDisk); ok {
		return content.TransformXSLT(ctx.Writer, stylesheet, sess.Req.FileOnDisk)
	}
	return http.StatusMethodNotAllowed
}

func dispatchPut(ctx *Context) int {
	sess := ctx.Session

	status := content.HandlePut(sess.Req.FileOnDisk, sess.Req.Body)
	if (status == http.StatusCreated || status == http.StatusNoContent) && sess.Host != nil && sess.Host.RunOnAlter != "" {
		fireHook(ctx, sess.Host.RunOnAlter, status)
	}
	return status
}

func dispatchDelete(ctx *Context) int {
	sess := ctx.Session

	status := content.HandleDelete(sess.Req.FileOnDisk)
	if status == http.StatusNoContent && sess.Host != nil && sess.Host.RunOnAlter != "" {
		fireHook(ctx, sess.Host.RunOnAlter, status)
	}
	return status
}

func runCGI(ctx *Context) int {
	sess := ctx.Session
	env := buildEnv(sess)

	switch sess.CGIType {
	case session.FastCGI:
		return content.ExecuteFastCGI(ctx.Writer, sess.FCGIServer, sess.Req.Body, env)
	case session.Script:
		return content.ExecuteCGI(ctx.Writer, sess.CGIHandler.Binary, sess.Req.FileOnDisk, sess.Req.Body, env)
	case session.Binary:
		return content.ExecuteCGI(ctx.Writer, sess.Req.FileOnDisk, "", sess.Req.Body, env)
	default:
		return http.StatusInternalServerError
	}
}

func buildEnv(sess *session.Session) content.Env {
	var documentRoot string
	if sess.Host != nil {
		documentRoot = sess.Host.WebsiteRoot
	}
	return content.Env{
		RequestMethod: string(sess.Req.Method),
		DocumentRoot:  documentRoot,
		RequestURI:    sess.Req.RawURI,
		RemoteUser:    sess.Req.RemoteUser,
		RemoteAddr:    sess.Addr.String(),
		ContentLength: sess.Req.ContentLength,
		QueryString:   sess.Req.Query.Encode(),
		PathInfo:      sess.Req.PathInfo,
		ScriptName:    sess.Req.FileOnDisk,
	}
}

// xsltStylesheet reports whether an .xml target has a sibling stylesheet
// named after it with a .xsl extension, the convention content.TransformXSLT
// expects its caller to have already resolved.
func xsltStylesheet(path string) (string, bool) {
	if filepath.Ext(path) != ".xml" {
		return "", false
	}
	stylesheet := strings.TrimSuffix(path, filepath.Ext(path)) + ".xsl"
	if _, err := os.Stat(stylesheet); err != nil {
		return "", false
	}
	return stylesheet, true
}

func fireHook(ctx *Context, path string, status int) {
	if ctx.RunHook == nil {
		return
	}
	sess := ctx.Session
	ctx.RunHook(hook.Request{
		Path:         path,
		Method:       string(sess.Req.Method),
		DocumentRoot: documentRootOf(sess),
		RequestURI:   sess.Req.RawURI,
		RemoteUser:   sess.Req.RemoteUser,
		RemoteAddr:   sess.Addr.String(),
		ReturnCode:   status,
		Referer:      sess.Req.Header("Referer"),
		UserAgent:    sess.Req.Header("User-Agent"),
		Wait:         sess.Config != nil && sess.Config.WaitForCGI,
	})
}

func documentRootOf(sess *session.Session) string {
	if sess.Host == nil {
		return ""
	}
	return sess.Host.WebsiteRoot
}
