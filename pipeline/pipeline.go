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

// Stage is one pipeline step: 0 means fall through to the next stage,
// any other value is a final status code (-1 is the transport-fault
// sentinel; the cause is read from ctx.Session.Cause).
type Stage func(ctx *Context) int

// Pipeline runs its stages in strict order: the ordering is contractual
// because later stages assume the mutations performed by earlier ones.
type Pipeline struct {
	stages []Stage
}

// NewDefault builds the pipeline with all twenty stages in spec order.
func NewDefault() *Pipeline {
	return &Pipeline{stages: []Stage{
		stageFetchAndParse,
		stageRecordTimestamp,
		stageProxyUnmasking,
		stageHostResolution,
		stageTLSClientCert,
		stageForceSSLRedirect,
		stageBodyDenylist,
		stageReverseProxy,
		stageMethodGating,
		stageURLToolkit,
		stageQueryAndNormalize,
		stageDuplicateHost,
		stageValidateURL,
		stagePathMaterialization,
		stageDirectoryOverrides,
		stageAccessControl,
		stageTargetKind,
		stageDirectoryIndex,
		stageExtensionAndCGI,
		stageMethodDispatch,
	}}
}

// Serve runs every stage until one returns non-zero, returning that
// status (or 200 if every stage fell through — spec: "Return the final
// status code").
func (p *Pipeline) Serve(ctx *Context) int {
	for _, stage := range p.stages {
		if code := stage(ctx); code != 0 {
			return code
		}
	}
	return 200
}

// Redispatch re-runs only the tail of the pipeline an error-handler
// re-entry needs: extension/CGI classification through method dispatch,
// against a FileOnDisk the error handler already rewrote. This is the
// Dispatch callback package errhandler calls, avoiding an errhandler ->
// pipeline -> errhandler import cycle by construction (pipeline depends
// on nothing in errhandler).
func (p *Pipeline) Redispatch(ctx *Context) int {
	tail := []Stage{stageExtensionAndCGI, stageMethodDispatch}
	for _, stage := range tail {
		if code := stage(ctx); code != 0 {
			return code
		}
	}
	return 200
}
