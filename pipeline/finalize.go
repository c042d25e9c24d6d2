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

	"github.com/f446843/hiawatha/accesslog"
	"github.com/f446843/hiawatha/errhandler"
	"github.com/f446843/hiawatha/internal/logging"
	"github.com/f446843/hiawatha/session"
)

// Finalize is the single point that emits wire bytes for a finished
// pipeline run and interacts with the Error Handler and Ban Arbiter.
// result is whatever Pipeline.Serve returned; on a -1 transport fault
// the cause is read from ctx.Session.Cause.
//
// Idempotence: if ctx.Writer already committed a status (DataSent), this
// never writes a second one — it only logs.
//
// p supplies the error-handler re-entry point (Pipeline.Redispatch); a
// fresh errhandler.Handler is built per call rather than held on Context,
// since its Dispatch closure must capture this specific ctx, and
// errhandler cannot import pipeline.Context directly without a cycle.
func Finalize(ctx *Context, result int, p *Pipeline) {
	sess := ctx.Session

	if result == -1 {
		finalizeFault(ctx)
		return
	}

	switch result {
	case http.StatusOK:
		// nothing to do; the dispatch stage already wrote the body.
	case http.StatusCreated, http.StatusNoContent, http.StatusNotModified, http.StatusPreconditionFailed:
		writeBareStatus(ctx, result)
	case http.StatusLengthRequired, http.StatusRequestEntityTooLarge:
		writeBareStatus(ctx, result)
		sess.KeepAlive = false
	case http.StatusBadRequest:
		logging.With(logging.Fields{"peer": sess.Addr.String()}).Warn("garbage request")
		writeBareStatus(ctx, result)
		ctx.ban(session.BanGarbage)
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound, http.StatusNotImplemented, http.StatusServiceUnavailable:
		finalizeViaErrorHandler(ctx, result, p)
	case http.StatusInternalServerError:
		sess.KeepAlive = false
		writeBareStatus(ctx, result)
	default:
		writeBareStatus(ctx, result)
	}

	if result > 0 && result != http.StatusBadRequest {
		emitAccessLog(ctx, result)
	} else {
		sess.KeepAlive = false
	}

	sess.MarkRequestServed()
}

func finalizeFault(ctx *Context) {
	sess := ctx.Session

	switch sess.Cause {
	case session.CauseMaxRequestSize:
		writeBareStatus(ctx, http.StatusRequestEntityTooLarge)
		ctx.ban(session.BanMaxRequestSize)
	case session.CauseTimeout:
		if sess.IsFirstRequest() {
			writeBareStatus(ctx, http.StatusRequestTimeout)
		}
		ctx.ban(session.BanTimeout)
	case session.CauseClientDisconnected:
		if sess.IsFirstRequest() {
			logging.With(logging.Fields{"peer": sess.Addr.String()}).Info("client disconnected")
		}
	case session.CauseSocketReadError:
		logging.With(logging.Fields{"peer": sess.Addr.String()}).Warn("socket read error")
	case session.CauseSocketWriteError:
		logging.With(logging.Fields{"peer": sess.Addr.String()}).Warn("socket write error")
	case session.CauseForceQuit:
		logging.With(logging.Fields{"peer": sess.Addr.String()}).Info("kicked")
	case session.CauseSQLInjection:
		ctx.ban(session.BanSQLi)
		writeBareStatus(ctx, 441)
		logging.With(logging.Fields{"peer": sess.Addr.String()}).Warn("sql injection attempt")
	case session.CauseInvalidURL:
		ctx.ban(session.BanInvalidURL)
		writeBareStatus(ctx, http.StatusBadRequest)
	default:
		if !ctx.Writer.WroteHeader() {
			writeBareStatus(ctx, http.StatusInternalServerError)
		}
	}

	sess.KeepAlive = false
	sess.MarkRequestServed()
}

func finalizeViaErrorHandler(ctx *Context, code int, p *Pipeline) {
	sess := ctx.Session

	if p != nil && sess.Host != nil {
		h := &errhandler.Handler{Dispatch: func(*session.Session) int { return p.Redispatch(ctx) }}
		if handled, result := h.Handle(sess, code); handled {
			if !ctx.Writer.WroteHeader() {
				writeBareStatus(ctx, result)
			}
			return
		}
	}

	writeBareStatus(ctx, code)
}

func writeBareStatus(ctx *Context, status int) {
	if ctx.Writer.WroteHeader() {
		return
	}
	ctx.Writer.Header().Set("Content-Length", "0")
	ctx.Writer.WriteHeader(status)
}

func emitAccessLog(ctx *Context, status int) {
	sess := ctx.Session
	accesslog.Emit(accesslog.Entry{
		Peer:      sess.Addr.String(),
		Time:      sess.Time,
		Method:    string(sess.Req.Method),
		URI:       sess.Req.RawURI,
		Status:    status,
		BytesSent: ctx.Writer.Sent,
		Referer:   sess.Req.Header("Referer"),
		UserAgent: sess.Req.Header("User-Agent"),
	})
}
