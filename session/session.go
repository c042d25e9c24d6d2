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

// Package session defines the per-connection, per-request state machine's
// data: Session (the unit of work), Request (the in-flight HTTP request)
// and Arena (the tempdata replacement). Nothing here performs I/O; it is
// the shared vocabulary the connection handler, pipeline and finalizer
// mutate in strict sequence.
package session

import (
	"net"
	"net/netip"
	"sync/atomic"
	"time"

	"github.com/f446843/hiawatha/config"
)

// Session is the unit of work: one accepted transport, reused across
// however many keep-alive requests it serves.
type Session struct {
	// Transport.
	Conn       net.Conn
	SocketOpen bool
	KeptAlive  int

	// Peer identity. Addr may be rewritten in place by the proxy-unmasking
	// stage when the direct peer is a trusted reverse proxy.
	Addr netip.Addr

	// Configuration view.
	Config  *config.Config
	Binding *config.Binding
	Host    *config.Host

	// In-flight request.
	Req Request

	// Dispatch.
	CGIType    CGIType
	CGIHandler *config.CGIHandler
	FCGIServer string

	// Response.
	ReturnCode    int
	ErrorCode     int
	MimeType      string
	Location      string
	KeepAlive     bool
	DataSent      bool
	HandlingError bool
	CauseOf301    CauseOf301
	Cause         ErrorCause // populated by the pipeline when ReturnCode == -1

	// Scratch.
	Arena     Arena
	Directory *config.Host // per-request overlay ("duplicate host")
	Vars      map[string]string

	Time time.Time

	firstRequest atomic.Bool
	forceQuit    atomic.Bool
}

// New wraps an accepted connection for the given binding, ready for the
// connection handler to drive. firstRequest starts true: the connection
// handler's TLS-handshake/first-read timeout distinguishes the inaugural
// request from subsequent ones, which is what drives the silent-vs-logged
// timeout split.
func New(conn net.Conn, addr netip.Addr, cfg *config.Config, binding *config.Binding) *Session {
	s := &Session{
		Conn:      conn,
		Addr:      addr,
		Config:    cfg,
		Binding:   binding,
		KeepAlive: true,
	}
	s.firstRequest.Store(true)
	return s
}

// IsFirstRequest reports whether no request has yet completed on this
// connection.
func (s *Session) IsFirstRequest() bool {
	return s.firstRequest.Load()
}

// MarkRequestServed flips IsFirstRequest to false after the first request
// completes, regardless of outcome.
func (s *Session) MarkRequestServed() {
	s.firstRequest.Store(false)
}

// Reset zeroes all per-request fields but preserves transport, peer
// identity, Config/Binding and KeptAlive so the connection can keep
// serving requests on the same session. The arena is released (in
// reverse-tracked order) before the fields it backed are cleared.
func (s *Session) Reset() {
	s.Arena.Release()

	s.Req.reset()
	s.Host = nil
	s.CGIType = ""
	s.CGIHandler = nil
	s.FCGIServer = ""
	s.ReturnCode = 0
	s.ErrorCode = 0
	s.MimeType = ""
	s.Location = ""
	s.DataSent = false
	s.HandlingError = false
	s.CauseOf301 = CauseNone
	s.Cause = ""
	s.Directory = nil
	s.Vars = nil
	s.Time = time.Time{}
}

// Kick asynchronously force-closes the transport, producing the
// FORCE_QUIT error cause on the connection handler's next read. Implements
// registry.Session.
func (s *Session) Kick() {
	s.forceQuit.Store(true)
	if s.Conn != nil {
		_ = s.Conn.Close()
	}
}

// Kicked reports whether Kick was called on this session.
func (s *Session) Kicked() bool {
	return s.forceQuit.Load()
}

// Close releases the arena and closes the transport. It does not touch
// the session registry; callers (connection.Handler) own deregistration.
func (s *Session) Close() error {
	s.Arena.Release()
	s.SocketOpen = false
	if s.Conn != nil {
		return s.Conn.Close()
	}
	return nil
}
