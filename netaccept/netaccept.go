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

// Package netaccept is the listener/acceptor: one raw net.Listener per
// Binding, handing each accepted net.Conn together with its originating
// Binding to a callback — deliberately not net/http.Server, whose accept
// loop spawns one unbounded goroutine per connection instead of going
// through a bounded worker pool.
package netaccept

import (
	"net"
	"net/netip"

	"github.com/f446843/hiawatha/config"
	"github.com/f446843/hiawatha/internal/logging"
)

// Accepted is handed to the caller's OnAccept callback for every
// successful accept.
type Accepted struct {
	Conn    net.Conn
	Addr    netip.Addr
	Binding *config.Binding
}

// Listener owns one raw net.Listener bound to one config.Binding.
type Listener struct {
	binding *config.Binding
	ln      net.Listener
}

func Listen(binding *config.Binding) (*Listener, error) {
	ln, err := net.Listen("tcp", binding.Address)
	if err != nil {
		return nil, err
	}
	return &Listener{binding: binding, ln: ln}, nil
}

func (l *Listener) Addr() net.Addr { return l.ln.Addr() }
func (l *Listener) Close() error   { return l.ln.Close() }

// Serve accepts connections until the listener is closed, invoking
// onAccept for each one synchronously; whether to hand it off to its own
// goroutine is left to the caller (the worker pool decides scheduling,
// not this package).
func (l *Listener) Serve(onAccept func(Accepted)) error {
	for {
		conn, err := l.ln.Accept()
		if err != nil {
			return err
		}

		addr := peerAddr(conn)
		onAccept(Accepted{Conn: conn, Addr: addr, Binding: l.binding})
	}
}

func peerAddr(conn net.Conn) netip.Addr {
	ap, err := netip.ParseAddrPort(conn.RemoteAddr().String())
	if err != nil {
		logging.With(logging.Fields{"remote": conn.RemoteAddr().String()}).Warn("cannot parse peer address")
		return netip.Addr{}
	}
	return ap.Addr()
}
