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

package tlsconfig

import (
	"context"
	"crypto/tls"
	"net"

	"github.com/f446843/hiawatha/internal/errs"
)

const (
	ErrorHandshake errs.CodeError = iota + errs.MinPkgTLS + 10
	ErrorHandshakeTimeout
)

func init() {
	errs.RegisterIdFctMessage(errs.MinPkgTLS+10, handshakeMessage)
}

func handshakeMessage(code errs.CodeError) string {
	switch code {
	case ErrorHandshake:
		return "tls handshake failed"
	case ErrorHandshakeTimeout:
		return "tls handshake did not complete before deadline"
	}
	return ""
}

// Handshake wraps raw in a *tls.Conn and drives the handshake to completion
// or ctx's deadline, whichever comes first. The deadline is the binding's
// "time to first request" budget: a client that opens a TLS connection
// and never completes the handshake must not hold a worker indefinitely.
func (b *Builder) Handshake(ctx context.Context, raw net.Conn) (*tls.Conn, errs.Error) {
	cfg := b.TLSConfig()
	if cfg == nil {
		return nil, errs.New(ErrorHandshake, handshakeMessage(ErrorHandshake))
	}

	conn := tls.Server(raw, cfg)
	if e := conn.HandshakeContext(ctx); e != nil {
		if ctx.Err() != nil {
			return nil, errs.New(ErrorHandshakeTimeout, handshakeMessage(ErrorHandshakeTimeout), e)
		}
		return nil, errs.New(ErrorHandshake, handshakeMessage(ErrorHandshake), e)
	}

	return conn, nil
}
