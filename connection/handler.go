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

// Package connection is the worker-pool handler that drives one accepted
// transport from TLS handshake through however many keep-alive requests
// it serves, building a fresh
// pipeline.Context per request and interpreting the pipeline's result via
// pipeline.Finalize. It implements workerpool.Handler.
package connection

import (
	"bufio"
	"context"
	"sync"
	"time"

	"github.com/f446843/hiawatha/auth"
	"github.com/f446843/hiawatha/banarbiter"
	"github.com/f446843/hiawatha/banlist"
	"github.com/f446843/hiawatha/config"
	"github.com/f446843/hiawatha/hook"
	"github.com/f446843/hiawatha/httpwire"
	"github.com/f446843/hiawatha/internal/errs"
	"github.com/f446843/hiawatha/internal/logging"
	"github.com/f446843/hiawatha/internal/monitor"
	"github.com/f446843/hiawatha/pipeline"
	"github.com/f446843/hiawatha/registry"
	"github.com/f446843/hiawatha/rproxy"
	"github.com/f446843/hiawatha/session"
	"github.com/f446843/hiawatha/tlsconfig"
	"github.com/f446843/hiawatha/toolkit"
)

const ErrorTLSBuilder errs.CodeError = iota + errs.MinPkgConnection

func init() {
	errs.RegisterIdFctMessage(errs.MinPkgConnection, message)
}

func message(code errs.CodeError) string {
	if code == ErrorTLSBuilder {
		return "cannot build tls config for binding"
	}
	return ""
}

// Handler bundles the request pipeline and every collaborator a request
// needs, plus the per-binding TLS builders it lazily constructs. One
// Handler is shared by every worker in the pool, satisfying
// workerpool.Handler via Serve.
type Handler struct {
	Config     *config.Config
	Pipeline   *pipeline.Pipeline
	Toolkit    *toolkit.Engine
	RProxy     *rproxy.Engine
	Auth       auth.Authenticator
	Banlist    *banlist.List
	Registry   *registry.Registry
	Counters   *monitor.Counters
	BanArbiter *banarbiter.Arbiter
	RunHook    func(hook.Request)

	buildersMu sync.Mutex
	builders   map[*config.Binding]*tlsconfig.Builder

	flood *floodDetector
}

// New builds a ready Handler. cfg drives the flood-detection threshold
// and the reconnect-delay passed to Registry.Remove; every other field
// is left for the caller to set before the handler starts serving.
func New(cfg *config.Config, p *pipeline.Pipeline) *Handler {
	return &Handler{
		Config:   cfg,
		Pipeline: p,
		builders: make(map[*config.Binding]*tlsconfig.Builder),
		flood:    newFloodDetector(cfg.FloodThreshold),
	}
}

// tlsBuilder returns the cached Builder for binding, constructing it on
// first use. A binding with no certificate material gets a Builder whose
// TLSConfig returns nil; Handshake treats that as a hard failure, so
// Serve only calls this when binding.UseSSL is true.
func (h *Handler) tlsBuilder(binding *config.Binding) (*tlsconfig.Builder, errs.Error) {
	h.buildersMu.Lock()
	defer h.buildersMu.Unlock()

	if b, ok := h.builders[binding]; ok {
		return b, nil
	}

	b, err := tlsconfig.NewBuilder(bindingTLSConfig(binding))
	if err != nil {
		return nil, errs.New(ErrorTLSBuilder, message(ErrorTLSBuilder), err)
	}

	h.builders[binding] = b
	return b, nil
}

// bindingTLSConfig adapts config.TLSBindingConf to tlsconfig.Config.
// TLSBindingConf carries no cipher-suite override, so CipherSuites is
// left at its zero value (the crypto/tls curated default).
func bindingTLSConfig(binding *config.Binding) *tlsconfig.Config {
	if binding.TLS == nil {
		return &tlsconfig.Config{}
	}
	return &tlsconfig.Config{
		CertFile:          binding.TLS.CertFile,
		KeyFile:           binding.TLS.KeyFile,
		ClientCAFile:      binding.TLS.ClientCAFile,
		RequireClientCert: binding.TLS.RequireClientCert,
		MinVersion:        binding.TLS.MinVersion,
		MaxVersion:        binding.TLS.MaxVersion,
	}
}

// Serve implements workerpool.Handler: it owns sess from dequeue to
// transport close. sess arrives with Conn/Addr/Config/Binding already set
// by the acceptor; everything else — handshake, registry bookkeeping,
// the keep-alive loop, final close — is this handler's responsibility.
func (h *Handler) Serve(sess *session.Session) {
	binding := sess.Binding

	if binding.UseSSL {
		builder, err := h.tlsBuilder(binding)
		if err != nil {
			logging.With(logging.Fields{"peer": sess.Addr.String()}).Warn(err.Error())
			_ = sess.Conn.Close()
			return
		}

		hctx, cancel := context.WithTimeout(context.Background(), binding.Time1stRequest)
		tlsConn, herr := builder.Handshake(hctx, sess.Conn)
		cancel()
		if herr != nil {
			logging.With(logging.Fields{"peer": sess.Addr.String()}).Warn("tls handshake failed")
			if herr.IsCode(tlsconfig.ErrorHandshakeTimeout) && h.BanArbiter != nil {
				h.BanArbiter.Ban(sess.Addr, session.BanTimeout)
			}
			_ = sess.Conn.Close()
			return
		}
		sess.Conn = tlsConn
	}

	sess.SocketOpen = true

	if h.Registry != nil {
		h.Registry.Add(sess.Addr, sess)
	}
	if h.Counters != nil {
		h.Counters.ConnectionOpened()
	}

	h.serveKeepAlive(sess)

	if h.Registry != nil {
		delay := time.Duration(0)
		if h.Config != nil {
			delay = h.Config.ReconnectDelay
		}
		h.Registry.Remove(sess, delay)
	}
	if h.Counters != nil {
		h.Counters.ConnectionClosed()
	}

	_ = sess.Close()
}

// serveKeepAlive runs one request after another on sess's transport until
// the session stops asking to be kept alive, is kicked, or floods past
// the configured threshold.
func (h *Handler) serveKeepAlive(sess *session.Session) {
	reader := bufio.NewReader(sess.Conn)

	for {
		writer := bufio.NewWriter(sess.Conn)
		ctx := &pipeline.Context{
			Session:    sess,
			Reader:     reader,
			Writer:     httpwire.NewResponseWriter(writer),
			Toolkit:    h.Toolkit,
			RProxy:     h.RProxy,
			Auth:       h.Auth,
			Banlist:    h.Banlist,
			Registry:   h.Registry,
			Counters:   h.Counters,
			BanArbiter: h.BanArbiter,
			RunHook:    h.RunHook,
		}

		result := h.Pipeline.Serve(ctx)
		pipeline.Finalize(ctx, result, h.Pipeline)
		_ = ctx.Writer.Flush()

		if sess.Kicked() {
			sess.Cause = session.CauseForceQuit
			sess.KeepAlive = false
		}

		if sess.KeptAlive > 0 && h.flood.record(sess.Addr) {
			if h.BanArbiter != nil {
				h.BanArbiter.Ban(sess.Addr, session.BanFlooding)
			}
			sess.KeepAlive = false
		}

		if !sess.KeepAlive {
			return
		}

		sess.KeptAlive++
		sess.Reset()
	}
}
