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
	"crypto/tls"
	"crypto/x509"
	"os"

	"github.com/f446843/hiawatha/internal/errs"
)

// Builder turns a Config into a ready *tls.Config, caching the parsed
// certificate pair and client CA pool so repeated binding reloads don't
// re-parse PEM material on every call.
type Builder struct {
	cfg *Config

	cert   tls.Certificate
	haveCert bool

	clientCAs *x509.CertPool
}

// NewBuilder loads and validates cfg's certificate material up front,
// returning a ready Builder or the first load error encountered.
func NewBuilder(cfg *Config) (*Builder, errs.Error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	b := &Builder{cfg: cfg}

	if !cfg.IsTLS() {
		return b, nil
	}

	cert, e := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
	if e != nil {
		return nil, errs.New(ErrorCertKeyPairLoad, message(ErrorCertKeyPairLoad), e)
	}
	b.cert = cert
	b.haveCert = true

	if cfg.ClientCAFile != "" {
		pool, err := loadCertPool(cfg.ClientCAFile)
		if err != nil {
			return nil, err
		}
		b.clientCAs = pool
	}

	return b, nil
}

func loadCertPool(path string) (*x509.CertPool, errs.Error) {
	raw, e := os.ReadFile(path)
	if e != nil {
		return nil, errs.New(ErrorFileRead, message(ErrorFileRead), e)
	}

	pool := x509.NewCertPool()
	if ok := pool.AppendCertsFromPEM(raw); !ok {
		return nil, errs.New(ErrorCertAppend, message(ErrorCertAppend))
	}

	return pool, nil
}

// TLSConfig returns a *tls.Config ready for tls.Server, honoring the
// binding's minimum/maximum version and cipher restrictions. It carries
// the binding's single certificate pair; every Host sharing the Binding
// is served that same certificate (no per-host SNI selection). Returns
// nil when no certificate pair was loaded.
func (b *Builder) TLSConfig() *tls.Config {
	if !b.haveCert {
		return nil
	}

	cfg := &tls.Config{
		Certificates: []tls.Certificate{b.cert},
		MinVersion:   b.minVersion(),
		MaxVersion:   b.maxVersion(),
		CipherSuites: b.cfg.CipherSuites,
	}

	if b.clientCAs != nil {
		cfg.ClientCAs = b.clientCAs
		if b.cfg.RequireClientCert {
			cfg.ClientAuth = tls.RequireAndVerifyClientCert
		} else {
			cfg.ClientAuth = tls.VerifyClientCertIfGiven
		}
	}

	return cfg
}

func (b *Builder) minVersion() uint16 {
	if b.cfg.MinVersion != 0 {
		return b.cfg.MinVersion
	}
	return tls.VersionTLS12
}

func (b *Builder) maxVersion() uint16 {
	return b.cfg.MaxVersion // zero means "no ceiling", the crypto/tls default
}

// RequiresClientCert reports whether the pipeline's TLS client-cert
// requirement stage must enforce a verified client certificate on this
// binding's connections.
func (b *Builder) RequiresClientCert() bool {
	return b.clientCAs != nil && b.cfg.RequireClientCert
}
