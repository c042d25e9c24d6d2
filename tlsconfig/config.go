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

// Package tlsconfig builds *tls.Config values for bindings and, when a host
// mandates mutual TLS, the client CA pool checked in the request pipeline's
// "TLS client-cert requirement" stage.
package tlsconfig

import (
	libval "github.com/go-playground/validator/v10"

	"github.com/f446843/hiawatha/internal/errs"
)

const (
	ErrorFileStat errs.CodeError = iota + errs.MinPkgTLS
	ErrorFileRead
	ErrorCertKeyPairLoad
	ErrorCertAppend
	ErrorValidate
)

func init() {
	errs.RegisterIdFctMessage(errs.MinPkgTLS, message)
}

func message(code errs.CodeError) string {
	switch code {
	case ErrorFileStat:
		return "cannot stat certificate file"
	case ErrorFileRead:
		return "cannot read certificate file"
	case ErrorCertKeyPairLoad:
		return "cannot load certificate/key pair"
	case ErrorCertAppend:
		return "cannot append certificate to pool"
	case ErrorValidate:
		return "tls config is not valid"
	}
	return ""
}

// Config is the serializable TLS material for one Binding, following the
// teacher's mapstructure/validate struct-tag convention.
type Config struct {
	// CertFile/KeyFile is the server's own certificate pair.
	CertFile string `mapstructure:"cert_file" json:"cert_file" yaml:"cert_file"`
	KeyFile  string `mapstructure:"key_file" json:"key_file" yaml:"key_file"`

	// ClientCAFile, when set, is used to verify client certificates;
	// required when a Host sets ca_certificate (mutual TLS).
	ClientCAFile string `mapstructure:"client_ca_file" json:"client_ca_file" yaml:"client_ca_file"`

	// RequireClientCert mandates a verified client certificate when true.
	RequireClientCert bool `mapstructure:"require_client_cert" json:"require_client_cert" yaml:"require_client_cert"`

	// MinVersion/MaxVersion are crypto/tls.VersionTLS1x constants.
	MinVersion uint16 `mapstructure:"min_version" json:"min_version" yaml:"min_version" validate:"omitempty,gte=769"`
	MaxVersion uint16 `mapstructure:"max_version" json:"max_version" yaml:"max_version"`

	// CipherSuites restricts the negotiated cipher suite list; empty means
	// the Go runtime default (safe curated list).
	CipherSuites []uint16 `mapstructure:"cipher_suites" json:"cipher_suites" yaml:"cipher_suites"`
}

func (c *Config) Validate() errs.Error {
	if c.CertFile == "" || c.KeyFile == "" {
		return nil // TLS disabled for this binding
	}

	val := libval.New()
	if err := val.Struct(c); err != nil {
		return errs.New(ErrorValidate, message(ErrorValidate), err)
	}
	return nil
}

// IsTLS reports whether this config carries usable certificate material.
func (c *Config) IsTLS() bool {
	return c != nil && c.CertFile != "" && c.KeyFile != ""
}
