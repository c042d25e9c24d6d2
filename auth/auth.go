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

// Package auth is the pluggable http_authentication_result backend. The
// access-control pipeline stage delegates to an Authenticator whenever
// allow_client yields "pwd" (mandatory auth) or "unspecified" (optional
// auth); its Status propagates as the stage's result when not 200.
package auth

import (
	"encoding/base64"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// Result is the outcome of one authentication attempt.
type Result struct {
	Status int
	User   string
}

// Authenticator validates the Authorization header value (the raw wire
// value, e.g. "Basic base64(user:pass)") against a realm's credentials.
type Authenticator interface {
	// Authenticate returns {200, user} on success, {401, ""} otherwise.
	// mandatory distinguishes allow_client's "pwd" (auth required) from
	// "unspecified" (auth optional, absence of a header is not a
	// failure).
	Authenticate(authorization string, mandatory bool) Result
}

// HtpasswdStore is a basic-auth Authenticator backed by an in-memory
// username -> bcrypt-hash table, the Go idiom for an htpasswd-style
// credential file. Loaded once at startup; safe for concurrent reads.
type HtpasswdStore struct {
	mu    sync.RWMutex
	hashes map[string][]byte
}

func NewHtpasswdStore() *HtpasswdStore {
	return &HtpasswdStore{hashes: make(map[string][]byte)}
}

// SetUser stores a new bcrypt hash for user, replacing any existing one.
func (s *HtpasswdStore) SetUser(user string, bcryptHash []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hashes[user] = bcryptHash
}

func (s *HtpasswdStore) Authenticate(authorization string, mandatory bool) Result {
	user, pass, ok := parseBasic(authorization)
	if !ok {
		if mandatory {
			return Result{Status: 401}
		}
		return Result{Status: 200}
	}

	s.mu.RLock()
	hash, known := s.hashes[user]
	s.mu.RUnlock()

	if !known || bcrypt.CompareHashAndPassword(hash, []byte(pass)) != nil {
		return Result{Status: 401}
	}
	return Result{Status: 200, User: user}
}

func parseBasic(authorization string) (user, pass string, ok bool) {
	const prefix = "Basic "
	if !strings.HasPrefix(authorization, prefix) {
		return "", "", false
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(authorization, prefix))
	if err != nil {
		return "", "", false
	}
	parts := strings.SplitN(string(raw), ":", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	return parts[0], parts[1], true
}
