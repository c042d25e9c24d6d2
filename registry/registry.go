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

// Package registry tracks live sessions keyed by client IP, giving the
// ban arbiter a way to force-disconnect other connections from a peer
// that just earned a ban (kick_on_ban) and giving the proxy-unmasking
// pipeline stage a place to repoint a session's tracked address once
// X-Forwarded-For substitution resolves the true peer.
package registry

import (
	"net/netip"
	"sync"
	"time"
)

// Session is the subset of session.Session the registry needs; defined
// locally to avoid an import cycle (package session never imports
// registry — the connection handler wires the two together).
type Session interface {
	Kick()
}

type entry struct {
	addr    netip.Addr
	session Session
	addedAt time.Time
}

// Registry is safe for concurrent use.
type Registry struct {
	mu      sync.Mutex
	byAddr  map[netip.Addr]map[*entry]struct{}
	entries map[Session]*entry
}

func New() *Registry {
	return &Registry{
		byAddr:  make(map[netip.Addr]map[*entry]struct{}),
		entries: make(map[Session]*entry),
	}
}

// Add registers sess under addr. Called by the connection handler once
// the session's transport is ready (after any TLS handshake), before its
// keep-alive loop starts.
func (r *Registry) Add(addr netip.Addr, sess Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e := &entry{addr: addr, session: sess, addedAt: time.Now()}
	r.entries[sess] = e

	set, ok := r.byAddr[addr]
	if !ok {
		set = make(map[*entry]struct{})
		r.byAddr[addr] = set
	}
	set[e] = struct{}{}
}

// Rebind moves sess's tracked entry from its current address to newAddr,
// used by the proxy-unmasking stage once X-Forwarded-For resolves the
// real client behind a trusted reverse proxy, so bans placed afterward
// target the true peer.
func (r *Registry) Rebind(sess Session, newAddr netip.Addr) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[sess]
	if !ok {
		return
	}

	if set, ok := r.byAddr[e.addr]; ok {
		delete(set, e)
		if len(set) == 0 {
			delete(r.byAddr, e.addr)
		}
	}

	e.addr = newAddr
	set, ok := r.byAddr[newAddr]
	if !ok {
		set = make(map[*entry]struct{})
		r.byAddr[newAddr] = set
	}
	set[e] = struct{}{}
}

// Remove deregisters sess immediately, or after delay for reconnection
// rate-limiting.
func (r *Registry) Remove(sess Session, delay time.Duration) {
	if delay <= 0 {
		r.remove(sess)
		return
	}
	time.AfterFunc(delay, func() { r.remove(sess) })
}

func (r *Registry) remove(sess Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[sess]
	if !ok {
		return
	}
	delete(r.entries, sess)

	if set, ok := r.byAddr[e.addr]; ok {
		delete(set, e)
		if len(set) == 0 {
			delete(r.byAddr, e.addr)
		}
	}
}

// Kick force-disconnects every session currently registered under addr,
// the kick_on_ban behavior the ban arbiter triggers.
func (r *Registry) Kick(addr netip.Addr) int {
	r.mu.Lock()
	set := r.byAddr[addr]
	sessions := make([]Session, 0, len(set))
	for e := range set {
		sessions = append(sessions, e.session)
	}
	r.mu.Unlock()

	for _, s := range sessions {
		s.Kick()
	}
	return len(sessions)
}

// Count reports how many sessions are currently registered under addr.
func (r *Registry) Count(addr netip.Addr) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byAddr[addr])
}
