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

// Package banlist is the process-wide, mutex-guarded IP ban table. Bans
// placed by one worker are immediately visible to every other worker's
// next Allowed call.
package banlist

import (
	"net/netip"
	"sync"
	"time"
)

// List is safe for concurrent use by many workers.
type List struct {
	mu      sync.Mutex
	entries map[netip.Addr]time.Time // addr -> ban expiry
	safe    []netip.Prefix           // addresses Ban never touches
}

func New(safeMask []netip.Prefix) *List {
	return &List{
		entries: make(map[netip.Addr]time.Time),
		safe:    safeMask,
	}
}

// Ban extends addr's ban to now+duration. A zero or negative duration is
// a no-op (the caller's BanDuration lookup already returned 0, meaning
// "do not ban for this cause"). Ban never touches an address covered by
// the safe mask.
func (l *List) Ban(addr netip.Addr, duration time.Duration) {
	if duration <= 0 || l.isSafe(addr) {
		return
	}

	until := time.Now().Add(duration)

	l.mu.Lock()
	defer l.mu.Unlock()

	if existing, ok := l.entries[addr]; !ok || until.After(existing) {
		l.entries[addr] = until
	}
}

// Allowed reports whether addr may proceed: true unless addr carries a
// still-live ban. Expired entries are lazily swept on lookup.
func (l *List) Allowed(addr netip.Addr) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	until, ok := l.entries[addr]
	if !ok {
		return true
	}
	if time.Now().After(until) {
		delete(l.entries, addr)
		return true
	}
	return false
}

func (l *List) isSafe(addr netip.Addr) bool {
	for _, p := range l.safe {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// Sweep drops every expired entry; intended to be called periodically so
// the map doesn't grow unbounded under a long-lived process with many
// short bans.
func (l *List) Sweep() {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	for addr, until := range l.entries {
		if now.After(until) {
			delete(l.entries, addr)
		}
	}
}
