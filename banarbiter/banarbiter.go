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

// Package banarbiter is the policy layer translating protocol faults
// into banlist entries. It holds no state of its own; every operation
// reads from config and writes through banlist/registry.
package banarbiter

import (
	"net/netip"

	"github.com/f446843/hiawatha/banlist"
	"github.com/f446843/hiawatha/config"
	"github.com/f446843/hiawatha/internal/logging"
	"github.com/f446843/hiawatha/internal/monitor"
	"github.com/f446843/hiawatha/registry"
	"github.com/f446843/hiawatha/session"
)

// Arbiter bundles the collaborators Ban needs. All fields are optional;
// a nil Registry simply skips kick_on_ban, a nil Counters skips bumping
// monitor stats.
type Arbiter struct {
	Config   *config.Config
	Banlist  *banlist.List
	Registry *registry.Registry
	Counters *monitor.Counters
}

// Ban extends the peer's ban for cause if the config names a non-zero
// duration for it and the peer is not on the safe mask (delegated to
// banlist.Ban, which itself enforces the safe mask). Logs a system line
// naming the cause either way decisions are made, and optionally
// force-disconnects the peer's other live sessions.
func (a *Arbiter) Ban(addr netip.Addr, cause session.BanCause) {
	duration := a.Config.BanDuration(string(cause))
	if duration <= 0 {
		return
	}

	a.Banlist.Ban(addr, duration)

	logging.With(logging.Fields{
		"peer":     addr.String(),
		"cause":    string(cause),
		"duration": duration.String(),
	}).Warn("peer banned")

	if a.Counters != nil {
		a.Counters.BanIssued()
	}

	if a.Config.KickOnBan && a.Registry != nil {
		a.Registry.Kick(addr)
	}
}
