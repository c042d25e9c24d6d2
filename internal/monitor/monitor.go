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

// Package monitor holds the process-wide best-effort counters: open
// connections, the high-water mark of simultaneous connections, and the
// handful of adversarial-traffic tallies the ban arbiter bumps. Built
// directly on sync/atomic rather than a third-party metrics client,
// since these are plain in-process gauges with no export path.
package monitor

import "sync/atomic"

// Counters is a fixed set of atomic gauges/tallies. The zero value is ready
// to use; Enabled gates whether bumps are observed at all (the config
// carries a single monitor flag that toggles every counter together).
type Counters struct {
	enabled atomic.Bool

	openConnections      atomic.Int64
	simultaneousPeak     atomic.Int64
	bansIssued           atomic.Int64
	exploitAttemptsSeen  atomic.Int64
	deniedBodiesMatched  atomic.Int64
}

func New(enabled bool) *Counters {
	c := &Counters{}
	c.enabled.Store(enabled)
	return c
}

func (c *Counters) Enabled() bool { return c.enabled.Load() }

// ConnectionOpened bumps open_connections and, if monitoring is enabled,
// races the CAS loop to keep simultaneousPeak as the observed maximum. The
// race is intentionally not linearizable with ConnectionClosed, matching
// the source's own best-effort semantics for this statistic.
func (c *Counters) ConnectionOpened() {
	n := c.openConnections.Add(1)
	if !c.Enabled() {
		return
	}
	for {
		peak := c.simultaneousPeak.Load()
		if n <= peak {
			return
		}
		if c.simultaneousPeak.CompareAndSwap(peak, n) {
			return
		}
	}
}

func (c *Counters) ConnectionClosed() {
	c.openConnections.Add(-1)
}

func (c *Counters) OpenConnections() int64 { return c.openConnections.Load() }
func (c *Counters) SimultaneousPeak() int64 { return c.simultaneousPeak.Load() }

func (c *Counters) BanIssued() {
	if c.Enabled() {
		c.bansIssued.Add(1)
	}
}

func (c *Counters) ExploitAttemptSeen() {
	if c.Enabled() {
		c.exploitAttemptsSeen.Add(1)
	}
}

func (c *Counters) DeniedBodyMatched() {
	if c.Enabled() {
		c.deniedBodiesMatched.Add(1)
	}
}

func (c *Counters) BansIssued() int64          { return c.bansIssued.Load() }
func (c *Counters) ExploitAttemptsSeen() int64 { return c.exploitAttemptsSeen.Load() }
func (c *Counters) DeniedBodiesMatched() int64 { return c.deniedBodiesMatched.Load() }
