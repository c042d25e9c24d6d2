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

package connection

import (
	"net/netip"
	"sync"
	"time"
)

// floodDetector counts requests per peer within a fixed one-second
// window that restarts once it is more than a second old; a peer exceeding the configured threshold drives the Ban
// Arbiter's "flooding" cause. One instance is shared by every connection
// handler invocation, since flooding is a per-peer property across
// however many connections a client opens.
type floodDetector struct {
	mu        sync.Mutex
	threshold int
	counts    map[netip.Addr]*floodWindow
}

type floodWindow struct {
	windowStart time.Time
	count       int
}

func newFloodDetector(threshold int) *floodDetector {
	return &floodDetector{threshold: threshold, counts: make(map[netip.Addr]*floodWindow)}
}

// record registers one request from addr and reports whether this peer's
// count in the current one-second window is above the threshold (true for
// every further request in that window, not only the first one over).
func (d *floodDetector) record(addr netip.Addr) bool {
	if d.threshold <= 0 {
		return false
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	now := time.Now()
	w, ok := d.counts[addr]
	if !ok || now.Sub(w.windowStart) > time.Second {
		w = &floodWindow{windowStart: now}
		d.counts[addr] = w
	}
	w.count++

	return w.count > d.threshold
}
