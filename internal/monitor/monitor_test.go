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

package monitor_test

import (
	"sync"
	"testing"

	"github.com/f446843/hiawatha/internal/monitor"
)

func TestConnectionOpenedTracksPeak(t *testing.T) {
	c := monitor.New(true)

	c.ConnectionOpened()
	c.ConnectionOpened()
	c.ConnectionOpened()
	if got := c.OpenConnections(); got != 3 {
		t.Fatalf("OpenConnections = %d, want 3", got)
	}
	if got := c.SimultaneousPeak(); got != 3 {
		t.Fatalf("SimultaneousPeak = %d, want 3", got)
	}

	c.ConnectionClosed()
	c.ConnectionClosed()
	if got := c.OpenConnections(); got != 1 {
		t.Fatalf("OpenConnections = %d, want 1", got)
	}
	if got := c.SimultaneousPeak(); got != 3 {
		t.Fatalf("SimultaneousPeak = %d after closes, want peak to stay at 3", got)
	}
}

func TestDisabledCountersDoNotBumpTallies(t *testing.T) {
	c := monitor.New(false)

	c.BanIssued()
	c.ExploitAttemptSeen()
	c.DeniedBodyMatched()

	if got := c.BansIssued(); got != 0 {
		t.Fatalf("BansIssued = %d, want 0 while disabled", got)
	}
	if got := c.ExploitAttemptsSeen(); got != 0 {
		t.Fatalf("ExploitAttemptsSeen = %d, want 0 while disabled", got)
	}
	if got := c.DeniedBodiesMatched(); got != 0 {
		t.Fatalf("DeniedBodiesMatched = %d, want 0 while disabled", got)
	}

	// Open-connection tracking is unconditional; only the peak CAS loop
	// and the tallies above are gated by Enabled.
	c.ConnectionOpened()
	if got := c.OpenConnections(); got != 1 {
		t.Fatalf("OpenConnections = %d, want 1 even while disabled", got)
	}
	if got := c.SimultaneousPeak(); got != 0 {
		t.Fatalf("SimultaneousPeak = %d, want 0 while disabled", got)
	}
}

func TestBumpsAreConcurrencySafe(t *testing.T) {
	c := monitor.New(true)
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.ConnectionOpened()
			c.BanIssued()
		}()
	}
	wg.Wait()

	if got := c.OpenConnections(); got != 100 {
		t.Fatalf("OpenConnections = %d, want 100", got)
	}
	if got := c.BansIssued(); got != 100 {
		t.Fatalf("BansIssued = %d, want 100", got)
	}
	if got := c.SimultaneousPeak(); got != 100 {
		t.Fatalf("SimultaneousPeak = %d, want 100", got)
	}
}
