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

package session

// Arena is the per-request scratch allocator: the Go replacement for the
// intrusive tempdata list. Instead of tracking raw heap blocks to free,
// it tracks release closures and runs them in reverse order, so the last
// thing tracked is the first thing released (matches tempdata's LIFO
// unwind and lets later trackers depend on earlier ones still being live
// at release time).
type Arena struct {
	releases []func()
}

// Track registers a release closure to run at Release. Safe to call
// repeatedly across a single request's lifetime; rewrites of session.URI,
// Location, and similar scratch strings are tracked here instead of
// relying on GC finalizers, mirroring the source's explicit free points.
func (a *Arena) Track(release func()) {
	if release == nil {
		return
	}
	a.releases = append(a.releases, release)
}

// Release runs every tracked closure in reverse registration order and
// clears the arena, readying it for the next request.
func (a *Arena) Release() {
	for i := len(a.releases) - 1; i >= 0; i-- {
		a.releases[i]()
	}
	a.releases = a.releases[:0]
}

// Len reports how many releases are currently pending; used by tests to
// assert the arena is drained after Reset/Close.
func (a *Arena) Len() int {
	return len(a.releases)
}
