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

package workerpool

import (
	"sync/atomic"

	"github.com/f446843/hiawatha/session"
)

// Worker is one long-lived goroutine executing the dequeue/dispatch/park
// wait loop.
type Worker struct {
	id   int
	pool *Pool
	quit atomic.Bool
}

// loop implements the worker-pool wait loop. If preAssigned is non-nil
// the worker adopts it without touching the queue (the "grow the pool by
// one new worker pre-assigned this session" path of Start); otherwise it
// waits on the pool's condition variable for the next queued session.
func (w *Worker) loop(preAssigned *session.Session) {
	sess := preAssigned

	for {
		if sess == nil {
			var ok bool
			sess, ok = w.await()
			if !ok {
				w.pool.unlink(w)
				return
			}
		}

		if sess != nil {
			w.pool.handler(sess)
		}
		sess = nil

		if w.quit.Load() {
			w.pool.unlink(w)
			return
		}
	}
}

// await blocks on the pool's condition variable until a session is
// pushed or this worker is told to quit. waitingWorkers is incremented
// once on entry, before the Wait loop, and decremented exactly once on
// return via defer, however many times Wait wakes in between (spurious
// wakeups and signals that find the queue empty loop back to Wait) and
// whichever path returns (quit or a genuine dequeue). A double decrement
// here is a real hazard; the defer makes the single decrement
// unconditional.
func (w *Worker) await() (*session.Session, bool) {
	w.pool.mu.Lock()
	defer w.pool.mu.Unlock()

	w.pool.waitingWorkers++
	defer func() { w.pool.waitingWorkers-- }()

	for w.pool.pending.Len() == 0 {
		if w.quit.Load() {
			return nil, false
		}
		w.pool.cond.Wait()
	}

	front := w.pool.pending.Front()
	w.pool.pending.Remove(front)

	return front.Value.(*session.Session), true
}
