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

// Package workerpool maintains a set of long-lived workers plus a FIFO
// queue of pending sessions, guarded by one mutex and one condition
// variable. Queue ordering is a genuine FIFO
// (container/list, push back / pop front) — the source's singly-linked
// LIFO-traversal-of-LIFO-insertion happens to behave like a FIFO in
// practice, but the reimplementation makes that contractual instead of
// incidental (Open Question resolved in DESIGN.md).
package workerpool

import (
	"container/list"
	"sync"

	"github.com/f446843/hiawatha/internal/logging"
	"github.com/f446843/hiawatha/session"
)

// Handler processes one dequeued session to completion (TLS handshake
// through keep-alive loop exit). Supplied by package connection.
type Handler func(*session.Session)

// Pool is safe for concurrent use.
type Pool struct {
	mu   sync.Mutex
	cond *sync.Cond

	pending *list.List // of *session.Session, FIFO

	workers        map[*Worker]struct{}
	waitingWorkers int

	initialSize int
	nextID      int

	handler Handler
}

// New creates size idle workers running Worker.loop, each immediately
// blocking on the condition variable (spec: init(pool_size)).
func New(size int, handler Handler) *Pool {
	p := &Pool{
		pending:     list.New(),
		workers:     make(map[*Worker]struct{}),
		initialSize: size,
		handler:     handler,
	}
	p.cond = sync.NewCond(&p.mu)

	for i := 0; i < size; i++ {
		p.spawn(nil)
	}

	return p
}

// spawn starts a new worker, optionally pre-assigned sess, and must be
// called with p.mu held.
func (p *Pool) spawn(sess *session.Session) *Worker {
	p.nextID++
	w := &Worker{id: p.nextID, pool: p}
	p.workers[w] = struct{}{}
	go w.loop(sess)
	return w
}

// Start hands session off to an idle worker if one is waiting, else grows
// the pool by one new worker pre-assigned this session (spec:
// start_worker). Never fails in this implementation — goroutine creation
// does not fail the way OS thread creation can, so an allocation-failure
// return path has no Go analogue here; kept as a no-error signature
// rather than fabricating a failure mode that cannot occur.
func (p *Pool) Start(sess *session.Session) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.waitingWorkers > 0 {
		p.pending.PushBack(sess)
		p.cond.Signal()
		return
	}

	p.spawn(sess)
}

// ManageThreadPool shrinks the pool back toward its configured floor:
// if live workers minus those already marked to quit exceeds the initial
// size, mark one more non-quitting worker to quit on its next wakeup.
// Intended to be driven by a periodic ticker (see Pool.Supervise).
func (p *Pool) ManageThreadPool() {
	p.mu.Lock()
	defer p.mu.Unlock()

	live := len(p.workers)
	marked := 0
	for w := range p.workers {
		if w.quit.Load() {
			marked++
		}
	}

	if live-marked > p.initialSize {
		for w := range p.workers {
			if !w.quit.Load() {
				w.quit.Store(true)
				break
			}
		}
	}
}

// Supervise runs ManageThreadPool on every tick until stop is closed.
func (p *Pool) Supervise(tick <-chan struct{}, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case <-tick:
			p.ManageThreadPool()
		}
	}
}

// Size reports the current live worker count, for tests and diagnostics.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.workers)
}

// WaitingWorkers reports how many workers are currently blocked on the
// condition variable.
func (p *Pool) WaitingWorkers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.waitingWorkers
}

func (p *Pool) unlink(w *Worker) {
	p.mu.Lock()
	delete(p.workers, w)
	p.mu.Unlock()
	logging.With(logging.Fields{"worker": w.id}).Debug("worker exited")
}
