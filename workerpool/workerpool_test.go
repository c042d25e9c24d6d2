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

package workerpool_test

import (
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/f446843/hiawatha/session"
	"github.com/f446843/hiawatha/workerpool"
)

var _ = Describe("Pool", func() {
	It("starts with exactly the configured number of idle workers", func() {
		p := workerpool.New(3, func(*session.Session) {})
		Eventually(p.WaitingWorkers).Should(Equal(3))
		Expect(p.Size()).To(Equal(3))
	})

	It("grows by one worker when every existing worker is busy", func() {
		var mu sync.Mutex
		release := make(chan struct{})
		started := 0

		p := workerpool.New(1, func(*session.Session) {
			mu.Lock()
			started++
			mu.Unlock()
			<-release
		})
		Eventually(p.WaitingWorkers).Should(Equal(1))

		p.Start(&session.Session{})
		Eventually(func() int {
			mu.Lock()
			defer mu.Unlock()
			return started
		}).Should(Equal(1))

		p.Start(&session.Session{})

		Eventually(p.Size).Should(Equal(2))
		close(release)
	})

	It("shrinks back toward its initial size once ManageThreadPool runs", func() {
		release := make(chan struct{})
		p := workerpool.New(1, func(*session.Session) {
			<-release
		})
		Eventually(p.WaitingWorkers).Should(Equal(1))

		p.Start(&session.Session{})
		Eventually(p.Size).Should(Equal(1))
		p.Start(&session.Session{})
		Eventually(p.Size).Should(Equal(2))

		close(release)
		Eventually(p.WaitingWorkers, time.Second).Should(Equal(2))

		p.ManageThreadPool()

		// The marked worker only re-checks its quit flag on its next
		// wakeup, so nudge the pool with further sessions until it does.
		Eventually(func() int {
			p.Start(&session.Session{})
			return p.Size()
		}, time.Second, 10*time.Millisecond).Should(Equal(1))
	})
})
