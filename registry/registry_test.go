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

package registry_test

import (
	"net/netip"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/f446843/hiawatha/registry"
)

type fakeSession struct {
	kicked bool
}

func (f *fakeSession) Kick() { f.kicked = true }

var _ = Describe("Registry", func() {
	var addr netip.Addr

	BeforeEach(func() {
		addr = netip.MustParseAddr("198.51.100.5")
	})

	It("counts zero sessions for an address never added", func() {
		r := registry.New()
		Expect(r.Count(addr)).To(Equal(0))
	})

	It("counts sessions registered under the same address", func() {
		r := registry.New()
		r.Add(addr, &fakeSession{})
		r.Add(addr, &fakeSession{})
		Expect(r.Count(addr)).To(Equal(2))
	})

	It("kicks every session registered under an address", func() {
		r := registry.New()
		s1, s2 := &fakeSession{}, &fakeSession{}
		r.Add(addr, s1)
		r.Add(addr, s2)

		n := r.Kick(addr)

		Expect(n).To(Equal(2))
		Expect(s1.kicked).To(BeTrue())
		Expect(s2.kicked).To(BeTrue())
	})

	It("rebinds a session to a new address", func() {
		r := registry.New()
		other := netip.MustParseAddr("198.51.100.6")
		s := &fakeSession{}
		r.Add(addr, s)

		r.Rebind(s, other)

		Expect(r.Count(addr)).To(Equal(0))
		Expect(r.Count(other)).To(Equal(1))
	})

	It("removes a session immediately when delay is zero", func() {
		r := registry.New()
		s := &fakeSession{}
		r.Add(addr, s)

		r.Remove(s, 0)

		Expect(r.Count(addr)).To(Equal(0))
	})

	It("removes a session after the reconnect delay elapses", func() {
		r := registry.New()
		s := &fakeSession{}
		r.Add(addr, s)

		r.Remove(s, 10*time.Millisecond)
		Expect(r.Count(addr)).To(Equal(1))

		Eventually(func() int { return r.Count(addr) }, time.Second, 5*time.Millisecond).Should(Equal(0))
	})
})
