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

package banlist_test

import (
	"net/netip"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/f446843/hiawatha/banlist"
)

var _ = Describe("List", func() {
	var addr netip.Addr

	BeforeEach(func() {
		addr = netip.MustParseAddr("203.0.113.7")
	})

	It("allows an address with no ban entry", func() {
		l := banlist.New(nil)
		Expect(l.Allowed(addr)).To(BeTrue())
	})

	It("denies an address for the duration of its ban", func() {
		l := banlist.New(nil)
		l.Ban(addr, time.Hour)
		Expect(l.Allowed(addr)).To(BeFalse())
	})

	It("lets an expired ban lapse and sweeps it lazily", func() {
		l := banlist.New(nil)
		l.Ban(addr, time.Millisecond)
		time.Sleep(5 * time.Millisecond)
		Expect(l.Allowed(addr)).To(BeTrue())
	})

	It("extends rather than shortens an existing ban", func() {
		l := banlist.New(nil)
		l.Ban(addr, time.Minute)
		l.Ban(addr, time.Millisecond)
		Expect(l.Allowed(addr)).To(BeFalse())
	})

	It("never bans an address covered by the safe mask", func() {
		l := banlist.New([]netip.Prefix{netip.MustParsePrefix("203.0.113.0/24")})
		l.Ban(addr, time.Hour)
		Expect(l.Allowed(addr)).To(BeTrue())
	})

	It("ignores a zero or negative duration", func() {
		l := banlist.New(nil)
		l.Ban(addr, 0)
		Expect(l.Allowed(addr)).To(BeTrue())
	})

	It("sweep drops expired entries without touching live ones", func() {
		l := banlist.New(nil)
		live := netip.MustParseAddr("203.0.113.8")
		l.Ban(addr, time.Millisecond)
		l.Ban(live, time.Hour)
		time.Sleep(5 * time.Millisecond)
		l.Sweep()
		Expect(l.Allowed(addr)).To(BeTrue())
		Expect(l.Allowed(live)).To(BeFalse())
	})
})
