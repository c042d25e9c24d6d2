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

package banarbiter_test

import (
	"net/netip"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/f446843/hiawatha/banarbiter"
	"github.com/f446843/hiawatha/banlist"
	"github.com/f446843/hiawatha/config"
	"github.com/f446843/hiawatha/internal/monitor"
	"github.com/f446843/hiawatha/registry"
	"github.com/f446843/hiawatha/session"
)

type fakeSession struct {
	kicked bool
}

func (f *fakeSession) Kick() { f.kicked = true }

var _ = Describe("Arbiter.Ban", func() {
	var addr netip.Addr

	BeforeEach(func() {
		addr = netip.MustParseAddr("198.51.100.7")
	})

	It("does nothing when the cause has no configured duration", func() {
		a := &banarbiter.Arbiter{
			Config:  &config.Config{BanDurations: map[string]time.Duration{}},
			Banlist: banlist.New(nil),
		}
		a.Ban(addr, session.BanFlooding)
		Expect(a.Banlist.Allowed(addr)).To(BeTrue())
	})

	It("bans the peer and bumps the monitor counter for a configured cause", func() {
		counters := monitor.New(true)
		a := &banarbiter.Arbiter{
			Config:   &config.Config{BanDurations: map[string]time.Duration{"flooding": time.Minute}},
			Banlist:  banlist.New(nil),
			Counters: counters,
		}
		a.Ban(addr, session.BanFlooding)

		Expect(a.Banlist.Allowed(addr)).To(BeFalse())
		Expect(counters.BansIssued()).To(Equal(int64(1)))
	})

	It("kicks the peer's live sessions only when KickOnBan is set", func() {
		reg := registry.New()
		sess := &fakeSession{}
		reg.Add(addr, sess)

		a := &banarbiter.Arbiter{
			Config: &config.Config{
				BanDurations: map[string]time.Duration{"flooding": time.Minute},
				KickOnBan:    true,
			},
			Banlist:  banlist.New(nil),
			Registry: reg,
		}
		a.Ban(addr, session.BanFlooding)

		Expect(sess.kicked).To(BeTrue())
	})

	It("leaves live sessions alone when KickOnBan is unset", func() {
		reg := registry.New()
		sess := &fakeSession{}
		reg.Add(addr, sess)

		a := &banarbiter.Arbiter{
			Config:   &config.Config{BanDurations: map[string]time.Duration{"flooding": time.Minute}},
			Banlist:  banlist.New(nil),
			Registry: reg,
		}
		a.Ban(addr, session.BanFlooding)

		Expect(sess.kicked).To(BeFalse())
	})
})
