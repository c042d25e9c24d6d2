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

package config_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/f446843/hiawatha/config"
)

var _ = Describe("Host.Clone", func() {
	It("copies slice and map fields instead of aliasing the base", func() {
		base := &config.Host{
			Hostname:      "example.com",
			AccessList:    []config.AccessRule{{Pattern: "/admin", Allow: false}},
			ErrorHandlers: map[int]string{404: "/404.html"},
		}

		clone := base.Clone()
		clone.AccessList[0].Pattern = "/changed"
		clone.ErrorHandlers[500] = "/500.html"

		Expect(base.AccessList[0].Pattern).To(Equal("/admin"))
		Expect(base.ErrorHandlers).NotTo(HaveKey(500))
		Expect(clone.Hostname).To(Equal("example.com"))
	})

	It("returns nil for a nil receiver", func() {
		var h *config.Host
		Expect(h.Clone()).To(BeNil())
	})
})

var _ = Describe("Binding.HostFor", func() {
	It("matches a configured hostname", func() {
		b := &config.Binding{Hosts: []*config.Host{
			{Hostname: "a.example.com"},
			{Hostname: "b.example.com"},
		}}
		Expect(b.HostFor("b.example.com").Hostname).To(Equal("b.example.com"))
	})

	It("falls back to the first configured host when nothing matches", func() {
		b := &config.Binding{Hosts: []*config.Host{
			{Hostname: "a.example.com"},
			{Hostname: "b.example.com"},
		}}
		Expect(b.HostFor("unknown.example.com").Hostname).To(Equal("a.example.com"))
	})

	It("returns nil when the binding has no hosts", func() {
		b := &config.Binding{}
		Expect(b.HostFor("anything")).To(BeNil())
	})
})

var _ = Describe("Config.BanDuration", func() {
	It("looks up a configured cause", func() {
		c := &config.Config{BanDurations: map[string]time.Duration{"flooding": 10 * time.Minute}}
		Expect(c.BanDuration("flooding")).To(Equal(10 * time.Minute))
	})

	It("returns zero for an unconfigured cause", func() {
		c := &config.Config{BanDurations: map[string]time.Duration{"flooding": time.Minute}}
		Expect(c.BanDuration("exploit_attempt")).To(Equal(time.Duration(0)))
	})

	It("returns zero for a nil receiver", func() {
		var c *config.Config
		Expect(c.BanDuration("flooding")).To(Equal(time.Duration(0)))
	})
})
