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

package session_test

import (
	"net"
	"net/netip"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/f446843/hiawatha/config"
	"github.com/f446843/hiawatha/session"
)

var _ = Describe("Arena", func() {
	It("runs tracked releases in reverse order", func() {
		var order []int
		var a session.Arena
		a.Track(func() { order = append(order, 1) })
		a.Track(func() { order = append(order, 2) })
		a.Track(func() { order = append(order, 3) })

		a.Release()

		Expect(order).To(Equal([]int{3, 2, 1}))
		Expect(a.Len()).To(Equal(0))
	})

	It("ignores a nil release closure", func() {
		var a session.Arena
		a.Track(nil)
		Expect(a.Len()).To(Equal(0))
	})

	It("is ready for reuse after Release", func() {
		calls := 0
		var a session.Arena
		a.Track(func() { calls++ })
		a.Release()
		a.Track(func() { calls++ })
		a.Release()
		Expect(calls).To(Equal(2))
	})
})

var _ = Describe("Session", func() {
	var cfg *config.Config
	var binding *config.Binding

	BeforeEach(func() {
		cfg = &config.Config{}
		binding = &config.Binding{}
	})

	It("starts on its first request", func() {
		s := session.New(nil, netip.MustParseAddr("127.0.0.1"), cfg, binding)
		Expect(s.IsFirstRequest()).To(BeTrue())
		s.MarkRequestServed()
		Expect(s.IsFirstRequest()).To(BeFalse())
	})

	It("preserves transport, peer, config, binding and KeptAlive across Reset", func() {
		conn, _ := net.Pipe()
		defer conn.Close()
		addr := netip.MustParseAddr("10.0.0.5")

		s := session.New(conn, addr, cfg, binding)
		s.KeptAlive = 4
		s.Req.URI = "/a"
		s.ReturnCode = 200
		s.DataSent = true
		s.Vars = map[string]string{"x": "y"}

		released := false
		s.Arena.Track(func() { released = true })

		s.Reset()

		Expect(s.Conn).To(Equal(conn))
		Expect(s.Addr).To(Equal(addr))
		Expect(s.Config).To(Equal(cfg))
		Expect(s.Binding).To(Equal(binding))
		Expect(s.KeptAlive).To(Equal(4))

		Expect(s.Req.URI).To(Equal(""))
		Expect(s.ReturnCode).To(Equal(0))
		Expect(s.DataSent).To(BeFalse())
		Expect(s.Vars).To(BeNil())
		Expect(released).To(BeTrue())
		Expect(s.Arena.Len()).To(Equal(0))
	})

	It("force-disconnects the transport and reports Kicked once Kick is called", func() {
		server, client := net.Pipe()
		defer client.Close()

		s := session.New(server, netip.IPv4Unspecified(), cfg, binding)
		Expect(s.Kicked()).To(BeFalse())

		s.Kick()

		Expect(s.Kicked()).To(BeTrue())
		_, err := server.Write([]byte("x"))
		Expect(err).To(HaveOccurred())
	})

	It("releases the arena and closes the transport on Close", func() {
		conn, peer := net.Pipe()
		defer peer.Close()

		s := session.New(conn, netip.IPv4Unspecified(), cfg, binding)
		s.SocketOpen = true
		released := false
		s.Arena.Track(func() { released = true })

		Expect(s.Close()).To(Succeed())

		Expect(released).To(BeTrue())
		Expect(s.SocketOpen).To(BeFalse())
	})
})
