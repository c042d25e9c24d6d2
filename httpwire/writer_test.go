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

package httpwire_test

import (
	"bufio"
	"bytes"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/f446843/hiawatha/httpwire"
)

func newWriter(buf *bytes.Buffer) (*httpwire.ResponseWriter, *bufio.Writer) {
	bw := bufio.NewWriter(buf)
	return httpwire.NewResponseWriter(bw), bw
}

var _ = Describe("ResponseWriter", func() {
	It("defaults to 200 on the first implicit write", func() {
		var buf bytes.Buffer
		rw, _ := newWriter(&buf)

		_, err := rw.Write([]byte("hello"))
		Expect(err).NotTo(HaveOccurred())
		Expect(rw.Flush()).To(Succeed())

		Expect(rw.Status()).To(Equal(200))
		Expect(buf.String()).To(HavePrefix("HTTP/1.1 200 OK\r\n"))
		Expect(buf.String()).To(HaveSuffix("hello"))
	})

	It("writes headers in sorted order and an explicit status", func() {
		var buf bytes.Buffer
		rw, _ := newWriter(&buf)

		rw.Header().Set("X-B", "2")
		rw.Header().Set("X-A", "1")
		rw.WriteHeader(404)
		Expect(rw.Flush()).To(Succeed())

		lines := strings.Split(buf.String(), "\r\n")
		Expect(lines[0]).To(Equal("HTTP/1.1 404 Not Found"))
		Expect(lines[1]).To(Equal("X-A: 1"))
		Expect(lines[2]).To(Equal("X-B: 2"))
	})

	It("ignores a second WriteHeader call", func() {
		var buf bytes.Buffer
		rw, _ := newWriter(&buf)

		rw.WriteHeader(200)
		rw.WriteHeader(500)

		Expect(rw.Status()).To(Equal(200))
	})

	It("tracks bytes sent across multiple writes", func() {
		var buf bytes.Buffer
		rw, _ := newWriter(&buf)

		rw.Write([]byte("abc"))
		rw.Write([]byte("de"))

		Expect(rw.Sent).To(Equal(int64(5)))
	})

	It("reports WroteHeader only after a status has been committed", func() {
		var buf bytes.Buffer
		rw, _ := newWriter(&buf)

		Expect(rw.WroteHeader()).To(BeFalse())
		rw.WriteHeader(200)
		Expect(rw.WroteHeader()).To(BeTrue())
	})
})
