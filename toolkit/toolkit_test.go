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

package toolkit_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/f446843/hiawatha/config"
	"github.com/f446843/hiawatha/toolkit"
)

var _ = Describe("Engine", func() {
	It("continues when no rule matches", func() {
		host := &config.Host{ToolkitRules: []config.ToolkitRule{
			{Pattern: `^/admin`, Action: config.ToolkitDeny},
		}}
		e := toolkit.NewEngine()
		out := e.Apply(host, "/public/index.html")
		Expect(out.Action).To(Equal(config.ToolkitContinue))
	})

	It("rewrites the uri and preserves a pinned fastcgi backend", func() {
		host := &config.Host{ToolkitRules: []config.ToolkitRule{
			{Pattern: `^/old/(.*)$`, Action: config.ToolkitRewrite, Replacement: "/new/$1", ToolkitFastCGI: "127.0.0.1:9000"},
		}}
		e := toolkit.NewEngine()
		out := e.Apply(host, "/old/page.php")
		Expect(out.Action).To(Equal(config.ToolkitRewrite))
		Expect(out.NewURI).To(Equal("/new/page.php"))
		Expect(out.FastCGI).To(Equal("127.0.0.1:9000"))
	})

	It("builds a redirect location from the matched pattern", func() {
		host := &config.Host{ToolkitRules: []config.ToolkitRule{
			{Pattern: `^/legacy$`, Action: config.ToolkitRedirect, Replacement: "/current"},
		}}
		e := toolkit.NewEngine()
		out := e.Apply(host, "/legacy")
		Expect(out.Action).To(Equal(config.ToolkitRedirect))
		Expect(out.Location).To(Equal("/current"))
	})

	It("stops at the first matching rule, ignoring later ones", func() {
		host := &config.Host{ToolkitRules: []config.ToolkitRule{
			{Pattern: `^/x`, Action: config.ToolkitDeny},
			{Pattern: `^/x`, Action: config.ToolkitBan},
		}}
		e := toolkit.NewEngine()
		out := e.Apply(host, "/x/y")
		Expect(out.Action).To(Equal(config.ToolkitDeny))
	})

	It("skips an uncompilable pattern rather than failing the request", func() {
		host := &config.Host{ToolkitRules: []config.ToolkitRule{
			{Pattern: `(unterminated`, Action: config.ToolkitDeny},
		}}
		e := toolkit.NewEngine()
		out := e.Apply(host, "/anything")
		Expect(out.Action).To(Equal(config.ToolkitContinue))
	})

	It("caches compiled rules per host across repeated Apply calls", func() {
		host := &config.Host{ToolkitRules: []config.ToolkitRule{
			{Pattern: `^/a$`, Action: config.ToolkitDeny},
		}}
		e := toolkit.NewEngine()
		first := e.Apply(host, "/a")
		second := e.Apply(host, "/a")
		Expect(first.Action).To(Equal(config.ToolkitDeny))
		Expect(second.Action).To(Equal(config.ToolkitDeny))
	})
})
