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

package auth_test

import (
	"encoding/base64"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"

	"github.com/f446843/hiawatha/auth"
)

func basicHeader(user, pass string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+pass))
}

var _ = Describe("HtpasswdStore", func() {
	var store *auth.HtpasswdStore

	BeforeEach(func() {
		store = auth.NewHtpasswdStore()
		hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
		Expect(err).NotTo(HaveOccurred())
		store.SetUser("alice", hash)
	})

	It("accepts a matching bcrypt password", func() {
		result := store.Authenticate(basicHeader("alice", "correct horse"), true)
		Expect(result.Status).To(Equal(200))
		Expect(result.User).To(Equal("alice"))
	})

	It("rejects a wrong password", func() {
		result := store.Authenticate(basicHeader("alice", "wrong"), true)
		Expect(result.Status).To(Equal(401))
	})

	It("rejects an unknown user", func() {
		result := store.Authenticate(basicHeader("bob", "anything"), true)
		Expect(result.Status).To(Equal(401))
	})

	It("requires a header when authentication is mandatory", func() {
		result := store.Authenticate("", true)
		Expect(result.Status).To(Equal(401))
	})

	It("allows a missing header when authentication is optional", func() {
		result := store.Authenticate("", false)
		Expect(result.Status).To(Equal(200))
		Expect(result.User).To(Equal(""))
	})

	It("rejects a header that is not Basic scheme", func() {
		result := store.Authenticate("Bearer sometoken", true)
		Expect(result.Status).To(Equal(401))
	})

	It("rejects malformed base64 payload", func() {
		result := store.Authenticate("Basic %%%not-base64%%%", true)
		Expect(result.Status).To(Equal(401))
	})

	It("replaces a user's hash when SetUser is called again", func() {
		newHash, err := bcrypt.GenerateFromPassword([]byte("new-pass"), bcrypt.MinCost)
		Expect(err).NotTo(HaveOccurred())
		store.SetUser("alice", newHash)

		Expect(store.Authenticate(basicHeader("alice", "correct horse"), true).Status).To(Equal(401))
		Expect(store.Authenticate(basicHeader("alice", "new-pass"), true).Status).To(Equal(200))
	})
})
