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
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/f446843/hiawatha/config"
)

func writeConfigFile(dir, contents string) string {
	path := filepath.Join(dir, "hiawatha.yaml")
	Expect(os.WriteFile(path, []byte(contents), 0o600)).To(Succeed())
	return path
}

var _ = Describe("Loader", func() {
	It("loads a minimal valid configuration", func() {
		path := writeConfigFile(GinkgoT().TempDir(), `
pool_size: 4
bindings:
  - address: "0.0.0.0:80"
    time_1st_request: 30s
    time_request: 30s
    hosts:
      - hostname: example.com
        website_root: /var/www/example
`)
		loader := config.NewLoader()
		loader.SetConfigFile(path)

		cfg, err := loader.Load()
		Expect(err).To(BeNil())
		Expect(cfg.PoolSize).To(Equal(4))
		Expect(cfg.Bindings).To(HaveLen(1))
		Expect(cfg.Bindings[0].Hosts[0].Hostname).To(Equal("example.com"))
	})

	It("applies defaults for omitted optional fields", func() {
		path := writeConfigFile(GinkgoT().TempDir(), `
bindings:
  - address: "0.0.0.0:80"
    time_1st_request: 30s
    time_request: 30s
    hosts:
      - hostname: example.com
        website_root: /var/www/example
`)
		loader := config.NewLoader()
		loader.SetConfigFile(path)

		cfg, err := loader.Load()
		Expect(err).To(BeNil())
		Expect(cfg.PoolSize).To(Equal(8))
		Expect(cfg.FloodThreshold).To(Equal(100))
	})

	It("fails to read a nonexistent file", func() {
		loader := config.NewLoader()
		loader.SetConfigFile(filepath.Join(GinkgoT().TempDir(), "missing.yaml"))

		_, err := loader.Load()
		Expect(err).NotTo(BeNil())
	})

	It("fails validation when a binding has no hosts", func() {
		path := writeConfigFile(GinkgoT().TempDir(), `
pool_size: 4
bindings:
  - address: "0.0.0.0:80"
    time_1st_request: 30s
    time_request: 30s
    hosts: []
`)
		loader := config.NewLoader()
		loader.SetConfigFile(path)

		_, err := loader.Load()
		Expect(err).NotTo(BeNil())
	})
})

var _ = Describe("Validate", func() {
	It("rejects a config with no bindings", func() {
		err := config.Validate(&config.Config{PoolSize: 1})
		Expect(err).NotTo(BeNil())
	})

	It("accepts a fully populated config", func() {
		cfg := &config.Config{
			PoolSize: 1,
			Bindings: []*config.Binding{{
				Address:        "0.0.0.0:80",
				Time1stRequest: 1,
				TimeRequest:    1,
				Hosts:          []*config.Host{{Hostname: "example.com", WebsiteRoot: "/var/www"}},
			}},
		}
		Expect(config.Validate(cfg)).To(BeNil())
	})
})
