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

package config

import (
	"strings"

	libval "github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/f446843/hiawatha/internal/errs"
)

const (
	ErrorRead errs.CodeError = iota + errs.MinPkgConfig
	ErrorUnmarshal
	ErrorValidate
)

func init() {
	errs.RegisterIdFctMessage(errs.MinPkgConfig, message)
}

func message(code errs.CodeError) string {
	switch code {
	case ErrorRead:
		return "cannot read configuration file"
	case ErrorUnmarshal:
		return "cannot decode configuration"
	case ErrorValidate:
		return "configuration is not valid"
	}
	return ""
}

// Loader resolves a Config snapshot from a file plus environment
// overrides, viper-backed (mapstructure tags, HIAWATHA_-prefixed env
// vars, struct-tag validation).
type Loader struct {
	v *viper.Viper
}

func NewLoader() *Loader {
	v := viper.New()
	v.SetEnvPrefix("HIAWATHA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("pool_size", 8)
	v.SetDefault("flood_threshold", 100)
	v.SetDefault("reconnect_delay", "0s")
	v.SetDefault("monitor_enabled", false)
	v.SetDefault("wait_for_cgi", false)
	v.SetDefault("kick_on_ban", false)

	return &Loader{v: v}
}

// SetConfigFile points the loader at an explicit path; extension decides
// the decoder (yaml/json/toml), matching viper's own convention.
func (l *Loader) SetConfigFile(path string) {
	l.v.SetConfigFile(path)
}

// Load reads, decodes and validates the configuration, returning an
// immutable *Config ready to hand to the worker pool and listeners.
func (l *Loader) Load() (*Config, errs.Error) {
	if err := l.v.ReadInConfig(); err != nil {
		return nil, errs.New(ErrorRead, message(ErrorRead), err)
	}

	cfg := &Config{}
	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, errs.New(ErrorUnmarshal, message(ErrorUnmarshal), err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate runs struct-tag validation over the whole config tree,
// including nested Bindings/Hosts via the "dive" tag.
func Validate(cfg *Config) errs.Error {
	val := libval.New()
	if err := val.Struct(cfg); err != nil {
		return errs.New(ErrorValidate, message(ErrorValidate), err)
	}
	return nil
}
