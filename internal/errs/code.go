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

// Package errs provides the request-core's error code hierarchy: a CodeError
// is a numeric classification (similar to an HTTP status code) with a
// registered message and an optional chain of parent errors.
package errs

import (
	"sort"
)

// CodeError is a numeric error code, namespaced per package via the MinPkg*
// constants below so codes never collide across packages.
type CodeError uint16

const (
	UnknownError   CodeError = 0
	UnknownMessage           = "unknown error"
)

// Per-package code ranges, each a MinPkg* base that package-local codes
// offset from.
const (
	MinPkgConfig     CodeError = 100
	MinPkgTLS        CodeError = 200
	MinPkgWorkerPool CodeError = 300
	MinPkgConnection CodeError = 400
	MinPkgPipeline   CodeError = 500
	MinPkgBanArbiter CodeError = 600
	MinPkgContent    CodeError = 700
	MinPkgHook       CodeError = 800
	MinPkgRProxy     CodeError = 900
	MinPkgAuth       CodeError = 1000
)

type Message func(code CodeError) string

var idMsgFct = make(map[CodeError]Message)

func RegisterIdFctMessage(minCode CodeError, fct Message) {
	idMsgFct[minCode] = fct
}

func (c CodeError) Uint16() uint16 { return uint16(c) }

func (c CodeError) Message() string {
	if c == UnknownError {
		return UnknownMessage
	}
	if f, ok := idMsgFct[findRange(c)]; ok {
		if m := f(c); m != "" {
			return m
		}
	}
	return UnknownMessage
}

func (c CodeError) Error(parents ...error) Error {
	return New(c, c.Message(), parents...)
}

func (c CodeError) Errorf(format string, args ...interface{}) Error {
	return Newf(c, format, args...)
}

func findRange(code CodeError) CodeError {
	var keys []int
	for k := range idMsgFct {
		keys = append(keys, int(k))
	}
	sort.Ints(keys)

	var res CodeError
	for _, k := range keys {
		ck := CodeError(k)
		if ck <= code && ck > res {
			res = ck
		}
	}
	return res
}
