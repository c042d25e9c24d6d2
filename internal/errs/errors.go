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

package errs

import (
	"fmt"
	"strings"
)

// Error extends the standard error with a numeric code and a parent chain,
// so setup/config failures can be inspected programmatically instead of by
// matching on message text.
type Error interface {
	error

	IsCode(code CodeError) bool
	HasCode(code CodeError) bool
	Code() uint16

	Add(parent ...error)
	HasParent() bool
	GetParent() []error

	Unwrap() []error
}

type ers struct {
	c uint16
	m string
	p []error
}

func New(code CodeError, message string, parent ...error) Error {
	e := &ers{c: code.Uint16(), m: message}
	e.Add(parent...)
	return e
}

func Newf(code CodeError, format string, args ...interface{}) Error {
	return New(code, fmt.Sprintf(format, args...))
}

// IfError returns a wrapped Error only if at least one non-nil parent is given.
func IfError(code CodeError, message string, parent ...error) Error {
	var filtered []error
	for _, p := range parent {
		if p != nil {
			filtered = append(filtered, p)
		}
	}
	if len(filtered) == 0 {
		return nil
	}
	return New(code, message, filtered...)
}

func (e *ers) Error() string {
	if !e.HasParent() {
		return e.m
	}

	var parts []string
	parts = append(parts, e.m)
	for _, p := range e.p {
		parts = append(parts, p.Error())
	}
	return strings.Join(parts, ": ")
}

func (e *ers) IsCode(code CodeError) bool {
	return e.c == code.Uint16()
}

func (e *ers) HasCode(code CodeError) bool {
	if e.IsCode(code) {
		return true
	}
	for _, p := range e.p {
		if pe, ok := p.(Error); ok && pe.HasCode(code) {
			return true
		}
	}
	return false
}

func (e *ers) Code() uint16 {
	return e.c
}

func (e *ers) Add(parent ...error) {
	for _, p := range parent {
		if p != nil {
			e.p = append(e.p, p)
		}
	}
}

func (e *ers) HasParent() bool {
	return len(e.p) > 0
}

func (e *ers) GetParent() []error {
	return e.p
}

func (e *ers) Unwrap() []error {
	return e.p
}
