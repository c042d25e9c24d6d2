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

// Package hook runs the external-program hooks: run_on_download and
// run_on_alter paths fired after a successful GET/PUT/DELETE. Go has no
// raw fork(); os/exec.Cmd's Start/Wait is the idiomatic stdlib
// equivalent of fork-exec for a detached child process.
package hook

import (
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/f446843/hiawatha/internal/logging"
)

// Request carries the fields exported into the hook child process's
// environment.
type Request struct {
	Path         string // hook program path; Dir is derived from this
	Method       string
	DocumentRoot string
	RequestURI   string
	RemoteUser   string
	RemoteAddr   string
	ReturnCode   int
	Range        string
	Referer      string
	UserAgent    string

	Wait bool // wait_for_cgi: parent blocks for completion when true
}

func (r Request) env() []string {
	return []string{
		"REQUEST_METHOD=" + r.Method,
		"DOCUMENT_ROOT=" + r.DocumentRoot,
		"REQUEST_URI=" + r.RequestURI,
		"REMOTE_USER=" + r.RemoteUser,
		"REMOTE_ADDR=" + r.RemoteAddr,
		"HTTP_RETURN_CODE=" + strconv.Itoa(r.ReturnCode),
		"HTTP_RANGE=" + r.Range,
		"HTTP_REFERER=" + r.Referer,
		"HTTP_USER_AGENT=" + r.UserAgent,
	}
}

// Run forks req.Path as a detached child: new process group, no
// inherited extra file descriptors (exec.Cmd never inherits arbitrary
// FDs unless ExtraFiles is set, which Run never sets), chdir to the
// program's own directory, environment as above. Fork/start failure is
// logged and non-fatal. With req.Wait set, Run blocks until the child
// exits; otherwise the child is reaped in the background and Run returns
// at once.
func Run(req Request) {
	cmd := exec.Command(req.Path)
	cmd.Env = req.env()
	cmd.Dir = filepath.Dir(req.Path)
	applyPlatformAttrs(cmd)

	if err := cmd.Start(); err != nil {
		logging.With(logging.Fields{"hook": req.Path, "err": err.Error()}).Warn("hook fork failed")
		return
	}

	if req.Wait {
		if err := cmd.Wait(); err != nil {
			logging.With(logging.Fields{"hook": req.Path, "err": err.Error()}).Warn("hook exited with error")
		}
		return
	}

	go func() { _ = cmd.Wait() }() // reap asynchronously, parent does not block
}
