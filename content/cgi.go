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

package content

import (
	"bufio"
	"bytes"
	"net/http"
	"os/exec"
	"strconv"
	"strings"

	"github.com/f446843/hiawatha/httpwire"
)

// Env is the CGI environment assembled by the pipeline before dispatch.
type Env struct {
	RequestMethod  string
	DocumentRoot   string
	RequestURI     string
	RemoteUser     string
	RemoteAddr     string
	ContentLength  int64
	QueryString    string
	PathInfo       string
	ScriptName     string
}

func (e Env) toOSEnv() []string {
	return []string{
		"REQUEST_METHOD=" + e.RequestMethod,
		"DOCUMENT_ROOT=" + e.DocumentRoot,
		"REQUEST_URI=" + e.RequestURI,
		"REMOTE_USER=" + e.RemoteUser,
		"REMOTE_ADDR=" + e.RemoteAddr,
		"CONTENT_LENGTH=" + strconv.FormatInt(e.ContentLength, 10),
		"QUERY_STRING=" + e.QueryString,
		"PATH_INFO=" + e.PathInfo,
		"SCRIPT_NAME=" + e.ScriptName,
		"GATEWAY_INTERFACE=CGI/1.1",
	}
}

// ExecuteCGI runs a binary or script CGI handler, piping body to stdin
// and parsing the CGI-header-prefixed response from stdout: a block of
// "Key: Value" header lines, a blank line, then the body (CGI/1.1,
// RFC 3875 §6). Handler is the interpreter/binary path; script, when
// non-empty, is passed as the first argument (scripting-CGI handler
// match, e.g. php-cgi /path/to/script.php).
func ExecuteCGI(rw *httpwire.ResponseWriter, handler, script string, body []byte, env Env) int {
	args := []string{}
	if script != "" {
		args = append(args, script)
	}

	cmd := exec.Command(handler, args...)
	cmd.Env = env.toOSEnv()
	cmd.Dir = env.DocumentRoot
	cmd.Stdin = bytes.NewReader(body)

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &bytes.Buffer{}

	if err := cmd.Run(); err != nil {
		return http.StatusServiceUnavailable
	}

	return writeCGIOutput(rw, out.Bytes())
}

// writeCGIOutput splits the CGI-header block from the body and copies
// both onto rw, returning "Status:"-declared code or 200 if absent.
func writeCGIOutput(rw *httpwire.ResponseWriter, raw []byte) int {
	reader := bufio.NewReader(bytes.NewReader(raw))
	status := http.StatusOK

	for {
		line, err := reader.ReadString('\n')
		trimmed := strings.TrimRight(line, "\r\n")
		if trimmed == "" {
			break
		}

		if k, v, ok := strings.Cut(trimmed, ":"); ok {
			k, v = strings.TrimSpace(k), strings.TrimSpace(v)
			if strings.EqualFold(k, "Status") {
				if n, convErr := strconv.Atoi(strings.Fields(v)[0]); convErr == nil {
					status = n
				}
				continue
			}
			rw.Header().Add(k, v)
		}

		if err != nil {
			break
		}
	}

	rw.WriteHeader(status)
	_, _ = reader.WriteTo(rw)
	return status
}
