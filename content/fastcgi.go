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

// FastCGI/1.0 is a small framed binary protocol (records of an 8-byte
// header plus payload) layered over a TCP or unix socket. No library
// dependency here is a good fit for a one-shot responder request, so
// this file hand-writes the minimal record framing needed:
// BEGIN_REQUEST, a PARAMS stream, a STDIN stream, then read back STDOUT
// records until END_REQUEST (see DESIGN.md for why this stays on the
// standard library). Parsing the response's CGI header block reuses
// writeCGIOutput, the same helper ExecuteCGI uses; dialing and the
// PARAMS name/value set are assembled here.
package content

import (
	"bytes"
	"encoding/binary"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/f446843/hiawatha/httpwire"
)

const (
	fcgiVersion1 = 1

	typeBeginRequest = 1
	typeAbortRequest = 2
	typeEndRequest   = 3
	typeParams       = 4
	typeStdin        = 5
	typeStdout       = 6
	typeStderr       = 7

	roleResponder = 1
)

type fcgiHeader struct {
	version       uint8
	reqType       uint8
	requestID     uint16
	contentLength uint16
	paddingLength uint8
}

func writeFcgiRecord(w io.Writer, reqType uint8, requestID uint16, content []byte) error {
	h := fcgiHeader{
		version:       fcgiVersion1,
		reqType:       reqType,
		requestID:     requestID,
		contentLength: uint16(len(content)),
	}

	buf := make([]byte, 8)
	buf[0] = h.version
	buf[1] = h.reqType
	binary.BigEndian.PutUint16(buf[2:4], h.requestID)
	binary.BigEndian.PutUint16(buf[4:6], h.contentLength)
	buf[6] = 0 // padding length, content is not padded here
	buf[7] = 0 // reserved

	if _, err := w.Write(buf); err != nil {
		return err
	}
	_, err := w.Write(content)
	return err
}

func encodeFcgiNameValue(buf *bytes.Buffer, name, value string) {
	encodeFcgiLen(buf, len(name))
	encodeFcgiLen(buf, len(value))
	buf.WriteString(name)
	buf.WriteString(value)
}

func encodeFcgiLen(buf *bytes.Buffer, n int) {
	if n < 128 {
		buf.WriteByte(byte(n))
		return
	}
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(n)|0x80000000)
	buf.Write(b[:])
}

// ExecuteFastCGI dials addr (TCP "host:port" or "unix:/path/to.sock") and
// runs one FastCGI/1.0 responder request, returning the parsed status
// like ExecuteCGI.
func ExecuteFastCGI(rw *httpwire.ResponseWriter, addr string, body []byte, env Env) int {
	network := "tcp"
	dialAddr := addr
	if rest, ok := strings.CutPrefix(addr, "unix:"); ok {
		network, dialAddr = "unix", rest
	}

	conn, err := net.Dial(network, dialAddr)
	if err != nil {
		return http.StatusServiceUnavailable
	}
	defer conn.Close()

	const requestID = 1

	begin := make([]byte, 8)
	binary.BigEndian.PutUint16(begin[0:2], roleResponder)
	begin[2] = 0 // flags: do not keep the connection open after this request

	if err := writeFcgiRecord(conn, typeBeginRequest, requestID, begin); err != nil {
		return http.StatusServiceUnavailable
	}

	var params bytes.Buffer
	for k, v := range map[string]string{
		"REQUEST_METHOD": env.RequestMethod,
		"DOCUMENT_ROOT":  env.DocumentRoot,
		"REQUEST_URI":    env.RequestURI,
		"REMOTE_USER":    env.RemoteUser,
		"REMOTE_ADDR":    env.RemoteAddr,
		"QUERY_STRING":   env.QueryString,
		"PATH_INFO":      env.PathInfo,
		"SCRIPT_NAME":    env.ScriptName,
	} {
		encodeFcgiNameValue(&params, k, v)
	}
	if err := writeFcgiRecord(conn, typeParams, requestID, params.Bytes()); err != nil {
		return http.StatusServiceUnavailable
	}
	if err := writeFcgiRecord(conn, typeParams, requestID, nil); err != nil { // empty record ends the stream
		return http.StatusServiceUnavailable
	}

	if err := writeFcgiRecord(conn, typeStdin, requestID, body); err != nil {
		return http.StatusServiceUnavailable
	}
	if err := writeFcgiRecord(conn, typeStdin, requestID, nil); err != nil {
		return http.StatusServiceUnavailable
	}

	var stdout bytes.Buffer
	header := make([]byte, 8)
	for {
		if _, err := io.ReadFull(conn, header); err != nil {
			break
		}

		reqType := header[1]
		contentLen := binary.BigEndian.Uint16(header[4:6])
		padLen := header[6]

		payload := make([]byte, contentLen)
		if contentLen > 0 {
			if _, err := io.ReadFull(conn, payload); err != nil {
				break
			}
		}
		if padLen > 0 {
			if _, err := io.CopyN(io.Discard, conn, int64(padLen)); err != nil {
				break
			}
		}

		if reqType == typeStdout {
			stdout.Write(payload)
		}
		if reqType == typeEndRequest {
			break
		}
	}

	return writeCGIOutput(rw, stdout.Bytes())
}
