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

package session

// RequestMethod is the parsed HTTP method, tagged rather than left as a
// raw string so the pipeline's method-gating stage can pattern-match it.
type RequestMethod string

const (
	MethodGET         RequestMethod = "GET"
	MethodHEAD        RequestMethod = "HEAD"
	MethodPOST        RequestMethod = "POST"
	MethodPUT         RequestMethod = "PUT"
	MethodDELETE      RequestMethod = "DELETE"
	MethodTRACE       RequestMethod = "TRACE"
	MethodUnknown     RequestMethod = "unknown"
	MethodUnsupported RequestMethod = "unsupported"
)

// ParseMethod classifies a wire method token; anything neither recognized
// nor a plausible extension token is "unknown", an all-caps token outside
// the known set is "unsupported" (mirrors the source's split between a
// malformed method and a syntactically valid but undispatched one).
func ParseMethod(token string) RequestMethod {
	switch token {
	case "GET":
		return MethodGET
	case "HEAD":
		return MethodHEAD
	case "POST":
		return MethodPOST
	case "PUT":
		return MethodPUT
	case "DELETE":
		return MethodDELETE
	case "TRACE":
		return MethodTRACE
	case "":
		return MethodUnknown
	}
	if isUpperToken(token) {
		return MethodUnsupported
	}
	return MethodUnknown
}

func isUpperToken(s string) bool {
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return len(s) > 0
}

// CGIType selects how the target is dispatched once classified.
type CGIType string

const (
	NoCGI   CGIType = "no_cgi"
	Binary  CGIType = "binary"
	Script  CGIType = "script"
	FastCGI CGIType = "fastcgi"
)

// Access is the outcome of the access-control pipeline stage.
type Access string

const (
	AccessAllow       Access = "allow"
	AccessDeny        Access = "deny"
	AccessPwd         Access = "pwd"
	AccessUnspecified Access = "unspecified"
)

// CauseOf301 names why a 301 redirect was produced, for logging.
type CauseOf301 string

const (
	CauseNone           CauseOf301 = ""
	CauseRequireSSL     CauseOf301 = "require_ssl"
	CauseTrailingSlash  CauseOf301 = "trailing_slash"
	CauseToolkitRewrite CauseOf301 = "toolkit_redirect"
)

// ErrorCause tags a transport-level fault (result == -1) for the response
// finalizer's lookup table.
type ErrorCause string

const (
	CauseMaxRequestSize    ErrorCause = "max_request_size"
	CauseTimeout            ErrorCause = "timeout"
	CauseClientDisconnected ErrorCause = "client_disconnected"
	CauseSocketReadError    ErrorCause = "socket_read_error"
	CauseSocketWriteError   ErrorCause = "socket_write_error"
	CauseForceQuit          ErrorCause = "force_quit"
	CauseSQLInjection       ErrorCause = "sql_injection"
	CauseInvalidURL         ErrorCause = "invalid_url"
	CauseOther              ErrorCause = "other"
)

// DirectoryKind is the outcome of is_directory(file_on_disk).
type DirectoryKind string

const (
	DirYes      DirectoryKind = "yes"
	DirNo       DirectoryKind = "no"
	DirNoAccess DirectoryKind = "no_access"
	DirNotFound DirectoryKind = "not_found"
	DirError    DirectoryKind = "error"
)

// BanCause names a trigger the ban arbiter consults durations for.
type BanCause string

const (
	BanTimeout        BanCause = "timeout"
	BanMaxRequestSize BanCause = "max_request_size"
	BanGarbage        BanCause = "garbage"
	BanSQLi           BanCause = "sqli"
	BanInvalidURL     BanCause = "invalid_url"
	BanDeniedBody     BanCause = "denied_body"
	BanFlooding       BanCause = "flooding"
	BanToolkitRule    BanCause = "toolkit_rule"
)
