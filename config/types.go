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

// Package config holds the immutable snapshot of process configuration:
// one Config with many Bindings (listeners), each Binding serving one or
// more virtual Hosts. Everything here is read-only after Loader.Load
// returns; per-request directory overrides never mutate these values,
// they operate on a cloned overlay (see package session, DuplicateHost).
package config

import "time"

// RProxyRule forwards requests matching Pattern to Upstream.
type RProxyRule struct {
	Pattern  string `mapstructure:"pattern" json:"pattern" yaml:"pattern" validate:"required"`
	Upstream string `mapstructure:"upstream" json:"upstream" yaml:"upstream" validate:"required,url"`
}

// ToolkitAction is the outcome a ToolkitRule produces when its pattern matches.
type ToolkitAction string

const (
	ToolkitContinue ToolkitAction = "continue"
	ToolkitRewrite  ToolkitAction = "rewrite"
	ToolkitRedirect ToolkitAction = "redirect"
	ToolkitDeny     ToolkitAction = "deny"
	ToolkitBan      ToolkitAction = "ban"
	ToolkitError    ToolkitAction = "error"
)

type ToolkitRule struct {
	Pattern        string        `mapstructure:"pattern" json:"pattern" yaml:"pattern" validate:"required"`
	Action         ToolkitAction `mapstructure:"action" json:"action" yaml:"action" validate:"required,oneof=continue rewrite redirect deny ban error"`
	Replacement    string        `mapstructure:"replacement" json:"replacement" yaml:"replacement"`
	Expires        time.Duration `mapstructure:"expires" json:"expires" yaml:"expires"`
	ToolkitFastCGI string        `mapstructure:"toolkit_fastcgi" json:"toolkit_fastcgi" yaml:"toolkit_fastcgi"`
}

// CGIHandler binds a file extension to a binary/script interpreter or a
// FastCGI backend address, mirroring the three flavors check_target_is_cgi
// chooses between.
type CGIHandler struct {
	Extension string `mapstructure:"extension" json:"extension" yaml:"extension" validate:"required"`
	Binary    string `mapstructure:"binary" json:"binary" yaml:"binary"`
	Script    string `mapstructure:"script" json:"script" yaml:"script"`
	FastCGI   string `mapstructure:"fastcgi" json:"fastcgi" yaml:"fastcgi"`
}

// AccessRule is one allow/deny/password entry evaluated in order by the
// access-control pipeline stage.
type AccessRule struct {
	Pattern string `mapstructure:"pattern" json:"pattern" yaml:"pattern" validate:"required"`
	Allow   bool   `mapstructure:"allow" json:"allow" yaml:"allow"`
	Pwd     bool   `mapstructure:"pwd" json:"pwd" yaml:"pwd"`
}

// Host is an immutable virtual-host record resolved from the Host: header.
type Host struct {
	Hostname string `mapstructure:"hostname" json:"hostname" yaml:"hostname" validate:"required"`

	WebsiteRoot    string         `mapstructure:"website_root" json:"website_root" yaml:"website_root" validate:"required"`
	AccessList     []AccessRule   `mapstructure:"access_list" json:"access_list" yaml:"access_list"`
	ErrorHandlers  map[int]string `mapstructure:"error_handlers" json:"error_handlers" yaml:"error_handlers"`
	DenyBody       []string       `mapstructure:"deny_body" json:"deny_body" yaml:"deny_body"`
	RProxy         []RProxyRule   `mapstructure:"rproxy" json:"rproxy" yaml:"rproxy"`
	ToolkitRules   []ToolkitRule  `mapstructure:"toolkit_rules" json:"toolkit_rules" yaml:"toolkit_rules"`
	CGIHandlers    []CGIHandler   `mapstructure:"cgi_handlers" json:"cgi_handlers" yaml:"cgi_handlers"`

	RequireSSL     bool `mapstructure:"require_ssl" json:"require_ssl" yaml:"require_ssl"`
	PreventXSS     bool `mapstructure:"prevent_xss" json:"prevent_xss" yaml:"prevent_xss"`
	PreventCSRF    bool `mapstructure:"prevent_csrf" json:"prevent_csrf" yaml:"prevent_csrf"`
	PreventSQLi    bool `mapstructure:"prevent_sqli" json:"prevent_sqli" yaml:"prevent_sqli"`
	WebDAVApp      bool `mapstructure:"webdav_app" json:"webdav_app" yaml:"webdav_app"`
	EnablePathInfo bool `mapstructure:"enable_path_info" json:"enable_path_info" yaml:"enable_path_info"`
	AllowDotFiles  bool `mapstructure:"allow_dot_files" json:"allow_dot_files" yaml:"allow_dot_files"`
	SecureURL      bool `mapstructure:"secure_url" json:"secure_url" yaml:"secure_url"`
	MonitorHost    bool `mapstructure:"monitor_host" json:"monitor_host" yaml:"monitor_host"`
	ShowIndex      bool `mapstructure:"show_index" json:"show_index" yaml:"show_index"`

	StartFile   string `mapstructure:"start_file" json:"start_file" yaml:"start_file"`
	RunOnAlter  string `mapstructure:"run_on_alter" json:"run_on_alter" yaml:"run_on_alter"`
	RunOnDownload string `mapstructure:"run_on_download" json:"run_on_download" yaml:"run_on_download"`

	// CACertificate, when set, requires a verified client certificate
	// signed by this CA for every request against this host (mutual TLS).
	CACertificate string `mapstructure:"ca_certificate" json:"ca_certificate" yaml:"ca_certificate"`
}

// Clone returns a value copy safe for per-request directory overlays to
// mutate. Every slice field and the ErrorHandlers map are copied into
// fresh storage, so writing to or appending on the clone's collections
// never touches the shared base.
func (h *Host) Clone() *Host {
	if h == nil {
		return nil
	}
	c := *h
	c.AccessList = append([]AccessRule(nil), h.AccessList...)
	c.DenyBody = append([]string(nil), h.DenyBody...)
	c.RProxy = append([]RProxyRule(nil), h.RProxy...)
	c.ToolkitRules = append([]ToolkitRule(nil), h.ToolkitRules...)
	c.CGIHandlers = append([]CGIHandler(nil), h.CGIHandlers...)

	errHandlers := make(map[int]string, len(h.ErrorHandlers))
	for k, v := range h.ErrorHandlers {
		errHandlers[k] = v
	}
	c.ErrorHandlers = errHandlers

	return &c
}

// Binding is an immutable listener descriptor: one bind address, its TLS
// policy and per-connection timeouts.
type Binding struct {
	Address string `mapstructure:"address" json:"address" yaml:"address" validate:"required"`

	UseSSL      bool            `mapstructure:"use_ssl" json:"use_ssl" yaml:"use_ssl"`
	TLS         *TLSBindingConf `mapstructure:"tls" json:"tls" yaml:"tls"`
	EnableTrace bool            `mapstructure:"enable_trace" json:"enable_trace" yaml:"enable_trace"`
	EnableAlter bool            `mapstructure:"enable_alter" json:"enable_alter" yaml:"enable_alter"`

	Time1stRequest time.Duration `mapstructure:"time_1st_request" json:"time_1st_request" yaml:"time_1st_request" validate:"required"`
	TimeRequest    time.Duration `mapstructure:"time_request" json:"time_request" yaml:"time_request" validate:"required"`

	Hosts []*Host `mapstructure:"hosts" json:"hosts" yaml:"hosts" validate:"required,min=1,dive"`
}

// TLSBindingConf is the on-disk shape; connection.Handler turns it into a
// tlsconfig.Builder the first time a TLS binding is served.
type TLSBindingConf struct {
	CertFile          string `mapstructure:"cert_file" json:"cert_file" yaml:"cert_file"`
	KeyFile           string `mapstructure:"key_file" json:"key_file" yaml:"key_file"`
	ClientCAFile      string `mapstructure:"client_ca_file" json:"client_ca_file" yaml:"client_ca_file"`
	RequireClientCert bool   `mapstructure:"require_client_cert" json:"require_client_cert" yaml:"require_client_cert"`
	MinVersion        uint16 `mapstructure:"min_version" json:"min_version" yaml:"min_version"`
	MaxVersion        uint16 `mapstructure:"max_version" json:"max_version" yaml:"max_version"`
}

// HostFor resolves the virtual host matching hostname on this binding, the
// "(hostname, binding)" lookup of pipeline stage 4.
func (b *Binding) HostFor(hostname string) *Host {
	for _, h := range b.Hosts {
		if h.Hostname == hostname {
			return h
		}
	}
	if len(b.Hosts) > 0 {
		return b.Hosts[0] // first configured host is the default, teacher httpserver convention
	}
	return nil
}

// Config is the full, immutable process configuration.
type Config struct {
	PoolSize int `mapstructure:"pool_size" json:"pool_size" yaml:"pool_size" validate:"required,min=1"`

	Bindings []*Binding `mapstructure:"bindings" json:"bindings" yaml:"bindings" validate:"required,min=1,dive"`

	BanDurations   map[string]time.Duration `mapstructure:"ban_durations" json:"ban_durations" yaml:"ban_durations"`
	BanSafeMask    []string                 `mapstructure:"ban_safe_mask" json:"ban_safe_mask" yaml:"ban_safe_mask"`
	HideProxy      []string                 `mapstructure:"hide_proxy" json:"hide_proxy" yaml:"hide_proxy"`
	FloodThreshold int                      `mapstructure:"flood_threshold" json:"flood_threshold" yaml:"flood_threshold"`
	ReconnectDelay time.Duration            `mapstructure:"reconnect_delay" json:"reconnect_delay" yaml:"reconnect_delay"`
	MonitorEnabled bool                     `mapstructure:"monitor_enabled" json:"monitor_enabled" yaml:"monitor_enabled"`
	WaitForCGI     bool                     `mapstructure:"wait_for_cgi" json:"wait_for_cgi" yaml:"wait_for_cgi"`
	KickOnBan      bool                     `mapstructure:"kick_on_ban" json:"kick_on_ban" yaml:"kick_on_ban"`
}

// BanDuration looks up the configured ban length for cause, 0 meaning "do
// not ban for this cause".
func (c *Config) BanDuration(cause string) time.Duration {
	if c == nil {
		return 0
	}
	return c.BanDurations[cause]
}
