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

// Command hiawattad wires every package into a running server: it loads
// the configuration, builds the shared collaborators (toolkit, reverse
// proxy, ban list/arbiter, registry, monitor counters), starts one
// net.Listener per binding feeding a bounded worker pool, and blocks
// until signaled to shut down.
package main

import (
	"fmt"
	"net/netip"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/f446843/hiawatha/auth"
	"github.com/f446843/hiawatha/banarbiter"
	"github.com/f446843/hiawatha/banlist"
	"github.com/f446843/hiawatha/config"
	"github.com/f446843/hiawatha/connection"
	"github.com/f446843/hiawatha/hook"
	"github.com/f446843/hiawatha/internal/logging"
	"github.com/f446843/hiawatha/internal/monitor"
	"github.com/f446843/hiawatha/netaccept"
	"github.com/f446843/hiawatha/pipeline"
	"github.com/f446843/hiawatha/registry"
	"github.com/f446843/hiawatha/rproxy"
	"github.com/f446843/hiawatha/session"
	"github.com/f446843/hiawatha/toolkit"
	"github.com/f446843/hiawatha/workerpool"
)

const rproxyLoopMark = "hiawattad"

func main() {
	var configFile string

	root := &cobra.Command{
		Use:   "hiawattad",
		Short: "Run the web server",
		Long:  "hiawattad loads a configuration file and serves its bindings until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configFile)
		},
	}
	root.Flags().StringVarP(&configFile, "config", "c", "/etc/hiawatha/hiawatha.yaml", "path to the configuration file")

	if err := root.Execute(); err != nil {
		logging.With(logging.Fields{"err": err.Error()}).Error("fatal startup error")
		os.Exit(1)
	}
}

func run(configFile string) error {
	loader := config.NewLoader()
	loader.SetConfigFile(configFile)

	cfg, err := loader.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	counters := monitor.New(cfg.MonitorEnabled)
	banList := banlist.New(parseSafeMask(cfg.BanSafeMask))
	reg := registry.New()
	arbiter := &banarbiter.Arbiter{Config: cfg, Banlist: banList, Registry: reg, Counters: counters}

	h := connection.New(cfg, pipeline.NewDefault())
	h.Toolkit = toolkit.NewEngine()
	h.RProxy = rproxy.NewEngine(rproxyLoopMark)
	h.Auth = auth.NewHtpasswdStore()
	h.Banlist = banList
	h.Registry = reg
	h.Counters = counters
	h.BanArbiter = arbiter
	h.RunHook = hook.Run

	pool := workerpool.New(cfg.PoolSize, h.Serve)

	stop := make(chan struct{})
	tick := time.NewTicker(30 * time.Second)
	defer tick.Stop()
	ticks := make(chan struct{})
	go func() {
		for range tick.C {
			select {
			case ticks <- struct{}{}:
			case <-stop:
				return
			}
		}
	}()
	go pool.Supervise(ticks, stop)

	listeners := make([]*netaccept.Listener, 0, len(cfg.Bindings))
	for _, binding := range cfg.Bindings {
		ln, err := netaccept.Listen(binding)
		if err != nil {
			return fmt.Errorf("listening on %s: %w", binding.Address, err)
		}
		listeners = append(listeners, ln)

		logging.With(logging.Fields{"address": binding.Address, "tls": binding.UseSSL}).Info("listening")

		go func(ln *netaccept.Listener) {
			err := ln.Serve(func(a netaccept.Accepted) {
				acceptConnection(a, cfg, banList, pool)
			})
			if err != nil {
				logging.With(logging.Fields{"address": ln.Addr().String(), "err": err.Error()}).Warn("listener stopped")
			}
		}(ln)
	}

	waitForSignal()

	close(stop)
	for _, ln := range listeners {
		_ = ln.Close()
	}

	return nil
}

// acceptConnection rejects a peer outright if it is currently banned,
// otherwise hands a fresh Session to the worker pool.
func acceptConnection(a netaccept.Accepted, cfg *config.Config, banList *banlist.List, pool *workerpool.Pool) {
	if !banList.Allowed(a.Addr) {
		_ = a.Conn.Close()
		return
	}

	sess := session.New(a.Conn, a.Addr, cfg, a.Binding)
	pool.Start(sess)
}

// parseSafeMask converts ban_safe_mask's dotted-decimal/CIDR strings into
// netip.Prefix values, skipping and logging any entry that doesn't parse
// rather than failing startup over an operator typo.
func parseSafeMask(raw []string) []netip.Prefix {
	prefixes := make([]netip.Prefix, 0, len(raw))
	for _, s := range raw {
		p, err := netip.ParsePrefix(s)
		if err != nil {
			if addr, aerr := netip.ParseAddr(s); aerr == nil {
				prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
				continue
			}
			logging.With(logging.Fields{"entry": s, "err": err.Error()}).Warn("ignoring unparsable ban_safe_mask entry")
			continue
		}
		prefixes = append(prefixes, p)
	}
	return prefixes
}

func waitForSignal() {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
}
