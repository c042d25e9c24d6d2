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

// Package toolkit evaluates a host's declarative URL rewrite/deny/ban
// rules in order.
package toolkit

import (
	"regexp"
	"sync"

	"github.com/f446843/hiawatha/config"
)

// Outcome is the result of applying one rule.
type Outcome struct {
	Action      config.ToolkitAction
	NewURI      string // set for Rewrite
	Location    string // set for Redirect
	FastCGI     string // set when the rule pins a FastCGI backend
}

// Engine compiles and caches a host's toolkit rules; compiling regexps on
// every request would be wasteful since Host is immutable after load.
type Engine struct {
	mu      sync.Mutex
	compiled map[*config.Host][]compiledRule
}

type compiledRule struct {
	re   *regexp.Regexp
	rule config.ToolkitRule
}

func NewEngine() *Engine {
	return &Engine{compiled: make(map[*config.Host][]compiledRule)}
}

func (e *Engine) rulesFor(host *config.Host) []compiledRule {
	e.mu.Lock()
	defer e.mu.Unlock()

	if rules, ok := e.compiled[host]; ok {
		return rules
	}

	rules := make([]compiledRule, 0, len(host.ToolkitRules))
	for _, r := range host.ToolkitRules {
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			continue // invalid pattern never matches; misconfiguration, not a request fault
		}
		rules = append(rules, compiledRule{re: re, rule: r})
	}
	e.compiled[host] = rules
	return rules
}

// Apply evaluates host's rules against uri in order and returns the first
// match's outcome, or a Continue outcome if none match.
func (e *Engine) Apply(host *config.Host, uri string) Outcome {
	for _, cr := range e.rulesFor(host) {
		if !cr.re.MatchString(uri) {
			continue
		}
		switch cr.rule.Action {
		case config.ToolkitRewrite:
			return Outcome{
				Action:  config.ToolkitRewrite,
				NewURI:  cr.re.ReplaceAllString(uri, cr.rule.Replacement),
				FastCGI: cr.rule.ToolkitFastCGI,
			}
		case config.ToolkitRedirect:
			return Outcome{
				Action:   config.ToolkitRedirect,
				Location: cr.re.ReplaceAllString(uri, cr.rule.Replacement),
			}
		default:
			return Outcome{Action: cr.rule.Action, FastCGI: cr.rule.ToolkitFastCGI}
		}
	}
	return Outcome{Action: config.ToolkitContinue}
}
