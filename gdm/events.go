// SPDX-FileCopyrightText: 2012 - 2026 Tails developers <tails@boum.org>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package gdm

import (
	"strings"

	"github.com/godbus/dbus/v5"
)

type Event uint

const (
	EventUnknown Event = iota
	EventReady
	EventSessionOpened
	EventInfoQuery
	EventSecretInfoQuery
	EventDefaultSessionNameChanged
	EventDefaultLanguageNameChanged
	EventDefaultLayoutNameChanged
	EventTimedLoginRequested
	EventProblem
	EventInfo
)

var eventNames = map[string]Event{
	"Ready":                      EventReady,
	"SessionOpened":              EventSessionOpened,
	"InfoQuery":                  EventInfoQuery,
	"SecretInfoQuery":            EventSecretInfoQuery,
	"DefaultSessionNameChanged":  EventDefaultSessionNameChanged,
	"DefaultLanguageNameChanged": EventDefaultLanguageNameChanged,
	"DefaultLayoutNameChanged":   EventDefaultLayoutNameChanged,
	"TimedLoginRequested":        EventTimedLoginRequested,
	"Problem":                    EventProblem,
	"Info":                       EventInfo,
}

func (e Event) String() string {
	for name, ev := range eventNames {
		if ev == e {
			return name
		}
	}
	return "Unknown"
}

// eventArgs holds the signal body. Service is the first string argument,
// Text the last one.
type eventArgs struct {
	Service string
	Text    string
	Body    []interface{}
}

func parseEventArgs(body []interface{}) eventArgs {
	args := eventArgs{
		Service: AutologinService,
		Body:    body,
	}
	var strs []string
	for _, v := range body {
		if s, ok := v.(string); ok {
			strs = append(strs, s)
		}
	}
	if len(strs) > 0 {
		args.Service = strs[0]
		args.Text = strs[len(strs)-1]
	}
	return args
}

var eventHandlers = map[Event]func(c *Client, args eventArgs){
	EventReady:                      (*Client).handleReady,
	EventSessionOpened:              (*Client).handleSessionOpened,
	EventInfoQuery:                  (*Client).handleInfoQuery,
	EventSecretInfoQuery:            (*Client).handleSecretInfoQuery,
	EventDefaultSessionNameChanged:  (*Client).handleDefaultSessionNameChanged,
	EventDefaultLanguageNameChanged: logEvent(EventDefaultLanguageNameChanged),
	EventDefaultLayoutNameChanged:   logEvent(EventDefaultLayoutNameChanged),
	EventTimedLoginRequested:        logEvent(EventTimedLoginRequested),
	EventProblem:                    (*Client).handleProblem,
	EventInfo:                       logEvent(EventInfo),
}

func (c *Client) dispatch(sig *dbus.Signal) {
	if sig == nil {
		return
	}
	idx := strings.LastIndexByte(sig.Name, '.')
	if idx < 0 || sig.Name[:idx] != greeterServerInterface {
		return
	}
	ev := eventNames[sig.Name[idx+1:]]
	handler, ok := eventHandlers[ev]
	if !ok {
		logger.Warningf("unhandled signal %s%v", sig.Name, sig.Body)
		return
	}
	logger.Debugf("%s%v", sig.Name, sig.Body)
	handler(c, parseEventArgs(sig.Body))
}

func (c *Client) handleReady(args eventArgs) {
	logger.Debug("greeter server is ready")
	c.mu.Lock()
	c.ready = true
	lang := c.pendingLanguage
	c.pendingLanguage = ""
	c.mu.Unlock()

	if lang != "" {
		err := c.SelectLanguage(lang)
		if err != nil {
			logger.Warning("failed to select language:", err)
		}
	}
}

func (c *Client) handleSessionOpened(args eventArgs) {
	logger.Debug("session opened with", args.Service)
	c.mu.Lock()
	cb := c.sessionOpenedCb
	c.mu.Unlock()
	if cb != nil {
		cb(args.Service)
	}
	err := c.server.Call("StartSessionWhenReady", []interface{}{args.Service, true})
	if err != nil {
		logger.Warning("failed to start session:", err)
	}
}

func (c *Client) handleInfoQuery(args eventArgs) {
	logger.Debugf("info query %q from %s", args.Text, args.Service)
	c.answerQuery(args.Service, c.user)
}

func (c *Client) handleSecretInfoQuery(args eventArgs) {
	logger.Debugf("secret info query %q from %s", args.Text, args.Service)
	c.answerQuery(args.Service, c.password)
}

func (c *Client) handleDefaultSessionNameChanged(args eventArgs) {
	c.mu.Lock()
	c.defaultSessionName = args.Text
	c.mu.Unlock()
}

func (c *Client) handleProblem(args eventArgs) {
	logger.Warningf("problem from %s: %s", args.Service, args.Text)
}

func logEvent(ev Event) func(c *Client, args eventArgs) {
	return func(c *Client, args eventArgs) {
		logger.Debugf("%s: %v", ev, args.Body)
	}
}
