// SPDX-FileCopyrightText: 2012 - 2026 Tails developers <tails@boum.org>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package gdm

import (
	"errors"
	"os"
	"strings"
	"sync"

	"github.com/godbus/dbus/v5"
	"golang.org/x/xerrors"
)

const (
	greeterServerInterface = "org.gnome.DisplayManager.GreeterServer"
	greeterServerPath      = "/org/gnome/DisplayManager/GreeterServer"

	// AutologinService is the PAM conversation used for the live user.
	AutologinService = "gdm-autologin"
	AddressEnv       = "GDM_GREETER_DBUS_ADDRESS"
)

var ErrNotReady = errors.New("GDM greeter server is not ready")

// greeterServer calls a method of the GreeterServer interface and stores the
// reply into ret.
type greeterServer interface {
	Call(method string, args []interface{}, ret ...interface{}) error
}

type busGreeterServer struct {
	obj dbus.BusObject
}

func (s busGreeterServer) Call(method string, args []interface{}, ret ...interface{}) error {
	call := s.obj.Call(greeterServerInterface+"."+method, 0, args...)
	if call.Err != nil {
		return call.Err
	}
	if len(ret) == 0 {
		return nil
	}
	return call.Store(ret...)
}

// Dial opens the peer-to-peer connection GDM gives to its greeter. An empty
// address is read from the environment.
func Dial(address string) (*dbus.Conn, error) {
	if address == "" {
		address = os.Getenv(AddressEnv)
	}
	if address == "" {
		return nil, xerrors.Errorf("%s is not set", AddressEnv)
	}
	conn, err := dbus.Dial(address)
	if err != nil {
		return nil, xerrors.Errorf("connect to greeter server %s: %w", address, err)
	}
	err = conn.Auth(nil)
	if err != nil {
		conn.Close()
		return nil, xerrors.Errorf("authenticate to greeter server: %w", err)
	}
	logger.Debug("connected to greeter server on", address)
	return conn, nil
}

// Client drives the GDM auto-login conversation for the live user.
type Client struct {
	server   greeterServer
	conn     *dbus.Conn
	user     string
	password string

	sigChan chan *dbus.Signal
	quit    chan struct{}
	wg      sync.WaitGroup

	mu                 sync.Mutex
	ready              bool
	displayID          dbus.ObjectPath
	defaultSessionName string
	pendingLanguage    string
	sessionOpenedCb    func(service string)
}

func NewClient(conn *dbus.Conn, user, password string) *Client {
	return &Client{
		server:   busGreeterServer{obj: conn.Object(greeterServerInterface, greeterServerPath)},
		conn:     conn,
		user:     user,
		password: password,
	}
}

// SetSessionOpenedCallback sets the function run when GDM opened the
// session, before the session is started.
func (c *Client) SetSessionOpenedCallback(fn func(service string)) {
	c.mu.Lock()
	c.sessionOpenedCb = fn
	c.mu.Unlock()
}

// Start subscribes to the greeter server signals.
func (c *Client) Start() error {
	var displayID dbus.ObjectPath
	err := c.server.Call("GetDisplayId", nil, &displayID)
	if err != nil {
		logger.Warning("failed to get display id:", err)
	} else {
		logger.Debug("display:", displayID)
		c.mu.Lock()
		c.displayID = displayID
		c.mu.Unlock()
	}

	if c.conn == nil {
		return nil
	}
	c.sigChan = make(chan *dbus.Signal, 10)
	c.quit = make(chan struct{})
	c.conn.Signal(c.sigChan)
	c.wg.Add(1)
	go c.signalLoop()
	return nil
}

func (c *Client) Stop() error {
	if c.conn == nil || c.quit == nil {
		return nil
	}
	c.conn.RemoveSignal(c.sigChan)
	close(c.quit)
	c.wg.Wait()
	return c.conn.Close()
}

func (c *Client) signalLoop() {
	defer c.wg.Done()
	for {
		select {
		case sig, ok := <-c.sigChan:
			if !ok {
				return
			}
			c.dispatch(sig)
		case <-c.quit:
			return
		}
	}
}

func (c *Client) DisplayID() dbus.ObjectPath {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.displayID
}

func (c *Client) DefaultSessionName() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.defaultSessionName
}

func (c *Client) IsReady() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ready
}

// NormalizeLanguage returns locale in the xx_YY.UTF-8 form GDM expects.
func NormalizeLanguage(locale string) string {
	if locale == "" {
		return locale
	}
	if idx := strings.IndexByte(locale, '.'); idx >= 0 {
		codeset := strings.ToUpper(strings.ReplaceAll(locale[idx+1:], "-", ""))
		if codeset == "UTF8" {
			return locale[:idx] + ".UTF-8"
		}
		return locale
	}
	return locale + ".UTF-8"
}

// SelectLanguage sets the language of the session GDM is going to start.
// Before the server is ready the language is kept and sent on Ready.
func (c *Client) SelectLanguage(locale string) error {
	lang := NormalizeLanguage(locale)
	c.mu.Lock()
	if !c.ready {
		c.pendingLanguage = lang
		c.mu.Unlock()
		logger.Debug("greeter server not ready, delay selecting language", lang)
		return ErrNotReady
	}
	c.mu.Unlock()

	logger.Debug("setting language to", lang)
	return c.server.Call("SelectLanguage", []interface{}{lang})
}

// Login starts the auto-login conversation for the live user.
func (c *Client) Login() error {
	if !c.IsReady() {
		return ErrNotReady
	}
	logger.Debug("begin auto login for", c.user)
	err := c.server.Call("BeginAutoLogin", []interface{}{c.user})
	if err != nil {
		return xerrors.Errorf("begin auto login: %w", err)
	}
	return nil
}

func (c *Client) answerQuery(service, answer string) {
	err := c.server.Call("AnswerQuery", []interface{}{service, answer})
	if err != nil {
		logger.Warning("failed to answer query:", err)
	}
}
