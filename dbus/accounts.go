// SPDX-FileCopyrightText: 2012 - 2026 Tails developers <tails@boum.org>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package dbus is the AccountsService client of the greeter.
package dbus

import (
	"sync"

	"github.com/godbus/dbus/v5"
	ofdbus "github.com/linuxdeepin/go-dbus-factory/system/org.freedesktop.dbus"
	"github.com/linuxdeepin/go-lib/dbusutil"
	"github.com/linuxdeepin/go-lib/dbusutil/proxy"
	"github.com/linuxdeepin/go-lib/log"
	"golang.org/x/xerrors"
)

const (
	accountsServiceName = "org.freedesktop.Accounts"
	accountsPath        = "/org/freedesktop/Accounts"
	accountsInterface   = "org.freedesktop.Accounts"
	userInterface       = accountsInterface + ".User"
)

var logger = log.NewLogger("greeter/dbus")

func SetLogLevel(level log.Priority) {
	logger.SetLogLevel(level)
}

// accountsBus is the part of AccountsService the user manager calls.
type accountsBus interface {
	FindUserByName(name string) (dbus.ObjectPath, error)
	SetUserLanguage(user dbus.ObjectPath, language string) error
}

type systemAccounts struct {
	conn *dbus.Conn
}

func (a systemAccounts) FindUserByName(name string) (dbus.ObjectPath, error) {
	var userPath dbus.ObjectPath
	err := a.conn.Object(accountsServiceName, accountsPath).
		Call(accountsInterface+".FindUserByName", 0, name).Store(&userPath)
	return userPath, err
}

func (a systemAccounts) SetUserLanguage(user dbus.ObjectPath, language string) error {
	return a.conn.Object(accountsServiceName, user).
		Call(userInterface+".SetLanguage", 0, language).Err
}

// UserManager tracks the live user account in AccountsService. The user is
// looked up again each time the service appears on the bus.
type UserManager struct {
	userName string
	bus      accountsBus

	conn       *dbus.Conn
	sigLoop    *dbusutil.SignalLoop
	dbusDaemon ofdbus.DBus

	mu       sync.Mutex
	userPath dbus.ObjectPath
	loadedCb func()
	notified bool
}

func NewUserManager(systemConn *dbus.Conn, userName string) *UserManager {
	return &UserManager{
		userName: userName,
		bus:      systemAccounts{conn: systemConn},
		conn:     systemConn,
	}
}

// SetLoadedCallback sets the function called the first time the live user
// becomes available.
func (m *UserManager) SetLoadedCallback(fn func()) {
	m.mu.Lock()
	m.loadedCb = fn
	m.mu.Unlock()
}

func (m *UserManager) Start() error {
	m.dbusDaemon = ofdbus.NewDBus(m.conn)
	m.sigLoop = dbusutil.NewSignalLoop(m.conn, 10)
	m.sigLoop.Start()

	m.dbusDaemon.InitSignalExt(m.sigLoop, true)
	_, err := m.dbusDaemon.ConnectNameOwnerChanged(m.handleNameOwnerChanged)
	if err != nil {
		return xerrors.Errorf("watch %s: %w", accountsServiceName, err)
	}

	hasOwner, err := m.dbusDaemon.NameHasOwner(0, accountsServiceName)
	if err != nil {
		logger.Warning(err)
	} else if hasOwner {
		m.load()
	} else {
		logger.Info("waiting for", accountsServiceName)
	}
	return nil
}

func (m *UserManager) Stop() {
	if m.dbusDaemon != nil {
		m.dbusDaemon.RemoveHandler(proxy.RemoveAllHandlers)
	}
	if m.sigLoop != nil {
		m.sigLoop.Stop()
	}
}

func (m *UserManager) handleNameOwnerChanged(name, oldOwner, newOwner string) {
	if name != accountsServiceName {
		return
	}
	if newOwner == "" {
		logger.Info(accountsServiceName, "lost its owner")
		m.mu.Lock()
		m.userPath = ""
		m.mu.Unlock()
		return
	}
	m.load()
}

func (m *UserManager) load() {
	userPath, err := m.bus.FindUserByName(m.userName)
	if err != nil {
		logger.Warningf("failed to find user %s: %v", m.userName, err)
		return
	}
	logger.Debug("live user is", userPath)

	m.mu.Lock()
	m.userPath = userPath
	cb := m.loadedCb
	first := !m.notified
	m.notified = true
	m.mu.Unlock()

	if first && cb != nil {
		cb()
	}
}

// IsLoaded tells whether the live user object is known.
func (m *UserManager) IsLoaded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.userPath != ""
}

// SetLanguage sets the language of the live user, e.g. "de_DE.UTF-8".
func (m *UserManager) SetLanguage(language string) error {
	m.mu.Lock()
	userPath := m.userPath
	m.mu.Unlock()
	if userPath == "" {
		return xerrors.Errorf("user %s not loaded", m.userName)
	}
	err := m.bus.SetUserLanguage(userPath, language)
	if err != nil {
		return xerrors.Errorf("set language of %s: %w", m.userName, err)
	}
	return nil
}
