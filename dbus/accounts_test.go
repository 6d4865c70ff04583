// SPDX-FileCopyrightText: 2012 - 2026 Tails developers <tails@boum.org>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package dbus

import (
	"errors"
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAccountsBus struct {
	users     map[string]dbus.ObjectPath
	languages map[dbus.ObjectPath]string
	lookups   int
}

func (b *fakeAccountsBus) FindUserByName(name string) (dbus.ObjectPath, error) {
	b.lookups++
	p, ok := b.users[name]
	if !ok {
		return "", errors.New("no such user")
	}
	return p, nil
}

func (b *fakeAccountsBus) SetUserLanguage(user dbus.ObjectPath, language string) error {
	b.languages[user] = language
	return nil
}

func newTestManager(userName string) (*UserManager, *fakeAccountsBus) {
	bus := &fakeAccountsBus{
		users:     map[string]dbus.ObjectPath{"amnesia": "/org/freedesktop/Accounts/User1000"},
		languages: make(map[dbus.ObjectPath]string),
	}
	return &UserManager{userName: userName, bus: bus}, bus
}

func TestUserManagerLoad(t *testing.T) {
	m, bus := newTestManager("amnesia")
	loaded := 0
	m.SetLoadedCallback(func() { loaded++ })

	assert.False(t, m.IsLoaded())
	assert.Error(t, m.SetLanguage("fr_FR.UTF-8"))

	m.handleNameOwnerChanged(accountsServiceName, "", ":1.5")
	assert.True(t, m.IsLoaded())
	assert.Equal(t, 1, loaded)

	require.NoError(t, m.SetLanguage("fr_FR.UTF-8"))
	assert.Equal(t, "fr_FR.UTF-8", bus.languages["/org/freedesktop/Accounts/User1000"])
}

func TestUserManagerOwnerChanges(t *testing.T) {
	m, bus := newTestManager("amnesia")
	loaded := 0
	m.SetLoadedCallback(func() { loaded++ })

	m.handleNameOwnerChanged("org.example.Other", "", ":1.2")
	assert.False(t, m.IsLoaded())
	assert.Equal(t, 0, bus.lookups)

	m.handleNameOwnerChanged(accountsServiceName, "", ":1.5")
	m.handleNameOwnerChanged(accountsServiceName, ":1.5", "")
	assert.False(t, m.IsLoaded())

	m.handleNameOwnerChanged(accountsServiceName, "", ":1.9")
	assert.True(t, m.IsLoaded())
	// the callback only fires for the first load
	assert.Equal(t, 1, loaded)
	assert.Equal(t, 2, bus.lookups)
}

func TestUserManagerUnknownUser(t *testing.T) {
	m, _ := newTestManager("nobody")
	m.SetLoadedCallback(func() { t.Fatal("unexpected load") })
	m.handleNameOwnerChanged(accountsServiceName, "", ":1.5")
	assert.False(t, m.IsLoaded())
}
