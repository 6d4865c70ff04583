// SPDX-FileCopyrightText: 2012 - 2026 Tails developers <tails@boum.org>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package options

import (
	"sync"

	"gitlab.tails.boum.org/tails/greeter/common/envfile"
)

// RootAccess keeps the administration password of the live user until the
// session starts.
type RootAccess struct {
	filename string

	mu       sync.Mutex
	password string
}

func NewRootAccess(filename string) *RootAccess {
	return &RootAccess{filename: filename}
}

func (r *RootAccess) SetPassword(password string) {
	r.mu.Lock()
	r.password = password
	r.mu.Unlock()
}

// Finish writes the password for the session, if one was set.
func (r *RootAccess) Finish() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.password == "" {
		return nil
	}
	err := envfile.New().SetQuoted("TAILS_USER_PASSWORD", r.password).Save(r.filename)
	if err != nil {
		return err
	}
	logger.Debug("password written to", r.filename)
	return nil
}
