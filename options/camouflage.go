// SPDX-FileCopyrightText: 2012 - 2026 Tails developers <tails@boum.org>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package options

import (
	"sync"

	"gitlab.tails.boum.org/tails/greeter/common/envfile"
)

type Camouflage struct {
	filename string

	mu sync.Mutex
	os string
}

func NewCamouflage(filename string) *Camouflage {
	return &Camouflage{filename: filename}
}

func (c *Camouflage) OS() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.os
}

// SetOS selects the operating system to impersonate, an empty name turns
// camouflage off.
func (c *Camouflage) SetOS(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.os = name
	if name == "" {
		err := envfile.Remove(c.filename)
		if err != nil {
			return err
		}
		logger.Debug("removed", c.filename)
		return nil
	}

	err := envfile.New().SetQuoted("TAILS_CAMOUFLAGE_OS", name).Save(c.filename)
	if err != nil {
		return err
	}
	logger.Debug("camouflage setting written to", c.filename)
	return nil
}
