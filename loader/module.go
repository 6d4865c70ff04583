// SPDX-FileCopyrightText: 2012 - 2026 Tails developers <tails@boum.org>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package loader

import (
	"fmt"
	"sync"

	"github.com/linuxdeepin/go-lib/log"
)

type Module interface {
	Name() string
	IsEnable() bool
	Enable(bool) error
	GetDependencies() []string
	SetLogLevel(log.Priority)
	LogLevel() log.Priority
	// WaitEnable returns once the module started, with its start error.
	WaitEnable() error
	ModuleImpl
}

type Modules map[string]Module

type ModuleImpl interface {
	// Start must return once the module is usable by its dependents.
	Start() error
	Stop() error
}

type ModuleBase struct {
	impl    ModuleImpl
	name    string
	log     *log.Logger
	mu      sync.Mutex
	enabled bool

	startOnce sync.Once
	started   chan struct{}
	startErr  error
}

func NewModuleBase(name string, impl ModuleImpl, logger *log.Logger) *ModuleBase {
	return &ModuleBase{
		name:    name,
		impl:    impl,
		log:     logger,
		started: make(chan struct{}),
	}
}

func (d *ModuleBase) markStarted(err error) {
	d.startOnce.Do(func() {
		d.startErr = err
		close(d.started)
	})
}

func (d *ModuleBase) doEnable(enable bool) error {
	var err error
	if d.impl != nil {
		if enable {
			err = d.impl.Start()
		} else {
			err = d.impl.Stop()
		}
	}
	if enable {
		d.markStarted(err)
	}
	if err != nil {
		return err
	}

	d.mu.Lock()
	d.enabled = enable
	d.mu.Unlock()
	return nil
}

func (d *ModuleBase) Enable(enable bool) error {
	if d.IsEnable() == enable {
		if enable {
			return fmt.Errorf("%s is already started", d.name)
		}
		return fmt.Errorf("%s is not started", d.name)
	}
	return d.doEnable(enable)
}

// fail releases the modules waiting for d when it is never started.
func (d *ModuleBase) fail(err error) {
	d.markStarted(err)
}

func (d *ModuleBase) IsEnable() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.enabled
}

func (d *ModuleBase) WaitEnable() error {
	<-d.started
	return d.startErr
}

func (d *ModuleBase) Name() string {
	return d.name
}

func (d *ModuleBase) SetLogLevel(pri log.Priority) {
	d.log.SetLogLevel(pri)
}

func (d *ModuleBase) LogLevel() log.Priority {
	return d.log.GetLogLevel()
}
