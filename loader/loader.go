// SPDX-FileCopyrightText: 2012 - 2026 Tails developers <tails@boum.org>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package loader starts the greeter components in dependency order.
package loader

import (
	"fmt"
	"sync"
	"time"

	"github.com/linuxdeepin/go-lib/dbusutil"
	"github.com/linuxdeepin/go-lib/log"
	"github.com/linuxdeepin/go-lib/multierr"
)

type EnableFlag int

const (
	EnableFlagNone EnableFlag = 1 << iota
	EnableFlagIgnoreMissingModule
	EnableFlagForceStart
)

func (flags EnableFlag) HasFlag(flag EnableFlag) bool {
	return flags&flag != 0
}

const (
	ErrorNoDependencies int = iota
	ErrorCircleDependencies
	ErrorMissingModule
	ErrorInternalError
	ErrorConflict
)

type EnableError struct {
	ModuleName string
	Code       int
	detail     string
}

func (e *EnableError) Error() string {
	switch e.Code {
	case ErrorNoDependencies:
		return fmt.Sprintf("%s's dependencies are not met, %s is needed", e.ModuleName, e.detail)
	case ErrorCircleDependencies:
		return fmt.Sprintf("dependency circle through %s", e.ModuleName)
	case ErrorMissingModule:
		return fmt.Sprintf("%s is missing", e.ModuleName)
	case ErrorInternalError:
		return fmt.Sprintf("%s failed to start: %s", e.ModuleName, e.detail)
	case ErrorConflict:
		return fmt.Sprintf("trying to enable disabled module(%s)", e.ModuleName)
	}
	return fmt.Sprintf("%s: unknown error %d", e.ModuleName, e.Code)
}

type failer interface {
	fail(err error)
}

type Loader struct {
	modules Modules
	log     *log.Logger
	lock    sync.Mutex
	service *dbusutil.Service
	// enabled modules, in start order
	order []string
}

func (l *Loader) SetLogLevel(pri log.Priority) {
	l.log.SetLogLevel(pri)

	l.lock.Lock()
	defer l.lock.Unlock()

	for _, module := range l.modules {
		module.SetLogLevel(pri)
	}
}

func (l *Loader) AddModule(m Module) {
	l.lock.Lock()
	defer l.lock.Unlock()
	name := m.Name()
	_, exist := l.modules[name]
	if exist {
		l.log.Debug("Register", name, "is already registered")
		return
	}
	l.log.Debug("Register module:", name)
	l.modules[name] = m
}

func (l *Loader) List() []Module {
	l.lock.Lock()
	defer l.lock.Unlock()
	modules := make([]Module, 0, len(l.modules))
	for _, m := range l.modules {
		modules = append(modules, m)
	}
	return modules
}

func (l *Loader) GetModule(name string) Module {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.modules[name]
}

// waitDependencies returns the error of the first dependency that failed.
func (l *Loader) waitDependencies(module Module) error {
	for _, dependencyName := range module.GetDependencies() {
		dep, ok := l.modules[dependencyName]
		if !ok {
			continue
		}
		if err := dep.WaitEnable(); err != nil {
			return &EnableError{ModuleName: module.Name(), Code: ErrorNoDependencies, detail: dependencyName}
		}
	}
	return nil
}

// EnableModules starts enablingModules and their dependencies. Each module
// starts in its own goroutine once its dependencies are started; a module
// whose dependency failed is not started.
func (l *Loader) EnableModules(enablingModules []string, disableModules []string, flag EnableFlag) error {
	l.lock.Lock()
	defer l.lock.Unlock()

	startTime := time.Now()
	builder := NewDAGBuilder(l, enablingModules, disableModules, flag)
	names, err := builder.Execute()
	if err != nil {
		return err
	}
	l.log.Infof("topo sort done, cost %s", time.Since(startTime))

	var mu sync.Mutex
	var errs error
	var wg sync.WaitGroup
	for _, name := range names {
		module := l.modules[name]
		if module.IsEnable() {
			continue
		}
		wg.Add(1)
		go func(name string, module Module) {
			defer wg.Done()
			l.log.Debug("enable module", name)
			startTime := time.Now()

			err := l.waitDependencies(module)
			if err != nil {
				if f, ok := module.(failer); ok {
					f.fail(err)
				}
			} else {
				err = module.Enable(true)
				if err != nil {
					err = &EnableError{ModuleName: name, Code: ErrorInternalError, detail: err.Error()}
				}
			}

			if err != nil {
				l.log.Errorf("enable module %s failed: %s, cost %s", name, err, time.Since(startTime))
				mu.Lock()
				errs = multierr.Append(errs, err)
				mu.Unlock()
				return
			}
			l.log.Infof("enable module %s done, cost %s", name, time.Since(startTime))
		}(name, module)
	}
	wg.Wait()

	for _, name := range names {
		if l.modules[name].IsEnable() {
			l.order = append(l.order, name)
		}
	}
	l.log.Infof("enable modules done, cost add up to %s", time.Since(startTime))
	return errs
}

// StopAll stops the enabled modules, dependents first.
func (l *Loader) StopAll() error {
	l.lock.Lock()
	defer l.lock.Unlock()

	var errs error
	for i := len(l.order) - 1; i >= 0; i-- {
		name := l.order[i]
		err := l.modules[name].Enable(false)
		if err != nil {
			l.log.Warningf("stop module %s failed: %s", name, err)
			errs = multierr.Append(errs, err)
		}
	}
	l.order = nil
	return errs
}
