// SPDX-FileCopyrightText: 2012 - 2026 Tails developers <tails@boum.org>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package loader

import (
	"errors"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/linuxdeepin/go-lib/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu      sync.Mutex
	started []string
	stopped []string
}

func (r *recorder) add(list *[]string, name string) {
	r.mu.Lock()
	*list = append(*list, name)
	r.mu.Unlock()
}

type testModule struct {
	*ModuleBase
	dependencies string
	startErr     error
	rec          *recorder
}

func newTestModule(name, dependencies string, rec *recorder) *testModule {
	m := &testModule{dependencies: dependencies, rec: rec}
	m.ModuleBase = NewModuleBase(name, m, log.NewLogger(name))
	return m
}

func (d *testModule) GetDependencies() []string {
	if d.dependencies == "" {
		return nil
	}
	return strings.Split(d.dependencies, " ")
}

func (d *testModule) Start() error {
	time.Sleep(time.Duration(rand.Int63n(int64(20 * time.Millisecond))))
	if d.startErr != nil {
		return d.startErr
	}
	d.rec.add(&d.rec.started, d.Name())
	return nil
}

func (d *testModule) Stop() error {
	d.rec.add(&d.rec.stopped, d.Name())
	return nil
}

func newTestLoader(modules ...*testModule) *Loader {
	_loader = &Loader{
		modules: Modules{},
		log:     log.NewLogger("greeter/loader"),
	}
	for _, m := range modules {
		Register(m)
	}
	return _loader
}

func indexOf(list []string, name string) int {
	for i, v := range list {
		if v == name {
			return i
		}
	}
	return -1
}

func TestLoaderIndependent(t *testing.T) {
	rec := &recorder{}
	newTestLoader(
		newTestModule("1", "", rec),
		newTestModule("2", "", rec),
		newTestModule("3", "", rec),
	)
	require.NoError(t, StartAll())
	assert.ElementsMatch(t, []string{"1", "2", "3"}, rec.started)
}

func TestLoaderChain(t *testing.T) {
	rec := &recorder{}
	newTestLoader(
		newTestModule("1", "2", rec),
		newTestModule("2", "3", rec),
		newTestModule("3", "4", rec),
		newTestModule("4", "5", rec),
		newTestModule("5", "6", rec),
		newTestModule("6", "", rec),
	)
	require.NoError(t, EnableModules([]string{"1"}, nil, EnableFlagNone))
	assert.Equal(t, []string{"6", "5", "4", "3", "2", "1"}, rec.started)

	require.NoError(t, StopAll())
	assert.Equal(t, []string{"1", "2", "3", "4", "5", "6"}, rec.stopped)
}

func TestLoaderDependencyOrder(t *testing.T) {
	rec := &recorder{}
	newTestLoader(
		newTestModule("greeter", "localisation gdm", rec),
		newTestModule("localisation", "keyboard accounts", rec),
		newTestModule("keyboard", "", rec),
		newTestModule("accounts", "", rec),
		newTestModule("gdm", "", rec),
	)
	require.NoError(t, StartAll())
	require.Len(t, rec.started, 5)
	assert.Less(t, indexOf(rec.started, "keyboard"), indexOf(rec.started, "localisation"))
	assert.Less(t, indexOf(rec.started, "accounts"), indexOf(rec.started, "localisation"))
	assert.Less(t, indexOf(rec.started, "localisation"), indexOf(rec.started, "greeter"))
	assert.Less(t, indexOf(rec.started, "gdm"), indexOf(rec.started, "greeter"))
}

func TestLoaderCircle(t *testing.T) {
	rec := &recorder{}
	newTestLoader(
		newTestModule("1", "2", rec),
		newTestModule("2", "3", rec),
		newTestModule("3", "1", rec),
	)
	err := StartAll()
	var enableErr *EnableError
	require.True(t, errors.As(err, &enableErr))
	assert.Equal(t, ErrorCircleDependencies, enableErr.Code)
	assert.Empty(t, rec.started)
}

func TestLoaderMissing(t *testing.T) {
	rec := &recorder{}
	newTestLoader(newTestModule("1", "nope", rec))

	err := EnableModules([]string{"1"}, nil, EnableFlagNone)
	var enableErr *EnableError
	require.True(t, errors.As(err, &enableErr))
	assert.Equal(t, ErrorMissingModule, enableErr.Code)
	assert.Equal(t, "nope", enableErr.ModuleName)

	require.NoError(t, EnableModules([]string{"1", "other"}, nil, EnableFlagIgnoreMissingModule))
	assert.Equal(t, []string{"1"}, rec.started)
}

func TestLoaderConflict(t *testing.T) {
	rec := &recorder{}
	newTestLoader(
		newTestModule("1", "2", rec),
		newTestModule("2", "", rec),
	)
	err := EnableModules([]string{"1"}, []string{"2"}, EnableFlagNone)
	var enableErr *EnableError
	require.True(t, errors.As(err, &enableErr))
	assert.Equal(t, ErrorConflict, enableErr.Code)

	require.NoError(t, EnableModules([]string{"1"}, []string{"2"}, EnableFlagForceStart))
	assert.Equal(t, []string{"2", "1"}, rec.started)
}

func TestLoaderFailedDependency(t *testing.T) {
	rec := &recorder{}
	broken := newTestModule("2", "", rec)
	broken.startErr = errors.New("no display")
	newTestLoader(
		newTestModule("1", "2", rec),
		broken,
		newTestModule("3", "", rec),
	)

	err := StartAll()
	require.Error(t, err)
	assert.Equal(t, []string{"3"}, rec.started)
	assert.Error(t, GetModule("1").WaitEnable())
	assert.False(t, GetModule("1").IsEnable())

	require.NoError(t, StopAll())
	assert.Equal(t, []string{"3"}, rec.stopped)
}
