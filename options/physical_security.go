// SPDX-FileCopyrightText: 2012 - 2026 Tails developers <tails@boum.org>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package options

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/jouyouyun/hardware/dmi"

	"gitlab.tails.boum.org/tails/greeter/common/envfile"
)

var hypervisorNames = []string{
	"virtualbox", "innotek", "vmware", "qemu", "kvm", "bochs", "xen",
	"parallels", "virtual machine",
}

// PhysicalSecurity stores whether MAC addresses are spoofed. Spoofing is on
// by default, except in a virtual machine.
type PhysicalSecurity struct {
	filename string
	vmFile   string
	getDMI   func() (*dmi.DMI, error)

	mu        sync.Mutex
	macSpoof  bool
	userSet   bool
	changedCb func(macSpoof bool)

	watcher *fsnotify.Watcher
	quit    chan struct{}
	wg      sync.WaitGroup
}

// NewPhysicalSecurity detects the default and writes it to filename.
func NewPhysicalSecurity(filename, vmFile string) (*PhysicalSecurity, error) {
	p := &PhysicalSecurity{
		filename: filename,
		vmFile:   vmFile,
		getDMI:   dmi.GetDMI,
	}
	return p, p.init()
}

func (p *PhysicalSecurity) init() error {
	p.macSpoof = !p.insideVirtualMachine()
	return p.writeSettings(p.macSpoof)
}

func (p *PhysicalSecurity) MacSpoof() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.macSpoof
}

// SetMacSpoof records the choice of the user, later detections no longer
// change it.
func (p *PhysicalSecurity) SetMacSpoof(enabled bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.userSet = true
	p.macSpoof = enabled
	return p.writeSettings(enabled)
}

// SetChangedCallback sets the function called when the detected default
// changes.
func (p *PhysicalSecurity) SetChangedCallback(fn func(macSpoof bool)) {
	p.mu.Lock()
	p.changedCb = fn
	p.mu.Unlock()
}

func (p *PhysicalSecurity) writeSettings(macSpoof bool) error {
	err := envfile.New().
		SetQuoted("TAILS_MACSPOOF_ENABLED", strconv.FormatBool(macSpoof)).
		Save(p.filename)
	if err != nil {
		return err
	}
	logger.Debug("physical security settings written to", p.filename)
	return nil
}

func (p *PhysicalSecurity) insideVirtualMachine() bool {
	content, err := os.ReadFile(p.vmFile)
	if err == nil {
		return strings.TrimSpace(string(content)) != ""
	}
	if !os.IsNotExist(err) {
		logger.Warning(err)
	}

	if p.getDMI == nil {
		return false
	}
	info, err := p.getDMI()
	if err != nil {
		logger.Warning("failed to read DMI:", err)
		return false
	}
	return isHypervisor(info)
}

func isHypervisor(info *dmi.DMI) bool {
	for _, field := range []string{info.ProductName, info.BoardVendor, info.BiosVendor} {
		field = strings.ToLower(field)
		for _, name := range hypervisorNames {
			if strings.Contains(field, name) {
				logger.Debugf("DMI %q names a hypervisor", field)
				return true
			}
		}
	}
	return false
}

// redetect updates the default from the detection file, unless the user
// already chose.
func (p *PhysicalSecurity) redetect() {
	macSpoof := !p.insideVirtualMachine()

	p.mu.Lock()
	if p.userSet || macSpoof == p.macSpoof {
		p.mu.Unlock()
		return
	}
	p.macSpoof = macSpoof
	err := p.writeSettings(macSpoof)
	cb := p.changedCb
	p.mu.Unlock()

	if err != nil {
		logger.Warning(err)
	}
	logger.Info("MAC spoofing default changed to", macSpoof)
	if cb != nil {
		cb(macSpoof)
	}
}

// StartWatch follows the virtual machine detection file.
func (p *PhysicalSecurity) StartWatch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	err = watcher.Add(filepath.Dir(p.vmFile))
	if err != nil {
		_ = watcher.Close()
		return err
	}
	p.watcher = watcher
	p.quit = make(chan struct{})
	p.wg.Add(1)
	go p.watchLoop()
	return nil
}

func (p *PhysicalSecurity) watchLoop() {
	defer p.wg.Done()
	for {
		select {
		case <-p.quit:
			return
		case err, ok := <-p.watcher.Errors:
			if !ok {
				return
			}
			logger.Warning("file watcher error:", err)
		case ev, ok := <-p.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != filepath.Clean(p.vmFile) {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			logger.Debug("detection file event:", ev)
			p.redetect()
		}
	}
}

func (p *PhysicalSecurity) StopWatch() error {
	if p.watcher == nil {
		return nil
	}
	close(p.quit)
	err := p.watcher.Close()
	p.wg.Wait()
	p.watcher = nil
	return err
}
