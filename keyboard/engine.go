// SPDX-FileCopyrightText: 2012 - 2026 Tails developers <tails@boum.org>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package keyboard

import (
	"errors"
	"fmt"
	"strings"

	"github.com/davecgh/go-spew/spew"
	x "github.com/linuxdeepin/go-x11-client"
	"github.com/linuxdeepin/go-x11-client/ext/test"
	"github.com/linuxdeepin/go-x11-client/util/keysyms"
	"golang.org/x/xerrors"
)

const (
	cmdSetKbd = "/usr/bin/setxkbmap"

	DefaultModel   = "pc105"
	ToggleOption   = "grp:alt_shift_toggle"
	maxGroupToggle = 4
)

// ConfigRec is the keyboard configuration pushed to the X server. Layouts and
// Variants are parallel lists.
type ConfigRec struct {
	Model    string
	Layouts  []string
	Variants []string
	Options  []string
}

// Engine is the live keyboard engine of the greeter display.
type Engine interface {
	// Activate makes rec the current configuration, the first listed
	// layout becomes the current group.
	Activate(rec *ConfigRec) error
	// LockGroup switches to the group-th layout of the active record.
	LockGroup(group int) error
	// CurrentGroup returns the index of the active layout.
	CurrentGroup() (int, error)
}

type X11Engine struct {
	conn       *x.Conn
	keySymbols *keysyms.KeySymbols
	runCommand func(name string, args ...string) error
}

// NewX11Engine connects to the X display. The connection is only needed for
// the group state; Activate works without it.
func NewX11Engine() (*X11Engine, error) {
	conn, err := x.NewConn()
	if err != nil {
		return nil, err
	}
	return &X11Engine{
		conn:       conn,
		keySymbols: keysyms.NewKeySymbols(conn),
		runCommand: doAction,
	}, nil
}

func (e *X11Engine) Close() {
	if e.conn != nil {
		e.conn.Close()
	}
}

func (e *X11Engine) Activate(rec *ConfigRec) error {
	logger.Debug("activate", spew.Sdump(rec))
	err := e.runCommand(cmdSetKbd, "-option")
	if err != nil {
		return xerrors.Errorf("clear keymap options: %w", err)
	}
	err = e.runCommand(cmdSetKbd, setxkbmapArgs(rec)...)
	if err != nil {
		return xerrors.Errorf("apply keymap: %w", err)
	}
	return nil
}

func setxkbmapArgs(rec *ConfigRec) []string {
	model := rec.Model
	if model == "" {
		model = DefaultModel
	}
	args := []string{
		"-model", model,
		"-layout", strings.Join(rec.Layouts, ","),
		"-variant", strings.Join(rec.Variants, ","),
	}
	for _, opt := range rec.Options {
		if opt == "" {
			continue
		}
		args = append(args, "-option", opt)
	}
	return args
}

var errNoXConn = errors.New("no X connection")

func (e *X11Engine) CurrentGroup() (int, error) {
	if e.conn == nil {
		return 0, errNoXConn
	}
	rootWin := e.conn.GetDefaultScreen().Root
	reply, err := x.QueryPointer(e.conn, rootWin).Reply(e.conn)
	if err != nil {
		return 0, err
	}
	// core protocol state: the group index lives in bits 13 and 14
	return int(reply.Mask>>13) & 0x3, nil
}

func (e *X11Engine) LockGroup(group int) error {
	for i := 0; i < maxGroupToggle; i++ {
		current, err := e.CurrentGroup()
		if err != nil {
			return err
		}
		if current == group {
			return nil
		}
		logger.Debugf("group is %d, want %d", current, group)
		err = e.toggleGroup()
		if err != nil {
			return err
		}
	}
	return fmt.Errorf("failed to lock keyboard group %d", group)
}

// toggleGroup presses the Alt+Shift group toggle once.
func (e *X11Engine) toggleGroup() error {
	shift, err := e.firstKeycode("Shift_L")
	if err != nil {
		return err
	}
	alt, err := e.firstKeycode("Alt_L")
	if err != nil {
		return err
	}
	steps := []struct {
		ev   byte
		code x.Keycode
	}{
		{x.KeyPressEventCode, shift},
		{x.KeyPressEventCode, alt},
		{x.KeyReleaseEventCode, alt},
		{x.KeyReleaseEventCode, shift},
	}
	rootWin := e.conn.GetDefaultScreen().Root
	for _, step := range steps {
		err = test.FakeInputChecked(e.conn, step.ev, byte(step.code), x.TimeCurrentTime,
			rootWin, 0, 0, 0).Check(e.conn)
		if err != nil {
			return err
		}
	}
	return nil
}

func (e *X11Engine) firstKeycode(str string) (x.Keycode, error) {
	codes, err := e.keySymbols.StringToKeycodes(str)
	if err != nil {
		return 0, err
	}
	if len(codes) == 0 {
		return 0, fmt.Errorf("no keycode for %s", str)
	}
	return codes[0], nil
}
