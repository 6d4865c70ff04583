// SPDX-FileCopyrightText: 2012 - 2026 Tails developers <tails@boum.org>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package keyboard

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetxkbmapArgs(t *testing.T) {
	tests := []struct {
		name string
		rec  ConfigRec
		want []string
	}{
		{
			name: "us only",
			rec:  ConfigRec{Layouts: []string{"us"}, Variants: []string{""}, Options: []string{ToggleOption}},
			want: []string{"-model", "pc105", "-layout", "us", "-variant", "", "-option", "grp:alt_shift_toggle"},
		},
		{
			name: "us and fr",
			rec: ConfigRec{Model: "pc104", Layouts: []string{"us", "fr"}, Variants: []string{"", "azerty"},
				Options: []string{ToggleOption}},
			want: []string{"-model", "pc104", "-layout", "us,fr", "-variant", ",azerty", "-option", "grp:alt_shift_toggle"},
		},
		{
			name: "shell metacharacters",
			rec:  ConfigRec{Layouts: []string{"us", "$(id)"}, Variants: []string{"", "`id`;id"}},
			want: []string{"-model", "pc105", "-layout", "us,$(id)", "-variant", ",`id`;id"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, setxkbmapArgs(&tt.rec))
		})
	}
}

type command struct {
	name string
	args []string
}

func TestX11EngineActivate(t *testing.T) {
	var cmds []command
	e := &X11Engine{runCommand: func(name string, args ...string) error {
		cmds = append(cmds, command{name: name, args: args})
		return nil
	}}
	err := e.Activate(&ConfigRec{Layouts: []string{"us"}, Variants: []string{""}})
	assert.NoError(t, err)
	assert.Equal(t, []command{
		{name: cmdSetKbd, args: []string{"-option"}},
		{name: cmdSetKbd, args: []string{"-model", "pc105", "-layout", "us", "-variant", ""}},
	}, cmds)

	e.runCommand = func(name string, args ...string) error { return errors.New("boom") }
	assert.Error(t, e.Activate(&ConfigRec{Layouts: []string{"us"}}))
}

func TestDoActionWithoutShell(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "marker")
	// a shell would run the touch and create the marker
	err := doAction("/bin/echo", "$(touch "+marker+")")
	assert.NoError(t, err)
	assert.NoFileExists(t, marker)

	assert.Error(t, doAction("/bin/false"))
}

func TestValidCode(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"us", true},
		{"fr/azerty", true},
		{"us/dvorak-intl", true},
		{"de/mac_nodeadkeys", true},
		{"", false},
		{"fr/", false},
		{"us/a/b", false},
		{"us;id", false},
		{"$(id)", false},
		{"us,fr", false},
		{"fr azerty", false},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidCode(tt.code))
		})
	}
}

func TestX11EngineWithoutDisplay(t *testing.T) {
	e := &X11Engine{}
	_, err := e.CurrentGroup()
	assert.Equal(t, errNoXConn, err)
	assert.Error(t, e.LockGroup(1))
}
