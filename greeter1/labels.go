// SPDX-FileCopyrightText: 2012 - 2026 Tails developers <tails@boum.org>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package greeter

import "gitlab.tails.boum.org/tails/greeter/i18n"

var labels = []i18n.Label{
	{ID: "welcome", Source: "Welcome to Tails!"},
	{ID: "language", Source: "Language"},
	{ID: "keyboard", Source: "Keyboard Layout"},
	{ID: "formats", Source: "Formats"},
	{ID: "persistence", Source: "Encrypted Persistent Storage"},
	{ID: "passphrase", Source: "Passphrase"},
	{ID: "unlock", Source: "Unlock"},
	{ID: "read_only", Source: "Read-Only"},
	{ID: "additional_settings", Source: "Additional Settings"},
	{ID: "admin_password", Source: "Administration Password"},
	{ID: "confirm_password", Source: "Confirm"},
	{ID: "camouflage", Source: "Windows Camouflage"},
	{ID: "mac_spoofing", Source: "MAC Address Spoofing"},
	{ID: "start", Source: "Start Tails"},
	{ID: "help", Source: "Help"},
}

func newTranslatable(localeDir string) *i18n.Translatable {
	if localeDir == "" {
		localeDir = i18n.DefaultLocaleDir
	}
	t := i18n.NewTranslatable(i18n.DefaultDomain, localeDir)
	for _, l := range labels {
		t.Add(l.ID, l.Source)
	}
	return t
}
