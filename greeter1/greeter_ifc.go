// SPDX-FileCopyrightText: 2012 - 2026 Tails developers <tails@boum.org>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package greeter

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"
	"github.com/linuxdeepin/go-lib/dbusutil"
	"github.com/linuxdeepin/go-lib/strv"

	"gitlab.tails.boum.org/tails/greeter/keyboard"
	"gitlab.tails.boum.org/tails/greeter/localisation"
)

const (
	dbusServiceName = "org.boum.tails.Greeter1"
	dbusPath        = "/org/boum/tails/Greeter1"
	dbusInterface   = dbusServiceName
)

func (*Greeter) GetInterfaceName() string {
	return dbusInterface
}

// GetLanguages returns every language supported by the system with its
// native name.
func (g *Greeter) GetLanguages() (languages []localisation.NamedCode, busErr *dbus.Error) {
	return g.c.Settings.LanguagesWithNames(), nil
}

// GetDefaultLanguages returns the languages of the main menu.
func (g *Greeter) GetDefaultLanguages() (languages []localisation.NamedCode, busErr *dbus.Error) {
	return g.c.Settings.DefaultLanguagesWithNames(), nil
}

func (g *Greeter) SetLanguage(lang string) *dbus.Error {
	if !strv.Strv(g.c.Settings.Languages()).Contains(lang) {
		return dbusutil.ToError(fmt.Errorf("invalid language: %q", lang))
	}
	logger.Debugf("SetLanguage %q", lang)
	g.c.Settings.SetLanguage(lang)
	return nil
}

// GetLocales returns the locales of the current language, named after their
// country.
func (g *Greeter) GetLocales() (locales []localisation.NamedCode, busErr *dbus.Error) {
	return g.c.Settings.DefaultLocalesWithNames(), nil
}

func (g *Greeter) SetLocale(locale string) *dbus.Error {
	if !strv.Strv(g.c.Settings.Locales()).Contains(locale) {
		return dbusutil.ToError(fmt.Errorf("invalid locale: %q", locale))
	}
	logger.Debugf("SetLocale %q", locale)
	g.c.Settings.SetLocale(locale)
	return nil
}

// GetLayouts returns the keyboard layouts of the current language.
func (g *Greeter) GetLayouts() (layouts []localisation.NamedCode, busErr *dbus.Error) {
	return g.c.Settings.DefaultLayoutsWithNames(), nil
}

// GetAllLayouts returns every layout and variant of the keyboard registry.
func (g *Greeter) GetAllLayouts() (layouts []localisation.NamedCode, busErr *dbus.Error) {
	return g.c.Settings.LayoutsWithNames(), nil
}

// SetLayout selects a "layout" or "layout/variant" code.
func (g *Greeter) SetLayout(code string) *dbus.Error {
	var valid bool
	if g.c.Registry != nil {
		_, valid = g.c.Registry.Get(code)
	} else {
		valid = keyboard.ValidCode(code)
	}
	if !valid {
		return dbusutil.ToError(fmt.Errorf("invalid layout: %q", code))
	}
	g.c.Settings.SetLayout(code)
	g.syncSelection()
	return nil
}

func (g *Greeter) GetLayoutIndicator() (indicator string, busErr *dbus.Error) {
	return g.layoutIndicator(), nil
}

func (g *Greeter) ListPersistenceContainers() (devices []string, busErr *dbus.Error) {
	if g.c.Persistence == nil {
		return nil, dbusutil.ToError(errNoPersistence)
	}
	devices, err := g.c.Persistence.ListContainers(context.Background())
	if err != nil {
		return nil, dbusutil.ToError(err)
	}
	return devices, nil
}

func (g *Greeter) ActivatePersistence(device, passphrase string, readOnly bool) *dbus.Error {
	err := g.activatePersistence(device, passphrase, readOnly)
	return dbusutil.ToError(err)
}

// SetOptions applies the additional settings: the administration password,
// the Windows camouflage and MAC address spoofing.
func (g *Greeter) SetOptions(password, confirm string, camouflage, macSpoof bool) *dbus.Error {
	err := g.setOptions(password, confirm, camouflage, macSpoof)
	return dbusutil.ToError(err)
}

func (g *Greeter) Login() *dbus.Error {
	err := g.login()
	return dbusutil.ToError(err)
}

// Translate returns the greeter labels translated to lang, by label id.
func (g *Greeter) Translate(lang string) (texts map[string]string, busErr *dbus.Error) {
	if g.c.Translatable == nil {
		return map[string]string{}, nil
	}
	return g.c.Translatable.Translate(lang), nil
}

func (g *Greeter) GetHelpURI(page string) (uri string, busErr *dbus.Error) {
	return g.c.HelpBaseURI + page, nil
}

func (g *Greeter) GetExportedMethods() dbusutil.ExportedMethods {
	return dbusutil.ExportedMethods{
		{
			Name:    "GetLanguages",
			Fn:      g.GetLanguages,
			OutArgs: []string{"languages"},
		},
		{
			Name:    "GetDefaultLanguages",
			Fn:      g.GetDefaultLanguages,
			OutArgs: []string{"languages"},
		},
		{
			Name:   "SetLanguage",
			Fn:     g.SetLanguage,
			InArgs: []string{"lang"},
		},
		{
			Name:    "GetLocales",
			Fn:      g.GetLocales,
			OutArgs: []string{"locales"},
		},
		{
			Name:   "SetLocale",
			Fn:     g.SetLocale,
			InArgs: []string{"locale"},
		},
		{
			Name:    "GetLayouts",
			Fn:      g.GetLayouts,
			OutArgs: []string{"layouts"},
		},
		{
			Name:    "GetAllLayouts",
			Fn:      g.GetAllLayouts,
			OutArgs: []string{"layouts"},
		},
		{
			Name:   "SetLayout",
			Fn:     g.SetLayout,
			InArgs: []string{"code"},
		},
		{
			Name:    "GetLayoutIndicator",
			Fn:      g.GetLayoutIndicator,
			OutArgs: []string{"indicator"},
		},
		{
			Name:    "ListPersistenceContainers",
			Fn:      g.ListPersistenceContainers,
			OutArgs: []string{"devices"},
		},
		{
			Name:   "ActivatePersistence",
			Fn:     g.ActivatePersistence,
			InArgs: []string{"device", "passphrase", "readOnly"},
		},
		{
			Name:   "SetOptions",
			Fn:     g.SetOptions,
			InArgs: []string{"password", "confirm", "camouflage", "macSpoof"},
		},
		{
			Name: "Login",
			Fn:   g.Login,
		},
		{
			Name:    "Translate",
			Fn:      g.Translate,
			InArgs:  []string{"lang"},
			OutArgs: []string{"texts"},
		},
		{
			Name:    "GetHelpURI",
			Fn:      g.GetHelpURI,
			InArgs:  []string{"page"},
			OutArgs: []string{"uri"},
		},
	}
}
