// SPDX-FileCopyrightText: 2012 - 2026 Tails developers <tails@boum.org>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package greeter

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.tails.boum.org/tails/greeter/common/envfile"
	"gitlab.tails.boum.org/tails/greeter/gdm"
	"gitlab.tails.boum.org/tails/greeter/keyboard"
	"gitlab.tails.boum.org/tails/greeter/localisation"
)

type fakeRegistry map[string][]string

func (r fakeRegistry) LayoutsByLanguage(code string) []string {
	return r[code]
}

func (r fakeRegistry) Layouts() []string {
	return []string{"us", "gb", "fr", "fr/azerty", "be"}
}

func (r fakeRegistry) Description(code string) (string, bool) {
	return "", false
}

type fakeEngine struct {
	group int
}

func (e *fakeEngine) Activate(rec *keyboard.ConfigRec) error {
	e.group = 0
	return nil
}

func (e *fakeEngine) LockGroup(group int) error {
	e.group = group
	return nil
}

func (e *fakeEngine) CurrentGroup() (int, error) {
	return e.group, nil
}

type fakeGDM struct {
	languages    []string
	logins       int
	sessionNames int
	err          error
}

func (f *fakeGDM) SelectLanguage(locale string) error {
	f.languages = append(f.languages, locale)
	return f.err
}

func (f *fakeGDM) Login() error {
	f.logins++
	return f.err
}

func (f *fakeGDM) DefaultSessionName() string {
	f.sessionNames++
	return "gnome"
}

type fakePersistence struct {
	devices   []string
	activated []string
	active    bool
	err       error
}

func (f *fakePersistence) ListContainers(ctx context.Context) ([]string, error) {
	return f.devices, f.err
}

func (f *fakePersistence) Activate(ctx context.Context, device, passphrase string, readOnly bool) error {
	if f.err != nil {
		return f.err
	}
	f.activated = append(f.activated, device)
	f.active = true
	return nil
}

func (f *fakePersistence) IsActive() (bool, bool) {
	return f.active, false
}

type fakeRootAccess struct {
	password string
	set      bool
	finished int
}

func (f *fakeRootAccess) SetPassword(password string) {
	f.password = password
	f.set = true
}

func (f *fakeRootAccess) Finish() error {
	f.finished++
	return nil
}

type fakeCamouflage struct {
	calls []string
}

func (f *fakeCamouflage) SetOS(name string) error {
	f.calls = append(f.calls, name)
	return nil
}

type fakeMacSpoof struct {
	enabled bool
	calls   []bool
}

func (f *fakeMacSpoof) MacSpoof() bool {
	return f.enabled
}

func (f *fakeMacSpoof) SetMacSpoof(enabled bool) error {
	f.calls = append(f.calls, enabled)
	f.enabled = enabled
	return nil
}

type fakeTranslator struct {
	langs []string
}

func (f *fakeTranslator) Translate(lang string) map[string]string {
	f.langs = append(f.langs, lang)
	return map[string]string{"start": "start-" + lang}
}

type fixture struct {
	g           *Greeter
	gdm         *fakeGDM
	persistence *fakePersistence
	root        *fakeRootAccess
	camouflage  *fakeCamouflage
	macSpoof    *fakeMacSpoof
	translator  *fakeTranslator
	engine      *fakeEngine
	sessionFile string
}

func newFixture(t *testing.T) *fixture {
	f := &fixture{
		gdm:         &fakeGDM{},
		persistence: &fakePersistence{devices: []string{"/dev/sdb2"}},
		root:        &fakeRootAccess{},
		camouflage:  &fakeCamouflage{},
		macSpoof:    &fakeMacSpoof{enabled: true},
		translator:  &fakeTranslator{},
		engine:      &fakeEngine{},
		sessionFile: filepath.Join(t.TempDir(), "tails.locale"),
	}
	settings := localisation.NewSettings(localisation.Deps{
		SystemLocales:  []string{"en_US", "en_GB", "fr_FR", "fr_BE", "de_DE"},
		DefaultLocales: []string{"en_US", "fr_FR"},
		Registry: fakeRegistry{
			"eng": {"us", "gb"},
			"fra": {"fr", "be"},
		},
		Engine:      f.engine,
		SessionFile: f.sessionFile,
	})
	f.g = newGreeter(nil, Components{
		Settings:     settings,
		Engine:       f.engine,
		GDM:          f.gdm,
		Persistence:  f.persistence,
		RootAccess:   f.root,
		Camouflage:   f.camouflage,
		MacSpoof:     f.macSpoof,
		Translatable: f.translator,
		CamouflageOS: "winxp",
		HelpBaseURI:  "file:///usr/share/doc/tails/website/",
	})
	return f
}

func TestUserLoaded(t *testing.T) {
	f := newFixture(t)
	assert.False(t, f.g.Ready)

	f.g.handleUserLoaded()

	assert.True(t, f.g.Ready)
	assert.Equal(t, "en", f.g.CurrentLanguage)
	assert.Equal(t, "en_US", f.g.CurrentLocale)
	assert.Equal(t, "us", f.g.CurrentLayout)
	assert.Equal(t, "", f.g.CurrentVariant)
	assert.Equal(t, []string{"en_US"}, f.gdm.languages)
	assert.Equal(t, []string{"en"}, f.translator.langs)
	assert.Equal(t, "start-en", f.g.Translations()["start"])
}

func TestSetLocale(t *testing.T) {
	f := newFixture(t)

	busErr := f.g.SetLocale("fr_BE")
	require.Nil(t, busErr)
	assert.Equal(t, "fr", f.g.CurrentLanguage)
	assert.Equal(t, "fr_BE", f.g.CurrentLocale)
	assert.Equal(t, "be", f.g.CurrentLayout)
	assert.Equal(t, []string{"fr_BE"}, f.gdm.languages)

	busErr = f.g.SetLocale("xx_YY")
	assert.NotNil(t, busErr)
	assert.Equal(t, "fr_BE", f.g.CurrentLocale)
}

func TestSetLanguage(t *testing.T) {
	f := newFixture(t)

	busErr := f.g.SetLanguage("fr")
	require.Nil(t, busErr)
	assert.Equal(t, "fr_FR", f.g.CurrentLocale)
	assert.Equal(t, "fr", f.g.CurrentLayout)

	assert.NotNil(t, f.g.SetLanguage("ja"))
}

func TestSelectLanguageNotReady(t *testing.T) {
	f := newFixture(t)
	f.gdm.err = gdm.ErrNotReady

	busErr := f.g.SetLocale("de_DE")
	require.Nil(t, busErr)
	assert.Equal(t, "de_DE", f.g.CurrentLocale)
	assert.Equal(t, []string{"de_DE"}, f.gdm.languages)
}

func TestSetLayout(t *testing.T) {
	f := newFixture(t)

	require.Nil(t, f.g.SetLayout("fr/azerty"))
	assert.Equal(t, "fr", f.g.CurrentLayout)
	assert.Equal(t, "azerty", f.g.CurrentVariant)

	env, err := envfile.Load(f.sessionFile)
	require.NoError(t, err)
	assert.Equal(t, "us,fr", env["TAILS_XKBLAYOUT"])
	assert.Equal(t, "azerty,", env["TAILS_XKBVARIANT"])

	indicator, busErr := f.g.GetLayoutIndicator()
	require.Nil(t, busErr)
	assert.Equal(t, "FR", indicator)

	require.Nil(t, f.g.SetLayout("us"))
	assert.Equal(t, "us", f.g.CurrentLayout)
	assert.Equal(t, "", f.g.CurrentVariant)
}

func TestSetLayoutRejectsMalformedCode(t *testing.T) {
	f := newFixture(t)
	require.Nil(t, f.g.SetLayout("fr/azerty"))

	for _, code := range []string{"", "us;id", "$(id)", "fr/azerty/x", "us,fr", "fr azerty"} {
		assert.NotNil(t, f.g.SetLayout(code), code)
	}
	assert.Equal(t, "fr", f.g.CurrentLayout)
	assert.Equal(t, "azerty", f.g.CurrentVariant)
	env, err := envfile.Load(f.sessionFile)
	require.NoError(t, err)
	assert.Equal(t, "us,fr", env["TAILS_XKBLAYOUT"])
}

func TestSetOptions(t *testing.T) {
	tests := []struct {
		name       string
		password   string
		confirm    string
		camouflage bool
		macSpoof   bool
		wantErr    bool
		wantOS     string
	}{
		{name: "defaults", wantOS: ""},
		{name: "password and camouflage", password: "secret", confirm: "secret",
			camouflage: true, macSpoof: true, wantOS: "winxp"},
		{name: "mismatch", password: "secret", confirm: "other", wantErr: true},
		{name: "missing confirmation", password: "secret", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			busErr := f.g.SetOptions(tt.password, tt.confirm, tt.camouflage, tt.macSpoof)
			if tt.wantErr {
				assert.NotNil(t, busErr)
				assert.False(t, f.root.set)
				assert.Empty(t, f.camouflage.calls)
				assert.Empty(t, f.macSpoof.calls)
				assert.True(t, f.g.MacSpoof)
				return
			}
			require.Nil(t, busErr)
			assert.Equal(t, tt.password, f.root.password)
			assert.Equal(t, []string{tt.wantOS}, f.camouflage.calls)
			assert.Equal(t, []bool{tt.macSpoof}, f.macSpoof.calls)
			assert.Equal(t, tt.macSpoof, f.g.MacSpoof)
		})
	}
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	require.Nil(t, f.g.Login())
	assert.Equal(t, 1, f.gdm.logins)

	f.gdm.err = gdm.ErrNotReady
	assert.NotNil(t, f.g.Login())

	g := newGreeter(nil, Components{Settings: localisation.NewSettings(localisation.Deps{})})
	assert.True(t, errors.Is(g.login(), errNoGDM))
}

func TestActivatePersistence(t *testing.T) {
	f := newFixture(t)

	devices, busErr := f.g.ListPersistenceContainers()
	require.Nil(t, busErr)
	assert.Equal(t, []string{"/dev/sdb2"}, devices)

	assert.NotNil(t, f.g.ActivatePersistence("/dev/sdb2", "", false))
	assert.Empty(t, f.persistence.activated)
	assert.False(t, f.g.PersistenceActivated)

	require.Nil(t, f.g.ActivatePersistence("/dev/sdb2", "passphrase", false))
	assert.Equal(t, []string{"/dev/sdb2"}, f.persistence.activated)
	assert.True(t, f.g.PersistenceActivated)
}

func TestActivatePersistenceFailure(t *testing.T) {
	f := newFixture(t)
	f.persistence.err = errors.New("wrong passphrase")

	assert.NotNil(t, f.g.ActivatePersistence("/dev/sdb2", "passphrase", true))
	assert.False(t, f.g.PersistenceActivated)
}

func TestSessionOpened(t *testing.T) {
	f := newFixture(t)
	f.g.handleUserLoaded()
	require.Nil(t, f.g.SetOptions("secret", "secret", false, true))
	require.Nil(t, f.g.Login())

	f.g.handleSessionOpened(gdm.AutologinService)
	f.g.handleSessionOpened(gdm.AutologinService)

	assert.Equal(t, 1, f.root.finished)
	assert.Equal(t, 1, f.gdm.sessionNames)
	env, err := envfile.Load(f.sessionFile)
	require.NoError(t, err)
	assert.Equal(t, "en_US", env["TAILS_LOCALE_NAME"])
	assert.Equal(t, "us", env["TAILS_XKBLAYOUT"])
}

func TestMacSpoofFollowsDetection(t *testing.T) {
	f := newFixture(t)
	assert.True(t, f.g.MacSpoof)

	f.g.handleMacSpoofChanged(false)
	assert.False(t, f.g.MacSpoof)

	g := newGreeter(nil, Components{
		Settings: localisation.NewSettings(localisation.Deps{}),
		MacSpoof: &fakeMacSpoof{enabled: false},
	})
	assert.False(t, g.MacSpoof)
}

func TestTranslateAndHelp(t *testing.T) {
	f := newFixture(t)

	texts, busErr := f.g.Translate("de")
	require.Nil(t, busErr)
	assert.Equal(t, "start-de", texts["start"])

	uri, busErr := f.g.GetHelpURI("doc/first_steps")
	require.Nil(t, busErr)
	assert.Equal(t, "file:///usr/share/doc/tails/website/doc/first_steps", uri)
}

func TestGetExportedMethods(t *testing.T) {
	f := newFixture(t)
	var names []string
	for _, m := range f.g.GetExportedMethods() {
		names = append(names, m.Name)
	}
	assert.Subset(t, names, []string{
		"GetLanguages", "GetDefaultLanguages", "SetLanguage",
		"GetLocales", "SetLocale", "GetLayouts", "SetLayout", "GetLayoutIndicator",
		"ListPersistenceContainers", "ActivatePersistence",
		"SetOptions", "Login", "Translate", "GetHelpURI",
	})
	assert.Equal(t, dbusInterface, f.g.GetInterfaceName())
}
