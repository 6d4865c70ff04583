// SPDX-FileCopyrightText: 2012 - 2026 Tails developers <tails@boum.org>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package greeter

import (
	"context"
	"errors"
	"sync"

	"github.com/linuxdeepin/go-lib/dbusutil"
	"github.com/linuxdeepin/go-lib/multierr"
	"golang.org/x/xerrors"

	"gitlab.tails.boum.org/tails/greeter/gdm"
	"gitlab.tails.boum.org/tails/greeter/keyboard"
	"gitlab.tails.boum.org/tails/greeter/localisation"
	"gitlab.tails.boum.org/tails/greeter/validate"
)

// loginServer is the part of the GDM client the greeter drives.
type loginServer interface {
	SelectLanguage(locale string) error
	Login() error
	DefaultSessionName() string
}

type persistenceBackend interface {
	ListContainers(ctx context.Context) ([]string, error)
	Activate(ctx context.Context, device, passphrase string, readOnly bool) error
	IsActive() (active, readOnly bool)
}

type rootPassword interface {
	SetPassword(password string)
	Finish() error
}

type camouflageSetter interface {
	SetOS(name string) error
}

type macSpoofer interface {
	MacSpoof() bool
	SetMacSpoof(enabled bool) error
}

type translator interface {
	Translate(lang string) map[string]string
}

// Components are the models the greeter ties together. Any of them but
// Settings may be nil.
type Components struct {
	Settings     *localisation.Settings
	Registry     *keyboard.Registry
	Engine       keyboard.Engine
	GDM          loginServer
	Persistence  persistenceBackend
	RootAccess   rootPassword
	Camouflage   camouflageSetter
	MacSpoof     macSpoofer
	Translatable translator

	CamouflageOS string
	HelpBaseURI  string
}

type Greeter struct {
	service *dbusutil.Service
	c       Components

	mu           sync.Mutex
	translations map[string]string
	finished     bool

	PropsMu              sync.RWMutex
	Ready                bool
	CurrentLanguage      string
	CurrentLocale        string
	CurrentLayout        string
	CurrentVariant       string
	PersistenceActivated bool
	MacSpoof             bool

	//nolint
	signals *struct {
		Ready          struct{}
		LocaleSelected struct {
			locale string
		}
		Finished struct{}
	}
}

func newGreeter(service *dbusutil.Service, c Components) *Greeter {
	g := &Greeter{c: c}
	g.syncSelection()
	if c.MacSpoof != nil {
		g.MacSpoof = c.MacSpoof.MacSpoof()
	}
	// not exported yet, no property changes to emit before this
	g.service = service
	c.Settings.SetLocaleSelectedCallback(g.handleLocaleSelected)
	return g
}

func (g *Greeter) emit(name string, args ...interface{}) {
	if g.service == nil {
		return
	}
	err := g.service.Emit(g, name, args...)
	if err != nil {
		logger.Warningf("failed to emit %s: %v", name, err)
	}
}

// syncSelection copies the current selection of the settings to the
// properties.
func (g *Greeter) syncSelection() {
	s := g.c.Settings
	g.PropsMu.Lock()
	g.setPropCurrentLanguage(s.Language())
	g.setPropCurrentLocale(s.Locale())
	g.setPropCurrentLayout(s.Layout())
	g.setPropCurrentVariant(s.Variant())
	g.PropsMu.Unlock()
}

// handleUserLoaded runs once the live user is known to AccountsService.
func (g *Greeter) handleUserLoaded() {
	logger.Info("live user loaded")
	g.PropsMu.Lock()
	g.setPropReady(true)
	g.PropsMu.Unlock()

	g.c.Settings.SetLocale(localisation.DefaultLocale)
	g.emit("Ready")
}

func (g *Greeter) handleLocaleSelected(locale string) {
	g.syncSelection()

	if g.c.Translatable != nil {
		translations := g.c.Translatable.Translate(localisation.LanguageFromLocale(locale))
		g.mu.Lock()
		g.translations = translations
		g.mu.Unlock()
	}

	if g.c.GDM != nil {
		err := g.c.GDM.SelectLanguage(locale)
		if errors.Is(err, gdm.ErrNotReady) {
			logger.Debug("language sent once GDM is ready:", locale)
		} else if err != nil {
			logger.Warning("failed to select GDM language:", err)
		}
	}
	g.emit("LocaleSelected", locale)
}

// handleMacSpoofChanged follows the detected MAC spoofing default.
func (g *Greeter) handleMacSpoofChanged(enabled bool) {
	g.PropsMu.Lock()
	g.setPropMacSpoof(enabled)
	g.PropsMu.Unlock()
}

// Translations returns the labels translated to the current language.
func (g *Greeter) Translations() map[string]string {
	g.mu.Lock()
	defer g.mu.Unlock()
	result := make(map[string]string, len(g.translations))
	for k, v := range g.translations {
		result[k] = v
	}
	return result
}

// handleSessionOpened runs when GDM opened the live session, before it
// starts.
func (g *Greeter) handleSessionOpened(service string) {
	g.mu.Lock()
	if g.finished {
		g.mu.Unlock()
		return
	}
	g.finished = true
	g.mu.Unlock()

	if g.c.GDM != nil {
		logger.Infof("session opened by %s, default session %q", service, g.c.GDM.DefaultSessionName())
	}

	err := g.finish()
	if err != nil {
		logger.Warning(err)
	}
	g.emit("Finished")
	if g.service != nil {
		g.service.Quit()
	}
}

func (g *Greeter) finish() error {
	var err error
	if g.c.RootAccess != nil {
		if e := g.c.RootAccess.Finish(); e != nil {
			err = multierr.Append(err, xerrors.Errorf("root password: %w", e))
		}
	}
	if e := g.c.Settings.Finish(); e != nil {
		err = multierr.Append(err, xerrors.Errorf("session settings: %w", e))
	}
	return err
}

func (g *Greeter) setOptions(password, confirm string, camouflage, macSpoof bool) error {
	err := validate.CheckPassword(password, confirm)
	if err != nil {
		return err
	}

	if g.c.RootAccess != nil {
		g.c.RootAccess.SetPassword(password)
	}

	if g.c.Camouflage != nil {
		osName := ""
		if camouflage {
			osName = g.c.CamouflageOS
		}
		err = g.c.Camouflage.SetOS(osName)
		if err != nil {
			return xerrors.Errorf("set camouflage: %w", err)
		}
	}

	if g.c.MacSpoof != nil {
		err = g.c.MacSpoof.SetMacSpoof(macSpoof)
		if err != nil {
			return xerrors.Errorf("set MAC spoofing: %w", err)
		}
		g.PropsMu.Lock()
		g.setPropMacSpoof(macSpoof)
		g.PropsMu.Unlock()
	}
	return nil
}

var errNoGDM = errors.New("no GDM greeter server")

func (g *Greeter) login() error {
	if g.c.GDM == nil {
		return errNoGDM
	}
	return g.c.GDM.Login()
}

var errNoPersistence = errors.New("persistence is not available")

func (g *Greeter) activatePersistence(device, passphrase string, readOnly bool) error {
	if g.c.Persistence == nil {
		return errNoPersistence
	}
	err := validate.CheckPassphrase(passphrase)
	if err != nil {
		return err
	}
	err = g.c.Persistence.Activate(context.Background(), device, passphrase, readOnly)
	if err != nil {
		return err
	}
	active, _ := g.c.Persistence.IsActive()
	g.PropsMu.Lock()
	g.setPropPersistenceActivated(active)
	g.PropsMu.Unlock()
	return nil
}

func (g *Greeter) layoutIndicator() string {
	rec := g.c.Settings.LiveConfig()
	if rec == nil {
		return ""
	}
	group := len(rec.Layouts) - 1
	if g.c.Engine != nil {
		current, err := g.c.Engine.CurrentGroup()
		if err != nil {
			logger.Debug("failed to get keyboard group:", err)
		} else {
			group = current
		}
	}
	return keyboard.Indicator(g.c.Registry, rec, group)
}
