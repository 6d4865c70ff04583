// SPDX-FileCopyrightText: 2012 - 2026 Tails developers <tails@boum.org>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package greeter

import (
	"github.com/godbus/dbus/v5"
	"github.com/linuxdeepin/go-lib/log"
	"golang.org/x/xerrors"

	"gitlab.tails.boum.org/tails/greeter/common/idle"
	"gitlab.tails.boum.org/tails/greeter/config"
	accounts "gitlab.tails.boum.org/tails/greeter/dbus"
	"gitlab.tails.boum.org/tails/greeter/gdm"
	"gitlab.tails.boum.org/tails/greeter/i18n"
	"gitlab.tails.boum.org/tails/greeter/keyboard"
	"gitlab.tails.boum.org/tails/greeter/loader"
	"gitlab.tails.boum.org/tails/greeter/localisation"
	"gitlab.tails.boum.org/tails/greeter/options"
	"gitlab.tails.boum.org/tails/greeter/persistence"
)

var logger = log.NewLogger("greeter/greeter")

// SetLogLevel applies level to the greeter and to every model it drives.
func SetLogLevel(level log.Priority) {
	logger.SetLogLevel(level)
	accounts.SetLogLevel(level)
	gdm.SetLogLevel(level)
	i18n.SetLogLevel(level)
	keyboard.SetLogLevel(level)
	localisation.SetLogLevel(level)
	options.SetLogLevel(level)
	persistence.SetLogLevel(level)
}

// runtime holds what the modules build for each other.
type runtime struct {
	cfg *config.Config

	idle             *idle.Queue
	users            *accounts.UserManager
	registry         *keyboard.Registry
	engine           *keyboard.X11Engine
	settings         *localisation.Settings
	persistence      *persistence.Settings
	rootAccess       *options.RootAccess
	camouflage       *options.Camouflage
	physicalSecurity *options.PhysicalSecurity
	gdm              *gdm.Client
	greeter          *Greeter
}

// Register adds the greeter modules to the loader.
func Register(cfg *config.Config) {
	rt := &runtime{cfg: cfg}
	loader.Register(newAccountsModule(rt))
	loader.Register(newKeyboardModule(rt))
	loader.Register(newLocalisationModule(rt))
	loader.Register(newPersistenceModule(rt))
	loader.Register(newOptionsModule(rt))
	loader.Register(newGDMModule(rt))
	loader.Register(newGreeterModule(rt))
}

type accountsModule struct {
	*loader.ModuleBase
	rt *runtime
}

func newAccountsModule(rt *runtime) *accountsModule {
	m := &accountsModule{rt: rt}
	m.ModuleBase = loader.NewModuleBase("accounts", m, logger)
	return m
}

func (*accountsModule) GetDependencies() []string {
	return []string{}
}

func (m *accountsModule) Start() error {
	if m.rt.users != nil {
		return nil
	}
	sysBus, err := dbus.SystemBus()
	if err != nil {
		return xerrors.Errorf("connect system bus: %w", err)
	}
	m.rt.idle = idle.NewQueue()
	m.rt.idle.Start()
	m.rt.users = accounts.NewUserManager(sysBus, m.rt.cfg.LiveUser)
	return nil
}

func (m *accountsModule) Stop() error {
	if m.rt.users == nil {
		return nil
	}
	m.rt.users.Stop()
	m.rt.idle.Stop()
	m.rt.users = nil
	return nil
}

type keyboardModule struct {
	*loader.ModuleBase
	rt *runtime
}

func newKeyboardModule(rt *runtime) *keyboardModule {
	m := &keyboardModule{rt: rt}
	m.ModuleBase = loader.NewModuleBase("keyboard", m, logger)
	return m
}

func (*keyboardModule) GetDependencies() []string {
	return []string{}
}

func (m *keyboardModule) Start() error {
	registry, err := keyboard.LoadRegistry(m.rt.cfg.XkbRulesPath)
	if err != nil {
		logger.Warning("failed to load keyboard registry:", err)
	} else {
		m.rt.registry = registry
	}

	engine, err := keyboard.NewX11Engine()
	if err != nil {
		logger.Warning("failed to connect to X:", err)
	} else {
		m.rt.engine = engine
	}
	return nil
}

func (m *keyboardModule) Stop() error {
	if m.rt.engine != nil {
		m.rt.engine.Close()
		m.rt.engine = nil
	}
	return nil
}

type localisationModule struct {
	*loader.ModuleBase
	rt *runtime
}

func newLocalisationModule(rt *runtime) *localisationModule {
	m := &localisationModule{rt: rt}
	m.ModuleBase = loader.NewModuleBase("localisation", m, logger)
	return m
}

func (*localisationModule) GetDependencies() []string {
	return []string{"accounts", "keyboard"}
}

func (m *localisationModule) Start() error {
	cfg := m.rt.cfg
	locales, err := cfg.SystemLocales()
	if err != nil {
		logger.Warning("failed to read supported locales:", err)
	}

	deps := localisation.Deps{
		SystemLocales:  locales,
		DefaultLocales: cfg.DefaultLocales,
		SessionFile:    cfg.LocaleOutputPath,
	}
	if m.rt.idle != nil {
		deps.Idle = m.rt.idle
	}
	if m.rt.registry != nil {
		deps.Registry = m.rt.registry
	}
	if m.rt.engine != nil {
		deps.Engine = m.rt.engine
	}
	if m.rt.users != nil {
		deps.Accounts = m.rt.users
	}
	m.rt.settings = localisation.NewSettings(deps)
	return nil
}

func (m *localisationModule) Stop() error {
	m.rt.settings = nil
	return nil
}

type persistenceModule struct {
	*loader.ModuleBase
	rt *runtime
}

func newPersistenceModule(rt *runtime) *persistenceModule {
	m := &persistenceModule{rt: rt}
	m.ModuleBase = loader.NewModuleBase("persistence", m, logger)
	return m
}

func (*persistenceModule) GetDependencies() []string {
	return []string{}
}

func (m *persistenceModule) Start() error {
	cfg := m.rt.cfg
	m.rt.persistence = persistence.NewSettings(persistence.Config{
		LivePersist:        cfg.LivePersist,
		LivePersistLogFile: cfg.LivePersistLogFile,
		StateFile:          cfg.PersistenceStateFile,
	})
	return nil
}

func (m *persistenceModule) Stop() error {
	m.rt.persistence = nil
	return nil
}

type optionsModule struct {
	*loader.ModuleBase
	rt *runtime
}

func newOptionsModule(rt *runtime) *optionsModule {
	m := &optionsModule{rt: rt}
	m.ModuleBase = loader.NewModuleBase("options", m, logger)
	return m
}

func (*optionsModule) GetDependencies() []string {
	return []string{}
}

func (m *optionsModule) Start() error {
	cfg := m.rt.cfg
	m.rt.rootAccess = options.NewRootAccess(cfg.RootPasswordOutputPath)
	m.rt.camouflage = options.NewCamouflage(cfg.CamouflageSettings)

	ps, err := options.NewPhysicalSecurity(cfg.PhysicalSecuritySettings, cfg.DetectedVirtualMachine)
	if err != nil {
		logger.Warning("failed to write physical security settings:", err)
	}
	err = ps.StartWatch()
	if err != nil {
		logger.Warning("failed to watch virtual machine detection:", err)
	}
	m.rt.physicalSecurity = ps
	return nil
}

func (m *optionsModule) Stop() error {
	if m.rt.physicalSecurity == nil {
		return nil
	}
	err := m.rt.physicalSecurity.StopWatch()
	m.rt.physicalSecurity = nil
	return err
}

type gdmModule struct {
	*loader.ModuleBase
	rt *runtime
}

func newGDMModule(rt *runtime) *gdmModule {
	m := &gdmModule{rt: rt}
	m.ModuleBase = loader.NewModuleBase("gdm", m, logger)
	return m
}

func (*gdmModule) GetDependencies() []string {
	return []string{}
}

func (m *gdmModule) Start() error {
	conn, err := gdm.Dial("")
	if err != nil {
		logger.Warning("failed to connect to GDM, login disabled:", err)
		return nil
	}
	client := gdm.NewClient(conn, m.rt.cfg.LiveUser, m.rt.cfg.LivePassword)
	err = client.Start()
	if err != nil {
		return xerrors.Errorf("start GDM client: %w", err)
	}
	logger.Debug("GDM display:", client.DisplayID())
	m.rt.gdm = client
	return nil
}

func (m *gdmModule) Stop() error {
	if m.rt.gdm == nil {
		return nil
	}
	err := m.rt.gdm.Stop()
	m.rt.gdm = nil
	return err
}

type greeterModule struct {
	*loader.ModuleBase
	rt *runtime
}

func newGreeterModule(rt *runtime) *greeterModule {
	m := &greeterModule{rt: rt}
	m.ModuleBase = loader.NewModuleBase("greeter", m, logger)
	return m
}

func (*greeterModule) GetDependencies() []string {
	return []string{"accounts", "keyboard", "localisation", "persistence", "options", "gdm"}
}

func (m *greeterModule) components() Components {
	rt := m.rt
	c := Components{
		Settings:     rt.settings,
		Registry:     rt.registry,
		Translatable: newTranslatable(rt.cfg.LocalesPath),
		CamouflageOS: rt.cfg.CamouflageOS,
		HelpBaseURI:  rt.cfg.HelpBaseURI,
	}
	if rt.engine != nil {
		c.Engine = rt.engine
	}
	if rt.gdm != nil {
		c.GDM = rt.gdm
	}
	if rt.persistence != nil {
		c.Persistence = rt.persistence
	}
	if rt.rootAccess != nil {
		c.RootAccess = rt.rootAccess
	}
	if rt.camouflage != nil {
		c.Camouflage = rt.camouflage
	}
	if rt.physicalSecurity != nil {
		c.MacSpoof = rt.physicalSecurity
	}
	return c
}

func (m *greeterModule) Start() error {
	if m.rt.greeter != nil {
		return nil
	}
	service := loader.GetService()
	g := newGreeter(service, m.components())

	err := service.Export(dbusPath, g)
	if err != nil {
		return err
	}
	err = service.RequestName(dbusServiceName)
	if err != nil {
		return err
	}
	m.rt.greeter = g

	if m.rt.gdm != nil {
		m.rt.gdm.SetSessionOpenedCallback(g.handleSessionOpened)
	}
	if ps := m.rt.physicalSecurity; ps != nil {
		ps.SetChangedCallback(g.handleMacSpoofChanged)
		// catch a detection that happened before the callback was set
		g.handleMacSpoofChanged(ps.MacSpoof())
	}
	m.rt.users.SetLoadedCallback(g.handleUserLoaded)
	return m.rt.users.Start()
}

func (m *greeterModule) Stop() error {
	if m.rt.greeter == nil {
		return nil
	}
	if m.rt.physicalSecurity != nil {
		m.rt.physicalSecurity.SetChangedCallback(nil)
	}
	service := loader.GetService()
	err := service.StopExport(m.rt.greeter)
	if err != nil {
		logger.Warning(err)
	}
	err = service.ReleaseName(dbusServiceName)
	if err != nil {
		logger.Warning(err)
	}
	m.rt.greeter = nil
	return nil
}
