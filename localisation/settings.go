// SPDX-FileCopyrightText: 2012 - 2026 Tails developers <tails@boum.org>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package localisation

import (
	"strings"
	"sync"

	"github.com/linuxdeepin/go-lib/strv"

	"gitlab.tails.boum.org/tails/greeter/common/iso639"
	"gitlab.tails.boum.org/tails/greeter/keyboard"
)

const (
	DefaultLanguage = "en"
	DefaultLocale   = "en_US"
	DefaultLayout   = "us"
)

// LayoutRegistry is the part of the keyboard registry the settings read.
type LayoutRegistry interface {
	LayoutsByLanguage(iso639 string) []string
	Layouts() []string
	Description(code string) (string, bool)
}

// UserLanguageSetter stores the language of the live user account.
type UserLanguageSetter interface {
	IsLoaded() bool
	SetLanguage(locale string) error
}

// Scheduler runs a call later, outside of the caller's stack.
type Scheduler interface {
	Add(fn func()) bool
}

type Deps struct {
	// SystemLocales is the locale list supported by the system, in menu
	// order. Duplicates are allowed.
	SystemLocales []string
	// DefaultLocales is the curated list shown in the main menu.
	DefaultLocales []string

	Registry LayoutRegistry
	Engine   keyboard.Engine
	Accounts UserLanguageSetter
	Idle     Scheduler

	// SessionFile receives the settings for the session started after
	// login. Nothing is written when it is empty.
	SessionFile string
}

// Settings stores the language and keyboard choices and pushes them to the
// keyboard engine, the user account and the upcoming session.
type Settings struct {
	mu sync.Mutex

	systemLocales     []string
	localesByLanguage map[string][]string
	defaultLocales    []string

	registry    LayoutRegistry
	engine      keyboard.Engine
	accounts    UserLanguageSetter
	idle        Scheduler
	sessionFile string

	language string
	locale   string
	layout   string
	variant  string
	options  string
	liveRec  *keyboard.ConfigRec

	localeSelectedCb func(locale string)
}

func NewSettings(deps Deps) *Settings {
	return &Settings{
		systemLocales:     deps.SystemLocales,
		localesByLanguage: groupByLanguage(deps.SystemLocales),
		defaultLocales:    deps.DefaultLocales,
		registry:          deps.Registry,
		engine:            deps.Engine,
		accounts:          deps.Accounts,
		idle:              deps.Idle,
		sessionFile:       deps.SessionFile,
		language:          DefaultLanguage,
		locale:            DefaultLocale,
		layout:            DefaultLayout,
		options:           keyboard.ToggleOption,
	}
}

// SetLocaleSelectedCallback sets the function called after each locale
// change, with the new locale. It is called without the settings locked.
func (s *Settings) SetLocaleSelectedCallback(fn func(locale string)) {
	s.mu.Lock()
	s.localeSelectedCb = fn
	s.mu.Unlock()
}

func LanguageFromLocale(locale string) string {
	return strings.SplitN(locale, "_", 2)[0]
}

func CountryFromLocale(locale string) string {
	parts := strings.SplitN(locale, "_", 2)
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}

// LanguagesFromLocales returns the language codes of locales, each once, in
// order of first occurrence.
func LanguagesFromLocales(locales []string) []string {
	var result []string
	for _, l := range locales {
		lang := LanguageFromLocale(l)
		if !strv.Strv(result).Contains(lang) {
			result = append(result, lang)
		}
	}
	return result
}

func groupByLanguage(locales []string) map[string][]string {
	result := make(map[string][]string)
	for _, l := range locales {
		lang := LanguageFromLocale(l)
		if !strv.Strv(result[lang]).Contains(l) {
			result[lang] = append(result[lang], l)
		}
	}
	return result
}

// NormalizeLocale appends the UTF-8 codeset to a bare locale code.
func NormalizeLocale(locale string) string {
	if strings.Contains(locale, ".") {
		return locale
	}
	return locale + ".UTF-8"
}

// LANGUAGES

func (s *Settings) Languages() []string {
	return LanguagesFromLocales(s.systemLocales)
}

func (s *Settings) DefaultLanguages() []string {
	return LanguagesFromLocales(s.defaultLocales)
}

func (s *Settings) Language() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.language
}

// SetLanguage selects lang and the default locale of lang.
func (s *Settings) SetLanguage(lang string) {
	s.mu.Lock()
	s.language = lang
	locale := s.defaultLocaleLocked()
	logger.Debugf("setting default locale of %s to %s", lang, locale)
	s.setLocaleLocked(locale)
	cb := s.localeSelectedCb
	s.mu.Unlock()

	if cb != nil {
		cb(locale)
	}
}

// LOCALES

// Locales returns every locale supported by the system.
func (s *Settings) Locales() []string {
	return s.systemLocales
}

// DefaultLocales returns the locales of the current language.
func (s *Settings) DefaultLocales() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.localesByLanguage[s.language]
}

func (s *Settings) Locale() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locale
}

// SetLocale selects locale, its language and its default keyboard layout.
func (s *Settings) SetLocale(locale string) {
	s.mu.Lock()
	s.language = LanguageFromLocale(locale)
	s.setLocaleLocked(locale)
	cb := s.localeSelectedCb
	s.mu.Unlock()

	if cb != nil {
		cb(locale)
	}
}

func (s *Settings) setLocaleLocked(locale string) {
	s.locale = locale
	s.applyLocaleLocked()
	s.setDefaultLayoutLocked()
}

// defaultLocaleLocked prefers en_US or a locale whose country code is its
// language code, e.g. de_DE, then the first locale of the language.
func (s *Settings) defaultLocaleLocked() string {
	locales := s.localesByLanguage[s.language]
	logger.Debug("locales of", s.language, locales)
	for _, l := range locales {
		if l == DefaultLocale ||
			strings.EqualFold(LanguageFromLocale(l), CountryFromLocale(l)) {
			return l
		}
	}
	if len(locales) > 0 {
		return locales[0]
	}
	return DefaultLocale
}

func (s *Settings) applyLocaleLocked() {
	localeCode := NormalizeLocale(s.locale)
	logger.Debug("setting session language to", localeCode)

	if s.accounts == nil || !s.accounts.IsLoaded() {
		logger.Warning("AccountsService user not ready, language not applied")
		return
	}
	accounts := s.accounts
	fn := func() {
		err := accounts.SetLanguage(localeCode)
		if err != nil {
			logger.Warning("failed to set user language:", err)
		}
	}
	if s.idle == nil || !s.idle.Add(fn) {
		fn()
	}
}

// LAYOUTS

// Layouts returns the codes of every layout and variant of the registry.
func (s *Settings) Layouts() []string {
	if s.registry == nil {
		return nil
	}
	return s.registry.Layouts()
}

// LayoutsForLanguage returns the base layouts the registry associates with
// lang.
func (s *Settings) LayoutsForLanguage(lang string) []string {
	if s.registry == nil {
		logger.Warning("no keyboard registry")
		return nil
	}

	tCode := iso639.ConvertA2ToA3(lang)
	if tCode == "" {
		logger.Warningf("no ISO 639 code for %q", lang)
		return nil
	}
	if tCode == "nno" || tCode == "nob" {
		tCode = "nor"
	}

	var layouts []string
	if tCode == "hrv" {
		layouts = append(layouts, "hr")
	}
	add := func(codes []string) {
		for _, code := range codes {
			if !strv.Strv(layouts).Contains(code) {
				layouts = append(layouts, code)
			}
		}
	}

	add(s.registry.LayoutsByLanguage(tCode))
	if len(layouts) == 0 {
		bCode := iso639.TerminologyToBibliographic(tCode)
		logger.Debugf("got no layout for ISO-639-2/T code %s, trying with ISO-639-2/B code %s",
			tCode, bCode)
		add(s.registry.LayoutsByLanguage(bCode))
	}
	logger.Debugf("got %d layouts for %s", len(layouts), lang)
	return layouts
}

// DefaultLayouts returns the layouts of the current language, or "us".
func (s *Settings) DefaultLayouts() []string {
	s.mu.Lock()
	lang := s.language
	s.mu.Unlock()
	return s.defaultLayouts(lang)
}

func (s *Settings) defaultLayouts(lang string) []string {
	layouts := s.LayoutsForLanguage(lang)
	if len(layouts) == 0 {
		return []string{DefaultLayout}
	}
	return layouts
}

func (s *Settings) Layout() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.layout
}

func (s *Settings) Variant() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.variant
}

// LiveConfig returns the record last activated on the keyboard engine.
func (s *Settings) LiveConfig() *keyboard.ConfigRec {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.liveRec
}

// SetLayout selects a "layout" or "layout/variant" code.
func (s *Settings) SetLayout(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setLayoutLocked(code)
}

func (s *Settings) setLayoutLocked(code string) {
	s.layout, s.variant = keyboard.SplitCode(code)
	s.applyLayoutToCurrentScreenLocked()
	s.applyLayoutToUpcomingSessionLocked()
}

// setDefaultLayoutLocked prefers the layout named after the locale country,
// then the one named after its language, then the first layout of the
// language.
func (s *Settings) setDefaultLayoutLocked() {
	layouts := s.defaultLayouts(s.language)
	ln := strings.ToLower(LanguageFromLocale(s.locale))
	country := strings.ToLower(CountryFromLocale(s.locale))

	var defaultLayout, backupLayout string
	for _, code := range layouts {
		logger.Debugf("layout_code=%q, ln=%q, CC=%q", code, ln, country)
		if code == country {
			defaultLayout = code
		} else if code == ln {
			backupLayout = code
		}
	}
	if defaultLayout == "" {
		if backupLayout != "" {
			defaultLayout = backupLayout
		} else {
			defaultLayout = layouts[0]
		}
	}
	logger.Debug("default layout is", defaultLayout)
	s.setLayoutLocked(defaultLayout)
}

// LiveConfigRec returns the record activated on the live engine: us first,
// the selected layout second.
func LiveConfigRec(layout, variant, options string) *keyboard.ConfigRec {
	rec := &keyboard.ConfigRec{
		Model:   keyboard.DefaultModel,
		Options: []string{options},
	}
	if layout != DefaultLayout {
		rec.Layouts = []string{DefaultLayout, layout}
		rec.Variants = []string{"", variant}
	} else {
		rec.Layouts = []string{layout}
		rec.Variants = []string{variant}
	}
	return rec
}

func (s *Settings) applyLayoutToCurrentScreenLocked() {
	rec := LiveConfigRec(s.layout, s.variant, s.options)
	s.liveRec = rec
	if s.engine == nil {
		logger.Warning("no keyboard engine")
		return
	}

	err := s.engine.Activate(rec)
	if err != nil {
		logger.Warning("failed to activate keyboard layout:", err)
		return
	}
	// make the selected layout current
	err = s.engine.LockGroup(len(rec.Layouts) - 1)
	if err != nil {
		logger.Warning("failed to lock keyboard group:", err)
	}
	logger.Debugf("L:%v V:%v O:%v", rec.Layouts, rec.Variants, rec.Options)
}

func (s *Settings) applyLayoutToUpcomingSessionLocked() {
	if s.sessionFile == "" {
		return
	}
	err := writeSessionFile(s.sessionFile, s.locale, s.layout, s.variant, s.options)
	if err != nil {
		logger.Warning("failed to write session settings:", err)
	}
}

// Finish writes the final selection for the upcoming session.
func (s *Settings) Finish() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessionFile == "" {
		return nil
	}
	return writeSessionFile(s.sessionFile, s.locale, s.layout, s.variant, s.options)
}
