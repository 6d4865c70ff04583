// SPDX-FileCopyrightText: 2012 - 2026 Tails developers <tails@boum.org>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package config holds the greeter settings. Compiled-in defaults describe a
// Tails system; a key file may override any of them.
package config

import (
	"bufio"
	"os"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/linuxdeepin/go-lib/keyfile"
	"github.com/linuxdeepin/go-lib/log"
	"github.com/linuxdeepin/go-lib/utils"
	"golang.org/x/xerrors"
)

const DefaultFile = "/etc/tails-greeter/tails-greeter.conf"

const (
	kfGroupGeneral      = "General"
	kfGroupPaths        = "Paths"
	kfGroupLocalisation = "Localisation"
	kfGroupOptions      = "Options"

	kfKeyTailsSpecific = "TailsSpecific"
	kfKeyLiveUser      = "LiveUser"
	kfKeyLivePassword  = "LivePassword"

	kfKeyLanguageCodes      = "LanguageCodes"
	kfKeyDefaultLangcodes   = "DefaultLangcodes"
	kfKeyLocales            = "Locales"
	kfKeyXkbRules           = "XkbRules"
	kfKeyLocaleOutput       = "LocaleOutput"
	kfKeyRootPassword       = "RootPassword"
	kfKeyPersistenceState   = "PersistenceState"
	kfKeyCamouflage         = "Camouflage"
	kfKeyPhysicalSecurity   = "PhysicalSecurity"
	kfKeyDetectedVM         = "DetectedVirtualMachine"
	kfKeyHelpBase           = "HelpBase"
	kfKeyDefaultLocales     = "DefaultLocales"
	kfKeyCamouflageOS       = "CamouflageOS"
	kfKeyLivePersist        = "LivePersist"
	kfKeyLivePersistLogFile = "LivePersistLogFile"
)

var logger = log.NewLogger("greeter/config")

type Config struct {
	TailsSpecific bool
	// LiveUser is empty until Load picks it from TailsSpecific.
	LiveUser     string
	LivePassword string

	// build-time lists of supported locales, one code per line
	LanguageCodesPath    string
	DefaultLangcodesPath string
	LocalesPath          string
	XkbRulesPath         string

	// locales shown in the main menu
	DefaultLocales []string

	LocaleOutputPath         string
	RootPasswordOutputPath   string
	PersistenceStateFile     string
	CamouflageSettings       string
	PhysicalSecuritySettings string
	DetectedVirtualMachine   string

	HelpBaseURI  string
	CamouflageOS string

	LivePersist        string
	LivePersistLogFile string
}

func Default() *Config {
	return &Config{
		LivePassword:         "live",
		LanguageCodesPath:    "/usr/share/tails-greeter/language_codes",
		DefaultLangcodesPath: "/usr/share/tails-greeter/default_langcodes",
		LocalesPath:          "/usr/share/locale/",
		XkbRulesPath:         "/usr/share/X11/xkb/rules/base.xml",
		DefaultLocales: []string{"ar_EG", "zh_CN", "en_US", "fa_IR", "fr_FR",
			"de_DE", "it", "pt", "ru", "es", "vi_VN"},
		LocaleOutputPath:         "/var/lib/gdm3/tails.locale",
		RootPasswordOutputPath:   "/var/lib/gdm3/tails.password",
		PersistenceStateFile:     "/var/lib/gdm3/tails.persistence",
		CamouflageSettings:       "/var/lib/gdm3/tails.camouflage",
		PhysicalSecuritySettings: "/var/lib/gdm3/tails.physical_security",
		DetectedVirtualMachine:   "/var/lib/live/detected-virtual-machine",
		HelpBaseURI:              "file:///usr/share/doc/tails/website/",
		CamouflageOS:             "winxp",
		LivePersist:              "/usr/local/sbin/live-persist",
		LivePersistLogFile:       "/var/log/live-persist",
	}
}

// Load returns the defaults overridden by filename. A missing file is not
// an error.
func Load(filename string) (*Config, error) {
	cfg := Default()
	if filename != "" && utils.IsFileExist(filename) {
		kf := keyfile.NewKeyFile()
		err := kf.LoadFromFile(filename)
		if err != nil {
			return nil, xerrors.Errorf("load config %s: %w", filename, err)
		}
		cfg.apply(kf)
	}
	if cfg.LiveUser == "" {
		if cfg.TailsSpecific {
			cfg.LiveUser = "amnesia"
		} else {
			cfg.LiveUser = "user"
		}
	}
	logger.Debug("config:", spew.Sdump(cfg))
	return cfg, nil
}

func (cfg *Config) apply(kf *keyfile.KeyFile) {
	if v, err := kf.GetBool(kfGroupGeneral, kfKeyTailsSpecific); err == nil {
		cfg.TailsSpecific = v
	}

	overrideString(kf, kfGroupGeneral, kfKeyLiveUser, &cfg.LiveUser)
	overrideString(kf, kfGroupGeneral, kfKeyLivePassword, &cfg.LivePassword)

	overrideString(kf, kfGroupPaths, kfKeyLanguageCodes, &cfg.LanguageCodesPath)
	overrideString(kf, kfGroupPaths, kfKeyDefaultLangcodes, &cfg.DefaultLangcodesPath)
	overrideString(kf, kfGroupPaths, kfKeyLocales, &cfg.LocalesPath)
	overrideString(kf, kfGroupPaths, kfKeyXkbRules, &cfg.XkbRulesPath)
	overrideString(kf, kfGroupPaths, kfKeyLocaleOutput, &cfg.LocaleOutputPath)
	overrideString(kf, kfGroupPaths, kfKeyRootPassword, &cfg.RootPasswordOutputPath)
	overrideString(kf, kfGroupPaths, kfKeyPersistenceState, &cfg.PersistenceStateFile)
	overrideString(kf, kfGroupPaths, kfKeyCamouflage, &cfg.CamouflageSettings)
	overrideString(kf, kfGroupPaths, kfKeyPhysicalSecurity, &cfg.PhysicalSecuritySettings)
	overrideString(kf, kfGroupPaths, kfKeyDetectedVM, &cfg.DetectedVirtualMachine)
	overrideString(kf, kfGroupPaths, kfKeyHelpBase, &cfg.HelpBaseURI)
	overrideString(kf, kfGroupPaths, kfKeyLivePersist, &cfg.LivePersist)
	overrideString(kf, kfGroupPaths, kfKeyLivePersistLogFile, &cfg.LivePersistLogFile)

	if list, err := kf.GetStringList(kfGroupLocalisation, kfKeyDefaultLocales); err == nil && len(list) > 0 {
		cfg.DefaultLocales = list
	}

	overrideString(kf, kfGroupOptions, kfKeyCamouflageOS, &cfg.CamouflageOS)
}

func overrideString(kf *keyfile.KeyFile, group, key string, dest *string) {
	v, err := kf.GetString(group, key)
	if err != nil || v == "" {
		return
	}
	*dest = v
}

// SystemLocales returns the locale codes supported by the system: the
// per-language defaults first, then the full list.
func (cfg *Config) SystemLocales() ([]string, error) {
	defaults, err := readLines(cfg.DefaultLangcodesPath)
	if err != nil {
		return nil, err
	}
	all, err := readLines(cfg.LanguageCodesPath)
	if err != nil {
		return nil, err
	}
	logger.Debugf("%d languages found", len(all))
	return append(defaults, all...), nil
}

func readLines(filename string) ([]string, error) {
	fh, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	var lines []string
	scanner := bufio.NewScanner(fh)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, xerrors.Errorf("read %s: %w", filename, err)
	}
	return lines, nil
}
