// SPDX-FileCopyrightText: 2012 - 2026 Tails developers <tails@boum.org>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package i18n translates the greeter labels to the language being chosen,
// independently of the language of the greeter process.
package i18n

import (
	"os"
	"sync"

	"github.com/gosexy/gettext"
	"github.com/linuxdeepin/go-lib/log"
)

const (
	DefaultDomain    = "tails-greeter"
	DefaultLocaleDir = "/usr/share/locale"

	languageEnv = "LANGUAGE"
)

var logger = log.NewLogger("greeter/i18n")

func SetLogLevel(level log.Priority) {
	logger.SetLogLevel(level)
}

// the catalog lookup depends on the process environment
var catalogMu sync.Mutex

// Label is a translatable text identified by ID.
type Label struct {
	ID     string
	Source string
}

// Translatable is a set of labels translated together.
type Translatable struct {
	domain string
	labels []Label
}

func NewTranslatable(domain, localeDir string) *Translatable {
	catalogMu.Lock()
	gettext.SetLocale(gettext.LcAll, "")
	gettext.BindTextdomain(domain, localeDir)
	catalogMu.Unlock()
	return &Translatable{domain: domain}
}

func (t *Translatable) Add(id, source string) {
	for i := range t.labels {
		if t.labels[i].ID == id {
			t.labels[i].Source = source
			return
		}
	}
	t.labels = append(t.labels, Label{ID: id, Source: source})
}

func (t *Translatable) Labels() []Label {
	return t.labels
}

// Translate returns the labels translated to lang, by ID. Labels with no
// translation keep their source text.
func (t *Translatable) Translate(lang string) map[string]string {
	catalogMu.Lock()
	defer catalogMu.Unlock()

	old, hadOld := os.LookupEnv(languageEnv)
	_ = os.Setenv(languageEnv, lang)
	defer func() {
		if hadOld {
			_ = os.Setenv(languageEnv, old)
		} else {
			_ = os.Unsetenv(languageEnv)
		}
		gettext.Textdomain(t.domain)
	}()
	// invalidates the catalogs loaded for the previous language
	gettext.Textdomain(t.domain)

	result := make(map[string]string, len(t.labels))
	for _, l := range t.labels {
		if l.Source == "" {
			result[l.ID] = ""
			continue
		}
		result[l.ID] = gettext.DGettext(t.domain, l.Source)
	}
	logger.Debugf("translated %d labels to %s", len(result), lang)
	return result
}
