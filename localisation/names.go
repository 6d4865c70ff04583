// SPDX-FileCopyrightText: 2012 - 2026 Tails developers <tails@boum.org>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package localisation

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// NamedCode pairs a language, locale or layout code with its display name.
type NamedCode struct {
	Code string
	Name string
}

// localeTag parses a glibc locale name such as "sr_RS.UTF-8@latin". The
// codeset and modifier are dropped.
func localeTag(locale string) language.Tag {
	locale = strings.SplitN(locale, "@", 2)[0]
	locale = strings.SplitN(locale, ".", 2)[0]
	tag, err := language.Parse(strings.ReplaceAll(locale, "_", "-"))
	if err != nil {
		return language.Und
	}
	return tag
}

// LanguageName returns the name of a language in that language, e.g.
// "Français" for "fr".
func LanguageName(code string) string {
	tag := localeTag(code)
	if tag == language.Und {
		return code
	}
	namer := display.Self
	if namer == nil {
		return code
	}
	name := namer.Name(tag)
	if name == "" {
		return code
	}
	return cases.Title(tag).String(name)
}

// CountryName returns the country of locale named in the locale language,
// e.g. "Belgique" for "fr_BE".
func CountryName(locale string) string {
	tag := localeTag(locale)
	if tag == language.Und {
		return locale
	}
	region, conf := tag.Region()
	if conf == language.No {
		return locale
	}
	// nil when there is no region dictionary for the language
	namer := display.Regions(tag)
	if namer == nil {
		return locale
	}
	name := namer.Name(region)
	if name == "" {
		return locale
	}
	return name
}

// sortByName sorts items by name with the collation rules of locale.
func sortByName(items []NamedCode, locale string) []NamedCode {
	c := collate.New(localeTag(locale))
	sort.SliceStable(items, func(i, j int) bool {
		return c.CompareString(items[i].Name, items[j].Name) < 0
	})
	return items
}

func withNames(codes []string, nameFn func(string) string, locale string) []NamedCode {
	items := make([]NamedCode, 0, len(codes))
	for _, code := range codes {
		items = append(items, NamedCode{Code: code, Name: nameFn(code)})
	}
	return sortByName(items, locale)
}

func (s *Settings) layoutName(code string) string {
	if s.registry != nil {
		if desc, ok := s.registry.Description(code); ok {
			return desc
		}
	}
	return code
}

func (s *Settings) LanguagesWithNames() []NamedCode {
	return withNames(s.Languages(), LanguageName, s.Locale())
}

func (s *Settings) DefaultLanguagesWithNames() []NamedCode {
	return withNames(s.DefaultLanguages(), LanguageName, s.Locale())
}

func (s *Settings) DefaultLocalesWithNames() []NamedCode {
	return withNames(s.DefaultLocales(), CountryName, s.Locale())
}

func (s *Settings) LayoutsWithNames() []NamedCode {
	return withNames(s.Layouts(), s.layoutName, s.Locale())
}

func (s *Settings) DefaultLayoutsWithNames() []NamedCode {
	return withNames(s.DefaultLayouts(), s.layoutName, s.Locale())
}
