// SPDX-FileCopyrightText: 2012 - 2026 Tails developers <tails@boum.org>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package iso639 converts between the language code forms used by locales
// and by the xkeyboard-config registry.
package iso639

import (
	"strings"

	"golang.org/x/text/language"
)

// ISO 639-2/T codes whose bibliographic form differs.
var terminologyToBibliographic = map[string]string{
	"bod": "tib",
	"ces": "cze",
	"cym": "wel",
	"deu": "ger",
	"ell": "gre",
	"eus": "baq",
	"fas": "per",
	"fra": "fre",
	"hye": "arm",
	"isl": "ice",
	"kat": "geo",
	"mkd": "mac",
	"mri": "mao",
	"msa": "may",
	"mya": "bur",
	"nld": "dut",
	"ron": "rum",
	"slk": "slo",
	"sqi": "alb",
	"zho": "chi",
}

// ConvertA2ToA3 returns the 3-letter terminology code of a language code,
// e.g. "de" -> "deu". A code that is already 3 letters long is returned
// lower-cased. It returns "" when the code is unknown.
func ConvertA2ToA3(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return ""
	}
	base, err := language.ParseBase(code)
	if err != nil {
		if len(code) == 3 {
			return code
		}
		return ""
	}
	return base.ISO3()
}

// TerminologyToBibliographic converts an ISO 639-2/T code to its ISO 639-2/B
// form. Codes without a distinct bibliographic form are returned unchanged.
func TerminologyToBibliographic(code string) string {
	code = strings.ToLower(code)
	if b, ok := terminologyToBibliographic[code]; ok {
		return b
	}
	return code
}
