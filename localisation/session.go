// SPDX-FileCopyrightText: 2012 - 2026 Tails developers <tails@boum.org>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package localisation

import (
	"gitlab.tails.boum.org/tails/greeter/common/envfile"
	"gitlab.tails.boum.org/tails/greeter/keyboard"
)

const (
	keyLocaleName = "TAILS_LOCALE_NAME"
	keyXkbModel   = "TAILS_XKBMODEL"
	keyXkbLayout  = "TAILS_XKBLAYOUT"
	keyXkbVariant = "TAILS_XKBVARIANT"
	keyXkbOptions = "TAILS_XKBOPTIONS"
)

// SessionEnv returns the locale settings of the upcoming session. Unlike the
// live engine, the session lists the selected variant first and the us
// variant last, as setupcon reads them.
func SessionEnv(locale, layout, variant, options string) *envfile.File {
	var xkbLayout, xkbVariant string
	if layout != DefaultLayout {
		xkbLayout = DefaultLayout + "," + layout
		if variant != "" {
			xkbVariant = variant + ","
		}
	} else {
		xkbLayout = layout
		xkbVariant = variant
	}

	return envfile.New().
		Set(keyLocaleName, locale).
		// default value of /etc/default/keyboard
		Set(keyXkbModel, keyboard.DefaultModel).
		Set(keyXkbLayout, xkbLayout).
		Set(keyXkbVariant, xkbVariant).
		Set(keyXkbOptions, options)
}

func writeSessionFile(filename, locale, layout, variant, options string) error {
	err := SessionEnv(locale, layout, variant, options).Save(filename)
	if err != nil {
		return err
	}
	logger.Debug("session locale settings written to", filename)
	return nil
}
