// SPDX-FileCopyrightText: 2012 - 2026 Tails developers <tails@boum.org>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package localisation resolves the language, locale and keyboard layout
// cascade of the greeter.
package localisation

import (
	"github.com/linuxdeepin/go-lib/log"
)

var logger = log.NewLogger("greeter/localisation")

func SetLogLevel(level log.Priority) {
	logger.SetLogLevel(level)
}
