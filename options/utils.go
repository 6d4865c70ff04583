// SPDX-FileCopyrightText: 2012 - 2026 Tails developers <tails@boum.org>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package options holds the additional settings of the greeter: the
// administration password, the camouflage theme and MAC address spoofing.
package options

import (
	"github.com/linuxdeepin/go-lib/log"

	"gitlab.tails.boum.org/tails/greeter/validate"
)

var logger = log.NewLogger("greeter/options")

func SetLogLevel(level log.Priority) {
	logger.SetLogLevel(level)
}

// Validate checks the administration password and its confirmation.
func Validate(password, confirm string) error {
	return validate.CheckPassword(password, confirm)
}
