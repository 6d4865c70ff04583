// SPDX-FileCopyrightText: 2012 - 2026 Tails developers <tails@boum.org>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package gdm is the client side of the GDM greeter protocol: it follows the
// GreeterServer signals and logs the live user in.
package gdm

import "github.com/linuxdeepin/go-lib/log"

var logger = log.NewLogger("greeter/gdm")

func SetLogLevel(level log.Priority) {
	logger.SetLogLevel(level)
}
