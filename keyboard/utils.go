// SPDX-FileCopyrightText: 2012 - 2026 Tails developers <tails@boum.org>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package keyboard

import (
	"errors"
	"os/exec"
	"regexp"
	"strings"

	"github.com/linuxdeepin/go-lib/log"
)

var logger = log.NewLogger("greeter/keyboard")

func SetLogLevel(level log.Priority) {
	logger.SetLogLevel(level)
}

func doAction(name string, args ...string) error {
	out, err := exec.Command(name, args...).CombinedOutput()
	if err != nil {
		msg := strings.TrimSpace(string(out))
		if msg == "" {
			return err
		}
		return errors.New(msg)
	}
	return nil
}

var codeRegexp = regexp.MustCompile(`^[A-Za-z0-9_-]+(/[A-Za-z0-9_-]+)?$`)

// ValidCode reports whether code has the form of an XKB "layout" or
// "layout/variant" code.
func ValidCode(code string) bool {
	return codeRegexp.MatchString(code)
}
