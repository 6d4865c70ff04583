// SPDX-FileCopyrightText: 2012 - 2026 Tails developers <tails@boum.org>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package persistence

import (
	"fmt"

	"github.com/linuxdeepin/go-lib/gettext"
)

// WrongPassphraseError is returned when cryptsetup could not open the
// container, most likely because of a wrong passphrase.
type WrongPassphraseError struct {
	Result
}

func (e *WrongPassphraseError) Error() string {
	return fmt.Sprintf(gettext.Tr("cryptsetup failed with return code %d:\n%s\n%s"),
		e.ExitCode, e.Stdout, e.Stderr)
}

// LivePersistError is returned when live-persist exits with an error.
type LivePersistError struct {
	Result
}

func (e *LivePersistError) Error() string {
	return fmt.Sprintf(gettext.Tr("live-persist failed with return code %d:\n%s\n%s"),
		e.ExitCode, e.Stdout, e.Stderr)
}
