// SPDX-FileCopyrightText: 2012 - 2026 Tails developers <tails@boum.org>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package keyboard

import (
	"strings"
)

// Indicator returns the short label of the layout active in group, e.g.
// "FR" for the second group of ["us", "fr"]. The registry short
// description is preferred when there is one.
func Indicator(registry *Registry, rec *ConfigRec, group int) string {
	if rec == nil || group < 0 || group >= len(rec.Layouts) {
		return ""
	}
	name := rec.Layouts[group]
	if registry != nil {
		if l, ok := registry.Get(name); ok && l.ShortDescription != "" {
			return strings.ToUpper(l.ShortDescription)
		}
	}
	return strings.ToUpper(name)
}
