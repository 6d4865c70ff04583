// SPDX-FileCopyrightText: 2012 - 2026 Tails developers <tails@boum.org>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package greeter

// Setters are called with PropsMu held.

func (v *Greeter) emitPropChanged(name string, value interface{}) {
	if v.service == nil {
		return
	}
	err := v.service.EmitPropertyChanged(v, name, value)
	if err != nil {
		logger.Warningf("failed to emit %s changed: %v", name, err)
	}
}

func (v *Greeter) setPropReady(value bool) (changed bool) {
	if v.Ready != value {
		v.Ready = value
		v.emitPropChanged("Ready", value)
		return true
	}
	return false
}

func (v *Greeter) setPropCurrentLanguage(value string) (changed bool) {
	if v.CurrentLanguage != value {
		v.CurrentLanguage = value
		v.emitPropChanged("CurrentLanguage", value)
		return true
	}
	return false
}

func (v *Greeter) setPropCurrentLocale(value string) (changed bool) {
	if v.CurrentLocale != value {
		v.CurrentLocale = value
		v.emitPropChanged("CurrentLocale", value)
		return true
	}
	return false
}

func (v *Greeter) setPropCurrentLayout(value string) (changed bool) {
	if v.CurrentLayout != value {
		v.CurrentLayout = value
		v.emitPropChanged("CurrentLayout", value)
		return true
	}
	return false
}

func (v *Greeter) setPropCurrentVariant(value string) (changed bool) {
	if v.CurrentVariant != value {
		v.CurrentVariant = value
		v.emitPropChanged("CurrentVariant", value)
		return true
	}
	return false
}

func (v *Greeter) setPropPersistenceActivated(value bool) (changed bool) {
	if v.PersistenceActivated != value {
		v.PersistenceActivated = value
		v.emitPropChanged("PersistenceActivated", value)
		return true
	}
	return false
}

func (v *Greeter) setPropMacSpoof(value bool) (changed bool) {
	if v.MacSpoof != value {
		v.MacSpoof = value
		v.emitPropChanged("MacSpoof", value)
		return true
	}
	return false
}
