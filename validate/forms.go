// SPDX-FileCopyrightText: 2012 - 2026 Tails developers <tails@boum.org>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package validate

import "sync"

const formsDefinition = `
root:
  - name: options
    type: options
    minOccurs: 0
  - name: persistence
    type: persistence
    minOccurs: 0

simpleTypes:
  password:
    base: string
    minLength: 1
  confirm:
    base: string
    match: /options/password
  passphrase:
    base: string
    minLength: 1

complexTypes:
  options:
    - name: password
      type: password
      minOccurs: 0
    - name: confirm
      type: confirm
      minOccurs: 0
  persistence:
    - name: passphrase
      type: passphrase
`

var (
	formsOnce      sync.Once
	formsValidator *Validator
	formsMu        sync.Mutex
)

func forms() *Validator {
	formsOnce.Do(func() {
		v, err := Parse([]byte(formsDefinition))
		if err != nil {
			panic(err)
		}
		formsValidator = v
	})
	return formsValidator
}

func validateForm(data map[string]interface{}) error {
	formsMu.Lock()
	defer formsMu.Unlock()
	errs, err := forms().Validate(data)
	if err != nil {
		return err
	}
	return errs.Err()
}

// CheckPassword checks the administration password form. An empty password
// with an empty confirmation disables the password.
func CheckPassword(password, confirm string) error {
	options := make(map[string]interface{})
	if password != "" || confirm != "" {
		options["password"] = password
		options["confirm"] = confirm
	}
	return validateForm(map[string]interface{}{"options": options})
}

// CheckPassphrase checks the persistence unlock form.
func CheckPassphrase(passphrase string) error {
	persistence := make(map[string]interface{})
	if passphrase != "" {
		persistence["passphrase"] = passphrase
	}
	return validateForm(map[string]interface{}{"persistence": persistence})
}
