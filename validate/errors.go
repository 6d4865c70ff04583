// SPDX-FileCopyrightText: 2012 - 2026 Tails developers <tails@boum.org>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package validate

import (
	"fmt"
	"sort"
	"strings"
)

// Code is the outcome of validating one value.
type Code uint

const (
	NoError Code = iota
	InvalidType
	InvalidPattern
	InvalidMinLength
	InvalidMaxLength
	InvalidMatch
	InvalidValue
	InvalidNode
	InvalidEnumeration
	InvalidMinRange
	InvalidMaxRange
	InvalidNumber
	InvalidComplex
	InvalidExist
	InvalidMinOccurs
	InvalidMaxOccurs
	InvalidCustom
	Critical
)

var codeMessages = map[Code][2]string{
	NoError:            {"OK", ""},
	InvalidType:        {"Invalid Node Type", ""},
	InvalidPattern:     {"Invalid Pattern", "Regex Pattern failed"},
	InvalidMinLength:   {"Invalid MinLength", "Not enough nodes present"},
	InvalidMaxLength:   {"Invalid MaxLength", "Too many nodes present"},
	InvalidMatch:       {"Invalid Match", "Node to Node match failed"},
	InvalidValue:       {"Invalid Value", "Fixed string did not match"},
	InvalidNode:        {"Invalid Node", "Required data does not exist for this node"},
	InvalidEnumeration: {"Invalid Enum", "Data not equal to any values supplied"},
	InvalidMinRange:    {"Invalid Number", "Less than allowable range"},
	InvalidMaxRange:    {"Invalid Number", "Greater than allowable range"},
	InvalidNumber:      {"Invalid Number", "Data is not a real number"},
	InvalidComplex:     {"Invalid Complex Type", "Failed to validate Complex Type"},
	InvalidExist:       {"Invalid Exists", "Data didn't exist, and should."},
	InvalidMinOccurs:   {"Invalid Occurs", "Minimum number of occurrences not met"},
	InvalidMaxOccurs:   {"Invalid Occurs", "Maximum number of occurrences exceeded"},
	InvalidCustom:      {"Invalid Custom Filter", "Method returned false"},
	Critical:           {"Critical Problem", ""},
}

func (c Code) String() string {
	msg, ok := codeMessages[c]
	if !ok {
		return "Invalid error code"
	}
	if msg[1] == "" {
		return msg[0]
	}
	return msg[0] + " " + msg[1]
}

func (c Code) Failed() bool {
	return c != NoError
}

// Result is the validation outcome of an element: a Code for a single value,
// Results for repeated values, *Errors for a complex value.
type Result interface {
	Failed() bool
}

// Results holds the failures of a repeated element.
type Results []Result

func (r Results) Failed() bool {
	return len(r) > 0
}

type Mode int

const (
	// ModeAnd fails when any element fails.
	ModeAnd Mode = iota
	// ModeOr fails when every element fails.
	ModeOr
)

func (m Mode) toggle() Mode {
	if m == ModeOr {
		return ModeAnd
	}
	return ModeOr
}

// Errors mirrors the structure of the validated data, one Result per
// element name.
type Errors struct {
	mode    Mode
	fields  map[string]Result
	own     map[string]bool
	groups  []*Errors
	added   int
	inError int
}

func newErrors(mode Mode) *Errors {
	return &Errors{
		mode:   mode,
		fields: make(map[string]Result),
		own:    make(map[string]bool),
	}
}

func (e *Errors) count(r Result, delta int) {
	if r.Failed() {
		e.inError += delta
	}
	e.added += delta
}

func (e *Errors) set(name string, r Result) {
	if old, ok := e.fields[name]; ok {
		e.count(old, -1)
	}
	e.fields[name] = r
	e.own[name] = true
	e.count(r, 1)
}

// merge adds the fields of a nested group, the group counts as one element.
func (e *Errors) merge(group *Errors) {
	for name, r := range group.fields {
		e.fields[name] = r
	}
	e.groups = append(e.groups, group)
	e.count(group, 1)
}

func (e *Errors) Failed() bool {
	if e.mode == ModeOr && e.added > 0 {
		return e.inError >= e.added
	}
	return e.inError != 0
}

// Get returns the result of the element name.
func (e *Errors) Get(name string) (Result, bool) {
	r, ok := e.fields[name]
	return r, ok
}

// Code returns the code of a single-valued element, NoError if it is unknown
// or not single-valued.
func (e *Errors) Code(name string) Code {
	c, _ := e.fields[name].(Code)
	return c
}

func (e *Errors) Names() []string {
	names := make([]string, 0, len(e.fields))
	for name := range e.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FieldError reports the first failing element of a validation.
type FieldError struct {
	Path string
	Code Code
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Code)
}

// Err returns nil when the validation passed, a *FieldError naming the
// first failing element otherwise.
func (e *Errors) Err() error {
	if !e.Failed() {
		return nil
	}
	if fe := firstFailure(e, nil); fe != nil {
		return fe
	}
	return &FieldError{Code: Critical}
}

func firstFailure(r Result, path []string) *FieldError {
	switch v := r.(type) {
	case Code:
		if v.Failed() {
			return &FieldError{Path: "/" + strings.Join(path, "/"), Code: v}
		}
	case Results:
		for _, item := range v {
			if fe := firstFailure(item, path); fe != nil {
				return fe
			}
		}
	case *Errors:
		if !v.Failed() {
			return nil
		}
		for _, name := range v.Names() {
			if !v.own[name] {
				continue
			}
			if fe := firstFailure(v.fields[name], append(path, name)); fe != nil {
				return fe
			}
		}
		for _, group := range v.groups {
			if !group.Failed() {
				continue
			}
			if fe := firstFailure(group, path); fe != nil {
				return fe
			}
		}
	}
	return nil
}
