// SPDX-FileCopyrightText: 2012 - 2026 Tails developers <tails@boum.org>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package validate

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	libdate "github.com/rickb777/date"
)

// SimpleType validates a scalar value.
type SimpleType struct {
	Base         string   `yaml:"base"`
	Fixed        *string  `yaml:"fixed"`
	Pattern      string   `yaml:"pattern"`
	MinLength    *int     `yaml:"minLength"`
	MaxLength    *int     `yaml:"maxLength"`
	Match        string   `yaml:"match"`
	NotMatch     string   `yaml:"notMatch"`
	Enumeration  []string `yaml:"enumeration"`
	MinInclusive *float64 `yaml:"minInclusive"`
	MaxInclusive *float64 `yaml:"maxInclusive"`
	MinExclusive *float64 `yaml:"minExclusive"`
	MaxExclusive *float64 `yaml:"maxExclusive"`
	// Custom names a function registered with RegisterCustom.
	Custom string `yaml:"custom"`

	re *regexp.Regexp
}

// Element is an entry of a complex type. An element with Group set is a
// nested list validated in the other combination mode.
type Element struct {
	Name      string    `yaml:"name"`
	Type      string    `yaml:"type"`
	MinOccurs *int      `yaml:"minOccurs"`
	MaxOccurs string    `yaml:"maxOccurs"`
	Fixed     *string   `yaml:"fixed"`
	Default   *string   `yaml:"default"`
	MinLength *int      `yaml:"minLength"`
	MaxLength *int      `yaml:"maxLength"`
	Group     []Element `yaml:"group"`
}

const unbounded = "unbounded"

func (e *Element) minOccurs() int {
	if e.MinOccurs == nil {
		return 1
	}
	return *e.MinOccurs
}

func (e *Element) typeName() string {
	if e.Type == "" {
		return "string"
	}
	return e.Type
}

func (t *SimpleType) regexp() (*regexp.Regexp, error) {
	if t.re == nil && t.Pattern != "" {
		re, err := regexp.Compile("^(?:" + t.Pattern + ")$")
		if err != nil {
			return nil, err
		}
		t.re = re
	}
	return t.re, nil
}

func floatPtr(v float64) *float64 { return &v }

func builtinTypes() map[string]*SimpleType {
	return map[string]*SimpleType{
		"string":     {Pattern: `.*`},
		"integer":    {Pattern: `[\-]{0,1}\d+`},
		"index":      {Pattern: `\d+`},
		"double":     {Pattern: `[0-9\-\.]*`},
		"token":      {Base: "string", Pattern: `\w+`},
		"boolean":    {Pattern: `1|0|true|false`},
		"email":      {Pattern: `.+@.+\..+`},
		"date":       {Pattern: `\d\d\d\d-\d\d-\d\d`, Base: "datetime"},
		"time":       {Pattern: `\d\d:\d\d:\d\d`, Base: "datetime"},
		"datetime":   {Pattern: `(\d\d\d\d-\d\d-\d\d)?[T ]?(\d\d:\d\d:\d\d)?`, Custom: "datetime"},
		"percentage": {Base: "double", MinInclusive: floatPtr(0), MaxInclusive: floatPtr(100)},
	}
}

// CustomFunc is an extra check of a simple type.
type CustomFunc func(value string, t *SimpleType) Code

var customFuncs = map[string]CustomFunc{
	"datetime": checkDatetime,
}

// RegisterCustom makes fn available to simple types as custom: name.
func RegisterCustom(name string, fn CustomFunc) {
	customFuncs[name] = fn
}

// checkDatetime accepts "YYYY-MM-DD", "HH:MM:SS" and "YYYY-MM-DD HH:MM:SS"
// naming an existing day and time.
func checkDatetime(value string, t *SimpleType) Code {
	hasDate := strings.Contains(value, "-")
	hasTime := strings.Contains(value, ":")
	var datePart, timePart string
	switch {
	case hasDate && hasTime:
		parts := strings.SplitN(value, " ", 2)
		if len(parts) != 2 {
			return InvalidCustom
		}
		datePart, timePart = parts[0], parts[1]
	case hasDate:
		datePart = value
	case hasTime:
		timePart = value
	default:
		return InvalidCustom
	}

	if datePart != "" && !isCalendarDate(datePart) {
		return InvalidCustom
	}
	if timePart != "" {
		if _, err := time.Parse("15:04:05", timePart); err != nil {
			return InvalidCustom
		}
	}
	return NoError
}

func isCalendarDate(value string) bool {
	fields := strings.Split(value, "-")
	if len(fields) != 3 {
		return false
	}
	var nums [3]int
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return false
		}
		nums[i] = n
	}
	year, month, day := nums[0], nums[1], nums[2]
	if month < 1 || month > 12 || day < 1 {
		return false
	}
	// New normalizes out-of-range days into the next month
	d := libdate.New(year, time.Month(month), day)
	return d.Year() == year && d.Month() == time.Month(month) && d.Day() == day
}
