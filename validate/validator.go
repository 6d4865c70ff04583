// SPDX-FileCopyrightText: 2012 - 2026 Tails developers <tails@boum.org>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package validate checks nested form data against a definition of simple
// and complex types, in the manner of XML schemas.
package validate

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/linuxdeepin/go-lib/log"
	"github.com/linuxdeepin/go-lib/strv"
	"golang.org/x/xerrors"
	"gopkg.in/yaml.v3"
)

var logger = log.NewLogger("greeter/validate")

func SetLogLevel(level log.Priority) {
	logger.SetLogLevel(level)
}

var (
	ErrNoRoot = errors.New("no root document definition")
	ErrNoData = errors.New("no data provided")
)

// Definition is the document a Validator checks data against. Data is a
// map of element names to strings, lists or nested maps.
type Definition struct {
	Root         []Element              `yaml:"root"`
	SimpleTypes  map[string]*SimpleType `yaml:"simpleTypes"`
	ComplexTypes map[string][]Element   `yaml:"complexTypes"`
	// Include lists definition files merged into this one.
	Include []string `yaml:"include"`
}

type Validator struct {
	def  *Definition
	root map[string]interface{}
}

func New(def *Definition) (*Validator, error) {
	if def == nil {
		def = &Definition{}
	}
	merged := &Definition{
		Root:         def.Root,
		SimpleTypes:  builtinTypes(),
		ComplexTypes: make(map[string][]Element),
	}
	for _, filename := range def.Include {
		inc, err := loadDefinitionFile(filename)
		if err != nil {
			return nil, xerrors.Errorf("load include %s: %w", filename, err)
		}
		merged.mergeTypes(inc)
	}
	merged.mergeTypes(def)

	for name, t := range merged.SimpleTypes {
		if _, err := t.regexp(); err != nil {
			return nil, xerrors.Errorf("simple type %s: %w", name, err)
		}
	}
	return &Validator{def: merged}, nil
}

func (d *Definition) mergeTypes(src *Definition) {
	for name, t := range src.SimpleTypes {
		d.SimpleTypes[name] = t
	}
	for name, elements := range src.ComplexTypes {
		d.ComplexTypes[name] = elements
	}
}

// Parse reads a YAML definition.
func Parse(content []byte) (*Validator, error) {
	var def Definition
	err := yaml.Unmarshal(content, &def)
	if err != nil {
		return nil, xerrors.Errorf("parse definition: %w", err)
	}
	return New(&def)
}

func LoadFile(filename string) (*Validator, error) {
	def, err := loadDefinitionFile(filename)
	if err != nil {
		return nil, err
	}
	return New(def)
}

func loadDefinitionFile(filename string) (*Definition, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	var def Definition
	err = yaml.Unmarshal(content, &def)
	if err != nil {
		return nil, xerrors.Errorf("parse %s: %w", filename, err)
	}
	return &def, nil
}

// Validate checks data against the root of the definition.
func (v *Validator) Validate(data map[string]interface{}) (*Errors, error) {
	if len(v.def.Root) == 0 {
		return nil, ErrNoRoot
	}
	if len(data) == 0 {
		return nil, ErrNoData
	}
	v.root = data
	defer func() { v.root = nil }()
	return v.validateElements(v.def.Root, data, ModeAnd), nil
}

func (v *Validator) validateElements(elements []Element, data map[string]interface{}, mode Mode) *Errors {
	errs := newErrors(mode)
	for i := range elements {
		elem := &elements[i]
		if len(elem.Group) > 0 {
			errs.merge(v.validateElements(elem.Group, data, mode.toggle()))
			continue
		}
		if elem.Name == "" {
			continue
		}
		value, ok := data[elem.Name]
		if !ok {
			value = nil
		}
		errs.set(elem.Name, v.validateElement(elem, value))
	}
	return errs
}

func (v *Validator) validateElement(elem *Element, value interface{}) Result {
	var values []interface{}
	single := false
	switch val := value.(type) {
	case nil:
	case []interface{}:
		values = val
	case []string:
		for _, s := range val {
			values = append(values, s)
		}
	default:
		single = true
		values = []interface{}{val}
	}

	minOccurs := elem.minOccurs()
	if value == nil {
		if minOccurs >= 1 {
			return InvalidExist
		}
		return NoError
	}
	if minOccurs > len(values) {
		return InvalidMinOccurs
	}
	maxOccurs := 1
	if elem.MaxOccurs == unbounded {
		maxOccurs = -1
	} else if elem.MaxOccurs != "" {
		n, err := strconv.Atoi(elem.MaxOccurs)
		if err != nil {
			logger.Warningf("invalid maxOccurs %q of %s", elem.MaxOccurs, elem.Name)
			return Critical
		}
		maxOccurs = n
	}
	if maxOccurs >= 0 && len(values) > maxOccurs {
		return InvalidMaxOccurs
	}

	var results Results
	for _, item := range values {
		if item == nil && elem.Default != nil {
			item = *elem.Default
		}
		if elem.Fixed != nil {
			s, ok := item.(string)
			if !ok || s != *elem.Fixed {
				results = append(results, InvalidValue)
				continue
			}
		}
		r := v.validateType(elem.typeName(), item, elem.MinLength, elem.MaxLength)
		if r.Failed() {
			results = append(results, r)
		}
	}

	if len(results) == 0 {
		return NoError
	}
	if single {
		return results[0]
	}
	return results
}

func scalarString(value interface{}) (string, bool) {
	switch val := value.(type) {
	case string:
		return val, true
	case int, int64, float64, bool:
		return fmt.Sprint(val), true
	}
	return "", false
}

func (v *Validator) validateType(typeName string, value interface{}, minLength, maxLength *int) Result {
	if st, ok := v.def.SimpleTypes[typeName]; ok {
		s, ok := scalarString(value)
		if !ok {
			return InvalidType
		}
		return v.validateSimple(st, s, minLength, maxLength)
	}
	if ct, ok := v.def.ComplexTypes[typeName]; ok {
		m, ok := value.(map[string]interface{})
		if !ok {
			return InvalidComplex
		}
		return v.validateElements(ct, m, ModeAnd)
	}
	logger.Warningf("can not find type definition %q", typeName)
	return Critical
}

// ValidateValue checks a single value against the simple type typeName.
func (v *Validator) ValidateValue(typeName, value string) Code {
	st, ok := v.def.SimpleTypes[typeName]
	if !ok {
		logger.Warningf("can not find simple type %q", typeName)
		return Critical
	}
	return v.validateSimple(st, value, nil, nil)
}

func (v *Validator) validateSimple(st *SimpleType, value string, minLength, maxLength *int) Code {
	if st.Base != "" {
		if code := v.ValidateValue(st.Base, value); code.Failed() {
			return code
		}
	}

	re, err := st.regexp()
	if err != nil {
		return Critical
	}
	if re != nil && !re.MatchString(value) {
		return InvalidPattern
	}

	if st.Custom != "" {
		fn, ok := customFuncs[st.Custom]
		if !ok {
			logger.Warningf("unknown custom check %q", st.Custom)
			return Critical
		}
		if code := fn(value, st); code.Failed() {
			return code
		}
	}

	if st.Fixed != nil && value != *st.Fixed {
		return InvalidValue
	}

	if maxLength == nil {
		maxLength = st.MaxLength
	}
	if minLength == nil {
		minLength = st.MinLength
	}
	length := len([]rune(value))
	if maxLength != nil && length > *maxLength {
		return InvalidMaxLength
	}
	if minLength != nil && length < *minLength {
		return InvalidMinLength
	}

	if st.Match != "" {
		other, ok := v.findValue(st.Match)
		if !ok || other != value {
			return InvalidMatch
		}
	}
	if st.NotMatch != "" {
		other, ok := v.findValue(st.NotMatch)
		if ok && other == value {
			return InvalidMatch
		}
	}

	if len(st.Enumeration) > 0 && !strv.Strv(st.Enumeration).Contains(value) {
		return InvalidEnumeration
	}

	return checkRange(st, value)
}

func checkRange(st *SimpleType, value string) Code {
	if st.MinInclusive == nil && st.MaxInclusive == nil &&
		st.MinExclusive == nil && st.MaxExclusive == nil {
		return NoError
	}
	n, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return InvalidNumber
	}
	switch {
	case st.MinInclusive != nil && n < *st.MinInclusive:
		return InvalidMinRange
	case st.MaxInclusive != nil && n > *st.MaxInclusive:
		return InvalidMaxRange
	case st.MinExclusive != nil && n <= *st.MinExclusive:
		return InvalidMinRange
	case st.MaxExclusive != nil && n >= *st.MaxExclusive:
		return InvalidMaxRange
	}
	return NoError
}

// findValue resolves a path such as /input/password in the data being
// validated.
func (v *Validator) findValue(path string) (string, bool) {
	var node interface{} = v.root
	for _, segment := range strings.Split(strings.Trim(path, "/"), "/") {
		m, ok := node.(map[string]interface{})
		if !ok {
			logger.Warningf("can't find nodes for %q", path)
			return "", false
		}
		node, ok = m[segment]
		if !ok {
			logger.Warningf("can't find nodes for %q", path)
			return "", false
		}
	}
	return scalarString(node)
}
