// SPDX-FileCopyrightText: 2012 - 2026 Tails developers <tails@boum.org>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package validate

import (
	"testing"

	C "gopkg.in/check.v1"
)

func Test(t *testing.T) {
	C.TestingT(t)
}

type mySuite struct {
	v *Validator
}

var _ = C.Suite(&mySuite{})

func (s *mySuite) SetUpTest(c *C.C) {
	v, err := LoadFile("testdata/newuser.yaml")
	c.Assert(err, C.IsNil)
	s.v = v
}

func validUser() map[string]interface{} {
	return map[string]interface{}{
		"input": map[string]interface{}{
			"username":     "abcdef",
			"password":     "1234567",
			"confirm":      "1234567",
			"firstName":    "test",
			"familyName":   "user",
			"emailAddress": []interface{}{"foo@bar.com", "some@other.or"},
			"jabber":       "foo@jabber.org",
		},
		"foo": "extra content",
	}
}

func (s *mySuite) input(c *C.C, data map[string]interface{}) *Errors {
	errs, err := s.v.Validate(data)
	c.Assert(err, C.IsNil)
	r, ok := errs.Get("input")
	c.Assert(ok, C.Equals, true)
	inputErrs, ok := r.(*Errors)
	c.Assert(ok, C.Equals, true)
	return inputErrs
}

func (s *mySuite) TestValid(c *C.C) {
	errs, err := s.v.Validate(validUser())
	c.Assert(err, C.IsNil)
	c.Check(errs.Failed(), C.Equals, false)
	c.Check(errs.Err(), C.IsNil)
}

func (s *mySuite) TestFieldCodes(c *C.C) {
	tests := []struct {
		field string
		value interface{}
		code  Code
	}{
		{"username", "not a token", InvalidPattern},
		{"password", "12345", InvalidMinLength},
		{"confirm", "7654321", InvalidMatch},
		{"firstName", "", InvalidMinLength},
		{"level", "extreme", InvalidEnumeration},
		{"level", "high", NoError},
		{"age", "0", InvalidMinRange},
		{"age", "150", InvalidMaxRange},
		{"age", "42", NoError},
		{"birthday", "2019-02-29", InvalidCustom},
		{"birthday", "2020-02-29", NoError},
		{"birthday", "2020-2-29", InvalidPattern},
		{"emailAddress", "nobody", InvalidPattern},
		{"username", map[string]interface{}{"a": "b"}, InvalidType},
	}
	for _, tt := range tests {
		data := validUser()
		data["input"].(map[string]interface{})[tt.field] = tt.value
		errs := s.input(c, data)
		c.Check(errs.Code(tt.field), C.Equals, tt.code, C.Commentf("%s=%v", tt.field, tt.value))
	}
}

func (s *mySuite) TestOccurs(c *C.C) {
	data := validUser()
	input := data["input"].(map[string]interface{})
	delete(input, "username")
	input["emailAddress"] = []interface{}{"a@b.c", "d@e.f", "g@h.i", "j@k.l"}
	errs := s.input(c, data)
	c.Check(errs.Code("username"), C.Equals, InvalidExist)
	c.Check(errs.Code("emailAddress"), C.Equals, InvalidMaxOccurs)

	input["emailAddress"] = []interface{}{}
	errs = s.input(c, data)
	c.Check(errs.Code("emailAddress"), C.Equals, InvalidMinOccurs)

	// optional element
	delete(input, "familyName")
	errs = s.input(c, data)
	c.Check(errs.Code("familyName"), C.Equals, NoError)
}

func (s *mySuite) TestRepeatedResults(c *C.C) {
	data := validUser()
	data["input"].(map[string]interface{})["emailAddress"] = []interface{}{"ok@example.org", "broken"}
	errs := s.input(c, data)
	r, _ := errs.Get("emailAddress")
	c.Check(r, C.DeepEquals, Results{InvalidPattern})
	c.Check(errs.Failed(), C.Equals, true)
}

func (s *mySuite) TestGroupIsAlternative(c *C.C) {
	data := validUser()
	input := data["input"].(map[string]interface{})
	// one of the group is enough
	errs := s.input(c, data)
	c.Check(errs.Failed(), C.Equals, false)
	c.Check(errs.Code("aim"), C.Equals, InvalidExist)

	delete(input, "jabber")
	errs = s.input(c, data)
	c.Check(errs.Failed(), C.Equals, true)
}

func (s *mySuite) TestErr(c *C.C) {
	data := validUser()
	data["input"].(map[string]interface{})["confirm"] = "nope"
	errs, err := s.v.Validate(data)
	c.Assert(err, C.IsNil)
	fe, ok := errs.Err().(*FieldError)
	c.Assert(ok, C.Equals, true)
	c.Check(fe.Path, C.Equals, "/input/confirm")
	c.Check(fe.Code, C.Equals, InvalidMatch)
}

func (s *mySuite) TestNoData(c *C.C) {
	_, err := s.v.Validate(nil)
	c.Check(err, C.Equals, ErrNoData)

	empty, err := New(nil)
	c.Assert(err, C.IsNil)
	_, err = empty.Validate(validUser())
	c.Check(err, C.Equals, ErrNoRoot)
}

func (s *mySuite) TestBuiltinTypes(c *C.C) {
	tests := []struct {
		typ   string
		value string
		code  Code
	}{
		{"string", "anything at all", NoError},
		{"integer", "-12", NoError},
		{"integer", "1.5", InvalidPattern},
		{"index", "-1", InvalidPattern},
		{"double", "3.14", NoError},
		{"token", "abc_123", NoError},
		{"boolean", "true", NoError},
		{"boolean", "yes", InvalidPattern},
		{"email", "user@example.org", NoError},
		{"date", "2021-12-31", NoError},
		{"date", "2021-13-01", InvalidCustom},
		{"time", "23:59:59", NoError},
		{"time", "24:00:00", InvalidCustom},
		{"time", "12:00", InvalidPattern},
		{"datetime", "2021-12-31 10:00:00", NoError},
		{"datetime", "2021-12-31T10:00:00", InvalidCustom},
		{"percentage", "55.5", NoError},
		{"percentage", "101", InvalidMaxRange},
		{"percentage", "-1", InvalidMinRange},
		{"nosuchtype", "", Critical},
	}
	for _, tt := range tests {
		c.Check(s.v.ValidateValue(tt.typ, tt.value), C.Equals, tt.code,
			C.Commentf("%s %q", tt.typ, tt.value))
	}
}

func (s *mySuite) TestParseError(c *C.C) {
	_, err := Parse([]byte("simpleTypes:\n  bad:\n    pattern: '('\n"))
	c.Check(err, C.NotNil)
}

func (s *mySuite) TestCodeString(c *C.C) {
	c.Check(NoError.String(), C.Equals, "OK")
	c.Check(InvalidMatch.String(), C.Equals, "Invalid Match Node to Node match failed")
	c.Check(Code(0x40).String(), C.Equals, "Invalid error code")
}

func (s *mySuite) TestForms(c *C.C) {
	c.Check(CheckPassword("", ""), C.IsNil)
	c.Check(CheckPassword("secret", "secret"), C.IsNil)

	err := CheckPassword("secret", "other")
	fe, ok := err.(*FieldError)
	c.Assert(ok, C.Equals, true)
	c.Check(fe.Code, C.Equals, InvalidMatch)

	c.Check(CheckPassword("secret", ""), C.NotNil)
	c.Check(CheckPassword("", "secret"), C.NotNil)

	c.Check(CheckPassphrase("passphrase"), C.IsNil)
	fe, ok = CheckPassphrase("").(*FieldError)
	c.Assert(ok, C.Equals, true)
	c.Check(fe.Code, C.Equals, InvalidExist)
}
