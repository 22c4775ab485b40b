// Package validation gates registration and login input before any network call.
//
// Validators are pure functions. Form carries the per-form state: field values,
// the terms and newsletter toggles and the one-shot email format latch.
package validation

import (
	"regexp"
	"unicode/utf16"
)

// MinPasswordLength is the shortest password the identity provider accepts
const MinPasswordLength = 6

// emailPattern accepts local-part@domain.tld shaped addresses with optional single
// dot or hyphen separators and a final segment of two or three characters
var emailPattern = regexp.MustCompile(`^\w+([.-]?\w+)*@\w+([.-]?\w+)*(\.\w{2,3})+$`)

// Context selects which rules a form applies
type Context int

const (
	// Registration checks name, nickname, email (with format), password and terms
	Registration Context = iota
	// Login checks presence of email and password only, plus password length
	Login
)

// String returns the context name
func (c Context) String() string {
	if c == Login {
		return "login"
	}
	return "register"
}

// Field names an input of a form
type Field string

const (
	FieldName       Field = "name"
	FieldNickname   Field = "nickname"
	FieldEmail      Field = "email"
	FieldPassword   Field = "password"
	FieldTerms      Field = "terms"
	FieldNewsletter Field = "newsletter"
)

// Warning identifies which message the presentation layer should surface
type Warning string

const (
	WarningRequired       Warning = "required"
	WarningEmailFormat    Warning = "email_format"
	WarningPasswordLength Warning = "password_length"
	WarningTermsRequired  Warning = "terms_required"
)

// IsPresent reports whether a field value was supplied
func IsPresent(value string) bool {
	return value != ""
}

// IsEmailFormat reports whether value looks like an email address
func IsEmailFormat(value string) bool {
	return emailPattern.MatchString(value)
}

// IsPasswordLongEnough reports whether value is at least MinPasswordLength
// long, measured in UTF-16 code units as browser clients measure it. A
// character outside the Basic Multilingual Plane counts twice.
func IsPasswordLongEnough(value string) bool {
	n := 0
	for _, r := range value {
		n += utf16.RuneLen(r)
	}
	return n >= MinPasswordLength
}

// State is the derived validation state of a single field
type State struct {
	Field   Field
	Present bool
	// FormatChecked is false when no format rule applied, either because the
	// field has none, the email latch is off, or presence already failed
	FormatChecked bool
	FormatValid   bool
	Warnings      []Warning
}

// Valid reports whether every evaluated rule passed
func (s State) Valid() bool {
	return s.Present && (!s.FormatChecked || s.FormatValid)
}

// Result is the outcome of a whole-form check
type Result struct {
	Valid  bool
	States []State
}

// State returns the state recorded for field
func (r Result) State(field Field) (State, bool) {
	for _, s := range r.States {
		if s.Field == field {
			return s, true
		}
	}
	return State{}, false
}

// Warnings returns the warnings to display, keyed by field
func (r Result) Warnings() map[Field][]Warning {
	out := make(map[Field][]Warning)
	for _, s := range r.States {
		if len(s.Warnings) > 0 {
			out[s.Field] = s.Warnings
		}
	}
	return out
}

// Toggle is a two-valued checkbox. Each interaction inverts it, and the value is
// the checked marker, so the two can never drift apart.
type Toggle struct {
	on bool
}

// Flip inverts the toggle and returns the new value
func (t *Toggle) Flip() bool {
	t.on = !t.on
	return t.on
}

// Value returns whether the toggle is checked
func (t Toggle) Value() bool {
	return t.on
}
