// Package texts holds the user-facing strings of the leaderboard screens.
package texts

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/mcoot/leaderboard/internal/model"
	"github.com/mcoot/leaderboard/internal/validation"
)

// Catalogue is the full set of screen texts. JSON names follow the
// configuration format embedders already use, so existing override files load as-is.
type Catalogue struct {
	Welcome     Welcome     `json:"welcome"`
	Leaderboard Leaderboard `json:"leaderBoard"`
	Register    Register    `json:"register"`
	Login       Login       `json:"login"`
	Errors      Errors      `json:"errors"`
	Warnings    Warnings    `json:"warnings"`
	Auth        Auth        `json:"auth"`
}

type Welcome struct {
	Title string `json:"title"`
	Text  string `json:"text"`
	Close string `json:"close"`
}

type Leaderboard struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Close    string `json:"close"`
}

type Register struct {
	Title               string `json:"title"`
	Name                string `json:"name"`
	NamePlaceholder     string `json:"namePlaceholder"`
	Nickname            string `json:"nickname"`
	NicknamePlaceholder string `json:"nicknamePlaceholder"`
	Email               string `json:"email"`
	EmailPlaceholder    string `json:"emailPlaceholder"`
	Pass                string `json:"pass"`
	PassPlaceholder     string `json:"passPlaceholder"`
	Accept              string `json:"accept"`
	Privacy             string `json:"privacy"`
	And                 string `json:"and"`
	Terms               string `json:"terms"`
	Newsletter          string `json:"newsletter"`
	Start               string `json:"start"`
	Account             string `json:"account"`
	Login               string `json:"login"`
}

type Login struct {
	Login            string `json:"login"`
	Subheader        string `json:"subheader"`
	Email            string `json:"email"`
	EmailPlaceholder string `json:"emailPlaceholder"`
	Pass             string `json:"pass"`
	PassPlaceholder  string `json:"passPlaceholder"`
	Start            string `json:"start"`
	Account          string `json:"account"`
	Register         string `json:"register"`
}

// Errors are the presence messages per field
type Errors struct {
	Name     string `json:"name"`
	Nickname string `json:"nickname"`
	Email    string `json:"email"`
	Pass     string `json:"pass"`
}

type Warnings struct {
	EmailFormat string `json:"emailFormat"`
	EmailUsed   string `json:"emailUsed"`
	PassLength  string `json:"passLength"`
	Terms       string `json:"terms"`
}

// Auth are the messages shown for classified identity and store failures
type Auth struct {
	NoSuchUser         string `json:"noSuchUser"`
	InvalidEmailFormat string `json:"invalidEmailFormat"`
	EmailInUse         string `json:"emailInUse"`
	WeakPassword       string `json:"weakPassword"`
	Unknown            string `json:"unknown"`
}

// Default returns the built-in catalogue
func Default() *Catalogue {
	return &Catalogue{
		Welcome: Welcome{
			Title: "Welcome",
			Text:  "Morbi ac nunc consequat, scelerisque tortor at, tincidunt nisi. Morbi commodo, enim nec vulputate viverra, neque urna viverra massa, quis varius arcu magna at arcu. Pellentesque egestas pulvinar elit, a eleifend diam pharetra eget. Sed eu gravida magna. Phasellus suscipit et sem vitae vehicula.",
			Close: "Go!",
		},
		Leaderboard: Leaderboard{
			Title:    "Leaderboard",
			Subtitle: "This is your score at the moment",
			Close:    "Try again",
		},
		Register: Register{
			Title:               "We need some info from you to play",
			Name:                "Name",
			NamePlaceholder:     "How should we address you?",
			Nickname:            "Nickname",
			NicknamePlaceholder: "Your name on the leaderboard",
			Email:               "Corporate email",
			EmailPlaceholder:    "A corporate one is always better",
			Pass:                "Password",
			PassPlaceholder:     "A difficult one",
			Accept:              "Accept the",
			Privacy:             "privacy policy",
			And:                 "and the",
			Terms:               "Terms of use",
			Newsletter:          "I want to join the Newsletter and receive news and updates",
			Start:               "Start",
			Account:             "Do you have an account?",
			Login:               "Login now",
		},
		Login: Login{
			Login:            "Login",
			Subheader:        "Enter your credentials to play.",
			Email:            "Email",
			EmailPlaceholder: "example@example.com",
			Pass:             "Password",
			PassPlaceholder:  "A difficult one",
			Start:            "Start",
			Account:          "Don't have an account?",
			Register:         "Register now",
		},
		Errors: Errors{
			Name:     "Name is required",
			Nickname: "Nickname is required",
			Email:    "Email is required",
			Pass:     "Password is required",
		},
		Warnings: Warnings{
			EmailFormat: "Invalid email format",
			EmailUsed:   "Email already in use",
			PassLength:  "Password must be 6 characters at least",
			Terms:       "You must accept the privacy policy and the Terms of use",
		},
		Auth: Auth{
			NoSuchUser:         "No user registered with the given email",
			InvalidEmailFormat: "Invalid email format",
			EmailInUse:         "The provided email is already in use",
			WeakPassword:       "Password should be at least 6 characters",
			Unknown:            "An error occurred. Please, try again later",
		},
	}
}

// Merge overlays a partial JSON catalogue on the defaults. Keys that are
// absent keep their default text, at every nesting level.
func Merge(data []byte) (*Catalogue, error) {
	c := Default()
	if len(data) == 0 {
		return c, nil
	}
	if err := json.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("invalid texts: %w", err)
	}
	return c, nil
}

// LoadFile reads overrides from path. An empty path yields the defaults.
func LoadFile(path string) (*Catalogue, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read texts: %w", err)
	}
	return Merge(data)
}

// AuthMessage returns the message for a classified failure in the given context.
// Login only distinguishes unknown users and malformed emails.
func (c *Catalogue) AuthMessage(ctx model.FormContext, kind model.AuthErrorKind) string {
	switch kind {
	case model.AuthNoSuchUser:
		if ctx == model.ContextLogin {
			return c.Auth.NoSuchUser
		}
	case model.AuthInvalidEmailFormat:
		if ctx == model.ContextLogin || ctx == model.ContextRegister {
			return c.Auth.InvalidEmailFormat
		}
	case model.AuthEmailInUse:
		if ctx == model.ContextRegister {
			return c.Auth.EmailInUse
		}
	case model.AuthWeakPassword:
		if ctx == model.ContextRegister {
			return c.Auth.WeakPassword
		}
	}
	return c.Auth.Unknown
}

// WarningMessage returns the text displayed for a validation warning on field
func (c *Catalogue) WarningMessage(field validation.Field, warning validation.Warning) string {
	switch warning {
	case validation.WarningEmailFormat:
		return c.Warnings.EmailFormat
	case validation.WarningPasswordLength:
		return c.Warnings.PassLength
	case validation.WarningTermsRequired:
		return c.Warnings.Terms
	}

	switch field {
	case validation.FieldName:
		return c.Errors.Name
	case validation.FieldNickname:
		return c.Errors.Nickname
	case validation.FieldEmail:
		return c.Errors.Email
	case validation.FieldPassword:
		return c.Errors.Pass
	}
	return string(warning)
}
