package validation

import "github.com/mcoot/leaderboard/internal/model"

var (
	registrationFields = []Field{FieldName, FieldNickname, FieldEmail, FieldPassword}
	loginFields        = []Field{FieldEmail, FieldPassword}
)

// Form holds the input of one registration or login form session.
// A Form is not safe for concurrent use; each presentation session owns one.
type Form struct {
	context    Context
	values     map[Field]string
	terms      Toggle
	newsletter Toggle

	// emailLatch switches on email format checking after the first blur
	emailLatch bool
}

// NewForm creates an empty form for the given context
func NewForm(ctx Context) *Form {
	return &Form{
		context: ctx,
		values:  make(map[Field]string),
	}
}

// NewRegistrationForm creates an empty registration form
func NewRegistrationForm() *Form {
	return NewForm(Registration)
}

// NewLoginForm creates an empty login form
func NewLoginForm() *Form {
	return NewForm(Login)
}

// Context returns the form's context
func (f *Form) Context() Context {
	return f.context
}

// Fields returns the text fields of the form in display order
func (f *Form) Fields() []Field {
	if f.context == Login {
		return loginFields
	}
	return registrationFields
}

func (f *Form) hasField(field Field) bool {
	for _, candidate := range f.Fields() {
		if candidate == field {
			return true
		}
	}
	return false
}

// Value returns the current value of a text field
func (f *Form) Value(field Field) string {
	return f.values[field]
}

// Input records a new value for field and re-evaluates it, as on every keystroke
func (f *Form) Input(field Field, value string) State {
	if !f.hasField(field) {
		return State{Field: field}
	}
	f.values[field] = value
	return f.evaluate(field)
}

// Blur re-evaluates field as it loses focus. The first blur of the email field
// in a registration form latches format checking on for the rest of the form's life.
func (f *Form) Blur(field Field) State {
	if !f.hasField(field) {
		return State{Field: field}
	}
	if field == FieldEmail && f.context == Registration {
		f.emailLatch = true
	}
	return f.evaluate(field)
}

// EmailFormatLatched reports whether email format checking is active
func (f *Form) EmailFormatLatched() bool {
	return f.emailLatch
}

// ToggleTerms flips the terms acceptance toggle and returns its state
func (f *Form) ToggleTerms() State {
	f.terms.Flip()
	return f.termsState()
}

// ToggleNewsletter flips the newsletter toggle and returns its new value
func (f *Form) ToggleNewsletter() bool {
	return f.newsletter.Flip()
}

// TermsAccepted returns the terms toggle value
func (f *Form) TermsAccepted() bool {
	return f.terms.Value()
}

// NewsletterOptIn returns the newsletter toggle value
func (f *Form) NewsletterOptIn() bool {
	return f.newsletter.Value()
}

// Check evaluates every field of the form. No rule short-circuits another, so
// the returned states describe every warning that should be displayed.
func (f *Form) Check() Result {
	result := Result{Valid: true}
	for _, field := range f.Fields() {
		state := f.evaluate(field)
		if !state.Valid() {
			result.Valid = false
		}
		result.States = append(result.States, state)
	}

	if f.context == Registration {
		state := f.termsState()
		if !state.Valid() {
			result.Valid = false
		}
		result.States = append(result.States, state)
	}

	return result
}

// Reset tears the form down to its initial state, clearing the email latch
func (f *Form) Reset() {
	f.values = make(map[Field]string)
	f.terms = Toggle{}
	f.newsletter = Toggle{}
	f.emailLatch = false
}

// Registration returns the collected registration data
func (f *Form) Registration() model.Registration {
	return model.Registration{
		Name:            f.values[FieldName],
		Nickname:        f.values[FieldNickname],
		Email:           f.values[FieldEmail],
		Password:        f.values[FieldPassword],
		TermsAccepted:   f.terms.Value(),
		NewsletterOptIn: f.newsletter.Value(),
	}
}

// Credentials returns the email and password entered in the form
func (f *Form) Credentials() (email, password string) {
	return f.values[FieldEmail], f.values[FieldPassword]
}

// evaluate applies presence and the field's conditional format rule
func (f *Form) evaluate(field Field) State {
	value := f.values[field]
	state := State{Field: field, Present: IsPresent(value)}
	if !state.Present {
		state.Warnings = append(state.Warnings, WarningRequired)
		return state
	}

	switch field {
	case FieldEmail:
		if f.context == Registration && f.emailLatch {
			state.FormatChecked = true
			state.FormatValid = IsEmailFormat(value)
			if !state.FormatValid {
				state.Warnings = append(state.Warnings, WarningEmailFormat)
			}
		}
	case FieldPassword:
		state.FormatChecked = true
		state.FormatValid = IsPasswordLongEnough(value)
		if !state.FormatValid {
			state.Warnings = append(state.Warnings, WarningPasswordLength)
		}
	}

	return state
}

func (f *Form) termsState() State {
	state := State{Field: FieldTerms, Present: f.terms.Value()}
	if !state.Present {
		state.Warnings = append(state.Warnings, WarningTermsRequired)
	}
	return state
}
