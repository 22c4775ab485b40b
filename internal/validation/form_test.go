package validation

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type ValidatorsSuite struct {
	suite.Suite
}

func TestValidatorsSuite(t *testing.T) {
	suite.Run(t, new(ValidatorsSuite))
}

func (s *ValidatorsSuite) TestIsPresent() {
	s.False(IsPresent(""))
	s.True(IsPresent("a"))
	s.True(IsPresent(" "))
}

func (s *ValidatorsSuite) TestIsEmailFormatAccepts() {
	for _, email := range []string{
		"alice@example.com",
		"alice.smith@example.com",
		"alice-smith@mail.example.org",
		"a_b@example.co.uk",
		"user1@host.io",
	} {
		s.True(IsEmailFormat(email), email)
	}
}

func (s *ValidatorsSuite) TestIsEmailFormatRejects() {
	for _, email := range []string{
		"",
		"alice",
		"alice@",
		"@example.com",
		"alice@example",
		"alice@example.c",
		"alice..smith@example.com",
		"alice@example..com",
		"alice smith@example.com",
	} {
		s.False(IsEmailFormat(email), email)
	}
}

func (s *ValidatorsSuite) TestIsPasswordLongEnough() {
	s.False(IsPasswordLongEnough("12345"))
	s.True(IsPasswordLongEnough("123456"))
	s.True(IsPasswordLongEnough("ñañañá"))
	// Characters outside the BMP count as two code units
	s.True(IsPasswordLongEnough("😀😀😀"))
	s.False(IsPasswordLongEnough("😀😀1"))
}

func (s *ValidatorsSuite) TestToggleFlips() {
	var t Toggle
	s.False(t.Value())
	s.True(t.Flip())
	s.True(t.Value())
	s.False(t.Flip())
	s.False(t.Value())
}

type FormSuite struct {
	suite.Suite
}

func TestFormSuite(t *testing.T) {
	suite.Run(t, new(FormSuite))
}

func (s *FormSuite) fillRegistration(f *Form) {
	f.Input(FieldName, "Alice")
	f.Input(FieldNickname, "ally")
	f.Input(FieldEmail, "alice@example.com")
	f.Input(FieldPassword, "secret1")
	f.ToggleTerms()
}

// Registration tests

func (s *FormSuite) TestCompleteRegistrationIsValid() {
	f := NewRegistrationForm()
	s.fillRegistration(f)
	f.Blur(FieldEmail)

	result := f.Check()
	s.True(result.Valid)
	s.Empty(result.Warnings())
}

func (s *FormSuite) TestEmptyNicknameRejectsRegistration() {
	f := NewRegistrationForm()
	s.fillRegistration(f)
	f.Input(FieldNickname, "")

	result := f.Check()
	s.False(result.Valid)
	s.Equal(map[Field][]Warning{FieldNickname: {WarningRequired}}, result.Warnings())
}

func (s *FormSuite) TestCheckDoesNotShortCircuit() {
	f := NewRegistrationForm()
	f.Input(FieldPassword, "abc")

	result := f.Check()
	s.False(result.Valid)

	warnings := result.Warnings()
	s.Equal([]Warning{WarningRequired}, warnings[FieldName])
	s.Equal([]Warning{WarningRequired}, warnings[FieldNickname])
	s.Equal([]Warning{WarningRequired}, warnings[FieldEmail])
	s.Equal([]Warning{WarningPasswordLength}, warnings[FieldPassword])
	s.Equal([]Warning{WarningTermsRequired}, warnings[FieldTerms])
	s.Len(result.States, 5)
}

func (s *FormSuite) TestShortPasswordOnlyWarnsWhenPresent() {
	f := NewRegistrationForm()

	state := f.Input(FieldPassword, "")
	s.Equal([]Warning{WarningRequired}, state.Warnings)
	s.False(state.FormatChecked)

	state = f.Input(FieldPassword, "12345")
	s.True(state.Present)
	s.True(state.FormatChecked)
	s.False(state.FormatValid)
	s.Equal([]Warning{WarningPasswordLength}, state.Warnings)

	state = f.Blur(FieldPassword)
	s.Equal([]Warning{WarningPasswordLength}, state.Warnings)

	state = f.Input(FieldPassword, "123456")
	s.True(state.Valid())
	s.Empty(state.Warnings)
}

func (s *FormSuite) TestEmailFormatSuppressedUntilFirstBlur() {
	f := NewRegistrationForm()

	state := f.Input(FieldEmail, "not-an-email")
	s.True(state.Valid())
	s.False(state.FormatChecked)
	s.False(f.EmailFormatLatched())

	state = f.Blur(FieldEmail)
	s.True(f.EmailFormatLatched())
	s.False(state.Valid())
	s.Equal([]Warning{WarningEmailFormat}, state.Warnings)

	state = f.Input(FieldEmail, "alice@example.com")
	s.True(state.Valid())
	s.True(state.FormatChecked)

	state = f.Input(FieldEmail, "alice@")
	s.Equal([]Warning{WarningEmailFormat}, state.Warnings)
}

func (s *FormSuite) TestUnlatchedMalformedEmailPassesCheck() {
	f := NewRegistrationForm()
	s.fillRegistration(f)
	f.Input(FieldEmail, "whatever")

	s.True(f.Check().Valid)
}

func (s *FormSuite) TestEmptyEmailShowsPresenceNotFormat() {
	f := NewRegistrationForm()
	f.Blur(FieldEmail)

	state := f.Input(FieldEmail, "")
	s.Equal([]Warning{WarningRequired}, state.Warnings)
	s.False(state.FormatChecked)
}

func (s *FormSuite) TestTermsMustBeAccepted() {
	f := NewRegistrationForm()
	s.fillRegistration(f)

	state := f.ToggleTerms()
	s.False(state.Valid())
	s.Equal([]Warning{WarningTermsRequired}, state.Warnings)
	s.False(f.Check().Valid)

	state = f.ToggleTerms()
	s.True(state.Valid())
	s.True(f.Check().Valid)
}

func (s *FormSuite) TestNewsletterDoesNotGateSubmission() {
	f := NewRegistrationForm()
	s.fillRegistration(f)

	s.True(f.ToggleNewsletter())
	s.True(f.Check().Valid)
	s.False(f.ToggleNewsletter())
	s.True(f.Check().Valid)
}

func (s *FormSuite) TestResetClearsLatchAndValues() {
	f := NewRegistrationForm()
	s.fillRegistration(f)
	f.ToggleNewsletter()
	f.Blur(FieldEmail)

	f.Reset()

	s.False(f.EmailFormatLatched())
	s.False(f.TermsAccepted())
	s.False(f.NewsletterOptIn())
	s.Empty(f.Value(FieldName))

	state := f.Input(FieldEmail, "bad")
	s.False(state.FormatChecked)
}

func (s *FormSuite) TestRegistrationCarriesToggles() {
	f := NewRegistrationForm()
	s.fillRegistration(f)
	f.ToggleNewsletter()

	reg := f.Registration()
	s.Equal("Alice", reg.Name)
	s.Equal("ally", reg.Nickname)
	s.Equal("alice@example.com", reg.Email)
	s.Equal("secret1", reg.Password)
	s.True(reg.TermsAccepted)
	s.True(reg.NewsletterOptIn)
}

// Login tests

func (s *FormSuite) TestLoginChecksPresenceOnly() {
	f := NewLoginForm()
	f.Input(FieldEmail, "not-an-email")
	f.Blur(FieldEmail)
	f.Input(FieldPassword, "secret1")

	s.False(f.EmailFormatLatched())
	result := f.Check()
	s.True(result.Valid)
	s.Len(result.States, 2)
	_, ok := result.State(FieldTerms)
	s.False(ok)
}

func (s *FormSuite) TestLoginRejectsMissingFields() {
	f := NewLoginForm()

	result := f.Check()
	s.False(result.Valid)
	s.Equal(map[Field][]Warning{
		FieldEmail:    {WarningRequired},
		FieldPassword: {WarningRequired},
	}, result.Warnings())
}

func (s *FormSuite) TestLoginRejectsShortPassword() {
	f := NewLoginForm()
	f.Input(FieldEmail, "alice@example.com")
	f.Input(FieldPassword, "12345")

	s.False(f.Check().Valid)
}

func (s *FormSuite) TestLoginIgnoresRegistrationFields() {
	f := NewLoginForm()

	state := f.Input(FieldName, "Alice")
	s.Equal(FieldName, state.Field)
	s.Empty(f.Value(FieldName))
}

func (s *FormSuite) TestCredentials() {
	f := NewLoginForm()
	f.Input(FieldEmail, "alice@example.com")
	f.Input(FieldPassword, "secret1")

	email, password := f.Credentials()
	s.Equal("alice@example.com", email)
	s.Equal("secret1", password)
}
