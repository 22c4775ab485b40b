package model

import "errors"

// Common errors used across the application
var (
	// Identity errors
	ErrIdentityNotFound = errors.New("identity not found")
	ErrEmailTaken       = errors.New("email already registered")

	// Record errors
	ErrRecordNotFound = errors.New("record not found")
	ErrRecordExists   = errors.New("record already exists")
)

// AuthErrorKind classifies a rejection by the identity provider
type AuthErrorKind string

const (
	AuthNoSuchUser         AuthErrorKind = "no_such_user"
	AuthInvalidEmailFormat AuthErrorKind = "invalid_email_format"
	AuthEmailInUse         AuthErrorKind = "email_in_use"
	AuthWeakPassword       AuthErrorKind = "weak_password"
	AuthUnknown            AuthErrorKind = "unknown"
)
