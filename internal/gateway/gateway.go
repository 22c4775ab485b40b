// Package gateway is the boundary between the session controller and the
// identity provider plus record store.
package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/mcoot/leaderboard/internal/model"
)

// Gateway creates and verifies identities and reads and writes the records of
// one competition
type Gateway interface {
	CreateIdentity(ctx context.Context, email, password string) (model.PlayerID, error)
	VerifyIdentity(ctx context.Context, email, password string) (model.PlayerID, error)
	CreateRecord(ctx context.Context, record model.PlayerRecord) error
	// FetchRecord returns nil and no error when the record does not exist
	FetchRecord(ctx context.Context, id model.PlayerID) (*model.PlayerRecord, error)
	UpdateScore(ctx context.Context, id model.PlayerID, score int64) error
	FetchAllRecords(ctx context.Context) ([]model.PlayerRecord, error)
	// Commit makes the credentials obtained for id the ones later calls fall
	// back to. Until then a failed sign-in leaves the previous player's
	// credentials in place.
	Commit(ctx context.Context, id model.PlayerID) error
}

// AuthError is returned when the identity provider rejects a request
type AuthError struct {
	Kind model.AuthErrorKind
	Err  error
}

func (e *AuthError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("auth error: %s", e.Kind)
	}
	return fmt.Sprintf("auth error: %s: %v", e.Kind, e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// StoreError is returned when a record operation fails
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store error: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// AuthKind returns the classified kind of err, or AuthUnknown when err is not an AuthError
func AuthKind(err error) model.AuthErrorKind {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.Kind
	}
	return model.AuthUnknown
}

// IsAuthError reports whether err is an AuthError of the given kind
func IsAuthError(err error, kind model.AuthErrorKind) bool {
	var authErr *AuthError
	return errors.As(err, &authErr) && authErr.Kind == kind
}
