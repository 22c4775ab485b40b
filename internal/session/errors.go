package session

import (
	"errors"
	"fmt"

	"github.com/mcoot/leaderboard/internal/model"
)

var (
	// ErrNoSession is returned by operations that need a signed-in player
	ErrNoSession = errors.New("no active session")
	// ErrBusy is returned when a login or registration is already in flight
	ErrBusy = errors.New("authentication already in progress")
)

// ClassifiedError is a gateway failure turned into a user-facing outcome
type ClassifiedError struct {
	Context model.FormContext
	Kind    model.AuthErrorKind
	Message string
	Err     error
}

func (e *ClassifiedError) Error() string {
	return fmt.Sprintf("%s failed: %s", e.Context, e.Message)
}

func (e *ClassifiedError) Unwrap() error {
	return e.Err
}
