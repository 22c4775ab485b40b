package gateway

import (
	"context"
	"errors"

	"github.com/mcoot/leaderboard/internal/model"
	"github.com/mcoot/leaderboard/internal/services/identity"
	"github.com/mcoot/leaderboard/internal/storage"
)

// Local is an in-process Gateway over the identity service and storage
type Local struct {
	identity    *identity.Service
	storage     storage.Storage
	competition model.CompetitionID
}

// Ensure Local implements Gateway
var _ Gateway = (*Local)(nil)

// NewLocal creates a Local gateway for one competition
func NewLocal(identitySvc *identity.Service, storage storage.Storage, competition model.CompetitionID) *Local {
	return &Local{
		identity:    identitySvc,
		storage:     storage,
		competition: competition,
	}
}

func (g *Local) CreateIdentity(ctx context.Context, email, password string) (model.PlayerID, error) {
	creds, err := g.identity.CreateIdentity(ctx, email, password)
	if err != nil {
		return "", authError(err)
	}
	return creds.PlayerID, nil
}

func (g *Local) VerifyIdentity(ctx context.Context, email, password string) (model.PlayerID, error) {
	creds, err := g.identity.VerifyIdentity(ctx, email, password)
	if err != nil {
		return "", authError(err)
	}
	return creds.PlayerID, nil
}

func (g *Local) CreateRecord(ctx context.Context, record model.PlayerRecord) error {
	if err := g.storage.CreateRecord(ctx, g.competition, &record); err != nil {
		return &StoreError{Op: "create record", Err: err}
	}
	return nil
}

func (g *Local) FetchRecord(ctx context.Context, id model.PlayerID) (*model.PlayerRecord, error) {
	record, err := g.storage.GetRecord(ctx, g.competition, id)
	if err != nil {
		if errors.Is(err, model.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, &StoreError{Op: "fetch record", Err: err}
	}
	return record, nil
}

func (g *Local) UpdateScore(ctx context.Context, id model.PlayerID, score int64) error {
	if err := g.storage.UpdateScore(ctx, g.competition, id, score); err != nil {
		return &StoreError{Op: "update score", Err: err}
	}
	return nil
}

func (g *Local) FetchAllRecords(ctx context.Context) ([]model.PlayerRecord, error) {
	records, err := g.storage.ListRecords(ctx, g.competition)
	if err != nil {
		return nil, &StoreError{Op: "fetch all records", Err: err}
	}
	out := make([]model.PlayerRecord, 0, len(records))
	for _, r := range records {
		out = append(out, *r)
	}
	return out, nil
}

// Commit is a no-op: the local gateway holds no credentials
func (g *Local) Commit(context.Context, model.PlayerID) error {
	return nil
}

// authError classifies an identity service failure
func authError(err error) error {
	switch {
	case errors.Is(err, identity.ErrNoSuchUser):
		return &AuthError{Kind: model.AuthNoSuchUser, Err: err}
	case errors.Is(err, identity.ErrInvalidEmail):
		return &AuthError{Kind: model.AuthInvalidEmailFormat, Err: err}
	case errors.Is(err, identity.ErrEmailInUse):
		return &AuthError{Kind: model.AuthEmailInUse, Err: err}
	case errors.Is(err, identity.ErrWeakPassword):
		return &AuthError{Kind: model.AuthWeakPassword, Err: err}
	default:
		return &AuthError{Kind: model.AuthUnknown, Err: err}
	}
}
