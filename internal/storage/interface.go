package storage

import (
	"context"

	"github.com/mcoot/leaderboard/internal/model"
)

// Storage defines the interface for data persistence
type Storage interface {
	// Identity operations

	// SaveIdentity stores an identity. It fails with model.ErrEmailTaken when a
	// different identity already owns the email.
	SaveIdentity(ctx context.Context, identity *model.Identity) error
	GetIdentity(ctx context.Context, id model.PlayerID) (*model.Identity, error)
	GetIdentityByEmail(ctx context.Context, email string) (*model.Identity, error)

	// Record operations

	// CreateRecord writes a new record. It fails with model.ErrRecordExists
	// when the player already has one in the competition.
	CreateRecord(ctx context.Context, competition model.CompetitionID, record *model.PlayerRecord) error
	GetRecord(ctx context.Context, competition model.CompetitionID, id model.PlayerID) (*model.PlayerRecord, error)
	// UpdateScore raises the score of an existing record. A score that is not
	// higher than the stored one is ignored.
	UpdateScore(ctx context.Context, competition model.CompetitionID, id model.PlayerID, score int64) error
	ListRecords(ctx context.Context, competition model.CompetitionID) ([]*model.PlayerRecord, error)
}
