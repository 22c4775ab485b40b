package memory

import (
	"context"
	"sync"

	"github.com/mcoot/leaderboard/internal/model"
	"github.com/mcoot/leaderboard/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	identities map[model.PlayerID]model.Identity
	emailIndex map[string]model.PlayerID
	records    map[recordKey]model.PlayerRecord
}

type recordKey struct {
	competition model.CompetitionID
	id          model.PlayerID
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		identities: make(map[model.PlayerID]model.Identity),
		emailIndex: make(map[string]model.PlayerID),
		records:    make(map[recordKey]model.PlayerRecord),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Identity operations

func (s *Storage) SaveIdentity(ctx context.Context, identity *model.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if owner, ok := s.emailIndex[identity.Email]; ok && owner != identity.ID {
		return model.ErrEmailTaken
	}
	s.identities[identity.ID] = *identity
	s.emailIndex[identity.Email] = identity.ID
	return nil
}

func (s *Storage) GetIdentity(ctx context.Context, id model.PlayerID) (*model.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	identity, ok := s.identities[id]
	if !ok {
		return nil, model.ErrIdentityNotFound
	}
	return &identity, nil
}

func (s *Storage) GetIdentityByEmail(ctx context.Context, email string) (*model.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.emailIndex[email]
	if !ok {
		return nil, model.ErrIdentityNotFound
	}
	identity, ok := s.identities[id]
	if !ok {
		return nil, model.ErrIdentityNotFound
	}
	return &identity, nil
}

// Record operations

func (s *Storage) CreateRecord(ctx context.Context, competition model.CompetitionID, record *model.PlayerRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := recordKey{competition, record.ID}
	if _, ok := s.records[key]; ok {
		return model.ErrRecordExists
	}
	s.records[key] = *record
	return nil
}

func (s *Storage) GetRecord(ctx context.Context, competition model.CompetitionID, id model.PlayerID) (*model.PlayerRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[recordKey{competition, id}]
	if !ok {
		return nil, model.ErrRecordNotFound
	}
	return &record, nil
}

func (s *Storage) UpdateScore(ctx context.Context, competition model.CompetitionID, id model.PlayerID, score int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := recordKey{competition, id}
	record, ok := s.records[key]
	if !ok {
		return model.ErrRecordNotFound
	}
	if score <= record.Score {
		return nil
	}
	record.Score = score
	s.records[key] = record
	return nil
}

func (s *Storage) ListRecords(ctx context.Context, competition model.CompetitionID) ([]*model.PlayerRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := make([]*model.PlayerRecord, 0)
	for key, record := range s.records {
		if key.competition == competition {
			r := record
			records = append(records, &r)
		}
	}
	return records, nil
}
