package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/leaderboard/internal/model"
	"github.com/mcoot/leaderboard/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Identity operations

func (s *Storage) SaveIdentity(ctx context.Context, identity *model.Identity) error {
	data, err := json.Marshal(identity)
	if err != nil {
		return err
	}

	// Claim the email first so two registrations can't both own it
	indexKey := emailIndexKey(identity.Email)
	claimed, err := s.client.SetNX(ctx, indexKey, string(identity.ID), 0).Result()
	if err != nil {
		return err
	}
	if !claimed {
		owner, err := s.client.Get(ctx, indexKey).Result()
		if err != nil {
			return err
		}
		if owner != string(identity.ID) {
			return model.ErrEmailTaken
		}
	}

	return s.client.Set(ctx, identityKey(identity.ID), data, 0).Err()
}

func (s *Storage) GetIdentity(ctx context.Context, id model.PlayerID) (*model.Identity, error) {
	data, err := s.client.Get(ctx, identityKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrIdentityNotFound
		}
		return nil, err
	}

	var identity model.Identity
	if err := json.Unmarshal(data, &identity); err != nil {
		return nil, err
	}
	return &identity, nil
}

func (s *Storage) GetIdentityByEmail(ctx context.Context, email string) (*model.Identity, error) {
	// Look up identity ID from email index
	id, err := s.client.Get(ctx, emailIndexKey(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrIdentityNotFound
		}
		return nil, err
	}

	return s.GetIdentity(ctx, model.PlayerID(id))
}

// Record operations

func (s *Storage) CreateRecord(ctx context.Context, competition model.CompetitionID, record *model.PlayerRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}

	rKey := recordKey(competition, record.ID)

	// Use pipeline for atomic create + index update; the index entry is
	// idempotent when the record already exists
	pipe := s.client.TxPipeline()
	created := pipe.SetNX(ctx, rKey, data, 0)
	pipe.SAdd(ctx, recordsIndexKey(competition), rKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}
	if !created.Val() {
		return model.ErrRecordExists
	}
	return nil
}

func (s *Storage) GetRecord(ctx context.Context, competition model.CompetitionID, id model.PlayerID) (*model.PlayerRecord, error) {
	data, err := s.client.Get(ctx, recordKey(competition, id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrRecordNotFound
		}
		return nil, err
	}

	var record model.PlayerRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *Storage) UpdateScore(ctx context.Context, competition model.CompetitionID, id model.PlayerID, score int64) error {
	rKey := recordKey(competition, id)

	// Read-modify-write under WATCH so a concurrent higher score is never lowered
	update := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, rKey).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return model.ErrRecordNotFound
			}
			return err
		}

		var record model.PlayerRecord
		if err := json.Unmarshal(data, &record); err != nil {
			return err
		}
		if score <= record.Score {
			return nil
		}
		record.Score = score

		updated, err := json.Marshal(record)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, rKey, updated, 0)
			return nil
		})
		return err
	}

	retries := max(s.cfg.MaxScoreRetries, 1)
	for range retries {
		err := s.client.Watch(ctx, update, rKey)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("score update for %s: %w", id, redis.TxFailedErr)
}

func (s *Storage) ListRecords(ctx context.Context, competition model.CompetitionID) ([]*model.PlayerRecord, error) {
	// Get all record keys from the index
	keys, err := s.client.SMembers(ctx, recordsIndexKey(competition)).Result()
	if err != nil {
		return nil, err
	}

	if len(keys) == 0 {
		return []*model.PlayerRecord{}, nil
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	records := make([]*model.PlayerRecord, 0, len(values))
	for _, val := range values {
		str, ok := val.(string)
		if !ok {
			continue // Indexed key without a value
		}
		var record model.PlayerRecord
		if err := json.Unmarshal([]byte(str), &record); err != nil {
			continue // Skip invalid data
		}
		records = append(records, &record)
	}

	return records, nil
}
