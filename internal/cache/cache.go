// Package cache defines the local key/value store that remembers the
// current player between runs.
package cache

import (
	"context"

	"github.com/mcoot/leaderboard/internal/model"
)

// Cache is a persistent string store. Read reports ok=false for absent keys.
type Cache interface {
	Read(ctx context.Context, key string) (value string, ok bool, err error)
	Write(ctx context.Context, key, value string) error
	Clear(ctx context.Context, key string) error
}

// SessionKey is the key the cached session of a competition is stored under
func SessionKey(competition model.CompetitionID) string {
	return "session_" + string(competition)
}

// TokenKey is the key the identity token of a competition is stored under
func TokenKey(competition model.CompetitionID) string {
	return "token_" + string(competition)
}
