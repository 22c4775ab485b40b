package redis

import (
	"fmt"

	"github.com/mcoot/leaderboard/internal/model"
)

// Key prefix for all leaderboard data
const keyPrefix = "leaderboard"

// identityKey returns the Redis key for an Identity
func identityKey(id model.PlayerID) string {
	return fmt.Sprintf("%s:identity:%s", keyPrefix, id)
}

// emailIndexKey returns the Redis key for the email -> identity id index
func emailIndexKey(email string) string {
	return fmt.Sprintf("%s:idx:email:%s", keyPrefix, email)
}

// recordKey returns the Redis key for a PlayerRecord
func recordKey(competition model.CompetitionID, id model.PlayerID) string {
	return fmt.Sprintf("%s:record:%s:%s", keyPrefix, competition, id)
}

// recordsIndexKey returns the Redis key for the SET of record keys of a competition
func recordsIndexKey(competition model.CompetitionID) string {
	return fmt.Sprintf("%s:idx:records:%s", keyPrefix, competition)
}
