package response

import (
	"time"

	"github.com/mcoot/leaderboard/internal/model"
	"github.com/mcoot/leaderboard/internal/services/identity"
)

// Identity is the response for identity endpoints
type Identity struct {
	IdentityID string    `json:"identity_id"`
	Token      string    `json:"token"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// IdentityFromCredentials creates an Identity response from issued credentials
func IdentityFromCredentials(c *identity.Credentials) Identity {
	return Identity{
		IdentityID: string(c.PlayerID),
		Token:      c.Token,
		ExpiresAt:  c.ExpiresAt,
	}
}

// Record represents a player record in API responses
type Record struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Nickname        string    `json:"nickname"`
	Email           string    `json:"email"`
	Score           int64     `json:"score"`
	Timestamp       time.Time `json:"timestamp"`
	TermsAccepted   bool      `json:"terms_accepted"`
	NewsletterOptIn bool      `json:"newsletter_opt_in"`
}

// RecordFromModel converts a model.PlayerRecord to a response Record
func RecordFromModel(r *model.PlayerRecord) Record {
	return Record{
		ID:              string(r.ID),
		Name:            r.Name,
		Nickname:        r.Nickname,
		Email:           r.Email,
		Score:           r.Score,
		Timestamp:       r.Timestamp,
		TermsAccepted:   r.TermsAccepted,
		NewsletterOptIn: r.NewsletterOptIn,
	}
}

// Model converts the response back into a model.PlayerRecord
func (r Record) Model() model.PlayerRecord {
	return model.PlayerRecord{
		ID:              model.PlayerID(r.ID),
		Name:            r.Name,
		Nickname:        r.Nickname,
		Email:           r.Email,
		Score:           r.Score,
		Timestamp:       r.Timestamp,
		TermsAccepted:   r.TermsAccepted,
		NewsletterOptIn: r.NewsletterOptIn,
	}
}

// RecordsFromModel converts a list of records
func RecordsFromModel(records []*model.PlayerRecord) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		out = append(out, RecordFromModel(r))
	}
	return out
}

// LeaderboardEntry is one ranked row
type LeaderboardEntry struct {
	Rank          int    `json:"rank"`
	Record        Record `json:"record"`
	IsCurrentUser bool   `json:"is_current_user"`
}

// Leaderboard is the response for the leaderboard endpoint
type Leaderboard struct {
	Competition string             `json:"competition"`
	Entries     []LeaderboardEntry `json:"entries"`
}

// LeaderboardFromModel converts ranked entries
func LeaderboardFromModel(competition model.CompetitionID, entries []model.LeaderboardEntry) Leaderboard {
	out := Leaderboard{
		Competition: string(competition),
		Entries:     make([]LeaderboardEntry, 0, len(entries)),
	}
	for _, e := range entries {
		out.Entries = append(out.Entries, LeaderboardEntry{
			Rank:          e.Rank,
			Record:        RecordFromModel(&e.Record),
			IsCurrentUser: e.IsCurrentUser,
		})
	}
	return out
}

// Health is the response for the health endpoint
type Health struct {
	Status string `json:"status"`
}
