package model

import "time"

// PlayerID uniquely identifies a player. The identity provider issues it and the
// record store uses it as the primary key of the player's record.
type PlayerID string

// CompetitionID names the collection a leaderboard belongs to
type CompetitionID string

// PlayerRecord is the durable leaderboard entry for a player.
// It deliberately carries no credential material.
type PlayerRecord struct {
	ID              PlayerID  `json:"id"`
	Name            string    `json:"name"`
	Nickname        string    `json:"nickname"`
	Email           string    `json:"email"`
	Score           int64     `json:"score"`
	Timestamp       time.Time `json:"timestamp"`
	TermsAccepted   bool      `json:"terms_accepted"`
	NewsletterOptIn bool      `json:"newsletter_opt_in"`
}

// Registration is the data collected by a registration form
type Registration struct {
	Name            string
	Nickname        string
	Email           string
	Password        string
	TermsAccepted   bool
	NewsletterOptIn bool
}

// Record builds the record to persist for a new identity. The password is dropped.
func (r Registration) Record(id PlayerID, now time.Time) PlayerRecord {
	return PlayerRecord{
		ID:              id,
		Name:            r.Name,
		Nickname:        r.Nickname,
		Email:           r.Email,
		Score:           0,
		Timestamp:       now,
		TermsAccepted:   r.TermsAccepted,
		NewsletterOptIn: r.NewsletterOptIn,
	}
}

// Identity is an account held by the identity provider
// Stored separately from records so hashes never reach a leaderboard
type Identity struct {
	ID           PlayerID
	Email        string // normalized, unique
	PasswordHash string // bcrypt hash
	CreatedAt    time.Time
}
