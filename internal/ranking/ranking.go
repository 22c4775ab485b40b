// Package ranking turns an unordered set of player records into a leaderboard.
package ranking

import (
	"cmp"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/mcoot/leaderboard/internal/model"
)

// DefaultLanguage is the collation language used to match the current user's email
var DefaultLanguage = language.Spanish

// Engine ranks records. It holds no mutable state and is safe for concurrent use.
type Engine struct {
	lang language.Tag
}

// New creates an Engine that matches emails under the collation rules of lang
func New(lang language.Tag) *Engine {
	return &Engine{lang: lang}
}

// Rank orders records with the default engine
func Rank(records []model.PlayerRecord, currentEmail string) []model.LeaderboardEntry {
	return New(DefaultLanguage).Rank(records, currentEmail)
}

// Rank returns the records ordered by score descending with competition rank
// numbers. Ties are broken by timestamp, nickname, email, name and finally id,
// all ascending, so the order is total. Tie-breaks never change the rank: equal
// scores always share a number and the next distinct score takes the following one.
//
// Entries whose email matches currentEmail ignoring case and diacritics are
// flagged as the current user. An empty currentEmail flags nobody.
// The input slice is not modified.
func (e *Engine) Rank(records []model.PlayerRecord, currentEmail string) []model.LeaderboardEntry {
	sorted := slices.Clone(records)
	slices.SortStableFunc(sorted, compareRecords)

	// collators are not safe for concurrent use
	var col *collate.Collator
	if currentEmail != "" {
		col = collate.New(e.lang, collate.IgnoreCase, collate.IgnoreDiacritics, collate.IgnoreWidth)
	}

	entries := make([]model.LeaderboardEntry, 0, len(sorted))
	rank := 0
	for i, rec := range sorted {
		if i == 0 || rec.Score != sorted[i-1].Score {
			rank++
		}
		entries = append(entries, model.LeaderboardEntry{
			Rank:          rank,
			Record:        rec,
			IsCurrentUser: col != nil && col.CompareString(rec.Email, currentEmail) == 0,
		})
	}
	return entries
}

func compareRecords(a, b model.PlayerRecord) int {
	if c := cmp.Compare(b.Score, a.Score); c != 0 {
		return c
	}
	if c := compareTimestamps(a, b); c != 0 {
		return c
	}
	if c := strings.Compare(a.Nickname, b.Nickname); c != 0 {
		return c
	}
	if c := strings.Compare(a.Email, b.Email); c != 0 {
		return c
	}
	if c := strings.Compare(a.Name, b.Name); c != 0 {
		return c
	}
	return strings.Compare(string(a.ID), string(b.ID))
}

// compareTimestamps orders earlier first; a missing timestamp sorts last
func compareTimestamps(a, b model.PlayerRecord) int {
	switch {
	case a.Timestamp.IsZero() && b.Timestamp.IsZero():
		return 0
	case a.Timestamp.IsZero():
		return 1
	case b.Timestamp.IsZero():
		return -1
	}
	return a.Timestamp.Compare(b.Timestamp)
}
