package model

// LeaderboardEntry is one ranked row of a leaderboard
type LeaderboardEntry struct {
	Rank          int          `json:"rank"`
	Record        PlayerRecord `json:"record"`
	IsCurrentUser bool         `json:"is_current_user"`
}
