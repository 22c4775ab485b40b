// Package templates holds the HTML screens of the widget.
package templates

import (
	"embed"
	"html/template"
	"io"

	"github.com/mcoot/leaderboard/internal/model"
	"github.com/mcoot/leaderboard/internal/texts"
)

//go:embed *.html
var files embed.FS

var pages = template.Must(template.ParseFS(files, "*.html"))

// LeaderboardData is the data rendered by the leaderboard screen
type LeaderboardData struct {
	Lang        string
	Competition model.CompetitionID
	Texts       texts.Leaderboard
	Entries     []model.LeaderboardEntry
	// Updated marks a board shown right after the current player's score changed
	Updated  bool
	CloseURL string
}

// Leaderboard renders the leaderboard screen
func Leaderboard(w io.Writer, data LeaderboardData) error {
	return pages.ExecuteTemplate(w, "leaderboard", data)
}
