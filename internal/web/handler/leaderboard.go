package handler

import (
	"bytes"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/leaderboard/internal/model"
	"github.com/mcoot/leaderboard/internal/ranking"
	"github.com/mcoot/leaderboard/internal/storage"
	"github.com/mcoot/leaderboard/internal/texts"
	"github.com/mcoot/leaderboard/internal/web/templates"
)

// LeaderboardHandler renders the leaderboard screen of a competition
type LeaderboardHandler struct {
	storage storage.Storage
	ranking *ranking.Engine
	texts   *texts.Catalogue
	logger  *slog.Logger
}

// NewLeaderboardHandler creates a new LeaderboardHandler
func NewLeaderboardHandler(store storage.Storage, engine *ranking.Engine, catalogue *texts.Catalogue, logger *slog.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{
		storage: store,
		ranking: engine,
		texts:   catalogue,
		logger:  logger,
	}
}

// View handles GET /competitions/{competition}/leaderboard
//
// ?email= highlights that player's row, ?return= adds a close link
func (h *LeaderboardHandler) View(w http.ResponseWriter, r *http.Request) {
	competition := model.CompetitionID(mux.Vars(r)["competition"])
	email := r.URL.Query().Get("email")

	records, err := h.storage.ListRecords(r.Context(), competition)
	if err != nil {
		h.logger.Error("failed to list records",
			slog.String("competition", string(competition)),
			slog.String("error", err.Error()))
		writeErrorPage(w, http.StatusInternalServerError, h.texts.Auth.Unknown)
		return
	}

	list := make([]model.PlayerRecord, 0, len(records))
	for _, rec := range records {
		list = append(list, *rec)
	}

	data := templates.LeaderboardData{
		Lang:        "en",
		Competition: competition,
		Texts:       h.texts.Leaderboard,
		Entries:     h.ranking.Rank(list, email),
		Updated:     email != "",
		CloseURL:    r.URL.Query().Get("return"),
	}

	// Render into a buffer so a template failure never leaves a half-written page
	var buf bytes.Buffer
	if err := templates.Leaderboard(&buf, data); err != nil {
		h.logger.Error("failed to render leaderboard", slog.String("error", err.Error()))
		writeErrorPage(w, http.StatusInternalServerError, h.texts.Auth.Unknown)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
