// Package web serves the embeddable HTML leaderboard.
package web

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	sharedmw "github.com/mcoot/leaderboard/internal/middleware"
	"github.com/mcoot/leaderboard/internal/ranking"
	"github.com/mcoot/leaderboard/internal/storage"
	"github.com/mcoot/leaderboard/internal/texts"
	"github.com/mcoot/leaderboard/internal/web/handler"
	"github.com/mcoot/leaderboard/internal/web/middleware"
)

// RouterConfig holds configuration for the web router
type RouterConfig struct {
	Logger  *slog.Logger
	Storage storage.Storage
	Ranking *ranking.Engine
	Texts   *texts.Catalogue
}

// NewRouter creates a new web router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()
	Mount(r, cfg)
	return r
}

// Mount registers the widget routes on an existing router
func Mount(r *mux.Router, cfg RouterConfig) {
	if cfg.Ranking == nil {
		cfg.Ranking = ranking.New(ranking.DefaultLanguage)
	}
	if cfg.Texts == nil {
		cfg.Texts = texts.Default()
	}

	leaderboardHandler := handler.NewLeaderboardHandler(cfg.Storage, cfg.Ranking, cfg.Texts, cfg.Logger)

	widget := r.PathPrefix("/competitions/{competition}").Subrouter()
	widget.Use(sharedmw.RequestID())
	widget.Use(middleware.Recovery(cfg.Logger))
	widget.Use(sharedmw.Logging(cfg.Logger))
	widget.HandleFunc("/leaderboard", leaderboardHandler.View).Methods(http.MethodGet)
}
