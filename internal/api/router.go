package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/leaderboard/internal/api/handler"
	"github.com/mcoot/leaderboard/internal/api/middleware"
	"github.com/mcoot/leaderboard/internal/api/response"
	sharedmw "github.com/mcoot/leaderboard/internal/middleware"
	"github.com/mcoot/leaderboard/internal/ranking"
	"github.com/mcoot/leaderboard/internal/services/identity"
	"github.com/mcoot/leaderboard/internal/storage"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger          *slog.Logger
	IdentityService *identity.Service
	Storage         storage.Storage
	Ranking         *ranking.Engine
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()
	Mount(r, cfg)
	return r
}

// Mount registers the API routes under /api/v1 on an existing router
func Mount(r *mux.Router, cfg RouterConfig) {
	if cfg.Ranking == nil {
		cfg.Ranking = ranking.New(ranking.DefaultLanguage)
	}

	// Create handlers
	identityHandler := handler.NewIdentityHandler(cfg.IdentityService, cfg.Logger)
	recordHandler := handler.NewRecordHandler(cfg.Storage, cfg.Ranking, cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(sharedmw.RequestID())
	api.Use(middleware.Recovery(cfg.Logger))
	api.Use(sharedmw.Logging(cfg.Logger))

	// Identity routes
	api.HandleFunc("/identities", identityHandler.Create).Methods(http.MethodPost)
	api.HandleFunc("/identities/verify", identityHandler.Verify).Methods(http.MethodPost)

	// Public record reads
	competitions := api.PathPrefix("/competitions/{competition}").Subrouter()
	competitions.HandleFunc("/records", recordHandler.List).Methods(http.MethodGet)
	competitions.HandleFunc("/records/{id}", recordHandler.Get).Methods(http.MethodGet)
	competitions.HandleFunc("/leaderboard", recordHandler.Leaderboard).Methods(http.MethodGet)

	// Record writes need a token issued to the record's identity
	owned := competitions.PathPrefix("/records/{id}").Subrouter()
	owned.Use(middleware.Auth(cfg.IdentityService))
	owned.Use(middleware.RequireOwner("id"))
	owned.HandleFunc("", recordHandler.Put).Methods(http.MethodPut)
	owned.HandleFunc("/score", recordHandler.UpdateScore).Methods(http.MethodPatch)

	// Health check endpoint
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusOK, response.Health{Status: "ok"})
}
