package handler

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/leaderboard/internal/api/request"
	"github.com/mcoot/leaderboard/internal/api/response"
	"github.com/mcoot/leaderboard/internal/model"
	"github.com/mcoot/leaderboard/internal/ranking"
	"github.com/mcoot/leaderboard/internal/storage"
)

// RecordHandler handles record and leaderboard endpoints
type RecordHandler struct {
	storage storage.Storage
	ranking *ranking.Engine
	logger  *slog.Logger
}

// NewRecordHandler creates a new record handler
func NewRecordHandler(store storage.Storage, engine *ranking.Engine, logger *slog.Logger) *RecordHandler {
	return &RecordHandler{
		storage: store,
		ranking: engine,
		logger:  logger,
	}
}

func competitionVar(r *http.Request) model.CompetitionID {
	return model.CompetitionID(mux.Vars(r)["competition"])
}

func idVar(r *http.Request) model.PlayerID {
	return model.PlayerID(mux.Vars(r)["id"])
}

// List handles GET /api/v1/competitions/{competition}/records
func (h *RecordHandler) List(w http.ResponseWriter, r *http.Request) {
	records, err := h.storage.ListRecords(r.Context(), competitionVar(r))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.RecordsFromModel(records))
}

// Get handles GET /api/v1/competitions/{competition}/records/{id}
func (h *RecordHandler) Get(w http.ResponseWriter, r *http.Request) {
	record, err := h.storage.GetRecord(r.Context(), competitionVar(r), idVar(r))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.RecordFromModel(record))
}

// Put handles PUT /api/v1/competitions/{competition}/records/{id}. A record
// is written once; a second PUT for the same id is a conflict.
func (h *RecordHandler) Put(w http.ResponseWriter, r *http.Request) {
	var req request.PutRecordRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Nickname == "" {
		WriteError(w, NewInvalidRequestError("nickname is required"))
		return
	}
	if req.Email == "" {
		WriteError(w, NewInvalidRequestError("email is required"))
		return
	}
	if req.Score < 0 {
		WriteError(w, NewInvalidRequestError("score must not be negative"))
		return
	}

	record := &model.PlayerRecord{
		ID:              idVar(r),
		Name:            req.Name,
		Nickname:        req.Nickname,
		Email:           req.Email,
		Score:           req.Score,
		Timestamp:       req.Timestamp,
		TermsAccepted:   req.TermsAccepted,
		NewsletterOptIn: req.NewsletterOptIn,
	}

	competition := competitionVar(r)
	if err := h.storage.CreateRecord(r.Context(), competition, record); err != nil {
		WriteError(w, err)
		return
	}

	h.logger.Info("record created",
		slog.String("competition", string(competition)),
		slog.String("player_id", string(record.ID)))
	response.JSON(w, http.StatusCreated, response.RecordFromModel(record))
}

// UpdateScore handles PATCH /api/v1/competitions/{competition}/records/{id}/score.
// A score that does not beat the stored one is ignored.
func (h *RecordHandler) UpdateScore(w http.ResponseWriter, r *http.Request) {
	var req request.UpdateScoreRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Score == nil {
		WriteError(w, NewInvalidRequestError("score is required"))
		return
	}
	if *req.Score < 0 {
		WriteError(w, NewInvalidRequestError("score must not be negative"))
		return
	}

	competition := competitionVar(r)
	id := idVar(r)
	if err := h.storage.UpdateScore(r.Context(), competition, id, *req.Score); err != nil {
		WriteError(w, err)
		return
	}

	h.logger.Info("score updated",
		slog.String("competition", string(competition)),
		slog.String("player_id", string(id)),
		slog.Int64("score", *req.Score))
	response.NoContent(w)
}

// Leaderboard handles GET /api/v1/competitions/{competition}/leaderboard
func (h *RecordHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	competition := competitionVar(r)
	records, err := h.storage.ListRecords(r.Context(), competition)
	if err != nil {
		WriteError(w, err)
		return
	}

	entries := h.ranking.Rank(derefRecords(records), r.URL.Query().Get("email"))
	response.JSON(w, http.StatusOK, response.LeaderboardFromModel(competition, entries))
}

func derefRecords(records []*model.PlayerRecord) []model.PlayerRecord {
	out := make([]model.PlayerRecord, 0, len(records))
	for _, r := range records {
		out = append(out, *r)
	}
	return out
}
