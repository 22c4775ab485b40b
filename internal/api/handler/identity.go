package handler

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/leaderboard/internal/api/request"
	"github.com/mcoot/leaderboard/internal/api/response"
	"github.com/mcoot/leaderboard/internal/services/identity"
)

// IdentityHandler handles identity endpoints
type IdentityHandler struct {
	identity *identity.Service
	logger   *slog.Logger
}

// NewIdentityHandler creates a new identity handler
func NewIdentityHandler(identitySvc *identity.Service, logger *slog.Logger) *IdentityHandler {
	return &IdentityHandler{
		identity: identitySvc,
		logger:   logger,
	}
}

// Create handles POST /api/v1/identities
func (h *IdentityHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, ok := h.credentials(w, r)
	if !ok {
		return
	}

	creds, err := h.identity.CreateIdentity(r.Context(), req.Email, req.Password)
	if err != nil {
		WriteError(w, err)
		return
	}

	h.logger.Info("identity created", slog.String("player_id", string(creds.PlayerID)))
	response.JSON(w, http.StatusCreated, response.IdentityFromCredentials(creds))
}

// Verify handles POST /api/v1/identities/verify
func (h *IdentityHandler) Verify(w http.ResponseWriter, r *http.Request) {
	req, ok := h.credentials(w, r)
	if !ok {
		return
	}

	creds, err := h.identity.VerifyIdentity(r.Context(), req.Email, req.Password)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.IdentityFromCredentials(creds))
}

func (h *IdentityHandler) credentials(w http.ResponseWriter, r *http.Request) (request.CredentialsRequest, bool) {
	var req request.CredentialsRequest
	if !decodeBody(w, r, &req) {
		return req, false
	}
	if req.Email == "" {
		WriteError(w, NewInvalidRequestError("email is required"))
		return req, false
	}
	if req.Password == "" {
		WriteError(w, NewInvalidRequestError("password is required"))
		return req, false
	}
	return req, true
}
