package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/mcoot/leaderboard/internal/api/apierr"
	"github.com/mcoot/leaderboard/internal/model"
)

type contextKey string

const playerContextKey contextKey = "player_id"

// TokenValidator resolves a bearer token to the identity it was issued to
type TokenValidator interface {
	ValidateToken(token string) (model.PlayerID, error)
}

// Auth creates authentication middleware
func Auth(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				apierr.WriteError(w, apierr.NewUnauthorizedError())
				return
			}

			playerID, err := validator.ValidateToken(token)
			if err != nil {
				apierr.WriteError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), playerContextKey, playerID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireOwner rejects requests whose authenticated identity is not the one
// named by the route variable. Must run after Auth.
func RequireOwner(routeVar string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			playerID := GetPlayerID(r.Context())
			if playerID == "" {
				apierr.WriteError(w, apierr.NewUnauthorizedError())
				return
			}
			if string(playerID) != mux.Vars(r)[routeVar] {
				apierr.WriteError(w, apierr.NewForbiddenError("Token does not belong to this record"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// extractToken extracts the bearer token from the request
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	return ""
}

// GetPlayerID returns the authenticated identity from the request context
func GetPlayerID(ctx context.Context) model.PlayerID {
	id, _ := ctx.Value(playerContextKey).(model.PlayerID)
	return id
}
