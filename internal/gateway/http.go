package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/mcoot/leaderboard/internal/api/apierr"
	"github.com/mcoot/leaderboard/internal/api/request"
	"github.com/mcoot/leaderboard/internal/api/response"
	"github.com/mcoot/leaderboard/internal/client"
	"github.com/mcoot/leaderboard/internal/model"
)

// HTTP is a Gateway that talks to a remote leaderboard API.
//
// Tokens issued by the identity endpoints are held per player until Commit
// moves one into the TokenStore.
type HTTP struct {
	client      *client.Client
	competition model.CompetitionID
	tokens      TokenStore

	mu      sync.Mutex
	pending map[model.PlayerID]string
}

// Ensure HTTP implements Gateway
var _ Gateway = (*HTTP)(nil)

// NewHTTP creates an HTTP gateway for one competition. A nil TokenStore keeps
// tokens in memory.
func NewHTTP(c *client.Client, competition model.CompetitionID, tokens TokenStore) *HTTP {
	if tokens == nil {
		tokens = &MemoryTokens{}
	}
	return &HTTP{
		client:      c,
		competition: competition,
		tokens:      tokens,
		pending:     make(map[model.PlayerID]string),
	}
}

func (g *HTTP) recordsPath() string {
	return fmt.Sprintf("/api/v1/competitions/%s/records", url.PathEscape(string(g.competition)))
}

func (g *HTTP) recordPath(id model.PlayerID) string {
	return g.recordsPath() + "/" + url.PathEscape(string(id))
}

func (g *HTTP) CreateIdentity(ctx context.Context, email, password string) (model.PlayerID, error) {
	return g.identityCall(ctx, "/api/v1/identities", email, password)
}

func (g *HTTP) VerifyIdentity(ctx context.Context, email, password string) (model.PlayerID, error) {
	return g.identityCall(ctx, "/api/v1/identities/verify", email, password)
}

func (g *HTTP) identityCall(ctx context.Context, path, email, password string) (model.PlayerID, error) {
	var result response.Identity
	req := request.CredentialsRequest{Email: email, Password: password}
	if err := g.client.Post(ctx, path, req, &result); err != nil {
		return "", remoteAuthError(err)
	}
	id := model.PlayerID(result.IdentityID)
	g.mu.Lock()
	g.pending[id] = result.Token
	g.mu.Unlock()
	return id, nil
}

// tokenFor returns the token to write id's record with: one obtained for id
// and not yet committed, otherwise the stored one
func (g *HTTP) tokenFor(ctx context.Context, id model.PlayerID) (string, error) {
	g.mu.Lock()
	token, ok := g.pending[id]
	g.mu.Unlock()
	if ok {
		return token, nil
	}
	return g.tokens.Token(ctx)
}

// Commit stores the token obtained for id and forgets any other pending ones.
// It is a no-op when no token was obtained for id since the last commit.
func (g *HTTP) Commit(ctx context.Context, id model.PlayerID) error {
	g.mu.Lock()
	token, ok := g.pending[id]
	clear(g.pending)
	g.mu.Unlock()
	if !ok {
		return nil
	}
	if err := g.tokens.SetToken(ctx, token); err != nil {
		return fmt.Errorf("failed to keep token: %w", err)
	}
	return nil
}

func (g *HTTP) CreateRecord(ctx context.Context, record model.PlayerRecord) error {
	token, err := g.tokenFor(ctx, record.ID)
	if err != nil {
		return &StoreError{Op: "create record", Err: err}
	}
	req := request.PutRecordRequest{
		Name:            record.Name,
		Nickname:        record.Nickname,
		Email:           record.Email,
		Score:           record.Score,
		Timestamp:       record.Timestamp,
		TermsAccepted:   record.TermsAccepted,
		NewsletterOptIn: record.NewsletterOptIn,
	}
	if err := g.client.Do(ctx, http.MethodPut, g.recordPath(record.ID), token, req, nil); err != nil {
		var apiErr *client.APIError
		if errors.As(err, &apiErr) && apiErr.Code == apierr.CodeRecordExists {
			err = fmt.Errorf("%w: %w", model.ErrRecordExists, err)
		}
		return &StoreError{Op: "create record", Err: err}
	}
	return nil
}

func (g *HTTP) FetchRecord(ctx context.Context, id model.PlayerID) (*model.PlayerRecord, error) {
	var result response.Record
	if err := g.client.Get(ctx, g.recordPath(id), &result); err != nil {
		var apiErr *client.APIError
		if errors.As(err, &apiErr) && apiErr.Code == apierr.CodeRecordNotFound {
			return nil, nil
		}
		return nil, &StoreError{Op: "fetch record", Err: err}
	}
	record := result.Model()
	return &record, nil
}

func (g *HTTP) UpdateScore(ctx context.Context, id model.PlayerID, score int64) error {
	token, err := g.tokenFor(ctx, id)
	if err != nil {
		return &StoreError{Op: "update score", Err: err}
	}
	req := request.UpdateScoreRequest{Score: &score}
	if err := g.client.Do(ctx, http.MethodPatch, g.recordPath(id)+"/score", token, req, nil); err != nil {
		return &StoreError{Op: "update score", Err: err}
	}
	return nil
}

func (g *HTTP) FetchAllRecords(ctx context.Context) ([]model.PlayerRecord, error) {
	var result []response.Record
	if err := g.client.Get(ctx, g.recordsPath(), &result); err != nil {
		return nil, &StoreError{Op: "fetch all records", Err: err}
	}
	records := make([]model.PlayerRecord, 0, len(result))
	for _, r := range result {
		records = append(records, r.Model())
	}
	return records, nil
}

// remoteAuthError classifies an API error from an identity endpoint
func remoteAuthError(err error) error {
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		return &AuthError{Kind: model.AuthUnknown, Err: err}
	}
	switch apiErr.Code {
	case apierr.CodeNoSuchUser:
		return &AuthError{Kind: model.AuthNoSuchUser, Err: err}
	case apierr.CodeInvalidEmail:
		return &AuthError{Kind: model.AuthInvalidEmailFormat, Err: err}
	case apierr.CodeEmailInUse:
		return &AuthError{Kind: model.AuthEmailInUse, Err: err}
	case apierr.CodeWeakPassword:
		return &AuthError{Kind: model.AuthWeakPassword, Err: err}
	default:
		return &AuthError{Kind: model.AuthUnknown, Err: err}
	}
}
