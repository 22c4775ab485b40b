// Package session is the single authority over who is playing and which score
// is recorded for them.
package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/mcoot/leaderboard/internal/cache"
	"github.com/mcoot/leaderboard/internal/dependencies/clock"
	"github.com/mcoot/leaderboard/internal/gateway"
	"github.com/mcoot/leaderboard/internal/model"
	"github.com/mcoot/leaderboard/internal/ranking"
	"github.com/mcoot/leaderboard/internal/texts"
)

// Listener receives controller events
type Listener func(model.Event)

// Config holds the collaborators of a Controller. Gateway and Cache are required.
type Config struct {
	Competition model.CompetitionID
	Gateway     gateway.Gateway
	Cache       cache.Cache
	Presenter   Presenter
	Clock       clock.Clock
	Texts       *texts.Catalogue
	Ranking     *ranking.Engine
	Logger      *slog.Logger
}

type subscription struct {
	id       int
	listener Listener
}

// Controller orchestrates login, registration, score submission and the
// reconciliation of the local cache with the remote store for one competition.
//
// The mutex guards state and the current record only; it is never held while
// waiting on the gateway.
type Controller struct {
	competition model.CompetitionID
	cacheKey    string
	gateway     gateway.Gateway
	cache       cache.Cache
	presenter   Presenter
	clock       clock.Clock
	texts       *texts.Catalogue
	ranking     *ranking.Engine
	logger      *slog.Logger

	mu      sync.Mutex
	state   State
	current *model.PlayerRecord

	listenersMu sync.RWMutex
	listeners   []subscription
	nextID      int
}

// New creates a Controller with no session
func New(cfg Config) *Controller {
	if cfg.Presenter == nil {
		cfg.Presenter = NopPresenter{}
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	if cfg.Texts == nil {
		cfg.Texts = texts.Default()
	}
	if cfg.Ranking == nil {
		cfg.Ranking = ranking.New(ranking.DefaultLanguage)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	return &Controller{
		competition: cfg.Competition,
		cacheKey:    cache.SessionKey(cfg.Competition),
		gateway:     cfg.Gateway,
		cache:       cfg.Cache,
		presenter:   cfg.Presenter,
		clock:       cfg.Clock,
		texts:       cfg.Texts,
		ranking:     cfg.Ranking,
		logger:      cfg.Logger.With(slog.String("competition", string(cfg.Competition))),
	}
}

// Subscribe registers a listener. Events are delivered synchronously, in
// registration order, on the goroutine that caused them.
func (c *Controller) Subscribe(listener Listener) (unsubscribe func()) {
	c.listenersMu.Lock()
	defer c.listenersMu.Unlock()
	c.nextID++
	id := c.nextID
	c.listeners = append(c.listeners, subscription{id: id, listener: listener})

	var once sync.Once
	return func() {
		once.Do(func() {
			c.listenersMu.Lock()
			defer c.listenersMu.Unlock()
			for i, sub := range c.listeners {
				if sub.id == id {
					c.listeners = append(c.listeners[:i:i], c.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

// State returns the current lifecycle state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Current returns a copy of the signed-in player's record, or nil
func (c *Controller) Current() *model.PlayerRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return nil
	}
	rec := *c.current
	return &rec
}

// Initialize restores any cached session and shows the welcome screen
func (c *Controller) Initialize(ctx context.Context, autoAdvance bool) {
	c.Restore(ctx)
	c.presenter.RenderWelcome()
	if autoAdvance {
		c.presenter.EnableWelcome()
	}
}

// Restore loads the cached session and refreshes it from the record store.
// A missing or unreadable cache yields no session. When the store cannot be
// reached the cached copy is used as is.
func (c *Controller) Restore(ctx context.Context) *model.PlayerRecord {
	cached := c.readCache(ctx)
	if cached == nil {
		c.setSession(NoSession, nil)
		return nil
	}

	fresh, err := c.gateway.FetchRecord(ctx, cached.ID)
	switch {
	case err != nil:
		c.logger.Warn("failed to refresh cached session, using cached copy",
			slog.String("player_id", string(cached.ID)),
			slog.String("error", err.Error()))
	case fresh == nil:
		c.logger.Warn("cached session has no record, discarding it",
			slog.String("player_id", string(cached.ID)))
		c.clearCache(ctx)
		c.setSession(NoSession, nil)
		return nil
	default:
		cached = fresh
		c.writeCache(ctx, cached)
	}

	c.setSession(Active, cached)
	return c.Current()
}

// Login verifies credentials and establishes the player's session. On failure
// the previous session, cached or in memory, is left exactly as it was.
func (c *Controller) Login(ctx context.Context, email, password string) (*model.PlayerRecord, error) {
	prevState, err := c.begin(LoggingIn)
	if err != nil {
		return nil, err
	}

	id, err := c.gateway.VerifyIdentity(ctx, email, password)
	if err != nil {
		c.revert(prevState)
		return nil, c.fail(model.ContextLogin, gateway.AuthKind(err), err)
	}

	// A stale cached session must not survive a half-finished login
	previous, hadPrevious := c.readRawCache(ctx)
	c.clearCache(ctx)

	record, err := c.gateway.FetchRecord(ctx, id)
	if err != nil || record == nil {
		c.restoreRawCache(ctx, previous, hadPrevious)
		c.revert(prevState)
		if err == nil {
			c.logger.Warn("identity has no record", slog.String("player_id", string(id)))
			return nil, c.fail(model.ContextLogin, model.AuthNoSuchUser, nil)
		}
		return nil, c.fail(model.ContextLogin, model.AuthUnknown, err)
	}

	c.establish(ctx, record, model.ScreenLogin)
	return c.Current(), nil
}

// Register creates an identity and its record and establishes the session.
// The password never reaches the record.
//
// When the email is already registered but the credentials match an identity
// that has no record, the record is created for that identity. This lets a
// registration that failed after the identity was created be retried.
func (c *Controller) Register(ctx context.Context, reg model.Registration) (*model.PlayerRecord, error) {
	prevState, err := c.begin(Registering)
	if err != nil {
		return nil, err
	}

	id, err := c.gateway.CreateIdentity(ctx, reg.Email, reg.Password)
	if err != nil {
		recovered, ok := c.recoverOrphan(ctx, reg, err)
		if !ok {
			c.revert(prevState)
			return nil, c.fail(model.ContextRegister, gateway.AuthKind(err), err)
		}
		id = recovered
	}

	record := reg.Record(id, c.clock.Now())
	if err := c.gateway.CreateRecord(ctx, record); err != nil {
		c.logger.Error("identity created but record was not persisted",
			slog.String("player_id", string(id)),
			slog.String("error", err.Error()))
		c.revert(prevState)
		return nil, c.fail(model.ContextRegister, model.AuthUnknown, err)
	}

	c.establish(ctx, &record, model.ScreenRegister)
	return c.Current(), nil
}

// recoverOrphan returns the id of an existing identity matching reg that has no record
func (c *Controller) recoverOrphan(ctx context.Context, reg model.Registration, createErr error) (model.PlayerID, bool) {
	if !gateway.IsAuthError(createErr, model.AuthEmailInUse) {
		return "", false
	}
	id, err := c.gateway.VerifyIdentity(ctx, reg.Email, reg.Password)
	if err != nil {
		return "", false
	}
	existing, err := c.gateway.FetchRecord(ctx, id)
	if err != nil || existing != nil {
		return "", false
	}
	c.logger.Info("recovering identity without record", slog.String("player_id", string(id)))
	return id, true
}

// SubmitScore records candidate if it beats the current score. Equal or lower
// scores are ignored and report false. When the remote write fails the
// in-memory score keeps the new value, the cache keeps the last persisted one
// and the failure is returned as a *ClassifiedError.
func (c *Controller) SubmitScore(ctx context.Context, candidate int64) (bool, error) {
	c.mu.Lock()
	if c.current == nil {
		c.mu.Unlock()
		return false, ErrNoSession
	}
	previous := c.current.Score
	if candidate <= previous {
		c.mu.Unlock()
		return false, nil
	}
	c.current.Score = candidate
	snapshot := *c.current
	c.mu.Unlock()

	err := c.gateway.UpdateScore(ctx, snapshot.ID, candidate)
	if err == nil {
		c.writeCache(ctx, &snapshot)
		c.logger.Info("score accepted",
			slog.String("player_id", string(snapshot.ID)),
			slog.Int64("score", candidate))
	}

	c.emit(model.EventScoreAccepted, snapshot.ID, model.ScoreAcceptedPayload{
		PreviousScore: previous,
		Score:         candidate,
		Persisted:     err == nil,
	})

	if err != nil {
		c.logger.Error("failed to persist score",
			slog.String("player_id", string(snapshot.ID)),
			slog.Int64("score", candidate),
			slog.String("error", err.Error()))
		return true, c.fail(model.ContextScore, model.AuthUnknown, err)
	}
	return true, nil
}

// RequestLeaderboard fetches every record of the competition, ranks them and
// hands the result to the presenter
func (c *Controller) RequestLeaderboard(ctx context.Context) ([]model.LeaderboardEntry, error) {
	records, err := c.gateway.FetchAllRecords(ctx)
	if err != nil {
		return nil, c.fail(model.ContextLeaderboard, model.AuthUnknown, err)
	}

	var email string
	if current := c.Current(); current != nil {
		email = current.Email
	}

	entries := c.ranking.Rank(records, email)
	c.presenter.RenderLeaderboard(entries, email)
	return entries, nil
}

// ResumeAfterScreenClose continues the flow after the welcome or leaderboard
// screen is dismissed: to registration without a session, to the experience with one
func (c *Controller) ResumeAfterScreenClose(ctx context.Context, screen model.ScreenID) {
	switch screen {
	case model.ScreenWelcome, model.ScreenLeaderboard:
		current := c.Current()
		if current == nil {
			c.presenter.RenderRegister()
			return
		}
		c.emit(model.EventExperienceStarted, current.ID, nil)
	default:
		c.logger.Warn("unexpected closed screen", slog.String("screen", string(screen)))
	}
}

// SwitchToLogin replaces the registration screen with the login screen
func (c *Controller) SwitchToLogin() {
	c.presenter.Dismiss(model.ScreenRegister)
	c.presenter.RenderLogin()
}

// SwitchToRegister replaces the login screen with the registration screen
func (c *Controller) SwitchToRegister() {
	c.presenter.Dismiss(model.ScreenLogin)
	c.presenter.RenderRegister()
}

// RequestTerms notifies listeners that the terms of use were requested
func (c *Controller) RequestTerms(ctx context.Context) {
	c.emit(model.EventTermsRequested, c.currentID(), nil)
}

// RequestPrivacyPolicy notifies listeners that the privacy policy was requested
func (c *Controller) RequestPrivacyPolicy(ctx context.Context) {
	c.emit(model.EventPrivacyPolicyRequested, c.currentID(), nil)
}

// begin enters an authenticating state and returns the state to revert to
func (c *Controller) begin(next State) (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Authenticating() {
		return c.state, ErrBusy
	}
	prev := c.state
	c.state = next
	return prev, nil
}

func (c *Controller) revert(prev State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = prev
}

func (c *Controller) setSession(state State, record *model.PlayerRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = state
	if record == nil {
		c.current = nil
		return
	}
	rec := *record
	c.current = &rec
}

// establish makes record the active session and announces it
func (c *Controller) establish(ctx context.Context, record *model.PlayerRecord, screen model.ScreenID) {
	c.setSession(Active, record)
	c.writeCache(ctx, record)
	if err := c.gateway.Commit(ctx, record.ID); err != nil {
		c.logger.Error("failed to keep credentials",
			slog.String("player_id", string(record.ID)),
			slog.String("error", err.Error()))
	}

	c.logger.Info("session established",
		slog.String("player_id", string(record.ID)),
		slog.String("via", string(screen)))

	c.emit(model.EventSessionReady, record.ID, model.SessionReadyPayload{Record: *record})
	c.presenter.Dismiss(screen)
	c.emit(model.EventExperienceStarted, record.ID, nil)
}

// fail classifies a failure, shows it and notifies listeners
func (c *Controller) fail(formCtx model.FormContext, kind model.AuthErrorKind, err error) *ClassifiedError {
	classified := &ClassifiedError{
		Context: formCtx,
		Kind:    kind,
		Message: c.texts.AuthMessage(formCtx, kind),
		Err:     err,
	}

	attrs := []any{slog.String("context", string(formCtx)), slog.String("kind", string(kind))}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	c.logger.Warn("operation failed", attrs...)

	c.presenter.ShowError(formCtx, classified.Message)
	c.emit(model.EventClassifiedError, c.currentID(), model.ClassifiedErrorPayload{
		Context: formCtx,
		Kind:    string(kind),
		Message: classified.Message,
	})
	return classified
}

func (c *Controller) currentID() model.PlayerID {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return ""
	}
	return c.current.ID
}

func (c *Controller) emit(eventType model.EventType, playerID model.PlayerID, payload any) {
	event := model.Event{
		Type:        eventType,
		Timestamp:   c.clock.Now(),
		Competition: c.competition,
		PlayerID:    playerID,
		Payload:     payload,
	}

	c.listenersMu.RLock()
	subs := make([]subscription, len(c.listeners))
	copy(subs, c.listeners)
	c.listenersMu.RUnlock()

	for _, sub := range subs {
		sub.listener(event)
	}
}

// Cache helpers. Cache failures are logged and never fail an operation.

func (c *Controller) readRawCache(ctx context.Context) (string, bool) {
	raw, ok, err := c.cache.Read(ctx, c.cacheKey)
	if err != nil {
		c.logger.Warn("failed to read session cache", slog.String("error", err.Error()))
		return "", false
	}
	return raw, ok
}

func (c *Controller) readCache(ctx context.Context) *model.PlayerRecord {
	raw, ok := c.readRawCache(ctx)
	if !ok {
		return nil
	}
	var record model.PlayerRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil || record.ID == "" {
		c.logger.Warn("ignoring corrupt session cache")
		return nil
	}
	return &record
}

func (c *Controller) writeCache(ctx context.Context, record *model.PlayerRecord) {
	data, err := json.Marshal(record)
	if err != nil {
		c.logger.Error("failed to encode session", slog.String("error", err.Error()))
		return
	}
	if err := c.cache.Write(ctx, c.cacheKey, string(data)); err != nil {
		c.logger.Error("failed to write session cache", slog.String("error", err.Error()))
	}
}

func (c *Controller) clearCache(ctx context.Context) {
	if err := c.cache.Clear(ctx, c.cacheKey); err != nil {
		c.logger.Error("failed to clear session cache", slog.String("error", err.Error()))
	}
}

func (c *Controller) restoreRawCache(ctx context.Context, raw string, ok bool) {
	if !ok {
		return
	}
	if err := c.cache.Write(ctx, c.cacheKey, raw); err != nil {
		c.logger.Error("failed to restore session cache", slog.String("error", err.Error()))
	}
}
