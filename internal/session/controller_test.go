package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/leaderboard/internal/cache"
	"github.com/mcoot/leaderboard/internal/cache/memory"
	"github.com/mcoot/leaderboard/internal/dependencies/mocks"
	"github.com/mcoot/leaderboard/internal/gateway"
	"github.com/mcoot/leaderboard/internal/model"
	"github.com/mcoot/leaderboard/internal/services/identity"
	memstorage "github.com/mcoot/leaderboard/internal/storage/memory"
	"github.com/mcoot/leaderboard/internal/testutil"
	"github.com/mcoot/leaderboard/internal/texts"
)

var now = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

// faultyGateway wraps a gateway and fails selected operations
type faultyGateway struct {
	gateway.Gateway

	createRecordErr error
	fetchRecordErr  error
	updateScoreErr  error
	fetchAllErr     error

	// verifyGate, when set, blocks VerifyIdentity until it is closed
	verifyGate    chan struct{}
	verifyStarted chan struct{}

	updateCalls int
}

func (g *faultyGateway) VerifyIdentity(ctx context.Context, email, password string) (model.PlayerID, error) {
	if g.verifyGate != nil {
		close(g.verifyStarted)
		<-g.verifyGate
	}
	return g.Gateway.VerifyIdentity(ctx, email, password)
}

func (g *faultyGateway) CreateRecord(ctx context.Context, record model.PlayerRecord) error {
	if g.createRecordErr != nil {
		return g.createRecordErr
	}
	return g.Gateway.CreateRecord(ctx, record)
}

func (g *faultyGateway) FetchRecord(ctx context.Context, id model.PlayerID) (*model.PlayerRecord, error) {
	if g.fetchRecordErr != nil {
		return nil, g.fetchRecordErr
	}
	return g.Gateway.FetchRecord(ctx, id)
}

func (g *faultyGateway) UpdateScore(ctx context.Context, id model.PlayerID, score int64) error {
	g.updateCalls++
	if g.updateScoreErr != nil {
		return g.updateScoreErr
	}
	return g.Gateway.UpdateScore(ctx, id, score)
}

func (g *faultyGateway) FetchAllRecords(ctx context.Context) ([]model.PlayerRecord, error) {
	if g.fetchAllErr != nil {
		return nil, g.fetchAllErr
	}
	return g.Gateway.FetchAllRecords(ctx)
}

type shownError struct {
	Context model.FormContext
	Message string
}

// recordingPresenter records every call made to it
type recordingPresenter struct {
	mu          sync.Mutex
	calls       []string
	errors      []shownError
	dismissed   []model.ScreenID
	leaderboard []model.LeaderboardEntry
	boardEmail  string
}

func (p *recordingPresenter) record(call string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, call)
}

func (p *recordingPresenter) RenderWelcome()  { p.record("welcome") }
func (p *recordingPresenter) EnableWelcome()  { p.record("enable_welcome") }
func (p *recordingPresenter) RenderRegister() { p.record("register") }
func (p *recordingPresenter) RenderLogin()    { p.record("login") }

func (p *recordingPresenter) RenderLeaderboard(entries []model.LeaderboardEntry, currentEmail string) {
	p.record("leaderboard")
	p.mu.Lock()
	defer p.mu.Unlock()
	p.leaderboard = entries
	p.boardEmail = currentEmail
}

func (p *recordingPresenter) ShowError(ctx model.FormContext, message string) {
	p.record("error")
	p.mu.Lock()
	defer p.mu.Unlock()
	p.errors = append(p.errors, shownError{Context: ctx, Message: message})
}

func (p *recordingPresenter) Dismiss(screen model.ScreenID) {
	p.record("dismiss:" + string(screen))
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dismissed = append(p.dismissed, screen)
}

type ControllerSuite struct {
	suite.Suite
	ctx       context.Context
	clock     *mocks.MockClock
	storage   *memstorage.Storage
	identity  *identity.Service
	gateway   *faultyGateway
	cache     *memory.Cache
	presenter *recordingPresenter
	ctrl      *Controller
	events    []model.Event
}

func TestControllerSuite(t *testing.T) {
	suite.Run(t, new(ControllerSuite))
}

func (s *ControllerSuite) SetupTest() {
	s.ctx = context.Background()
	s.clock = mocks.NewMockClock(now)
	s.storage = memstorage.New()
	s.identity = identity.New(s.storage, s.clock, mocks.NewMockRandom(),
		identity.Config{TokenSecret: []byte("secret"), BcryptCost: bcrypt.MinCost})
	s.gateway = &faultyGateway{Gateway: gateway.NewLocal(s.identity, s.storage, "cup")}
	s.cache = memory.New()
	s.presenter = &recordingPresenter{}
	s.events = nil
	s.ctrl = s.newController("cup", s.gateway)
}

func (s *ControllerSuite) newController(competition model.CompetitionID, g gateway.Gateway) *Controller {
	ctrl := New(Config{
		Competition: competition,
		Gateway:     g,
		Cache:       s.cache,
		Presenter:   s.presenter,
		Clock:       s.clock,
		Logger:      testutil.NopLogger(),
	})
	ctrl.Subscribe(func(e model.Event) {
		s.events = append(s.events, e)
	})
	return ctrl
}

func (s *ControllerSuite) registration(email string) model.Registration {
	return model.Registration{
		Name:          "Alice Smith",
		Nickname:      "ally",
		Email:         email,
		Password:      "secret1",
		TermsAccepted: true,
	}
}

func (s *ControllerSuite) register(email string) *model.PlayerRecord {
	rec, err := s.ctrl.Register(s.ctx, s.registration(email))
	s.Require().NoError(err)
	return rec
}

func (s *ControllerSuite) cached(competition model.CompetitionID) *model.PlayerRecord {
	raw, ok, err := s.cache.Read(s.ctx, cache.SessionKey(competition))
	s.Require().NoError(err)
	if !ok {
		return nil
	}
	var rec model.PlayerRecord
	s.Require().NoError(json.Unmarshal([]byte(raw), &rec))
	return &rec
}

func (s *ControllerSuite) eventTypes() []model.EventType {
	types := make([]model.EventType, 0, len(s.events))
	for _, e := range s.events {
		types = append(types, e.Type)
	}
	return types
}

// Registration

func (s *ControllerSuite) TestRegisterEstablishesSession() {
	rec := s.register("alice@example.com")

	s.NotEmpty(rec.ID)
	s.Equal("ally", rec.Nickname)
	s.Equal(int64(0), rec.Score)
	s.Equal(now, rec.Timestamp)
	s.True(rec.TermsAccepted)
	s.Equal(Active, s.ctrl.State())

	stored, err := s.storage.GetRecord(s.ctx, "cup", rec.ID)
	s.Require().NoError(err)
	s.Equal(rec.Nickname, stored.Nickname)

	s.Equal(rec, s.cached("cup"))
	s.Equal([]model.EventType{model.EventSessionReady, model.EventExperienceStarted}, s.eventTypes())
	s.Equal([]model.ScreenID{model.ScreenRegister}, s.presenter.dismissed)
}

func (s *ControllerSuite) TestRegisterNeverStoresPassword() {
	rec := s.register("alice@example.com")

	raw, _, err := s.cache.Read(s.ctx, cache.SessionKey("cup"))
	s.Require().NoError(err)
	s.NotContains(raw, "secret1")

	stored, err := s.storage.GetRecord(s.ctx, "cup", rec.ID)
	s.Require().NoError(err)
	data, err := json.Marshal(stored)
	s.Require().NoError(err)
	s.NotContains(string(data), "secret1")
}

func (s *ControllerSuite) TestRegisterClassifiesAuthErrors() {
	reg := s.registration("alice@example.com")
	reg.Password = "123"

	_, err := s.ctrl.Register(s.ctx, reg)

	var classified *ClassifiedError
	s.Require().True(errors.As(err, &classified))
	s.Equal(model.ContextRegister, classified.Context)
	s.Equal(model.AuthWeakPassword, classified.Kind)
	s.Equal(texts.Default().Auth.WeakPassword, classified.Message)
	s.Equal(NoSession, s.ctrl.State())

	s.Require().Len(s.presenter.errors, 1)
	s.Equal(shownError{Context: model.ContextRegister, Message: classified.Message}, s.presenter.errors[0])

	s.Require().Len(s.events, 1)
	s.Equal(model.EventClassifiedError, s.events[0].Type)
	payload, ok := s.events[0].Payload.(model.ClassifiedErrorPayload)
	s.Require().True(ok)
	s.Equal(string(model.AuthWeakPassword), payload.Kind)
}

func (s *ControllerSuite) TestRegisterExistingEmailWithDifferentPassword() {
	s.register("alice@example.com")
	ctrl := s.newController("cup", s.gateway)

	reg := s.registration("alice@example.com")
	reg.Password = "another-pass"
	_, err := ctrl.Register(s.ctx, reg)

	var classified *ClassifiedError
	s.Require().True(errors.As(err, &classified))
	s.Equal(model.AuthEmailInUse, classified.Kind)
}

func (s *ControllerSuite) TestRegisterExistingPlayerIsEmailInUse() {
	s.register("alice@example.com")

	_, err := s.ctrl.Register(s.ctx, s.registration("alice@example.com"))

	var classified *ClassifiedError
	s.Require().True(errors.As(err, &classified))
	s.Equal(model.AuthEmailInUse, classified.Kind)
	s.Equal(Active, s.ctrl.State())
}

func (s *ControllerSuite) TestRegisterIsAtomic() {
	s.gateway.createRecordErr = &gateway.StoreError{Op: "create record", Err: errors.New("unavailable")}

	_, err := s.ctrl.Register(s.ctx, s.registration("alice@example.com"))

	var classified *ClassifiedError
	s.Require().True(errors.As(err, &classified))
	s.Equal(model.AuthUnknown, classified.Kind)
	s.Equal(NoSession, s.ctrl.State())
	s.Nil(s.ctrl.Current())
	s.Nil(s.cached("cup"))

	_, err = s.ctrl.SubmitScore(s.ctx, 10)
	s.ErrorIs(err, ErrNoSession)

	entries, err := s.ctrl.RequestLeaderboard(s.ctx)
	s.Require().NoError(err)
	s.Empty(entries)
}

func (s *ControllerSuite) TestRegisterRetryRecoversOrphanedIdentity() {
	s.gateway.createRecordErr = errors.New("unavailable")
	_, err := s.ctrl.Register(s.ctx, s.registration("alice@example.com"))
	s.Require().Error(err)

	orphan, err := s.storage.GetIdentityByEmail(s.ctx, "alice@example.com")
	s.Require().NoError(err)

	s.gateway.createRecordErr = nil
	rec, err := s.ctrl.Register(s.ctx, s.registration("alice@example.com"))
	s.Require().NoError(err)
	s.Equal(orphan.ID, rec.ID)
	s.Equal(Active, s.ctrl.State())
	s.NotNil(s.cached("cup"))
}

// Login

func (s *ControllerSuite) TestLoginLoadsRecordFromStore() {
	reg := s.register("alice@example.com")
	s.Require().NoError(s.storage.UpdateScore(s.ctx, "cup", reg.ID, 70))

	ctrl := s.newController("cup", s.gateway)
	s.events = nil
	rec, err := ctrl.Login(s.ctx, "alice@example.com", "secret1")
	s.Require().NoError(err)

	s.Equal(int64(70), rec.Score)
	s.Equal(Active, ctrl.State())
	s.Equal(int64(70), s.cached("cup").Score)
	s.Equal([]model.EventType{model.EventSessionReady, model.EventExperienceStarted}, s.eventTypes())
	s.Contains(s.presenter.dismissed, model.ScreenLogin)
}

func (s *ControllerSuite) TestLoginFailurePreservesPreviousSession() {
	prev := s.register("alice@example.com")

	_, err := s.ctrl.Login(s.ctx, "alice@example.com", "wrong-pass")

	var classified *ClassifiedError
	s.Require().True(errors.As(err, &classified))
	s.Equal(model.ContextLogin, classified.Context)
	s.Equal(model.AuthNoSuchUser, classified.Kind)
	s.Equal(texts.Default().Auth.NoSuchUser, classified.Message)

	s.Equal(Active, s.ctrl.State())
	s.Equal(prev, s.ctrl.Current())
	s.Equal(prev, s.cached("cup"))
}

func (s *ControllerSuite) TestLoginFetchFailureRestoresCache() {
	prev := s.register("alice@example.com")
	s.gateway.fetchRecordErr = errors.New("unavailable")

	_, err := s.ctrl.Login(s.ctx, "alice@example.com", "secret1")

	var classified *ClassifiedError
	s.Require().True(errors.As(err, &classified))
	s.Equal(model.AuthUnknown, classified.Kind)
	s.Equal(prev, s.cached("cup"))
	s.Equal(prev, s.ctrl.Current())
}

func (s *ControllerSuite) TestLoginIdentityWithoutRecord() {
	_, err := s.identity.CreateIdentity(s.ctx, "bob@example.com", "secret1")
	s.Require().NoError(err)

	_, err = s.ctrl.Login(s.ctx, "bob@example.com", "secret1")

	var classified *ClassifiedError
	s.Require().True(errors.As(err, &classified))
	s.Equal(model.AuthNoSuchUser, classified.Kind)
	s.Equal(NoSession, s.ctrl.State())
	s.Nil(s.cached("cup"))
}

func (s *ControllerSuite) TestLoginWhileAuthenticatingIsBusy() {
	s.register("alice@example.com")
	ctrl := s.newController("cup", s.gateway)

	s.gateway.verifyGate = make(chan struct{})
	s.gateway.verifyStarted = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		_, err := ctrl.Login(s.ctx, "alice@example.com", "secret1")
		done <- err
	}()
	<-s.gateway.verifyStarted

	s.Equal(LoggingIn, ctrl.State())
	_, err := ctrl.Register(s.ctx, s.registration("bob@example.com"))
	s.ErrorIs(err, ErrBusy)

	close(s.gateway.verifyGate)
	s.NoError(<-done)
	s.Equal(Active, ctrl.State())
}

// Restore

func (s *ControllerSuite) TestRestoreRefreshesCachedSession() {
	rec := s.register("alice@example.com")
	s.Require().NoError(s.storage.UpdateScore(s.ctx, "cup", rec.ID, 25))

	ctrl := s.newController("cup", s.gateway)
	restored := ctrl.Restore(s.ctx)

	s.Require().NotNil(restored)
	s.Equal(int64(25), restored.Score)
	s.Equal(Active, ctrl.State())
	s.Equal(int64(25), s.cached("cup").Score)
}

func (s *ControllerSuite) TestRestoreKeepsCachedCopyWhenStoreUnavailable() {
	rec := s.register("alice@example.com")
	s.gateway.fetchRecordErr = errors.New("unavailable")

	ctrl := s.newController("cup", s.gateway)
	restored := ctrl.Restore(s.ctx)

	s.Equal(rec, restored)
	s.Equal(Active, ctrl.State())
}

func (s *ControllerSuite) TestRestoreDiscardsSessionWithoutRecord() {
	data, err := json.Marshal(model.PlayerRecord{ID: "ghost", Email: "ghost@example.com"})
	s.Require().NoError(err)
	s.Require().NoError(s.cache.Write(s.ctx, cache.SessionKey("cup"), string(data)))

	s.Nil(s.ctrl.Restore(s.ctx))
	s.Equal(NoSession, s.ctrl.State())
	s.Nil(s.cached("cup"))
}

func (s *ControllerSuite) TestCorruptCacheIsNoSession() {
	s.Require().NoError(s.cache.Write(s.ctx, cache.SessionKey("cup"), "{not json"))

	s.ctrl.Initialize(s.ctx, false)

	s.Nil(s.ctrl.Current())
	s.Equal(NoSession, s.ctrl.State())
	s.Empty(s.presenter.errors)
	s.Equal([]string{"welcome"}, s.presenter.calls)
}

func (s *ControllerSuite) TestInitializeAutoAdvance() {
	s.ctrl.Initialize(s.ctx, true)

	s.Equal([]string{"welcome", "enable_welcome"}, s.presenter.calls)
}

// Scores

func (s *ControllerSuite) TestScoresAreMonotonic() {
	rec := s.register("alice@example.com")

	accepted, err := s.ctrl.SubmitScore(s.ctx, 10)
	s.Require().NoError(err)
	s.True(accepted)

	for _, candidate := range []int64{10, 5, 0, -1} {
		accepted, err = s.ctrl.SubmitScore(s.ctx, candidate)
		s.Require().NoError(err)
		s.False(accepted, "candidate %d", candidate)
	}

	accepted, err = s.ctrl.SubmitScore(s.ctx, 11)
	s.Require().NoError(err)
	s.True(accepted)

	stored, err := s.storage.GetRecord(s.ctx, "cup", rec.ID)
	s.Require().NoError(err)
	s.Equal(int64(11), stored.Score)
	s.Equal(int64(11), s.cached("cup").Score)
	s.Equal(int64(11), s.ctrl.Current().Score)
	s.Equal(2, s.gateway.updateCalls)
}

func (s *ControllerSuite) TestScoreAcceptedEvent() {
	s.register("alice@example.com")
	s.events = nil

	_, err := s.ctrl.SubmitScore(s.ctx, 42)
	s.Require().NoError(err)

	s.Require().Len(s.events, 1)
	s.Equal(model.EventScoreAccepted, s.events[0].Type)
	s.Equal(model.ScoreAcceptedPayload{PreviousScore: 0, Score: 42, Persisted: true}, s.events[0].Payload)
}

func (s *ControllerSuite) TestScoreWriteFailureKeepsInMemoryScore() {
	s.register("alice@example.com")
	s.gateway.updateScoreErr = errors.New("unavailable")

	accepted, err := s.ctrl.SubmitScore(s.ctx, 30)
	s.True(accepted)

	var classified *ClassifiedError
	s.Require().True(errors.As(err, &classified))
	s.Equal(model.ContextScore, classified.Context)

	s.Equal(int64(30), s.ctrl.Current().Score)
	s.Equal(int64(0), s.cached("cup").Score)
	s.Equal(1, s.gateway.updateCalls)
}

func (s *ControllerSuite) TestSubmitScoreWithoutSession() {
	accepted, err := s.ctrl.SubmitScore(s.ctx, 10)
	s.False(accepted)
	s.ErrorIs(err, ErrNoSession)
	s.Zero(s.gateway.updateCalls)
}

// Leaderboard

func (s *ControllerSuite) TestRequestLeaderboardRanksAndFlagsCurrentUser() {
	s.Require().NoError(s.storage.CreateRecord(s.ctx, "cup", &model.PlayerRecord{ID: "a", Nickname: "A", Email: "a@example.com", Score: 100, Timestamp: now.Add(time.Second)}))
	s.Require().NoError(s.storage.CreateRecord(s.ctx, "cup", &model.PlayerRecord{ID: "b", Nickname: "B", Email: "b@example.com", Score: 100, Timestamp: now}))
	s.Require().NoError(s.storage.CreateRecord(s.ctx, "cup", &model.PlayerRecord{ID: "c", Nickname: "C", Email: "c@example.com", Score: 90, Timestamp: now.Add(5 * time.Second)}))
	rec := s.register("Alice@Example.com")

	entries, err := s.ctrl.RequestLeaderboard(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(entries, 4)

	s.Equal("B", entries[0].Record.Nickname)
	s.Equal(1, entries[0].Rank)
	s.Equal("A", entries[1].Record.Nickname)
	s.Equal(1, entries[1].Rank)
	s.Equal("C", entries[2].Record.Nickname)
	s.Equal(2, entries[2].Rank)
	s.Equal(rec.ID, entries[3].Record.ID)
	s.Equal(3, entries[3].Rank)
	s.True(entries[3].IsCurrentUser)
	s.False(entries[0].IsCurrentUser)

	s.Equal(entries, s.presenter.leaderboard)
	s.Equal(rec.Email, s.presenter.boardEmail)
}

func (s *ControllerSuite) TestRequestLeaderboardFailure() {
	s.gateway.fetchAllErr = errors.New("unavailable")

	entries, err := s.ctrl.RequestLeaderboard(s.ctx)
	s.Nil(entries)

	var classified *ClassifiedError
	s.Require().True(errors.As(err, &classified))
	s.Equal(model.ContextLeaderboard, classified.Context)
	s.NotContains(s.presenter.calls, "leaderboard")
}

// Screens and hooks

func (s *ControllerSuite) TestResumeWithoutSessionGoesToRegistration() {
	s.ctrl.ResumeAfterScreenClose(s.ctx, model.ScreenWelcome)
	s.ctrl.ResumeAfterScreenClose(s.ctx, model.ScreenLeaderboard)

	s.Equal([]string{"register", "register"}, s.presenter.calls)
	s.Empty(s.events)
}

func (s *ControllerSuite) TestResumeWithSessionStartsExperience() {
	s.register("alice@example.com")
	s.events = nil

	s.ctrl.ResumeAfterScreenClose(s.ctx, model.ScreenWelcome)

	s.Equal([]model.EventType{model.EventExperienceStarted}, s.eventTypes())
}

func (s *ControllerSuite) TestResumeIgnoresUnexpectedScreen() {
	s.ctrl.ResumeAfterScreenClose(s.ctx, model.ScreenLogin)
	s.ctrl.ResumeAfterScreenClose(s.ctx, "bogus")

	s.Empty(s.presenter.calls)
	s.Empty(s.events)
}

func (s *ControllerSuite) TestSwitchScreens() {
	s.ctrl.SwitchToLogin()
	s.ctrl.SwitchToRegister()

	s.Equal([]string{"dismiss:register", "login", "dismiss:login", "register"}, s.presenter.calls)
}

func (s *ControllerSuite) TestPassThroughHooks() {
	s.ctrl.RequestTerms(s.ctx)
	s.ctrl.RequestPrivacyPolicy(s.ctx)

	s.Equal([]model.EventType{model.EventTermsRequested, model.EventPrivacyPolicyRequested}, s.eventTypes())
	s.Equal(model.CompetitionID("cup"), s.events[0].Competition)
	s.Equal(now, s.events[0].Timestamp)
}

func (s *ControllerSuite) TestListenersRunInOrderAndUnsubscribe() {
	var order []string
	unsubscribeFirst := s.ctrl.Subscribe(func(model.Event) { order = append(order, "first") })
	s.ctrl.Subscribe(func(model.Event) { order = append(order, "second") })

	s.ctrl.RequestTerms(s.ctx)
	unsubscribeFirst()
	unsubscribeFirst()
	s.ctrl.RequestTerms(s.ctx)

	s.Equal([]string{"first", "second", "second"}, order)
}

// Isolation

func (s *ControllerSuite) TestCompetitionsDoNotShareCache() {
	rec := s.register("alice@example.com")

	other := s.newController("league", gateway.NewLocal(s.identity, s.storage, "league"))
	s.Nil(other.Restore(s.ctx))
	s.Nil(s.cached("league"))

	_, err := other.Login(s.ctx, "alice@example.com", "secret1")
	s.Require().Error(err)

	s.Equal(rec, s.cached("cup"))
	s.Nil(s.cached("league"))
}

func (s *ControllerSuite) TestNopPresenterDefault() {
	ctrl := New(Config{
		Competition: "cup",
		Gateway:     s.gateway,
		Cache:       memory.New(),
	})

	ctrl.Initialize(s.ctx, true)
	_, err := ctrl.Register(s.ctx, s.registration("alice@example.com"))
	s.NoError(err)
}
