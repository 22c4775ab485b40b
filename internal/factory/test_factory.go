package factory

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/leaderboard/internal/dependencies/mocks"
	"github.com/mcoot/leaderboard/internal/model"
	"github.com/mcoot/leaderboard/internal/services/identity"
	"github.com/mcoot/leaderboard/internal/storage/memory"
	"github.com/mcoot/leaderboard/internal/testutil"
	"github.com/mcoot/leaderboard/internal/texts"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
	Memory     *memory.Storage
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	identityCfg := identity.Config{
		TokenSecret: []byte("test-secret"),
		BcryptCost:  bcrypt.MinCost,
	}
	app := newWithDependencies(store, mockClock, mockRandom, identityCfg, texts.Default(), testutil.NopLogger())

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
		Memory:     store,
	}
}

// SeedRecords stores records directly, bypassing identities
func (t *TestApp) SeedRecords(competition model.CompetitionID, records ...model.PlayerRecord) error {
	for i := range records {
		if err := t.Storage.CreateRecord(context.Background(), competition, &records[i]); err != nil {
			return err
		}
	}
	return nil
}
