// Package storagetest holds behaviour tests shared by every storage implementation.
package storagetest

import (
	"context"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/leaderboard/internal/model"
	"github.com/mcoot/leaderboard/internal/storage"
)

// Suite exercises a storage.Storage. Embedders set Storage in SetupTest.
type Suite struct {
	suite.Suite
	Storage storage.Storage
	Ctx     context.Context
}

var created = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func identity(id model.PlayerID, email string) *model.Identity {
	return &model.Identity{ID: id, Email: email, PasswordHash: "hash-" + string(id), CreatedAt: created}
}

func record(id model.PlayerID, nickname string, score int64) *model.PlayerRecord {
	return &model.PlayerRecord{
		ID:            id,
		Name:          "Name " + nickname,
		Nickname:      nickname,
		Email:         nickname + "@example.com",
		Score:         score,
		Timestamp:     created,
		TermsAccepted: true,
	}
}

// Identity tests

func (s *Suite) TestSaveAndGetIdentity() {
	s.Require().NoError(s.Storage.SaveIdentity(s.Ctx, identity("p1", "alice@example.com")))

	got, err := s.Storage.GetIdentity(s.Ctx, "p1")
	s.Require().NoError(err)
	s.Equal("alice@example.com", got.Email)
	s.Equal("hash-p1", got.PasswordHash)
	s.True(created.Equal(got.CreatedAt))
}

func (s *Suite) TestGetIdentityByEmail() {
	_ = s.Storage.SaveIdentity(s.Ctx, identity("p1", "alice@example.com"))

	got, err := s.Storage.GetIdentityByEmail(s.Ctx, "alice@example.com")
	s.Require().NoError(err)
	s.Equal(model.PlayerID("p1"), got.ID)
}

func (s *Suite) TestGetIdentityNotFound() {
	_, err := s.Storage.GetIdentity(s.Ctx, "missing")
	s.ErrorIs(err, model.ErrIdentityNotFound)

	_, err = s.Storage.GetIdentityByEmail(s.Ctx, "nobody@example.com")
	s.ErrorIs(err, model.ErrIdentityNotFound)
}

func (s *Suite) TestSaveIdentityRejectsTakenEmail() {
	s.Require().NoError(s.Storage.SaveIdentity(s.Ctx, identity("p1", "alice@example.com")))

	err := s.Storage.SaveIdentity(s.Ctx, identity("p2", "alice@example.com"))
	s.ErrorIs(err, model.ErrEmailTaken)

	_, err = s.Storage.GetIdentity(s.Ctx, "p2")
	s.ErrorIs(err, model.ErrIdentityNotFound)
}

func (s *Suite) TestSaveIdentityAgainUpdates() {
	_ = s.Storage.SaveIdentity(s.Ctx, identity("p1", "alice@example.com"))

	updated := identity("p1", "alice@example.com")
	updated.PasswordHash = "rotated"
	s.Require().NoError(s.Storage.SaveIdentity(s.Ctx, updated))

	got, err := s.Storage.GetIdentity(s.Ctx, "p1")
	s.Require().NoError(err)
	s.Equal("rotated", got.PasswordHash)
}

// Record tests

func (s *Suite) TestCreateAndGetRecord() {
	rec := record("p1", "ally", 0)
	s.Require().NoError(s.Storage.CreateRecord(s.Ctx, "cup", rec))

	got, err := s.Storage.GetRecord(s.Ctx, "cup", "p1")
	s.Require().NoError(err)
	s.Equal(rec.Nickname, got.Nickname)
	s.Equal(rec.Email, got.Email)
	s.Equal(rec.Name, got.Name)
	s.True(got.TermsAccepted)
	s.False(got.NewsletterOptIn)
	s.True(created.Equal(got.Timestamp))
}

func (s *Suite) TestGetRecordNotFound() {
	_, err := s.Storage.GetRecord(s.Ctx, "cup", "missing")
	s.ErrorIs(err, model.ErrRecordNotFound)
}

func (s *Suite) TestRecordsAreScopedByCompetition() {
	_ = s.Storage.CreateRecord(s.Ctx, "cup", record("p1", "ally", 10))

	_, err := s.Storage.GetRecord(s.Ctx, "other", "p1")
	s.ErrorIs(err, model.ErrRecordNotFound)

	records, err := s.Storage.ListRecords(s.Ctx, "other")
	s.Require().NoError(err)
	s.Empty(records)
}

func (s *Suite) TestCreateRecordKeepsExisting() {
	s.Require().NoError(s.Storage.CreateRecord(s.Ctx, "cup", record("p1", "ally", 10)))

	err := s.Storage.CreateRecord(s.Ctx, "cup", record("p1", "al", 3))
	s.ErrorIs(err, model.ErrRecordExists)

	got, err := s.Storage.GetRecord(s.Ctx, "cup", "p1")
	s.Require().NoError(err)
	s.Equal("ally", got.Nickname)
	s.Equal(int64(10), got.Score)

	records, _ := s.Storage.ListRecords(s.Ctx, "cup")
	s.Len(records, 1)

	// The same id may still enter another competition
	s.NoError(s.Storage.CreateRecord(s.Ctx, "other", record("p1", "al", 3)))
}

func (s *Suite) TestUpdateScoreTouchesOnlyScore() {
	_ = s.Storage.CreateRecord(s.Ctx, "cup", record("p1", "ally", 10))

	s.Require().NoError(s.Storage.UpdateScore(s.Ctx, "cup", "p1", 42))

	got, err := s.Storage.GetRecord(s.Ctx, "cup", "p1")
	s.Require().NoError(err)
	s.Equal(int64(42), got.Score)
	s.Equal("ally", got.Nickname)
	s.True(created.Equal(got.Timestamp))
}

func (s *Suite) TestUpdateScoreNeverLowers() {
	_ = s.Storage.CreateRecord(s.Ctx, "cup", record("p1", "ally", 10))

	s.NoError(s.Storage.UpdateScore(s.Ctx, "cup", "p1", 3))
	s.NoError(s.Storage.UpdateScore(s.Ctx, "cup", "p1", 10))

	got, err := s.Storage.GetRecord(s.Ctx, "cup", "p1")
	s.Require().NoError(err)
	s.Equal(int64(10), got.Score)

	s.Require().NoError(s.Storage.UpdateScore(s.Ctx, "cup", "p1", 11))
	got, err = s.Storage.GetRecord(s.Ctx, "cup", "p1")
	s.Require().NoError(err)
	s.Equal(int64(11), got.Score)
}

func (s *Suite) TestUpdateScoreMissingRecord() {
	err := s.Storage.UpdateScore(s.Ctx, "cup", "missing", 1)
	s.ErrorIs(err, model.ErrRecordNotFound)
}

func (s *Suite) TestListRecords() {
	_ = s.Storage.CreateRecord(s.Ctx, "cup", record("p1", "ally", 10))
	_ = s.Storage.CreateRecord(s.Ctx, "cup", record("p2", "bob", 20))
	_ = s.Storage.CreateRecord(s.Ctx, "other", record("p3", "cid", 30))

	records, err := s.Storage.ListRecords(s.Ctx, "cup")
	s.Require().NoError(err)
	s.Len(records, 2)

	nicknames := []string{records[0].Nickname, records[1].Nickname}
	s.ElementsMatch([]string{"ally", "bob"}, nicknames)
}

func (s *Suite) TestListRecordsEmpty() {
	records, err := s.Storage.ListRecords(s.Ctx, "cup")
	s.Require().NoError(err)
	s.NotNil(records)
	s.Empty(records)
}

func (s *Suite) TestReturnedRecordsAreCopies() {
	_ = s.Storage.CreateRecord(s.Ctx, "cup", record("p1", "ally", 10))

	got, _ := s.Storage.GetRecord(s.Ctx, "cup", "p1")
	got.Score = 999

	again, err := s.Storage.GetRecord(s.Ctx, "cup", "p1")
	s.Require().NoError(err)
	s.Equal(int64(10), again.Score)
}
