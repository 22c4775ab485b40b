package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/leaderboard/internal/model"
)

var created = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

var recordColumns = []string{"id", "name", "nickname", "email", "score", "recorded_at", "terms_accepted", "newsletter_opt_in"}

type StorageSuite struct {
	suite.Suite
	db      *sql.DB
	mock    sqlmock.Sqlmock
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	s.Require().NoError(err)
	s.db = db
	s.mock = mock
	s.storage = New(db)
	s.ctx = context.Background()
}

func (s *StorageSuite) TearDownTest() {
	s.NoError(s.mock.ExpectationsWereMet())
	_ = s.db.Close()
}

// Identity tests

func (s *StorageSuite) TestSaveIdentity() {
	s.mock.ExpectExec(`(?s)^INSERT\s+INTO\s+identities\s*\(id,\s*email,\s*password_hash,\s*created_at\).*ON\s+CONFLICT\s*\(id\)`).
		WithArgs("p1", "alice@example.com", "hash", created).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.storage.SaveIdentity(s.ctx, &model.Identity{ID: "p1", Email: "alice@example.com", PasswordHash: "hash", CreatedAt: created})
	s.NoError(err)
}

func (s *StorageSuite) TestSaveIdentityEmailTaken() {
	s.mock.ExpectExec(`INSERT\s+INTO\s+identities`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "identities_email_key"})

	err := s.storage.SaveIdentity(s.ctx, &model.Identity{ID: "p2", Email: "alice@example.com", CreatedAt: created})
	s.ErrorIs(err, model.ErrEmailTaken)
}

func (s *StorageSuite) TestSaveIdentityDBError() {
	s.mock.ExpectExec(`INSERT\s+INTO\s+identities`).
		WillReturnError(errors.New("db down"))

	err := s.storage.SaveIdentity(s.ctx, &model.Identity{ID: "p1", CreatedAt: created})
	s.ErrorContains(err, "db error: db down")
	s.NotErrorIs(err, model.ErrEmailTaken)
}

func (s *StorageSuite) TestGetIdentity() {
	rows := sqlmock.NewRows([]string{"id", "email", "password_hash", "created_at"}).
		AddRow("p1", "alice@example.com", "hash", created)
	s.mock.ExpectQuery(`(?s)^SELECT\s+id,\s*email,\s*password_hash,\s*created_at\s+FROM\s+identities\s+WHERE\s+id\s*=\s*\$1`).
		WithArgs("p1").
		WillReturnRows(rows)

	got, err := s.storage.GetIdentity(s.ctx, "p1")
	s.Require().NoError(err)
	s.Equal(model.PlayerID("p1"), got.ID)
	s.Equal("hash", got.PasswordHash)
}

func (s *StorageSuite) TestGetIdentityByEmailNotFound() {
	s.mock.ExpectQuery(`FROM\s+identities\s+WHERE\s+email\s*=\s*\$1`).
		WithArgs("nobody@example.com").
		WillReturnError(sql.ErrNoRows)

	_, err := s.storage.GetIdentityByEmail(s.ctx, "nobody@example.com")
	s.ErrorIs(err, model.ErrIdentityNotFound)
}

// Record tests

func (s *StorageSuite) TestCreateRecord() {
	s.mock.ExpectExec(`(?s)^INSERT\s+INTO\s+records.*ON\s+CONFLICT\s*\(competition,\s*id\)\s+DO\s+NOTHING`).
		WithArgs("cup", "p1", "Alice", "ally", "alice@example.com", int64(0), created, true, false).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.storage.CreateRecord(s.ctx, "cup", &model.PlayerRecord{
		ID: "p1", Name: "Alice", Nickname: "ally", Email: "alice@example.com",
		Timestamp: created, TermsAccepted: true,
	})
	s.NoError(err)
}

func (s *StorageSuite) TestCreateRecordExisting() {
	s.mock.ExpectExec(`INSERT\s+INTO\s+records`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.storage.CreateRecord(s.ctx, "cup", &model.PlayerRecord{ID: "p1", Nickname: "again"})
	s.ErrorIs(err, model.ErrRecordExists)
}

func (s *StorageSuite) TestCreateRecordWithoutTimestampStoresNull() {
	s.mock.ExpectExec(`INSERT\s+INTO\s+records`).
		WithArgs("cup", "p1", "", "", "", int64(5), nil, false, false).
		WillReturnResult(sqlmock.NewResult(0, 1))

	s.NoError(s.storage.CreateRecord(s.ctx, "cup", &model.PlayerRecord{ID: "p1", Score: 5}))
}

func (s *StorageSuite) TestGetRecord() {
	rows := sqlmock.NewRows(recordColumns).
		AddRow("p1", "Alice", "ally", "alice@example.com", int64(30), created, true, true)
	s.mock.ExpectQuery(`(?s)FROM\s+records\s+WHERE\s+competition\s*=\s*\$1\s+AND\s+id\s*=\s*\$2`).
		WithArgs("cup", "p1").
		WillReturnRows(rows)

	got, err := s.storage.GetRecord(s.ctx, "cup", "p1")
	s.Require().NoError(err)
	s.Equal(int64(30), got.Score)
	s.Equal("ally", got.Nickname)
	s.True(got.NewsletterOptIn)
	s.True(created.Equal(got.Timestamp))
}

func (s *StorageSuite) TestGetRecordNullTimestamp() {
	rows := sqlmock.NewRows(recordColumns).
		AddRow("p1", "Alice", "ally", "alice@example.com", int64(30), nil, true, false)
	s.mock.ExpectQuery(`FROM\s+records`).WillReturnRows(rows)

	got, err := s.storage.GetRecord(s.ctx, "cup", "p1")
	s.Require().NoError(err)
	s.True(got.Timestamp.IsZero())
}

func (s *StorageSuite) TestGetRecordNotFound() {
	s.mock.ExpectQuery(`FROM\s+records`).
		WithArgs("cup", "missing").
		WillReturnRows(sqlmock.NewRows(recordColumns))

	_, err := s.storage.GetRecord(s.ctx, "cup", "missing")
	s.ErrorIs(err, model.ErrRecordNotFound)
}

func (s *StorageSuite) TestUpdateScoreNeverLowersScore() {
	s.mock.ExpectExec(`(?s)^UPDATE\s+records\s+SET\s+score\s*=\s*GREATEST\(score,\s*\$3\)\s+WHERE\s+competition\s*=\s*\$1\s+AND\s+id\s*=\s*\$2`).
		WithArgs("cup", "p1", int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	s.NoError(s.storage.UpdateScore(s.ctx, "cup", "p1", 99))
}

func (s *StorageSuite) TestUpdateScoreMissingRecord() {
	s.mock.ExpectExec(`UPDATE\s+records`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.storage.UpdateScore(s.ctx, "cup", "missing", 1)
	s.ErrorIs(err, model.ErrRecordNotFound)
}

func (s *StorageSuite) TestListRecords() {
	rows := sqlmock.NewRows(recordColumns).
		AddRow("p1", "Alice", "ally", "alice@example.com", int64(30), created, true, false).
		AddRow("p2", "Bob", "bob", "bob@example.com", int64(10), created, true, false)
	s.mock.ExpectQuery(`(?s)FROM\s+records\s+WHERE\s+competition\s*=\s*\$1`).
		WithArgs("cup").
		WillReturnRows(rows)

	records, err := s.storage.ListRecords(s.ctx, "cup")
	s.Require().NoError(err)
	s.Require().Len(records, 2)
	s.Equal(model.PlayerID("p2"), records[1].ID)
}

func (s *StorageSuite) TestListRecordsEmpty() {
	s.mock.ExpectQuery(`FROM\s+records`).WillReturnRows(sqlmock.NewRows(recordColumns))

	records, err := s.storage.ListRecords(s.ctx, "cup")
	s.Require().NoError(err)
	s.NotNil(records)
	s.Empty(records)
}

func (s *StorageSuite) TestListRecordsRowError() {
	rows := sqlmock.NewRows(recordColumns).
		AddRow("p1", "Alice", "ally", "alice@example.com", int64(30), created, true, false).
		RowError(0, errors.New("broken row"))
	s.mock.ExpectQuery(`FROM\s+records`).WillReturnRows(rows)

	_, err := s.storage.ListRecords(s.ctx, "cup")
	s.ErrorContains(err, "broken row")
}

// Migration tests

func (s *StorageSuite) TestRunMigrations() {
	orig := gooseUpContext
	defer func() { gooseUpContext = orig }()

	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		if dir != "." {
			return errors.New("unexpected dir")
		}
		return nil
	}

	s.NoError(RunMigrations(s.ctx, s.db))
}

func (s *StorageSuite) TestRunMigrationsError() {
	orig := gooseUpContext
	defer func() { gooseUpContext = orig }()

	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return errors.New("boom")
	}

	s.EqualError(RunMigrations(s.ctx, s.db), "boom")
}

func (s *StorageSuite) TestMigrationsAreEmbedded() {
	entries, err := migrationFiles()
	s.Require().NoError(err)
	s.Equal([]string{"00001_create_identities.sql", "00002_create_records.sql"}, entries)
}
