// Package postgres stores identities and records in PostgreSQL through the pgx
// database/sql driver, with goose managing the schema.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/mcoot/leaderboard/internal/model"
	"github.com/mcoot/leaderboard/internal/storage"
	"github.com/mcoot/leaderboard/internal/storage/postgres/migrations"
)

// uniqueViolation is the SQLSTATE raised when a UNIQUE constraint fails
const uniqueViolation = "23505"

// DBTX is the subset of database/sql used by Storage.
// Both *sql.DB and *sql.Tx satisfy it.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Storage is a PostgreSQL implementation of the storage interface
type Storage struct {
	db     DBTX
	closer func() error
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// gooseUpContext is a seam for testing goose.UpContext
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies the embedded schema migrations
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	return gooseUpContext(ctx, db, ".")
}

// Open connects to dsn, migrates the schema and returns a ready Storage
func Open(ctx context.Context, dsn string) (*Storage, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db error: %w", err)
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	s := New(db)
	s.closer = db.Close
	return s, nil
}

// New creates a Storage over an already migrated database handle
func New(db DBTX) *Storage {
	return &Storage{db: db, closer: func() error { return nil }}
}

// Close releases the connection pool when Storage owns it
func (s *Storage) Close() error {
	return s.closer()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// Identity operations

func (s *Storage) SaveIdentity(ctx context.Context, identity *model.Identity) error {
	query :=
		`INSERT INTO identities (id, email, password_hash, created_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET email = excluded.email, password_hash = excluded.password_hash
		`

	_, err := s.db.ExecContext(ctx, query,
		string(identity.ID), identity.Email, identity.PasswordHash, identity.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrEmailTaken
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (s *Storage) GetIdentity(ctx context.Context, id model.PlayerID) (*model.Identity, error) {
	query :=
		`SELECT id, email, password_hash, created_at FROM identities
		 WHERE id = $1
		`
	return s.scanIdentity(s.db.QueryRowContext(ctx, query, string(id)))
}

func (s *Storage) GetIdentityByEmail(ctx context.Context, email string) (*model.Identity, error) {
	query :=
		`SELECT id, email, password_hash, created_at FROM identities
		 WHERE email = $1
		`
	return s.scanIdentity(s.db.QueryRowContext(ctx, query, email))
}

func (s *Storage) scanIdentity(row *sql.Row) (*model.Identity, error) {
	var identity model.Identity
	var id string
	err := row.Scan(&id, &identity.Email, &identity.PasswordHash, &identity.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrIdentityNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	identity.ID = model.PlayerID(id)
	return &identity, nil
}

// Record operations

func (s *Storage) CreateRecord(ctx context.Context, competition model.CompetitionID, record *model.PlayerRecord) error {
	query :=
		`INSERT INTO records (competition, id, name, nickname, email, score, recorded_at, terms_accepted, newsletter_opt_in)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (competition, id) DO NOTHING
		`

	var recordedAt sql.NullTime
	if !record.Timestamp.IsZero() {
		recordedAt = sql.NullTime{Time: record.Timestamp, Valid: true}
	}

	res, err := s.db.ExecContext(ctx, query,
		string(competition), string(record.ID), record.Name, record.Nickname, record.Email,
		record.Score, recordedAt, record.TermsAccepted, record.NewsletterOptIn)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return model.ErrRecordExists
	}
	return nil
}

const selectRecord = `SELECT id, name, nickname, email, score, recorded_at, terms_accepted, newsletter_opt_in FROM records`

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*model.PlayerRecord, error) {
	var record model.PlayerRecord
	var id string
	var recordedAt sql.NullTime
	err := row.Scan(&id, &record.Name, &record.Nickname, &record.Email, &record.Score,
		&recordedAt, &record.TermsAccepted, &record.NewsletterOptIn)
	if err != nil {
		return nil, err
	}
	record.ID = model.PlayerID(id)
	if recordedAt.Valid {
		record.Timestamp = recordedAt.Time.UTC()
	}
	return &record, nil
}

func (s *Storage) GetRecord(ctx context.Context, competition model.CompetitionID, id model.PlayerID) (*model.PlayerRecord, error) {
	query := selectRecord + `
		 WHERE competition = $1 AND id = $2
		`

	record, err := scanRecord(s.db.QueryRowContext(ctx, query, string(competition), string(id)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrRecordNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return record, nil
}

func (s *Storage) UpdateScore(ctx context.Context, competition model.CompetitionID, id model.PlayerID, score int64) error {
	query :=
		`UPDATE records SET score = GREATEST(score, $3)
		 WHERE competition = $1 AND id = $2
		`

	res, err := s.db.ExecContext(ctx, query, string(competition), string(id), score)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return model.ErrRecordNotFound
	}
	return nil
}

func (s *Storage) ListRecords(ctx context.Context, competition model.CompetitionID) ([]*model.PlayerRecord, error) {
	query := selectRecord + `
		 WHERE competition = $1
		`

	rows, err := s.db.QueryContext(ctx, query, string(competition))
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	records := make([]*model.PlayerRecord, 0)
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return records, nil
}
