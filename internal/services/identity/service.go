// Package identity is the identity provider: it creates accounts, verifies
// credentials and issues the bearer tokens that authorize record writes.
package identity

import (
	"context"
	"crypto/rand"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/leaderboard/internal/dependencies/clock"
	"github.com/mcoot/leaderboard/internal/dependencies/random"
	"github.com/mcoot/leaderboard/internal/model"
	"github.com/mcoot/leaderboard/internal/storage"
	"github.com/mcoot/leaderboard/internal/validation"
)

// Errors
var (
	ErrNoSuchUser   = errors.New("invalid login credentials")
	ErrInvalidEmail = errors.New("invalid email")
	ErrEmailInUse   = errors.New("email already in use")
	ErrWeakPassword = errors.New("weak password")
	ErrInvalidToken = errors.New("invalid or expired token")
)

// Credentials are returned by a successful sign-up or sign-in
type Credentials struct {
	PlayerID  model.PlayerID
	Token     string
	ExpiresAt time.Time
}

// Claims are the JWT claims of an identity token
type Claims struct {
	jwt.RegisteredClaims
	PlayerID model.PlayerID `json:"player_id"`
}

// Service handles identity creation, verification and tokens
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	random  random.Random

	secret     []byte
	tokenTTL   time.Duration
	bcryptCost int
}

// Config holds configuration for the identity service
type Config struct {
	// TokenSecret signs tokens. When empty a random secret is generated, so
	// tokens do not survive a restart.
	TokenSecret []byte
	TokenTTL    time.Duration
	BcryptCost  int
}

// DefaultConfig returns default identity configuration
func DefaultConfig() Config {
	return Config{
		TokenTTL:   30 * 24 * time.Hour,
		BcryptCost: bcrypt.DefaultCost,
	}
}

// New creates a new identity Service
func New(storage storage.Storage, clock clock.Clock, random random.Random, cfg Config) *Service {
	defaults := DefaultConfig()
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = defaults.TokenTTL
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = defaults.BcryptCost
	}
	if len(cfg.TokenSecret) == 0 {
		cfg.TokenSecret = make([]byte, 32)
		_, _ = rand.Read(cfg.TokenSecret)
	}
	return &Service{
		storage:    storage,
		clock:      clock,
		random:     random,
		secret:     cfg.TokenSecret,
		tokenTTL:   cfg.TokenTTL,
		bcryptCost: cfg.BcryptCost,
	}
}

// NormalizeEmail returns the canonical form emails are stored and compared in
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateIdentity registers a new account
func (s *Service) CreateIdentity(ctx context.Context, email, password string) (*Credentials, error) {
	email = NormalizeEmail(email)
	if !validation.IsEmailFormat(email) {
		return nil, ErrInvalidEmail
	}
	if !validation.IsPasswordLongEnough(password) {
		return nil, ErrWeakPassword
	}

	// Check if email exists
	_, err := s.storage.GetIdentityByEmail(ctx, email)
	if err == nil {
		return nil, ErrEmailInUse
	}
	if !errors.Is(err, model.ErrIdentityNotFound) {
		return nil, err
	}

	// Hash password
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, err
	}

	identity := &model.Identity{
		ID:           model.PlayerID(s.random.String(random.IDLength, random.IDAlphabet)),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    s.clock.Now(),
	}

	if err := s.storage.SaveIdentity(ctx, identity); err != nil {
		if errors.Is(err, model.ErrEmailTaken) {
			return nil, ErrEmailInUse
		}
		return nil, err
	}

	return s.issue(identity.ID)
}

// VerifyIdentity checks credentials. Unknown emails and wrong passwords are
// indistinguishable to the caller.
func (s *Service) VerifyIdentity(ctx context.Context, email, password string) (*Credentials, error) {
	email = NormalizeEmail(email)
	if !validation.IsEmailFormat(email) {
		return nil, ErrInvalidEmail
	}

	identity, err := s.storage.GetIdentityByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrIdentityNotFound) {
			return nil, ErrNoSuchUser
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(identity.PasswordHash), []byte(password)); err != nil {
		return nil, ErrNoSuchUser
	}

	return s.issue(identity.ID)
}

// ValidateToken returns the identity a token was issued to
func (s *Service) ValidateToken(token string) (model.PlayerID, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.clock.Now))
	if err != nil || !parsed.Valid || claims.PlayerID == "" {
		return "", ErrInvalidToken
	}
	return claims.PlayerID, nil
}

// issue signs a token for id
func (s *Service) issue(id model.PlayerID) (*Credentials, error) {
	now := s.clock.Now()
	expiresAt := now.Add(s.tokenTTL)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   string(id),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		PlayerID: id,
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return nil, err
	}

	return &Credentials{
		PlayerID:  id,
		Token:     signed,
		ExpiresAt: expiresAt,
	}, nil
}
