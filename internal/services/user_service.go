package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/isdelr/tasktrack-be/internal/apperr"
	"github.com/isdelr/tasktrack-be/internal/auth"
	"github.com/isdelr/tasktrack-be/internal/database"
	"github.com/isdelr/tasktrack-be/internal/models"
	"github.com/rs/zerolog/log"
)

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	Register(ctx context.Context, email, password, name string) (models.User, error)
	Authenticate(ctx context.Context, email, password string) (models.User, error)
	GetUserByID(ctx context.Context, id int64) (models.User, error)
}

// UserService owns user records and credential checks.
type UserService struct {
	db     *database.DB
	hasher auth.PasswordHasher
	now    func() time.Time

	dummyMu     sync.Mutex
	dummyDigest string
}

const dummyPassword = "tasktrack-dummy-password"

// NewUserService creates a new UserService. A nil now uses time.Now.
func NewUserService(db *database.DB, hasher auth.PasswordHasher, now func() time.Time) *UserService {
	if now == nil {
		now = time.Now
	}
	return &UserService{db: db, hasher: hasher, now: now}
}

// Register validates the input, hashes the password and inserts the user.
// Email uniqueness is enforced by the users table itself.
func (s *UserService) Register(ctx context.Context, email, password, name string) (models.User, error) {
	email = NormalizeEmail(email)
	name = strings.TrimSpace(name)

	var errs fieldErrors
	if !ValidEmail(email) {
		errs.add("email", "must be a valid email address")
	}
	validatePassword(&errs, password)
	if name == "" {
		errs.add("name", "is required")
	}
	if err := errs.err(); err != nil {
		return models.User{}, err
	}

	hashedPassword, err := s.hasher.Hash(password)
	if err != nil {
		return models.User{}, err
	}

	var id int64
	err = s.db.QueryRowContext(ctx,
		s.db.Rebind("INSERT INTO users (email, password_hash, name, created_at) VALUES (?, ?, ?, ?) RETURNING id"),
		email, hashedPassword, name, timestamp(s.now),
	).Scan(&id)
	if err != nil {
		if s.db.IsUniqueViolation(err) {
			return models.User{}, apperr.Conflict("Email already registered")
		}
		return models.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	return s.GetUserByID(ctx, id)
}

// Authenticate verifies a user's credentials. Unknown emails and wrong
// passwords produce the same error and cost the same bcrypt work.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (models.User, error) {
	email = NormalizeEmail(email)

	var errs fieldErrors
	if !ValidEmail(email) {
		errs.add("email", "must be a valid email address")
	}
	if password == "" {
		errs.add("password", "is required")
	}
	if err := errs.err(); err != nil {
		return models.User{}, err
	}

	var user models.User
	err := s.db.QueryRowContext(ctx,
		s.db.Rebind("SELECT id, email, name, password_hash, created_at FROM users WHERE email = ?"), email,
	).Scan(&user.ID, &user.Email, &user.Name, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			if digest, err := s.dummy(); err != nil {
				log.Error().Err(err).Msg("Unknown-email login answered without a dummy compare")
			} else {
				s.hasher.Verify(password, digest)
			}
			return models.User{}, apperr.Unauthorized("Invalid credentials")
		}
		return models.User{}, fmt.Errorf("failed to look up user: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return models.User{}, apperr.Unauthorized("Invalid credentials")
	}

	// Don't send the password hash to the client
	user.PasswordHash = ""
	user.CreatedAt = user.CreatedAt.UTC()
	return user, nil
}

// GetUserByID retrieves a user's public profile.
func (s *UserService) GetUserByID(ctx context.Context, id int64) (models.User, error) {
	var user models.User
	err := s.db.QueryRowContext(ctx,
		s.db.Rebind("SELECT id, email, name, created_at FROM users WHERE id = ?"), id,
	).Scan(&user.ID, &user.Email, &user.Name, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, apperr.NotFound("User not found")
		}
		return models.User{}, fmt.Errorf("failed to get user %d: %w", id, err)
	}
	user.CreatedAt = user.CreatedAt.UTC()
	return user, nil
}

// dummy returns a digest to compare against when the email is unknown. A
// failed hash is not cached; the next call tries again.
func (s *UserService) dummy() (string, error) {
	s.dummyMu.Lock()
	defer s.dummyMu.Unlock()
	if s.dummyDigest == "" {
		digest, err := s.hasher.Hash(dummyPassword)
		if err != nil {
			return "", fmt.Errorf("failed to prepare dummy digest: %w", err)
		}
		s.dummyDigest = digest
	}
	return s.dummyDigest, nil
}

// timestamp returns the current UTC time at the precision every backend stores.
func timestamp(now func() time.Time) time.Time {
	return now().UTC().Truncate(time.Microsecond)
}
