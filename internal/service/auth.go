// Package service holds the mock backend's business rules: password login
// with cookie sessions, user administration and the order lifecycle. It
// delegates persistence to the repository interfaces declared here.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/atinyakov/MineAdmin/internal/models"
	"github.com/atinyakov/MineAdmin/internal/repository"
)

var (
	// ErrInvalidCredentials is returned for an unknown e-mail or a wrong
	// password. The two cases are not distinguished.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrUnauthenticated is returned for a missing, unknown or expired session.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrInvalidInput wraps every validation failure.
	ErrInvalidInput = errors.New("invalid input")
)

// MinPasswordLength is the shortest password accepted for new accounts.
const MinPasswordLength = 8

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// UserStore persists accounts together with their password hashes.
type UserStore interface {
	List(ctx context.Context, keep func(models.User) bool) ([]models.User, error)
	Get(ctx context.Context, id string) (models.User, error)
	Create(ctx context.Context, u models.User, hash []byte) (models.User, error)
	ByEmail(ctx context.Context, email string) (models.User, []byte, error)
	Save(ctx context.Context, u models.User, hash []byte) (models.User, error)
	Remove(ctx context.Context, id string) error
}

// SessionRepository persists login sessions.
type SessionRepository interface {
	Create(ctx context.Context, s models.Session) error
	Get(ctx context.Context, token string) (models.Session, error)
	Delete(ctx context.Context, token string) error
	DeleteByUser(ctx context.Context, userID string) error
}

// AuthService issues and validates cookie sessions.
type AuthService struct {
	users    UserStore
	sessions SessionRepository
	ttl      time.Duration
	now      func() time.Time
}

// NewAuthService returns a service whose sessions live for ttl.
func NewAuthService(users UserStore, sessions SessionRepository, ttl time.Duration) *AuthService {
	return &AuthService{users: users, sessions: sessions, ttl: ttl, now: time.Now}
}

func hashPassword(password string) ([]byte, error) {
	if len(password) < MinPasswordLength {
		return nil, invalidf("password must be at least %d characters", MinPasswordLength)
	}
	return bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
}

func validateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return invalidf("invalid email format")
	}
	return nil
}

// Login checks the password and opens a new session.
func (s *AuthService) Login(ctx context.Context, email, password string) (models.User, models.Session, error) {
	u, hash, err := s.users.ByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, repository.ErrNotFound) {
		return models.User{}, models.Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.User{}, models.Session{}, err
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return models.User{}, models.Session{}, ErrInvalidCredentials
	}
	if !u.Active {
		return models.User{}, models.Session{}, ErrInvalidCredentials
	}

	now := s.now()
	sess := models.Session{
		Token:     uuid.NewString(),
		UserID:    u.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return models.User{}, models.Session{}, fmt.Errorf("create session: %w", err)
	}
	return u, sess, nil
}

// Logout ends the session identified by token. Unknown tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.sessions.Delete(ctx, token)
}

// Authenticate resolves token to its user. Expired sessions are deleted.
func (s *AuthService) Authenticate(ctx context.Context, token string) (models.User, error) {
	if token == "" {
		return models.User{}, ErrUnauthenticated
	}
	sess, err := s.sessions.Get(ctx, token)
	if errors.Is(err, repository.ErrNotFound) {
		return models.User{}, ErrUnauthenticated
	}
	if err != nil {
		return models.User{}, err
	}
	if sess.Expired(s.now()) {
		_ = s.sessions.Delete(ctx, token)
		return models.User{}, ErrUnauthenticated
	}

	u, err := s.users.Get(ctx, sess.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		_ = s.sessions.Delete(ctx, token)
		return models.User{}, ErrUnauthenticated
	}
	if err != nil {
		return models.User{}, err
	}
	if !u.Active {
		return models.User{}, ErrUnauthenticated
	}
	return u, nil
}

// UpdateProfile applies the non-empty fields of patch to the user's own
// account.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, patch models.ProfileUpdate) (models.User, error) {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return models.User{}, err
	}
	if name := strings.TrimSpace(patch.Name); name != "" {
		u.Name = name
	}
	if email := strings.TrimSpace(patch.Email); email != "" {
		if err := validateEmail(email); err != nil {
			return models.User{}, err
		}
		u.Email = email
	}
	if patch.Phone != "" {
		u.Phone = strings.TrimSpace(patch.Phone)
	}

	var hash []byte
	if patch.Password != "" {
		if hash, err = hashPassword(patch.Password); err != nil {
			return models.User{}, err
		}
	}
	return s.users.Save(ctx, u, hash)
}

// SeedAdmin creates the first administrator unless an account with email
// already exists.
func (s *AuthService) SeedAdmin(ctx context.Context, email, password string) (models.User, error) {
	if u, _, err := s.users.ByEmail(ctx, email); err == nil {
		return u, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return models.User{}, err
	}
	if err := validateEmail(email); err != nil {
		return models.User{}, err
	}
	hash, err := hashPassword(password)
	if err != nil {
		return models.User{}, err
	}
	return s.users.Create(ctx, models.User{
		ID:     uuid.NewString(),
		Name:   "Administrator",
		Email:  email,
		Role:   models.RoleSuperAdmin,
		Active: true,
	}, hash)
}
