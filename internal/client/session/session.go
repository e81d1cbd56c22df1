// Package session tracks whether the admin user is signed in. The Manager is
// the only writer of the session state; everything else reads snapshots.
package session

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/atinyakov/MineAdmin/internal/client/api"
	"github.com/atinyakov/MineAdmin/internal/models"
)

var (
	// ErrNoUser is returned when a login succeeds without a user record.
	ErrNoUser = errors.New("login response did not include a user")
	// ErrNotAuthenticated is returned by guarded operations without a session.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrForbidden is returned when the current user lacks a required role.
	ErrForbidden = errors.New("insufficient permissions")
)

// AuthAPI is the part of the backend client the manager drives.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (*api.LoginResult, error)
	Logout(ctx context.Context) error
	GetProfile(ctx context.Context) (*models.User, error)
	UpdateProfile(ctx context.Context, patch models.ProfileUpdate) (*models.User, error)
}

// CredentialProbe reports whether a session credential is stored locally.
type CredentialProbe interface {
	HasSession() bool
}

// Status is the position of the session in its lifecycle.
type Status string

const (
	StatusUninitialized Status = "uninitialized"
	StatusAnonymous     Status = "anonymous"
	StatusAuthenticated Status = "authenticated"
	StatusFailed        Status = "failed"
)

// State is a snapshot of the session.
type State struct {
	Status          Status
	IsAuthenticated bool
	Loading         bool
	User            *models.User
	SessionID       string
	// Error is the message of the last failed login.
	Error string
}

// Manager owns the session state.
type Manager struct {
	api   AuthAPI
	probe CredentialProbe
	log   *zap.Logger

	initOnce sync.Once

	mu      sync.RWMutex
	state   State
	subs    map[int]func(State)
	nextSub int
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the manager's logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// NewManager returns a manager in the uninitialized state. A nil probe makes
// Init always ask the backend for the profile.
func NewManager(a AuthAPI, probe CredentialProbe, opts ...Option) *Manager {
	m := &Manager{
		api:   a,
		probe: probe,
		log:   zap.NewNop(),
		state: State{Status: StatusUninitialized, Loading: true},
		subs:  make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns the current snapshot.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// User returns the signed-in user, or nil.
func (m *Manager) User() *models.User {
	return m.State().User
}

// Init resolves the initial state. Only the first call does any work: when
// a credential is stored the profile is fetched, and any failure leaves the
// session anonymous.
func (m *Manager) Init(ctx context.Context) State {
	m.initOnce.Do(func() {
		next := State{Status: StatusAnonymous}

		if m.probe == nil || m.probe.HasSession() {
			user, err := m.api.GetProfile(ctx)
			switch {
			case err != nil:
				m.log.Debug("session probe failed", zap.Error(err))
			case user == nil:
				m.log.Debug("session probe returned no user")
			default:
				next = State{Status: StatusAuthenticated, IsAuthenticated: true, User: user}
			}
		}

		m.update(func(s State) (State, bool) {
			// a login or reset that finished first wins
			if s.Status != StatusUninitialized {
				return s, false
			}
			return next, true
		})
	})
	return m.State()
}

// Login signs in. On failure the state becomes StatusFailed with the error
// message retained, and the error is returned.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	m.update(func(s State) (State, bool) {
		s.Loading = true
		s.Error = ""
		return s, true
	})

	res, err := m.api.Login(ctx, email, password)
	if err == nil && (res == nil || res.User == nil) {
		err = ErrNoUser
	}
	if err != nil {
		m.log.Debug("login failed", zap.String("email", email), zap.Error(err))
		m.set(State{Status: StatusFailed, Error: err.Error()})
		return err
	}

	m.log.Info("signed in", zap.String("user_id", res.User.ID), zap.String("role", string(Role(res.User))))
	m.set(State{
		Status:          StatusAuthenticated,
		IsAuthenticated: true,
		User:            res.User,
		SessionID:       res.SessionID,
	})
	return nil
}

// Logout ends the session. A backend failure is logged and the local state
// is cleared regardless.
func (m *Manager) Logout(ctx context.Context) {
	if err := m.api.Logout(ctx); err != nil {
		m.log.Warn("logout request failed", zap.Error(err))
	}
	m.set(State{Status: StatusAnonymous})
}

// UpdateProfile changes the signed-in user's profile and stores the record
// returned by the backend.
func (m *Manager) UpdateProfile(ctx context.Context, patch models.ProfileUpdate) (*models.User, error) {
	if !m.State().IsAuthenticated {
		return nil, ErrNotAuthenticated
	}
	user, err := m.api.UpdateProfile(ctx, patch)
	if err != nil {
		return nil, err
	}
	if user != nil {
		m.update(func(s State) (State, bool) {
			if !s.IsAuthenticated {
				return s, false
			}
			s.User = user
			return s, true
		})
	}
	return user, nil
}

// Reset drops the session without calling the backend. It is the hook the
// HTTP client invokes on a 401.
func (m *Manager) Reset() {
	m.update(func(s State) (State, bool) {
		if s.Status == StatusAnonymous {
			return s, false
		}
		return State{Status: StatusAnonymous}, true
	})
}

// Subscribe registers fn to receive every new state. The returned function
// unregisters it.
func (m *Manager) Subscribe(fn func(State)) (unsubscribe func()) {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

func (m *Manager) set(s State) {
	m.update(func(State) (State, bool) { return s, true })
}

func (m *Manager) update(fn func(State) (State, bool)) {
	m.mu.Lock()
	next, changed := fn(m.state)
	if !changed {
		m.mu.Unlock()
		return
	}
	m.state = next
	subs := make([]func(State), 0, len(m.subs))
	for _, sub := range m.subs {
		subs = append(subs, sub)
	}
	m.mu.Unlock()

	for _, sub := range subs {
		sub(next)
	}
}
