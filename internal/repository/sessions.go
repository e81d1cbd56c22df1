package repository

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/atinyakov/MineAdmin/internal/models"
)

// MemorySessions keeps login sessions in memory.
type MemorySessions struct {
	mu       sync.RWMutex
	sessions map[string]models.Session
}

// NewMemorySessions returns an empty store.
func NewMemorySessions() *MemorySessions {
	return &MemorySessions{sessions: make(map[string]models.Session)}
}

// Create stores s under its token.
func (m *MemorySessions) Create(_ context.Context, s models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[s.Token]; ok {
		return ErrConflict
	}
	m.sessions[s.Token] = s
	return nil
}

// Get returns the session with token.
func (m *MemorySessions) Get(_ context.Context, token string) (models.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[token]
	if !ok {
		return models.Session{}, ErrNotFound
	}
	return s, nil
}

// Delete removes the session with token. Unknown tokens are ignored.
func (m *MemorySessions) Delete(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
	return nil
}

// DeleteByUser removes every session of userID.
func (m *MemorySessions) DeleteByUser(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for token, s := range m.sessions {
		if s.UserID == userID {
			delete(m.sessions, token)
		}
	}
	return nil
}

// DeleteExpired removes the sessions that expired at or before now.
func (m *MemorySessions) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for token, s := range m.sessions {
		if s.Expired(now) {
			delete(m.sessions, token)
			n++
		}
	}
	return n, nil
}

// PostgresSessions keeps login sessions in the sessions table created by
// db.InitPostgres.
type PostgresSessions struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresSessions returns a store backed by db.
func NewPostgresSessions(db *sql.DB) *PostgresSessions {
	return &PostgresSessions{DB: db}
}

// Create inserts s. A duplicate token is reported as ErrConflict.
func (p *PostgresSessions) Create(ctx context.Context, s models.Session) error {
	res, err := p.DB.ExecContext(ctx,
		`INSERT INTO sessions (token, user_id, created_at, expires_at)
		 VALUES ($1, $2, $3, $4) ON CONFLICT DO NOTHING`,
		s.Token, s.UserID, s.CreatedAt, s.ExpiresAt,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrConflict
	}
	return nil
}

// Get returns the session with token.
func (p *PostgresSessions) Get(ctx context.Context, token string) (models.Session, error) {
	s := models.Session{Token: token}
	err := p.DB.QueryRowContext(ctx,
		`SELECT user_id, created_at, expires_at FROM sessions WHERE token = $1`,
		token,
	).Scan(&s.UserID, &s.CreatedAt, &s.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Session{}, ErrNotFound
	}
	if err != nil {
		return models.Session{}, err
	}
	return s, nil
}

// Delete removes the session with token.
func (p *PostgresSessions) Delete(ctx context.Context, token string) error {
	_, err := p.DB.ExecContext(ctx, `DELETE FROM sessions WHERE token = $1`, token)
	return err
}

// DeleteByUser removes every session of userID.
func (p *PostgresSessions) DeleteByUser(ctx context.Context, userID string) error {
	_, err := p.DB.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID)
	return err
}

// DeleteExpired removes the sessions that expired at or before now.
func (p *PostgresSessions) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := p.DB.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
