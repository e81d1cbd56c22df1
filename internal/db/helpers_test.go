package db

import (
	"bytes"
	"sync"
	"time"

	"github.com/atinyakov/MineAdmin/internal/models"
)

// syncBuffer is a bytes.Buffer safe to share with the cleaner goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func sessionAt(token string, expires time.Time) models.Session {
	return models.Session{Token: token, UserID: "u1", CreatedAt: expires.Add(-time.Hour), ExpiresAt: expires}
}
