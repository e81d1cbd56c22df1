package repository

import (
	"context"
	"strings"
	"sync"

	"github.com/atinyakov/MineAdmin/internal/models"
)

// UserRepository keeps user accounts and their password hashes in memory.
// E-mail addresses are unique, compared case-insensitively.
type UserRepository struct {
	table *Table[models.User]

	mu      sync.RWMutex
	byEmail map[string]string
	hashes  map[string][]byte
}

// NewUserRepository returns an empty repository.
func NewUserRepository() *UserRepository {
	return &UserRepository{
		table:   NewTable[models.User](),
		byEmail: make(map[string]string),
		hashes:  make(map[string][]byte),
	}
}

// List returns the users accepted by keep.
func (r *UserRepository) List(ctx context.Context, keep func(models.User) bool) ([]models.User, error) {
	return r.table.List(ctx, keep)
}

// Get returns the user with id.
func (r *UserRepository) Get(ctx context.Context, id string) (models.User, error) {
	return r.table.Get(ctx, id)
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Create stores u with its password hash. The stored record never carries
// the plain password.
func (r *UserRepository) Create(ctx context.Context, u models.User, hash []byte) (models.User, error) {
	u.Password = ""
	key := emailKey(u.Email)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byEmail[key]; ok {
		return models.User{}, ErrConflict
	}
	if err := r.table.Insert(ctx, u); err != nil {
		return models.User{}, err
	}
	r.byEmail[key] = u.ID
	r.hashes[u.ID] = hash
	return u, nil
}

// ByEmail returns the user registered with email and its password hash.
func (r *UserRepository) ByEmail(ctx context.Context, email string) (models.User, []byte, error) {
	r.mu.RLock()
	id, ok := r.byEmail[emailKey(email)]
	hash := r.hashes[id]
	r.mu.RUnlock()

	if !ok {
		return models.User{}, nil, ErrNotFound
	}
	u, err := r.table.Get(ctx, id)
	if err != nil {
		return models.User{}, nil, err
	}
	return u, hash, nil
}

// Save replaces u. A non-nil hash replaces the stored password hash.
func (r *UserRepository) Save(ctx context.Context, u models.User, hash []byte) (models.User, error) {
	u.Password = ""

	r.mu.Lock()
	defer r.mu.Unlock()

	old, err := r.table.Get(ctx, u.ID)
	if err != nil {
		return models.User{}, err
	}
	oldKey, newKey := emailKey(old.Email), emailKey(u.Email)
	if oldKey != newKey {
		if _, taken := r.byEmail[newKey]; taken {
			return models.User{}, ErrConflict
		}
	}
	if err := r.table.Update(ctx, u); err != nil {
		return models.User{}, err
	}
	delete(r.byEmail, oldKey)
	r.byEmail[newKey] = u.ID
	if hash != nil {
		r.hashes[u.ID] = hash
	}
	return u, nil
}

// Remove deletes the user with id.
func (r *UserRepository) Remove(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, err := r.table.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := r.table.Delete(ctx, id); err != nil {
		return err
	}
	delete(r.byEmail, emailKey(u.Email))
	delete(r.hashes, id)
	return nil
}
