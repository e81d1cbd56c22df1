package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/atinyakov/MineAdmin/internal/models"
)

// UserFilter narrows a user listing. Empty fields match everything.
type UserFilter struct {
	Role   models.Role
	Search string
}

func (f UserFilter) match(u models.User) bool {
	if f.Role != "" && u.Role != f.Role {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		return strings.Contains(strings.ToLower(u.Name), q) || strings.Contains(strings.ToLower(u.Email), q)
	}
	return true
}

// UserService implements account administration.
type UserService struct {
	users    UserStore
	sessions SessionRepository
}

// NewUserService returns a service over users. Removing or disabling an
// account also ends its sessions.
func NewUserService(users UserStore, sessions SessionRepository) *UserService {
	return &UserService{users: users, sessions: sessions}
}

func validateUser(u models.User) error {
	if strings.TrimSpace(u.Name) == "" {
		return invalidf("name is required")
	}
	if err := validateEmail(u.Email); err != nil {
		return err
	}
	if !u.Role.Valid() {
		return invalidf("unknown role %q", u.Role)
	}
	return nil
}

// List returns the accounts accepted by f.
func (s *UserService) List(ctx context.Context, f UserFilter) ([]models.User, error) {
	return s.users.List(ctx, f.match)
}

// Get returns one account.
func (s *UserService) Get(ctx context.Context, id string) (models.User, error) {
	return s.users.Get(ctx, id)
}

// Create adds an account. A missing role defaults to customer.
func (s *UserService) Create(ctx context.Context, u models.User) (models.User, error) {
	u.Email = strings.TrimSpace(u.Email)
	if u.Role == "" {
		u.Role = models.RoleCustomer
	}
	if err := validateUser(u); err != nil {
		return models.User{}, err
	}
	hash, err := hashPassword(u.Password)
	if err != nil {
		return models.User{}, err
	}
	u.ID = uuid.NewString()
	u.Active = true
	return s.users.Create(ctx, u, hash)
}

// Update replaces the account with id. An empty password or role keeps the
// stored one.
func (s *UserService) Update(ctx context.Context, id string, u models.User) (models.User, error) {
	old, err := s.users.Get(ctx, id)
	if err != nil {
		return models.User{}, err
	}
	u.ID = id
	if u.Role == "" {
		u.Role = old.Role
	}
	u.Email = strings.TrimSpace(u.Email)
	if err := validateUser(u); err != nil {
		return models.User{}, err
	}

	var hash []byte
	if u.Password != "" {
		if hash, err = hashPassword(u.Password); err != nil {
			return models.User{}, err
		}
	}
	saved, err := s.users.Save(ctx, u, hash)
	if err != nil {
		return models.User{}, err
	}
	if !saved.Active || hash != nil {
		if err := s.sessions.DeleteByUser(ctx, id); err != nil {
			return saved, err
		}
	}
	return saved, nil
}

// Delete removes the account with id and its sessions.
func (s *UserService) Delete(ctx context.Context, id string) error {
	if err := s.users.Remove(ctx, id); err != nil {
		return err
	}
	return s.sessions.DeleteByUser(ctx, id)
}
