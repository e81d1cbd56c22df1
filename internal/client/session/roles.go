package session

import (
	"fmt"
	"slices"

	"github.com/atinyakov/MineAdmin/internal/models"
)

// Role derives the effective role of u: the scalar role when set, else the
// first entry of the roles list, else the empty role.
func Role(u *models.User) models.Role {
	if u == nil {
		return ""
	}
	if u.Role != "" {
		return u.Role
	}
	if len(u.Roles) > 0 {
		return models.Role(u.Roles[0].Name)
	}
	return ""
}

// HasRole reports whether u's effective role is role.
func HasRole(u *models.User, role models.Role) bool {
	r := Role(u)
	return r != "" && r == role
}

// HasAnyRole reports whether u's effective role is one of roles.
func HasAnyRole(u *models.User, roles ...models.Role) bool {
	r := Role(u)
	return r != "" && slices.Contains(roles, r)
}

// Role returns the effective role of the signed-in user.
func (m *Manager) Role() models.Role { return Role(m.User()) }

// HasRole reports whether the signed-in user has role.
func (m *Manager) HasRole(role models.Role) bool { return HasRole(m.User(), role) }

// HasAnyRole reports whether the signed-in user has one of roles.
func (m *Manager) HasAnyRole(roles ...models.Role) bool { return HasAnyRole(m.User(), roles...) }

func (m *Manager) IsAdmin() bool {
	return m.HasAnyRole(models.RoleAdmin, models.RoleSuperAdmin)
}

func (m *Manager) IsSuperAdmin() bool    { return m.HasRole(models.RoleSuperAdmin) }
func (m *Manager) IsShopManager() bool   { return m.HasRole(models.RoleShopManager) }
func (m *Manager) IsBranchManager() bool { return m.HasRole(models.RoleBranchManager) }
func (m *Manager) IsCustomer() bool      { return m.HasRole(models.RoleCustomer) }

// RequireRole fails with ErrNotAuthenticated without a session and with
// ErrForbidden when none of roles match. No roles means any signed-in user.
func (m *Manager) RequireRole(roles ...models.Role) error {
	s := m.State()
	if !s.IsAuthenticated {
		return ErrNotAuthenticated
	}
	if len(roles) == 0 || HasAnyRole(s.User, roles...) {
		return nil
	}
	return fmt.Errorf("%w: role %q is not allowed", ErrForbidden, Role(s.User))
}
