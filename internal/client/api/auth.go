package api

import (
	"context"
	"net/http"
	"net/mail"
	"strings"

	"github.com/atinyakov/MineAdmin/internal/models"
)

// LoginResult is the login endpoint payload. User is nil when the backend
// omitted it.
type LoginResult struct {
	User      *models.User `json:"user"`
	SessionID string       `json:"sessionId"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

// Login authenticates and stores the session cookie set by the backend.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, invalid("Email and password are required")
	}
	if !validEmail(email) {
		return nil, invalid("Invalid email format")
	}

	res, err := send[LoginResult](ctx, c, http.MethodPost, "/auth/login", loginRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Logout ends the backend session and drops the local cookie.
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.Request(ctx, "/auth/logout", RequestOptions{Method: http.MethodPost})
	c.jar.ClearSession()
	return err
}

// GetProfile returns the user behind the current session.
func (c *Client) GetProfile(ctx context.Context) (*models.User, error) {
	u, err := getItem[models.User](ctx, c, "/auth/profile", "user")
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateProfile changes the current user's own profile.
func (c *Client) UpdateProfile(ctx context.Context, patch models.ProfileUpdate) (*models.User, error) {
	if patch == (models.ProfileUpdate{}) {
		return nil, invalid("No profile fields to update")
	}
	if patch.Email != "" && !validEmail(patch.Email) {
		return nil, invalid("Invalid email format")
	}
	if patch.Password != "" && len(patch.Password) < 8 {
		return nil, invalid("Password must be at least 8 characters")
	}
	u, err := send[models.User](ctx, c, http.MethodPut, "/auth/profile", patch, "user")
	if err != nil {
		return nil, err
	}
	return &u, nil
}
