package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/atinyakov/MineAdmin/internal/middleware"
	"github.com/atinyakov/MineAdmin/internal/models"
	"github.com/atinyakov/MineAdmin/internal/service"
)

// UserService defines the account administration required by UserHandler.
type UserService interface {
	List(ctx context.Context, f service.UserFilter) ([]models.User, error)
	Get(ctx context.Context, id string) (models.User, error)
	Create(ctx context.Context, u models.User) (models.User, error)
	Update(ctx context.Context, id string, u models.User) (models.User, error)
	Delete(ctx context.Context, id string) error
}

// UserHandler serves /api/admin/users.
type UserHandler struct {
	UserService UserService
	Log         *zap.Logger
}

// List handles GET /api/admin/users. It accepts role and search.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	users, err := h.UserService.List(r.Context(), service.UserFilter{
		Role:   models.Role(q.Get("role")),
		Search: q.Get("search"),
	})
	if err != nil {
		writeFailure(w, h.Log, err)
		return
	}
	writePage(w, r, users)
}

// Get handles GET /api/admin/users/{id}.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	u, err := h.UserService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeFailure(w, h.Log, err)
		return
	}
	writeData(w, http.StatusOK, u)
}

// Create handles POST /api/admin/users.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var u models.User
	if !decodeJSON(w, r, &u) {
		return
	}
	created, err := h.UserService.Create(r.Context(), u)
	if err != nil {
		writeFailure(w, h.Log, err)
		return
	}
	writeData(w, http.StatusCreated, created)
}

// Update handles PUT /api/admin/users/{id}.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	var u models.User
	if !decodeJSON(w, r, &u) {
		return
	}
	updated, err := h.UserService.Update(r.Context(), chi.URLParam(r, "id"), u)
	if err != nil {
		writeFailure(w, h.Log, err)
		return
	}
	writeData(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/admin/users/{id}. Administrators cannot delete
// their own account.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if me, ok := middleware.UserFromContext(r.Context()); ok && me.ID == id {
		writeError(w, http.StatusBadRequest, "You cannot delete your own account")
		return
	}
	if err := h.UserService.Delete(r.Context(), id); err != nil {
		writeFailure(w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
