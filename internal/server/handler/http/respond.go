package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/atinyakov/MineAdmin/internal/repository"
	"github.com/atinyakov/MineAdmin/internal/service"
)

const (
	defaultLimit = 10
	maxLimit     = 100
)

// Pagination is the page metadata attached to every list response.
type Pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
	HasPrev    bool `json:"hasPrev"`
}

// ListResponse is the body of a list endpoint.
type ListResponse[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

type dataResponse struct {
	Data any `json:"data"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = buf.WriteTo(w)
}

func writeData(w http.ResponseWriter, code int, v any) {
	writeJSON(w, code, dataResponse{Data: v})
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, messageResponse{Message: msg})
}

// writeFailure maps a service or repository error to its status code.
// Unexpected errors are logged and hidden from the caller.
func writeFailure(w http.ResponseWriter, log *zap.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, service.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, "Authentication required")
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "Resource not found")
	case errors.Is(err, repository.ErrConflict):
		writeError(w, http.StatusConflict, "Resource already exists")
	default:
		if log != nil {
			log.Error("request failed", zap.Error(err))
		}
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// pageFromQuery reads page and limit. Missing values fall back to page 1
// and the default limit; limit is capped.
func pageFromQuery(q url.Values) (page, limit int, ok bool) {
	page, limit = 1, defaultLimit
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return 0, 0, false
		}
		page = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return 0, 0, false
		}
		limit = min(n, maxLimit)
	}
	return page, limit, true
}

func paginate[T any](items []T, page, limit int) ListResponse[T] {
	total := len(items)
	totalPages := (total + limit - 1) / limit
	start := min((page-1)*limit, total)
	end := min(start+limit, total)

	data := items[start:end]
	if data == nil {
		data = []T{}
	}
	return ListResponse[T]{
		Data: data,
		Pagination: Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
			HasPrev:    page > 1,
		},
	}
}

// writePage paginates items according to the request query.
func writePage[T any](w http.ResponseWriter, r *http.Request, items []T) {
	page, limit, ok := pageFromQuery(r.URL.Query())
	if !ok {
		writeError(w, http.StatusBadRequest, "page and limit must be positive integers")
		return
	}
	writeJSON(w, http.StatusOK, paginate(items, page, limit))
}
