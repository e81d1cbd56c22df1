package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/atinyakov/MineAdmin/internal/repository"
	"github.com/atinyakov/MineAdmin/internal/service"
)

func TestPageFromQuery(t *testing.T) {
	tests := []struct {
		query     string
		wantPage  int
		wantLimit int
		wantOK    bool
	}{
		{query: "", wantPage: 1, wantLimit: defaultLimit, wantOK: true},
		{query: "page=3&limit=20", wantPage: 3, wantLimit: 20, wantOK: true},
		{query: "limit=5000", wantPage: 1, wantLimit: maxLimit, wantOK: true},
		{query: "page=0"},
		{query: "limit=-1"},
		{query: "page=abc"},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			q, _ := url.ParseQuery(tt.query)
			page, limit, ok := pageFromQuery(q)
			assert.Equal(t, tt.wantOK, ok)
			if ok {
				assert.Equal(t, tt.wantPage, page)
				assert.Equal(t, tt.wantLimit, limit)
			}
		})
	}
}

func TestPaginate(t *testing.T) {
	items := make([]int, 57)
	for i := range items {
		items[i] = i
	}

	p := paginate(items, 2, 20)
	assert.Len(t, p.Data, 20)
	assert.Equal(t, 20, p.Data[0])
	assert.Equal(t, Pagination{Page: 2, Limit: 20, Total: 57, TotalPages: 3, HasNext: true, HasPrev: true}, p.Pagination)

	last := paginate(items, 3, 20)
	assert.Len(t, last.Data, 17)
	assert.False(t, last.Pagination.HasNext)

	beyond := paginate(items, 9, 20)
	assert.NotNil(t, beyond.Data)
	assert.Empty(t, beyond.Data)

	empty := paginate([]int(nil), 1, 10)
	assert.Equal(t, Pagination{Page: 1, Limit: 10}, empty.Pagination)
}

func TestWriteFailure(t *testing.T) {
	tests := []struct {
		err      error
		wantCode int
		wantMsg  string
	}{
		{err: fmt.Errorf("%w: name is required", service.ErrInvalidInput), wantCode: http.StatusBadRequest, wantMsg: "invalid input: name is required"},
		{err: service.ErrInvalidCredentials, wantCode: http.StatusUnauthorized, wantMsg: "Invalid email or password"},
		{err: repository.ErrNotFound, wantCode: http.StatusNotFound, wantMsg: "Resource not found"},
		{err: repository.ErrConflict, wantCode: http.StatusConflict, wantMsg: "Resource already exists"},
		{err: errors.New("disk on fire"), wantCode: http.StatusInternalServerError, wantMsg: "Internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeFailure(rec, nil, tt.err)
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.JSONEq(t, fmt.Sprintf(`{"message":%q}`, tt.wantMsg), rec.Body.String())
		})
	}
}
