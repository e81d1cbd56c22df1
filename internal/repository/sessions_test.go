package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/atinyakov/MineAdmin/internal/models"
)

func setupSessionsMock(t *testing.T) (*PostgresSessions, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	store := NewPostgresSessions(db)
	cleanup := func() { db.Close() }
	return store, mock, cleanup
}

func testSession(token string, expires time.Time) models.Session {
	return models.Session{Token: token, UserID: "u1", CreatedAt: expires.Add(-time.Hour), ExpiresAt: expires}
}

func TestPostgresSessions_Create(t *testing.T) {
	store, mock, cleanup := setupSessionsMock(t)
	defer cleanup()

	s := testSession("tok", time.Now().Add(time.Hour))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO sessions`)).
		WithArgs(s.Token, s.UserID, s.CreatedAt, s.ExpiresAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO sessions`)).
		WithArgs(s.Token, s.UserID, s.CreatedAt, s.ExpiresAt).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := store.Create(context.Background(), s); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if err := store.Create(context.Background(), s); !errors.Is(err, ErrConflict) {
		t.Errorf("duplicate Create error = %v; want ErrConflict", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPostgresSessions_Get(t *testing.T) {
	store, mock, cleanup := setupSessionsMock(t)
	defer cleanup()

	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	expires := created.Add(24 * time.Hour)
	query := regexp.QuoteMeta(`SELECT user_id, created_at, expires_at FROM sessions WHERE token = $1`)

	mock.ExpectQuery(query).WithArgs("tok").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "created_at", "expires_at"}).AddRow("u1", created, expires))
	mock.ExpectQuery(query).WithArgs("missing").WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(query).WithArgs("broken").WillReturnError(errors.New("db down"))

	s, err := store.Get(context.Background(), "tok")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	want := models.Session{Token: "tok", UserID: "u1", CreatedAt: created, ExpiresAt: expires}
	if s != want {
		t.Errorf("Get = %+v; want %+v", s, want)
	}

	if _, err := store.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) error = %v; want ErrNotFound", err)
	}
	if _, err := store.Get(context.Background(), "broken"); err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("Get(broken) error = %v; want db error", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPostgresSessions_Delete(t *testing.T) {
	store, mock, cleanup := setupSessionsMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM sessions WHERE token = $1`)).
		WithArgs("tok").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM sessions WHERE user_id = $1`)).
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM sessions WHERE expires_at <= $1`)).
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 4))

	ctx := context.Background()
	if err := store.Delete(ctx, "tok"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if err := store.DeleteByUser(ctx, "u1"); err != nil {
		t.Fatalf("DeleteByUser returned error: %v", err)
	}
	n, err := store.DeleteExpired(ctx, time.Now())
	if err != nil {
		t.Fatalf("DeleteExpired returned error: %v", err)
	}
	if n != 4 {
		t.Errorf("DeleteExpired removed %d; want 4", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestMemorySessions(t *testing.T) {
	ctx := context.Background()
	store := NewMemorySessions()
	now := time.Now()

	live := testSession("live", now.Add(time.Hour))
	dead := testSession("dead", now.Add(-time.Second))
	other := models.Session{Token: "other", UserID: "u2", ExpiresAt: now.Add(time.Hour)}
	for _, s := range []models.Session{live, dead, other} {
		if err := store.Create(ctx, s); err != nil {
			t.Fatalf("Create(%s) returned error: %v", s.Token, err)
		}
	}
	if err := store.Create(ctx, live); !errors.Is(err, ErrConflict) {
		t.Errorf("duplicate Create error = %v; want ErrConflict", err)
	}

	n, _ := store.DeleteExpired(ctx, now)
	if n != 1 {
		t.Errorf("DeleteExpired removed %d; want 1", n)
	}
	if _, err := store.Get(ctx, "dead"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expired session still present: %v", err)
	}

	_ = store.DeleteByUser(ctx, "u1")
	if _, err := store.Get(ctx, "live"); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteByUser kept session: %v", err)
	}
	if got, err := store.Get(ctx, "other"); err != nil || got.UserID != "u2" {
		t.Errorf("Get(other) = %+v, %v", got, err)
	}

	_ = store.Delete(ctx, "other")
	_ = store.Delete(ctx, "other")
	if _, err := store.Get(ctx, "other"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete kept session: %v", err)
	}
}
