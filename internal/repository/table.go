// Package repository provides the storage behind the mock backend: an
// in-memory table per resource and session stores kept in memory or in
// PostgreSQL.
package repository

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/atinyakov/MineAdmin/internal/models"
)

var (
	// ErrNotFound is returned when no record matches the given key.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a record with the same key already exists.
	ErrConflict = errors.New("record already exists")
)

// Table is an ordered in-memory collection of records keyed by ID. It is
// safe for concurrent use.
type Table[T models.Entity] struct {
	mu    sync.RWMutex
	order []string
	rows  map[string]T
}

// NewTable returns an empty table.
func NewTable[T models.Entity]() *Table[T] {
	return &Table[T]{rows: make(map[string]T)}
}

// List returns the records accepted by keep in insertion order. A nil keep
// accepts everything.
func (t *Table[T]) List(_ context.Context, keep func(T) bool) ([]T, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]T, 0, len(t.order))
	for _, id := range t.order {
		row := t.rows[id]
		if keep == nil || keep(row) {
			out = append(out, row)
		}
	}
	return out, nil
}

// Get returns the record with id.
func (t *Table[T]) Get(_ context.Context, id string) (T, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	row, ok := t.rows[id]
	if !ok {
		var zero T
		return zero, ErrNotFound
	}
	return row, nil
}

// Insert stores a new record under its EntityID.
func (t *Table[T]) Insert(_ context.Context, row T) error {
	id := row.EntityID()
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.rows[id]; ok {
		return ErrConflict
	}
	t.rows[id] = row
	t.order = append(t.order, id)
	return nil
}

// Update replaces the record with the same EntityID.
func (t *Table[T]) Update(_ context.Context, row T) error {
	id := row.EntityID()
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.rows[id]; !ok {
		return ErrNotFound
	}
	t.rows[id] = row
	return nil
}

// Delete removes the record with id.
func (t *Table[T]) Delete(_ context.Context, id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.rows[id]; !ok {
		return ErrNotFound
	}
	delete(t.rows, id)
	t.order = slices.DeleteFunc(t.order, func(v string) bool { return v == id })
	return nil
}

// Len returns the number of records.
func (t *Table[T]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rows)
}
