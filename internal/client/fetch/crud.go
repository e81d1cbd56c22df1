package fetch

import (
	"context"
	"slices"
	"sync"

	"github.com/atinyakov/MineAdmin/internal/client/api"
	"github.com/atinyakov/MineAdmin/internal/models"
)

// Resource binds a named resource to its backend calls. A nil function
// makes the operation fail with an UnsupportedError.
type Resource[T models.Entity] struct {
	Name   string
	List   func(ctx context.Context, params api.Params) (api.Page[T], error)
	Get    func(ctx context.Context, id string) (T, error)
	Create func(ctx context.Context, item T) (T, error)
	Update func(ctx context.Context, id string, item T) (T, error)
	Remove func(ctx context.Context, id string) error
}

// CrudOptions configures a Crud list.
type CrudOptions struct {
	Context string
	Errors  ErrorReporter
}

// Crud mirrors the last fetched list of a resource and patches it from the
// responses of Create, Update and Remove instead of fetching again.
type Crud[T models.Entity] struct {
	res    Resource[T]
	tag    string
	errors ErrorReporter

	mu         sync.RWMutex
	items      []T
	pagination api.Pagination
	loading    bool
	err        error
}

// NewCrud returns an empty mirror of res.
func NewCrud[T models.Entity](res Resource[T], opts CrudOptions) *Crud[T] {
	tag := opts.Context
	if tag == "" {
		tag = res.Name
	}
	return &Crud[T]{res: res, tag: tag, errors: opts.Errors}
}

func (c *Crud[T]) unsupported(op string) error {
	return &UnsupportedError{Resource: c.res.Name, Operation: op}
}

func (c *Crud[T]) fail(err error) error {
	c.mu.Lock()
	c.loading = false
	c.err = err
	c.mu.Unlock()
	report(c.errors, c.tag, err)
	return err
}

func (c *Crud[T]) begin() {
	c.mu.Lock()
	c.loading = true
	c.err = nil
	c.mu.Unlock()
}

// Fetch replaces the local list with the page matching params.
func (c *Crud[T]) Fetch(ctx context.Context, params api.Params) ([]T, error) {
	if c.res.List == nil {
		return nil, c.fail(c.unsupported("listed"))
	}
	c.begin()
	page, err := c.res.List(ctx, params)
	if err != nil {
		return nil, c.fail(err)
	}

	c.mu.Lock()
	c.items = page.Items
	c.pagination = page.Pagination
	c.loading = false
	c.mu.Unlock()
	return slices.Clone(page.Items), nil
}

// Get loads one item without touching the local list.
func (c *Crud[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	if c.res.Get == nil {
		return zero, c.fail(c.unsupported("fetched"))
	}
	c.begin()
	item, err := c.res.Get(ctx, id)
	if err != nil {
		return zero, c.fail(err)
	}
	c.mu.Lock()
	c.loading = false
	c.mu.Unlock()
	return item, nil
}

// Create adds item and prepends the stored record to the local list.
func (c *Crud[T]) Create(ctx context.Context, item T) (T, error) {
	var zero T
	if c.res.Create == nil {
		return zero, c.fail(c.unsupported("created"))
	}
	c.begin()
	created, err := c.res.Create(ctx, item)
	if err != nil {
		return zero, c.fail(err)
	}

	c.mu.Lock()
	c.items = append([]T{created}, c.items...)
	c.loading = false
	c.mu.Unlock()
	return created, nil
}

// Update changes the item with id and replaces it in the local list.
func (c *Crud[T]) Update(ctx context.Context, id string, item T) (T, error) {
	var zero T
	if c.res.Update == nil {
		return zero, c.fail(c.unsupported("updated"))
	}
	c.begin()
	updated, err := c.res.Update(ctx, id, item)
	if err != nil {
		return zero, c.fail(err)
	}

	c.mu.Lock()
	for i := range c.items {
		if c.items[i].EntityID() == id {
			c.items[i] = updated
		}
	}
	c.loading = false
	c.mu.Unlock()
	return updated, nil
}

// Remove deletes the item with id and drops it from the local list.
func (c *Crud[T]) Remove(ctx context.Context, id string) error {
	if c.res.Remove == nil {
		return c.fail(c.unsupported("deleted"))
	}
	c.begin()
	if err := c.res.Remove(ctx, id); err != nil {
		return c.fail(err)
	}

	c.mu.Lock()
	c.items = slices.DeleteFunc(slices.Clone(c.items), func(it T) bool { return it.EntityID() == id })
	c.loading = false
	c.mu.Unlock()
	return nil
}

// Items returns a copy of the local list.
func (c *Crud[T]) Items() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.items)
}

// Pagination returns the pagination of the last fetch.
func (c *Crud[T]) Pagination() api.Pagination {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pagination
}

// Loading reports whether an operation is in flight.
func (c *Crud[T]) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loading
}

// Err returns the error of the last failed operation.
func (c *Crud[T]) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}
