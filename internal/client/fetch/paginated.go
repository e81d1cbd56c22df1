package fetch

import (
	"context"
	"strconv"
	"sync"

	"github.com/atinyakov/MineAdmin/internal/client/api"
)

// DefaultPageSize is used when PaginatedOptions has no PageSize.
const DefaultPageSize = 10

// PageFunc loads one page of a list endpoint.
type PageFunc[T any] func(ctx context.Context, params api.Params) (api.Page[T], error)

// PaginatedOptions configures a Paginated list.
type PaginatedOptions struct {
	PageSize int
	// Params are the initial filters.
	Params  api.Params
	Context string
	Errors  ErrorReporter
}

// PaginatedState is a snapshot of a Paginated list.
type PaginatedState[T any] struct {
	Items      []T
	Pagination api.Pagination
	Params     api.Params
	Loading    bool
	Err        error
}

// Paginated keeps the current filters and page of a list endpoint. Only the
// most recently started fetch may update the state.
type Paginated[T any] struct {
	fn     PageFunc[T]
	tag    string
	errors ErrorReporter

	mu     sync.Mutex
	params api.Params
	state  PaginatedState[T]
	gen    uint64
}

// NewPaginated returns a list positioned on page 1. Nothing is fetched
// until Fetch is called.
func NewPaginated[T any](fn PageFunc[T], opts PaginatedOptions) *Paginated[T] {
	size := opts.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	params := opts.Params.Clone()
	params["limit"] = strconv.Itoa(size)
	if params.Int("page", 0) < 1 {
		params["page"] = "1"
	}
	return &Paginated[T]{fn: fn, tag: opts.Context, errors: opts.Errors, params: params}
}

// Fetch loads the page described by the current params.
func (p *Paginated[T]) Fetch(ctx context.Context) error {
	p.mu.Lock()
	p.gen++
	gen := p.gen
	params := p.params.Clone()
	p.state.Loading = true
	p.state.Params = params
	p.mu.Unlock()

	page, err := p.fn(ctx, params)

	p.mu.Lock()
	if gen == p.gen {
		p.state.Loading = false
		p.state.Err = err
		if err == nil {
			p.state.Items = page.Items
			p.state.Pagination = page.Pagination
		}
	}
	p.mu.Unlock()

	if err != nil {
		report(p.errors, p.tag, err)
		return err
	}
	return nil
}

// Refresh reloads the current page.
func (p *Paginated[T]) Refresh(ctx context.Context) error {
	return p.Fetch(ctx)
}

// GoToPage loads page n. Values below 1 load the first page.
func (p *Paginated[T]) GoToPage(ctx context.Context, n int) error {
	if n < 1 {
		n = 1
	}
	p.mu.Lock()
	p.params["page"] = strconv.Itoa(n)
	p.mu.Unlock()
	return p.Fetch(ctx)
}

// NextPage loads the following page. It does nothing on the last page.
func (p *Paginated[T]) NextPage(ctx context.Context) error {
	pg := p.State().Pagination
	if !pg.HasNext {
		return nil
	}
	return p.GoToPage(ctx, pg.Page+1)
}

// PrevPage loads the preceding page. It does nothing on the first page.
func (p *Paginated[T]) PrevPage(ctx context.Context) error {
	pg := p.State().Pagination
	if !pg.HasPrev {
		return nil
	}
	return p.GoToPage(ctx, pg.Page-1)
}

// UpdateParams merges params into the filters and loads page 1. An empty
// value removes a filter.
func (p *Paginated[T]) UpdateParams(ctx context.Context, params api.Params) error {
	p.mu.Lock()
	for k, v := range params {
		if k == "limit" {
			continue
		}
		if v == "" {
			delete(p.params, k)
			continue
		}
		p.params[k] = v
	}
	p.params["page"] = "1"
	p.mu.Unlock()
	return p.Fetch(ctx)
}

// Params returns the filters the next fetch will send.
func (p *Paginated[T]) Params() api.Params {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.params.Clone()
}

// State returns the current snapshot.
func (p *Paginated[T]) State() PaginatedState[T] {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.state
	s.Items = append([]T(nil), p.state.Items...)
	return s
}
