package http

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/atinyakov/MineAdmin/internal/models"
	"github.com/atinyakov/MineAdmin/internal/service"
)

// Store is the persistence a ResourceHandler needs. *repository.Table
// implements it.
type Store[T models.Entity] interface {
	List(ctx context.Context, keep func(T) bool) ([]T, error)
	Get(ctx context.Context, id string) (T, error)
	Insert(ctx context.Context, item T) error
	Update(ctx context.Context, item T) error
	Delete(ctx context.Context, id string) error
}

// ResourceHandler serves list, get, create, update and delete for one
// catalog resource.
type ResourceHandler[T models.Entity] struct {
	Store Store[T]
	// Validate rejects bad records before they are stored.
	Validate func(T) error
	// Filter builds the list predicate from the query string; nil keeps all.
	Filter func(q url.Values) func(T) bool
	// Assign stamps the record ID (and derived fields) on create and update.
	Assign func(item T, id string) T
	Log    *zap.Logger
}

// List handles GET /<resource>.
func (h *ResourceHandler[T]) List(w http.ResponseWriter, r *http.Request) {
	var keep func(T) bool
	if h.Filter != nil {
		keep = h.Filter(r.URL.Query())
	}
	items, err := h.Store.List(r.Context(), keep)
	if err != nil {
		writeFailure(w, h.Log, err)
		return
	}
	writePage(w, r, items)
}

// Get handles GET /<resource>/{id}.
func (h *ResourceHandler[T]) Get(w http.ResponseWriter, r *http.Request) {
	item, err := h.Store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeFailure(w, h.Log, err)
		return
	}
	writeData(w, http.StatusOK, item)
}

// Create handles POST /<resource>.
func (h *ResourceHandler[T]) Create(w http.ResponseWriter, r *http.Request) {
	var item T
	if !decodeJSON(w, r, &item) {
		return
	}
	item = h.Assign(item, uuid.NewString())
	if err := h.Validate(item); err != nil {
		writeFailure(w, h.Log, err)
		return
	}
	if err := h.Store.Insert(r.Context(), item); err != nil {
		writeFailure(w, h.Log, err)
		return
	}
	writeData(w, http.StatusCreated, item)
}

// Update handles PUT /<resource>/{id}.
func (h *ResourceHandler[T]) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.Store.Get(r.Context(), id); err != nil {
		writeFailure(w, h.Log, err)
		return
	}
	var item T
	if !decodeJSON(w, r, &item) {
		return
	}
	item = h.Assign(item, id)
	if err := h.Validate(item); err != nil {
		writeFailure(w, h.Log, err)
		return
	}
	if err := h.Store.Update(r.Context(), item); err != nil {
		writeFailure(w, h.Log, err)
		return
	}
	writeData(w, http.StatusOK, item)
}

// Delete handles DELETE /<resource>/{id}.
func (h *ResourceHandler[T]) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeFailure(w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Mount registers the read routes on read and the write routes on write.
// Either router may be nil to leave those routes out.
func (h *ResourceHandler[T]) Mount(path string, read, write chi.Router) {
	if read != nil {
		read.Get(path, h.List)
		read.Get(path+"/{id}", h.Get)
	}
	if write != nil {
		write.Post(path, h.Create)
		write.Put(path+"/{id}", h.Update)
		write.Delete(path+"/{id}", h.Delete)
	}
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

// NewProductHandler serves the product catalog. The list accepts search
// (name or SKU) and categoryId.
func NewProductHandler(store Store[models.Product], log *zap.Logger) *ResourceHandler[models.Product] {
	return &ResourceHandler[models.Product]{
		Store:    store,
		Validate: service.ValidateProduct,
		Filter: func(q url.Values) func(models.Product) bool {
			search, category := strings.TrimSpace(q.Get("search")), q.Get("categoryId")
			return func(p models.Product) bool {
				if category != "" && p.CategoryID != category {
					return false
				}
				return search == "" || containsFold(p.Name, search) || containsFold(p.SKU, search)
			}
		},
		Assign: func(p models.Product, id string) models.Product {
			p.ID = id
			if p.CreatedAt.IsZero() {
				p.CreatedAt = time.Now()
			}
			return p
		},
		Log: log,
	}
}

// NewCategoryHandler serves product categories. A missing slug is derived
// from the name.
func NewCategoryHandler(store Store[models.Category], log *zap.Logger) *ResourceHandler[models.Category] {
	return &ResourceHandler[models.Category]{
		Store:    store,
		Validate: service.ValidateCategory,
		Filter: func(q url.Values) func(models.Category) bool {
			parent := q.Get("parentId")
			return func(c models.Category) bool { return parent == "" || c.ParentID == parent }
		},
		Assign: func(c models.Category, id string) models.Category {
			c.ID = id
			if c.Slug == "" {
				c.Slug = service.Slugify(c.Name)
			}
			return c
		},
		Log: log,
	}
}

// NewBranchHandler serves branches. The list accepts search (name or
// address).
func NewBranchHandler(store Store[models.Branch], log *zap.Logger) *ResourceHandler[models.Branch] {
	return &ResourceHandler[models.Branch]{
		Store:    store,
		Validate: service.ValidateBranch,
		Filter: func(q url.Values) func(models.Branch) bool {
			search := strings.TrimSpace(q.Get("search"))
			return func(b models.Branch) bool {
				return search == "" || containsFold(b.Name, search) || containsFold(b.Address, search)
			}
		},
		Assign: func(b models.Branch, id string) models.Branch {
			b.ID = id
			return b
		},
		Log: log,
	}
}

// NewBlogHandler serves blog posts. The list accepts published=true|false.
func NewBlogHandler(store Store[models.Blog], log *zap.Logger) *ResourceHandler[models.Blog] {
	return &ResourceHandler[models.Blog]{
		Store:    store,
		Validate: service.ValidateBlog,
		Filter: func(q url.Values) func(models.Blog) bool {
			published := q.Get("published")
			return func(b models.Blog) bool {
				return published == "" || (published == "true") == b.Published
			}
		},
		Assign: func(b models.Blog, id string) models.Blog {
			b.ID = id
			if b.CreatedAt.IsZero() {
				b.CreatedAt = time.Now()
			}
			return b
		},
		Log: log,
	}
}

// NewTransactionHandler serves the read-only payment ledger. The list
// accepts orderId and status.
func NewTransactionHandler(store Store[models.Transaction], log *zap.Logger) *ResourceHandler[models.Transaction] {
	return &ResourceHandler[models.Transaction]{
		Store: store,
		Filter: func(q url.Values) func(models.Transaction) bool {
			order, status := q.Get("orderId"), q.Get("status")
			return func(t models.Transaction) bool {
				return (order == "" || t.OrderID == order) && (status == "" || t.Status == status)
			}
		},
		Log: log,
	}
}
