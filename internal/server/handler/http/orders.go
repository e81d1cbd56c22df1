package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/atinyakov/MineAdmin/internal/middleware"
	"github.com/atinyakov/MineAdmin/internal/models"
	"github.com/atinyakov/MineAdmin/internal/service"
)

// OrderService defines the order operations required by OrderHandler.
type OrderService interface {
	List(ctx context.Context, f service.OrderFilter) ([]models.Order, error)
	Get(ctx context.Context, id string) (models.Order, error)
	Create(ctx context.Context, o models.Order) (models.Order, error)
	UpdateStatus(ctx context.Context, id string, status models.OrderStatus, note string) (models.Order, error)
	Tracking(ctx context.Context, id string) (models.Tracking, error)
	SalesReport(ctx context.Context, from, to time.Time) (models.SalesReport, error)
}

// OrderHandler serves /api/orders and /api/reports. Orders are never
// deleted; they are cancelled through a status change.
type OrderHandler struct {
	OrderService OrderService
	Log          *zap.Logger
}

// scope restricts what the caller may see: customers see their own
// orders, branch managers the orders of their branch.
func scope(u models.User, f service.OrderFilter) service.OrderFilter {
	switch u.Role {
	case models.RoleCustomer:
		f.UserID = u.ID
	case models.RoleBranchManager:
		f.BranchID = u.BranchID
	}
	return f
}

func (h *OrderHandler) visible(r *http.Request, o models.Order) bool {
	u, _ := middleware.UserFromContext(r.Context())
	f := scope(u, service.OrderFilter{})
	return (f.UserID == "" || o.UserID == f.UserID) && (f.BranchID == "" || o.BranchID == f.BranchID)
}

func (h *OrderHandler) load(w http.ResponseWriter, r *http.Request) (models.Order, bool) {
	o, err := h.OrderService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeFailure(w, h.Log, err)
		return o, false
	}
	if !h.visible(r, o) {
		writeError(w, http.StatusNotFound, "Resource not found")
		return o, false
	}
	return o, true
}

// List handles GET /api/orders. It accepts status, branchId and userId.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	u, _ := middleware.UserFromContext(r.Context())
	f := scope(u, service.OrderFilter{
		Status:   models.OrderStatus(q.Get("status")),
		BranchID: q.Get("branchId"),
		UserID:   q.Get("userId"),
	})
	orders, err := h.OrderService.List(r.Context(), f)
	if err != nil {
		writeFailure(w, h.Log, err)
		return
	}
	writePage(w, r, orders)
}

// Get handles GET /api/orders/{id}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	if o, ok := h.load(w, r); ok {
		writeData(w, http.StatusOK, o)
	}
}

// Create handles POST /api/orders. Customers always order for themselves.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var o models.Order
	if !decodeJSON(w, r, &o) {
		return
	}
	if u, ok := middleware.UserFromContext(r.Context()); ok && (o.UserID == "" || u.Role == models.RoleCustomer) {
		o.UserID = u.ID
	}
	created, err := h.OrderService.Create(r.Context(), o)
	if err != nil {
		writeFailure(w, h.Log, err)
		return
	}
	writeData(w, http.StatusCreated, created)
}

type statusRequest struct {
	Status models.OrderStatus `json:"status"`
	Note   string             `json:"note"`
}

// UpdateStatus handles PATCH /api/orders/{id}/status.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	o, ok := h.load(w, r)
	if !ok {
		return
	}
	var req statusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	updated, err := h.OrderService.UpdateStatus(r.Context(), o.ID, req.Status, req.Note)
	if err != nil {
		writeFailure(w, h.Log, err)
		return
	}
	if h.Log != nil {
		h.Log.Info("order status changed",
			zap.String("order_id", o.ID),
			zap.String("from", string(o.Status)),
			zap.String("to", string(updated.Status)),
		)
	}
	writeData(w, http.StatusOK, updated)
}

// Tracking handles GET /api/orders/{id}/tracking.
func (h *OrderHandler) Tracking(w http.ResponseWriter, r *http.Request) {
	o, ok := h.load(w, r)
	if !ok {
		return
	}
	tr, err := h.OrderService.Tracking(r.Context(), o.ID)
	if err != nil {
		writeFailure(w, h.Log, err)
		return
	}
	writeData(w, http.StatusOK, tr)
}

type reportResponse struct {
	Report models.SalesReport `json:"report"`
}

// SalesReport handles GET /api/reports/sales?from=YYYY-MM-DD&to=YYYY-MM-DD.
func (h *OrderHandler) SalesReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, errFrom := time.Parse(time.DateOnly, q.Get("from"))
	to, errTo := time.Parse(time.DateOnly, q.Get("to"))
	if errFrom != nil || errTo != nil {
		writeError(w, http.StatusBadRequest, "from and to must be dates in YYYY-MM-DD format")
		return
	}
	report, err := h.OrderService.SalesReport(r.Context(), from, to)
	if err != nil {
		writeFailure(w, h.Log, err)
		return
	}
	writeData(w, http.StatusOK, reportResponse{Report: report})
}
