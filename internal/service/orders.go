package service

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/atinyakov/MineAdmin/internal/models"
	"github.com/atinyakov/MineAdmin/internal/repository"
)

// ErrInvalidTransition is returned when an order cannot move to the
// requested status.
var ErrInvalidTransition = fmt.Errorf("%w: status transition not allowed", ErrInvalidInput)

// topProductsLimit caps the product rows in a sales report.
const topProductsLimit = 5

var transitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderPending:    {models.OrderProcessing, models.OrderCancelled},
	models.OrderProcessing: {models.OrderShipped, models.OrderCancelled},
	models.OrderShipped:    {models.OrderDelivered},
}

// CanTransition reports whether an order in status from may move to to.
func CanTransition(from, to models.OrderStatus) bool {
	return slices.Contains(transitions[from], to)
}

// OrderStore persists orders.
type OrderStore interface {
	List(ctx context.Context, keep func(models.Order) bool) ([]models.Order, error)
	Get(ctx context.Context, id string) (models.Order, error)
	Insert(ctx context.Context, o models.Order) error
	Update(ctx context.Context, o models.Order) error
}

// ProductLookup resolves the products referenced by order lines.
type ProductLookup interface {
	Get(ctx context.Context, id string) (models.Product, error)
}

// OrderFilter narrows an order listing. Empty fields match everything.
type OrderFilter struct {
	Status   models.OrderStatus
	BranchID string
	UserID   string
}

func (f OrderFilter) match(o models.Order) bool {
	return (f.Status == "" || o.Status == f.Status) &&
		(f.BranchID == "" || o.BranchID == f.BranchID) &&
		(f.UserID == "" || o.UserID == f.UserID)
}

// OrderService implements the order lifecycle and sales reporting.
type OrderService struct {
	orders   OrderStore
	products ProductLookup
	now      func() time.Time

	mu       sync.RWMutex
	tracking map[string][]models.TrackingEvent
}

// NewOrderService returns a service over orders priced from products.
func NewOrderService(orders OrderStore, products ProductLookup) *OrderService {
	return &OrderService{
		orders:   orders,
		products: products,
		now:      time.Now,
		tracking: make(map[string][]models.TrackingEvent),
	}
}

func (s *OrderService) record(orderID string, status models.OrderStatus, note string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracking[orderID] = append(s.tracking[orderID], models.TrackingEvent{
		Status: status,
		Note:   note,
		At:     s.now(),
	})
}

// List returns the orders accepted by f, newest first.
func (s *OrderService) List(ctx context.Context, f OrderFilter) ([]models.Order, error) {
	out, err := s.orders.List(ctx, f.match)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(out, func(a, b models.Order) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out, nil
}

// Get returns one order.
func (s *OrderService) Get(ctx context.Context, id string) (models.Order, error) {
	return s.orders.Get(ctx, id)
}

// Create prices the order lines from the catalog and stores the order as
// pending.
func (s *OrderService) Create(ctx context.Context, o models.Order) (models.Order, error) {
	if len(o.Items) == 0 {
		return models.Order{}, invalidf("order must contain at least one item")
	}

	o.Total = 0
	for i, item := range o.Items {
		if item.Quantity <= 0 {
			return models.Order{}, invalidf("item %d: quantity must be positive", i+1)
		}
		p, err := s.products.Get(ctx, item.ProductID)
		if errors.Is(err, repository.ErrNotFound) {
			return models.Order{}, invalidf("item %d: unknown product %q", i+1, item.ProductID)
		}
		if err != nil {
			return models.Order{}, err
		}
		o.Items[i].Price = p.Price
		o.Total += p.Price * float64(item.Quantity)
	}

	o.ID = uuid.NewString()
	o.Status = models.OrderPending
	o.CreatedAt = s.now()
	if err := s.orders.Insert(ctx, o); err != nil {
		return models.Order{}, err
	}
	s.record(o.ID, o.Status, "order placed")
	return o, nil
}

// UpdateStatus moves the order to status and appends a tracking event.
func (s *OrderService) UpdateStatus(ctx context.Context, id string, status models.OrderStatus, note string) (models.Order, error) {
	if !status.Valid() {
		return models.Order{}, invalidf("unknown order status %q", status)
	}
	o, err := s.orders.Get(ctx, id)
	if err != nil {
		return models.Order{}, err
	}
	if !CanTransition(o.Status, status) {
		return models.Order{}, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, o.Status, status)
	}
	o.Status = status
	if err := s.orders.Update(ctx, o); err != nil {
		return models.Order{}, err
	}
	s.record(o.ID, status, note)
	return o, nil
}

// Tracking returns the delivery history of the order.
func (s *OrderService) Tracking(ctx context.Context, id string) (models.Tracking, error) {
	o, err := s.orders.Get(ctx, id)
	if err != nil {
		return models.Tracking{}, err
	}
	s.mu.RLock()
	events := slices.Clone(s.tracking[id])
	s.mu.RUnlock()
	if events == nil {
		events = []models.TrackingEvent{}
	}
	return models.Tracking{OrderID: id, Status: o.Status, Events: events}, nil
}

// SalesReport aggregates the orders created between from and to, both
// inclusive calendar days. Cancelled orders are counted but earn nothing.
func (s *OrderService) SalesReport(ctx context.Context, from, to time.Time) (models.SalesReport, error) {
	if to.Before(from) {
		return models.SalesReport{}, invalidf("report end date must not be before start date")
	}
	end := to.AddDate(0, 0, 1)
	inPeriod := func(o models.Order) bool {
		return !o.CreatedAt.Before(from) && o.CreatedAt.Before(end)
	}
	orders, err := s.orders.List(ctx, inPeriod)
	if err != nil {
		return models.SalesReport{}, err
	}

	report := models.SalesReport{
		From:     from,
		To:       to,
		ByStatus: make(map[models.OrderStatus]int),
	}
	byProduct := make(map[string]*models.ProductSalesSummary)
	for _, o := range orders {
		report.TotalOrders++
		report.ByStatus[o.Status]++
		if o.Status == models.OrderCancelled {
			continue
		}
		report.TotalRevenue += o.Total
		for _, item := range o.Items {
			row, ok := byProduct[item.ProductID]
			if !ok {
				row = &models.ProductSalesSummary{ProductID: item.ProductID}
				byProduct[item.ProductID] = row
			}
			row.Quantity += item.Quantity
			row.Revenue += item.Price * float64(item.Quantity)
		}
	}

	for _, row := range byProduct {
		report.TopProducts = append(report.TopProducts, *row)
	}
	slices.SortFunc(report.TopProducts, func(a, b models.ProductSalesSummary) int {
		if c := cmp.Compare(b.Revenue, a.Revenue); c != 0 {
			return c
		}
		return cmp.Compare(a.ProductID, b.ProductID)
	})
	if len(report.TopProducts) > topProductsLimit {
		report.TopProducts = report.TopProducts[:topProductsLimit]
	}
	return report, nil
}
