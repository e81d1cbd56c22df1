package api

import (
	"context"
	"net/http"

	"github.com/atinyakov/MineAdmin/internal/models"
)

type statusUpdate struct {
	Status models.OrderStatus `json:"status"`
	Note   string             `json:"note,omitempty"`
}

// GetOrders lists orders. Known params: page, limit, status, branchId.
func (c *Client) GetOrders(ctx context.Context, params Params) (Page[models.Order], error) {
	if s, ok := params["status"]; ok && s != "" && !models.OrderStatus(s).Valid() {
		return Page[models.Order]{}, invalid("Invalid order status: %s", s)
	}
	return getList[models.Order](ctx, c, "/orders", params, "orders")
}

// GetOrder fetches one order.
func (c *Client) GetOrder(ctx context.Context, id string) (models.Order, error) {
	if err := requireID(id, "Order"); err != nil {
		return models.Order{}, err
	}
	return getItem[models.Order](ctx, c, "/orders/"+escape(id), "order")
}

// CreateOrder places an order.
func (c *Client) CreateOrder(ctx context.Context, o models.Order) (models.Order, error) {
	if len(o.Items) == 0 {
		return models.Order{}, invalid("Order must contain at least one item")
	}
	for i, it := range o.Items {
		if it.ProductID == "" {
			return models.Order{}, invalid("Item %d: product ID is required", i+1)
		}
		if it.Quantity <= 0 {
			return models.Order{}, invalid("Item %d: quantity must be positive", i+1)
		}
	}
	return send[models.Order](ctx, c, http.MethodPost, "/orders", o, "order")
}

// UpdateOrderStatus moves an order to status.
func (c *Client) UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus, note string) (models.Order, error) {
	if err := requireID(id, "Order"); err != nil {
		return models.Order{}, err
	}
	if !status.Valid() {
		return models.Order{}, invalid("Invalid order status: %s", status)
	}
	return send[models.Order](ctx, c, http.MethodPatch, "/orders/"+escape(id)+"/status", statusUpdate{Status: status, Note: note}, "order")
}

// TrackOrder returns the delivery history of an order.
func (c *Client) TrackOrder(ctx context.Context, id string) (models.Tracking, error) {
	if err := requireID(id, "Order"); err != nil {
		return models.Tracking{}, err
	}
	return getItem[models.Tracking](ctx, c, "/orders/"+escape(id)+"/tracking", "tracking")
}
