// Package models defines the records exchanged with the MineAdmin backend:
// users and roles, catalog entities, orders and the reporting payloads.
package models

import (
	"encoding/json"
	"time"
)

// Entity is implemented by every record that is addressed by an ID.
type Entity interface {
	EntityID() string
}

// Role is an authorization role carried by a user record.
type Role string

const (
	// RoleSuperAdmin has unrestricted access.
	RoleSuperAdmin Role = "super_admin"
	// RoleAdmin manages the catalog, users and branches.
	RoleAdmin Role = "admin"
	// RoleShopManager manages products and orders.
	RoleShopManager Role = "shop_manager"
	// RoleBranchManager manages a single branch and its orders.
	RoleBranchManager Role = "branch_manager"
	// RoleCustomer places orders.
	RoleCustomer Role = "customer"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleShopManager, RoleBranchManager, RoleCustomer:
		return true
	}
	return false
}

// RoleRef is one entry of a user's roles list. The backend sends either
// plain strings or objects carrying a name.
type RoleRef struct {
	Name string `json:"name"`
}

// UnmarshalJSON accepts "admin" as well as {"name":"admin"}.
func (r *RoleRef) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		r.Name = s
		return nil
	}
	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	r.Name = obj.Name
	return nil
}

// User is an account known to the backend.
type User struct {
	// ID is the unique identifier for the user.
	ID string `json:"id"`
	// Name is the display name.
	Name string `json:"name"`
	// Email is the login e-mail address.
	Email string `json:"email"`
	// Role is the scalar role field; preferred over Roles when set.
	Role Role `json:"role,omitempty"`
	// Roles is the legacy role list.
	Roles []RoleRef `json:"roles,omitempty"`
	// Phone is an optional contact number.
	Phone string `json:"phone,omitempty"`
	// BranchID links branch managers to their branch.
	BranchID string `json:"branchId,omitempty"`
	// Password is only sent when creating a user.
	Password string `json:"password,omitempty"`
	// Active is false for disabled accounts.
	Active bool `json:"active"`
}

// EntityID implements Entity.
func (u User) EntityID() string { return u.ID }

// ProfileUpdate carries the fields a user may change on their own profile.
type ProfileUpdate struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Password string `json:"password,omitempty"`
}

// Product is an item of mining equipment in the catalog.
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	SKU         string    `json:"sku,omitempty"`
	CategoryID  string    `json:"categoryId,omitempty"`
	Price       float64   `json:"price"`
	Stock       int       `json:"stock"`
	Images      []string  `json:"images,omitempty"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
}

// EntityID implements Entity.
func (p Product) EntityID() string { return p.ID }

// Category groups products.
type Category struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug,omitempty"`
	ParentID string `json:"parentId,omitempty"`
}

// EntityID implements Entity.
func (c Category) EntityID() string { return c.ID }

// Branch is a physical store or warehouse.
type Branch struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Address   string `json:"address"`
	Phone     string `json:"phone,omitempty"`
	ManagerID string `json:"managerId,omitempty"`
}

// EntityID implements Entity.
func (b Branch) EntityID() string { return b.ID }

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderProcessing, OrderShipped, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

// OrderItem is one line of an order.
type OrderItem struct {
	ProductID string  `json:"productId"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price,omitempty"`
}

// Order is a customer purchase.
type Order struct {
	ID              string      `json:"id"`
	UserID          string      `json:"userId,omitempty"`
	BranchID        string      `json:"branchId,omitempty"`
	Items           []OrderItem `json:"items"`
	Status          OrderStatus `json:"status"`
	Total           float64     `json:"total"`
	ShippingAddress string      `json:"shippingAddress,omitempty"`
	CreatedAt       time.Time   `json:"createdAt,omitempty"`
}

// EntityID implements Entity.
func (o Order) EntityID() string { return o.ID }

// TrackingEvent is one step in an order's delivery history.
type TrackingEvent struct {
	Status OrderStatus `json:"status"`
	Note   string      `json:"note,omitempty"`
	At     time.Time   `json:"at"`
}

// Tracking is the delivery history of an order.
type Tracking struct {
	OrderID string          `json:"orderId"`
	Status  OrderStatus     `json:"status"`
	Events  []TrackingEvent `json:"events"`
}

// Blog is a news post shown on the storefront.
type Blog struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Author    string    `json:"author,omitempty"`
	Published bool      `json:"published"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// EntityID implements Entity.
func (b Blog) EntityID() string { return b.ID }

// Transaction is a payment recorded against an order.
type Transaction struct {
	ID        string    `json:"id"`
	OrderID   string    `json:"orderId"`
	Amount    float64   `json:"amount"`
	Method    string    `json:"method"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// EntityID implements Entity.
func (t Transaction) EntityID() string { return t.ID }

// SalesReport aggregates orders over a period.
type SalesReport struct {
	From         time.Time             `json:"from"`
	To           time.Time             `json:"to"`
	TotalOrders  int                   `json:"totalOrders"`
	TotalRevenue float64               `json:"totalRevenue"`
	ByStatus     map[OrderStatus]int   `json:"byStatus,omitempty"`
	TopProducts  []ProductSalesSummary `json:"topProducts,omitempty"`
}

// ProductSalesSummary is one row of a report's top products.
type ProductSalesSummary struct {
	ProductID string  `json:"productId"`
	Quantity  int     `json:"quantity"`
	Revenue   float64 `json:"revenue"`
}

// Health is the backend liveness payload.
type Health struct {
	Status string    `json:"status"`
	Time   time.Time `json:"time"`
}

// Info describes the backend build.
type Info struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Environment string `json:"environment,omitempty"`
}

// Session is a login session issued by the backend. Token is the value of
// the session cookie.
type Session struct {
	Token     string    `json:"-"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Expired reports whether the session is no longer valid at now.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
