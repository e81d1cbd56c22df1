package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/atinyakov/MineAdmin/internal/models"
)

// Branches

func validateBranch(b models.Branch) error {
	if strings.TrimSpace(b.Name) == "" {
		return invalid("Branch name is required")
	}
	if strings.TrimSpace(b.Address) == "" {
		return invalid("Branch address is required")
	}
	return nil
}

func (c *Client) GetBranches(ctx context.Context, params Params) (Page[models.Branch], error) {
	return getList[models.Branch](ctx, c, "/branches", params, "branches")
}

func (c *Client) GetBranch(ctx context.Context, id string) (models.Branch, error) {
	if err := requireID(id, "Branch"); err != nil {
		return models.Branch{}, err
	}
	return getItem[models.Branch](ctx, c, "/branches/"+escape(id), "branch")
}

func (c *Client) CreateBranch(ctx context.Context, b models.Branch) (models.Branch, error) {
	if err := validateBranch(b); err != nil {
		return models.Branch{}, err
	}
	return send[models.Branch](ctx, c, http.MethodPost, "/branches", b, "branch")
}

func (c *Client) UpdateBranch(ctx context.Context, id string, b models.Branch) (models.Branch, error) {
	if err := requireID(id, "Branch"); err != nil {
		return models.Branch{}, err
	}
	if err := validateBranch(b); err != nil {
		return models.Branch{}, err
	}
	return send[models.Branch](ctx, c, http.MethodPut, "/branches/"+escape(id), b, "branch")
}

func (c *Client) DeleteBranch(ctx context.Context, id string) error {
	if err := requireID(id, "Branch"); err != nil {
		return err
	}
	return remove(ctx, c, "/branches/"+escape(id))
}

// Users (admin)

func validateUser(u models.User, creating bool) error {
	if strings.TrimSpace(u.Name) == "" {
		return invalid("User name is required")
	}
	if !validEmail(u.Email) {
		return invalid("Invalid email format")
	}
	if creating && len(u.Password) < 8 {
		return invalid("Password must be at least 8 characters")
	}
	if u.Role != "" && !u.Role.Valid() {
		return invalid("Invalid role: %s", u.Role)
	}
	return nil
}

func (c *Client) GetUsers(ctx context.Context, params Params) (Page[models.User], error) {
	return getList[models.User](ctx, c, "/admin/users", params, "users")
}

func (c *Client) GetUser(ctx context.Context, id string) (models.User, error) {
	if err := requireID(id, "User"); err != nil {
		return models.User{}, err
	}
	return getItem[models.User](ctx, c, "/admin/users/"+escape(id), "user")
}

func (c *Client) CreateUser(ctx context.Context, u models.User) (models.User, error) {
	if err := validateUser(u, true); err != nil {
		return models.User{}, err
	}
	return send[models.User](ctx, c, http.MethodPost, "/admin/users", u, "user")
}

func (c *Client) UpdateUser(ctx context.Context, id string, u models.User) (models.User, error) {
	if err := requireID(id, "User"); err != nil {
		return models.User{}, err
	}
	if err := validateUser(u, false); err != nil {
		return models.User{}, err
	}
	return send[models.User](ctx, c, http.MethodPut, "/admin/users/"+escape(id), u, "user")
}

func (c *Client) DeleteUser(ctx context.Context, id string) error {
	if err := requireID(id, "User"); err != nil {
		return err
	}
	return remove(ctx, c, "/admin/users/"+escape(id))
}

// Categories

func (c *Client) GetCategories(ctx context.Context, params Params) (Page[models.Category], error) {
	return getList[models.Category](ctx, c, "/categories", params, "categories")
}

func (c *Client) CreateCategory(ctx context.Context, cat models.Category) (models.Category, error) {
	if strings.TrimSpace(cat.Name) == "" {
		return models.Category{}, invalid("Category name is required")
	}
	return send[models.Category](ctx, c, http.MethodPost, "/categories", cat, "category")
}

func (c *Client) UpdateCategory(ctx context.Context, id string, cat models.Category) (models.Category, error) {
	if err := requireID(id, "Category"); err != nil {
		return models.Category{}, err
	}
	if strings.TrimSpace(cat.Name) == "" {
		return models.Category{}, invalid("Category name is required")
	}
	return send[models.Category](ctx, c, http.MethodPut, "/categories/"+escape(id), cat, "category")
}

func (c *Client) DeleteCategory(ctx context.Context, id string) error {
	if err := requireID(id, "Category"); err != nil {
		return err
	}
	return remove(ctx, c, "/categories/"+escape(id))
}

// Blogs

func validateBlog(b models.Blog) error {
	if strings.TrimSpace(b.Title) == "" {
		return invalid("Blog title is required")
	}
	if strings.TrimSpace(b.Content) == "" {
		return invalid("Blog content is required")
	}
	return nil
}

func (c *Client) GetBlogs(ctx context.Context, params Params) (Page[models.Blog], error) {
	return getList[models.Blog](ctx, c, "/blogs", params, "blogs")
}

func (c *Client) CreateBlog(ctx context.Context, b models.Blog) (models.Blog, error) {
	if err := validateBlog(b); err != nil {
		return models.Blog{}, err
	}
	return send[models.Blog](ctx, c, http.MethodPost, "/blogs", b, "blog")
}

func (c *Client) UpdateBlog(ctx context.Context, id string, b models.Blog) (models.Blog, error) {
	if err := requireID(id, "Blog"); err != nil {
		return models.Blog{}, err
	}
	if err := validateBlog(b); err != nil {
		return models.Blog{}, err
	}
	return send[models.Blog](ctx, c, http.MethodPut, "/blogs/"+escape(id), b, "blog")
}

func (c *Client) DeleteBlog(ctx context.Context, id string) error {
	if err := requireID(id, "Blog"); err != nil {
		return err
	}
	return remove(ctx, c, "/blogs/"+escape(id))
}

// Transactions and reports

func (c *Client) GetTransactions(ctx context.Context, params Params) (Page[models.Transaction], error) {
	return getList[models.Transaction](ctx, c, "/transactions", params, "transactions")
}

// GetSalesReport aggregates orders between from and to (inclusive dates).
func (c *Client) GetSalesReport(ctx context.Context, from, to time.Time) (models.SalesReport, error) {
	if from.IsZero() || to.IsZero() {
		return models.SalesReport{}, invalid("Report period is required")
	}
	if to.Before(from) {
		return models.SalesReport{}, invalid("Report end date must not be before start date")
	}
	q := Params{"from": from.Format(time.DateOnly), "to": to.Format(time.DateOnly)}
	resp, err := c.Request(ctx, "/reports/sales", RequestOptions{Query: q.values()})
	if err != nil {
		return models.SalesReport{}, err
	}
	report, err := DecodeItem[models.SalesReport](resp.JSON, "report")
	if err != nil {
		return report, decodeError(err)
	}
	return report, nil
}

// System

// Health reports backend liveness. It does not require a session.
func (c *Client) Health(ctx context.Context) (models.Health, error) {
	return getItem[models.Health](ctx, c, "/health")
}

// Info describes the backend build.
func (c *Client) Info(ctx context.Context) (models.Info, error) {
	return getItem[models.Info](ctx, c, "/info")
}
