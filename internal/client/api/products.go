package api

import (
	"context"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/atinyakov/MineAdmin/internal/models"
)

// BulkUploadResult summarizes a product import.
type BulkUploadResult struct {
	Created int      `json:"created"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors,omitempty"`
}

func validateProduct(p models.Product) error {
	if strings.TrimSpace(p.Name) == "" {
		return invalid("Product name is required")
	}
	if p.Price < 0 {
		return invalid("Product price must not be negative")
	}
	if p.Stock < 0 {
		return invalid("Product stock must not be negative")
	}
	return nil
}

// GetProducts lists products. Known params: page, limit, search, category.
func (c *Client) GetProducts(ctx context.Context, params Params) (Page[models.Product], error) {
	return getList[models.Product](ctx, c, "/products", params, "products")
}

// GetProduct fetches one product.
func (c *Client) GetProduct(ctx context.Context, id string) (models.Product, error) {
	if err := requireID(id, "Product"); err != nil {
		return models.Product{}, err
	}
	return getItem[models.Product](ctx, c, "/products/"+escape(id), "product")
}

// CreateProduct adds a product to the catalog.
func (c *Client) CreateProduct(ctx context.Context, p models.Product) (models.Product, error) {
	if err := validateProduct(p); err != nil {
		return models.Product{}, err
	}
	return send[models.Product](ctx, c, http.MethodPost, "/products", p, "product")
}

// UpdateProduct replaces a product.
func (c *Client) UpdateProduct(ctx context.Context, id string, p models.Product) (models.Product, error) {
	if err := requireID(id, "Product"); err != nil {
		return models.Product{}, err
	}
	if err := validateProduct(p); err != nil {
		return models.Product{}, err
	}
	return send[models.Product](ctx, c, http.MethodPut, "/products/"+escape(id), p, "product")
}

// DeleteProduct removes a product.
func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	if err := requireID(id, "Product"); err != nil {
		return err
	}
	return remove(ctx, c, "/products/"+escape(id))
}

// BulkUploadProducts imports products from a CSV file.
func (c *Client) BulkUploadProducts(ctx context.Context, filename string, content io.Reader) (BulkUploadResult, error) {
	if content == nil {
		return BulkUploadResult{}, invalid("A file is required")
	}
	if ext := strings.ToLower(filepath.Ext(filename)); ext != ".csv" {
		return BulkUploadResult{}, invalid("Only CSV files are supported")
	}
	body := &Multipart{Files: []File{{Field: "file", Filename: filepath.Base(filename), Content: content}}}
	return send[BulkUploadResult](ctx, c, http.MethodPost, "/products/bulk-upload", body)
}
