package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/MineAdmin/internal/models"
)

func TestDomainMethods_FailFast(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusOK, `{}`)
	})
	ctx := context.Background()

	checks := map[string]func() error{
		"login empty":         func() error { _, err := c.Login(ctx, "", ""); return err },
		"login bad email":     func() error { _, err := c.Login(ctx, "admin", "secret"); return err },
		"product no id":       func() error { _, err := c.GetProduct(ctx, " "); return err },
		"product no name":     func() error { _, err := c.CreateProduct(ctx, models.Product{Price: 1}); return err },
		"product neg price":   func() error { _, err := c.CreateProduct(ctx, models.Product{Name: "Drill", Price: -1}); return err },
		"upload wrong ext":    func() error { _, err := c.BulkUploadProducts(ctx, "p.xlsx", strings.NewReader("")); return err },
		"upload nil":          func() error { _, err := c.BulkUploadProducts(ctx, "p.csv", nil); return err },
		"order no items":      func() error { _, err := c.CreateOrder(ctx, models.Order{}); return err },
		"order zero qty":      func() error { _, err := c.CreateOrder(ctx, models.Order{Items: []models.OrderItem{{ProductID: "p"}}}); return err },
		"order bad status":    func() error { _, err := c.UpdateOrderStatus(ctx, "1", "lost", ""); return err },
		"orders bad filter":   func() error { _, err := c.GetOrders(ctx, Params{"status": "lost"}); return err },
		"track no id":         func() error { _, err := c.TrackOrder(ctx, ""); return err },
		"branch no address":   func() error { _, err := c.CreateBranch(ctx, models.Branch{Name: "North"}); return err },
		"user short password": func() error { _, err := c.CreateUser(ctx, models.User{Name: "A", Email: "a@x.com", Password: "123"}); return err },
		"user bad role":       func() error { _, err := c.UpdateUser(ctx, "1", models.User{Name: "A", Email: "a@x.com", Role: "root"}); return err },
		"category no name":    func() error { _, err := c.CreateCategory(ctx, models.Category{}); return err },
		"blog no content":     func() error { _, err := c.CreateBlog(ctx, models.Blog{Title: "News"}); return err },
		"delete no id":        func() error { return c.DeleteUser(ctx, "") },
		"profile empty":       func() error { _, err := c.UpdateProfile(ctx, models.ProfileUpdate{}); return err },
		"report reversed": func() error {
			_, err := c.GetSalesReport(ctx, time.Now(), time.Now().Add(-48*time.Hour))
			return err
		},
	}

	for name, check := range checks {
		t.Run(name, func(t *testing.T) {
			err := check()
			var apiErr *Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, http.StatusBadRequest, apiErr.Status)
			assert.NotEmpty(t, apiErr.Message)
		})
	}
	assert.Equal(t, int32(0), calls.Load(), "validation must not reach the network")
}

func TestLogin_Success(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/auth/login", r.URL.Path)

		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "admin@x.com", body["email"])
		assert.Equal(t, "secret", body["password"])

		http.SetCookie(w, &http.Cookie{Name: "auth_token", Value: "s1", Path: "/", HttpOnly: true})
		writeJSON(w, http.StatusOK, `{"data":{"user":{"id":"1","name":"A","role":"admin"},"sessionId":"s1"}}`)
	})

	res, err := c.Login(context.Background(), "admin@x.com", "secret")
	require.NoError(t, err)
	require.NotNil(t, res.User)
	assert.Equal(t, "1", res.User.ID)
	assert.Equal(t, models.RoleAdmin, res.User.Role)
	assert.Equal(t, "s1", res.SessionID)
	assert.True(t, c.HasSession())
}

func TestLogout_ClearsSessionEvenOnFailure(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/auth/login" {
			http.SetCookie(w, &http.Cookie{Name: "auth_token", Value: "s1", Path: "/"})
			writeJSON(w, http.StatusOK, `{"user":{"id":"1"}}`)
			return
		}
		writeJSON(w, http.StatusInternalServerError, `{"message":"boom"}`)
	})

	_, err := c.Login(context.Background(), "admin@x.com", "secret")
	require.NoError(t, err)
	require.True(t, c.HasSession())

	err = c.Logout(context.Background())
	require.Error(t, err)
	assert.False(t, c.HasSession())
}

func TestGetOrders_Pagination(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "pending", q.Get("status"))
		assert.Equal(t, "2", q.Get("page"))
		assert.Equal(t, "20", q.Get("limit"))

		items := make([]string, 17)
		for i := range items {
			items[i] = fmt.Sprintf(`{"id":"o%d","status":"pending","items":[]}`, i)
		}
		writeJSON(w, http.StatusOK, `{"data":[`+strings.Join(items, ",")+`],"page":2,"totalPages":3,"total":57}`)
	})

	page, err := c.GetOrders(context.Background(), Params{"status": "pending", "page": "2", "limit": "20"})
	require.NoError(t, err)
	assert.Len(t, page.Items, 17)
	assert.True(t, page.Pagination.HasNext)
	assert.True(t, page.Pagination.HasPrev)
	assert.Equal(t, 57, page.Pagination.Total)
}

func TestUpdateOrderStatus(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/api/orders/o%2F1/status", r.URL.EscapedPath())
		writeJSON(w, http.StatusOK, `{"data":{"order":{"id":"o/1","status":"shipped","items":[]}}}`)
	})

	o, err := c.UpdateOrderStatus(context.Background(), "o/1", models.OrderShipped, "")
	require.NoError(t, err)
	assert.Equal(t, models.OrderShipped, o.Status)
}

func TestBulkUploadProducts(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data"))
		writeJSON(w, http.StatusOK, `{"data":{"created":2,"failed":1,"errors":["row 3: price"]}}`)
	})

	res, err := c.BulkUploadProducts(context.Background(), "/tmp/products.csv", strings.NewReader("name,price\nA,1\nB,2\nC,x\n"))
	require.NoError(t, err)
	assert.Equal(t, BulkUploadResult{Created: 2, Failed: 1, Errors: []string{"row 3: price"}}, res)
}

func TestDeleteProduct_NotFound(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, `{"message":"Product not found"}`)
	})

	err := c.DeleteProduct(context.Background(), "42")
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "Product not found", apiErr.Message)
}

func TestGetProfile_UnexpectedBody(t *testing.T) {
	tests := map[string]http.HandlerFunc{
		"no content": func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		},
		"not an object": func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, `{"data":"nope"}`)
		},
	}
	for name, h := range tests {
		t.Run(name, func(t *testing.T) {
			c, _ := newTestClient(t, h)
			_, err := c.GetProfile(context.Background())
			var apiErr *Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, http.StatusBadGateway, apiErr.Status)
			assert.NotEmpty(t, apiErr.Message)
		})
	}
}

func TestHealthAndInfo(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/health":
			writeJSON(w, http.StatusOK, `{"status":"ok"}`)
		case "/api/info":
			writeJSON(w, http.StatusOK, `{"data":{"name":"mineadmin","version":"1.2.0"}}`)
		}
	})

	h, err := c.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", h.Status)

	info, err := c.Info(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1.2.0", info.Version)
}
