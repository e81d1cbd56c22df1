package http

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/atinyakov/MineAdmin/internal/client/api"
	"github.com/atinyakov/MineAdmin/internal/models"
	"github.com/atinyakov/MineAdmin/internal/repository"
	"github.com/atinyakov/MineAdmin/internal/service"
)

const (
	adminEmail    = "admin@example.com"
	adminPassword = "admin12345"
)

type testEnv struct {
	srv      *httptest.Server
	auth     *service.AuthService
	users    *service.UserService
	products *repository.Table[models.Product]
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := zaptest.NewLogger(t)
	ctx := context.Background()

	userRepo := repository.NewUserRepository()
	sessions := repository.NewMemorySessions()
	products := repository.NewTable[models.Product]()
	orders := repository.NewTable[models.Order]()
	transactions := repository.NewTable[models.Transaction]()

	auth := service.NewAuthService(userRepo, sessions, time.Hour)
	_, err := auth.SeedAdmin(ctx, adminEmail, adminPassword)
	require.NoError(t, err)
	users := service.NewUserService(userRepo, sessions)
	orderSvc := service.NewOrderService(orders, products)

	require.NoError(t, products.Insert(ctx, models.Product{ID: "drill", Name: "Rock drill", SKU: "RD-1", Price: 150, Stock: 3}))
	require.NoError(t, transactions.Insert(ctx, models.Transaction{ID: "t1", OrderID: "o1", Amount: 10, Status: "paid"}))

	router := NewRouter(Handlers{
		Auth:   &AuthHandler{AuthService: auth, Log: log},
		Users:  &UserHandler{UserService: users, Log: log},
		Orders: &OrderHandler{OrderService: orderSvc, Log: log},
		Upload: &UploadHandler{
			Import: func(ctx context.Context, r io.Reader) (service.ImportResult, error) {
				return service.ImportProducts(ctx, products, r)
			},
			Log: log,
		},
		System:       &SystemHandler{Info: models.Info{Name: "mineadmin", Version: "test"}},
		Products:     NewProductHandler(products, log),
		Categories:   NewCategoryHandler(repository.NewTable[models.Category](), log),
		Branches:     NewBranchHandler(repository.NewTable[models.Branch](), log),
		Blogs:        NewBlogHandler(repository.NewTable[models.Blog](), log),
		Transactions: NewTransactionHandler(transactions, log),
	}, log)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, auth: auth, users: users, products: products}
}

func (e *testEnv) client(t *testing.T) *api.Client {
	t.Helper()
	c, err := api.New(e.srv.URL + "/api")
	require.NoError(t, err)
	return c
}

func (e *testEnv) login(t *testing.T, email, password string) *api.Client {
	t.Helper()
	c := e.client(t)
	_, err := c.Login(context.Background(), email, password)
	require.NoError(t, err)
	return c
}

func TestRouter_PublicEndpoints(t *testing.T) {
	env := newTestEnv(t)
	c := env.client(t)
	ctx := context.Background()

	h, err := c.Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ok", h.Status)

	info, err := c.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, "mineadmin", info.Name)

	_, err = c.GetProducts(ctx, nil)
	assert.Equal(t, http.StatusUnauthorized, api.StatusOf(err))
}

func TestRouter_LoginFlow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.client(t)

	_, err := c.Login(ctx, adminEmail, "wrong-password")
	assert.Equal(t, http.StatusUnauthorized, api.StatusOf(err))
	assert.EqualError(t, err, "Invalid email or password")

	res, err := c.Login(ctx, adminEmail, adminPassword)
	require.NoError(t, err)
	require.NotNil(t, res.User)
	assert.Equal(t, models.RoleSuperAdmin, res.User.Role)
	assert.NotEmpty(t, res.SessionID)
	assert.True(t, c.HasSession())

	profile, err := c.GetProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, adminEmail, profile.Email)

	updated, err := c.UpdateProfile(ctx, models.ProfileUpdate{Name: "Chief"})
	require.NoError(t, err)
	assert.Equal(t, "Chief", updated.Name)

	require.NoError(t, c.Logout(ctx))
	assert.False(t, c.HasSession())

	_, err = env.auth.Authenticate(ctx, res.SessionID)
	assert.ErrorIs(t, err, service.ErrUnauthenticated)
}

func TestRouter_RawLoginSetsCookies(t *testing.T) {
	env := newTestEnv(t)
	body := strings.NewReader(`{"email":"admin@example.com","password":"admin12345"}`)
	resp, err := http.Post(env.srv.URL+"/api/auth/login", "application/json", body)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	cookies := map[string]*http.Cookie{}
	for _, c := range resp.Cookies() {
		cookies[c.Name] = c
	}
	require.Contains(t, cookies, "auth_token")
	require.Contains(t, cookies, "auth_status")
	assert.True(t, cookies["auth_token"].HttpOnly)
	assert.False(t, cookies["auth_status"].HttpOnly)
	assert.Equal(t, "1", cookies["auth_status"].Value)
}

func TestRouter_ProductCrud(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.login(t, adminEmail, adminPassword)

	created, err := c.CreateProduct(ctx, models.Product{Name: "Dump truck", Price: 90000, Stock: 1})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	page, err := c.GetProducts(ctx, api.Params{"search": "truck"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, created.ID, page.Items[0].ID)
	assert.Equal(t, 1, page.Pagination.Total)

	created.Stock = 5
	updated, err := c.UpdateProduct(ctx, created.ID, created)
	require.NoError(t, err)
	assert.Equal(t, 5, updated.Stock)

	require.NoError(t, c.DeleteProduct(ctx, created.ID))
	_, err = c.GetProduct(ctx, created.ID)
	assert.Equal(t, http.StatusNotFound, api.StatusOf(err))
	assert.EqualError(t, err, "Resource not found")
}

func TestRouter_RoleRestrictions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.users.Create(ctx, models.User{Name: "Cy", Email: "cy@example.com", Password: "customer-pass"})
	require.NoError(t, err)
	c := env.login(t, "cy@example.com", "customer-pass")

	_, err = c.GetProducts(ctx, nil)
	require.NoError(t, err)

	_, err = c.CreateProduct(ctx, models.Product{Name: "Pick", Price: 5})
	assert.Equal(t, http.StatusForbidden, api.StatusOf(err))

	_, err = c.GetUsers(ctx, nil)
	assert.Equal(t, http.StatusForbidden, api.StatusOf(err))

	_, err = c.GetTransactions(ctx, nil)
	assert.Equal(t, http.StatusForbidden, api.StatusOf(err))

	order, err := c.CreateOrder(ctx, models.Order{Items: []models.OrderItem{{ProductID: "drill", Quantity: 2}}})
	require.NoError(t, err)
	assert.Equal(t, 300.0, order.Total)

	_, err = c.UpdateOrderStatus(ctx, order.ID, models.OrderProcessing, "")
	assert.Equal(t, http.StatusForbidden, api.StatusOf(err))

	tr, err := c.TrackOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPending, tr.Status)
}

func TestRouter_OrderLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.login(t, adminEmail, adminPassword)

	for range 12 {
		_, err := c.CreateOrder(ctx, models.Order{Items: []models.OrderItem{{ProductID: "drill", Quantity: 1}}})
		require.NoError(t, err)
	}

	page, err := c.GetOrders(ctx, api.Params{"status": "pending", "page": "2", "limit": "5"})
	require.NoError(t, err)
	assert.Len(t, page.Items, 5)
	assert.Equal(t, api.Pagination{Page: 2, Limit: 5, Total: 12, TotalPages: 3, HasNext: true, HasPrev: true}, page.Pagination)

	id := page.Items[0].ID
	o, err := c.UpdateOrderStatus(ctx, id, models.OrderProcessing, "packing")
	require.NoError(t, err)
	assert.Equal(t, models.OrderProcessing, o.Status)

	_, err = c.UpdateOrderStatus(ctx, id, models.OrderDelivered, "")
	assert.Equal(t, http.StatusBadRequest, api.StatusOf(err))

	tr, err := c.TrackOrder(ctx, id)
	require.NoError(t, err)
	require.Len(t, tr.Events, 2)
	assert.Equal(t, "packing", tr.Events[1].Note)

	today := time.Now().UTC().Truncate(24 * time.Hour)
	report, err := c.GetSalesReport(ctx, today.AddDate(0, 0, -1), today.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, 12, report.TotalOrders)
	assert.Equal(t, 1800.0, report.TotalRevenue)
}

func TestRouter_UserAdmin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.login(t, adminEmail, adminPassword)

	u, err := c.CreateUser(ctx, models.User{Name: "Mia", Email: "mia@example.com", Password: "manager-pass", Role: models.RoleShopManager})
	require.NoError(t, err)

	page, err := c.GetUsers(ctx, api.Params{"role": "shop_manager"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, u.ID, page.Items[0].ID)

	_, err = c.CreateUser(ctx, models.User{Name: "Dup", Email: "mia@example.com", Password: "manager-pass"})
	assert.Equal(t, http.StatusConflict, api.StatusOf(err))

	require.NoError(t, c.DeleteUser(ctx, u.ID))

	profile, err := c.GetProfile(ctx)
	require.NoError(t, err)
	err = c.DeleteUser(ctx, profile.ID)
	assert.Equal(t, http.StatusBadRequest, api.StatusOf(err))
}

func TestRouter_BulkUpload(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.login(t, adminEmail, adminPassword)

	csv := "name,price,stock\nHelmet,15,10\n,1,1\n"
	res, err := c.BulkUploadProducts(ctx, "catalog.csv", strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 2, env.products.Len())
}

func TestRouter_PasswordRotationEndsSessions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.login(t, adminEmail, adminPassword)
	profile, err := c.GetProfile(ctx)
	require.NoError(t, err)

	_, err = env.users.Update(ctx, profile.ID, models.User{
		Name: profile.Name, Email: profile.Email, Role: profile.Role, Password: "rotated-password", Active: true,
	})
	require.NoError(t, err)

	_, err = c.GetProfile(ctx)
	assert.Equal(t, http.StatusUnauthorized, api.StatusOf(err))
	assert.False(t, c.HasSession())
}
