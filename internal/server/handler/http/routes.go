package http

import (
	"net/http"

	"github.com/atinyakov/MineAdmin/internal/middleware"
	"github.com/atinyakov/MineAdmin/internal/models"
	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// Handlers bundles every handler mounted by NewRouter.
type Handlers struct {
	Auth         *AuthHandler
	Users        *UserHandler
	Orders       *OrderHandler
	Upload       *UploadHandler
	System       *SystemHandler
	Products     *ResourceHandler[models.Product]
	Categories   *ResourceHandler[models.Category]
	Branches     *ResourceHandler[models.Branch]
	Blogs        *ResourceHandler[models.Blog]
	Transactions *ResourceHandler[models.Transaction]
}

var (
	catalogEditors = []models.Role{models.RoleAdmin, models.RoleShopManager}
	orderEditors   = []models.Role{models.RoleAdmin, models.RoleShopManager, models.RoleBranchManager}
)

// NewRouter constructs the mock backend API under /api.
//
// Public: login, logout, health and info. Every other route needs a valid
// session cookie; writes are further restricted by role:
//
//	products, categories, blogs  admin, shop_manager
//	branches                     admin
//	order status                 admin, shop_manager, branch_manager
//	transactions, reports        admin, shop_manager
//	admin/users                  admin
//
// Super admins pass every role check.
func NewRouter(h Handlers, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.AllowContentType("application/json", "multipart/form-data"))
	r.Use(middleware.WithRequestLogging(logger))

	r.Route("/api", func(r chi.Router) {
		// Public endpoints
		r.Post("/auth/login", h.Auth.Login)
		r.Post("/auth/logout", h.Auth.Logout)
		r.Get("/health", h.System.Health)
		r.Get("/info", h.System.BuildInfo)

		// Protected group: requires a valid session cookie
		r.Group(func(r chi.Router) {
			r.Use(middleware.SessionAuth(h.Auth.AuthService))

			r.Get("/auth/profile", h.Auth.Profile)
			r.Put("/auth/profile", h.Auth.UpdateProfile)

			catalog := r.With(middleware.RequireRole(catalogEditors...))
			catalog.Post("/products/bulk-upload", h.Upload.BulkUpload)
			h.Products.Mount("/products", r, catalog)
			h.Categories.Mount("/categories", r, catalog)
			h.Blogs.Mount("/blogs", r, catalog)
			h.Branches.Mount("/branches", r, r.With(middleware.RequireRole(models.RoleAdmin)))
			h.Transactions.Mount("/transactions", catalog, nil)

			r.Get("/orders", h.Orders.List)
			r.Post("/orders", h.Orders.Create)
			r.Get("/orders/{id}", h.Orders.Get)
			r.Get("/orders/{id}/tracking", h.Orders.Tracking)
			r.With(middleware.RequireRole(orderEditors...)).Patch("/orders/{id}/status", h.Orders.UpdateStatus)

			catalog.Get("/reports/sales", h.Orders.SalesReport)

			r.Route("/admin/users", func(r chi.Router) {
				r.Use(middleware.RequireRole(models.RoleAdmin))
				r.Get("/", h.Users.List)
				r.Post("/", h.Users.Create)
				r.Get("/{id}", h.Users.Get)
				r.Put("/{id}", h.Users.Update)
				r.Delete("/{id}", h.Users.Delete)
			})
		})
	})

	return r
}
