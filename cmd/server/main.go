// Package main starts the MineAdmin mock backend: configuration, logging,
// session storage, services, handlers and the HTTP server.
package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/atinyakov/MineAdmin/internal/config"
	"github.com/atinyakov/MineAdmin/internal/db"
	"github.com/atinyakov/MineAdmin/internal/logger"
	"github.com/atinyakov/MineAdmin/internal/models"
	"github.com/atinyakov/MineAdmin/internal/repository"
	"github.com/atinyakov/MineAdmin/internal/server/handler/http"
	"github.com/atinyakov/MineAdmin/internal/service"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

// sessionStore is implemented by both session backends.
type sessionStore interface {
	service.SessionRepository
	db.SessionSweeper
}

func main() {
	options, err := config.LoadServer(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}
	zapLogger := log.Log

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Sessions live in Postgres when a DSN is configured, in memory otherwise.
	var sessions sessionStore = repository.NewMemorySessions()
	if options.DatabaseDSN != "" {
		postgresDB, err := db.InitPostgres(options.DatabaseDSN)
		if err != nil {
			zapLogger.Fatal("cannot init database", zap.Error(err))
		}
		defer postgresDB.Close()
		sessions = repository.NewPostgresSessions(postgresDB)
	}
	db.StartSessionCleaner(ctx, sessions, options.CleanupInterval, zapLogger)

	users := repository.NewUserRepository()
	products := repository.NewTable[models.Product]()
	orders := repository.NewTable[models.Order]()

	authService := service.NewAuthService(users, sessions, options.SessionTTL)
	userService := service.NewUserService(users, sessions)
	orderService := service.NewOrderService(orders, products)

	if _, err := authService.SeedAdmin(ctx, options.AdminEmail, options.AdminPassword); err != nil {
		zapLogger.Fatal("failed to seed administrator", zap.Error(err))
	}

	router := http.NewRouter(http.Handlers{
		Auth:   &http.AuthHandler{AuthService: authService, SecureCookies: options.SecureCookies, Log: zapLogger},
		Users:  &http.UserHandler{UserService: userService, Log: zapLogger},
		Orders: &http.OrderHandler{OrderService: orderService, Log: zapLogger},
		Upload: &http.UploadHandler{
			Import: func(ctx context.Context, r io.Reader) (service.ImportResult, error) {
				return service.ImportProducts(ctx, products, r)
			},
			Log: zapLogger,
		},
		System: &http.SystemHandler{Info: models.Info{
			Name:        "mineadmin",
			Version:     cmp.Or(version, "dev"),
			Environment: options.Environment,
		}},
		Products:     http.NewProductHandler(products, zapLogger),
		Categories:   http.NewCategoryHandler(repository.NewTable[models.Category](), zapLogger),
		Branches:     http.NewBranchHandler(repository.NewTable[models.Branch](), zapLogger),
		Blogs:        http.NewBlogHandler(repository.NewTable[models.Blog](), zapLogger),
		Transactions: http.NewTransactionHandler(repository.NewTable[models.Transaction](), zapLogger),
	}, zapLogger)

	server := &nethttp.Server{
		Addr:              options.Address,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	zapLogger.Info("starting HTTP server", zap.String("addr", options.Address))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		zapLogger.Fatal("failed to start HTTP server", zap.Error(err))
	}
}
