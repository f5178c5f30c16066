package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/sahilmehra/campustrade-backend/api/routes"
	"github.com/sahilmehra/campustrade-backend/internal/auth"
	"github.com/sahilmehra/campustrade-backend/internal/grouporders"
	"github.com/sahilmehra/campustrade-backend/internal/listings"
	"github.com/sahilmehra/campustrade-backend/internal/notify"
	"github.com/sahilmehra/campustrade-backend/internal/offers"
	"github.com/sahilmehra/campustrade-backend/internal/orders"
	"github.com/sahilmehra/campustrade-backend/internal/reports"
	"github.com/sahilmehra/campustrade-backend/internal/trust"
	"github.com/sahilmehra/campustrade-backend/internal/users"
	"github.com/sahilmehra/campustrade-backend/pkg/auth/session"
	"github.com/sahilmehra/campustrade-backend/pkg/config"
	"github.com/sahilmehra/campustrade-backend/pkg/db"
	"github.com/sahilmehra/campustrade-backend/pkg/logger"
	"github.com/sahilmehra/campustrade-backend/pkg/migrate"
	"github.com/sahilmehra/campustrade-backend/pkg/redis"
	"github.com/sahilmehra/campustrade-backend/pkg/storage/local"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	uploadsStore, err := local.New(cfg.Uploads, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to prepare uploads store", err)
		os.Exit(1)
	}

	gormDB := dbClient.DB()

	notifyRepo := notify.NewRepository(gormDB)
	emitter, err := notify.NewEmitter(notifyRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create notification emitter", err)
		os.Exit(1)
	}
	notifyService, err := notify.NewService(notifyRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	trustService, err := trust.NewService(trust.NewRepository(gormDB), cfg.Trust)
	if err != nil {
		logg.Error(context.Background(), "failed to create trust service", err)
		os.Exit(1)
	}

	usersRepo := users.NewRepository(gormDB)
	usersService, err := users.NewService(usersRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create users service", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       usersRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	listingsService, err := listings.NewService(listings.NewRepository(gormDB), dbClient, trustService, emitter)
	if err != nil {
		logg.Error(context.Background(), "failed to create listings service", err)
		os.Exit(1)
	}

	offersService, err := offers.NewService(offers.NewRepository(gormDB), dbClient, emitter)
	if err != nil {
		logg.Error(context.Background(), "failed to create offers service", err)
		os.Exit(1)
	}

	ordersService, err := orders.NewService(orders.NewRepository(gormDB), dbClient, trustService, emitter)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	groupOrdersService, err := grouporders.NewService(grouporders.NewRepository(gormDB), dbClient, trustService, emitter, cfg.GroupOrders)
	if err != nil {
		logg.Error(context.Background(), "failed to create group orders service", err)
		os.Exit(1)
	}

	reportsService, err := reports.NewService(reports.NewRepository(gormDB), dbClient, trustService, emitter)
	if err != nil {
		logg.Error(context.Background(), "failed to create reports service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	router := routes.NewRouter(cfg, logg, dbClient, redisClient, uploadsStore, sessionManager, routes.Services{
		Auth:          authService,
		Users:         usersService,
		Listings:      listingsService,
		Offers:        offersService,
		Orders:        ordersService,
		GroupOrders:   groupOrdersService,
		Reports:       reportsService,
		Notifications: notifyService,
	})

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
