package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/tdmidas/NT219-Project-Cloud-API-Security/internal/auth/http"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/internal/auth/service"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/internal/auth/store/drivers/sqlite"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/blacklist"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/cryptox"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/eventbus"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/jwtx"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/metrics"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/slogx"
)

const (
	// BuildVersion is overridden at build time via ldflags.
	BuildVersion = "v0.1.0"

	serviceName = eventbus.SourceAuthService
)

// Application encapsulates the identity service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db        *sqlite.Store
	blacklist blacklist.Blacklist
	purger    service.Purger
	publisher eventbus.Publisher
	notifier  *eventbus.Notifier
	issuer    *jwtx.HS256

	// Services
	sessionService      *service.SessionService
	tokenService        *service.TokenService
	userService         *service.UserService
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: serviceName,
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	metrics.Register()

	if err := cryptox.LoadPepper(cfg.PepperFile); err != nil {
		return nil, fmt.Errorf("failed to load pepper: %w", err)
	}

	issuer, err := jwtx.NewHS256([]byte(cfg.JWTSecret))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token issuer: %w", err)
	}
	app.issuer = issuer

	if err := app.initDatabase(); err != nil {
		return nil, err
	}
	if err := app.initBlacklist(); err != nil {
		_ = app.db.Close()
		return nil, err
	}
	app.initEvents()
	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("auth service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.housekeepingService.Stop()
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown drains HTTP traffic, waits for pending event notifications, then
// releases the blacklist, broker and database connections.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", slogx.Err(err))
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", slogx.Err(err))
		}
	}

	app.housekeepingService.Stop()

	if err := app.notifier.Close(ctx); err != nil {
		app.logger.Warn("pending events dropped on shutdown", slogx.Err(err))
	}
	if err := app.publisher.Close(); err != nil {
		app.logger.Error("error closing event publisher", slogx.Err(err))
	}
	if err := app.blacklist.Close(); err != nil {
		app.logger.Error("error closing blacklist", slogx.Err(err))
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", slogx.Err(err))
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

func (app *Application) initDatabase() error {
	db, err := sqlite.NewStore(fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)", app.cfg.DatabaseFile))
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

// initBlacklist picks Redis when configured so every instance sees the same
// revocations; otherwise it keeps the set in process and lets housekeeping
// purge it.
func (app *Application) initBlacklist() error {
	if app.cfg.RedisURL == "" {
		mem := blacklist.NewMemory()
		app.blacklist = mem
		app.purger = mem
		app.logger.Warn("AUTH_REDIS_URL not set, using in-process blacklist")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rdb, err := blacklist.NewRedis(ctx, app.cfg.RedisURL, "")
	if err != nil {
		return fmt.Errorf("failed to connect to redis blacklist: %w", err)
	}
	app.blacklist = rdb
	app.logger.Info("redis blacklist connected")
	return nil
}

func (app *Application) initEvents() {
	if app.cfg.AMQPURL == "" {
		app.publisher = eventbus.NopPublisher{Logger: app.logger}
		app.logger.Warn("AUTH_AMQP_URL not set, events will be logged and discarded")
	} else {
		app.publisher = eventbus.NewAMQPPublisher(app.cfg.AMQPURL, eventbus.ExchangeUserEvents, app.logger)
	}
	app.notifier = eventbus.NewNotifier(app.publisher, serviceName, app.logger)
}

func (app *Application) initServices() {
	app.sessionService = service.NewSessionService(app.db, app.blacklist)
	app.sessionService.MaxRefreshTTL = max(app.cfg.RefreshTTL, app.cfg.RememberMeTTL)

	creds := &service.CredentialService{Store: app.db}

	app.tokenService = &service.TokenService{
		Credentials:       creds,
		Sessions:          app.sessionService,
		Minter:            app.issuer,
		AccessTTL:         app.cfg.AccessTTL,
		RefreshTTL:        app.cfg.RefreshTTL,
		RememberMeTTL:     app.cfg.RememberMeTTL,
		RotatedRefreshTTL: app.cfg.RotatedRefreshTTL,
		Now:               time.Now,
	}

	app.userService = &service.UserService{
		Store:       app.db,
		Credentials: creds,
		Sessions:    app.sessionService,
		Events:      app.notifier,
		Now:         time.Now,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.sessionService,
		app.purger,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.issuer,
		app.blacklist,
		BuildVersion,
		app.db,
		app.logger,
	)

	router.TokenService = app.tokenService
	router.UserService = app.userService
	router.SessionService = app.sessionService
	router.SecureCookies = app.cfg.CookiesSecure()
	if p, ok := app.publisher.(httpapi.Pinger); ok {
		router.Broker = p
	}
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
