package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	usershttp "github.com/tdmidas/NT219-Project-Cloud-API-Security/internal/users/http"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/internal/users/service"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/internal/users/store"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/internal/users/store/drivers/postgres"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/internal/users/store/drivers/sqlite"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/internal/users/syncer"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/blacklist"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/eventbus"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/jwtx"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/metrics"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/slogx"
)

const (
	// BuildVersion is overridden at build time via ldflags.
	BuildVersion = "v0.1.0"

	serviceName = "user-service"
)

// Application encapsulates the user service: the profile API plus the
// consumer that keeps projections in sync with the auth service.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db        store.Store
	blacklist blacklist.Blacklist
	verifier  *jwtx.HS256
	profiles  *service.ProfileService

	consumer    *eventbus.AMQPConsumer // nil when sync is disabled
	sync        *syncer.Handler
	brokerState atomic.Pointer[string]
	stopSync    context.CancelFunc
	syncDone    chan struct{}

	server *http.Server
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

	verifier, err := jwtx.NewHS256([]byte(cfg.JWTSecret))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token verifier: %w", err)
	}
	app.verifier = verifier

	if err := app.initDatabase(); err != nil {
		return nil, err
	}
	if err := app.initBlacklist(); err != nil {
		_ = app.db.Close()
		return nil, err
	}
	app.initSync()
	app.initHTTP()

	return app, nil
}

// Run starts the consumer and the HTTP server and blocks until shutdown is
// requested.
func (app *Application) Run() error {
	app.startSync()

	app.logger.Info("user service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.stopSyncAndWait()
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

// Shutdown drains HTTP traffic, stops the consumer (an in-flight message is
// nacked and redelivered elsewhere) and closes connections.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down user service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", slogx.Err(err))
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", slogx.Err(err))
		}
	}

	app.stopSyncAndWait()

	if err := app.blacklist.Close(); err != nil {
		app.logger.Error("error closing blacklist", slogx.Err(err))
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", slogx.Err(err))
		return err
	}

	app.logger.Info("user service stopped")
	return nil
}

func (app *Application) initDatabase() error {
	switch app.cfg.DatabaseDriver {
	case DriverPostgres:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		db, err := postgres.NewStore(ctx, app.cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
		app.db = db
	default:
		db, err := sqlite.NewStore(fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)", app.cfg.DatabaseFile))
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		app.db = db
	}

	if err := app.db.ApplyMigrations(); err != nil {
		_ = app.db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	n, err := app.db.Projections().CountProjections(context.Background())
	if err != nil {
		app.logger.Warn("could not count projections", slogx.Err(err))
	}
	app.logger.Info("database migrations applied successfully",
		"driver", app.cfg.DatabaseDriver, "projections", n)

	app.profiles = service.NewProfileService(app.db)
	return nil
}

// initBlacklist connects to the blacklist the auth service writes to.
// Without Redis nothing revoked elsewhere is visible here, so revoked tokens
// stay usable until they expire.
func (app *Application) initBlacklist() error {
	if app.cfg.RedisURL == "" {
		app.blacklist = blacklist.NewMemory()
		app.logger.Warn("AUTH_REDIS_URL not set, revocations from the auth service are not visible")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rdb, err := blacklist.NewRedis(ctx, app.cfg.RedisURL, "")
	if err != nil {
		return fmt.Errorf("failed to connect to redis blacklist: %w", err)
	}
	app.blacklist = rdb
	return nil
}

func (app *Application) initSync() {
	app.sync = syncer.NewHandler(app.db.Projections())

	if app.cfg.AMQPURL == "" {
		app.logger.Warn("USERS_AMQP_URL not set, projections will not be synced")
		return
	}

	c := eventbus.NewAMQPConsumer(app.cfg.AMQPURL, app.logger)
	c.HandlerTimeout = app.cfg.HandlerTimeout
	c.OnState = func(s string) { app.brokerState.Store(&s) }
	app.consumer = c
}

func (app *Application) startSync() {
	if app.consumer == nil {
		return
	}

	ctx, cancel := context.WithCancel(slogx.WithContext(context.Background(), app.logger))
	app.stopSync = cancel
	app.syncDone = make(chan struct{})

	go func() {
		defer close(app.syncDone)

		err := app.consumer.Consume(ctx, syncer.Subscription(app.cfg.Queue), app.sync.Handle)
		switch {
		case err == nil, errors.Is(err, context.Canceled):
		case errors.Is(err, eventbus.ErrBrokerUnavailable):
			app.logger.Error("message broker unreachable, serving reads without sync", slogx.Err(err))
		default:
			app.logger.Error("event consumer stopped", slogx.Err(err))
		}
	}()
}

func (app *Application) stopSyncAndWait() {
	if app.stopSync == nil {
		return
	}
	app.stopSync()
	<-app.syncDone
}

func (app *Application) brokerStatus() string {
	if app.consumer == nil {
		return "disabled"
	}
	if s := app.brokerState.Load(); s != nil {
		return *s
	}
	return eventbus.StateConnecting
}

func (app *Application) initHTTP() {
	router := usershttp.NewRouter(usershttp.Options{
		Verifier:     app.verifier,
		Blacklist:    app.blacklist,
		Profiles:     app.profiles,
		Database:     app.db,
		Logger:       app.logger,
		Version:      BuildVersion,
		BrokerStatus: app.brokerStatus,
	})

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
