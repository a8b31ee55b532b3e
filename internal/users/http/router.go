// Package http exposes the user service's profile API on a chi router.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/tdmidas/NT219-Project-Cloud-API-Security/internal/users/service"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/authsdk"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/blacklist"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/httpx"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/jwtx"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/metrics"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/slogx"
)

// Pinger is a dependency readiness can ping.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options are the router's dependencies.
type Options struct {
	Verifier  jwtx.Verifier
	Blacklist blacklist.Blacklist
	Profiles  *service.ProfileService
	Database  Pinger
	Logger    *slog.Logger
	Version   string

	// BrokerStatus reports the event consumer state for /readyz. Nil means
	// sync is disabled. The broker never fails readiness: reads keep
	// working while sync catches up.
	BrokerStatus func() string
}

const readyTimeout = 2 * time.Second

// NewRouter builds the handler tree.
func NewRouter(o Options) http.Handler {
	start := time.Now()
	if o.Logger == nil {
		o.Logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer,
		slogx.HTTPMiddleware(o.Logger),
		metrics.Instrument(routePattern),
	)

	h := &ProfilesHandler{Profiles: o.Profiles}

	r.Route("/v1/users/{id}", func(r chi.Router) {
		r.Use(
			httpx.Authorize(o.Verifier, o.Blacklist),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		)
		r.Get("/", h.Get)
		r.Patch("/profile", h.UpdateProfile)
	})

	r.Group(func(r chi.Router) {
		r.Use(httpx.RateLimitByIP(httpx.LenientLimit))
		r.Get("/livez", livez(start, o.Version))
		r.Get("/readyz", readyz(start, o.Version, o))
	})
	r.Handle("/metrics", metrics.Handler())

	return r
}

func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		return rc.RoutePattern()
	}
	return ""
}

func livez(start time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, authsdk.HealthResponse{
			Status:  "ok",
			Uptime:  time.Since(start).Round(time.Second).String(),
			Version: version,
		})
	}
}

func readyz(start time.Time, version string, o Options) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		checks := &authsdk.HealthChecks{
			Database:  pingCheck(ctx, "database", o.Database),
			Blacklist: pingCheck(ctx, "blacklist", o.Blacklist),
			Broker:    "disabled",
		}
		if o.BrokerStatus != nil {
			checks.Broker = o.BrokerStatus()
		}

		status, code := "ok", http.StatusOK
		if checks.Database != "ok" || checks.Blacklist != "ok" {
			status, code = "degraded", http.StatusServiceUnavailable
		}

		httpx.WriteJSON(w, code, authsdk.HealthResponse{
			Status:  status,
			Uptime:  time.Since(start).Round(time.Second).String(),
			Version: version,
			Checks:  checks,
		})
	}
}

func pingCheck(ctx context.Context, name string, p Pinger) string {
	if err := p.Ping(ctx); err != nil {
		slogx.FromContext(ctx).Warn("readiness check failed", "check", name, slogx.Err(err))
		return "error"
	}
	return "ok"
}
