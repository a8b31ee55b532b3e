package http

import (
	"context"
	"net/http"
	"time"

	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/authsdk"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/httpx"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/slogx"
)

// Pinger is a dependency readiness can ping.
type Pinger interface {
	Ping(ctx context.Context) error
}

const readyTimeout = 2 * time.Second

// ReadyzHandler godoc
//
//	@Summary		Readiness Check Endpoint
//	@Description	Readiness endpoint returning service health status and checks for critical dependencies
//	@Description	Reports the identity database and the token blacklist. Either failing returns 503.
//	@Description	The event broker is reported but never fails readiness: events are best effort.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	authsdk.HealthResponse	"status, uptime, version, checks - service not ready"
//	@Router			/readyz [get].
func ReadyzHandler(startTime time.Time, version string, db, blacklist, broker Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		checks := &authsdk.HealthChecks{
			Database:  pingCheck(ctx, "database", db),
			Blacklist: pingCheck(ctx, "blacklist", blacklist),
			Broker:    "disabled",
		}
		if broker != nil {
			checks.Broker = pingCheck(ctx, "broker", broker)
		}

		status, code := "ok", http.StatusOK
		if checks.Database != "ok" || checks.Blacklist != "ok" {
			status, code = "degraded", http.StatusServiceUnavailable
		}

		httpx.WriteJSON(w, code, authsdk.HealthResponse{
			Status:  status,
			Uptime:  time.Since(startTime).Round(time.Second).String(),
			Version: version,
			Checks:  checks,
		})
	}
}

// pingCheck returns "ok" or a short error marker. Details go to the log, not
// the unauthenticated response.
func pingCheck(ctx context.Context, name string, p Pinger) string {
	if err := p.Ping(ctx); err != nil {
		slogx.FromContext(ctx).Warn("readiness check failed", "check", name, slogx.Err(err))
		return "error"
	}
	return "ok"
}
