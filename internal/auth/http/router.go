package http

import (
	"log/slog"
	"net/http"
	"time"

	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/tdmidas/NT219-Project-Cloud-API-Security/api/auth" // Swagger docs
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/internal/auth/service"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/internal/auth/store"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/blacklist"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/httpx"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/jwtx"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/metrics"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/rbac"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     jwtx.Verifier
	blacklist    blacklist.Blacklist
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store          store.Store
	TokenService   *service.TokenService
	UserService    *service.UserService
	SessionService *service.SessionService

	// Broker is pinged by /readyz when events go to a real broker. Nil
	// reports "disabled".
	Broker Pinger

	// SecureCookies marks the refresh cookie Secure. Off only for local
	// plain-HTTP development.
	SecureCookies bool
}

func NewRouter(
	verifier jwtx.Verifier,
	bl blacklist.Blacklist,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		blacklist:    bl,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Set default middleware chain. Instrument runs inside the logger so it
	// sees the request the mux fills the matched pattern into.
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		metrics.Instrument(func(req *http.Request) string { return req.Pattern }),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerAccount()
	r.registerSessions()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Identity Service API
//	@version		1.0.0
//	@description	Registration, login, token refresh and session management.
//	@description
//	@description				Access tokens are HS256 JWTs valid for 45 seconds. Refresh tokens are opaque and stored by fingerprint.
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) authorize() httpx.Middleware {
	return httpx.Authorize(r.verifier, r.blacklist)
}

func (r *Router) registerAuth() {
	// POST /register and /login - strict rate limit by IP (credential guessing)
	r.Mux.Handle("POST /v1/auth/register",
		httpx.Chain(&RegisterHandler{UserService: r.UserService},
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/auth/login",
		httpx.Chain(&LoginHandler{TokenService: r.TokenService, SecureCookies: r.SecureCookies},
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /refresh - moderate rate limit by IP (clients refresh every 45s)
	r.Mux.Handle("POST /v1/auth/refresh",
		httpx.Chain(&RefreshHandler{TokenService: r.TokenService, SecureCookies: r.SecureCookies},
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	// POST /logout - bearer optional
	r.Mux.Handle("POST /v1/auth/logout",
		httpx.Chain(&LogoutHandler{TokenService: r.TokenService, SecureCookies: r.SecureCookies},
			httpx.OptionalAuthorize(r.verifier, r.blacklist),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerAccount() {
	r.Mux.Handle("POST /v1/auth/password",
		httpx.Chain(&PasswordHandler{UserService: r.UserService, SecureCookies: r.SecureCookies},
			r.authorize(),
			httpx.RateLimitByUser(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("GET /v1/auth/me",
		httpx.Chain(&MeHandler{UserService: r.UserService},
			r.authorize(),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)

	r.Mux.Handle("GET /v1/auth/rbac",
		httpx.Chain(RBACInfoHandler(),
			r.authorize(),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)

	// GET /verify - gateways call this per request, lenient limit
	r.Mux.Handle("GET /v1/auth/verify",
		httpx.Chain(VerifyHandler(),
			r.authorize(),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerSessions() {
	h := &SessionsHandler{SessionService: r.SessionService}

	r.Mux.Handle("GET /v1/auth/sessions",
		httpx.Chain(http.HandlerFunc(h.HandleOwn),
			r.authorize(),
			httpx.RequirePermission(rbac.ManageOwnSessions),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)

	r.Mux.Handle("GET /v1/auth/sessions/all",
		httpx.Chain(http.HandlerFunc(h.HandleAll),
			r.authorize(),
			httpx.RequirePermission(rbac.ManageAllSessions),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)

	// Ownership is checked in the handler against the {id} path value.
	r.Mux.Handle("GET /v1/auth/users/{id}/sessions",
		httpx.Chain(http.HandlerFunc(h.HandleList),
			r.authorize(),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("DELETE /v1/auth/users/{id}/sessions",
		httpx.Chain(http.HandlerFunc(h.HandleRevoke),
			r.authorize(),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.blacklist, r.Broker),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /metrics", metrics.Handler())
}
