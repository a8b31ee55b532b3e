package httpx

import (
	"errors"
	"net/http"
	"strings"

	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/blacklist"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/jwtx"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/metrics"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/rbac"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/slogx"
)

// Authorize establishes identity for the request. It verifies the bearer
// token, rejects blacklisted tokens and attaches the principal to the context.
// It makes no permission decisions; see RequirePermission and
// rbac.CanAccessResource for those.
//
// A blacklist that cannot be reached fails closed with 503: a revoked token
// must never be accepted because the revocation store is down.
func Authorize(v jwtx.Verifier, bl blacklist.Blacklist) Middleware {
	return authorize(v, bl, false)
}

// OptionalAuthorize behaves like Authorize when a bearer token is present and
// valid, and otherwise passes the request through anonymously. A blacklist
// outage does not fail the request: the verified principal is attached anyway.
// Only routes that revoke credentials, such as logout, may use it.
func OptionalAuthorize(v jwtx.Verifier, bl blacklist.Blacklist) Middleware {
	return authorize(v, bl, true)
}

func authorize(v jwtx.Verifier, bl blacklist.Blacklist, optional bool) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			raw, ok := bearerToken(r)
			if !ok {
				if optional {
					next.ServeHTTP(w, r)
					return
				}
				reject(w, ErrTokenInvalid)
				return
			}

			claims, err := v.Verify(raw)
			if err != nil {
				if optional {
					next.ServeHTTP(w, r)
					return
				}
				if errors.Is(err, jwtx.ErrExpired) {
					reject(w, ErrTokenExpired)
					return
				}
				log.Warn("jwt verify failed", slogx.Err(err))
				reject(w, ErrTokenInvalid)
				return
			}

			revoked, err := bl.Contains(ctx, raw)
			switch {
			case err != nil && optional:
				log.Warn("blacklist lookup failed, continuing", slogx.Err(err))
			case err != nil:
				log.Error("blacklist lookup failed", slogx.Err(err))
				metrics.AuthFailures.WithLabelValues(CodeDependencyUnavailable).Inc()
				ErrDependencyUnavailable.WriteError(w)
				return
			case revoked:
				if optional {
					next.ServeHTTP(w, r)
					return
				}
				reject(w, ErrTokenRevoked)
				return
			}

			ctx = slogx.With(ctx, "user_id", claims.UserID)
			p := rbac.NewPrincipal(ctx, claims.UserID, claims.Username, claims.Role)
			ctx = WithPrincipal(ctx, p, claims, raw)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// reject writes a 401 with an RFC 6750 style challenge plus the JSON body.
func reject(w http.ResponseWriter, e *APIError) {
	metrics.AuthFailures.WithLabelValues(e.Code).Inc()
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+e.Code+`"`)
	e.WriteError(w)
}
