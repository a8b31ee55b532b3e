package httpx

import (
	"net/http"

	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/rbac"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/slogx"
)

// RequirePermission lets the request through when the principal holds at
// least one of perms. It must run after Authorize.
func RequirePermission(perms ...rbac.Permission) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFrom(r.Context())
			if !ok {
				reject(w, ErrTokenInvalid)
				return
			}
			if !rbac.HasAny(p, perms...) {
				Forbidden(w, r, perms...)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Forbidden logs the denied permission check and writes 403.
func Forbidden(w http.ResponseWriter, r *http.Request, perms ...rbac.Permission) {
	p, _ := PrincipalFrom(r.Context())
	slogx.FromContext(r.Context()).Info("permission denied",
		"role", p.Role,
		"required", perms,
	)
	ErrInsufficientPermission.WriteError(w)
}
