package httpx

import (
	"context"

	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/jwtx"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/rbac"
)

type ctxKey string

const (
	CtxKeyPrincipal ctxKey = "principal"
	CtxKeyClaims    ctxKey = "claims"
	CtxKeyToken     ctxKey = "bearer_token"
)

// PrincipalFrom returns the principal attached by Authorize.
func PrincipalFrom(ctx context.Context) (rbac.Principal, bool) {
	p, ok := ctx.Value(CtxKeyPrincipal).(rbac.Principal)
	return p, ok
}

// ClaimsFrom returns the verified access-token claims.
func ClaimsFrom(ctx context.Context) (jwtx.Claims, bool) {
	c, ok := ctx.Value(CtxKeyClaims).(jwtx.Claims)
	return c, ok
}

// BearerFrom returns the raw access token the request was authorized with.
func BearerFrom(ctx context.Context) (string, bool) {
	t, ok := ctx.Value(CtxKeyToken).(string)
	return t, ok && t != ""
}

// WithPrincipal attaches an authenticated identity to ctx.
func WithPrincipal(ctx context.Context, p rbac.Principal, c jwtx.Claims, token string) context.Context {
	ctx = context.WithValue(ctx, CtxKeyPrincipal, p)
	ctx = context.WithValue(ctx, CtxKeyClaims, c)
	ctx = context.WithValue(ctx, CtxKeyToken, token)
	return ctx
}
