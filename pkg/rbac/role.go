package rbac

import (
	"context"
	"log/slog"
	"strings"

	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/metrics"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/slogx"
)

// Role is a named bundle of permissions assigned to an identity.
type Role string

const (
	RoleGuest          Role = "guest"
	RoleUser           Role = "user"
	RoleVoucherCreator Role = "voucher_creator"
	RoleModerator      Role = "moderator"
	RoleAdmin          Role = "admin"
	RoleSuperAdmin     Role = "SUPER_ADMIN"
)

// DefaultRole is assigned on registration and used when a stored role cannot
// be parsed. It is the lowest authenticated role.
const DefaultRole = RoleUser

// Roles lists every role from least to most privileged.
var Roles = []Role{RoleGuest, RoleUser, RoleVoucherCreator, RoleModerator, RoleAdmin, RoleSuperAdmin}

// layer adds delta on top of the permissions of base.
type layer struct {
	role  Role
	base  Role
	delta []Permission
}

// layers must be ordered so every base is defined before it is referenced.
var layers = []layer{
	{role: RoleGuest, delta: []Permission{ReadVouchers}},
	{role: RoleUser, base: RoleGuest, delta: []Permission{
		ReadOwnCart, ManageOwnCart, UpdateOwnProfile, ManageOwnSessions,
	}},
	{role: RoleVoucherCreator, base: RoleUser, delta: []Permission{
		CreateVouchers, UpdateOwnVouchers, DeleteOwnVouchers,
	}},
	{role: RoleModerator, base: RoleVoucherCreator, delta: []Permission{
		UpdateVouchers, DeleteVouchers, ViewAnalytics,
	}},
	{role: RoleAdmin, base: RoleModerator, delta: []Permission{
		ReadUsers, CreateUsers, UpdateUsers, DeleteUsers, AdminAccess, ManageAllSessions,
	}},
	// manage:system is held by the super admin only.
	{role: RoleSuperAdmin, base: RoleAdmin, delta: []Permission{ManageSystem}},
}

var table = buildTable(layers)

func buildTable(ls []layer) map[Role]PermissionSet {
	t := make(map[Role]PermissionSet, len(ls))
	for _, l := range ls {
		set := newPermissionSet(l.delta...)
		if l.base != "" {
			base, ok := t[l.base]
			if !ok {
				panic("rbac: layer " + string(l.role) + " references undefined base " + string(l.base))
			}
			set = base.clone()
			for _, p := range l.delta {
				set[p] = struct{}{}
			}
		}
		t[l.role] = set
	}
	return t
}

// ParseRole maps a stored role string to a Role. Matching is case-insensitive
// so "USER" and "super_admin" resolve. ok is false for unknown or empty input.
func ParseRole(s string) (Role, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if strings.EqualFold(s, string(RoleSuperAdmin)) {
		return RoleSuperAdmin, true
	}
	if r := Role(strings.ToLower(s)); r.Valid() {
		return r, true
	}
	return "", false
}

// RoleOf resolves a raw role value. Unknown or missing values degrade to
// DefaultRole instead of denying all access; each fallback is logged and
// counted so bad role data shows up on dashboards.
func RoleOf(ctx context.Context, raw string) Role {
	if r, ok := ParseRole(raw); ok {
		return r
	}

	slogx.FromContext(ctx).Warn("rbac: unknown role, falling back",
		slog.String("role", raw),
		slog.String("fallback", string(DefaultRole)),
	)
	metrics.RoleFallbacks.WithLabelValues(raw).Inc()
	return DefaultRole
}

// PermissionsOf returns the permission set for r. Unknown roles get an empty
// set; callers should resolve roles through RoleOf first.
func PermissionsOf(r Role) PermissionSet {
	if set, ok := table[r]; ok {
		return set
	}
	return PermissionSet{}
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	_, ok := table[r]
	return ok
}

func (r Role) String() string { return string(r) }
