package rbac

import "context"

// Principal is the authenticated caller attached to an authorized request.
type Principal struct {
	ID          string   `json:"id"`
	Username    string   `json:"username"`
	Role        Role     `json:"rbac_role"`
	Permissions []string `json:"permissions"`

	perms PermissionSet
}

// NewPrincipal resolves rawRole (with fallback) and expands its permissions.
func NewPrincipal(ctx context.Context, id, username, rawRole string) Principal {
	role := RoleOf(ctx, rawRole)
	perms := PermissionsOf(role)
	return Principal{
		ID:          id,
		Username:    username,
		Role:        role,
		Permissions: perms.Strings(),
		perms:       perms,
	}
}

func (p Principal) permissionSet() PermissionSet {
	if p.perms != nil {
		return p.perms
	}
	return PermissionsOf(p.Role)
}

// Has reports whether the principal holds perm.
func Has(p Principal, perm Permission) bool {
	return p.permissionSet().Has(perm)
}

// HasAny reports whether the principal holds at least one of perms.
func HasAny(p Principal, perms ...Permission) bool {
	set := p.permissionSet()
	for _, perm := range perms {
		if set.Has(perm) {
			return true
		}
	}
	return false
}

// CanAccessResource grants access when the principal holds permission
// outright, or holds ownershipPermission and owns the resource. Evaluate per
// request; ownership is not part of the role table.
func CanAccessResource(p Principal, ownerID string, permission, ownershipPermission Permission) bool {
	set := p.permissionSet()
	if set.Has(permission) {
		return true
	}
	return ownershipPermission != "" &&
		set.Has(ownershipPermission) &&
		p.ID != "" &&
		ownerID == p.ID
}
