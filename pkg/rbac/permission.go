package rbac

import (
	"slices"
)

// Permission is an action a principal may perform, written as verb:resource.
type Permission string

// User management.
const (
	ReadUsers        Permission = "read:users"
	CreateUsers      Permission = "create:users"
	UpdateUsers      Permission = "update:users"
	DeleteUsers      Permission = "delete:users"
	UpdateOwnProfile Permission = "update:own_profile"
)

// Voucher management.
const (
	ReadVouchers      Permission = "read:vouchers"
	CreateVouchers    Permission = "create:vouchers"
	UpdateVouchers    Permission = "update:vouchers"
	DeleteVouchers    Permission = "delete:vouchers"
	UpdateOwnVouchers Permission = "update:own_vouchers"
	DeleteOwnVouchers Permission = "delete:own_vouchers"
)

// Cart.
const (
	ReadOwnCart   Permission = "read:own_cart"
	ManageOwnCart Permission = "manage:own_cart"
)

// Administration.
const (
	AdminAccess   Permission = "admin:access"
	ManageSystem  Permission = "manage:system"
	ViewAnalytics Permission = "view:analytics"
)

// Sessions.
const (
	ManageOwnSessions Permission = "manage:own_sessions"
	ManageAllSessions Permission = "manage:all_sessions"
)

// AllPermissions is the full permission universe.
var AllPermissions = []Permission{
	ReadUsers, CreateUsers, UpdateUsers, DeleteUsers, UpdateOwnProfile,
	ReadVouchers, CreateVouchers, UpdateVouchers, DeleteVouchers, UpdateOwnVouchers, DeleteOwnVouchers,
	ReadOwnCart, ManageOwnCart,
	AdminAccess, ManageSystem, ViewAnalytics,
	ManageOwnSessions, ManageAllSessions,
}

// PermissionSet is an immutable set of permissions. Lookups are O(1).
type PermissionSet map[Permission]struct{}

func newPermissionSet(perms ...Permission) PermissionSet {
	s := make(PermissionSet, len(perms))
	for _, p := range perms {
		s[p] = struct{}{}
	}
	return s
}

// Has reports whether p is in the set.
func (s PermissionSet) Has(p Permission) bool {
	_, ok := s[p]
	return ok
}

// Contains reports whether every permission of other is also in s.
func (s PermissionSet) Contains(other PermissionSet) bool {
	for p := range other {
		if !s.Has(p) {
			return false
		}
	}
	return true
}

// Slice returns the permissions sorted lexically, for stable output.
func (s PermissionSet) Slice() []Permission {
	out := make([]Permission, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

// Strings is Slice as plain strings, for claims and JSON payloads.
func (s PermissionSet) Strings() []string {
	perms := s.Slice()
	out := make([]string, len(perms))
	for i, p := range perms {
		out[i] = string(p)
	}
	return out
}

func (s PermissionSet) clone() PermissionSet {
	out := make(PermissionSet, len(s))
	for p := range s {
		out[p] = struct{}{}
	}
	return out
}
