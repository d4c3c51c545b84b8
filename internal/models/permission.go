package models

import (
	"fmt"
	"strings"
)

// Permission is a capability tag gating one section of the dashboard.
type Permission string

const (
	PermDashboard         Permission = "dashboard"
	PermProducts          Permission = "products"
	PermSales             Permission = "sales"
	PermReports           Permission = "reports"
	PermCustomers         Permission = "customers"
	PermMaterials         Permission = "materials"
	PermServices          Permission = "services"
	PermExpenses          Permission = "expenses"
	PermProduction        Permission = "production"
	PermMarketplaceOrders Permission = "marketplace-orders"
	PermSuppliers         Permission = "suppliers"
	PermEmployees         Permission = "employees"
	PermInvoices          Permission = "invoices"
	PermAssets            Permission = "assets"
)

var allPermissions = []Permission{
	PermDashboard, PermProducts, PermSales, PermReports, PermCustomers, PermMaterials, PermServices,
	PermExpenses, PermProduction, PermMarketplaceOrders, PermSuppliers, PermEmployees, PermInvoices, PermAssets,
}

// AllPermissions returns every known permission in declaration order.
func AllPermissions() []Permission {
	out := make([]Permission, len(allPermissions))
	copy(out, allPermissions)
	return out
}

// Valid reports whether p belongs to the closed permission set.
func (p Permission) Valid() bool {
	for _, known := range allPermissions {
		if p == known {
			return true
		}
	}
	return false
}

// ParsePermission converts s to a [Permission], rejecting unknown tags.
func ParsePermission(s string) (Permission, error) {
	p := Permission(strings.TrimSpace(s))
	if !p.Valid() {
		return "", fmt.Errorf("unknown permission %q", s)
	}
	return p, nil
}

// EntityForPermission returns the backend entity name that backs the section gated by p.
//
// Backend tables use snake_case, so "marketplace-orders" maps to "marketplace_orders".
func EntityForPermission(p Permission) string {
	return strings.ReplaceAll(string(p), "-", "_")
}

// HasRecords reports whether the section gated by p is backed by a backend entity.
// The dashboard and reports sections only aggregate other entities.
func (p Permission) HasRecords() bool {
	return p.Valid() && p != PermDashboard && p != PermReports
}

// Title is the display name of the section gated by p: "marketplace-orders" becomes "Marketplace Orders".
func (p Permission) Title() string {
	words := strings.Split(string(p), "-")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// PermissionSet is an unordered set of permissions.
type PermissionSet map[Permission]struct{}

// NewPermissionSet builds a set from ps.
func NewPermissionSet(ps ...Permission) PermissionSet {
	set := make(PermissionSet, len(ps))
	for _, p := range ps {
		set[p] = struct{}{}
	}
	return set
}

// Has reports membership.
func (s PermissionSet) Has(p Permission) bool {
	_, ok := s[p]
	return ok
}

// Slice returns the members in declaration order.
func (s PermissionSet) Slice() []Permission {
	out := make([]Permission, 0, len(s))
	for _, p := range allPermissions {
		if s.Has(p) {
			out = append(out, p)
		}
	}
	return out
}

// Role is the coarse user class returned by the backend.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// ParseRole maps the backend's role string; anything other than "admin" is a plain user.
func ParseRole(s string) Role {
	if Role(s) == RoleAdmin {
		return RoleAdmin
	}
	return RoleUser
}

// User is the authenticated account held by the session.
type User struct {
	Username    string
	Role        Role
	Permissions PermissionSet
}

// NewUser maps the backend's raw user payload. Unknown permission tags are dropped.
func NewUser(username, role string, permissions []string) User {
	set := make(PermissionSet, len(permissions))
	for _, raw := range permissions {
		if p, err := ParsePermission(raw); err == nil {
			set[p] = struct{}{}
		}
	}
	return User{Username: username, Role: ParseRole(role), Permissions: set}
}

// IsAdmin reports whether u holds the admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Can reports whether u may access the section gated by p. Admins can access everything.
func (u User) Can(p Permission) bool {
	if u.IsAdmin() {
		return true
	}
	return u.Permissions.Has(p)
}

// Effective returns every permission u actually holds.
func (u User) Effective() []Permission {
	if u.IsAdmin() {
		return AllPermissions()
	}
	return u.Permissions.Slice()
}
