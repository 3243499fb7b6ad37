package authz

import (
	"context"
	"errors"
)

// Domain errors
var (
	ErrRoleNotFound = errors.New("role not found")
	ErrNotFound     = errors.New("role registry not found in store")
	ErrNoRegistry   = errors.New("permission check without a role registry")
)

// Role is a named bundle of permissions.
type Role struct {
	ID          RoleID       `json:"id" yaml:"id"`
	Name        string       `json:"name" yaml:"name"`
	Permissions []Permission `json:"permissions" yaml:"permissions"`
}

// HasPermission checks if the role grants a specific permission
func (r *Role) HasPermission(permission Permission) bool {
	for _, p := range r.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

func (r Role) clone() Role {
	perms := make([]Permission, len(r.Permissions))
	copy(perms, r.Permissions)
	r.Permissions = perms
	return r
}

// User is the part of an authenticated user the permission model reads.
// Roles is always a normalised array; the first entry is the primary role.
type User struct {
	ID             string   `json:"id"`
	Name           string   `json:"name,omitempty"`
	MunicipalityID string   `json:"municipality_id,omitempty"`
	Roles          []RoleID `json:"roles"`
}

// PrimaryRole returns the first role id, or "" when the user has none.
func (u *User) PrimaryRole() RoleID {
	if u == nil || len(u.Roles) == 0 {
		return ""
	}
	return u.Roles[0]
}

// HasRole reports whether id is among the user's roles.
func (u *User) HasRole(id RoleID) bool {
	if u == nil {
		return false
	}
	for _, r := range u.Roles {
		if r == id {
			return true
		}
	}
	return false
}

// Store persists the serialized role registry as a single blob.
type Store interface {
	// Load returns the stored blob, or ErrNotFound when nothing was saved yet
	Load(ctx context.Context) ([]byte, error)

	// Save replaces the stored blob
	Save(ctx context.Context, data []byte) error
}
