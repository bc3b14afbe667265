package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleSuperAdmin   UserRole = "SUPERADMIN"
	RoleDioceseAdmin UserRole = "DIOCESE_ADMIN"
	RoleChurchAdmin  UserRole = "CHURCH_ADMIN"
	RoleServant      UserRole = "SERVANT"
	RoleParent       UserRole = "PARENT"
)

// ValidRole reports whether the raw value names a known role.
func ValidRole(raw string) bool {
	switch UserRole(raw) {
	case RoleSuperAdmin, RoleDioceseAdmin, RoleChurchAdmin, RoleServant, RoleParent:
		return true
	default:
		return false
	}
}

// AdminRoles lists the roles allowed to manage announcements and rosters.
func AdminRoles() []UserRole {
	return []UserRole{RoleSuperAdmin, RoleDioceseAdmin, RoleChurchAdmin}
}

// User represents an application user stored in the users table.
type User struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FullName     string     `db:"full_name" json:"full_name"`
	Role         UserRole   `db:"role" json:"role"`
	ChurchID     *string    `db:"church_id" json:"church_id,omitempty"`
	DioceseID    *string    `db:"diocese_id" json:"diocese_id,omitempty"`
	Active       bool       `db:"active" json:"active"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role      *UserRole
	Active    *bool
	ChurchID  string
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
