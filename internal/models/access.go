package models

import "time"

// Access roles, in decreasing order of privilege
const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
	RoleViewer = "viewer"
)

// TreeAccess grants a user a role on one tree. The core trusts this as the
// single boundary check "may this caller mutate this tree".
type TreeAccess struct {
	ID        int64
	TreeID    int64
	UserID    int64
	Role      string // 'admin', 'editor' or 'viewer'
	GrantedAt time.Time
}

// CanEdit reports whether the role allows mutating the tree
func (a *TreeAccess) CanEdit() bool {
	return a.Role == RoleAdmin || a.Role == RoleEditor
}

// IsValidRole reports whether r is a known access role
func IsValidRole(r string) bool {
	return r == RoleAdmin || r == RoleEditor || r == RoleViewer
}
