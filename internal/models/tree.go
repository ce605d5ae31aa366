package models

import "time"

// Privacy levels for a family tree
const (
	PrivacyPublic  = "public"
	PrivacyPrivate = "private"
	PrivacyShared  = "shared"
)

// FamilyTree is the scoping boundary for members, relationships, access
// grants and invitations. Deleting a tree cascades to everything below it.
type FamilyTree struct {
	ID          int64
	Name        string
	Description string
	OwnerUserID int64
	Privacy     string // 'public', 'private' or 'shared'
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsValidPrivacy reports whether p is a known privacy level
func IsValidPrivacy(p string) bool {
	return p == PrivacyPublic || p == PrivacyPrivate || p == PrivacyShared
}

// TreeWithNodes combines a tree with its projected member nodes
type TreeWithNodes struct {
	Tree  FamilyTree
	Nodes []*TreeNode
}
