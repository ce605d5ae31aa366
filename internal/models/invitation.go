package models

import "time"

// Invitation invites a person by email to claim a (usually pending) member
// of a tree. MemberID points at the pending member created alongside the
// invitation; it is nil when the invitation was issued without a placeholder.
type Invitation struct {
	ID        int64
	TreeID    int64
	MemberID  *int64
	Token     string
	Email     string
	Role      string // access role granted on acceptance
	InvitedBy int64
	CreatedAt time.Time
	ExpiresAt time.Time
	UsedAt    *time.Time
	UsedBy    *int64
}

func (i *Invitation) IsExpired() bool {
	return time.Now().After(i.ExpiresAt)
}

func (i *Invitation) IsUsed() bool {
	return i.UsedAt != nil
}

func (i *Invitation) IsValid() bool {
	return !i.IsExpired() && !i.IsUsed()
}
