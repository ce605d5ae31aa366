package models

import "time"

// Gender values for a member profile
const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "other"
)

// Member is a person-node within one family tree. A member may be pending
// (a placeholder created before the person has an account) or claimed
// (linked to a user). At most one claimed member per (tree, user) pair.
type Member struct {
	ID          int64
	TreeID      int64
	UserID      *int64 // nil while pending
	FirstName   string
	LastName    string
	DisplayName string
	Gender      string // 'male', 'female' or 'other'
	BirthDate   *time.Time
	DeathDate   *time.Time
	Bio         string
	ImageURL    string
	Email       string
	Phone       string
	IsPending   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Name returns the display name, falling back to "First Last"
func (m *Member) Name() string {
	if m.DisplayName != "" {
		return m.DisplayName
	}
	if m.LastName != "" {
		return m.FirstName + " " + m.LastName
	}
	return m.FirstName
}

// IsLinkedTo reports whether the member is claimed by the given user
func (m *Member) IsLinkedTo(userID int64) bool {
	return m.UserID != nil && *m.UserID == userID
}

// IsValidGender reports whether g is a known gender value
func IsValidGender(g string) bool {
	return g == GenderMale || g == GenderFemale || g == GenderOther
}

// MemberProfile carries the mutable profile fields used when creating or
// updating a member. Kept separate from Member so callers cannot touch
// lifecycle fields (UserID, IsPending) through a profile edit.
type MemberProfile struct {
	FirstName   string
	LastName    string
	DisplayName string
	Gender      string
	BirthDate   *time.Time
	DeathDate   *time.Time
	Bio         string
	ImageURL    string
	Email       string
	Phone       string
}
