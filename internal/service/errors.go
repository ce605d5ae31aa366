package service

import (
	"errors"
	"fmt"
)

// Validation errors: rejected before any store write, recoverable by the
// caller fixing its input.
var (
	// ErrValidation wraps input-shape rejections that have no sentinel of
	// their own (missing names, short passwords)
	ErrValidation = errors.New("invalid input")

	ErrSelfRelationship        = errors.New("a member cannot have a relationship with themselves")
	ErrUnknownRelationshipType = errors.New("unknown relationship type")
	ErrMembersInDifferentTrees = errors.New("both members must belong to the same tree")
	ErrInvalidPrivacy          = errors.New("invalid privacy level")
	ErrInvalidGender           = errors.New("invalid gender")
	ErrInvalidRole             = errors.New("invalid access role")
)

// Not-found errors
var (
	ErrTreeNotFound         = errors.New("tree not found")
	ErrMemberNotFound       = errors.New("member not found")
	ErrRelationshipNotFound = errors.New("relationship not found")
	ErrInvitationNotFound   = errors.New("invitation not found")
	ErrUserNotFound         = errors.New("user not found")
)

// Conflict errors
var (
	// ErrRelationshipCycle is returned when cycle rejection is enabled and
	// a parent/child edge would close an ancestry loop
	ErrRelationshipCycle = errors.New("relationship would create an ancestry cycle")

	// ErrAccountAlreadyInTree is returned when a user already appears as a
	// claimed member of the tree
	ErrAccountAlreadyInTree = errors.New("account already linked to a member of this tree")

	ErrNotTreeMember      = errors.New("user has no access to this tree")
	ErrInvitationInvalid  = errors.New("invitation is expired or already used")
	ErrInvitationMismatch = errors.New("invitation was issued for a different email address")
)

// ClaimConflictError signals that a member is already claimed by a
// different account. This is never silently merged; it carries the ids the
// caller needs to surface the conflict.
type ClaimConflictError struct {
	MemberID        int64
	ClaimedByUserID int64
	RequestedUserID int64
}

func (e *ClaimConflictError) Error() string {
	return fmt.Sprintf("member %d is already claimed by account %d (requested account %d)",
		e.MemberID, e.ClaimedByUserID, e.RequestedUserID)
}

// IsClaimConflict reports whether err is a claim conflict
func IsClaimConflict(err error) bool {
	var conflict *ClaimConflictError
	return errors.As(err, &conflict)
}
