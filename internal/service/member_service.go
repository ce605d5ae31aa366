package service

import (
	"fmt"

	"kintree/internal/models"
	"kintree/internal/repository"
)

// MemberService governs the member lifecycle: pending placeholders, the
// claim transition that links a member to an account, and the relationship
// cascade on deletion. A claimed member never reverts to pending.
type MemberService struct {
	memberRepo *repository.MemberRepository
}

// NewMemberService creates a new member service
func NewMemberService(memberRepo *repository.MemberRepository) *MemberService {
	return &MemberService{memberRepo: memberRepo}
}

// AddMember creates a member in a tree. With a userID the member is
// created claimed; without one it is a pending placeholder. Relationships
// may be attached to pending members exactly as to claimed ones.
func (s *MemberService) AddMember(treeID int64, profile models.MemberProfile, userID *int64) (*models.Member, error) {
	if err := validateProfile(&profile); err != nil {
		return nil, err
	}

	if userID != nil {
		existing, err := s.memberRepo.GetMemberByTreeAndUser(treeID, *userID)
		if err != nil {
			return nil, fmt.Errorf("failed to check account membership: %w", err)
		}
		if existing != nil {
			return nil, fmt.Errorf("%w: account %d is member %d", ErrAccountAlreadyInTree, *userID, existing.ID)
		}
	}

	member, err := s.memberRepo.CreateMember(treeID, profile, userID, userID == nil)
	if err != nil {
		return nil, fmt.Errorf("failed to add member: %w", err)
	}
	return member, nil
}

// GetMember retrieves a member by ID
func (s *MemberService) GetMember(memberID int64) (*models.Member, error) {
	member, err := s.memberRepo.GetMemberByID(memberID)
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	if member == nil {
		return nil, fmt.Errorf("%w: %d", ErrMemberNotFound, memberID)
	}
	return member, nil
}

// UpdateMember updates a member's profile fields
func (s *MemberService) UpdateMember(memberID int64, profile models.MemberProfile) (*models.Member, error) {
	if _, err := s.GetMember(memberID); err != nil {
		return nil, err
	}
	if err := validateProfile(&profile); err != nil {
		return nil, err
	}
	if err := s.memberRepo.UpdateProfile(memberID, profile); err != nil {
		return nil, fmt.Errorf("failed to update member: %w", err)
	}
	return s.GetMember(memberID)
}

// Claim links a member to an account and clears the pending flag. The
// transition is idempotent under retry: claiming an already-claimed member
// with the same account is a no-op, while a different account is a
// conflict that must be resolved manually, never silently merged.
func (s *MemberService) Claim(memberID, userID int64) (*models.Member, error) {
	member, err := s.GetMember(memberID)
	if err != nil {
		return nil, err
	}

	if !member.IsPending {
		if member.IsLinkedTo(userID) {
			return member, nil
		}
		claimedBy := int64(0)
		if member.UserID != nil {
			claimedBy = *member.UserID
		}
		return nil, &ClaimConflictError{
			MemberID:        memberID,
			ClaimedByUserID: claimedBy,
			RequestedUserID: userID,
		}
	}

	// One claimed member per (tree, account)
	existing, err := s.memberRepo.GetMemberByTreeAndUser(member.TreeID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check account membership: %w", err)
	}
	if existing != nil && existing.ID != memberID {
		return nil, fmt.Errorf("%w: account %d is member %d", ErrAccountAlreadyInTree, userID, existing.ID)
	}

	if err := s.memberRepo.ClaimMember(memberID, userID); err != nil {
		return nil, fmt.Errorf("failed to claim member: %w", err)
	}

	member.UserID = &userID
	member.IsPending = false
	return member, nil
}

// DeleteMember removes a member and every relationship edge referencing
// it, atomically, so the graph never holds dangling edges.
func (s *MemberService) DeleteMember(memberID int64) error {
	if _, err := s.GetMember(memberID); err != nil {
		return err
	}
	if err := s.memberRepo.DeleteMemberCascade(memberID); err != nil {
		return fmt.Errorf("failed to delete member: %w", err)
	}
	return nil
}

// validateProfile normalizes and validates profile fields shared by
// create and update
func validateProfile(profile *models.MemberProfile) error {
	if profile.FirstName == "" {
		return fmt.Errorf("%w: first name is required", ErrValidation)
	}
	if profile.Gender == "" {
		profile.Gender = models.GenderOther
	}
	if !models.IsValidGender(profile.Gender) {
		return fmt.Errorf("%w: %q", ErrInvalidGender, profile.Gender)
	}
	return nil
}
