package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"kintree/internal/models"
	"kintree/internal/repository"
)

// InvitationService issues invitations and merges accepted ones into the
// member lifecycle: an invitation carries prefill data for a pending
// member, and acceptance claims that member for the accepting account.
type InvitationService struct {
	invitationRepo *repository.InvitationRepository
	memberRepo     *repository.MemberRepository
	accessRepo     *repository.AccessRepository
	memberService  *MemberService
	emailService   *EmailService
	expiry         time.Duration
}

// NewInvitationService creates a new invitation service
func NewInvitationService(invitationRepo *repository.InvitationRepository, memberRepo *repository.MemberRepository,
	accessRepo *repository.AccessRepository, memberService *MemberService, emailService *EmailService,
	expiry time.Duration) *InvitationService {
	return &InvitationService{
		invitationRepo: invitationRepo,
		memberRepo:     memberRepo,
		accessRepo:     accessRepo,
		memberService:  memberService,
		emailService:   emailService,
		expiry:         expiry,
	}
}

// InviteMember invites a person by email to join a tree. A pending member
// is created from the profile prefill so relatives can attach
// relationships before the invitation is accepted. Email delivery is
// best-effort: a delivery failure does not roll back the invitation.
func (s *InvitationService) InviteMember(ctx context.Context, treeID int64, email, role string, profile models.MemberProfile, invitedBy int64) (*models.Invitation, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return nil, fmt.Errorf("%w: invitee email is required", ErrValidation)
	}
	if role == "" {
		role = models.RoleEditor
	}
	if !models.IsValidRole(role) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}

	if profile.Email == "" {
		profile.Email = email
	}
	member, err := s.memberService.AddMember(treeID, profile, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create pending member: %w", err)
	}

	invitation, err := s.invitationRepo.CreateInvitation(treeID, &member.ID, email, role, invitedBy, time.Now().Add(s.expiry))
	if err != nil {
		return nil, fmt.Errorf("failed to create invitation: %w", err)
	}

	if err := s.emailService.SendInvitationEmail(ctx, email, member.Name(), invitation.Token); err != nil {
		log.Printf("Warning: failed to send invitation email to %s: %v", email, err)
	}

	return invitation, nil
}

// AcceptInvitation claims the invited member for the accepting account and
// grants the invitation's role on the tree. When the invitation carries no
// pending member, one is matched by invitee email, or a claimed member is
// created from scratch. Accepting is idempotent for the same account.
func (s *InvitationService) AcceptInvitation(token string, userID int64) (*models.Member, error) {
	invitation, err := s.invitationRepo.GetByToken(token)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve invitation: %w", err)
	}
	if invitation == nil {
		return nil, ErrInvitationNotFound
	}

	if invitation.IsUsed() {
		// A retry by the same account resolves to the already-claimed member
		if invitation.UsedBy != nil && *invitation.UsedBy == userID && invitation.MemberID != nil {
			return s.memberService.GetMember(*invitation.MemberID)
		}
		return nil, ErrInvitationInvalid
	}
	if invitation.IsExpired() {
		return nil, ErrInvitationInvalid
	}

	member, err := s.resolveInvitedMember(invitation)
	if err != nil {
		return nil, err
	}

	if member != nil {
		member, err = s.memberService.Claim(member.ID, userID)
	} else {
		profile := models.MemberProfile{FirstName: invitation.Email, Email: invitation.Email}
		member, err = s.memberService.AddMember(invitation.TreeID, profile, &userID)
	}
	if err != nil {
		return nil, err
	}

	existing, err := s.accessRepo.GetAccess(invitation.TreeID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check access: %w", err)
	}
	if existing == nil {
		if err := s.accessRepo.GrantAccess(invitation.TreeID, userID, invitation.Role); err != nil {
			return nil, fmt.Errorf("failed to grant access: %w", err)
		}
	}

	if err := s.invitationRepo.MarkUsed(token, userID); err != nil {
		return nil, fmt.Errorf("failed to mark invitation used: %w", err)
	}

	return member, nil
}

// resolveInvitedMember finds the member an invitation should claim: the
// pending member created with it, or failing that a pending member whose
// profile email matches the invitee.
func (s *InvitationService) resolveInvitedMember(invitation *models.Invitation) (*models.Member, error) {
	if invitation.MemberID != nil {
		member, err := s.memberRepo.GetMemberByID(*invitation.MemberID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve invited member: %w", err)
		}
		if member != nil {
			return member, nil
		}
		// Placeholder was deleted since the invitation went out; fall
		// through to the email match
	}

	member, err := s.memberRepo.FindPendingByEmail(invitation.TreeID, invitation.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to match pending member: %w", err)
	}
	return member, nil
}

// ListTreeInvitations retrieves all invitations issued for a tree
func (s *InvitationService) ListTreeInvitations(treeID int64) ([]models.Invitation, error) {
	invitations, err := s.invitationRepo.ListTreeInvitations(treeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	return invitations, nil
}

// RevokeInvitation deletes an invitation issued for the given tree
func (s *InvitationService) RevokeInvitation(treeID, id int64) error {
	deleted, err := s.invitationRepo.DeleteInvitation(treeID, id)
	if err != nil {
		return fmt.Errorf("failed to revoke invitation: %w", err)
	}
	if !deleted {
		return ErrInvitationNotFound
	}
	return nil
}
