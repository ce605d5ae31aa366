package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"kintree/internal/models"
)

func TestInviteMemberCreatesPendingMember(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "owner@example.com")
	tree := env.createTree(t, owner)

	invitation, err := env.invitations.InviteMember(context.Background(), tree.ID,
		"Aunt@Example.com", "", models.MemberProfile{FirstName: "Aunt"}, owner.ID)
	if err != nil {
		t.Fatalf("InviteMember failed: %v", err)
	}

	if invitation.Email != "aunt@example.com" {
		t.Errorf("invitation email = %q, want normalized %q", invitation.Email, "aunt@example.com")
	}
	if invitation.Role != models.RoleEditor {
		t.Errorf("invitation role = %q, want default %q", invitation.Role, models.RoleEditor)
	}
	if invitation.Token == "" {
		t.Error("invitation has no token")
	}
	if invitation.MemberID == nil {
		t.Fatal("invitation carries no pending member")
	}

	member, err := env.members.GetMember(*invitation.MemberID)
	if err != nil {
		t.Fatalf("GetMember failed: %v", err)
	}
	if !member.IsPending {
		t.Error("invited member should be pending until accepted")
	}
	if member.Email != "aunt@example.com" {
		t.Errorf("member email = %q, want invitee email", member.Email)
	}
}

func TestInviteMemberRejectsBadRole(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "owner@example.com")
	tree := env.createTree(t, owner)

	_, err := env.invitations.InviteMember(context.Background(), tree.ID,
		"x@example.com", "overlord", models.MemberProfile{FirstName: "X"}, owner.ID)
	if !errors.Is(err, ErrInvalidRole) {
		t.Errorf("error = %v, want ErrInvalidRole", err)
	}
}

func TestAcceptInvitationClaimsMemberAndGrantsAccess(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "owner@example.com")
	tree := env.createTree(t, owner)
	invitee := env.createUser(t, "aunt@example.com")

	invitation, err := env.invitations.InviteMember(context.Background(), tree.ID,
		"aunt@example.com", models.RoleViewer, models.MemberProfile{FirstName: "Aunt"}, owner.ID)
	if err != nil {
		t.Fatalf("InviteMember failed: %v", err)
	}

	member, err := env.invitations.AcceptInvitation(invitation.Token, invitee.ID)
	if err != nil {
		t.Fatalf("AcceptInvitation failed: %v", err)
	}
	if member.ID != *invitation.MemberID {
		t.Errorf("accepted member %d, want the pending member %d", member.ID, *invitation.MemberID)
	}
	if member.IsPending || !member.IsLinkedTo(invitee.ID) {
		t.Errorf("member pending=%v userID=%v after accept", member.IsPending, member.UserID)
	}

	access, err := env.accessRepo.GetAccess(tree.ID, invitee.ID)
	if err != nil {
		t.Fatalf("GetAccess failed: %v", err)
	}
	if access == nil {
		t.Fatal("no access granted on accept")
	}
	if access.Role != models.RoleViewer {
		t.Errorf("granted role = %q, want %q", access.Role, models.RoleViewer)
	}
}

func TestAcceptInvitationIdempotentForSameAccount(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "owner@example.com")
	tree := env.createTree(t, owner)
	invitee := env.createUser(t, "aunt@example.com")

	invitation, err := env.invitations.InviteMember(context.Background(), tree.ID,
		"aunt@example.com", "", models.MemberProfile{FirstName: "Aunt"}, owner.ID)
	if err != nil {
		t.Fatalf("InviteMember failed: %v", err)
	}

	first, err := env.invitations.AcceptInvitation(invitation.Token, invitee.ID)
	if err != nil {
		t.Fatalf("first accept failed: %v", err)
	}
	second, err := env.invitations.AcceptInvitation(invitation.Token, invitee.ID)
	if err != nil {
		t.Fatalf("repeated accept failed: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("repeated accept resolved member %d, want %d", second.ID, first.ID)
	}
}

func TestAcceptInvitationUsedByAnotherAccount(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "owner@example.com")
	tree := env.createTree(t, owner)
	first := env.createUser(t, "first@example.com")
	second := env.createUser(t, "second@example.com")

	invitation, err := env.invitations.InviteMember(context.Background(), tree.ID,
		"aunt@example.com", "", models.MemberProfile{FirstName: "Aunt"}, owner.ID)
	if err != nil {
		t.Fatalf("InviteMember failed: %v", err)
	}

	if _, err := env.invitations.AcceptInvitation(invitation.Token, first.ID); err != nil {
		t.Fatalf("first accept failed: %v", err)
	}
	_, err = env.invitations.AcceptInvitation(invitation.Token, second.ID)
	if !errors.Is(err, ErrInvitationInvalid) {
		t.Errorf("error = %v, want ErrInvitationInvalid", err)
	}
}

func TestAcceptExpiredInvitation(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "owner@example.com")
	tree := env.createTree(t, owner)
	invitee := env.createUser(t, "late@example.com")

	invitation, err := env.invitationRepo.CreateInvitation(tree.ID, nil,
		"late@example.com", models.RoleEditor, owner.ID, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("CreateInvitation failed: %v", err)
	}

	_, err = env.invitations.AcceptInvitation(invitation.Token, invitee.ID)
	if !errors.Is(err, ErrInvitationInvalid) {
		t.Errorf("error = %v, want ErrInvitationInvalid", err)
	}
}

func TestAcceptInvitationUnknownToken(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "user@example.com")

	_, err := env.invitations.AcceptInvitation("no-such-token", user.ID)
	if !errors.Is(err, ErrInvitationNotFound) {
		t.Errorf("error = %v, want ErrInvitationNotFound", err)
	}
}

func TestRevokeInvitation(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "owner@example.com")
	tree := env.createTree(t, owner)
	invitee := env.createUser(t, "aunt@example.com")

	invitation, err := env.invitations.InviteMember(context.Background(), tree.ID,
		"aunt@example.com", "", models.MemberProfile{FirstName: "Aunt"}, owner.ID)
	if err != nil {
		t.Fatalf("InviteMember failed: %v", err)
	}

	// Revoking against the wrong tree must not touch the invitation
	if err := env.invitations.RevokeInvitation(tree.ID+1, invitation.ID); !errors.Is(err, ErrInvitationNotFound) {
		t.Errorf("cross-tree revoke error = %v, want ErrInvitationNotFound", err)
	}

	if err := env.invitations.RevokeInvitation(tree.ID, invitation.ID); err != nil {
		t.Fatalf("RevokeInvitation failed: %v", err)
	}
	if _, err := env.invitations.AcceptInvitation(invitation.Token, invitee.ID); !errors.Is(err, ErrInvitationNotFound) {
		t.Errorf("accept after revoke error = %v, want ErrInvitationNotFound", err)
	}
	if err := env.invitations.RevokeInvitation(tree.ID, invitation.ID); !errors.Is(err, ErrInvitationNotFound) {
		t.Errorf("repeated revoke error = %v, want ErrInvitationNotFound", err)
	}
}

func TestAcceptInvitationWithoutMemberMatchesPendingByEmail(t *testing.T) {
	// An invitation whose placeholder was deleted falls back to matching a
	// pending member by the invitee email
	env := newTestEnv(t)
	owner := env.createUser(t, "owner@example.com")
	tree := env.createTree(t, owner)
	invitee := env.createUser(t, "aunt@example.com")

	pending, err := env.members.AddMember(tree.ID,
		models.MemberProfile{FirstName: "Aunt", Email: "aunt@example.com"}, nil)
	if err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}

	invitation, err := env.invitationRepo.CreateInvitation(tree.ID, nil,
		"aunt@example.com", models.RoleEditor, owner.ID, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("CreateInvitation failed: %v", err)
	}

	member, err := env.invitations.AcceptInvitation(invitation.Token, invitee.ID)
	if err != nil {
		t.Fatalf("AcceptInvitation failed: %v", err)
	}
	if member.ID != pending.ID {
		t.Errorf("accepted member %d, want the email-matched pending member %d", member.ID, pending.ID)
	}
}
