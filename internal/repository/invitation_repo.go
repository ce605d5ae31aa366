package repository

import (
	"database/sql"
	"fmt"
	"time"

	"kintree/internal/database"
	"kintree/internal/models"

	"github.com/google/uuid"
)

// InvitationRepository handles database operations for invitations
type InvitationRepository struct {
	db *database.DB
}

// NewInvitationRepository creates a new invitation repository
func NewInvitationRepository(db *database.DB) *InvitationRepository {
	return &InvitationRepository{db: db}
}

// GenerateToken returns a fresh invitation token
func (r *InvitationRepository) GenerateToken() string {
	return uuid.New().String()
}

// CreateInvitation creates a new invitation. memberID points at the
// pending member created alongside it, nil when there is none.
func (r *InvitationRepository) CreateInvitation(treeID int64, memberID *int64, email, role string, invitedBy int64, expiresAt time.Time) (*models.Invitation, error) {
	token := r.GenerateToken()

	query := `INSERT INTO invitations (tree_id, member_id, token, email, role, invited_by, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	id, err := r.db.ExecReturningID(query, treeID, nullableID(memberID), token, email, role, invitedBy, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create invitation: %w", err)
	}

	return &models.Invitation{
		ID:        id,
		TreeID:    treeID,
		MemberID:  memberID,
		Token:     token,
		Email:     email,
		Role:      role,
		InvitedBy: invitedBy,
		CreatedAt: time.Now(),
		ExpiresAt: expiresAt,
	}, nil
}

const invitationColumns = `id, tree_id, member_id, token, email, role, invited_by, created_at, expires_at, used_at, used_by`

// GetByToken retrieves an invitation by token, nil when absent
func (r *InvitationRepository) GetByToken(token string) (*models.Invitation, error) {
	query := "SELECT " + invitationColumns + " FROM invitations WHERE token = ?"
	inv, err := scanInvitation(r.db.QueryRow(query, token))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}
	return inv, nil
}

// ListTreeInvitations retrieves all invitations issued for a tree
func (r *InvitationRepository) ListTreeInvitations(treeID int64) ([]models.Invitation, error) {
	query := "SELECT " + invitationColumns + " FROM invitations WHERE tree_id = ? ORDER BY created_at DESC"
	rows, err := r.db.Query(query, treeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query invitations: %w", err)
	}
	defer rows.Close()

	var invitations []models.Invitation
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invitation: %w", err)
		}
		invitations = append(invitations, *inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read invitations: %w", err)
	}

	return invitations, nil
}

// MarkUsed records the accepting user and acceptance time on an invitation
func (r *InvitationRepository) MarkUsed(token string, userID int64) error {
	query := "UPDATE invitations SET used_at = ?, used_by = ? WHERE token = ?"
	if _, err := r.db.Exec(query, time.Now(), userID, token); err != nil {
		return fmt.Errorf("failed to mark invitation used: %w", err)
	}
	return nil
}

// DeleteInvitation deletes an invitation by ID, scoped to its tree so a
// caller authorized on one tree cannot delete another tree's invitation
func (r *InvitationRepository) DeleteInvitation(treeID, id int64) (bool, error) {
	result, err := r.db.Exec("DELETE FROM invitations WHERE tree_id = ? AND id = ?", treeID, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete invitation: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check invitation delete: %w", err)
	}
	return affected > 0, nil
}

func scanInvitation(row rowScanner) (*models.Invitation, error) {
	var inv models.Invitation
	var memberID, usedBy sql.NullInt64
	var usedAt sql.NullTime
	err := row.Scan(
		&inv.ID, &inv.TreeID, &memberID, &inv.Token, &inv.Email, &inv.Role,
		&inv.InvitedBy, &inv.CreatedAt, &inv.ExpiresAt, &usedAt, &usedBy,
	)
	if err != nil {
		return nil, err
	}

	if memberID.Valid {
		inv.MemberID = &memberID.Int64
	}
	if usedAt.Valid {
		inv.UsedAt = &usedAt.Time
	}
	if usedBy.Valid {
		inv.UsedBy = &usedBy.Int64
	}
	return &inv, nil
}
