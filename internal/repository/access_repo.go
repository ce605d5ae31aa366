package repository

import (
	"database/sql"
	"fmt"

	"kintree/internal/database"
	"kintree/internal/models"
)

// AccessRepository handles database operations for tree access grants
type AccessRepository struct {
	db *database.DB
}

// NewAccessRepository creates a new access repository
func NewAccessRepository(db *database.DB) *AccessRepository {
	return &AccessRepository{db: db}
}

// GrantAccess gives a user a role on a tree
func (r *AccessRepository) GrantAccess(treeID, userID int64, role string) error {
	return grantAccess(r.db, treeID, userID, role)
}

// grantAccess runs against the pool or an open transaction, so tree
// creation can grant the owner's role atomically with the tree row
func grantAccess(q database.DBTX, treeID, userID int64, role string) error {
	query := "INSERT INTO tree_access (tree_id, user_id, role) VALUES (?, ?, ?)"
	if _, err := q.Exec(query, treeID, userID, role); err != nil {
		return fmt.Errorf("failed to grant access: %w", err)
	}
	return nil
}

// GetAccess retrieves a user's access grant on a tree, nil when absent
func (r *AccessRepository) GetAccess(treeID, userID int64) (*models.TreeAccess, error) {
	query := `SELECT id, tree_id, user_id, role, granted_at FROM tree_access
		WHERE tree_id = ? AND user_id = ?`
	access := &models.TreeAccess{}
	err := r.db.QueryRow(query, treeID, userID).Scan(
		&access.ID, &access.TreeID, &access.UserID, &access.Role, &access.GrantedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get access: %w", err)
	}
	return access, nil
}

// ListTreeAccess retrieves every access grant on a tree
func (r *AccessRepository) ListTreeAccess(treeID int64) ([]models.TreeAccess, error) {
	query := `SELECT id, tree_id, user_id, role, granted_at FROM tree_access
		WHERE tree_id = ? ORDER BY granted_at ASC`
	rows, err := r.db.Query(query, treeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query access grants: %w", err)
	}
	defer rows.Close()

	var grants []models.TreeAccess
	for rows.Next() {
		var access models.TreeAccess
		if err := rows.Scan(&access.ID, &access.TreeID, &access.UserID, &access.Role, &access.GrantedAt); err != nil {
			return nil, fmt.Errorf("failed to scan access grant: %w", err)
		}
		grants = append(grants, access)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read access grants: %w", err)
	}

	return grants, nil
}

// RevokeAccess removes a user's access grant from a tree
func (r *AccessRepository) RevokeAccess(treeID, userID int64) error {
	query := "DELETE FROM tree_access WHERE tree_id = ? AND user_id = ?"
	if _, err := r.db.Exec(query, treeID, userID); err != nil {
		return fmt.Errorf("failed to revoke access: %w", err)
	}
	return nil
}
