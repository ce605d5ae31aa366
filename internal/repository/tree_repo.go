package repository

import (
	"database/sql"
	"fmt"
	"time"

	"kintree/internal/database"
	"kintree/internal/models"
)

// TreeRepository handles database operations for family trees
type TreeRepository struct {
	db *database.DB
}

// NewTreeRepository creates a new tree repository
func NewTreeRepository(db *database.DB) *TreeRepository {
	return &TreeRepository{db: db}
}

// CreateTree creates a tree, its owner's claimed member and the owner's
// admin access grant in one transaction.
func (r *TreeRepository) CreateTree(name, description, privacy string, owner *models.User) (*models.FamilyTree, *models.Member, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := "INSERT INTO family_trees (name, description, owner_user_id, privacy) VALUES (?, ?, ?, ?)"
	treeID, err := tx.ExecReturningID(query, name, description, owner.ID, privacy)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create tree: %w", err)
	}

	ownerID := owner.ID
	member, err := createMember(tx, treeID, models.MemberProfile{
		FirstName:   owner.Name,
		DisplayName: owner.Name,
		Gender:      models.GenderOther,
		Email:       owner.Email,
	}, &ownerID, false)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create owner member: %w", err)
	}

	if err := grantAccess(tx, treeID, owner.ID, models.RoleAdmin); err != nil {
		return nil, nil, fmt.Errorf("failed to grant owner access: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	tree := &models.FamilyTree{
		ID:          treeID,
		Name:        name,
		Description: description,
		OwnerUserID: owner.ID,
		Privacy:     privacy,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	return tree, member, nil
}

// GetTreeByID retrieves a tree by ID
func (r *TreeRepository) GetTreeByID(treeID int64) (*models.FamilyTree, error) {
	query := `SELECT id, name, description, owner_user_id, privacy, created_at, updated_at
		FROM family_trees WHERE id = ?`
	tree := &models.FamilyTree{}
	err := r.db.QueryRow(query, treeID).Scan(
		&tree.ID, &tree.Name, &tree.Description, &tree.OwnerUserID,
		&tree.Privacy, &tree.CreatedAt, &tree.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tree: %w", err)
	}
	return tree, nil
}

// GetUserTrees retrieves all trees a user has access to
func (r *TreeRepository) GetUserTrees(userID int64) ([]models.FamilyTree, error) {
	query := `
		SELECT t.id, t.name, t.description, t.owner_user_id, t.privacy, t.created_at, t.updated_at
		FROM family_trees t
		INNER JOIN tree_access a ON t.id = a.tree_id
		WHERE a.user_id = ?
		ORDER BY t.created_at DESC
	`
	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query trees: %w", err)
	}
	defer rows.Close()

	var trees []models.FamilyTree
	for rows.Next() {
		var tree models.FamilyTree
		if err := rows.Scan(&tree.ID, &tree.Name, &tree.Description, &tree.OwnerUserID,
			&tree.Privacy, &tree.CreatedAt, &tree.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan tree: %w", err)
		}
		trees = append(trees, tree)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read trees: %w", err)
	}

	return trees, nil
}

// UpdateTree updates a tree's name, description and privacy
func (r *TreeRepository) UpdateTree(treeID int64, name, description, privacy string) error {
	query := `UPDATE family_trees SET name = ?, description = ?, privacy = ?,
		updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	if _, err := r.db.Exec(query, name, description, privacy, treeID); err != nil {
		return fmt.Errorf("failed to update tree: %w", err)
	}
	return nil
}

// DeleteTree deletes a tree and, via the schema's cascades, its members,
// relationships, access grants and invitations
func (r *TreeRepository) DeleteTree(treeID int64) error {
	if _, err := r.db.Exec("DELETE FROM family_trees WHERE id = ?", treeID); err != nil {
		return fmt.Errorf("failed to delete tree: %w", err)
	}
	return nil
}
