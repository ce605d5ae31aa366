package repository

import (
	"database/sql"
	"fmt"
	"time"

	"kintree/internal/database"
	"kintree/internal/models"
)

// RelationshipRepository handles database operations for relationship edges.
// Edges are always written in symmetric pairs: the service layer computes
// the inverse type and this repository guarantees both rows land (or
// neither) in a single transaction.
type RelationshipRepository struct {
	db *database.DB
}

// NewRelationshipRepository creates a new relationship repository
func NewRelationshipRepository(db *database.DB) *RelationshipRepository {
	return &RelationshipRepository{db: db}
}

// CreateEdgePair inserts the primary edge and its inverse in one
// transaction and returns the primary edge. A unique-constraint failure
// means an identical pair was committed concurrently; the stored edge is
// returned so the add stays idempotent under racing retries.
func (r *RelationshipRepository) CreateEdgePair(treeID, fromID, toID int64, relType, inverseType models.RelationshipType) (*models.Relationship, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO relationships (tree_id, from_member_id, to_member_id, relationship_type) VALUES (?, ?, ?, ?)`
	id, err := tx.ExecReturningID(query, treeID, fromID, toID, string(relType))
	if err != nil {
		if existing := r.resolveConflictingEdge(tx, err, treeID, fromID, toID, relType); existing != nil {
			return existing, nil
		}
		return nil, fmt.Errorf("failed to insert edge: %w", err)
	}

	if _, err := tx.Exec(query, treeID, toID, fromID, string(inverseType)); err != nil {
		if existing := r.resolveConflictingEdge(tx, err, treeID, fromID, toID, relType); existing != nil {
			return existing, nil
		}
		return nil, fmt.Errorf("failed to insert inverse edge: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &models.Relationship{
		ID:           id,
		TreeID:       treeID,
		FromMemberID: fromID,
		ToMemberID:   toID,
		Type:         relType,
		CreatedAt:    time.Now(),
	}, nil
}

// resolveConflictingEdge turns a unique-violation on an edge insert into
// the already-stored edge, nil when err is any other failure. The open
// transaction is rolled back before the re-read.
func (r *RelationshipRepository) resolveConflictingEdge(tx *database.Tx, err error, treeID, fromID, toID int64, relType models.RelationshipType) *models.Relationship {
	if !r.db.Dialect.IsUniqueViolation(err) {
		return nil
	}
	tx.Rollback()
	existing, getErr := r.GetByEdge(treeID, fromID, toID, relType)
	if getErr != nil {
		return nil
	}
	return existing
}

// GetRelationshipByID retrieves an edge by ID
func (r *RelationshipRepository) GetRelationshipByID(id int64) (*models.Relationship, error) {
	query := `SELECT id, tree_id, from_member_id, to_member_id, relationship_type, created_at FROM relationships WHERE id = ?`
	rel, err := scanRelationship(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get relationship: %w", err)
	}
	return rel, nil
}

// GetByEdge retrieves an edge by its (tree, from, to, type) key
func (r *RelationshipRepository) GetByEdge(treeID, fromID, toID int64, relType models.RelationshipType) (*models.Relationship, error) {
	query := `
		SELECT id, tree_id, from_member_id, to_member_id, relationship_type, created_at
		FROM relationships
		WHERE tree_id = ? AND from_member_id = ? AND to_member_id = ? AND relationship_type = ?
	`
	rel, err := scanRelationship(r.db.QueryRow(query, treeID, fromID, toID, string(relType)))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get relationship: %w", err)
	}
	return rel, nil
}

// GetTreeRelationships retrieves every edge of a tree in one scan. The
// projection builder depends on this being a single query, not a query
// per member.
func (r *RelationshipRepository) GetTreeRelationships(treeID int64) ([]models.Relationship, error) {
	query := `
		SELECT id, tree_id, from_member_id, to_member_id, relationship_type, created_at
		FROM relationships
		WHERE tree_id = ?
		ORDER BY id ASC
	`
	rows, err := r.db.Query(query, treeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query relationships: %w", err)
	}
	defer rows.Close()

	var rels []models.Relationship
	for rows.Next() {
		var rel models.Relationship
		var relType string
		if err := rows.Scan(&rel.ID, &rel.TreeID, &rel.FromMemberID, &rel.ToMemberID, &relType, &rel.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan relationship: %w", err)
		}
		rel.Type = models.RelationshipType(relType)
		rels = append(rels, rel)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read relationships: %w", err)
	}

	return rels, nil
}

// DeleteEdgePair deletes the edge and its symmetric partner in one
// transaction. Returns false when the partner row was missing, in which
// case only the existing half is removed.
func (r *RelationshipRepository) DeleteEdgePair(rel *models.Relationship, inverseType models.RelationshipType) (bool, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM relationships WHERE id = ?", rel.ID); err != nil {
		return false, fmt.Errorf("failed to delete edge: %w", err)
	}

	query := `
		DELETE FROM relationships
		WHERE tree_id = ? AND from_member_id = ? AND to_member_id = ? AND relationship_type = ?
	`
	result, err := tx.Exec(query, rel.TreeID, rel.ToMemberID, rel.FromMemberID, string(inverseType))
	if err != nil {
		return false, fmt.Errorf("failed to delete inverse edge: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check inverse delete: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return affected > 0, nil
}

// CountForMember returns how many edges reference the member on either end
func (r *RelationshipRepository) CountForMember(memberID int64) (int, error) {
	query := "SELECT COUNT(*) FROM relationships WHERE from_member_id = ? OR to_member_id = ?"
	var count int
	if err := r.db.QueryRow(query, memberID, memberID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count relationships: %w", err)
	}
	return count, nil
}

// rowScanner abstracts sql.Row / sql.Rows for the scan helpers
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRelationship(row rowScanner) (*models.Relationship, error) {
	var rel models.Relationship
	var relType string
	if err := row.Scan(&rel.ID, &rel.TreeID, &rel.FromMemberID, &rel.ToMemberID, &relType, &rel.CreatedAt); err != nil {
		return nil, err
	}
	rel.Type = models.RelationshipType(relType)
	return &rel, nil
}
