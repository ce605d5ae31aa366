package repository

import (
	"database/sql"
	"fmt"
	"time"

	"kintree/internal/database"
	"kintree/internal/models"
)

// MemberRepository handles database operations for members
type MemberRepository struct {
	db *database.DB
}

// NewMemberRepository creates a new member repository
func NewMemberRepository(db *database.DB) *MemberRepository {
	return &MemberRepository{db: db}
}

const memberColumns = `id, tree_id, user_id, first_name, last_name, display_name, gender,
	birth_date, death_date, bio, image_url, email, phone, is_pending, created_at, updated_at`

// CreateMember inserts a member row. userID is nil for pending members.
func (r *MemberRepository) CreateMember(treeID int64, profile models.MemberProfile, userID *int64, isPending bool) (*models.Member, error) {
	return createMember(r.db, treeID, profile, userID, isPending)
}

// createMember runs against the pool or an open transaction, so tree
// creation can insert the owner's member atomically with the tree row
func createMember(q database.DBTX, treeID int64, profile models.MemberProfile, userID *int64, isPending bool) (*models.Member, error) {
	query := `
		INSERT INTO members (tree_id, user_id, first_name, last_name, display_name, gender,
			birth_date, death_date, bio, image_url, email, phone, is_pending)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	id, err := q.ExecReturningID(query,
		treeID, nullableID(userID),
		profile.FirstName, profile.LastName, profile.DisplayName, profile.Gender,
		nullableTime(profile.BirthDate), nullableTime(profile.DeathDate),
		profile.Bio, profile.ImageURL, profile.Email, profile.Phone, isPending)
	if err != nil {
		return nil, fmt.Errorf("failed to create member: %w", err)
	}

	return &models.Member{
		ID:          id,
		TreeID:      treeID,
		UserID:      userID,
		FirstName:   profile.FirstName,
		LastName:    profile.LastName,
		DisplayName: profile.DisplayName,
		Gender:      profile.Gender,
		BirthDate:   profile.BirthDate,
		DeathDate:   profile.DeathDate,
		Bio:         profile.Bio,
		ImageURL:    profile.ImageURL,
		Email:       profile.Email,
		Phone:       profile.Phone,
		IsPending:   isPending,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}, nil
}

// GetMemberByID retrieves a member by ID
func (r *MemberRepository) GetMemberByID(id int64) (*models.Member, error) {
	query := "SELECT " + memberColumns + " FROM members WHERE id = ?"
	member, err := scanMember(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	return member, nil
}

// GetTreeMembers retrieves all members of a tree
func (r *MemberRepository) GetTreeMembers(treeID int64) ([]models.Member, error) {
	query := "SELECT " + memberColumns + " FROM members WHERE tree_id = ? ORDER BY id ASC"
	rows, err := r.db.Query(query, treeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query members: %w", err)
	}
	defer rows.Close()

	var members []models.Member
	for rows.Next() {
		member, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, *member)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read members: %w", err)
	}

	return members, nil
}

// GetMemberByTreeAndUser retrieves the claimed member linked to a user
// within one tree, if any
func (r *MemberRepository) GetMemberByTreeAndUser(treeID, userID int64) (*models.Member, error) {
	query := "SELECT " + memberColumns + " FROM members WHERE tree_id = ? AND user_id = ?"
	member, err := scanMember(r.db.QueryRow(query, treeID, userID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member by user: %w", err)
	}
	return member, nil
}

// FindPendingByEmail retrieves the oldest pending member of a tree whose
// profile email matches, used to match invitation acceptances
func (r *MemberRepository) FindPendingByEmail(treeID int64, email string) (*models.Member, error) {
	query := "SELECT " + memberColumns + ` FROM members
		WHERE tree_id = ? AND email = ? AND is_pending = ` + r.db.Dialect.BoolValue(true) + `
		ORDER BY id ASC LIMIT 1`
	member, err := scanMember(r.db.QueryRow(query, treeID, email))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find pending member: %w", err)
	}
	return member, nil
}

// UpdateProfile updates a member's profile fields
func (r *MemberRepository) UpdateProfile(id int64, profile models.MemberProfile) error {
	query := `
		UPDATE members SET first_name = ?, last_name = ?, display_name = ?, gender = ?,
			birth_date = ?, death_date = ?, bio = ?, image_url = ?, email = ?, phone = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	_, err := r.db.Exec(query,
		profile.FirstName, profile.LastName, profile.DisplayName, profile.Gender,
		nullableTime(profile.BirthDate), nullableTime(profile.DeathDate),
		profile.Bio, profile.ImageURL, profile.Email, profile.Phone, id)
	if err != nil {
		return fmt.Errorf("failed to update member: %w", err)
	}
	return nil
}

// ClaimMember links a member to a user account and clears the pending flag
func (r *MemberRepository) ClaimMember(id, userID int64) error {
	query := `UPDATE members SET user_id = ?, is_pending = ` + r.db.Dialect.BoolValue(false) + `,
		updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	_, err := r.db.Exec(query, userID, id)
	if err != nil {
		return fmt.Errorf("failed to claim member: %w", err)
	}
	return nil
}

// DeleteMemberCascade removes every relationship edge referencing the
// member on either end and then the member row itself, in one
// transaction, so no window exists where dangling edges can be observed.
func (r *MemberRepository) DeleteMemberCascade(id int64) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM relationships WHERE from_member_id = ? OR to_member_id = ?", id, id); err != nil {
		return fmt.Errorf("failed to delete member relationships: %w", err)
	}

	if _, err := tx.Exec("DELETE FROM members WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete member: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func scanMember(row rowScanner) (*models.Member, error) {
	var member models.Member
	var userID sql.NullInt64
	var birthDate, deathDate sql.NullTime
	err := row.Scan(
		&member.ID, &member.TreeID, &userID,
		&member.FirstName, &member.LastName, &member.DisplayName, &member.Gender,
		&birthDate, &deathDate,
		&member.Bio, &member.ImageURL, &member.Email, &member.Phone,
		&member.IsPending, &member.CreatedAt, &member.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if userID.Valid {
		member.UserID = &userID.Int64
	}
	if birthDate.Valid {
		member.BirthDate = &birthDate.Time
	}
	if deathDate.Valid {
		member.DeathDate = &deathDate.Time
	}
	return &member, nil
}

func nullableID(id *int64) interface{} {
	if id == nil {
		return nil
	}
	return *id
}

func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}
