package service

import (
	"fmt"

	"kintree/internal/models"
	"kintree/internal/repository"
)

// TreeService handles tree-level operations: creation with the owner as
// first member, access checks, and assembling the projected read view.
type TreeService struct {
	treeRepo   *repository.TreeRepository
	memberRepo *repository.MemberRepository
	relRepo    *repository.RelationshipRepository
	accessRepo *repository.AccessRepository
	userRepo   *repository.UserRepository
}

// NewTreeService creates a new tree service
func NewTreeService(treeRepo *repository.TreeRepository, memberRepo *repository.MemberRepository,
	relRepo *repository.RelationshipRepository, accessRepo *repository.AccessRepository,
	userRepo *repository.UserRepository) *TreeService {
	return &TreeService{
		treeRepo:   treeRepo,
		memberRepo: memberRepo,
		relRepo:    relRepo,
		accessRepo: accessRepo,
		userRepo:   userRepo,
	}
}

// CreateTree creates a tree owned by the given user. The owner becomes the
// tree's first claimed member and is granted the admin role, all in one
// transaction.
func (s *TreeService) CreateTree(name, description, privacy string, ownerUserID int64) (*models.FamilyTree, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: tree name is required", ErrValidation)
	}
	if privacy == "" {
		privacy = models.PrivacyPrivate
	}
	if !models.IsValidPrivacy(privacy) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPrivacy, privacy)
	}

	owner, err := s.userRepo.GetUserByID(ownerUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve owner: %w", err)
	}
	if owner == nil {
		return nil, fmt.Errorf("%w: %d", ErrUserNotFound, ownerUserID)
	}

	tree, _, err := s.treeRepo.CreateTree(name, description, privacy, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to create tree: %w", err)
	}
	return tree, nil
}

// GetTree retrieves a tree by ID
func (s *TreeService) GetTree(treeID int64) (*models.FamilyTree, error) {
	tree, err := s.treeRepo.GetTreeByID(treeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get tree: %w", err)
	}
	if tree == nil {
		return nil, fmt.Errorf("%w: %d", ErrTreeNotFound, treeID)
	}
	return tree, nil
}

// GetUserTrees retrieves all trees a user has access to
func (s *TreeService) GetUserTrees(userID int64) ([]models.FamilyTree, error) {
	trees, err := s.treeRepo.GetUserTrees(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user trees: %w", err)
	}
	return trees, nil
}

// GetTreeWithNodes loads a tree together with its projected member nodes.
// Members and edges are each loaded in one scan; the projection itself is
// a pure transform over the loaded data.
func (s *TreeService) GetTreeWithNodes(treeID int64, opts ProjectionOptions) (*models.TreeWithNodes, error) {
	tree, err := s.GetTree(treeID)
	if err != nil {
		return nil, err
	}

	members, err := s.memberRepo.GetTreeMembers(treeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load members: %w", err)
	}
	rels, err := s.relRepo.GetTreeRelationships(treeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load relationships: %w", err)
	}

	projected := BuildProjection(members, rels, opts)

	// Emit nodes in member order so the payload is stable
	nodes := make([]*models.TreeNode, 0, len(projected))
	for i := range members {
		if node, ok := projected[members[i].ID]; ok {
			nodes = append(nodes, node)
		}
	}

	return &models.TreeWithNodes{Tree: *tree, Nodes: nodes}, nil
}

// VerifyTreeAccess checks that a user holds a role on the tree; with
// write=true the role must also allow mutation. This is the single
// authorization decision the rest of the core trusts.
func (s *TreeService) VerifyTreeAccess(userID, treeID int64, write bool) error {
	access, err := s.accessRepo.GetAccess(treeID, userID)
	if err != nil {
		return fmt.Errorf("failed to verify tree access: %w", err)
	}
	if access == nil {
		return ErrNotTreeMember
	}
	if write && !access.CanEdit() {
		return ErrNotTreeMember
	}
	return nil
}

// UpdateTree updates a tree's name, description and privacy
func (s *TreeService) UpdateTree(treeID int64, name, description, privacy string) (*models.FamilyTree, error) {
	if _, err := s.GetTree(treeID); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, fmt.Errorf("%w: tree name is required", ErrValidation)
	}
	if !models.IsValidPrivacy(privacy) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPrivacy, privacy)
	}
	if err := s.treeRepo.UpdateTree(treeID, name, description, privacy); err != nil {
		return nil, fmt.Errorf("failed to update tree: %w", err)
	}
	return s.GetTree(treeID)
}

// DeleteTree removes a tree and everything scoped below it. Only the
// owner may delete a tree.
func (s *TreeService) DeleteTree(treeID, userID int64) error {
	tree, err := s.GetTree(treeID)
	if err != nil {
		return err
	}
	if tree.OwnerUserID != userID {
		return ErrNotTreeMember
	}
	if err := s.treeRepo.DeleteTree(treeID); err != nil {
		return fmt.Errorf("failed to delete tree: %w", err)
	}
	return nil
}
