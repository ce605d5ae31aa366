package service

import (
	"fmt"
	"log"

	"kintree/internal/models"
	"kintree/internal/repository"
)

// RelationshipService is the sole write path for relationship edges. It
// validates requested edges, computes the mandatory inverse edge and keeps
// the stored edge set symmetric: every (A, B, parent) is paired with
// (B, A, child) and every (A, B, spouse) with (B, A, spouse).
type RelationshipService struct {
	relRepo    *repository.RelationshipRepository
	memberRepo *repository.MemberRepository

	// rejectCycles controls whether parent/child edges that would close an
	// ancestry loop are refused. Configurable because cyclic chains are
	// representable in the edge table and some imported data contains them.
	rejectCycles bool
}

// NewRelationshipService creates a new relationship service
func NewRelationshipService(relRepo *repository.RelationshipRepository, memberRepo *repository.MemberRepository, rejectCycles bool) *RelationshipService {
	return &RelationshipService{
		relRepo:      relRepo,
		memberRepo:   memberRepo,
		rejectCycles: rejectCycles,
	}
}

// AddRelationship validates and stores a directed edge together with its
// inverse. Adding an edge that already exists is not an error: the stored
// edge is returned unchanged so retries are safe.
func (s *RelationshipService) AddRelationship(treeID, fromID, toID int64, relType models.RelationshipType) (*models.Relationship, error) {
	inverseType, ok := relType.Inverse()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRelationshipType, relType)
	}
	if fromID == toID {
		return nil, fmt.Errorf("%w: member %d", ErrSelfRelationship, fromID)
	}

	for _, memberID := range []int64{fromID, toID} {
		member, err := s.memberRepo.GetMemberByID(memberID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve member: %w", err)
		}
		if member == nil {
			return nil, fmt.Errorf("%w: member %d", ErrMemberNotFound, memberID)
		}
		if member.TreeID != treeID {
			return nil, fmt.Errorf("%w: member %d belongs to tree %d, not %d",
				ErrMembersInDifferentTrees, memberID, member.TreeID, treeID)
		}
	}

	// Duplicate adds are idempotent
	existing, err := s.relRepo.GetByEdge(treeID, fromID, toID, relType)
	if err != nil {
		return nil, fmt.Errorf("failed to check for existing edge: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	if s.rejectCycles && relType != models.RelationshipSpouse {
		cycle, err := s.wouldCreateCycle(treeID, fromID, toID, relType)
		if err != nil {
			return nil, err
		}
		if cycle {
			return nil, fmt.Errorf("%w: %d -> %d (%s)", ErrRelationshipCycle, fromID, toID, relType)
		}
	}

	rel, err := s.relRepo.CreateEdgePair(treeID, fromID, toID, relType, inverseType)
	if err != nil {
		return nil, fmt.Errorf("failed to create relationship: %w", err)
	}
	return rel, nil
}

// RemoveRelationship deletes an edge and its symmetric partner. When the
// partner is already missing the existing half is still removed; the
// inconsistency is logged rather than blocking the delete.
func (s *RelationshipService) RemoveRelationship(id int64) error {
	rel, err := s.relRepo.GetRelationshipByID(id)
	if err != nil {
		return fmt.Errorf("failed to resolve relationship: %w", err)
	}
	if rel == nil {
		return fmt.Errorf("%w: %d", ErrRelationshipNotFound, id)
	}

	inverseType, ok := rel.Type.Inverse()
	if !ok {
		// A stored edge with an unknown type should be unreachable given
		// the schema CHECK constraint
		return fmt.Errorf("%w: stored edge %d has type %q", ErrUnknownRelationshipType, rel.ID, rel.Type)
	}

	partnerDeleted, err := s.relRepo.DeleteEdgePair(rel, inverseType)
	if err != nil {
		return fmt.Errorf("failed to delete relationship: %w", err)
	}
	if !partnerDeleted {
		log.Printf("Warning: inverse edge missing for relationship %d (tree %d, %d -> %d, %s); deleted remaining half",
			rel.ID, rel.TreeID, rel.FromMemberID, rel.ToMemberID, rel.Type)
	}
	return nil
}

// GetRelationship retrieves an edge by ID
func (s *RelationshipService) GetRelationship(id int64) (*models.Relationship, error) {
	rel, err := s.relRepo.GetRelationshipByID(id)
	if err != nil {
		return nil, fmt.Errorf("failed to get relationship: %w", err)
	}
	if rel == nil {
		return nil, fmt.Errorf("%w: %d", ErrRelationshipNotFound, id)
	}
	return rel, nil
}

// GetTreeRelationships returns every edge of a tree in one scan
func (s *RelationshipService) GetTreeRelationships(treeID int64) ([]models.Relationship, error) {
	rels, err := s.relRepo.GetTreeRelationships(treeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load relationships: %w", err)
	}
	return rels, nil
}

// wouldCreateCycle reports whether inserting the given parent/child edge
// would close an ancestry loop. The requested edge is normalized to its
// parent form (parentID is a parent of childID); a loop exists exactly
// when a descending parent-edge path already leads from childID back to
// parentID.
func (s *RelationshipService) wouldCreateCycle(treeID, fromID, toID int64, relType models.RelationshipType) (bool, error) {
	parentID, childID := fromID, toID
	if relType == models.RelationshipChild {
		parentID, childID = toID, fromID
	}

	rels, err := s.relRepo.GetTreeRelationships(treeID)
	if err != nil {
		return false, fmt.Errorf("failed to load edges for cycle check: %w", err)
	}

	// Descendant adjacency from parent-type edges only; child-type edges
	// are their mirrors
	childrenOf := make(map[int64][]int64)
	for _, rel := range rels {
		if rel.Type == models.RelationshipParent {
			childrenOf[rel.FromMemberID] = append(childrenOf[rel.FromMemberID], rel.ToMemberID)
		}
	}

	visited := map[int64]bool{childID: true}
	queue := []int64{childID}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if current == parentID {
			return true, nil
		}
		for _, next := range childrenOf[current] {
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}
	return false, nil
}
