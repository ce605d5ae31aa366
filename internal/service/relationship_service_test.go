package service

import (
	"errors"
	"testing"

	"kintree/internal/models"
)

func TestAddRelationshipStoresInversePair(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "owner@example.com")
	tree := env.createTree(t, owner)
	parent := env.addMember(t, tree.ID, "Parent")
	child := env.addMember(t, tree.ID, "Child")

	rel, err := env.relationships.AddRelationship(tree.ID, parent.ID, child.ID, models.RelationshipParent)
	if err != nil {
		t.Fatalf("AddRelationship failed: %v", err)
	}
	if rel.FromMemberID != parent.ID || rel.ToMemberID != child.ID || rel.Type != models.RelationshipParent {
		t.Errorf("returned edge = %d -> %d (%s), want %d -> %d (parent)",
			rel.FromMemberID, rel.ToMemberID, rel.Type, parent.ID, child.ID)
	}

	rels := env.treeEdges(t, tree.ID)
	if len(rels) != 2 {
		t.Fatalf("stored %d edges, want 2", len(rels))
	}
	assertSymmetric(t, rels)
}

func TestAddRelationshipSpousePair(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "owner@example.com")
	tree := env.createTree(t, owner)
	a := env.addMember(t, tree.ID, "A")
	b := env.addMember(t, tree.ID, "B")

	if _, err := env.relationships.AddRelationship(tree.ID, a.ID, b.ID, models.RelationshipSpouse); err != nil {
		t.Fatalf("AddRelationship failed: %v", err)
	}

	rels := env.treeEdges(t, tree.ID)
	if len(rels) != 2 {
		t.Fatalf("stored %d edges, want 2", len(rels))
	}
	for _, rel := range rels {
		if rel.Type != models.RelationshipSpouse {
			t.Errorf("edge %d -> %d has type %s, want spouse", rel.FromMemberID, rel.ToMemberID, rel.Type)
		}
	}
	assertSymmetric(t, rels)
}

func TestAddRelationshipIdempotent(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "owner@example.com")
	tree := env.createTree(t, owner)
	parent := env.addMember(t, tree.ID, "Parent")
	child := env.addMember(t, tree.ID, "Child")

	first, err := env.relationships.AddRelationship(tree.ID, parent.ID, child.ID, models.RelationshipParent)
	if err != nil {
		t.Fatalf("first add failed: %v", err)
	}
	second, err := env.relationships.AddRelationship(tree.ID, parent.ID, child.ID, models.RelationshipParent)
	if err != nil {
		t.Fatalf("duplicate add failed: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("duplicate add returned edge %d, want existing edge %d", second.ID, first.ID)
	}

	if rels := env.treeEdges(t, tree.ID); len(rels) != 2 {
		t.Errorf("stored %d edges after duplicate add, want 2", len(rels))
	}
}

func TestCreateEdgePairResolvesRacingDuplicate(t *testing.T) {
	// A second identical add can slip past the duplicate read and hit the
	// unique constraint; the insert must resolve to the stored edge
	// instead of failing
	env := newTestEnv(t)
	owner := env.createUser(t, "owner@example.com")
	tree := env.createTree(t, owner)
	parent := env.addMember(t, tree.ID, "Parent")
	child := env.addMember(t, tree.ID, "Child")

	first, err := env.relationships.AddRelationship(tree.ID, parent.ID, child.ID, models.RelationshipParent)
	if err != nil {
		t.Fatalf("first add failed: %v", err)
	}

	// Hit the constraint directly, as a racing writer would
	dup, err := env.relRepo.CreateEdgePair(tree.ID, parent.ID, child.ID,
		models.RelationshipParent, models.RelationshipChild)
	if err != nil {
		t.Fatalf("racing insert failed: %v", err)
	}
	if dup.ID != first.ID {
		t.Errorf("racing insert returned edge %d, want existing edge %d", dup.ID, first.ID)
	}

	rels := env.treeEdges(t, tree.ID)
	if len(rels) != 2 {
		t.Errorf("stored %d edges after racing insert, want 2", len(rels))
	}
	assertSymmetric(t, rels)
}

func TestAddRelationshipEquivalentInverseIsSeparateCheck(t *testing.T) {
	// Adding (child, parent, child-of) after (parent, child, parent-of)
	// matches the stored inverse and must not duplicate the pair
	env := newTestEnv(t)
	owner := env.createUser(t, "owner@example.com")
	tree := env.createTree(t, owner)
	parent := env.addMember(t, tree.ID, "Parent")
	child := env.addMember(t, tree.ID, "Child")

	if _, err := env.relationships.AddRelationship(tree.ID, parent.ID, child.ID, models.RelationshipParent); err != nil {
		t.Fatalf("first add failed: %v", err)
	}
	if _, err := env.relationships.AddRelationship(tree.ID, child.ID, parent.ID, models.RelationshipChild); err != nil {
		t.Fatalf("inverse-form add failed: %v", err)
	}

	if rels := env.treeEdges(t, tree.ID); len(rels) != 2 {
		t.Errorf("stored %d edges, want 2", len(rels))
	}
}

func TestAddRelationshipSelfLoop(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "owner@example.com")
	tree := env.createTree(t, owner)
	member := env.addMember(t, tree.ID, "Loner")

	for _, relType := range []models.RelationshipType{
		models.RelationshipParent,
		models.RelationshipChild,
		models.RelationshipSpouse,
	} {
		t.Run(string(relType), func(t *testing.T) {
			_, err := env.relationships.AddRelationship(tree.ID, member.ID, member.ID, relType)
			if !errors.Is(err, ErrSelfRelationship) {
				t.Errorf("AddRelationship(self, self, %s) error = %v, want ErrSelfRelationship", relType, err)
			}
		})
	}

	if rels := env.treeEdges(t, tree.ID); len(rels) != 0 {
		t.Errorf("stored %d edges after rejected self-loops, want 0", len(rels))
	}
}

func TestAddRelationshipUnknownType(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "owner@example.com")
	tree := env.createTree(t, owner)
	a := env.addMember(t, tree.ID, "A")
	b := env.addMember(t, tree.ID, "B")

	_, err := env.relationships.AddRelationship(tree.ID, a.ID, b.ID, "cousin")
	if !errors.Is(err, ErrUnknownRelationshipType) {
		t.Errorf("error = %v, want ErrUnknownRelationshipType", err)
	}
}

func TestAddRelationshipAcrossTrees(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "owner@example.com")
	tree := env.createTree(t, owner)
	other := env.createTree(t, env.createUser(t, "other@example.com"))

	local := env.addMember(t, tree.ID, "Local")
	foreign := env.addMember(t, other.ID, "Foreign")

	_, err := env.relationships.AddRelationship(tree.ID, local.ID, foreign.ID, models.RelationshipParent)
	if !errors.Is(err, ErrMembersInDifferentTrees) {
		t.Errorf("error = %v, want ErrMembersInDifferentTrees", err)
	}
}

func TestAddRelationshipMissingMember(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "owner@example.com")
	tree := env.createTree(t, owner)
	member := env.addMember(t, tree.ID, "Only")

	_, err := env.relationships.AddRelationship(tree.ID, member.ID, 99999, models.RelationshipSpouse)
	if !errors.Is(err, ErrMemberNotFound) {
		t.Errorf("error = %v, want ErrMemberNotFound", err)
	}
}

func TestRemoveRelationshipDeletesPair(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "owner@example.com")
	tree := env.createTree(t, owner)
	parent := env.addMember(t, tree.ID, "Parent")
	child := env.addMember(t, tree.ID, "Child")

	rel, err := env.relationships.AddRelationship(tree.ID, parent.ID, child.ID, models.RelationshipParent)
	if err != nil {
		t.Fatalf("AddRelationship failed: %v", err)
	}

	if err := env.relationships.RemoveRelationship(rel.ID); err != nil {
		t.Fatalf("RemoveRelationship failed: %v", err)
	}
	if rels := env.treeEdges(t, tree.ID); len(rels) != 0 {
		t.Errorf("stored %d edges after remove, want 0", len(rels))
	}
}

func TestRemoveRelationshipByInverseEdge(t *testing.T) {
	// Deleting either half of the pair removes both
	env := newTestEnv(t)
	owner := env.createUser(t, "owner@example.com")
	tree := env.createTree(t, owner)
	parent := env.addMember(t, tree.ID, "Parent")
	child := env.addMember(t, tree.ID, "Child")

	if _, err := env.relationships.AddRelationship(tree.ID, parent.ID, child.ID, models.RelationshipParent); err != nil {
		t.Fatalf("AddRelationship failed: %v", err)
	}
	rels := env.treeEdges(t, tree.ID)
	var inverse *models.Relationship
	for i := range rels {
		if rels[i].Type == models.RelationshipChild {
			inverse = &rels[i]
		}
	}
	if inverse == nil {
		t.Fatal("inverse edge not stored")
	}

	if err := env.relationships.RemoveRelationship(inverse.ID); err != nil {
		t.Fatalf("RemoveRelationship failed: %v", err)
	}
	if rels := env.treeEdges(t, tree.ID); len(rels) != 0 {
		t.Errorf("stored %d edges after remove, want 0", len(rels))
	}
}

func TestRemoveRelationshipNotFound(t *testing.T) {
	env := newTestEnv(t)

	err := env.relationships.RemoveRelationship(99999)
	if !errors.Is(err, ErrRelationshipNotFound) {
		t.Errorf("error = %v, want ErrRelationshipNotFound", err)
	}
}

func TestRemoveRelationshipWithMissingInverse(t *testing.T) {
	// When the partner edge is already gone the delete still removes the
	// remaining half instead of failing
	env := newTestEnv(t)
	owner := env.createUser(t, "owner@example.com")
	tree := env.createTree(t, owner)
	parent := env.addMember(t, tree.ID, "Parent")
	child := env.addMember(t, tree.ID, "Child")

	rel, err := env.relationships.AddRelationship(tree.ID, parent.ID, child.ID, models.RelationshipParent)
	if err != nil {
		t.Fatalf("AddRelationship failed: %v", err)
	}

	// Break symmetry behind the service's back
	if _, err := env.db.Exec(
		"DELETE FROM relationships WHERE tree_id = ? AND from_member_id = ? AND to_member_id = ? AND relationship_type = ?",
		tree.ID, child.ID, parent.ID, string(models.RelationshipChild)); err != nil {
		t.Fatalf("failed to delete inverse edge: %v", err)
	}

	if err := env.relationships.RemoveRelationship(rel.ID); err != nil {
		t.Fatalf("RemoveRelationship failed: %v", err)
	}
	if rels := env.treeEdges(t, tree.ID); len(rels) != 0 {
		t.Errorf("stored %d edges after remove, want 0", len(rels))
	}
}

func TestAddRelationshipRejectsAncestryCycle(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "owner@example.com")
	tree := env.createTree(t, owner)
	a := env.addMember(t, tree.ID, "A")
	b := env.addMember(t, tree.ID, "B")
	c := env.addMember(t, tree.ID, "C")

	if _, err := env.relationships.AddRelationship(tree.ID, a.ID, b.ID, models.RelationshipParent); err != nil {
		t.Fatalf("A -> B failed: %v", err)
	}
	if _, err := env.relationships.AddRelationship(tree.ID, b.ID, c.ID, models.RelationshipParent); err != nil {
		t.Fatalf("B -> C failed: %v", err)
	}

	// C as parent of A would close the loop A -> B -> C -> A
	_, err := env.relationships.AddRelationship(tree.ID, c.ID, a.ID, models.RelationshipParent)
	if !errors.Is(err, ErrRelationshipCycle) {
		t.Errorf("error = %v, want ErrRelationshipCycle", err)
	}

	// Same loop expressed in child form
	_, err = env.relationships.AddRelationship(tree.ID, a.ID, c.ID, models.RelationshipChild)
	if !errors.Is(err, ErrRelationshipCycle) {
		t.Errorf("child-form error = %v, want ErrRelationshipCycle", err)
	}

	if rels := env.treeEdges(t, tree.ID); len(rels) != 4 {
		t.Errorf("stored %d edges, want 4 (two accepted pairs)", len(rels))
	}
}

func TestAddRelationshipDirectLoopRejected(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "owner@example.com")
	tree := env.createTree(t, owner)
	a := env.addMember(t, tree.ID, "A")
	b := env.addMember(t, tree.ID, "B")

	if _, err := env.relationships.AddRelationship(tree.ID, a.ID, b.ID, models.RelationshipParent); err != nil {
		t.Fatalf("A -> B failed: %v", err)
	}

	_, err := env.relationships.AddRelationship(tree.ID, b.ID, a.ID, models.RelationshipParent)
	if !errors.Is(err, ErrRelationshipCycle) {
		t.Errorf("error = %v, want ErrRelationshipCycle", err)
	}
}

func TestAddRelationshipCycleAllowedWhenDisabled(t *testing.T) {
	env := newTestEnvWithCycles(t, false)
	owner := env.createUser(t, "owner@example.com")
	tree := env.createTree(t, owner)
	a := env.addMember(t, tree.ID, "A")
	b := env.addMember(t, tree.ID, "B")

	if _, err := env.relationships.AddRelationship(tree.ID, a.ID, b.ID, models.RelationshipParent); err != nil {
		t.Fatalf("A -> B failed: %v", err)
	}
	if _, err := env.relationships.AddRelationship(tree.ID, b.ID, a.ID, models.RelationshipParent); err != nil {
		t.Errorf("loop with cycle checking disabled failed: %v", err)
	}
}

func TestAddRelationshipSpouseSkipsCycleCheck(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "owner@example.com")
	tree := env.createTree(t, owner)
	a := env.addMember(t, tree.ID, "A")
	b := env.addMember(t, tree.ID, "B")

	if _, err := env.relationships.AddRelationship(tree.ID, a.ID, b.ID, models.RelationshipParent); err != nil {
		t.Fatalf("A -> B failed: %v", err)
	}
	// Spouse edges never participate in ancestry loops
	if _, err := env.relationships.AddRelationship(tree.ID, a.ID, b.ID, models.RelationshipSpouse); err != nil {
		t.Errorf("spouse edge failed: %v", err)
	}
}
