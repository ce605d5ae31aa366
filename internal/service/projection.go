package service

import (
	"log"
	"sort"

	"kintree/internal/models"
)

// ProjectionOptions controls how the flat edge set is projected into
// per-member nodes.
type ProjectionOptions struct {
	// RootMemberID anchors the blood-relation flag: members reachable from
	// the root through parent/child edges alone count as blood relations.
	// Zero selects the member with the lowest id (the tree's first member).
	RootMemberID int64

	// FocalMemberID and MaxDepth bound the projection to a neighborhood
	// for progressive disclosure on large trees. With FocalMemberID zero
	// the projection is total and no node is truncated.
	FocalMemberID int64
	MaxDepth      int
}

// edgeKey identifies a directed typed edge for symmetry checking
type edgeKey struct {
	from, to int64
	relType  models.RelationshipType
}

// adjacency is the per-member edge grouping accumulated in the single
// pass over the edge set
type adjacency struct {
	parents  []int64
	children []int64
	spouses  []int64
}

// BuildProjection transforms a tree's members and its flat, symmetric edge
// set into one projected node per member. The computation makes a single
// pass over the edges; siblings are derived from shared parents and never
// read from the store.
//
// An edge whose inverse is missing indicates a store inconsistency. The
// projection still counts the edge where it was found and logs the
// violation instead of failing the read.
func BuildProjection(members []models.Member, rels []models.Relationship, opts ProjectionOptions) map[int64]*models.TreeNode {
	if len(members) == 0 {
		return map[int64]*models.TreeNode{}
	}

	adjacencies := make(map[int64]*adjacency, len(members))
	for i := range members {
		adjacencies[members[i].ID] = &adjacency{}
	}

	edges := make(map[edgeKey]bool, len(rels))
	for _, rel := range rels {
		edges[edgeKey{rel.FromMemberID, rel.ToMemberID, rel.Type}] = true
	}

	for _, rel := range rels {
		adj, ok := adjacencies[rel.FromMemberID]
		if !ok {
			// Edge referencing a member outside the loaded set; the
			// member cascade should make this impossible
			log.Printf("Warning: relationship %d references unknown member %d", rel.ID, rel.FromMemberID)
			continue
		}

		inv, ok := rel.Type.Inverse()
		if !ok {
			log.Printf("Warning: relationship %d has unknown type %q", rel.ID, rel.Type)
			continue
		}
		if !edges[edgeKey{rel.ToMemberID, rel.FromMemberID, inv}] {
			log.Printf("Warning: inverse edge missing for relationship %d (%d -> %d, %s)",
				rel.ID, rel.FromMemberID, rel.ToMemberID, rel.Type)
		}

		// Each member's adjacency reads from the edges anchored at it, so
		// the symmetric pair contributes exactly once per endpoint.
		// (from, to, parent) means from is a parent of to, so the edge puts
		// to among from's children; the inverse child edge fills to's parents.
		switch rel.Type {
		case models.RelationshipParent:
			adj.children = append(adj.children, rel.ToMemberID)
		case models.RelationshipChild:
			adj.parents = append(adj.parents, rel.ToMemberID)
		case models.RelationshipSpouse:
			adj.spouses = append(adj.spouses, rel.ToMemberID)
		}
	}

	siblings := deriveSiblings(adjacencies)
	bloodSet := bloodRelations(adjacencies, rootMember(members, opts.RootMemberID))
	visible := visibleSet(adjacencies, siblings, opts)

	nodes := make(map[int64]*models.TreeNode, len(visible))
	for i := range members {
		member := &members[i]
		if !visible[member.ID] {
			continue
		}
		adj := adjacencies[member.ID]

		node := &models.TreeNode{
			MemberID:        member.ID,
			DisplayName:     member.Name(),
			FirstName:       member.FirstName,
			LastName:        member.LastName,
			Gender:          member.Gender,
			BirthDate:       member.BirthDate,
			DeathDate:       member.DeathDate,
			ImageURL:        member.ImageURL,
			IsPending:       member.IsPending,
			Parents:         sortedUnique(adj.parents),
			Children:        sortedUnique(adj.children),
			Siblings:        siblings[member.ID],
			Spouses:         sortedUnique(adj.spouses),
			IsBloodRelation: bloodSet[member.ID],
		}
		node.HasHiddenSubtree = hasHiddenNeighbor(node, visible)
		nodes[member.ID] = node
	}

	return nodes
}

// deriveSiblings computes, for every member, the members sharing at least
// one parent, excluding the member itself. Siblings are a pure function of
// the parent edges; storing them would add a second consistency surface.
func deriveSiblings(adjacencies map[int64]*adjacency) map[int64][]int64 {
	childrenOf := make(map[int64][]int64)
	for memberID, adj := range adjacencies {
		for _, parentID := range adj.parents {
			childrenOf[parentID] = append(childrenOf[parentID], memberID)
		}
	}

	siblings := make(map[int64][]int64, len(adjacencies))
	for memberID, adj := range adjacencies {
		var shared []int64
		for _, parentID := range adj.parents {
			for _, childID := range childrenOf[parentID] {
				if childID != memberID {
					shared = append(shared, childID)
				}
			}
		}
		siblings[memberID] = sortedUnique(shared)
	}
	return siblings
}

// bloodRelations returns the set of members reachable from the root
// through parent/child edges alone. Members connected only through a
// spouse edge are not blood relations.
func bloodRelations(adjacencies map[int64]*adjacency, rootID int64) map[int64]bool {
	blood := map[int64]bool{rootID: true}
	queue := []int64{rootID}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		adj, ok := adjacencies[current]
		if !ok {
			continue
		}
		for _, next := range append(append([]int64{}, adj.parents...), adj.children...) {
			if !blood[next] {
				blood[next] = true
				queue = append(queue, next)
			}
		}
	}
	return blood
}

// visibleSet returns the member ids the projection materializes. Without a
// focal member the whole tree is visible; with one, only members within
// MaxDepth hops over parent/child/spouse edges are.
func visibleSet(adjacencies map[int64]*adjacency, siblings map[int64][]int64, opts ProjectionOptions) map[int64]bool {
	visible := make(map[int64]bool, len(adjacencies))

	if opts.FocalMemberID == 0 {
		for memberID := range adjacencies {
			visible[memberID] = true
		}
		return visible
	}

	type hop struct {
		id    int64
		depth int
	}
	visible[opts.FocalMemberID] = true
	queue := []hop{{opts.FocalMemberID, 0}}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		// >= so a negative depth never widens the neighborhood
		if current.depth >= opts.MaxDepth {
			continue
		}
		adj, ok := adjacencies[current.id]
		if !ok {
			continue
		}
		neighbors := append(append(append([]int64{}, adj.parents...), adj.children...), adj.spouses...)
		neighbors = append(neighbors, siblings[current.id]...)
		for _, next := range neighbors {
			if !visible[next] {
				visible[next] = true
				queue = append(queue, hop{next, current.depth + 1})
			}
		}
	}
	return visible
}

// hasHiddenNeighbor reports whether any of the node's relatives fall
// outside the visible set
func hasHiddenNeighbor(node *models.TreeNode, visible map[int64]bool) bool {
	for _, list := range [][]int64{node.Parents, node.Children, node.Siblings, node.Spouses} {
		for _, id := range list {
			if !visible[id] {
				return true
			}
		}
	}
	return false
}

// rootMember resolves the blood-relation root, defaulting to the member
// with the lowest id
func rootMember(members []models.Member, rootID int64) int64 {
	if rootID != 0 {
		return rootID
	}
	min := members[0].ID
	for _, m := range members[1:] {
		if m.ID < min {
			min = m.ID
		}
	}
	return min
}

func sortedUnique(ids []int64) []int64 {
	if len(ids) == 0 {
		return nil
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := ids[:1]
	for _, id := range ids[1:] {
		if id != out[len(out)-1] {
			out = append(out, id)
		}
	}
	return out
}
