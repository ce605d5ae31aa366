package models

import "time"

// RelationshipType is the kind of directed edge between two members.
type RelationshipType string

const (
	RelationshipParent RelationshipType = "parent" // from is a parent of to
	RelationshipChild  RelationshipType = "child"  // from is a child of to
	RelationshipSpouse RelationshipType = "spouse"
)

// inverseTypes maps each relationship type to the type of its mandatory
// symmetric counterpart. Every stored edge (from, to, type) must be paired
// with (to, from, inverse).
var inverseTypes = map[RelationshipType]RelationshipType{
	RelationshipParent: RelationshipChild,
	RelationshipChild:  RelationshipParent,
	RelationshipSpouse: RelationshipSpouse,
}

// Inverse returns the type of the symmetric counterpart edge. The second
// return value is false for unknown types.
func (t RelationshipType) Inverse() (RelationshipType, bool) {
	inv, ok := inverseTypes[t]
	return inv, ok
}

// IsValid reports whether t is a known relationship type
func (t RelationshipType) IsValid() bool {
	_, ok := inverseTypes[t]
	return ok
}

// Relationship is a directed typed edge between two members of the same
// tree. (A, B, parent) means "A is a parent of B". Edges are unique per
// (tree, from, to, type) and are only ever written through the
// relationship service, which maintains the inverse pair.
type Relationship struct {
	ID           int64
	TreeID       int64
	FromMemberID int64
	ToMemberID   int64
	Type         RelationshipType
	CreatedAt    time.Time
}

// InverseOf reports whether r is the symmetric counterpart of other
func (r *Relationship) InverseOf(other *Relationship) bool {
	inv, ok := other.Type.Inverse()
	if !ok {
		return false
	}
	return r.TreeID == other.TreeID &&
		r.FromMemberID == other.ToMemberID &&
		r.ToMemberID == other.FromMemberID &&
		r.Type == inv
}
