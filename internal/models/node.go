package models

import "time"

// TreeNode is the projected view of one member: its profile display
// attributes plus adjacency resolved from the flat edge set. Siblings are
// never stored; they are derived at projection time from shared parents.
type TreeNode struct {
	MemberID    int64
	DisplayName string
	FirstName   string
	LastName    string
	Gender      string
	BirthDate   *time.Time
	DeathDate   *time.Time
	ImageURL    string
	IsPending   bool

	// Adjacency lists hold member ids, sorted ascending so that projecting
	// the same edge set twice yields identical output.
	Parents  []int64
	Children []int64
	Siblings []int64
	Spouses  []int64

	// IsBloodRelation is true when the member is reachable from the
	// projection root through parent/child edges alone, false when the
	// member is connected only through a spouse edge.
	IsBloodRelation bool

	// HasHiddenSubtree is true when the member has at least one parent,
	// child, sibling or spouse that the current projection pass did not
	// materialize. Used by renderers for progressive disclosure.
	HasHiddenSubtree bool
}

// HasRelatives reports whether the node has any resolved adjacency
func (n *TreeNode) HasRelatives() bool {
	return len(n.Parents)+len(n.Children)+len(n.Siblings)+len(n.Spouses) > 0
}
