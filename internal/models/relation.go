package models

// RelationType names the three toggleable edges.
type RelationType string

const (
	RelationFollow   RelationType = "follow"
	RelationLike     RelationType = "like"
	RelationBookmark RelationType = "bookmark"
)

// Accepts reports whether the relation can point at the given target.
func (r RelationType) Accepts(t TargetRef) bool {
	switch r {
	case RelationFollow:
		return t.IsPrincipal()
	case RelationLike, RelationBookmark:
		return t.IsContent()
	default:
		return false
	}
}
