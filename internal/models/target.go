package models

import (
	"errors"
	"fmt"
)

// ContentKind discriminates the two content tables.
type ContentKind string

const (
	ContentPost ContentKind = "post"
	ContentReel ContentKind = "reel"
)

// Valid reports whether k names a known content table.
func (k ContentKind) Valid() bool {
	return k == ContentPost || k == ContentReel
}

// TargetKind discriminates what a relation edge points at.
type TargetKind string

const (
	TargetPrincipal TargetKind = "user"
	TargetPost      TargetKind = TargetKind(ContentPost)
	TargetReel      TargetKind = TargetKind(ContentReel)
)

var (
	ErrMissingTarget   = errors.New("either post_id or reel_id must be provided")
	ErrAmbiguousTarget = errors.New("cannot provide both post_id and reel_id")
	ErrInvalidTarget   = errors.New("invalid target reference")
)

// TargetRef is either Principal(id) or Content(kind, id). The zero value is
// not a valid target; build one with PrincipalTarget, ContentTarget or
// TargetFromRefs.
type TargetRef struct {
	kind TargetKind
	id   uint
}

// PrincipalTarget references a user.
func PrincipalTarget(id uint) (TargetRef, error) {
	if id == 0 {
		return TargetRef{}, ErrInvalidTarget
	}
	return TargetRef{kind: TargetPrincipal, id: id}, nil
}

// ContentTarget references a post or a reel.
func ContentTarget(kind ContentKind, id uint) (TargetRef, error) {
	if !kind.Valid() || id == 0 {
		return TargetRef{}, ErrInvalidTarget
	}
	return TargetRef{kind: TargetKind(kind), id: id}, nil
}

// TargetFromRefs builds a content target from the mutually exclusive
// post/reel pair used by the request bodies. Exactly one must be set.
func TargetFromRefs(postID, reelID *uint) (TargetRef, error) {
	hasPost := postID != nil && *postID != 0
	hasReel := reelID != nil && *reelID != 0
	switch {
	case hasPost && hasReel:
		return TargetRef{}, ErrAmbiguousTarget
	case hasPost:
		return ContentTarget(ContentPost, *postID)
	case hasReel:
		return ContentTarget(ContentReel, *reelID)
	default:
		return TargetRef{}, ErrMissingTarget
	}
}

func (t TargetRef) Kind() TargetKind { return t.kind }
func (t TargetRef) ID() uint         { return t.id }
func (t TargetRef) IsZero() bool     { return t.kind == "" || t.id == 0 }
func (t TargetRef) IsPrincipal() bool {
	return t.kind == TargetPrincipal && t.id != 0
}

func (t TargetRef) IsContent() bool {
	return (t.kind == TargetPost || t.kind == TargetReel) && t.id != 0
}

// ContentKind returns the content table for content targets and "" otherwise.
func (t TargetRef) ContentKind() ContentKind {
	if !t.IsContent() {
		return ""
	}
	return ContentKind(t.kind)
}

func (t TargetRef) String() string {
	return fmt.Sprintf("%s:%d", t.kind, t.id)
}

// ContentRefRequest is the body shape shared by toggleLike and toggleBookmark.
type ContentRefRequest struct {
	PostID *uint `json:"post_id,omitempty"`
	ReelID *uint `json:"reel_id,omitempty"`
}

// Target resolves the request into a content target.
func (r ContentRefRequest) Target() (TargetRef, error) {
	return TargetFromRefs(r.PostID, r.ReelID)
}
