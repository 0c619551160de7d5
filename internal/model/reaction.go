package model

// TargetKind identifies what kind of entity a reaction is attached to.
type TargetKind string

const (
	TargetVideo   TargetKind = "video"
	TargetComment TargetKind = "comment"
)

// Valid reports whether k is a known target kind.
func (k TargetKind) Valid() bool {
	return k == TargetVideo || k == TargetComment
}

// ReactionKind is either a like or a dislike.
type ReactionKind string

const (
	ReactionLike    ReactionKind = "like"
	ReactionDislike ReactionKind = "dislike"
)

// Opposite returns the mutually exclusive counterpart of k.
func (k ReactionKind) Opposite() ReactionKind {
	if k == ReactionLike {
		return ReactionDislike
	}
	return ReactionLike
}

// ReactionTarget identifies a likeable entity.
type ReactionTarget struct {
	ID   string     `json:"targetId"`
	Kind TargetKind `json:"targetKind"`
}

// VideoTarget is shorthand for a video reaction target.
func VideoTarget(id string) ReactionTarget {
	return ReactionTarget{ID: id, Kind: TargetVideo}
}

// CommentTarget is shorthand for a comment reaction target.
func CommentTarget(id string) ReactionTarget {
	return ReactionTarget{ID: id, Kind: TargetComment}
}

// ReactionStatus tracks whether a reaction has a mutation in flight.
type ReactionStatus string

const (
	StatusIdle    ReactionStatus = "idle"
	StatusPending ReactionStatus = "pending"
	StatusError   ReactionStatus = "error"
)

// ReactionState is the viewer's reaction to one target plus its aggregate counts.
type ReactionState struct {
	Target       ReactionTarget `json:"target"`
	Liked        bool           `json:"liked"`
	Disliked     bool           `json:"disliked"`
	LikeCount    int64          `json:"likeCount"`
	DislikeCount int64          `json:"dislikeCount"`
	Status       ReactionStatus `json:"status"`
	Error        string         `json:"error,omitempty"`
}

// ReactionAggregate holds the server-side counts for a target.
type ReactionAggregate struct {
	Likes    int64
	Dislikes int64
}

// ViewerReaction is the viewer's own reaction rows for a target.
type ViewerReaction struct {
	Liked    bool
	Disliked bool
}

// ViewerCommentReactions lists the comment ids a viewer has liked or disliked.
type ViewerCommentReactions struct {
	Liked    []string
	Disliked []string
}
