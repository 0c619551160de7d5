package model

import "time"

// CommentSort selects the ordering of top-level comments.
type CommentSort string

const (
	SortTop    CommentSort = "top"
	SortNewest CommentSort = "newest"
)

// Valid reports whether s is a known sort mode.
func (s CommentSort) Valid() bool {
	return s == SortTop || s == SortNewest
}

// CommentRow is a video_comments row joined with its author profile.
type CommentRow struct {
	ID             string
	VideoID        string
	AuthorID       string
	AuthorUsername string
	AuthorDisplay  string
	AuthorAvatar   string
	Text           string
	LikeCount      int64
	DislikeCount   int64
	CreatedAt      time.Time
	ParentID       *string
}

// CommentNode is one comment in a two-level thread. Replies of a reply are
// always attached to the top-level ancestor, so Replies is empty below depth 1.
type CommentNode struct {
	ID             string        `json:"id"`
	AuthorID       string        `json:"authorId"`
	AuthorUsername string        `json:"authorUsername"`
	AuthorDisplay  string        `json:"authorDisplay"`
	AuthorAvatar   string        `json:"authorAvatar,omitempty"`
	Text           string        `json:"text"`
	CreatedAt      time.Time     `json:"createdAt"`
	LikeCount      int64         `json:"likeCount"`
	DislikeCount   int64         `json:"dislikeCount"`
	ParentID       *string       `json:"parentId"`
	Liked          bool          `json:"liked"`
	Disliked       bool          `json:"disliked"`
	Replies        []CommentNode `json:"replies"`
}

// IsReply reports whether the node sits under a top-level comment.
func (n *CommentNode) IsReply() bool {
	return n.ParentID != nil
}

// NodeFromRow converts a raw comment row into a thread node with no replies.
func NodeFromRow(r CommentRow) CommentNode {
	username := r.AuthorUsername
	if username == "" {
		username = "unknown"
	}
	display := r.AuthorDisplay
	if display == "" {
		display = username
	}
	return CommentNode{
		ID:             r.ID,
		AuthorID:       r.AuthorID,
		AuthorUsername: username,
		AuthorDisplay:  display,
		AuthorAvatar:   r.AuthorAvatar,
		Text:           r.Text,
		CreatedAt:      r.CreatedAt,
		LikeCount:      r.LikeCount,
		DislikeCount:   r.DislikeCount,
		ParentID:       r.ParentID,
		Replies:        []CommentNode{},
	}
}

// Clone returns a deep copy of the node and its replies.
func (n CommentNode) Clone() CommentNode {
	out := n
	if n.ParentID != nil {
		p := *n.ParentID
		out.ParentID = &p
	}
	out.Replies = make([]CommentNode, len(n.Replies))
	for i, r := range n.Replies {
		out.Replies[i] = r.Clone()
	}
	return out
}
