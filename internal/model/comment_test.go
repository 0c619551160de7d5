package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeFromRow(t *testing.T) {
	parent := "p1"
	n := NodeFromRow(CommentRow{ID: "c1", AuthorID: "u1", Text: "hi", LikeCount: 2, ParentID: &parent})
	assert.Equal(t, "unknown", n.AuthorUsername)
	assert.Equal(t, "unknown", n.AuthorDisplay)
	assert.True(t, n.IsReply())
	assert.NotNil(t, n.Replies)

	n = NodeFromRow(CommentRow{ID: "c2", AuthorUsername: "alice"})
	assert.Equal(t, "alice", n.AuthorDisplay)
	assert.False(t, n.IsReply())
}

func TestCommentNode_Clone(t *testing.T) {
	parent := "top"
	orig := CommentNode{ID: "top", Replies: []CommentNode{{ID: "r1", ParentID: &parent, Text: "reply"}}}

	c := orig.Clone()
	c.Replies[0].Text = "changed"
	*c.Replies[0].ParentID = "other"

	require.Len(t, orig.Replies, 1)
	assert.Equal(t, "reply", orig.Replies[0].Text)
	assert.Equal(t, "top", *orig.Replies[0].ParentID)
}

func TestReactionKind_Opposite(t *testing.T) {
	assert.Equal(t, ReactionDislike, ReactionLike.Opposite())
	assert.Equal(t, ReactionLike, ReactionDislike.Opposite())
	assert.True(t, TargetComment.Valid())
	assert.False(t, TargetKind("channel").Valid())
	assert.False(t, CommentSort("oldest").Valid())
}
