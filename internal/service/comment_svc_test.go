package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LiveStak-Brad/mylivelinks-sub002/internal/model"
)

func ids(nodes []model.CommentNode) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
	}
	return out
}

func newThread(api CommentAPI, viewerID string) *CommentThread {
	store := NewReactionStore(&fakeReactionAPI{}, viewerID, zerolog.Nop(), nil)
	return NewCommentThread(api, store, "v1", viewerID, model.SortNewest, zerolog.Nop(), nil)
}

func TestCommentAssembler_LoadThread(t *testing.T) {
	api := &fakeCommentAPI{
		topLevel: func(ctx context.Context, videoID string, sort model.CommentSort, limit int) ([]model.CommentRow, error) {
			assert.Equal(t, model.SortNewest, sort)
			assert.Equal(t, CommentPageSize, limit)
			return []model.CommentRow{
				row("c2", "bob", "second", 0, time.Minute, ""),
				row("c1", "alice", "first", 3, time.Hour, ""),
			}, nil
		},
		replies: func(ctx context.Context, videoID string, parentIDs []string) ([]model.CommentRow, error) {
			assert.Equal(t, []string{"c2", "c1"}, parentIDs)
			return []model.CommentRow{
				row("r1", "carol", "old reply", 0, 50*time.Minute, "c1"),
				row("r2", "dave", "new reply", 0, 10*time.Minute, "c1"),
			}, nil
		},
		reactions: func(ctx context.Context, viewerID string, commentIDs []string) (model.ViewerCommentReactions, error) {
			assert.ElementsMatch(t, []string{"c1", "c2", "r1", "r2"}, commentIDs)
			return model.ViewerCommentReactions{Liked: []string{"r2"}, Disliked: []string{"c2"}}, nil
		},
	}

	nodes, err := NewCommentAssembler(api).LoadThread(context.Background(), "v1", model.SortNewest, "u1")
	require.NoError(t, err)

	require.Equal(t, []string{"c2", "c1"}, ids(nodes))
	assert.Empty(t, nodes[0].Replies)
	assert.True(t, nodes[0].Disliked)
	assert.Equal(t, []string{"r1", "r2"}, ids(nodes[1].Replies))
	assert.False(t, nodes[1].Replies[0].Liked)
	assert.True(t, nodes[1].Replies[1].Liked)
}

func TestCommentAssembler_SignedOutHasNoFlags(t *testing.T) {
	api := &fakeCommentAPI{
		topLevel: func(ctx context.Context, videoID string, sort model.CommentSort, limit int) ([]model.CommentRow, error) {
			return []model.CommentRow{row("c1", "alice", "hi", 0, time.Minute, "")}, nil
		},
		reactions: func(ctx context.Context, viewerID string, commentIDs []string) (model.ViewerCommentReactions, error) {
			t.Fatal("viewer reactions fetched for signed-out viewer")
			return model.ViewerCommentReactions{}, nil
		},
	}

	nodes, err := NewCommentAssembler(api).LoadThread(context.Background(), "v1", model.SortTop, "")
	require.NoError(t, err)
	want := []model.CommentNode{{
		ID:             "c1",
		AuthorID:       "alice",
		AuthorUsername: "alice",
		AuthorDisplay:  "alice",
		Text:           "hi",
		CreatedAt:      t0.Add(-time.Minute),
		Replies:        []model.CommentNode{},
	}}
	if diff := cmp.Diff(want, nodes); diff != "" {
		t.Errorf("LoadThread() mismatch (-want +got):\n%s", diff)
	}
}

func TestCommentAssembler_InvalidSort(t *testing.T) {
	_, err := NewCommentAssembler(&fakeCommentAPI{}).LoadThread(context.Background(), "v1", "oldest", "")
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "sort", valErr.Field)
}

func TestCommentThread_SubmitReplyToReplyIsReparented(t *testing.T) {
	var gotParent *string
	api := &fakeCommentAPI{
		topLevel: func(ctx context.Context, videoID string, sort model.CommentSort, limit int) ([]model.CommentRow, error) {
			return []model.CommentRow{row("c1", "alice", "top", 0, time.Hour, "")}, nil
		},
		replies: func(ctx context.Context, videoID string, parentIDs []string) ([]model.CommentRow, error) {
			return []model.CommentRow{row("r1", "bob", "reply", 0, time.Minute, "c1")}, nil
		},
		create: func(ctx context.Context, videoID, viewerID, text string, parentID *string) (model.CommentRow, error) {
			gotParent = parentID
			assert.Equal(t, "@bob hello", text)
			return model.CommentRow{ID: "r2", AuthorID: viewerID, AuthorUsername: "me", Text: text, CreatedAt: t0}, nil
		},
	}
	th := newThread(api, "u1")
	require.NoError(t, th.Load(context.Background()))

	parent, prefill, err := th.ReplyPrefill("r1")
	require.NoError(t, err)
	assert.Equal(t, "c1", parent)
	assert.Equal(t, "@bob ", prefill)

	node, err := th.Submit(context.Background(), "  "+prefill+"hello ", "r1")
	require.NoError(t, err)
	require.NotNil(t, gotParent)
	assert.Equal(t, "c1", *gotParent)
	assert.Equal(t, "c1", *node.ParentID)

	nodes := th.Nodes()
	require.Len(t, nodes, 1)
	assert.Equal(t, []string{"r1", "r2"}, ids(nodes[0].Replies))
}

func TestCommentThread_SubmitTopLevelIsPrepended(t *testing.T) {
	api := &fakeCommentAPI{
		topLevel: func(ctx context.Context, videoID string, sort model.CommentSort, limit int) ([]model.CommentRow, error) {
			return []model.CommentRow{row("c1", "alice", "top", 0, time.Hour, "")}, nil
		},
		create: func(ctx context.Context, videoID, viewerID, text string, parentID *string) (model.CommentRow, error) {
			assert.Nil(t, parentID)
			return model.CommentRow{ID: "c2", Text: text, CreatedAt: t0}, nil
		},
	}
	th := newThread(api, "u1")
	require.NoError(t, th.Load(context.Background()))

	node, err := th.Submit(context.Background(), "new", "")
	require.NoError(t, err)
	assert.Equal(t, "u1", node.AuthorID)
	assert.Equal(t, "unknown", node.AuthorUsername)
	assert.Equal(t, []string{"c2", "c1"}, ids(th.Nodes()))
}

func TestCommentThread_SubmitValidation(t *testing.T) {
	api := &fakeCommentAPI{
		create: func(ctx context.Context, videoID, viewerID, text string, parentID *string) (model.CommentRow, error) {
			t.Fatal("create called")
			return model.CommentRow{}, nil
		},
	}

	_, err := newThread(api, "").Submit(context.Background(), "hi", "")
	require.ErrorIs(t, err, ErrAuthRequired)

	th := newThread(api, "u1")
	_, err = th.Submit(context.Background(), " \n\t ", "")
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)

	_, err = th.Submit(context.Background(), "hi", "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCommentThread_EditAndDeleteRequireAuthor(t *testing.T) {
	api := &fakeCommentAPI{
		topLevel: func(ctx context.Context, videoID string, sort model.CommentSort, limit int) ([]model.CommentRow, error) {
			return []model.CommentRow{
				row("c1", "u1", "mine", 0, time.Minute, ""),
				row("c2", "u2", "theirs", 0, time.Hour, ""),
			}, nil
		},
		replies: func(ctx context.Context, videoID string, parentIDs []string) ([]model.CommentRow, error) {
			return []model.CommentRow{row("r1", "u2", "reply", 0, time.Second, "c1")}, nil
		},
		edit: func(ctx context.Context, commentID, viewerID, text string) error {
			assert.Equal(t, "c1", commentID)
			return nil
		},
		del: func(ctx context.Context, commentID, viewerID string) error {
			assert.Equal(t, "c1", commentID)
			return nil
		},
	}
	th := newThread(api, "u1")
	require.NoError(t, th.Load(context.Background()))

	require.ErrorIs(t, th.Edit(context.Background(), "c2", "hijack"), ErrForbidden)
	require.ErrorIs(t, th.Delete(context.Background(), "r1"), ErrForbidden)
	require.ErrorIs(t, th.Edit(context.Background(), "nope", "x"), ErrNotFound)

	require.NoError(t, th.Edit(context.Background(), "c1", " edited "))
	assert.Equal(t, "edited", th.Nodes()[0].Text)

	require.NoError(t, th.Delete(context.Background(), "c1"))
	assert.Equal(t, []string{"c2"}, ids(th.Nodes()))
	assert.False(t, th.Contains("r1"))
}

func TestCommentThread_EditFailureKeepsText(t *testing.T) {
	api := &fakeCommentAPI{
		topLevel: func(ctx context.Context, videoID string, sort model.CommentSort, limit int) ([]model.CommentRow, error) {
			return []model.CommentRow{row("c1", "u1", "mine", 0, time.Minute, "")}, nil
		},
		edit: func(ctx context.Context, commentID, viewerID, text string) error {
			return errors.New("timeout")
		},
	}
	th := newThread(api, "u1")
	require.NoError(t, th.Load(context.Background()))

	err := th.Edit(context.Background(), "c1", "changed")
	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, "mine", th.Nodes()[0].Text)
}

func TestCommentThread_StaleSortLoadDiscarded(t *testing.T) {
	g := newGate()
	api := &fakeCommentAPI{
		topLevel: func(ctx context.Context, videoID string, sort model.CommentSort, limit int) ([]model.CommentRow, error) {
			if sort == model.SortTop {
				if err := g.wait(ctx); err != nil {
					return nil, err
				}
				return []model.CommentRow{row("top", "a", "popular", 99, time.Hour, "")}, nil
			}
			return []model.CommentRow{row("new", "b", "fresh", 0, time.Second, "")}, nil
		},
	}
	th := newThread(api, "")

	done := make(chan error, 1)
	go func() { done <- th.SetSort(context.Background(), model.SortTop) }()
	<-g.entered

	require.NoError(t, th.SetSort(context.Background(), model.SortNewest))
	close(g.release)
	require.NoError(t, <-done)

	assert.Equal(t, model.SortNewest, th.Sort())
	assert.Equal(t, []string{"new"}, ids(th.Nodes()))
}

func TestCommentThread_NodesOverlayReactionState(t *testing.T) {
	api := &fakeCommentAPI{
		topLevel: func(ctx context.Context, videoID string, sort model.CommentSort, limit int) ([]model.CommentRow, error) {
			return []model.CommentRow{row("c1", "alice", "hi", 2, time.Minute, "")}, nil
		},
	}
	store := NewReactionStore(&fakeReactionAPI{}, "u1", zerolog.Nop(), nil)
	th := NewCommentThread(api, store, "v1", "u1", model.SortTop, zerolog.Nop(), nil)
	require.NoError(t, th.Load(context.Background()))

	_, err := store.ToggleLike(context.Background(), model.CommentTarget("c1"))
	require.NoError(t, err)

	n := th.Nodes()[0]
	assert.True(t, n.Liked)
	assert.Equal(t, int64(3), n.LikeCount)

	// Returned trees are copies.
	n.Text = "mutated"
	assert.Equal(t, "hi", th.Nodes()[0].Text)
}
