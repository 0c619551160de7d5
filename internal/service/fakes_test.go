package service

import (
	"context"
	"sync"
	"time"

	"github.com/LiveStak-Brad/mylivelinks-sub002/internal/model"
)

// fakeReactionAPI is a ReactionAPI whose methods are swapped per test. A nil
// func behaves like an empty, healthy backend.
type fakeReactionAPI struct {
	aggregate func(ctx context.Context, target model.ReactionTarget) (model.ReactionAggregate, error)
	viewer    func(ctx context.Context, target model.ReactionTarget, viewerID string) (*model.ViewerReaction, error)
	upsert    func(ctx context.Context, target model.ReactionTarget, viewerID string, kind model.ReactionKind) error
	delete    func(ctx context.Context, target model.ReactionTarget, viewerID string, kind model.ReactionKind) error

	mu    sync.Mutex
	calls []string
}

func (f *fakeReactionAPI) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeReactionAPI) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeReactionAPI) FetchReactionAggregate(ctx context.Context, target model.ReactionTarget) (model.ReactionAggregate, error) {
	f.record("aggregate " + target.ID)
	if f.aggregate == nil {
		return model.ReactionAggregate{}, nil
	}
	return f.aggregate(ctx, target)
}

func (f *fakeReactionAPI) FetchViewerReaction(ctx context.Context, target model.ReactionTarget, viewerID string) (*model.ViewerReaction, error) {
	f.record("viewer " + target.ID)
	if f.viewer == nil {
		return nil, nil
	}
	return f.viewer(ctx, target, viewerID)
}

func (f *fakeReactionAPI) UpsertReaction(ctx context.Context, target model.ReactionTarget, viewerID string, kind model.ReactionKind) error {
	f.record("upsert " + string(kind) + " " + target.ID)
	if f.upsert == nil {
		return nil
	}
	return f.upsert(ctx, target, viewerID, kind)
}

func (f *fakeReactionAPI) DeleteReaction(ctx context.Context, target model.ReactionTarget, viewerID string, kind model.ReactionKind) error {
	f.record("delete " + string(kind) + " " + target.ID)
	if f.delete == nil {
		return nil
	}
	return f.delete(ctx, target, viewerID, kind)
}

type fakeCommentAPI struct {
	topLevel  func(ctx context.Context, videoID string, sort model.CommentSort, limit int) ([]model.CommentRow, error)
	replies   func(ctx context.Context, videoID string, parentIDs []string) ([]model.CommentRow, error)
	reactions func(ctx context.Context, viewerID string, commentIDs []string) (model.ViewerCommentReactions, error)
	create    func(ctx context.Context, videoID, viewerID, text string, parentID *string) (model.CommentRow, error)
	edit      func(ctx context.Context, commentID, viewerID, text string) error
	del       func(ctx context.Context, commentID, viewerID string) error
}

func (f *fakeCommentAPI) FetchTopLevelComments(ctx context.Context, videoID string, sort model.CommentSort, limit int) ([]model.CommentRow, error) {
	if f.topLevel == nil {
		return nil, nil
	}
	return f.topLevel(ctx, videoID, sort, limit)
}

func (f *fakeCommentAPI) FetchReplies(ctx context.Context, videoID string, parentIDs []string) ([]model.CommentRow, error) {
	if f.replies == nil {
		return nil, nil
	}
	return f.replies(ctx, videoID, parentIDs)
}

func (f *fakeCommentAPI) FetchViewerCommentReactions(ctx context.Context, viewerID string, commentIDs []string) (model.ViewerCommentReactions, error) {
	if f.reactions == nil {
		return model.ViewerCommentReactions{}, nil
	}
	return f.reactions(ctx, viewerID, commentIDs)
}

func (f *fakeCommentAPI) CreateComment(ctx context.Context, videoID, viewerID, text string, parentID *string) (model.CommentRow, error) {
	return f.create(ctx, videoID, viewerID, text, parentID)
}

func (f *fakeCommentAPI) EditComment(ctx context.Context, commentID, viewerID, text string) error {
	if f.edit == nil {
		return nil
	}
	return f.edit(ctx, commentID, viewerID, text)
}

func (f *fakeCommentAPI) DeleteComment(ctx context.Context, commentID, viewerID string) error {
	if f.del == nil {
		return nil
	}
	return f.del(ctx, commentID, viewerID)
}

type viewSourceFunc func(ctx context.Context, videoID string) (*int64, error)

func (f viewSourceFunc) FetchViewCount(ctx context.Context, videoID string) (*int64, error) {
	return f(ctx, videoID)
}

type incrementerFunc func(ctx context.Context, videoID string) (int64, error)

func (f incrementerFunc) IncrementViewCount(ctx context.Context, videoID string) (int64, error) {
	return f(ctx, videoID)
}

type fakeContentSource struct {
	tag  string
	rows func(ctx context.Context, ownerID string) ([]model.SourceRow, error)

	mu    sync.Mutex
	calls int
}

func (f *fakeContentSource) Tag() string { return f.tag }

func (f *fakeContentSource) FetchRows(ctx context.Context, ownerID string) ([]model.SourceRow, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.rows(ctx, ownerID)
}

func (f *fakeContentSource) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func ptr[T any](v T) *T { return &v }

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func row(id, author, text string, likes int64, age time.Duration, parent string) model.CommentRow {
	r := model.CommentRow{
		ID:             id,
		VideoID:        "v1",
		AuthorID:       author,
		AuthorUsername: author,
		Text:           text,
		LikeCount:      likes,
		CreatedAt:      t0.Add(-age),
	}
	if parent != "" {
		r.ParentID = ptr(parent)
	}
	return r
}

// gate blocks a fake call until released, so tests can observe state while
// a remote call is in flight.
type gate struct {
	entered chan struct{}
	release chan struct{}
}

func newGate() *gate {
	return &gate{entered: make(chan struct{}, 1), release: make(chan struct{})}
}

func (g *gate) wait(ctx context.Context) error {
	g.entered <- struct{}{}
	select {
	case <-g.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
