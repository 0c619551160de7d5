package service

import (
	"context"

	"github.com/LiveStak-Brad/mylivelinks-sub002/internal/model"
)

// ReactionAPI is the remote row API for like/dislike rows.
type ReactionAPI interface {
	FetchReactionAggregate(ctx context.Context, target model.ReactionTarget) (model.ReactionAggregate, error)
	// FetchViewerReaction returns nil when the viewer has no row for the target.
	FetchViewerReaction(ctx context.Context, target model.ReactionTarget, viewerID string) (*model.ViewerReaction, error)
	UpsertReaction(ctx context.Context, target model.ReactionTarget, viewerID string, kind model.ReactionKind) error
	DeleteReaction(ctx context.Context, target model.ReactionTarget, viewerID string, kind model.ReactionKind) error
}

// CommentAPI is the remote row API for video comments.
type CommentAPI interface {
	FetchTopLevelComments(ctx context.Context, videoID string, sort model.CommentSort, limit int) ([]model.CommentRow, error)
	FetchReplies(ctx context.Context, videoID string, parentIDs []string) ([]model.CommentRow, error)
	FetchViewerCommentReactions(ctx context.Context, viewerID string, commentIDs []string) (model.ViewerCommentReactions, error)
	CreateComment(ctx context.Context, videoID, viewerID, text string, parentID *string) (model.CommentRow, error)
	EditComment(ctx context.Context, commentID, viewerID, text string) error
	DeleteComment(ctx context.Context, commentID, viewerID string) error
}

// ViewCountSource is one collection that may own a video's view count.
// FetchViewCount returns nil when the collection has no row for the video.
type ViewCountSource interface {
	FetchViewCount(ctx context.Context, videoID string) (*int64, error)
}

// ViewIncrementer records one view and returns the authoritative count.
type ViewIncrementer interface {
	IncrementViewCount(ctx context.Context, videoID string) (int64, error)
}

// ContentSource produces the raw rows of one merge input.
type ContentSource interface {
	Tag() string
	FetchRows(ctx context.Context, ownerID string) ([]model.SourceRow, error)
}
