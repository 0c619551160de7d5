package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/LiveStak-Brad/mylivelinks-sub002/internal/model"
)

// CommentReactionChannel is the NOTIFY channel carrying the id of a comment
// whose like or dislike rows changed.
const CommentReactionChannel = "comment_reaction_changes"

type ReactionRepo struct {
	pool *pgxpool.Pool
}

func NewReactionRepo(pool *pgxpool.Pool) *ReactionRepo {
	return &ReactionRepo{pool: pool}
}

type reactionTableRef struct {
	table  string
	column string
}

// reactionTable maps a target kind and reaction to the row table holding it.
// Table names come from this fixed set only, so they are safe to format into SQL.
func reactionTable(kind model.TargetKind, reaction model.ReactionKind) (reactionTableRef, error) {
	switch {
	case kind == model.TargetVideo && reaction == model.ReactionLike:
		return reactionTableRef{"video_likes", "video_id"}, nil
	case kind == model.TargetVideo && reaction == model.ReactionDislike:
		return reactionTableRef{"video_dislikes", "video_id"}, nil
	case kind == model.TargetComment && reaction == model.ReactionLike:
		return reactionTableRef{"video_comment_likes", "comment_id"}, nil
	case kind == model.TargetComment && reaction == model.ReactionDislike:
		return reactionTableRef{"video_comment_dislikes", "comment_id"}, nil
	}
	return reactionTableRef{}, fmt.Errorf("unknown reaction %q on %q", reaction, kind)
}

func reactionTables(kind model.TargetKind) (like, dislike reactionTableRef, err error) {
	if like, err = reactionTable(kind, model.ReactionLike); err != nil {
		return
	}
	dislike, err = reactionTable(kind, model.ReactionDislike)
	return
}

// FetchReactionAggregate counts like and dislike rows for a target.
func (r *ReactionRepo) FetchReactionAggregate(ctx context.Context, target model.ReactionTarget) (model.ReactionAggregate, error) {
	like, dislike, err := reactionTables(target.Kind)
	if err != nil {
		return model.ReactionAggregate{}, err
	}
	query := fmt.Sprintf(`
		SELECT
			(SELECT COUNT(*) FROM %s WHERE %s = $1),
			(SELECT COUNT(*) FROM %s WHERE %s = $1)`,
		like.table, like.column, dislike.table, dislike.column)

	var agg model.ReactionAggregate
	err = r.pool.QueryRow(ctx, query, target.ID).Scan(&agg.Likes, &agg.Dislikes)
	return agg, err
}

// FetchViewerReaction returns the viewer's rows for a target, or nil if the
// viewer has neither.
func (r *ReactionRepo) FetchViewerReaction(ctx context.Context, target model.ReactionTarget, viewerID string) (*model.ViewerReaction, error) {
	like, dislike, err := reactionTables(target.Kind)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`
		SELECT
			EXISTS (SELECT 1 FROM %s WHERE %s = $1 AND user_id = $2),
			EXISTS (SELECT 1 FROM %s WHERE %s = $1 AND user_id = $2)`,
		like.table, like.column, dislike.table, dislike.column)

	var vr model.ViewerReaction
	if err := r.pool.QueryRow(ctx, query, target.ID, viewerID).Scan(&vr.Liked, &vr.Disliked); err != nil {
		return nil, err
	}
	if !vr.Liked && !vr.Disliked {
		return nil, nil
	}
	return &vr, nil
}

// UpsertReaction inserts the viewer's row; an existing row is left as is.
func (r *ReactionRepo) UpsertReaction(ctx context.Context, target model.ReactionTarget, viewerID string, kind model.ReactionKind) error {
	ref, err := reactionTable(target.Kind, kind)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, user_id) VALUES ($1, $2)
		ON CONFLICT (%s, user_id) DO NOTHING`,
		ref.table, ref.column, ref.column)
	return r.write(ctx, target, query, target.ID, viewerID)
}

// DeleteReaction removes the viewer's row. Deleting a missing row succeeds.
func (r *ReactionRepo) DeleteReaction(ctx context.Context, target model.ReactionTarget, viewerID string, kind model.ReactionKind) error {
	ref, err := reactionTable(target.Kind, kind)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 AND user_id = $2`, ref.table, ref.column)
	return r.write(ctx, target, query, target.ID, viewerID)
}

// write runs a row change. Comment changes also notify the count worker in
// the same transaction, so the notification is only delivered on commit.
func (r *ReactionRepo) write(ctx context.Context, target model.ReactionTarget, query string, args ...any) error {
	if target.Kind != model.TargetComment {
		_, err := r.pool.Exec(ctx, query, args...)
		return err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `SELECT pg_notify($1, $2)`, CommentReactionChannel, target.ID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
