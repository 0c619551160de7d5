package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/LiveStak-Brad/mylivelinks-sub002/internal/model"
)

type CommentRepo struct {
	pool *pgxpool.Pool
}

func NewCommentRepo(pool *pgxpool.Pool) *CommentRepo {
	return &CommentRepo{pool: pool}
}

const commentSelect = `
	SELECT c.id, c.video_id, c.author_id,
	       COALESCE(p.username, ''), COALESCE(p.display_name, ''), COALESCE(p.avatar_url, ''),
	       c.text_content, c.like_count, c.dislike_count, c.created_at, c.parent_comment_id
	FROM video_comments c
	LEFT JOIN profiles p ON p.id = c.author_id`

// commentOrder returns the ORDER BY clause for a sort mode. Ties on
// like_count fall back to recency so a page is deterministic.
func commentOrder(sort model.CommentSort) string {
	if sort == model.SortNewest {
		return "c.created_at DESC"
	}
	return "c.like_count DESC, c.created_at DESC"
}

func scanComment(row pgx.Row) (model.CommentRow, error) {
	var c model.CommentRow
	err := row.Scan(
		&c.ID, &c.VideoID, &c.AuthorID,
		&c.AuthorUsername, &c.AuthorDisplay, &c.AuthorAvatar,
		&c.Text, &c.LikeCount, &c.DislikeCount, &c.CreatedAt, &c.ParentID,
	)
	return c, err
}

func collectComments(rows pgx.Rows) ([]model.CommentRow, error) {
	defer rows.Close()
	var out []model.CommentRow
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// FetchTopLevelComments returns up to limit comments without a parent.
func (r *CommentRepo) FetchTopLevelComments(ctx context.Context, videoID string, sort model.CommentSort, limit int) ([]model.CommentRow, error) {
	query := commentSelect + `
	WHERE c.video_id = $1 AND c.parent_comment_id IS NULL
	ORDER BY ` + commentOrder(sort) + `
	LIMIT $2`

	rows, err := r.pool.Query(ctx, query, videoID, limit)
	if err != nil {
		return nil, err
	}
	return collectComments(rows)
}

// FetchReplies returns every reply to the given parents, oldest first.
func (r *CommentRepo) FetchReplies(ctx context.Context, videoID string, parentIDs []string) ([]model.CommentRow, error) {
	if len(parentIDs) == 0 {
		return nil, nil
	}
	query := commentSelect + `
	WHERE c.video_id = $1 AND c.parent_comment_id = ANY($2)
	ORDER BY c.created_at ASC`

	rows, err := r.pool.Query(ctx, query, videoID, parentIDs)
	if err != nil {
		return nil, err
	}
	return collectComments(rows)
}

// FetchViewerCommentReactions looks up, in one round trip, which of the
// given comments the viewer liked or disliked.
func (r *CommentRepo) FetchViewerCommentReactions(ctx context.Context, viewerID string, commentIDs []string) (model.ViewerCommentReactions, error) {
	var out model.ViewerCommentReactions
	if len(commentIDs) == 0 {
		return out, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT comment_id, 'like' FROM video_comment_likes
		WHERE user_id = $1 AND comment_id = ANY($2)
		UNION ALL
		SELECT comment_id, 'dislike' FROM video_comment_dislikes
		WHERE user_id = $1 AND comment_id = ANY($2)`,
		viewerID, commentIDs)
	if err != nil {
		return out, err
	}
	defer rows.Close()

	for rows.Next() {
		var id, kind string
		if err := rows.Scan(&id, &kind); err != nil {
			return out, err
		}
		if model.ReactionKind(kind) == model.ReactionLike {
			out.Liked = append(out.Liked, id)
		} else {
			out.Disliked = append(out.Disliked, id)
		}
	}
	return out, rows.Err()
}

// CreateComment inserts a comment and returns it joined with its author.
func (r *CommentRepo) CreateComment(ctx context.Context, videoID, viewerID, text string, parentID *string) (model.CommentRow, error) {
	row := r.pool.QueryRow(ctx, `
		WITH c AS (
			INSERT INTO video_comments (video_id, author_id, text_content, parent_comment_id)
			VALUES ($1, $2, $3, $4)
			RETURNING id, video_id, author_id, text_content, like_count, dislike_count, created_at, parent_comment_id
		)
		SELECT c.id, c.video_id, c.author_id,
		       COALESCE(p.username, ''), COALESCE(p.display_name, ''), COALESCE(p.avatar_url, ''),
		       c.text_content, c.like_count, c.dislike_count, c.created_at, c.parent_comment_id
		FROM c
		LEFT JOIN profiles p ON p.id = c.author_id`,
		videoID, viewerID, text, parentID)
	return scanComment(row)
}

// EditComment replaces the text of the viewer's own comment. It returns
// pgx.ErrNoRows when no such comment belongs to the viewer.
func (r *CommentRepo) EditComment(ctx context.Context, commentID, viewerID, text string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE video_comments SET text_content = $3, updated_at = NOW()
		WHERE id = $1 AND author_id = $2`,
		commentID, viewerID, text)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// DeleteComment deletes the viewer's own comment together with its replies.
func (r *CommentRepo) DeleteComment(ctx context.Context, commentID, viewerID string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var id string
	err = tx.QueryRow(ctx, `
		SELECT id FROM video_comments WHERE id = $1 AND author_id = $2 FOR UPDATE`,
		commentID, viewerID).Scan(&id)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM video_comments WHERE parent_comment_id = $1`, commentID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM video_comments WHERE id = $1`, commentID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
