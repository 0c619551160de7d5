package service

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/LiveStak-Brad/mylivelinks-sub002/internal/metrics"
)

// CountService recomputes the denormalized like/dislike counters of comments
// from the reaction row tables.
type CountService struct {
	pool *pgxpool.Pool
}

func NewCountService(pool *pgxpool.Pool) *CountService {
	return &CountService{pool: pool}
}

// RecalculateCommentCounts rewrites like_count and dislike_count for the
// given comments in one statement and returns how many comments still exist.
// Counting rows (instead of applying deltas) makes repeated or reordered
// notifications harmless.
func (s *CountService) RecalculateCommentCounts(ctx context.Context, commentIDs []string) (int64, error) {
	if len(commentIDs) == 0 {
		return 0, nil
	}
	start := time.Now()
	defer func() { metrics.CountRecalcDuration.Observe(time.Since(start).Seconds()) }()

	tag, err := s.pool.Exec(ctx, `
		UPDATE video_comments c SET
			like_count    = (SELECT COUNT(*) FROM video_comment_likes l WHERE l.comment_id = c.id),
			dislike_count = (SELECT COUNT(*) FROM video_comment_dislikes d WHERE d.comment_id = c.id)
		WHERE c.id = ANY($1)`,
		commentIDs)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
