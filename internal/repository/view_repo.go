package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PlaylistItemViews reads view counts from replay_playlist_items, the
// primary owner of a video's count.
type PlaylistItemViews struct {
	pool *pgxpool.Pool
}

func NewPlaylistItemViews(pool *pgxpool.Pool) *PlaylistItemViews {
	return &PlaylistItemViews{pool: pool}
}

// FetchViewCount returns nil when no playlist item carries the video.
func (v *PlaylistItemViews) FetchViewCount(ctx context.Context, videoID string) (*int64, error) {
	return fetchCount(ctx, v.pool, `
		SELECT view_count FROM replay_playlist_items
		WHERE youtube_video_id = $1
		ORDER BY view_count DESC NULLS LAST
		LIMIT 1`, videoID)
}

// MusicVideoViews reads view counts from the legacy profile_music_videos table.
type MusicVideoViews struct {
	pool *pgxpool.Pool
}

func NewMusicVideoViews(pool *pgxpool.Pool) *MusicVideoViews {
	return &MusicVideoViews{pool: pool}
}

// FetchViewCount returns nil when no legacy music video carries the video.
func (v *MusicVideoViews) FetchViewCount(ctx context.Context, videoID string) (*int64, error) {
	return fetchCount(ctx, v.pool, `
		SELECT view_count FROM profile_music_videos
		WHERE youtube_id = $1
		ORDER BY view_count DESC NULLS LAST
		LIMIT 1`, videoID)
}

func fetchCount(ctx context.Context, pool *pgxpool.Pool, query, videoID string) (*int64, error) {
	var n *int64
	err := pool.QueryRow(ctx, query, videoID).Scan(&n)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return n, err
}

type ViewRepo struct {
	pool *pgxpool.Pool
}

func NewViewRepo(pool *pgxpool.Pool) *ViewRepo {
	return &ViewRepo{pool: pool}
}

// IncrementViewCount adds one view to the collection that owns the video:
// replay_playlist_items if any row matches, profile_music_videos otherwise.
// It returns the new count, or pgx.ErrNoRows if neither table has the video.
func (r *ViewRepo) IncrementViewCount(ctx context.Context, videoID string) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	var n *int64
	err = tx.QueryRow(ctx, `
		WITH u AS (
			UPDATE replay_playlist_items SET view_count = COALESCE(view_count, 0) + 1
			WHERE youtube_video_id = $1
			RETURNING view_count
		)
		SELECT MAX(view_count) FROM u`, videoID).Scan(&n)
	if err != nil {
		return 0, err
	}

	if n == nil {
		err = tx.QueryRow(ctx, `
			WITH u AS (
				UPDATE profile_music_videos SET view_count = COALESCE(view_count, 0) + 1
				WHERE youtube_id = $1
				RETURNING view_count
			)
			SELECT MAX(view_count) FROM u`, videoID).Scan(&n)
		if err != nil {
			return 0, err
		}
	}
	if n == nil {
		return 0, pgx.ErrNoRows
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return *n, nil
}
