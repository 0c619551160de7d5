package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/LiveStak-Brad/mylivelinks-sub002/internal/model"
)

// DefaultContentLimit caps how many rows one source contributes to a feed.
const DefaultContentLimit = 100

// CreatorStudioSource reads public, ready creator studio items.
type CreatorStudioSource struct {
	pool  *pgxpool.Pool
	limit int
}

func NewCreatorStudioSource(pool *pgxpool.Pool, limit int) *CreatorStudioSource {
	if limit <= 0 {
		limit = DefaultContentLimit
	}
	return &CreatorStudioSource{pool: pool, limit: limit}
}

func (s *CreatorStudioSource) Tag() string { return model.SourceCreatorStudio }

func (s *CreatorStudioSource) FetchRows(ctx context.Context, ownerID string) ([]model.SourceRow, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, title, item_type, thumb_url, artwork_url, youtube_id, duration_seconds, created_at
		FROM get_public_creator_studio_items($1, NULL, $2, 0)`,
		ownerID, s.limit)
	if err != nil {
		return nil, err
	}
	return collectRows(rows, func(r pgx.Rows) (model.SourceRow, error) {
		var row model.CreatorStudioRow
		err := r.Scan(&row.ID, &row.Title, &row.ItemType, &row.ThumbURL, &row.ArtworkURL,
			&row.YouTubeID, &row.DurationSeconds, &row.CreatedAt)
		return row, err
	})
}

// LegacyMusicVideoSource reads the older profile_music_videos collection.
type LegacyMusicVideoSource struct {
	pool *pgxpool.Pool
}

func NewLegacyMusicVideoSource(pool *pgxpool.Pool) *LegacyMusicVideoSource {
	return &LegacyMusicVideoSource{pool: pool}
}

func (s *LegacyMusicVideoSource) Tag() string { return model.SourceMusicVideos }

func (s *LegacyMusicVideoSource) FetchRows(ctx context.Context, ownerID string) ([]model.SourceRow, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, title, thumbnail_url, youtube_id, views_count, created_at
		FROM get_music_videos($1)`,
		ownerID)
	if err != nil {
		return nil, err
	}
	return collectRows(rows, func(r pgx.Rows) (model.SourceRow, error) {
		var row model.LegacyMusicVideoRow
		err := r.Scan(&row.ID, &row.Title, &row.ThumbnailURL, &row.YouTubeID, &row.ViewCount, &row.CreatedAt)
		return row, err
	})
}

// PlaylistItemSource reads the items of every playlist a profile owns.
type PlaylistItemSource struct {
	pool  *pgxpool.Pool
	limit int
}

func NewPlaylistItemSource(pool *pgxpool.Pool, limit int) *PlaylistItemSource {
	if limit <= 0 {
		limit = DefaultContentLimit
	}
	return &PlaylistItemSource{pool: pool, limit: limit}
}

func (s *PlaylistItemSource) Tag() string { return model.SourcePlaylistItems }

func (s *PlaylistItemSource) FetchRows(ctx context.Context, ownerID string) ([]model.SourceRow, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT i.id, i.title, i.thumbnail_url, i.youtube_video_id, i.duration_seconds, i.view_count, i.created_at
		FROM replay_playlist_items i
		JOIN replay_playlists p ON p.id = i.playlist_id
		WHERE p.profile_id = $1
		ORDER BY i.created_at DESC
		LIMIT $2`,
		ownerID, s.limit)
	if err != nil {
		return nil, err
	}
	return collectRows(rows, func(r pgx.Rows) (model.SourceRow, error) {
		var row model.PlaylistItemRow
		err := r.Scan(&row.ID, &row.Title, &row.ThumbnailURL, &row.YouTubeVideoID,
			&row.DurationSeconds, &row.ViewCount, &row.CreatedAt)
		return row, err
	})
}

func collectRows(rows pgx.Rows, scan func(pgx.Rows) (model.SourceRow, error)) ([]model.SourceRow, error) {
	defer rows.Close()
	var out []model.SourceRow
	for rows.Next() {
		row, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
