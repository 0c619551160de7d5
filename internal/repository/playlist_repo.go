package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/LiveStak-Brad/mylivelinks-sub002/internal/model"
)

type PlaylistRepo struct {
	pool *pgxpool.Pool
}

func NewPlaylistRepo(pool *pgxpool.Pool) *PlaylistRepo {
	return &PlaylistRepo{pool: pool}
}

// AddItem appends a video to a playlist owned by ownerID. A video already in
// the playlist violates the (playlist_id, youtube_video_id) unique index.
// pgx.ErrNoRows means the playlist does not exist or belongs to someone else.
func (r *PlaylistRepo) AddItem(ctx context.Context, playlistID, ownerID string, req model.PlaylistItemRequest) (model.PlaylistItem, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return model.PlaylistItem{}, err
	}
	defer tx.Rollback(ctx)

	var id string
	err = tx.QueryRow(ctx, `
		SELECT id FROM replay_playlists WHERE id = $1 AND profile_id = $2 FOR UPDATE`,
		playlistID, ownerID).Scan(&id)
	if err != nil {
		return model.PlaylistItem{}, err
	}

	item := model.PlaylistItem{
		PlaylistID:      playlistID,
		YouTubeVideoID:  req.YouTubeVideoID,
		Title:           req.Title,
		ThumbnailURL:    req.ThumbnailURL,
		DurationSeconds: req.DurationSeconds,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO replay_playlist_items
			(playlist_id, youtube_video_id, title, thumbnail_url, duration_seconds, position)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, 0),
			(SELECT COALESCE(MAX(position) + 1, 0) FROM replay_playlist_items WHERE playlist_id = $1))
		RETURNING id, position, created_at`,
		playlistID, req.YouTubeVideoID, req.Title, req.ThumbnailURL, req.DurationSeconds,
	).Scan(&item.ID, &item.Position, &item.CreatedAt)
	if err != nil {
		return model.PlaylistItem{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return model.PlaylistItem{}, err
	}
	return item, nil
}

// ListItems returns the items of a playlist in position order.
func (r *PlaylistRepo) ListItems(ctx context.Context, playlistID string) ([]model.PlaylistItem, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, playlist_id, youtube_video_id, COALESCE(title, ''), COALESCE(thumbnail_url, ''),
		       COALESCE(duration_seconds, 0), position, created_at
		FROM replay_playlist_items
		WHERE playlist_id = $1
		ORDER BY position ASC`,
		playlistID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []model.PlaylistItem
	for rows.Next() {
		var it model.PlaylistItem
		if err := rows.Scan(&it.ID, &it.PlaylistID, &it.YouTubeVideoID, &it.Title, &it.ThumbnailURL,
			&it.DurationSeconds, &it.Position, &it.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// RemoveItem deletes an item from a playlist owned by ownerID.
func (r *PlaylistRepo) RemoveItem(ctx context.Context, itemID, ownerID string) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM replay_playlist_items i
		USING replay_playlists p
		WHERE i.id = $1 AND p.id = i.playlist_id AND p.profile_id = $2`,
		itemID, ownerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
