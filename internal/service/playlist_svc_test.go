package service

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LiveStak-Brad/mylivelinks-sub002/internal/model"
)

type fakePlaylistStore struct {
	addItem    func(ctx context.Context, playlistID, ownerID string, req model.PlaylistItemRequest) (model.PlaylistItem, error)
	listItems  func(ctx context.Context, playlistID string) ([]model.PlaylistItem, error)
	removeItem func(ctx context.Context, itemID, ownerID string) error
}

func (f *fakePlaylistStore) AddItem(ctx context.Context, playlistID, ownerID string, req model.PlaylistItemRequest) (model.PlaylistItem, error) {
	return f.addItem(ctx, playlistID, ownerID, req)
}

func (f *fakePlaylistStore) ListItems(ctx context.Context, playlistID string) ([]model.PlaylistItem, error) {
	return f.listItems(ctx, playlistID)
}

func (f *fakePlaylistStore) RemoveItem(ctx context.Context, itemID, ownerID string) error {
	return f.removeItem(ctx, itemID, ownerID)
}

func TestParseYouTubeID(t *testing.T) {
	tests := map[string]struct {
		in     string
		want   string
		wantOK bool
	}{
		"bare id":          {in: "dQw4w9WgXcQ", want: "dQw4w9WgXcQ", wantOK: true},
		"padded id":        {in: "  dQw4w9WgXcQ\n", want: "dQw4w9WgXcQ", wantOK: true},
		"watch url":        {in: "https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42", want: "dQw4w9WgXcQ", wantOK: true},
		"mobile watch url": {in: "https://m.youtube.com/watch?v=dQw4w9WgXcQ", want: "dQw4w9WgXcQ", wantOK: true},
		"short link":       {in: "https://youtu.be/dQw4w9WgXcQ?si=abc", want: "dQw4w9WgXcQ", wantOK: true},
		"shorts":           {in: "https://youtube.com/shorts/dQw4w9WgXcQ", want: "dQw4w9WgXcQ", wantOK: true},
		"embed":            {in: "https://www.youtube.com/embed/dQw4w9WgXcQ", want: "dQw4w9WgXcQ", wantOK: true},
		"music":            {in: "https://music.youtube.com/watch?v=dQw4w9WgXcQ", want: "dQw4w9WgXcQ", wantOK: true},
		"wrong length":     {in: "dQw4w9WgX"},
		"other host":       {in: "https://vimeo.com/watch?v=dQw4w9WgXcQ"},
		"channel page":     {in: "https://www.youtube.com/channel/UC1234567890"},
		"empty":            {in: ""},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got, ok := ParseYouTubeID(tc.in)
			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestPlaylistService_AddItem(t *testing.T) {
	var got model.PlaylistItemRequest
	store := &fakePlaylistStore{
		addItem: func(ctx context.Context, playlistID, ownerID string, req model.PlaylistItemRequest) (model.PlaylistItem, error) {
			assert.Equal(t, "pl1", playlistID)
			assert.Equal(t, "u1", ownerID)
			got = req
			return model.PlaylistItem{ID: "i1", PlaylistID: playlistID, YouTubeVideoID: req.YouTubeVideoID, Position: 3}, nil
		},
	}
	cache, mr := newTestCache(t)
	feed := NewFeedService(cache, zerolog.Nop(), staticSource("only", "A"))
	_, err := feed.Feed(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, mr.Keys(), 1)

	svc := NewPlaylistService(store, feed, zerolog.Nop())
	item, err := svc.AddItem(context.Background(), "pl1", "u1", model.PlaylistItemRequest{
		YouTubeVideoID: "https://youtu.be/dQw4w9WgXcQ",
		Title:          "  Never Gonna  ",
	})
	require.NoError(t, err)
	assert.Equal(t, "i1", item.ID)
	assert.Equal(t, "dQw4w9WgXcQ", got.YouTubeVideoID)
	assert.Equal(t, "Never Gonna", got.Title)
	assert.Empty(t, mr.Keys())
}

func TestPlaylistService_AddItemErrors(t *testing.T) {
	dup := &pgconn.PgError{Code: "23505", TableName: "replay_playlist_items"}
	store := &fakePlaylistStore{
		addItem: func(ctx context.Context, playlistID, ownerID string, req model.PlaylistItemRequest) (model.PlaylistItem, error) {
			return model.PlaylistItem{}, dup
		},
	}
	svc := NewPlaylistService(store, nil, zerolog.Nop())
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "pl1", "", model.PlaylistItemRequest{YouTubeVideoID: "dQw4w9WgXcQ"})
	require.ErrorIs(t, err, ErrAuthRequired)

	var valErr *ValidationError
	_, err = svc.AddItem(ctx, "pl1", "u1", model.PlaylistItemRequest{YouTubeVideoID: "nope"})
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "youtubeVideoId", valErr.Field)

	_, err = svc.AddItem(ctx, "pl1", "u1", model.PlaylistItemRequest{YouTubeVideoID: "dQw4w9WgXcQ", DurationSeconds: -1})
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "durationSeconds", valErr.Field)

	_, err = svc.AddItem(ctx, "pl1", "u1", model.PlaylistItemRequest{YouTubeVideoID: "dQw4w9WgXcQ"})
	var confl *ConflictError
	require.ErrorAs(t, err, &confl)
	assert.Equal(t, "playlist item", confl.Resource)
	assert.ErrorIs(t, err, dup)
}

func TestPlaylistService_ListAndRemove(t *testing.T) {
	store := &fakePlaylistStore{
		listItems: func(ctx context.Context, playlistID string) ([]model.PlaylistItem, error) {
			return nil, nil
		},
		removeItem: func(ctx context.Context, itemID, ownerID string) error {
			if itemID == "gone" {
				return pgx.ErrNoRows
			}
			return nil
		},
	}
	svc := NewPlaylistService(store, nil, zerolog.Nop())
	ctx := context.Background()

	items, err := svc.ListItems(ctx, "pl1")
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)

	require.NoError(t, svc.RemoveItem(ctx, "i1", "u1"))
	require.ErrorIs(t, svc.RemoveItem(ctx, "gone", "u1"), ErrNotFound)
	require.ErrorIs(t, svc.RemoveItem(ctx, "i1", ""), ErrAuthRequired)
}
