package service

import (
	"context"
	"errors"
	"net/url"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/LiveStak-Brad/mylivelinks-sub002/internal/model"
)

// PlaylistStore is the row API for replay playlists.
type PlaylistStore interface {
	AddItem(ctx context.Context, playlistID, ownerID string, req model.PlaylistItemRequest) (model.PlaylistItem, error)
	ListItems(ctx context.Context, playlistID string) ([]model.PlaylistItem, error)
	RemoveItem(ctx context.Context, itemID, ownerID string) error
}

// PlaylistService manages the items of a viewer's replay playlists.
type PlaylistService struct {
	store PlaylistStore
	feed  *FeedService
	log   zerolog.Logger
}

// NewPlaylistService creates the service. feed may be nil; when set, the
// owner's cached feed is dropped after every change.
func NewPlaylistService(store PlaylistStore, feed *FeedService, logger zerolog.Logger) *PlaylistService {
	return &PlaylistService{
		store: store,
		feed:  feed,
		log:   logger.With().Str("component", "playlists").Logger(),
	}
}

var youtubeIDRe = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// ParseYouTubeID accepts a bare video id or a watch, short, embed or
// youtu.be URL and returns the 11 character video id.
func ParseYouTubeID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if youtubeIDRe.MatchString(s) {
		return s, true
	}
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return "", false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	host = strings.TrimPrefix(host, "m.")

	var id string
	switch host {
	case "youtu.be":
		id = strings.Trim(u.Path, "/")
	case "youtube.com", "music.youtube.com":
		if v := u.Query().Get("v"); v != "" {
			id = v
			break
		}
		parts := strings.Split(strings.Trim(u.Path, "/"), "/")
		if len(parts) == 2 && (parts[0] == "shorts" || parts[0] == "embed" || parts[0] == "live") {
			id = parts[1]
		}
	}
	if !youtubeIDRe.MatchString(id) {
		return "", false
	}
	return id, true
}

// AddItem adds a video to the viewer's playlist. A video that is already in
// the playlist yields a *ConflictError.
func (s *PlaylistService) AddItem(ctx context.Context, playlistID, viewerID string, req model.PlaylistItemRequest) (model.PlaylistItem, error) {
	if viewerID == "" {
		return model.PlaylistItem{}, ErrAuthRequired
	}
	id, ok := ParseYouTubeID(req.YouTubeVideoID)
	if !ok {
		return model.PlaylistItem{}, &ValidationError{Field: "youtubeVideoId", Reason: "must be a YouTube video id or URL"}
	}
	if req.DurationSeconds < 0 {
		return model.PlaylistItem{}, &ValidationError{Field: "durationSeconds", Reason: "must not be negative"}
	}
	req.YouTubeVideoID = id
	req.Title = strings.TrimSpace(req.Title)

	item, err := s.store.AddItem(ctx, playlistID, viewerID, req)
	if err != nil {
		err = classify("add playlist item", err)
		var confl *ConflictError
		if errors.As(err, &confl) {
			confl.Resource = "playlist item"
		}
		return model.PlaylistItem{}, err
	}
	s.invalidate(ctx, viewerID)
	s.log.Info().Str("playlist_id", playlistID).Str("video_id", id).Msg("playlist item added")
	return item, nil
}

// ListItems returns a playlist's items in order; never nil.
func (s *PlaylistService) ListItems(ctx context.Context, playlistID string) ([]model.PlaylistItem, error) {
	items, err := s.store.ListItems(ctx, playlistID)
	if err != nil {
		return nil, classify("list playlist items", err)
	}
	if items == nil {
		items = []model.PlaylistItem{}
	}
	return items, nil
}

// RemoveItem removes an item from one of the viewer's playlists.
func (s *PlaylistService) RemoveItem(ctx context.Context, itemID, viewerID string) error {
	if viewerID == "" {
		return ErrAuthRequired
	}
	if err := s.store.RemoveItem(ctx, itemID, viewerID); err != nil {
		return classify("remove playlist item", err)
	}
	s.invalidate(ctx, viewerID)
	return nil
}

func (s *PlaylistService) invalidate(ctx context.Context, ownerID string) {
	if s.feed == nil {
		return
	}
	if err := s.feed.Invalidate(ctx, ownerID); err != nil {
		s.log.Warn().Err(err).Msg("feed cache invalidate failed")
	}
}
