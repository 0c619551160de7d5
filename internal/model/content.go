package model

import (
	"fmt"
	"strings"
	"time"
)

// Source tags identify which backing collection produced a ContentItem.
const (
	SourceCreatorStudio = "creator_studio"
	SourceMusicVideos   = "music_videos"
	SourcePlaylistItems = "playlist_items"
)

// ContentItem is the normalized shape merged into a feed.
type ContentItem struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	ThumbnailURL    string    `json:"thumbnailUrl,omitempty"`
	DurationSeconds int       `json:"durationSeconds"`
	CreatedAt       time.Time `json:"createdAt"`
	SourceTag       string    `json:"sourceTag"`
	ContentType     string    `json:"contentType"`
	ViewCount       int64     `json:"viewCount"`
}

// DisplayTitle returns the title shown to users.
func (c ContentItem) DisplayTitle() string {
	if strings.TrimSpace(c.Title) == "" {
		return "Untitled"
	}
	return c.Title
}

// DedupKey is the case-folded, trimmed title. All empty titles share one key.
func DedupKey(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

// YouTubeThumbnail builds the platform thumbnail URL for an external video id.
func YouTubeThumbnail(youtubeID string) string {
	if youtubeID == "" {
		return ""
	}
	return fmt.Sprintf("https://img.youtube.com/vi/%s/hqdefault.jpg", youtubeID)
}

// SourceRow is a raw row from one of the content sources. The set of
// implementations is closed; each maps totally into a ContentItem.
type SourceRow interface {
	ContentItem() ContentItem
	sourceRow()
}

// creatorStudioTypes maps creator_studio_items.item_type to a content type.
var creatorStudioTypes = map[string]string{
	"podcast":        "podcast",
	"movie":          "movie",
	"series_episode": "series",
	"education":      "education",
	"comedy_special": "comedy",
	"vlog":           "vlog",
	"music_video":    "music_video",
	"music":          "music_video",
	"other":          "other",
}

// ContentTypeFor maps a creator studio item type, defaulting to "other".
func ContentTypeFor(itemType string) string {
	if t, ok := creatorStudioTypes[itemType]; ok {
		return t
	}
	return "other"
}

// CreatorStudioRow is a row from get_public_creator_studio_items.
type CreatorStudioRow struct {
	ID              string
	Title           *string
	ItemType        string
	ThumbURL        *string
	ArtworkURL      *string
	YouTubeID       *string
	DurationSeconds *int
	CreatedAt       time.Time
}

func (CreatorStudioRow) sourceRow() {}

// ContentItem implements SourceRow.
func (r CreatorStudioRow) ContentItem() ContentItem {
	item := ContentItem{
		ID:          r.ID,
		Title:       deref(r.Title),
		CreatedAt:   r.CreatedAt,
		SourceTag:   SourceCreatorStudio,
		ContentType: ContentTypeFor(r.ItemType),
	}
	if r.DurationSeconds != nil && *r.DurationSeconds > 0 {
		item.DurationSeconds = *r.DurationSeconds
	}
	item.ThumbnailURL = firstNonEmpty(deref(r.ThumbURL), deref(r.ArtworkURL), YouTubeThumbnail(deref(r.YouTubeID)))
	return item
}

// LegacyMusicVideoRow is a row from profile_music_videos.
type LegacyMusicVideoRow struct {
	ID           string
	Title        *string
	ThumbnailURL *string
	YouTubeID    *string
	ViewCount    *int64
	CreatedAt    time.Time
}

func (LegacyMusicVideoRow) sourceRow() {}

// ContentItem implements SourceRow.
func (r LegacyMusicVideoRow) ContentItem() ContentItem {
	item := ContentItem{
		ID:           r.ID,
		Title:        deref(r.Title),
		ThumbnailURL: firstNonEmpty(deref(r.ThumbnailURL), YouTubeThumbnail(deref(r.YouTubeID))),
		CreatedAt:    r.CreatedAt,
		SourceTag:    SourceMusicVideos,
		ContentType:  "music_video",
	}
	if r.ViewCount != nil {
		item.ViewCount = *r.ViewCount
	}
	return item
}

// PlaylistItemRow is a row from replay_playlist_items.
type PlaylistItemRow struct {
	ID              string
	Title           *string
	ThumbnailURL    *string
	YouTubeVideoID  string
	DurationSeconds *int
	ViewCount       *int64
	CreatedAt       time.Time
}

func (PlaylistItemRow) sourceRow() {}

// ContentItem implements SourceRow.
func (r PlaylistItemRow) ContentItem() ContentItem {
	item := ContentItem{
		ID:           r.ID,
		Title:        deref(r.Title),
		ThumbnailURL: firstNonEmpty(deref(r.ThumbnailURL), YouTubeThumbnail(r.YouTubeVideoID)),
		CreatedAt:    r.CreatedAt,
		SourceTag:    SourcePlaylistItems,
		ContentType:  "video",
	}
	if r.DurationSeconds != nil && *r.DurationSeconds > 0 {
		item.DurationSeconds = *r.DurationSeconds
	}
	if r.ViewCount != nil {
		item.ViewCount = *r.ViewCount
	}
	return item
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
