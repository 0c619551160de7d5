package model

import "time"

// PlaylistItem is a video saved to a replay playlist.
type PlaylistItem struct {
	ID              string    `json:"id"`
	PlaylistID      string    `json:"playlistId"`
	YouTubeVideoID  string    `json:"youtubeVideoId"`
	Title           string    `json:"title,omitempty"`
	ThumbnailURL    string    `json:"thumbnailUrl,omitempty"`
	DurationSeconds int       `json:"durationSeconds,omitempty"`
	Position        int       `json:"position"`
	CreatedAt       time.Time `json:"createdAt"`
}

// PlaylistItemRequest is the body for adding a video to a playlist.
type PlaylistItemRequest struct {
	YouTubeVideoID  string `json:"youtubeVideoId"`
	Title           string `json:"title,omitempty"`
	ThumbnailURL    string `json:"thumbnailUrl,omitempty"`
	DurationSeconds int    `json:"durationSeconds,omitempty"`
}
