package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizePath(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"/api/sessions/3f2a", "/api/sessions/:sessionId"},
		{"/api/sessions/3f2a/like", "/api/sessions/:sessionId/like"},
		{"/api/sessions/3f2a/comments/c9/like", "/api/sessions/:sessionId/comments/:commentId/like"},
		{"/api/sessions/3f2a/comments/sort", "/api/sessions/:sessionId/comments/sort"},
		{"/api/sessions/3f2a/comments", "/api/sessions/:sessionId/comments"},
		{"/api/profiles/p1/feed", "/api/profiles/:ownerId/feed"},
		{"/api/playlists/pl1/items", "/api/playlists/:playlistId/items"},
		{"/api/playlists/items/i1", "/api/playlists/items/:itemId"},
		{"/api/video/view", "/api/video/view"},
		{"/api/video/dQw4w9WgXcQ/views", "/api/video/:videoId/views"},
		{"/api/sessions/3f2a/feed/p1", "/api/sessions/:sessionId/feed/:ownerId"},
		{"/health/ready", "/health/ready"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizePath(tt.in), tt.in)
	}
}

func TestHashIPForLog(t *testing.T) {
	h := hashIPForLog("203.0.113.7")
	assert.Len(t, h, 12)
	assert.NotContains(t, h, "203")
	assert.Equal(t, h, hashIPForLog("203.0.113.7"))
}
