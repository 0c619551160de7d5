package middleware

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/gofiber/fiber/v3"
)

// Field length limits matching database schema constraints.
const (
	MaxVideoIDLen  = 64   // external ids or playlist item uuids
	MaxIDLen       = 64   // uuids of sessions, comments, profiles, playlists
	MaxUserIDLen   = 64   // profiles.id
	MaxCommentLen  = 2000 // video_comments.text_content
	MaxPlaylistURL = 512
)

var (
	// videoIDRe matches YouTube video IDs and UUIDs: alphanumeric, dash, underscore.
	videoIDRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	// idRe matches the uuid-style ids used for rows and sessions.
	idRe = regexp.MustCompile(`^[A-Za-z0-9-]+$`)
)

// ErrorResponse is a helper that returns a standard API error response.
func ErrorResponse(c fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    code,
			"message": message,
		},
	})
}

// ValidateVideoID checks that a video ID is well-formed and within DB limits.
func ValidateVideoID(id string) (string, string) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", "videoId is required"
	}
	if len(id) > MaxVideoIDLen {
		return "", "videoId must be at most 64 characters"
	}
	if !videoIDRe.MatchString(id) {
		return "", "videoId contains invalid characters"
	}
	return id, ""
}

// ValidateID checks a row or session id; field names the parameter in the message.
func ValidateID(field, id string) (string, string) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", field + " is required"
	}
	if len(id) > MaxIDLen || !idRe.MatchString(id) {
		return "", field + " is malformed"
	}
	return id, ""
}

// ValidateUserID checks the viewer id passed in X-User-ID. An empty id is
// valid and means a signed-out viewer.
func ValidateUserID(id string) (string, string) {
	id = strings.TrimSpace(strings.ToLower(id))
	if id == "" {
		return "", ""
	}
	if len(id) > MaxUserIDLen {
		return "", "X-User-ID must be at most 64 characters"
	}
	if !idRe.MatchString(id) {
		return "", "X-User-ID contains invalid characters"
	}
	return id, ""
}

// ValidateCommentText enforces the length limit. Blank text is left to the
// engine, which rejects it before any network call.
func ValidateCommentText(text string) string {
	if utf8.RuneCountInString(text) > MaxCommentLen {
		return "text must be at most 2000 characters"
	}
	return ""
}
