package router

import (
	"github.com/gofiber/fiber/v3"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/LiveStak-Brad/mylivelinks-sub002/internal/handler"
	"github.com/LiveStak-Brad/mylivelinks-sub002/internal/middleware"
)

// Handlers holds all handler instances needed by the router.
type Handlers struct {
	Health   *handler.HealthHandler
	Session  *handler.SessionHandler
	Video    *handler.VideoHandler
	Feed     *handler.FeedHandler
	Playlist *handler.PlaylistHandler
	// Gatherer serves /metrics; nil leaves the route out.
	Gatherer prometheus.Gatherer
}

// Limiters are the per-route-group rate limiters.
type Limiters struct {
	Session  *middleware.RateLimiter
	Reaction *middleware.RateLimiter
	Comment  *middleware.RateLimiter
	View     *middleware.RateLimiter
	Feed     *middleware.RateLimiter
}

// DefaultLimiters returns the production limits.
func DefaultLimiters() Limiters {
	return Limiters{
		Session:  middleware.NewSessionRateLimiter(),
		Reaction: middleware.NewReactionRateLimiter(),
		Comment:  middleware.NewCommentRateLimiter(),
		View:     middleware.NewViewRateLimiter(),
		Feed:     middleware.NewFeedRateLimiter(),
	}
}

// Close stops the limiters' sweepers.
func (l Limiters) Close() {
	for _, rl := range []*middleware.RateLimiter{l.Session, l.Reaction, l.Comment, l.View, l.Feed} {
		if rl != nil {
			rl.Close()
		}
	}
}

// Setup configures the middleware stack and all API routes on the given Fiber app.
func Setup(app *fiber.App, h *Handlers, l Limiters, corsOrigins string) {
	// Middleware stack (order matters)
	app.Use(recoverer.New())
	app.Use(handler.MetricsMiddleware())
	app.Use(middleware.NewRequestLogger())
	app.Use(middleware.NewCORS(corsOrigins))

	// Health and metrics (outside the API group)
	app.Get("/health/live", h.Health.Live)
	app.Get("/health/ready", h.Health.Ready)
	if h.Gatherer != nil {
		app.Get("/metrics", handler.MetricsHandler(h.Gatherer))
	}

	api := app.Group("/api")

	// Player sessions
	api.Post("/sessions", l.Session.Handler(), h.Session.Create)
	sess := api.Group("/sessions/:sessionId")
	sess.Get("", h.Session.Get)
	sess.Delete("", h.Session.Close)
	sess.Post("/activate", h.Session.Activate)
	sess.Post("/deactivate", h.Session.Deactivate)
	sess.Post("/refresh", h.Session.Refresh)
	sess.Post("/like", l.Reaction.Handler(), h.Session.ToggleLike)
	sess.Post("/dislike", l.Reaction.Handler(), h.Session.ToggleDislike)
	sess.Post("/playback", l.View.Handler(), h.Session.PlaybackStarted)
	sess.Post("/feed/:ownerId", l.Feed.Handler(), h.Session.LoadFeed)

	// Comments
	sess.Put("/comments/sort", h.Session.SetCommentSort)
	sess.Post("/comments", l.Comment.Handler(), h.Session.SubmitComment)
	sess.Patch("/comments/:commentId", l.Comment.Handler(), h.Session.EditComment)
	sess.Delete("/comments/:commentId", l.Comment.Handler(), h.Session.DeleteComment)
	sess.Get("/comments/:commentId/reply", h.Session.ReplyPrefill)
	sess.Post("/comments/:commentId/like", l.Reaction.Handler(), h.Session.ToggleCommentLike)
	sess.Post("/comments/:commentId/dislike", l.Reaction.Handler(), h.Session.ToggleCommentDislike)

	// Stateless video routes
	api.Post("/video/view", l.View.Handler(), h.Video.RecordView)
	api.Get("/video/:videoId/views", h.Video.ViewCount)

	// Profile feeds
	api.Get("/profiles/:ownerId/feed", l.Feed.Handler(), h.Feed.GetFeed)

	// Playlists
	api.Get("/playlists/:playlistId/items", h.Playlist.ListItems)
	api.Post("/playlists/:playlistId/items", l.Comment.Handler(), h.Playlist.AddItem)
	api.Delete("/playlists/items/:itemId", h.Playlist.RemoveItem)
}
