package router

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LiveStak-Brad/mylivelinks-sub002/internal/handler"
	"github.com/LiveStak-Brad/mylivelinks-sub002/internal/metrics"
	"github.com/LiveStak-Brad/mylivelinks-sub002/internal/middleware"
	"github.com/LiveStak-Brad/mylivelinks-sub002/internal/service"
)

type okPinger struct{}

func (okPinger) Ping(ctx context.Context) error { return nil }

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	reg := prometheus.NewRegistry()
	metrics.Register(reg, nil)

	sessions := service.NewSessionRegistry(service.SessionDeps{Logger: zerolog.Nop()}, time.Hour)
	limiters := Limiters{
		Session:  middleware.NewRateLimiter(middleware.RateLimitConfig{Max: 2, Window: time.Minute, KeyFn: middleware.KeyByIP}),
		Reaction: middleware.NewReactionRateLimiter(),
		Comment:  middleware.NewCommentRateLimiter(),
		View:     middleware.NewViewRateLimiter(),
		Feed:     middleware.NewFeedRateLimiter(),
	}
	t.Cleanup(limiters.Close)

	app := fiber.New()
	Setup(app, &Handlers{
		Health:   handler.NewHealthHandler(okPinger{}, nil, sessions, "test"),
		Session:  handler.NewSessionHandler(sessions),
		Video:    handler.NewVideoHandler(service.NewVideoService(nil)),
		Feed:     handler.NewFeedHandler(service.NewFeedService(nil, zerolog.Nop()), nil),
		Playlist: handler.NewPlaylistHandler(nil),
		Gatherer: reg,
	}, limiters, "")
	return app
}

func TestSetup_Routes(t *testing.T) {
	app := newTestApp(t)

	tests := []struct {
		method, path string
		want         int
	}{
		{http.MethodGet, "/health/live", http.StatusOK},
		{http.MethodGet, "/health/ready", http.StatusOK},
		{http.MethodGet, "/api/sessions/unknown", http.StatusNotFound},
		{http.MethodGet, "/api/profiles/owner-1/feed", http.StatusOK},
		{http.MethodGet, "/api/nope", http.StatusNotFound},
	}
	for _, tc := range tests {
		resp, err := app.Test(httptest.NewRequest(tc.method, tc.path, nil))
		require.NoError(t, err)
		assert.Equal(t, tc.want, resp.StatusCode, "%s %s", tc.method, tc.path)
	}

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(string(body), "engage_api_request_duration_seconds"))
}

func TestSetup_SessionCreationIsRateLimited(t *testing.T) {
	app := newTestApp(t)

	statuses := make([]int, 3)
	for i := range statuses {
		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/sessions", nil))
		require.NoError(t, err)
		statuses[i] = resp.StatusCode
	}
	assert.Equal(t, []int{http.StatusCreated, http.StatusCreated, http.StatusTooManyRequests}, statuses)
}

func TestSetup_CORSPreflight(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/sessions", nil)
	req.Header.Set("Origin", "https://player.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
