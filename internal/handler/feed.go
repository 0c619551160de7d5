package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/LiveStak-Brad/mylivelinks-sub002/internal/middleware"
	"github.com/LiveStak-Brad/mylivelinks-sub002/internal/model"
	"github.com/LiveStak-Brad/mylivelinks-sub002/internal/service"
)

type FeedHandler struct {
	feed    *service.FeedService
	banners *service.BannerCache
}

// NewFeedHandler creates the handler. banners may be nil.
func NewFeedHandler(feed *service.FeedService, banners *service.BannerCache) *FeedHandler {
	return &FeedHandler{feed: feed, banners: banners}
}

// GetFeed handles GET /api/profiles/:ownerId/feed
// A failing source degrades the feed instead of failing the request; a
// failing banner lookup just leaves the banner out.
func (h *FeedHandler) GetFeed(c fiber.Ctx) error {
	ownerID, err := param(c, "ownerId")
	if err != nil {
		return respondError(c, err)
	}

	res, err := h.feed.Feed(c.Context(), ownerID)
	if err != nil {
		return respondError(c, err)
	}

	resp := model.FeedResponse{
		OwnerID:       ownerID,
		Items:         res.Items,
		FailedSources: res.FailedSources,
	}
	if h.banners != nil {
		url, err := h.banners.Get(c.Context(), ownerID)
		if err != nil {
			middleware.Logger.Warn().Err(err).Msg("banner lookup failed")
		}
		resp.BannerURL = url
	}
	return c.JSON(resp)
}
