package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/LiveStak-Brad/mylivelinks-sub002/internal/middleware"
	"github.com/LiveStak-Brad/mylivelinks-sub002/internal/model"
	"github.com/LiveStak-Brad/mylivelinks-sub002/internal/service"
)

type PlaylistHandler struct {
	svc *service.PlaylistService
}

func NewPlaylistHandler(svc *service.PlaylistService) *PlaylistHandler {
	return &PlaylistHandler{svc: svc}
}

// ListItems handles GET /api/playlists/:playlistId/items
func (h *PlaylistHandler) ListItems(c fiber.Ctx) error {
	playlistID, err := param(c, "playlistId")
	if err != nil {
		return respondError(c, err)
	}
	items, err := h.svc.ListItems(c.Context(), playlistID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(items)
}

// AddItem handles POST /api/playlists/:playlistId/items
func (h *PlaylistHandler) AddItem(c fiber.Ctx) error {
	viewer, err := viewerID(c)
	if err != nil {
		return respondError(c, err)
	}
	playlistID, err := param(c, "playlistId")
	if err != nil {
		return respondError(c, err)
	}
	var req model.PlaylistItemRequest
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}
	if len(req.YouTubeVideoID) > middleware.MaxPlaylistURL {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", "youtubeVideoId is too long")
	}

	item, err := h.svc.AddItem(c.Context(), playlistID, viewer, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

// RemoveItem handles DELETE /api/playlists/items/:itemId
func (h *PlaylistHandler) RemoveItem(c fiber.Ctx) error {
	viewer, err := viewerID(c)
	if err != nil {
		return respondError(c, err)
	}
	itemID, err := param(c, "itemId")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.svc.RemoveItem(c.Context(), itemID, viewer); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
