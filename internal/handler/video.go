package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/LiveStak-Brad/mylivelinks-sub002/internal/middleware"
	"github.com/LiveStak-Brad/mylivelinks-sub002/internal/model"
	"github.com/LiveStak-Brad/mylivelinks-sub002/internal/service"
)

type VideoHandler struct {
	svc *service.VideoService
}

func NewVideoHandler(svc *service.VideoService) *VideoHandler {
	return &VideoHandler{svc: svc}
}

// RecordView handles POST /api/video/view
func (h *VideoHandler) RecordView(c fiber.Ctx) error {
	var req model.ViewRequest
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}
	videoID, errMsg := middleware.ValidateVideoID(req.VideoID)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	n, err := h.svc.RecordView(c.Context(), videoID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(model.ViewResponse{VideoID: videoID, ViewCount: n})
}

// ViewCount handles GET /api/video/:videoId/views
func (h *VideoHandler) ViewCount(c fiber.Ctx) error {
	videoID, errMsg := middleware.ValidateVideoID(c.Params("videoId"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	n, err := h.svc.ViewCount(c.Context(), videoID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(model.ViewResponse{VideoID: videoID, ViewCount: n})
}
