package handler

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/LiveStak-Brad/mylivelinks-sub002/internal/middleware"
	"github.com/LiveStak-Brad/mylivelinks-sub002/internal/model"
	"github.com/LiveStak-Brad/mylivelinks-sub002/internal/service"
)

// SessionHandler exposes player sessions. Every route except Create acts on
// the session named by :sessionId, which must belong to the X-User-ID viewer.
type SessionHandler struct {
	reg *service.SessionRegistry
}

func NewSessionHandler(reg *service.SessionRegistry) *SessionHandler {
	return &SessionHandler{reg: reg}
}

func (h *SessionHandler) session(c fiber.Ctx) (*service.Session, error) {
	viewer, err := viewerID(c)
	if err != nil {
		return nil, err
	}
	id, err := param(c, "sessionId")
	if err != nil {
		return nil, err
	}
	return h.reg.Get(id, viewer)
}

// Create handles POST /api/sessions
func (h *SessionHandler) Create(c fiber.Ctx) error {
	viewer, err := viewerID(c)
	if err != nil {
		return respondError(c, err)
	}
	id, _ := h.reg.Create(viewer)
	return c.Status(fiber.StatusCreated).JSON(model.CreateSessionResponse{SessionID: id})
}

// Get handles GET /api/sessions/:sessionId
func (h *SessionHandler) Get(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(s.Snapshot())
}

// Close handles DELETE /api/sessions/:sessionId
func (h *SessionHandler) Close(c fiber.Ctx) error {
	viewer, err := viewerID(c)
	if err != nil {
		return respondError(c, err)
	}
	id, err := param(c, "sessionId")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.reg.Close(id, viewer); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Activate handles POST /api/sessions/:sessionId/activate
// Degraded reads are reported in the snapshot's errors, not as a failure.
func (h *SessionHandler) Activate(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return respondError(c, err)
	}
	var req model.ActivateRequest
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}
	videoID, errMsg := middleware.ValidateVideoID(req.VideoID)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}
	_ = s.Activate(c.Context(), videoID)
	return c.JSON(s.Snapshot())
}

// Deactivate handles POST /api/sessions/:sessionId/deactivate
func (h *SessionHandler) Deactivate(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return respondError(c, err)
	}
	s.Deactivate()
	return c.JSON(s.Snapshot())
}

// Refresh handles POST /api/sessions/:sessionId/refresh
func (h *SessionHandler) Refresh(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return respondError(c, err)
	}
	if err := s.Refresh(c.Context()); errors.Is(err, service.ErrInactive) {
		return respondError(c, err)
	}
	return c.JSON(s.Snapshot())
}

// ToggleLike handles POST /api/sessions/:sessionId/like
func (h *SessionHandler) ToggleLike(c fiber.Ctx) error {
	return h.toggleVideo(c, (*service.Session).ToggleLike)
}

// ToggleDislike handles POST /api/sessions/:sessionId/dislike
func (h *SessionHandler) ToggleDislike(c fiber.Ctx) error {
	return h.toggleVideo(c, (*service.Session).ToggleDislike)
}

func (h *SessionHandler) toggleVideo(c fiber.Ctx, toggle func(*service.Session, context.Context) (model.ReactionState, error)) error {
	s, err := h.session(c)
	if err != nil {
		return respondError(c, err)
	}
	st, err := toggle(s, c.Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(st)
}

// ToggleCommentLike handles POST /api/sessions/:sessionId/comments/:commentId/like
func (h *SessionHandler) ToggleCommentLike(c fiber.Ctx) error {
	return h.toggleComment(c, (*service.Session).ToggleCommentLike)
}

// ToggleCommentDislike handles POST /api/sessions/:sessionId/comments/:commentId/dislike
func (h *SessionHandler) ToggleCommentDislike(c fiber.Ctx) error {
	return h.toggleComment(c, (*service.Session).ToggleCommentDislike)
}

func (h *SessionHandler) toggleComment(c fiber.Ctx, toggle func(*service.Session, context.Context, string) (model.ReactionState, error)) error {
	s, err := h.session(c)
	if err != nil {
		return respondError(c, err)
	}
	commentID, err := param(c, "commentId")
	if err != nil {
		return respondError(c, err)
	}
	st, err := toggle(s, c.Context(), commentID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(st)
}

// SubmitComment handles POST /api/sessions/:sessionId/comments
func (h *SessionHandler) SubmitComment(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return respondError(c, err)
	}
	var req model.CommentRequest
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}
	if errMsg := middleware.ValidateCommentText(req.Text); errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}
	if req.ReplyTo != "" {
		id, errMsg := middleware.ValidateID("replyTo", req.ReplyTo)
		if errMsg != "" {
			return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
		}
		req.ReplyTo = id
	}
	node, err := s.SubmitComment(c.Context(), req.Text, req.ReplyTo)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(node)
}

// EditComment handles PATCH /api/sessions/:sessionId/comments/:commentId
func (h *SessionHandler) EditComment(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return respondError(c, err)
	}
	commentID, err := param(c, "commentId")
	if err != nil {
		return respondError(c, err)
	}
	var req model.CommentEditRequest
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}
	if errMsg := middleware.ValidateCommentText(req.Text); errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}
	if err := s.EditComment(c.Context(), commentID, req.Text); err != nil {
		return respondError(c, err)
	}
	return c.JSON(s.Snapshot())
}

// DeleteComment handles DELETE /api/sessions/:sessionId/comments/:commentId
func (h *SessionHandler) DeleteComment(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return respondError(c, err)
	}
	commentID, err := param(c, "commentId")
	if err != nil {
		return respondError(c, err)
	}
	if err := s.DeleteComment(c.Context(), commentID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ReplyPrefill handles GET /api/sessions/:sessionId/comments/:commentId/reply
func (h *SessionHandler) ReplyPrefill(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return respondError(c, err)
	}
	commentID, err := param(c, "commentId")
	if err != nil {
		return respondError(c, err)
	}
	parentID, text, err := s.ReplyPrefill(commentID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(model.ReplyPrefillResponse{ParentID: parentID, Text: text})
}

// SetCommentSort handles PUT /api/sessions/:sessionId/comments/sort
func (h *SessionHandler) SetCommentSort(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return respondError(c, err)
	}
	var req model.SortRequest
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}
	if err := s.SetCommentSort(c.Context(), req.Sort); err != nil {
		return respondError(c, err)
	}
	return c.JSON(s.Snapshot())
}

// PlaybackStarted handles POST /api/sessions/:sessionId/playback
func (h *SessionHandler) PlaybackStarted(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return respondError(c, err)
	}
	if err := s.PlaybackStarted(c.Context()); err != nil {
		return respondError(c, err)
	}
	snap := s.Snapshot()
	return c.JSON(model.ViewResponse{VideoID: snap.TargetID, ViewCount: snap.ViewCount})
}

// LoadFeed handles POST /api/sessions/:sessionId/feed/:ownerId
func (h *SessionHandler) LoadFeed(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return respondError(c, err)
	}
	ownerID, err := param(c, "ownerId")
	if err != nil {
		return respondError(c, err)
	}
	if _, err := s.LoadFeed(c.Context(), ownerID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(s.Snapshot())
}
