package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/LiveStak-Brad/mylivelinks-sub002/internal/middleware"
	"github.com/LiveStak-Brad/mylivelinks-sub002/internal/service"
)

// respondError maps an engine error to its HTTP status and error code.
func respondError(c fiber.Ctx, err error) error {
	var (
		valErr *service.ValidationError
		confl  *service.ConflictError
		netErr *service.NetworkError
	)
	switch {
	case errors.Is(err, service.ErrAuthRequired):
		return middleware.ErrorResponse(c, fiber.StatusUnauthorized, "AUTH_REQUIRED", "Sign in to do that")
	case errors.Is(err, service.ErrForbidden):
		return middleware.ErrorResponse(c, fiber.StatusForbidden, "FORBIDDEN", err.Error())
	case errors.As(err, &valErr):
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", valErr.Error())
	case errors.Is(err, service.ErrNotFound):
		return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "Not found")
	case errors.Is(err, service.ErrInactive):
		return middleware.ErrorResponse(c, fiber.StatusConflict, "NO_ACTIVE_VIDEO", "No video is active in this session")
	case errors.As(err, &confl):
		return middleware.ErrorResponse(c, fiber.StatusConflict, "CONFLICT", confl.Error())
	case errors.As(err, &netErr):
		middleware.Logger.Warn().Err(err).Str("op", netErr.Op).Msg("upstream failure")
		return middleware.ErrorResponse(c, fiber.StatusBadGateway, "UPSTREAM_ERROR", "The data service is unavailable, try again")
	default:
		middleware.Logger.Error().Err(err).Msg("unhandled error")
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Something went wrong")
	}
}

// viewerID reads the signed-in viewer from X-User-ID; "" means signed out.
func viewerID(c fiber.Ctx) (string, error) {
	id, errMsg := middleware.ValidateUserID(c.Get("X-User-ID"))
	if errMsg != "" {
		return "", &service.ValidationError{Field: "X-User-ID", Reason: errMsg}
	}
	return id, nil
}

func param(c fiber.Ctx, name string) (string, error) {
	id, errMsg := middleware.ValidateID(name, c.Params(name))
	if errMsg != "" {
		return "", &service.ValidationError{Field: name, Reason: errMsg}
	}
	return id, nil
}
