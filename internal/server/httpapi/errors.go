package httpapi

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dpetukhov/livetalks/internal/common"
)

// statusFromError maps the service layer's sentinel errors to HTTP status
// codes. Anything unrecognized is treated as an internal failure.
func statusFromError(err error) int {
	switch {
	case errors.Is(err, common.ErrorInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrorUnauthorized), errors.Is(err, common.ErrTokenExpired):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrorForbidden),
		errors.Is(err, common.ErrorAlreadyVerified),
		errors.Is(err, common.ErrorEmailConflict):
		return http.StatusForbidden
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrorConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// jsonError renders a service error as a JSON body. Internal errors are
// not echoed back to the client.
func (s *Server) jsonError(c echo.Context, err error) error {
	status := statusFromError(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.Error(c.Request().Context(), "internal error", "error", err, "path", c.Path())
		msg = "internal error"
	}
	return c.JSON(status, echo.Map{"error": msg})
}
