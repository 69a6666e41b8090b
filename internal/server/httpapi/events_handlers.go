package httpapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dpetukhov/livetalks/internal/server/models"
)

type createEventRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	StartedAt   time.Time `json:"started_at"`
}

type eventResponse struct {
	ID          string    `json:"id"`
	OrganizerID string    `json:"organizer_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	IsPublished bool      `json:"is_published"`
	StartedAt   time.Time `json:"started_at"`
	CreatedAt   time.Time `json:"created_at"`
}

func toEventResponse(e *models.Event) eventResponse {
	return eventResponse{
		ID:          e.ID,
		OrganizerID: e.OrganizerID,
		Title:       e.Title,
		Description: e.Description,
		IsPublished: e.IsPublished,
		StartedAt:   e.StartedAt,
		CreatedAt:   e.CreatedAt,
	}
}

func (s *Server) handleCreateEvent(c echo.Context) error {
	var req createEventRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	event, err := s.events.Create(c.Request().Context(), currentUserID(c), req.Title, req.Description, req.StartedAt)
	if err != nil {
		return s.jsonError(c, err)
	}

	return c.JSON(http.StatusCreated, toEventResponse(event))
}

func (s *Server) handleGetEvent(c echo.Context) error {
	event, err := s.events.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return s.jsonError(c, err)
	}

	return c.JSON(http.StatusOK, toEventResponse(event))
}

func (s *Server) handlePublishEvent(c echo.Context) error {
	if err := s.events.Publish(c.Request().Context(), c.Param("id"), currentUserID(c)); err != nil {
		return s.jsonError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleBookEvent(c echo.Context) error {
	if err := s.events.Book(c.Request().Context(), c.Param("id"), currentUserID(c)); err != nil {
		return s.jsonError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handlePictureUploadURL(c echo.Context) error {
	url, err := s.events.GetPictureUploadURL(c.Request().Context(), c.Param("id"), currentUserID(c))
	if err != nil {
		return s.jsonError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"upload_url": url})
}

func (s *Server) handlePictureDownloadURL(c echo.Context) error {
	url, err := s.events.GetPictureDownloadURL(c.Request().Context(), c.Param("id"))
	if err != nil {
		return s.jsonError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"picture_url": url})
}
