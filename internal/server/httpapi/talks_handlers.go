package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dpetukhov/livetalks/internal/server/models"
)

type createTalkRequest struct {
	Title string    `json:"title"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type talkResponse struct {
	ID        int64     `json:"id"`
	EventID   string    `json:"event_id"`
	SpeakerID string    `json:"speaker_id"`
	Title     string    `json:"title"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// toTalkResponse never includes the stream key; it is retrievable only by
// the speaker through the dedicated endpoint.
func toTalkResponse(t *models.Talk) talkResponse {
	return talkResponse{
		ID:        t.ID,
		EventID:   t.EventID,
		SpeakerID: t.SpeakerID,
		Title:     t.Title,
		Start:     t.Start,
		End:       t.End,
		Status:    string(t.Status),
		CreatedAt: t.CreatedAt,
	}
}

func talkIDParam(c echo.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}

func (s *Server) handleCreateTalk(c echo.Context) error {
	var req createTalkRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	talk, err := s.talks.Create(c.Request().Context(), c.Param("id"), currentUserID(c), req.Title, req.Start, req.End)
	if err != nil {
		return s.jsonError(c, err)
	}

	return c.JSON(http.StatusCreated, toTalkResponse(talk))
}

func (s *Server) handleMyTalks(c echo.Context) error {
	talks, err := s.talks.ListBySpeaker(c.Request().Context(), currentUserID(c))
	if err != nil {
		return s.jsonError(c, err)
	}

	res := make([]talkResponse, 0, len(talks))
	for _, t := range talks {
		res = append(res, toTalkResponse(t))
	}
	return c.JSON(http.StatusOK, res)
}

func (s *Server) handleApproveTalk(c echo.Context) error {
	id, err := talkIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid talk id"})
	}

	if err := s.talks.Approve(c.Request().Context(), id, currentUserID(c)); err != nil {
		return s.jsonError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleRejectTalk(c echo.Context) error {
	id, err := talkIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid talk id"})
	}

	if err := s.talks.Reject(c.Request().Context(), id, currentUserID(c)); err != nil {
		return s.jsonError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleTalkStreamKey(c echo.Context) error {
	id, err := talkIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid talk id"})
	}

	key, err := s.talks.GetStreamKey(c.Request().Context(), id, currentUserID(c))
	if err != nil {
		return s.jsonError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"stream_key": key})
}
