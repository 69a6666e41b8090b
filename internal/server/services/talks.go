package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dpetukhov/livetalks/internal/common"
	"github.com/dpetukhov/livetalks/internal/server/models"
	"github.com/dpetukhov/livetalks/internal/server/repositories/repomanager"
	"github.com/dpetukhov/livetalks/internal/shared"
)

// streamKeyLength is the length of the per-talk static stream secret.
const streamKeyLength = 20

type TalkService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewTalkService(db *sql.DB, m repomanager.RepositoryManager) *TalkService {
	return &TalkService{db: db, repomanager: m}
}

// Create submits a talk to a published event. The stream key is generated
// here, once, and never changes afterwards.
func (s *TalkService) Create(ctx context.Context, eventID, speakerID, title string, start, end time.Time) (*models.Talk, error) {
	if title == "" {
		return nil, fmt.Errorf("title is required: %w", common.ErrorInvalidRequest)
	}
	if !start.Before(end) {
		return nil, fmt.Errorf("talk must start before it ends: %w", common.ErrorInvalidRequest)
	}

	event, err := s.repomanager.Events(s.db).GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !event.IsPublished {
		return nil, common.ErrorNotFound
	}

	streamKey, err := shared.MakeRandString(streamKeyLength)
	if err != nil {
		return nil, common.ErrorInternal
	}

	talk, err := s.repomanager.Talks(s.db).Create(ctx, &models.Talk{
		EventID:   eventID,
		SpeakerID: speakerID,
		Title:     title,
		Start:     start,
		End:       end,
		Status:    models.TalkStatusPending,
		StreamKey: streamKey,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating talk: %w", err)
	}
	return talk, nil
}

// GetByID returns the talk record.
func (s *TalkService) GetByID(ctx context.Context, id int64) (*models.Talk, error) {
	return s.repomanager.Talks(s.db).GetByID(ctx, id)
}

// ListBySpeaker returns all talks submitted by the speaker.
func (s *TalkService) ListBySpeaker(ctx context.Context, speakerID string) ([]*models.Talk, error) {
	return s.repomanager.Talks(s.db).ListBySpeaker(ctx, speakerID)
}

// setStatus moderates a talk. Only the organizer of the talk's event may
// do so, and only transitions out of pending are allowed.
func (s *TalkService) setStatus(ctx context.Context, talkID int64, actorID string, status models.TalkStatus) error {
	talk, err := s.repomanager.Talks(s.db).GetByID(ctx, talkID)
	if err != nil {
		return err
	}

	event, err := s.repomanager.Events(s.db).GetByID(ctx, talk.EventID)
	if err != nil {
		return common.ErrorInternal
	}
	if event.OrganizerID != actorID {
		return common.ErrorForbidden
	}

	if !talk.CanTransitionTo(status) {
		return fmt.Errorf("talk is already %s: %w", talk.Status, common.ErrorForbidden)
	}

	return s.repomanager.Talks(s.db).UpdateStatus(ctx, talkID, status)
}

// Approve moves a pending talk to approved.
func (s *TalkService) Approve(ctx context.Context, talkID int64, actorID string) error {
	return s.setStatus(ctx, talkID, actorID, models.TalkStatusApproved)
}

// Reject moves a pending talk to rejected.
func (s *TalkService) Reject(ctx context.Context, talkID int64, actorID string) error {
	return s.setStatus(ctx, talkID, actorID, models.TalkStatusRejected)
}

// GetStreamKey reveals the talk's publish secret to its speaker only.
func (s *TalkService) GetStreamKey(ctx context.Context, talkID int64, actorID string) (string, error) {
	talk, err := s.repomanager.Talks(s.db).GetByID(ctx, talkID)
	if err != nil {
		return "", err
	}
	if talk.SpeakerID != actorID {
		return "", common.ErrorForbidden
	}
	return talk.StreamKey, nil
}
