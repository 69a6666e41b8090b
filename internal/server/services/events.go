package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dpetukhov/livetalks/internal/common"
	"github.com/dpetukhov/livetalks/internal/server/config"
	"github.com/dpetukhov/livetalks/internal/server/models"
	"github.com/dpetukhov/livetalks/internal/server/repositories/repomanager"
)

type EventService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *config.Config
}

func NewEventService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *EventService {
	return &EventService{
		db:          db,
		repomanager: m,
		config:      cfg,
	}
}

// Create registers a new unpublished event owned by the organizer.
func (s *EventService) Create(ctx context.Context, organizerID, title, description string, startedAt time.Time) (*models.Event, error) {
	if title == "" {
		return nil, fmt.Errorf("title is required: %w", common.ErrorInvalidRequest)
	}

	event, err := s.repomanager.Events(s.db).Create(ctx, &models.Event{
		OrganizerID: organizerID,
		Title:       title,
		Description: description,
		StartedAt:   startedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating event: %w", err)
	}
	return event, nil
}

// GetByID returns the event record.
func (s *EventService) GetByID(ctx context.Context, id string) (*models.Event, error) {
	return s.repomanager.Events(s.db).GetByID(ctx, id)
}

// requireOrganizer loads the event and checks the actor owns it.
func (s *EventService) requireOrganizer(ctx context.Context, eventID, actorID string) (*models.Event, error) {
	event, err := s.repomanager.Events(s.db).GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.OrganizerID != actorID {
		return nil, common.ErrorForbidden
	}
	return event, nil
}

// Publish makes the event visible. Publishing is one-way; there is no
// unpublish.
func (s *EventService) Publish(ctx context.Context, eventID, actorID string) error {
	if _, err := s.requireOrganizer(ctx, eventID, actorID); err != nil {
		return err
	}
	return s.repomanager.Events(s.db).Publish(ctx, eventID)
}

// Book records the user as an attendee. Unpublished events are reported
// as missing so they cannot be discovered by probing.
func (s *EventService) Book(ctx context.Context, eventID, userID string) error {
	event, err := s.repomanager.Events(s.db).GetByID(ctx, eventID)
	if err != nil {
		return err
	}
	if !event.IsPublished {
		return common.ErrorNotFound
	}
	return s.repomanager.Events(s.db).AddAttendee(ctx, eventID, userID)
}
