package events

import (
	"context"

	"github.com/dpetukhov/livetalks/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, event *models.Event) (*models.Event, error)
	GetByID(ctx context.Context, id string) (*models.Event, error)
	// Publish flips is_published to true. Publishing is one-way: there is
	// no operation to unpublish an event.
	Publish(ctx context.Context, id string) error
	SetPictureKey(ctx context.Context, id string, key string) error
	AddAttendee(ctx context.Context, eventID string, userID string) error
	// IsOrganizerOrAttendee reports whether the user organizes the event
	// or has booked it.
	IsOrganizerOrAttendee(ctx context.Context, eventID string, userID string) (bool, error)
}
