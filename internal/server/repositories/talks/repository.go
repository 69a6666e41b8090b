package talks

import (
	"context"

	"github.com/dpetukhov/livetalks/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, talk *models.Talk) (*models.Talk, error)
	GetByID(ctx context.Context, id int64) (*models.Talk, error)
	// FindStreamable returns the talk only when it is approved and its
	// event is published. Any other state reports ErrorNotFound, so a
	// caller cannot distinguish hidden talks from missing ones.
	FindStreamable(ctx context.Context, id int64) (*models.Talk, error)
	UpdateStatus(ctx context.Context, id int64, status models.TalkStatus) error
	ListBySpeaker(ctx context.Context, speakerID string) ([]*models.Talk, error)
}
