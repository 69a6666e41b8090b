package tokens

import (
	"context"
	"time"

	"github.com/dpetukhov/livetalks/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, token *models.Token) (*models.Token, error)
	// FindByKey returns all tokens of the given purpose whose stored
	// lookup key matches tokenKey. Collisions are possible, so more than
	// one candidate may be returned.
	FindByKey(ctx context.Context, purpose models.TokenPurpose, tokenKey string) ([]*models.Token, error)
	Delete(ctx context.Context, id string) error
	UpdateExpiry(ctx context.Context, id string, expires time.Time) error
	// DeleteExpired removes tokens of every purpose whose expiry has
	// passed and returns the number of rows deleted.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
