package users

import (
	"context"

	"github.com/dpetukhov/livetalks/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUserName(ctx context.Context, userName string) (*models.User, error)
	UserNameExists(ctx context.Context, userName string) (bool, error)
	// VerifiedEmailExists reports whether a verified account other than
	// excludeUserID already holds the given email.
	VerifiedEmailExists(ctx context.Context, email string, excludeUserID string) (bool, error)
	SetVerified(ctx context.Context, id string) error
}
