package userRepo

import (
	"context"
	"time"

	"tourbook/database/repository"
	"tourbook/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserRepository defines methods for user data access. Deactivated users are
// invisible to every method.
type UserRepository interface {
	repository.Store[models.User]
	// GetByEmail retrieves a user, including the password hash, by email.
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// GetByResetToken finds the user holding an unexpired hashed reset token.
	GetByResetToken(ctx context.Context, hashed string, now time.Time) (*models.User, error)
	SetResetToken(ctx context.Context, id primitive.ObjectID, hashed string, expires time.Time) error
	ClearResetToken(ctx context.Context, id primitive.ObjectID) error
	// SetPassword stores a new hash, stamps passwordChangedAt and clears any
	// pending reset token.
	SetPassword(ctx context.Context, id primitive.ObjectID, hash string, changedAt time.Time) error
	SetPhoto(ctx context.Context, id primitive.ObjectID, photo string) (*models.User, error)
	Deactivate(ctx context.Context, id primitive.ObjectID) error
	// Summaries loads the public profile of each id.
	Summaries(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.UserSummary, error)
}
