package reviewRepo

import (
	"context"

	"tourbook/database/repository"
	"tourbook/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReviewRepository defines data access for reviews.
type ReviewRepository interface {
	repository.Store[models.Review]
	// RatingStats aggregates the reviews of one tour. ok is false when the
	// tour has no reviews.
	RatingStats(ctx context.Context, tourID primitive.ObjectID) (stats models.RatingStats, ok bool, err error)
	ForTours(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID][]models.Review, error)
}

type UserSummaries interface {
	Summaries(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.UserSummary, error)
}
