package tourRepo

import (
	"context"

	"tourbook/database/repository"
	"tourbook/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TourRepository defines data access for tours. Secret tours are hidden
// from every read.
type TourRepository interface {
	repository.Store[models.Tour]
	Stats(ctx context.Context, minRating float64) ([]models.TourStats, error)
	MonthlyPlan(ctx context.Context, year int) ([]models.MonthlyPlan, error)
	// Within returns tours starting inside a sphere cap of radius radians.
	Within(ctx context.Context, lat, lng, radius float64) ([]models.Tour, error)
	// Distances lists every tour by distance from the point, scaled by
	// multiplier from metres.
	Distances(ctx context.Context, lat, lng, multiplier float64) ([]models.TourDistance, error)
	Summaries(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.TourSummary, error)
	SetRatings(ctx context.Context, id primitive.ObjectID, stats models.RatingStats) error
	IDs(ctx context.Context) ([]primitive.ObjectID, error)
}

// ReviewLister loads the reviews of a set of tours.
type ReviewLister interface {
	ForTours(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID][]models.Review, error)
}

// UserSummaries loads public user profiles.
type UserSummaries interface {
	Summaries(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.UserSummary, error)
}
