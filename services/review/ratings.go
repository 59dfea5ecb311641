package review

import (
	"context"
	"fmt"

	"tourbook/models"
	"tourbook/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ReviewStats aggregates stored reviews.
type ReviewStats interface {
	RatingStats(ctx context.Context, tourID primitive.ObjectID) (models.RatingStats, bool, error)
}

// TourRatings persists derived ratings on tours.
type TourRatings interface {
	SetRatings(ctx context.Context, id primitive.ObjectID, stats models.RatingStats) error
	IDs(ctx context.Context) ([]primitive.ObjectID, error)
}

// RatingCalculator keeps ratingsAverage and ratingsQuantity of a tour equal
// to the aggregate of its reviews.
type RatingCalculator struct {
	reviews ReviewStats
	tours   TourRatings
}

func NewRatingCalculator(reviews ReviewStats, tours TourRatings) *RatingCalculator {
	return &RatingCalculator{reviews: reviews, tours: tours}
}

// Recalculate recomputes one tour from scratch. A tour without reviews is
// reset to 0 and 0.
func (c *RatingCalculator) Recalculate(ctx context.Context, tourID primitive.ObjectID) error {
	stats, ok, err := c.reviews.RatingStats(ctx, tourID)
	if err != nil {
		return fmt.Errorf("failed to aggregate ratings of tour %s: %w", tourID.Hex(), err)
	}
	if !ok {
		stats = models.RatingStats{}
	}
	return c.tours.SetRatings(ctx, tourID, stats)
}

// AfterWrite is the review store hook. It recomputes every tour the write
// touched, both tours when a review moved.
func (c *RatingCalculator) AfterWrite(ctx context.Context, before, after *models.Review) error {
	var touched []primitive.ObjectID
	if before != nil && !before.Tour.IsZero() {
		touched = append(touched, before.Tour)
	}
	if after != nil && !after.Tour.IsZero() && (before == nil || after.Tour != before.Tour) {
		touched = append(touched, after.Tour)
	}
	for _, id := range touched {
		if err := c.Recalculate(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// ReconcileAll recomputes every tour. Failures are logged and the sweep
// continues; the first error is returned.
func (c *RatingCalculator) ReconcileAll(ctx context.Context) error {
	ids, err := c.tours.IDs(ctx)
	if err != nil {
		return err
	}
	var first error
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.Recalculate(ctx, id); err != nil {
			utils.GetLogger().Error("Failed to reconcile tour ratings", zap.String("tourId", id.Hex()), zap.Error(err))
			if first == nil {
				first = err
			}
		}
	}
	utils.GetLogger().Info("Reconciled tour ratings", zap.Int("tours", len(ids)))
	return first
}
