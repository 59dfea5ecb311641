package bookingRepo

import (
	"context"

	"tourbook/database/repository"
	"tourbook/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BookingRepository defines data access for bookings.
type BookingRepository interface {
	repository.Store[models.Booking]
	// CreateForSession records a booking once per payment session. When the
	// session was already recorded the stored booking is returned and
	// created is false.
	CreateForSession(ctx context.Context, b *models.Booking) (stored *models.Booking, created bool, err error)
	FindBySession(ctx context.Context, sessionID string) (*models.Booking, error)
	ByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Booking, error)
}

type TourSummaries interface {
	Summaries(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.TourSummary, error)
}

type UserSummaries interface {
	Summaries(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.UserSummary, error)
}
