package booking

import (
	"context"

	"tourbook/models"
	"tourbook/services/payment"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CheckoutService turns a paid checkout into exactly one booking.
type CheckoutService interface {
	// CreateCheckoutSession opens a hosted payment page for one tour.
	CreateCheckoutSession(ctx context.Context, tourID string, buyer Buyer) (*models.CheckoutSession, error)
	// HandleWebhook processes a signed provider callback. Only a bad
	// signature is an error; every other outcome is logged.
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
	// ConfirmSession records the booking of a paid session owned by buyer.
	ConfirmSession(ctx context.Context, sessionID string, buyerID primitive.ObjectID) (*models.Booking, error)
	MyBookings(ctx context.Context, userID primitive.ObjectID) ([]models.Booking, error)
}

// Buyer is the authenticated user starting a checkout.
type Buyer struct {
	ID    primitive.ObjectID
	Email string
}

type TourFinder interface {
	FindByID(ctx context.Context, id string, populate ...string) (*models.Tour, error)
}

type BookingStore interface {
	CreateForSession(ctx context.Context, b *models.Booking) (*models.Booking, bool, error)
	ByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Booking, error)
}

// DefaultCheckoutService implements CheckoutService.
type DefaultCheckoutService struct {
	Tours     TourFinder
	Bookings  BookingStore
	Gateway   payment.Gateway
	ClientURL string
	ImageBase string
}
