package booking

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"tourbook/database/repository"
	"tourbook/models"
	"tourbook/services/payment"
	"tourbook/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func (s *DefaultCheckoutService) CreateCheckoutSession(ctx context.Context, tourID string, buyer Buyer) (*models.CheckoutSession, error) {
	tour, err := s.Tours.FindByID(ctx, tourID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTourNotFound
		}
		return nil, err
	}

	client := strings.TrimRight(s.ClientURL, "/")
	req := payment.CheckoutRequest{
		TourID:        tour.ID.Hex(),
		TourName:      tour.Name,
		Summary:       tour.Summary,
		ImageURL:      strings.TrimRight(s.ImageBase, "/") + "/" + tour.ImageCover,
		Price:         tour.Price,
		UserID:        buyer.ID.Hex(),
		CustomerEmail: buyer.Email,
		SuccessURL:    client + "/booking-success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:     client + "/tour/" + tour.ID.Hex(),
	}
	session, err := s.Gateway.CreateCheckoutSession(ctx, req)
	if err != nil {
		return nil, err
	}
	utils.GetLogger().Info("Checkout session created",
		zap.String("sessionId", session.ID),
		zap.String("tourId", req.TourID),
		zap.String("userId", req.UserID),
		zap.String("state", string(models.CheckoutRequested)))
	return session, nil
}

func (s *DefaultCheckoutService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if signature == "" {
		return ErrNoSignature
	}
	ev, err := s.Gateway.ParseWebhook(payload, signature)
	if err != nil {
		if errors.Is(err, payment.ErrInvalidSignature) {
			return utils.NewAppError(http.StatusBadRequest, "Webhook signature verification failed", err)
		}
		// Verified but unreadable events are still acknowledged.
		utils.GetLogger().Error("Failed to process webhook event", zap.Error(err))
		return nil
	}

	logger := utils.GetLogger().With(
		zap.String("eventId", ev.EventID),
		zap.String("type", ev.Type),
		zap.String("sessionId", ev.SessionID))

	switch ev.State {
	case models.CheckoutConfirmed:
		if _, err := s.record(ctx, ev); err != nil {
			logger.Error("Failed to record booking", zap.Error(err))
		}
	case models.CheckoutPending:
		logger.Info("Checkout awaiting payment")
	case models.CheckoutAbandoned:
		logger.Info("Checkout abandoned", zap.String("tourId", ev.TourID), zap.String("userId", ev.UserID))
	default:
		logger.Debug("Ignoring webhook event")
	}
	return nil
}

func (s *DefaultCheckoutService) ConfirmSession(ctx context.Context, sessionID string, buyerID primitive.ObjectID) (*models.Booking, error) {
	if sessionID == "" {
		return nil, ErrMissingSession
	}
	ev, err := s.Gateway.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if ev.UserID != buyerID.Hex() {
		return nil, ErrSessionNotYours
	}
	if ev.State != models.CheckoutConfirmed {
		return nil, ErrPaymentNotPaid
	}
	return s.record(ctx, ev)
}

// record stores the booking of a confirmed session once.
func (s *DefaultCheckoutService) record(ctx context.Context, ev *models.CheckoutEvent) (*models.Booking, error) {
	tourID, err := primitive.ObjectIDFromHex(ev.TourID)
	if err != nil {
		return nil, fmt.Errorf("session %s has no valid tour reference: %q", ev.SessionID, ev.TourID)
	}
	userID, err := primitive.ObjectIDFromHex(ev.UserID)
	if err != nil {
		return nil, fmt.Errorf("session %s has no valid user reference: %q", ev.SessionID, ev.UserID)
	}
	if ev.Price <= 0 {
		return nil, fmt.Errorf("session %s has no price", ev.SessionID)
	}

	paid := true
	b := &models.Booking{
		Tour:            tourID,
		User:            userID,
		Price:           ev.Price,
		Paid:            &paid,
		StripeSessionID: ev.SessionID,
	}
	stored, created, err := s.Bookings.CreateForSession(ctx, b)
	if err != nil {
		return nil, err
	}
	if created {
		utils.GetLogger().Info("Booking confirmed",
			zap.String("bookingId", stored.ID.Hex()),
			zap.String("sessionId", ev.SessionID),
			zap.String("state", string(models.CheckoutConfirmed)))
	}
	return stored, nil
}

func (s *DefaultCheckoutService) MyBookings(ctx context.Context, userID primitive.ObjectID) ([]models.Booking, error) {
	return s.Bookings.ByUser(ctx, userID)
}
