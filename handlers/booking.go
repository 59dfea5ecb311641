package handlers

import (
	"io"
	"net/http"

	"tourbook/database/repository"
	"tourbook/middleware"
	"tourbook/models"
	bookingService "tourbook/services/booking"
	"tourbook/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxWebhookBytes = 65536

// BookingHandler serves checkout and the caller's bookings.
type BookingHandler struct {
	Checkout bookingService.CheckoutService
}

// NewBookingAdminResource builds the admin booking handlers.
func NewBookingAdminResource(store repository.Store[models.Booking]) *Resource[models.Booking] {
	return &Resource[models.Booking]{
		Store:        store,
		GetPopulate:  []string{"tour", "user"},
		ListPopulate: []string{"tour", "user"},
		Protected:    []string{"stripeSessionId"},
	}
}

func (h *BookingHandler) CheckoutSession(c *gin.Context) {
	id, ok := callerID(c)
	if !ok {
		return
	}
	entry, _ := middleware.CurrentUser(c)

	session, err := h.Checkout.CreateCheckoutSession(c.Request.Context(), c.Param("tourId"), bookingService.Buyer{
		ID:    id,
		Email: entry.Email,
	})
	if err != nil {
		getLogger(c).Error("Checkout session failed", zap.String("tourId", c.Param("tourId")), zap.Error(err))
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "session": session})
}

// Webhook receives signed payment events. The raw body is required for
// signature verification.
func (h *BookingHandler) Webhook(c *gin.Context) {
	logger := getLogger(c)
	signature := c.GetHeader("Stripe-Signature")
	if signature == "" {
		fail(c, bookingService.ErrNoSignature)
		return
	}

	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBytes))
	if err != nil {
		logger.Error("Failed to read webhook body", zap.Error(err))
		fail(c, utils.BadRequest("Could not read request body"))
		return
	}
	if err := h.Checkout.HandleWebhook(c.Request.Context(), payload, signature); err != nil {
		logger.Warn("Webhook rejected", zap.Error(err))
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}

// Confirm records the booking of a paid session after the client returns
// from the hosted payment page.
func (h *BookingHandler) Confirm(c *gin.Context) {
	id, ok := callerID(c)
	if !ok {
		return
	}
	booking, err := h.Checkout.ConfirmSession(c.Request.Context(), c.Query("session_id"), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": gin.H{"booking": booking}})
}

func (h *BookingHandler) MyBookings(c *gin.Context) {
	id, ok := callerID(c)
	if !ok {
		return
	}
	bookings, err := h.Checkout.MyBookings(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	if bookings == nil {
		bookings = []models.Booking{}
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "results": len(bookings), "data": bookings})
}
