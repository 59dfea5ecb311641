package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"tourbook/models"
	bookingService "tourbook/services/booking"
	"tourbook/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type stubCheckout struct {
	buyer     bookingService.Buyer
	payload   string
	signature string
	webhook   error
	bookings  []models.Booking
}

func (s *stubCheckout) CreateCheckoutSession(_ context.Context, tourID string, buyer bookingService.Buyer) (*models.CheckoutSession, error) {
	s.buyer = buyer
	if tourID == "missing" {
		return nil, bookingService.ErrTourNotFound
	}
	return &models.CheckoutSession{ID: "cs_test_1", URL: "https://checkout.example/cs_test_1"}, nil
}

func (s *stubCheckout) HandleWebhook(_ context.Context, payload []byte, signature string) error {
	s.payload, s.signature = string(payload), signature
	return s.webhook
}

func (s *stubCheckout) ConfirmSession(_ context.Context, sessionID string, _ primitive.ObjectID) (*models.Booking, error) {
	if sessionID == "" {
		return nil, bookingService.ErrMissingSession
	}
	return &models.Booking{StripeSessionID: sessionID}, nil
}

func (s *stubCheckout) MyBookings(context.Context, primitive.ObjectID) ([]models.Booking, error) {
	return s.bookings, nil
}

func webhookRequest(body, signature string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	if signature != "" {
		req.Header.Set("Stripe-Signature", signature)
	}
	return req
}

func TestWebhook(t *testing.T) {
	t.Run("missing signature", func(t *testing.T) {
		stub := &stubCheckout{}
		r := newRouter()
		r.POST("/webhook", (&BookingHandler{Checkout: stub}).Webhook)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, webhookRequest(`{}`, ""))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "No stripe signature found", decode(t, w)["message"])
		assert.Empty(t, stub.payload)
	})

	t.Run("passes raw body", func(t *testing.T) {
		stub := &stubCheckout{}
		r := newRouter()
		r.POST("/webhook", (&BookingHandler{Checkout: stub}).Webhook)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, webhookRequest(`{"id":"evt_1"}`, "t=1,v1=abc"))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, true, decode(t, w)["received"])
		assert.Equal(t, `{"id":"evt_1"}`, stub.payload)
		assert.Equal(t, "t=1,v1=abc", stub.signature)
	})

	t.Run("bad signature", func(t *testing.T) {
		stub := &stubCheckout{webhook: utils.BadRequest("Webhook signature verification failed")}
		r := newRouter()
		r.POST("/webhook", (&BookingHandler{Checkout: stub}).Webhook)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, webhookRequest(`{}`, "t=1,v1=bad"))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestCheckoutSessionUsesCaller(t *testing.T) {
	stub := &stubCheckout{}
	caller := primitive.NewObjectID()
	r := newRouter()
	r.GET("/checkout-session/:tourId",
		asCaller(&utils.AuthEntry{UserID: caller.Hex(), Email: "ann@example.com", Role: "user"}),
		(&BookingHandler{Checkout: stub}).CheckoutSession)

	w := doJSON(t, r, http.MethodGet, "/checkout-session/"+primitive.NewObjectID().Hex(), "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, "cs_test_1", body["session"].(map[string]any)["id"])
	assert.Equal(t, caller, stub.buyer.ID)
	assert.Equal(t, "ann@example.com", stub.buyer.Email)

	assert.Equal(t, http.StatusNotFound, doJSON(t, r, http.MethodGet, "/checkout-session/missing", "").Code)
}

func TestConfirmAndMyBookings(t *testing.T) {
	stub := &stubCheckout{}
	h := &BookingHandler{Checkout: stub}
	caller := &utils.AuthEntry{UserID: primitive.NewObjectID().Hex(), Role: "user"}
	r := newRouter()
	r.GET("/confirm", asCaller(caller), h.Confirm)
	r.GET("/my-bookings", asCaller(caller), h.MyBookings)
	r.GET("/anonymous", h.MyBookings)

	assert.Equal(t, http.StatusBadRequest, doJSON(t, r, http.MethodGet, "/confirm", "").Code)
	assert.Equal(t, http.StatusOK, doJSON(t, r, http.MethodGet, "/confirm?session_id=cs_1", "").Code)

	body := decode(t, doJSON(t, r, http.MethodGet, "/my-bookings", ""))
	assert.EqualValues(t, 0, body["results"])
	assert.Equal(t, []any{}, body["data"])

	assert.Equal(t, http.StatusUnauthorized, doJSON(t, r, http.MethodGet, "/anonymous", "").Code)
}
