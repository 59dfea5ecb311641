package booking

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"tourbook/database/repository"
	"tourbook/models"
	"tourbook/services/payment"
	"tourbook/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeTours struct {
	tours map[string]*models.Tour
}

func (f *fakeTours) FindByID(_ context.Context, id string, _ ...string) (*models.Tour, error) {
	if t, ok := f.tours[id]; ok {
		return t, nil
	}
	return nil, repository.ErrNotFound
}

// fakeBookings keys bookings by session like the unique index does.
type fakeBookings struct {
	mu        sync.Mutex
	bySession map[string]*models.Booking
}

func newFakeBookings() *fakeBookings {
	return &fakeBookings{bySession: map[string]*models.Booking{}}
}

func (f *fakeBookings) CreateForSession(_ context.Context, b *models.Booking) (*models.Booking, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.bySession[b.StripeSessionID]; ok {
		return existing, false, nil
	}
	b.ID = primitive.NewObjectID()
	f.bySession[b.StripeSessionID] = b
	return b, true, nil
}

func (f *fakeBookings) ByUser(_ context.Context, userID primitive.ObjectID) ([]models.Booking, error) {
	var out []models.Booking
	for _, b := range f.bySession {
		if b.User == userID {
			out = append(out, *b)
		}
	}
	return out, nil
}

type fakeGateway struct {
	lastRequest payment.CheckoutRequest
	event       *models.CheckoutEvent
	session     *models.CheckoutEvent
	parseErr    error
}

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, req payment.CheckoutRequest) (*models.CheckoutSession, error) {
	g.lastRequest = req
	return &models.CheckoutSession{ID: "cs_test", URL: "https://checkout.stripe.com/c/pay/cs_test"}, nil
}

func (g *fakeGateway) GetCheckoutSession(context.Context, string) (*models.CheckoutEvent, error) {
	return g.session, nil
}

func (g *fakeGateway) ParseWebhook([]byte, string) (*models.CheckoutEvent, error) {
	return g.event, g.parseErr
}

func newService(g *fakeGateway, tours ...*models.Tour) (*DefaultCheckoutService, *fakeBookings) {
	ft := &fakeTours{tours: map[string]*models.Tour{}}
	for _, t := range tours {
		ft.tours[t.ID.Hex()] = t
	}
	bookings := newFakeBookings()
	return &DefaultCheckoutService{
		Tours:     ft,
		Bookings:  bookings,
		Gateway:   g,
		ClientURL: "http://localhost:5173/",
		ImageBase: "https://img.example.com/tours",
	}, bookings
}

func confirmed(tour, user primitive.ObjectID) *models.CheckoutEvent {
	return &models.CheckoutEvent{
		EventID:   "evt_1",
		Type:      "checkout.session.completed",
		State:     models.CheckoutConfirmed,
		SessionID: "cs_test",
		TourID:    tour.Hex(),
		UserID:    user.Hex(),
		Price:     497,
	}
}

func TestCreateCheckoutSession(t *testing.T) {
	tour := &models.Tour{ID: primitive.NewObjectID(), Name: "The Forest Hiker", Summary: "Breathtaking hike", Price: 397, ImageCover: "tour-1-cover.jpg"}
	g := &fakeGateway{}
	svc, _ := newService(g, tour)
	buyer := Buyer{ID: primitive.NewObjectID(), Email: "laura@example.com"}

	session, err := svc.CreateCheckoutSession(context.Background(), tour.ID.Hex(), buyer)
	require.NoError(t, err)
	assert.Equal(t, "cs_test", session.ID)

	req := g.lastRequest
	assert.Equal(t, tour.ID.Hex(), req.TourID)
	assert.Equal(t, buyer.ID.Hex(), req.UserID)
	assert.Equal(t, "laura@example.com", req.CustomerEmail)
	assert.Equal(t, 397.0, req.Price)
	assert.Equal(t, "https://img.example.com/tours/tour-1-cover.jpg", req.ImageURL)
	assert.Equal(t, "http://localhost:5173/booking-success?session_id={CHECKOUT_SESSION_ID}", req.SuccessURL)
	assert.Equal(t, "http://localhost:5173/tour/"+tour.ID.Hex(), req.CancelURL)
}

func TestCreateCheckoutSessionUnknownTour(t *testing.T) {
	svc, _ := newService(&fakeGateway{})
	_, err := svc.CreateCheckoutSession(context.Background(), primitive.NewObjectID().Hex(), Buyer{})
	assert.Equal(t, ErrTourNotFound, err)
}

func TestWebhookCreatesOneBookingPerSession(t *testing.T) {
	tour, user := primitive.NewObjectID(), primitive.NewObjectID()
	g := &fakeGateway{event: confirmed(tour, user)}
	svc, bookings := newService(g)
	ctx := context.Background()

	require.NoError(t, svc.HandleWebhook(ctx, []byte("{}"), "t=1,v1=sig"))
	require.NoError(t, svc.HandleWebhook(ctx, []byte("{}"), "t=1,v1=sig"))

	mine, err := svc.MyBookings(ctx, user)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, tour, mine[0].Tour)
	assert.Equal(t, 497.0, mine[0].Price)
	assert.True(t, *mine[0].Paid)
	assert.Len(t, bookings.bySession, 1)
}

func TestWebhookBadSignature(t *testing.T) {
	g := &fakeGateway{parseErr: payment.ErrInvalidSignature}
	svc, bookings := newService(g)

	err := svc.HandleWebhook(context.Background(), []byte("{}"), "t=1,v1=bad")
	var appErr *utils.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusBadRequest, appErr.StatusCode)
	assert.True(t, errors.Is(err, payment.ErrInvalidSignature))
	assert.Empty(t, bookings.bySession)

	assert.Equal(t, ErrNoSignature, svc.HandleWebhook(context.Background(), []byte("{}"), ""))
}

func TestWebhookUndecodableEventIsAcknowledged(t *testing.T) {
	g := &fakeGateway{parseErr: errors.New("failed to decode checkout session: unexpected end of JSON input")}
	svc, bookings := newService(g)

	assert.NoError(t, svc.HandleWebhook(context.Background(), []byte("{}"), "t=1,v1=sig"))
	assert.Empty(t, bookings.bySession)
}

func TestWebhookMissingMetadataIsAcknowledged(t *testing.T) {
	ev := confirmed(primitive.NewObjectID(), primitive.NewObjectID())
	ev.UserID = ""
	svc, bookings := newService(&fakeGateway{event: ev})

	assert.NoError(t, svc.HandleWebhook(context.Background(), []byte("{}"), "t=1,v1=sig"))
	assert.Empty(t, bookings.bySession)
}

func TestWebhookAbandonedAndPendingCreateNothing(t *testing.T) {
	for _, state := range []models.CheckoutState{models.CheckoutAbandoned, models.CheckoutPending} {
		ev := confirmed(primitive.NewObjectID(), primitive.NewObjectID())
		ev.State = state
		svc, bookings := newService(&fakeGateway{event: ev})

		assert.NoError(t, svc.HandleWebhook(context.Background(), []byte("{}"), "t=1,v1=sig"))
		assert.Empty(t, bookings.bySession, state)
	}
}

func TestConfirmSession(t *testing.T) {
	tour, user := primitive.NewObjectID(), primitive.NewObjectID()
	g := &fakeGateway{session: confirmed(tour, user)}
	svc, _ := newService(g)
	ctx := context.Background()

	_, err := svc.ConfirmSession(ctx, "cs_test", primitive.NewObjectID())
	assert.Equal(t, ErrSessionNotYours, err)

	b, err := svc.ConfirmSession(ctx, "cs_test", user)
	require.NoError(t, err)
	assert.Equal(t, "cs_test", b.StripeSessionID)

	again, err := svc.ConfirmSession(ctx, "cs_test", user)
	require.NoError(t, err)
	assert.Equal(t, b.ID, again.ID)

	g.session.State = models.CheckoutPending
	g.session.SessionID = "cs_other"
	_, err = svc.ConfirmSession(ctx, "cs_other", user)
	assert.Equal(t, ErrPaymentNotPaid, err)

	_, err = svc.ConfirmSession(ctx, "", user)
	assert.Equal(t, ErrMissingSession, err)
}
