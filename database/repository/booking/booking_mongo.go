package bookingRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tourbook/database/query"
	"tourbook/database/repository"
	"tourbook/models"
	"tourbook/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// MongoBookingRepo implements BookingRepository using MongoDB.
type MongoBookingRepo struct {
	*repository.MongoStore[models.Booking]
}

// NewMongoBookingRepo registers the "tour" and "user" relations.
func NewMongoBookingRepo(db *mongo.Database, tours TourSummaries, users UserSummaries) *MongoBookingRepo {
	store := repository.NewMongoStore(db.Collection("bookings"),
		repository.WithPopulate("tour", tourLoader(tours)),
		repository.WithPopulate("user", userLoader(users)),
	)
	repo := &MongoBookingRepo{MongoStore: store}

	if err := repo.ensureIndexes(); err != nil {
		utils.GetLogger().Error("Failed to create booking indexes", zap.Error(err))
	}
	return repo
}

func (r *MongoBookingRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "stripeSessionId", Value: 1}},
			Options: options.Index().SetUnique(true).
				SetPartialFilterExpression(bson.M{"stripeSessionId": bson.M{"$type": "string"}}),
		},
		{Keys: bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "tour", Value: 1}}},
	}
	if _, err := r.Collection().Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (r *MongoBookingRepo) FindBySession(ctx context.Context, sessionID string) (*models.Booking, error) {
	return r.FindOne(ctx, bson.M{"stripeSessionId": sessionID})
}

func (r *MongoBookingRepo) CreateForSession(ctx context.Context, b *models.Booking) (*models.Booking, bool, error) {
	if b.StripeSessionID == "" {
		return nil, false, errors.New("booking has no payment session")
	}
	if existing, err := r.FindBySession(ctx, b.StripeSessionID); err == nil {
		return existing, false, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, false, err
	}

	err := r.Create(ctx, b)
	if mongo.IsDuplicateKeyError(err) {
		// Lost a race with a concurrent delivery of the same session.
		existing, findErr := r.FindBySession(ctx, b.StripeSessionID)
		if findErr != nil {
			return nil, false, findErr
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (r *MongoBookingRepo) ByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Booking, error) {
	params := map[string][]string{"sort": {"-createdAt"}, "limit": {"1000"}}
	f, err := query.Build(bson.M{"user": userID}, params, r.Schema())
	if err != nil {
		return nil, err
	}
	return r.Find(ctx, f, "tour")
}

func tourLoader(tours TourSummaries) repository.PopulateFunc[models.Booking] {
	return func(ctx context.Context, bookings []*models.Booking) error {
		ids := make([]primitive.ObjectID, 0, len(bookings))
		for _, b := range bookings {
			ids = append(ids, b.Tour)
		}
		summaries, err := tours.Summaries(ctx, ids)
		if err != nil {
			return err
		}
		for _, b := range bookings {
			if s, ok := summaries[b.Tour]; ok {
				summary := s
				b.TourDetails = &summary
			}
		}
		return nil
	}
}

func userLoader(users UserSummaries) repository.PopulateFunc[models.Booking] {
	return func(ctx context.Context, bookings []*models.Booking) error {
		ids := make([]primitive.ObjectID, 0, len(bookings))
		for _, b := range bookings {
			ids = append(ids, b.User)
		}
		summaries, err := users.Summaries(ctx, ids)
		if err != nil {
			return err
		}
		for _, b := range bookings {
			if s, ok := summaries[b.User]; ok {
				summary := s
				b.UserDetails = &summary
			}
		}
		return nil
	}
}
