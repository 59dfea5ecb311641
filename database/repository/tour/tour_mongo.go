package tourRepo

import (
	"context"
	"fmt"
	"time"

	"tourbook/database/repository"
	"tourbook/models"
	"tourbook/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

var visible = bson.M{"secretTour": bson.M{"$ne": true}}

// MongoTourRepo implements TourRepository using MongoDB.
type MongoTourRepo struct {
	*repository.MongoStore[models.Tour]
}

func NewMongoTourRepo(db *mongo.Database, opts ...repository.Option[models.Tour]) *MongoTourRepo {
	opts = append([]repository.Option[models.Tour]{
		repository.WithBaseFilter[models.Tour](visible),
		repository.WithBeforeWrite[models.Tour](deriveSlug),
	}, opts...)
	repo := &MongoTourRepo{MongoStore: repository.NewMongoStore(db.Collection("tours"), opts...)}

	if err := repo.ensureIndexes(); err != nil {
		utils.GetLogger().Error("Failed to create tour indexes", zap.Error(err))
	}
	return repo
}

func deriveSlug(t *models.Tour, changed map[string]struct{}) {
	if changed == nil {
		t.Slug = utils.Slugify(t.Name)
		return
	}
	if _, ok := changed["name"]; ok {
		t.Slug = utils.Slugify(t.Name)
		changed["slug"] = struct{}{}
	}
}

func (r *MongoTourRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "price", Value: 1}, {Key: "ratingsAverage", Value: -1}}},
		{Keys: bson.D{{Key: "slug", Value: 1}}},
		{Keys: bson.D{{Key: "startLocation", Value: "2dsphere"}}},
	}
	if _, err := r.Collection().Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (r *MongoTourRepo) Summaries(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.TourSummary, error) {
	out := make(map[primitive.ObjectID]models.TourSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.Find().SetProjection(bson.M{"name": 1, "slug": 1, "imageCover": 1, "duration": 1, "startLocation": 1})
	cursor, err := r.Collection().Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tour summaries: %w", err)
	}
	var summaries []models.TourSummary
	if err := cursor.All(ctx, &summaries); err != nil {
		return nil, fmt.Errorf("failed to decode tour summaries: %w", err)
	}
	for _, s := range summaries {
		out[s.ID] = s
	}
	return out, nil
}

// SetRatings writes the derived rating fields, secret tours included.
func (r *MongoTourRepo) SetRatings(ctx context.Context, id primitive.ObjectID, stats models.RatingStats) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.Collection().UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"ratingsAverage":  stats.Average,
		"ratingsQuantity": stats.Quantity,
	}})
	if err != nil {
		return fmt.Errorf("failed to set ratings of tour %s: %w", id.Hex(), err)
	}
	return nil
}

func (r *MongoTourRepo) IDs(ctx context.Context) ([]primitive.ObjectID, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	raw, err := r.Collection().Distinct(ctx, "_id", bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list tour ids: %w", err)
	}
	ids := make([]primitive.ObjectID, 0, len(raw))
	for _, v := range raw {
		if id, ok := v.(primitive.ObjectID); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// ReviewsLoader attaches each tour's reviews.
func ReviewsLoader(reviews ReviewLister) repository.PopulateFunc[models.Tour] {
	return func(ctx context.Context, tours []*models.Tour) error {
		ids := make([]primitive.ObjectID, 0, len(tours))
		for _, t := range tours {
			ids = append(ids, t.ID)
		}
		byTour, err := reviews.ForTours(ctx, ids)
		if err != nil {
			return err
		}
		for _, t := range tours {
			t.Reviews = byTour[t.ID]
			if t.Reviews == nil {
				t.Reviews = []models.Review{}
			}
		}
		return nil
	}
}

// GuidesLoader attaches the public profiles of each tour's guides.
func GuidesLoader(users UserSummaries) repository.PopulateFunc[models.Tour] {
	return func(ctx context.Context, tours []*models.Tour) error {
		var ids []primitive.ObjectID
		for _, t := range tours {
			ids = append(ids, t.Guides...)
		}
		profiles, err := users.Summaries(ctx, ids)
		if err != nil {
			return err
		}
		for _, t := range tours {
			t.GuideProfiles = make([]models.UserSummary, 0, len(t.Guides))
			for _, id := range t.Guides {
				if p, ok := profiles[id]; ok {
					t.GuideProfiles = append(t.GuideProfiles, p)
				}
			}
		}
		return nil
	}
}
