package reviewRepo

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

// MongoReviewRepo implements ReviewRepository using MongoDB.
type MongoReviewRepo struct {
	*repository.MongoStore[models.Review]
	authors UserSummaries
}

// NewMongoReviewRepo registers the "author" relation backed by users.
func NewMongoReviewRepo(db *mongo.Database, users UserSummaries, opts ...repository.Option[models.Review]) *MongoReviewRepo {
	repo := &MongoReviewRepo{authors: users}
	opts = append([]repository.Option[models.Review]{
		repository.WithPopulate[models.Review]("author", repo.populateAuthors),
	}, opts...)
	repo.MongoStore = repository.NewMongoStore(db.Collection("reviews"), opts...)

	if err := repo.ensureIndexes(); err != nil {
		utils.GetLogger().Error("Failed to create review indexes", zap.Error(err))
	}
	return repo
}

func (r *MongoReviewRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "tour", Value: 1}, {Key: "user", Value: 1}}, Options: options.Index().SetUnique(true)},
	}
	if _, err := r.Collection().Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (r *MongoReviewRepo) RatingStats(ctx context.Context, tourID primitive.ObjectID) (models.RatingStats, bool, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"tour": tourID}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$tour"},
			{Key: "nRating", Value: bson.M{"$sum": 1}},
			{Key: "avgRating", Value: bson.M{"$avg": "$rating"}},
		}}},
	}
	var rows []models.RatingStats
	if err := r.Aggregate(ctx, pipeline, &rows); err != nil {
		return models.RatingStats{}, false, err
	}
	if len(rows) == 0 {
		return models.RatingStats{}, false, nil
	}
	return rows[0], true, nil
}

// ForTours returns the reviews of each tour with their authors attached.
func (r *MongoReviewRepo) ForTours(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID][]models.Review, error) {
	out := make(map[primitive.ObjectID][]models.Review, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	findCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}})
	cursor, err := r.Collection().Find(findCtx, bson.M{"tour": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch reviews: %w", err)
	}
	var reviews []models.Review
	if err := cursor.All(findCtx, &reviews); err != nil {
		return nil, fmt.Errorf("failed to decode reviews: %w", err)
	}
	if err := r.Populate(ctx, reviews, "author"); err != nil {
		return nil, err
	}
	for _, rv := range reviews {
		out[rv.Tour] = append(out[rv.Tour], rv)
	}
	return out, nil
}

func (r *MongoReviewRepo) populateAuthors(ctx context.Context, reviews []*models.Review) error {
	ids := make([]primitive.ObjectID, 0, len(reviews))
	for _, rv := range reviews {
		ids = append(ids, rv.User)
	}
	profiles, err := r.authors.Summaries(ctx, ids)
	if err != nil {
		return err
	}
	for _, rv := range reviews {
		if p, ok := profiles[rv.User]; ok {
			author := models.UserSummary{ID: p.ID, Name: p.Name, Photo: p.Photo}
			rv.Author = &author
		}
	}
	return nil
}
