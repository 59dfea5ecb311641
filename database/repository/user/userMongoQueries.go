package userRepo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tourbook/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GetByEmail retrieves a user by email, password hash included.
func (r *MongoUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := r.FindOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))})
	if err != nil {
		return nil, notFound(err, "email")
	}
	return user, nil
}

func (r *MongoUserRepo) GetByResetToken(ctx context.Context, hashed string, now time.Time) (*models.User, error) {
	user, err := r.FindOne(ctx, bson.M{
		"passwordResetToken":   hashed,
		"passwordResetExpires": bson.M{"$gt": now},
	})
	if err != nil {
		return nil, notFound(err, "reset token")
	}
	return user, nil
}

func (r *MongoUserRepo) Summaries(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.UserSummary, error) {
	out := make(map[primitive.ObjectID]models.UserSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	opts := options.Find().SetProjection(bson.M{"name": 1, "photo": 1, "email": 1, "role": 1})
	cursor, err := r.Collection().Find(ctx, bson.M{"_id": bson.M{"$in": ids}, "active": bson.M{"$ne": false}}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user summaries: %w", err)
	}
	var summaries []models.UserSummary
	if err := cursor.All(ctx, &summaries); err != nil {
		return nil, fmt.Errorf("failed to decode user summaries: %w", err)
	}
	for _, s := range summaries {
		out[s.ID] = s
	}
	return out, nil
}
