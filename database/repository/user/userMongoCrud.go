package userRepo

import (
	"context"
	"errors"
	"time"

	"tourbook/database/repository"
	"tourbook/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (r *MongoUserRepo) updateOne(ctx context.Context, id primitive.ObjectID, update bson.M) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	res, err := r.Collection().UpdateOne(ctx, bson.M{"_id": id, "active": bson.M{"$ne": false}}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *MongoUserRepo) SetResetToken(ctx context.Context, id primitive.ObjectID, hashed string, expires time.Time) error {
	return r.updateOne(ctx, id, bson.M{"$set": bson.M{
		"passwordResetToken":   hashed,
		"passwordResetExpires": expires,
	}})
}

func (r *MongoUserRepo) ClearResetToken(ctx context.Context, id primitive.ObjectID) error {
	return r.updateOne(ctx, id, bson.M{"$unset": bson.M{
		"passwordResetToken":   "",
		"passwordResetExpires": "",
	}})
}

func (r *MongoUserRepo) SetPassword(ctx context.Context, id primitive.ObjectID, hash string, changedAt time.Time) error {
	return r.updateOne(ctx, id, bson.M{
		"$set": bson.M{
			"password":          hash,
			"passwordChangedAt": changedAt,
		},
		"$unset": bson.M{
			"passwordResetToken":   "",
			"passwordResetExpires": "",
		},
	})
}

func (r *MongoUserRepo) SetPhoto(ctx context.Context, id primitive.ObjectID, photo string) (*models.User, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	var user models.User
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := r.Collection().FindOneAndUpdate(ctx,
		bson.M{"_id": id, "active": bson.M{"$ne": false}},
		bson.M{"$set": bson.M{"photo": photo}}, opts).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *MongoUserRepo) Deactivate(ctx context.Context, id primitive.ObjectID) error {
	return r.updateOne(ctx, id, bson.M{"$set": bson.M{"active": false}})
}
