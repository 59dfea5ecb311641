package userRepo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tourbook/database/repository"
	"tourbook/models"
	"tourbook/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// MongoUserRepo implements UserRepository using MongoDB.
type MongoUserRepo struct {
	*repository.MongoStore[models.User]
}

// NewMongoUserRepo creates a new instance of UserRepository using MongoDB.
func NewMongoUserRepo(db *mongo.Database) *MongoUserRepo {
	store := repository.NewMongoStore(db.Collection("users"),
		repository.WithBaseFilter[models.User](bson.M{"active": bson.M{"$ne": false}}),
		repository.WithBeforeWrite[models.User](normalizeEmail),
	)
	repo := &MongoUserRepo{MongoStore: store}

	if err := repo.ensureIndexes(); err != nil {
		utils.GetLogger().Error("Failed to create user indexes", zap.Error(err))
	}
	return repo
}

func normalizeEmail(u *models.User, changed map[string]struct{}) {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
}

// newContext creates a context with the given timeout.
func newContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, timeout)
}

func notFound(err error, what string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return err
	}
	return fmt.Errorf("failed to fetch user by %s: %w", what, err)
}
