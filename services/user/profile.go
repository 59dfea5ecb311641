package user

import (
	"context"
	"io"
	"strings"

	"tourbook/models"
	"tourbook/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Fields a user may change on their own profile.
var selfEditable = []string{"name", "email"}

func (s *DefaultUserService) GetMe(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	return s.Repo.FindByID(ctx, userID.Hex())
}

func (s *DefaultUserService) UpdateMe(ctx context.Context, userID primitive.ObjectID, patch map[string]any) (*models.User, error) {
	if _, ok := patch["password"]; ok {
		return nil, ErrNotPasswordRoute
	}
	if _, ok := patch["passwordConfirm"]; ok {
		return nil, ErrNotPasswordRoute
	}
	filtered := bson.M{}
	for _, key := range selfEditable {
		if v, ok := patch[key]; ok {
			filtered[key] = v
		}
	}
	if len(filtered) == 0 {
		return s.GetMe(ctx, userID)
	}
	return s.Repo.FindByIDAndUpdate(ctx, userID.Hex(), filtered)
}

func (s *DefaultUserService) UpdatePhoto(ctx context.Context, userID primitive.ObjectID, file io.Reader) (*models.User, error) {
	if file == nil {
		return nil, ErrNoImage
	}
	if s.Storage == nil {
		return nil, utils.Internal("Image uploads are not configured", nil)
	}
	url, err := s.Storage.UploadImage(ctx, file, s.AvatarFolder, "user-"+userID.Hex())
	if err != nil {
		return nil, utils.Internal("Failed to upload image", err)
	}
	return s.setPhoto(ctx, userID, url)
}

func (s *DefaultUserService) UpdateAvatar(ctx context.Context, userID primitive.ObjectID, imageURL string) (*models.User, error) {
	imageURL = strings.TrimSpace(imageURL)
	if imageURL == "" {
		return nil, ErrMissingImageURL
	}
	return s.setPhoto(ctx, userID, imageURL)
}

func (s *DefaultUserService) setPhoto(ctx context.Context, userID primitive.ObjectID, photo string) (*models.User, error) {
	u, err := s.Repo.SetPhoto(ctx, userID, photo)
	if err != nil {
		return nil, err
	}
	s.evict(ctx, userID.Hex())
	return u, nil
}

func (s *DefaultUserService) DeleteMe(ctx context.Context, userID primitive.ObjectID) error {
	if err := s.Repo.Deactivate(ctx, userID); err != nil {
		return err
	}
	s.evict(ctx, userID.Hex())
	return nil
}
