package handlers

import (
	"tourbook/database/query"
	reviewRepo "tourbook/database/repository/review"
	"tourbook/middleware"
	"tourbook/models"
	"tourbook/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var errNotReviewOwner = utils.Forbidden("You can only modify your own reviews")

// NewReviewResource builds the review handlers. Lists are scoped by the
// tourId path parameter; writes carry the caller as author.
func NewReviewResource(repo reviewRepo.ReviewRepository) *Resource[models.Review] {
	return &Resource[models.Review]{
		Store:        repo,
		Scope:        tourScope,
		GetPopulate:  []string{"author"},
		ListPopulate: []string{"author"},
		Protected:    []string{"user"},
		Prepare:      prepareReview,
		Authorize: func(c *gin.Context, id string) error {
			return authorizeReview(c, repo, id)
		},
	}
}

func tourScope(c *gin.Context) (bson.M, error) {
	raw := c.Param("tourId")
	if raw == "" {
		return nil, nil
	}
	id, err := query.ParseID(raw)
	if err != nil {
		return nil, err
	}
	return bson.M{"tour": id}, nil
}

func prepareReview(c *gin.Context, r *models.Review) error {
	caller, ok := middleware.CurrentUser(c)
	if !ok {
		return utils.Unauthorized("You are not logged in! Please log in to get access.")
	}
	userID, err := primitive.ObjectIDFromHex(caller.UserID)
	if err != nil {
		return err
	}
	r.User = userID

	if raw := c.Param("tourId"); raw != "" {
		tourID, err := query.ParseID(raw)
		if err != nil {
			return err
		}
		r.Tour = tourID
	}
	return nil
}

// authorizeReview lets admins edit any review and everyone else only their own.
func authorizeReview(c *gin.Context, repo reviewRepo.ReviewRepository, id string) error {
	caller, ok := middleware.CurrentUser(c)
	if !ok {
		return utils.Unauthorized("You are not logged in! Please log in to get access.")
	}
	if caller.Role == string(models.RoleAdmin) {
		return nil
	}
	review, err := repo.FindByID(c.Request.Context(), id)
	if err != nil {
		return err
	}
	if review.User.Hex() != caller.UserID {
		return errNotReviewOwner
	}
	return nil
}
