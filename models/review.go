package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Review is a user's rating of a tour. A user reviews a tour at most once.
type Review struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Review    string             `bson:"review" json:"review" validate:"required"`
	Rating    float64            `bson:"rating" json:"rating" validate:"required,gte=1,lte=5"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	Tour      primitive.ObjectID `bson:"tour" json:"tour" validate:"required"`
	User      primitive.ObjectID `bson:"user" json:"user" validate:"required"`

	Author *UserSummary `bson:"-" json:"author,omitempty"`
}

func (r *Review) PrepareInsert(now time.Time) {
	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
}

// RatingStats is the aggregate of all reviews of one tour.
type RatingStats struct {
	Quantity int     `bson:"nRating" json:"ratingsQuantity"`
	Average  float64 `bson:"avgRating" json:"ratingsAverage"`
}
