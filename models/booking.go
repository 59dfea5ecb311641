package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Booking is a paid purchase of a tour by a user.
type Booking struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Tour            primitive.ObjectID `bson:"tour" json:"tour" validate:"required"`
	User            primitive.ObjectID `bson:"user" json:"user" validate:"required"`
	Price           float64            `bson:"price" json:"price" validate:"required,gt=0"`
	Paid            *bool              `bson:"paid" json:"paid"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	StripeSessionID string             `bson:"stripeSessionId,omitempty" json:"stripeSessionId,omitempty"`

	TourDetails *TourSummary `bson:"-" json:"tourDetails,omitempty"`
	UserDetails *UserSummary `bson:"-" json:"userDetails,omitempty"`
}

func (b *Booking) PrepareInsert(now time.Time) {
	if b.ID.IsZero() {
		b.ID = primitive.NewObjectID()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	if b.Paid == nil {
		paid := true
		b.Paid = &paid
	}
}
