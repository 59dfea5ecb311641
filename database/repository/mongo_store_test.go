package repository

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type place struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name    string             `bson:"name" json:"name" validate:"required"`
	Slug    string             `bson:"slug" json:"slug"`
	Price   float64            `bson:"price" json:"price" validate:"gte=0"`
	Note    string             `bson:"note,omitempty" json:"note,omitempty"`
	Owner   primitive.ObjectID `bson:"owner" json:"owner"`
	OpensAt time.Time          `bson:"opensAt" json:"opensAt"`
	Secret  string             `bson:"secret" json:"-"`
}

func placeSlug(p *place, changed map[string]struct{}) {
	if changed == nil {
		p.Slug = strings.ToLower(strings.ReplaceAll(p.Name, " ", "-"))
		return
	}
	if _, ok := changed["name"]; ok {
		p.Slug = strings.ToLower(strings.ReplaceAll(p.Name, " ", "-"))
		changed["slug"] = struct{}{}
	}
}

func newPlaceStore(opts ...Option[place]) *MongoStore[place] {
	return NewMongoStore[place](nil, append([]Option[place]{WithBeforeWrite[place](placeSlug)}, opts...)...)
}

func storedPlace() *place {
	return &place{
		ID:     primitive.NewObjectID(),
		Name:   "Old Harbour",
		Slug:   "old-harbour",
		Price:  20,
		Note:   "closed on mondays",
		Secret: "s3cret",
	}
}

func TestUpdateRejectsUnknownOrHiddenKeys(t *testing.T) {
	store := newPlaceStore()
	id := primitive.NewObjectID().Hex()

	for _, key := range []string{"color", "_id", "secret"} {
		_, err := store.FindByIDAndUpdate(context.Background(), id, bson.M{key: "x"})

		var castErr *CastError
		require.ErrorAs(t, err, &castErr, key)
		assert.Equal(t, key, castErr.Path)
	}
}

func TestUpdateTypeMismatch(t *testing.T) {
	store := newPlaceStore()

	_, err := store.updateFor(storedPlace(), bson.M{"price": "cheap"})

	var castErr *CastError
	require.ErrorAs(t, err, &castErr)
	assert.Equal(t, "price", castErr.Path)
}

func TestUpdateValidatesMergedDocument(t *testing.T) {
	store := newPlaceStore()

	_, err := store.updateFor(storedPlace(), bson.M{"price": -5})

	var verrs validator.ValidationErrors
	assert.True(t, errors.As(err, &verrs))
}

func TestUpdateUnsetsEmptiedOptionalField(t *testing.T) {
	store := newPlaceStore()

	update, err := store.updateFor(storedPlace(), bson.M{"note": ""})
	require.NoError(t, err)
	assert.Equal(t, bson.M{"$unset": bson.M{"note": ""}}, update)
}

func TestUpdateDerivedFieldFollowsName(t *testing.T) {
	store := newPlaceStore()

	update, err := store.updateFor(storedPlace(), bson.M{"name": "Blue Lagoon"})
	require.NoError(t, err)
	assert.Equal(t, bson.M{"$set": bson.M{"name": "Blue Lagoon", "slug": "blue-lagoon"}}, update)

	update, err = store.updateFor(storedPlace(), bson.M{"price": 35})
	require.NoError(t, err)
	assert.Equal(t, bson.M{"$set": bson.M{"price": float64(35)}}, update)
}

func TestUpdateDecodesIdsAndTimes(t *testing.T) {
	store := newPlaceStore()
	owner := primitive.NewObjectID()
	opens := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	update, err := store.updateFor(storedPlace(), bson.M{
		"owner":   owner.Hex(),
		"opensAt": opens.Format(time.RFC3339),
	})
	require.NoError(t, err)

	set := update["$set"].(bson.M)
	assert.Equal(t, owner, set["owner"])
	assert.Equal(t, primitive.NewDateTimeFromTime(opens), set["opensAt"])
}

func TestUpdateKeepsFieldsWithoutJSONForm(t *testing.T) {
	var seen string
	store := newPlaceStore(WithBeforeWrite[place](func(p *place, _ map[string]struct{}) {
		seen = p.Secret
	}))

	_, err := store.updateFor(storedPlace(), bson.M{"name": "Blue Lagoon"})
	require.NoError(t, err)
	assert.Equal(t, "s3cret", seen)
}

func TestAfterWriteFailureIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	var calls int
	store := newPlaceStore(
		WithAfterWrite[place](func(context.Context, *place, *place) error {
			calls++
			return errors.New("aggregate failed")
		}),
		WithAfterWrite[place](func(context.Context, *place, *place) error {
			calls++
			return nil
		}),
	)
	store.logger = zap.New(core)

	store.runAfterWrite(context.Background(), nil, storedPlace())

	assert.Equal(t, 2, calls)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "After write hook failed", logs.All()[0].Message)
}
