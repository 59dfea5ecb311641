package query

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type point struct {
	Type        string    `bson:"type"`
	Coordinates []float64 `bson:"coordinates"`
}

type item struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	Name       string             `bson:"name"`
	Price      float64            `bson:"price"`
	Duration   int                `bson:"duration"`
	Secret     bool               `bson:"secret"`
	CreatedAt  time.Time          `bson:"createdAt"`
	Owner      primitive.ObjectID `bson:"owner"`
	Start      point              `bson:"start"`
	Extra      []string           `bson:"-"`
	StartDates []time.Time        `bson:"startDates"`
}

var itemSchema = SchemaOf(item{})

func build(t *testing.T, raw string, base bson.M) *Features {
	t.Helper()
	params, err := url.ParseQuery(raw)
	require.NoError(t, err)
	f, err := Build(base, params, itemSchema)
	require.NoError(t, err)
	return f
}

func TestSchemaOf(t *testing.T) {
	assert.True(t, itemSchema.HasField("price"))
	assert.True(t, itemSchema.HasField("start"))
	assert.False(t, itemSchema.HasField("Extra"))
	assert.False(t, itemSchema.HasField("type"))

	k, ok := itemSchema.Kind("start.coordinates")
	assert.True(t, ok)
	assert.Equal(t, KindFloat, k)
	k, _ = itemSchema.Kind("startDates")
	assert.Equal(t, KindTime, k)
	k, _ = itemSchema.Kind("owner")
	assert.Equal(t, KindObjectID, k)
}

func TestFilterOperatorsAndEquality(t *testing.T) {
	f := build(t, "duration[gte]=5&price[lt]=1500&price[gt]=100&name=Forest&page=2&sort=price&limit=3&fields=name", nil)

	assert.Equal(t, bson.M{
		"duration": bson.M{"$gte": int64(5)},
		"price":    bson.M{"$lt": 1500.0, "$gt": 100.0},
		"name":     "Forest",
	}, f.Filter)
}

func TestFilterCastsByKind(t *testing.T) {
	id := primitive.NewObjectID()
	f := build(t, "secret=true&owner="+id.Hex()+"&createdAt[gte]=2024-01-02", nil)

	assert.Equal(t, true, f.Filter["secret"])
	assert.Equal(t, id, f.Filter["owner"])
	assert.Equal(t, bson.M{"$gte": time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)}, f.Filter["createdAt"])
}

func TestFilterUnknownFieldStaysString(t *testing.T) {
	f := build(t, "color=red", nil)
	assert.Equal(t, "red", f.Filter["color"])
}

func TestFilterCastFailure(t *testing.T) {
	params, _ := url.ParseQuery("price[gte]=cheap")
	_, err := Build(nil, params, itemSchema)

	var castErr *CastError
	require.ErrorAs(t, err, &castErr)
	assert.Equal(t, "price", castErr.Path)
	assert.Equal(t, "Invalid price: cheap", err.Error())
}

func TestFilterUnsupportedOperator(t *testing.T) {
	params, _ := url.ParseQuery("price[regex]=1")
	_, err := Build(nil, params, itemSchema)
	assert.ErrorAs(t, err, new(*CastError))
}

func TestOperatorPathsRejected(t *testing.T) {
	tests := []struct {
		name  string
		query string
		path  string
	}{
		{"bare operator key", "$where=sleep(5000)||true&price[gte]=1", "$where"},
		{"logical operator key", "$or=1", "$or"},
		{"operator inside field", "start.$type=2", "start.$type"},
		{"sort entry", "sort=-$natural", "sort"},
		{"fields entry", "fields=name,$comment", "fields"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params, err := url.ParseQuery(tt.query)
			require.NoError(t, err)
			f, err := Build(nil, params, itemSchema)

			var castErr *CastError
			require.ErrorAs(t, err, &castErr)
			assert.Equal(t, tt.path, castErr.Path)
			assert.NotContains(t, f.Filter, "$where")
		})
	}
}

func TestFilterRepeatedKeyLastWins(t *testing.T) {
	f := build(t, "name=a&name=b&sort=price&sort=-duration", nil)
	assert.Equal(t, "b", f.Filter["name"])
	assert.Equal(t, bson.D{{Key: "duration", Value: -1}, {Key: "_id", Value: 1}}, f.Sort)
}

func TestFilterBaseScopeWins(t *testing.T) {
	owner := primitive.NewObjectID()
	f := build(t, "owner="+primitive.NewObjectID().Hex()+"&price=10", bson.M{"owner": owner})

	assert.Equal(t, owner, f.Filter["owner"])
	assert.Equal(t, 10.0, f.Filter["price"])
}

func TestSort(t *testing.T) {
	tests := []struct {
		raw  string
		want bson.D
	}{
		{"", bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}}},
		{"sort=-ratingsAverage,price", bson.D{{Key: "ratingsAverage", Value: -1}, {Key: "price", Value: 1}, {Key: "_id", Value: 1}}},
		{"sort=price,-_id", bson.D{{Key: "price", Value: 1}, {Key: "_id", Value: -1}}},
		{"sort=,,", bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, build(t, tt.raw, nil).Sort)
		})
	}
}

func TestLimitFields(t *testing.T) {
	assert.Equal(t, bson.M{"__v": 0}, build(t, "", nil).Projection)
	assert.Equal(t, bson.M{"name": 1, "price": 1}, build(t, "fields=name,price", nil).Projection)
	assert.Equal(t, bson.M{"secret": 0}, build(t, "fields=-secret", nil).Projection)
	assert.Equal(t, bson.M{"name": 1, "_id": 0}, build(t, "fields=name,-_id", nil).Projection)

	params, _ := url.ParseQuery("fields=name,-price")
	_, err := Build(nil, params, itemSchema)
	assert.ErrorAs(t, err, new(*CastError))
}

func TestPaginate(t *testing.T) {
	f := build(t, "page=3&limit=10", nil)
	assert.Equal(t, int64(20), f.Skip)
	assert.Equal(t, int64(10), f.Limit)

	f = build(t, "page=0&limit=abc", nil)
	assert.Equal(t, int64(DefaultPage), f.Page)
	assert.Equal(t, int64(0), f.Skip)
	assert.Equal(t, int64(DefaultLimit), f.Limit)
}

func TestReservedKeysNeverFilter(t *testing.T) {
	f := build(t, "page=2&sort=price&limit=5&fields=name", nil)
	assert.Empty(t, f.Filter)
}
