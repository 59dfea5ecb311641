package handlers

import (
	"context"
	"net/http"
	"testing"

	"tourbook/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type memTours struct {
	*memStore[models.Tour]
	radius     float64
	multiplier float64
	minRating  float64
	year       int
}

func (m *memTours) Stats(_ context.Context, minRating float64) ([]models.TourStats, error) {
	m.minRating = minRating
	return []models.TourStats{{Difficulty: "EASY", NumTours: 1}}, nil
}

func (m *memTours) MonthlyPlan(_ context.Context, year int) ([]models.MonthlyPlan, error) {
	m.year = year
	return nil, nil
}

func (m *memTours) Within(_ context.Context, _, _ float64, radius float64) ([]models.Tour, error) {
	m.radius = radius
	return m.docs, nil
}

func (m *memTours) Distances(_ context.Context, _, _ float64, multiplier float64) ([]models.TourDistance, error) {
	m.multiplier = multiplier
	return nil, nil
}

func (m *memTours) Summaries(context.Context, []primitive.ObjectID) (map[primitive.ObjectID]models.TourSummary, error) {
	return nil, nil
}

func (m *memTours) SetRatings(context.Context, primitive.ObjectID, models.RatingStats) error {
	return nil
}

func (m *memTours) IDs(context.Context) ([]primitive.ObjectID, error) { return nil, nil }

func tourRouter(repo *memTours) *gin.Engine {
	h := NewTourHandler(repo)
	r := newRouter()
	r.GET("/tours/top-5-cheap", AliasTopTours, h.GetAll())
	r.GET("/tours/tour-stats", h.Stats)
	r.GET("/tours/monthly-plan/:year", h.MonthlyPlan)
	r.GET("/tours/tours-within/:distance/center/:latlng/unit/:unit", h.Within)
	r.GET("/tours/distances/:latlng/unit/:unit", h.Distances)
	r.POST("/tours", h.CreateOne())
	return r
}

func newMemTours() *memTours {
	return &memTours{memStore: &memStore[models.Tour]{idOf: func(t *models.Tour) primitive.ObjectID { return t.ID }}}
}

func TestParseLatLng(t *testing.T) {
	tests := []struct {
		raw     string
		lat     float64
		lng     float64
		wantErr bool
	}{
		{"34.111745,-118.113491", 34.111745, -118.113491, false},
		{" 51.5 , -0.12 ", 51.5, -0.12, false},
		{"34.1", 0, 0, true},
		{"a,b", 0, 0, true},
		{"91,0", 0, 0, true},
		{"1,2,3", 0, 0, true},
	}
	for _, tt := range tests {
		lat, lng, err := parseLatLng(tt.raw)
		if tt.wantErr {
			assert.Error(t, err, tt.raw)
			continue
		}
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.lat, lat)
		assert.Equal(t, tt.lng, lng)
	}
}

func TestWithinConvertsDistanceToRadians(t *testing.T) {
	repo := newMemTours()
	r := tourRouter(repo)

	w := doJSON(t, r, http.MethodGet, "/tours/tours-within/396.32/center/34.1,-118.1/unit/mi", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.InDelta(t, 0.1, repo.radius, 1e-9)

	doJSON(t, r, http.MethodGet, "/tours/tours-within/637.81/center/34.1,-118.1/unit/km", "")
	assert.InDelta(t, 0.1, repo.radius, 1e-9)

	w = doJSON(t, r, http.MethodGet, "/tours/tours-within/10/center/34.1/unit/mi", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Please provide latitude and longitude in the format lat,lng.", decode(t, w)["message"])
}

func TestDistancesUnits(t *testing.T) {
	repo := newMemTours()
	r := tourRouter(repo)

	doJSON(t, r, http.MethodGet, "/tours/distances/34.1,-118.1/unit/mi", "")
	assert.Equal(t, metersToMiles, repo.multiplier)
	doJSON(t, r, http.MethodGet, "/tours/distances/34.1,-118.1/unit/km", "")
	assert.Equal(t, metersToKm, repo.multiplier)
}

func TestStatsAndMonthlyPlan(t *testing.T) {
	repo := newMemTours()
	r := tourRouter(repo)

	w := doJSON(t, r, http.MethodGet, "/tours/tour-stats", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 4.5, repo.minRating)

	assert.Equal(t, http.StatusOK, doJSON(t, r, http.MethodGet, "/tours/monthly-plan/2021", "").Code)
	assert.Equal(t, 2021, repo.year)
	assert.Equal(t, http.StatusBadRequest, doJSON(t, r, http.MethodGet, "/tours/monthly-plan/soon", "").Code)
}

func TestTopToursAlias(t *testing.T) {
	repo := newMemTours()
	r := tourRouter(repo)

	w := doJSON(t, r, http.MethodGet, "/tours/top-5-cheap?limit=50", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 5, repo.last.Limit)
	assert.Equal(t, "ratingsAverage", repo.last.Sort[0].Key)
	assert.Equal(t, -1, repo.last.Sort[0].Value)
}

func TestCreateTourIgnoresDerivedRatings(t *testing.T) {
	repo := newMemTours()
	r := tourRouter(repo)

	w := doJSON(t, r, http.MethodPost, "/tours", `{"name":"The Forest Hiker","price":397,"ratingsAverage":5,"ratingsQuantity":99}`)
	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, repo.docs, 1)
	assert.Zero(t, repo.docs[0].RatingsAverage)
	assert.Zero(t, repo.docs[0].RatingsQuantity)
}
