package handlers

import (
	"net/http"
	"strconv"
	"strings"

	tourRepo "tourbook/database/repository/tour"
	"tourbook/models"
	"tourbook/utils"

	"github.com/gin-gonic/gin"
)

const (
	earthRadiusMiles = 3963.2
	earthRadiusKm    = 6378.1
	metersToMiles    = 0.000621371
	metersToKm       = 0.001
	topRatedMinimum  = 4.5
)

var errLatLng = utils.BadRequest("Please provide latitude and longitude in the format lat,lng.")

// TourHandler serves the tour catalog.
type TourHandler struct {
	Repo tourRepo.TourRepository
	*Resource[models.Tour]
}

func NewTourHandler(repo tourRepo.TourRepository) *TourHandler {
	return &TourHandler{
		Repo: repo,
		Resource: &Resource[models.Tour]{
			Store:       repo,
			GetPopulate: []string{"reviews", "guides"},
			Protected:   []string{"ratingsAverage", "ratingsQuantity", "slug"},
		},
	}
}

// AliasTopTours rewrites the query to the five best rated cheap tours.
func AliasTopTours(c *gin.Context) {
	q := c.Request.URL.Query()
	q.Set("limit", "5")
	q.Set("sort", "-ratingsAverage,price")
	q.Set("fields", "name,price,ratingsAverage,summary,difficulty")
	c.Request.URL.RawQuery = q.Encode()
	c.Next()
}

func (h *TourHandler) Stats(c *gin.Context) {
	stats, err := h.Repo.Stats(c.Request.Context(), topRatedMinimum)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": gin.H{"stats": stats}})
}

func (h *TourHandler) MonthlyPlan(c *gin.Context) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil || year < 1 {
		fail(c, utils.BadRequest("Invalid year: "+c.Param("year")))
		return
	}
	plan, err := h.Repo.MonthlyPlan(c.Request.Context(), year)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": gin.H{"plan": plan}})
}

// Within lists tours starting inside distance of the center point.
func (h *TourHandler) Within(c *gin.Context) {
	lat, lng, err := parseLatLng(c.Param("latlng"))
	if err != nil {
		fail(c, err)
		return
	}
	distance, err := strconv.ParseFloat(c.Param("distance"), 64)
	if err != nil || distance <= 0 {
		fail(c, utils.BadRequest("Invalid distance: "+c.Param("distance")))
		return
	}

	radius := distance / earthRadiusKm
	if c.Param("unit") == "mi" {
		radius = distance / earthRadiusMiles
	}
	tours, err := h.Repo.Within(c.Request.Context(), lat, lng, radius)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "results": len(tours), "data": tours})
}

// Distances lists every tour by distance from the point.
func (h *TourHandler) Distances(c *gin.Context) {
	lat, lng, err := parseLatLng(c.Param("latlng"))
	if err != nil {
		fail(c, err)
		return
	}
	multiplier := metersToKm
	if c.Param("unit") == "mi" {
		multiplier = metersToMiles
	}
	distances, err := h.Repo.Distances(c.Request.Context(), lat, lng, multiplier)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": distances})
}

func parseLatLng(raw string) (lat, lng float64, err error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return 0, 0, errLatLng
	}
	lat, errLat := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	lng, errLng := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if errLat != nil || errLng != nil || lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return 0, 0, errLatLng
	}
	return lat, lng, nil
}
