// Command seed loads the demo tour catalog into MongoDB, or clears it.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"tourbook/config"
	"tourbook/database"
	tourRepo "tourbook/database/repository/tour"
	"tourbook/models"
	"tourbook/utils"

	"github.com/spf13/pflag"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func date(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func point(lng, lat float64, description string, day int) models.Location {
	return models.Location{Type: "Point", Coordinates: []float64{lng, lat}, Description: description, Day: day}
}

// demoTours is used when no --file is given.
var demoTours = []models.Tour{
	{
		Name:         "Damascus Old City Explorer",
		Duration:     3,
		MaxGroupSize: 15,
		Difficulty:   models.DifficultyEasy,
		Price:        299,
		Summary:      "Ancient Streets & Souqs",
		Description:  "Walk through the oldest continuously inhabited city in the world, exploring ancient souqs, historic mosques and traditional houses.",
		ImageCover:   "tour-damascus-cover.jpg",
		StartDates:   []time.Time{date("2026-03-01"), date("2026-03-15"), date("2026-03-29")},
		StartLocation: models.Location{
			Type: "Point", Coordinates: []float64{36.2765, 33.5138},
			Address: "Damascus, Syria", Description: "Damascus Old City",
		},
		Locations: []models.Location{
			point(36.3063, 33.5117, "Umayyad Mosque", 1),
			point(36.3046, 33.5102, "Al-Hamidiyah Souq", 1),
			point(36.3128, 33.5119, "Street Called Straight", 2),
		},
	},
	{
		Name:         "Palmyra Ancient City",
		Duration:     2,
		MaxGroupSize: 12,
		Difficulty:   models.DifficultyMedium,
		Price:        349,
		Summary:      "Desert Rose of Syria",
		Description:  "Journey through time at Palmyra, the ancient caravan city that once connected Persia, India and China to the Roman Empire.",
		ImageCover:   "tour-palmyra-cover.jpg",
		StartDates:   []time.Time{date("2026-04-05"), date("2026-04-19")},
		StartLocation: models.Location{
			Type: "Point", Coordinates: []float64{38.2699, 34.5548},
			Address: "Palmyra, Syria", Description: "Ancient Palmyra",
		},
		Locations: []models.Location{
			point(38.2699, 34.5548, "Monumental Arch and Colonnaded Streets", 1),
			point(38.2725, 34.5563, "Temple of Bel", 1),
			point(38.2652, 34.5521, "Valley of the Tombs", 2),
		},
	},
	{
		Name:         "Aleppo Citadel Experience",
		Duration:     4,
		MaxGroupSize: 15,
		Difficulty:   models.DifficultyMedium,
		Price:        449,
		Summary:      "Medieval Fortress & Souqs",
		Description:  "Discover Aleppo, one of the oldest cities in the world, with its imposing citadel and the famous covered souq.",
		ImageCover:   "tour-aleppo-cover.jpg",
		StartDates:   []time.Time{date("2026-05-01"), date("2026-05-15")},
		StartLocation: models.Location{
			Type: "Point", Coordinates: []float64{37.1622, 36.2012},
			Address: "Aleppo, Syria", Description: "Aleppo Citadel",
		},
		Locations: []models.Location{
			point(37.1622, 36.2012, "Citadel of Aleppo", 1),
		},
	},
}

func loadTours(path string) ([]models.Tour, error) {
	if path == "" {
		return demoTours, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var tours []models.Tour
	if err := json.Unmarshal(raw, &tours); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return tours, nil
}

func main() {
	importData := pflag.Bool("import", false, "insert the tour catalog")
	deleteData := pflag.Bool("delete", false, "remove every tour, review and booking")
	file := pflag.String("file", "", "JSON array of tours to import instead of the demo set")
	pflag.Parse()

	config.LoadConfig()
	logger := utils.GetLogger()
	if *importData == *deleteData {
		logger.Fatal("Pass exactly one of --import or --delete")
	}

	database.InitDB()
	db := database.Database()
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	defer database.Disconnect(ctx)

	if *deleteData {
		for _, name := range []string{"tours", "reviews", "bookings"} {
			res, err := db.Collection(name).DeleteMany(ctx, bson.M{})
			if err != nil {
				logger.Fatal("Failed to clear collection", zap.String("collection", name), zap.Error(err))
			}
			logger.Info("Collection cleared", zap.String("collection", name), zap.Int64("deleted", res.DeletedCount))
		}
		return
	}

	tours, err := loadTours(*file)
	if err != nil {
		logger.Fatal("Failed to load tours", zap.Error(err))
	}
	repo := tourRepo.NewMongoTourRepo(db)
	for i := range tours {
		if err := repo.Create(ctx, &tours[i]); err != nil {
			logger.Fatal("Failed to insert tour", zap.String("name", tours[i].Name), zap.Error(err))
		}
		logger.Info("Tour inserted", zap.String("slug", tours[i].Slug), zap.String("id", tours[i].ID.Hex()))
	}
}
