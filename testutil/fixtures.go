// Package testutil provides a small seeded lookup store shared by package tests.
package testutil

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/adseawright/flight-price-backend/catalog"
	"github.com/adseawright/flight-price-backend/config"
	"github.com/adseawright/flight-price-backend/database"
	"github.com/adseawright/flight-price-backend/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

// CategoryMappingJSON is a category mapping in the format the training job exports.
const CategoryMappingJSON = `{
	"airline": ["Air India", "Indigo", "Vistara", "SpiceJet"],
	"from": ["Delhi", "Mumbai", "Bangalore"],
	"to": ["Mumbai", "Delhi", "Kolkata"],
	"stops_category": ["Non-stop", "1-stop", "2+-stop"],
	"class_category": ["Economy", "Business"]
}`

// EncodedRoutesCSV encodes EncodedRoutes; the last two rows carry codes that
// are out of range for the catalog.
const EncodedRoutesCSV = `airline,from,to,stops_category,class_category,duration_in_min,dep_daytime_category,arr_daytime_category,month,stops,price
1,0,0,0,0,130,0,0,12,0,5953
1,0,0,0,0,130,1,0,1,0,6100
1,0,0,1,0,185,0,1,3,1,7425
1,0,2,0,1,140,1,1,5,0,15020
1,1,1,0,0,125,0,0,6,0,5200
0,0,0,0,1,135,0,1,7,0,24500
0,2,1,1,0,240,1,0,8,1,9100
1,0,0,0,1,130,1,1,12,0,21000
2,0,0,1,0,185.0,0,0,2,1,8800
9,0,0,0,0,130,0,0,4,0,5000
1,0,0,0,5,130,0,0,4,0,5000
`

// RoutesInserted and RoutesSkipped are the seeding outcome for EncodedRoutes.
const (
	RoutesInserted = 9
	RoutesSkipped  = 2
)

// Logger returns a logger that discards output.
func Logger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// Catalog parses CategoryMappingJSON.
func Catalog(t testing.TB) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Parse([]byte(CategoryMappingJSON))
	require.NoError(t, err)
	return cat
}

// EncodedRoutes returns the rows of EncodedRoutesCSV.
func EncodedRoutes() []models.EncodedRoute {
	return []models.EncodedRoute{
		{Airline: 1, From: 0, To: 0, StopsCategory: 0, ClassCategory: 0, DurationInMin: 130, DepDaytimeCategory: 0, ArrDaytimeCategory: 0, Month: 12, Stops: 0},
		{Airline: 1, From: 0, To: 0, StopsCategory: 0, ClassCategory: 0, DurationInMin: 130, DepDaytimeCategory: 1, ArrDaytimeCategory: 0, Month: 1, Stops: 0},
		{Airline: 1, From: 0, To: 0, StopsCategory: 1, ClassCategory: 0, DurationInMin: 185, DepDaytimeCategory: 0, ArrDaytimeCategory: 1, Month: 3, Stops: 1},
		{Airline: 1, From: 0, To: 2, StopsCategory: 0, ClassCategory: 1, DurationInMin: 140, DepDaytimeCategory: 1, ArrDaytimeCategory: 1, Month: 5, Stops: 0},
		{Airline: 1, From: 1, To: 1, StopsCategory: 0, ClassCategory: 0, DurationInMin: 125, DepDaytimeCategory: 0, ArrDaytimeCategory: 0, Month: 6, Stops: 0},
		{Airline: 0, From: 0, To: 0, StopsCategory: 0, ClassCategory: 1, DurationInMin: 135, DepDaytimeCategory: 0, ArrDaytimeCategory: 1, Month: 7, Stops: 0},
		{Airline: 0, From: 2, To: 1, StopsCategory: 1, ClassCategory: 0, DurationInMin: 240, DepDaytimeCategory: 1, ArrDaytimeCategory: 0, Month: 8, Stops: 1},
		{Airline: 1, From: 0, To: 0, StopsCategory: 0, ClassCategory: 1, DurationInMin: 130, DepDaytimeCategory: 1, ArrDaytimeCategory: 1, Month: 12, Stops: 0},
		{Airline: 2, From: 0, To: 0, StopsCategory: 1, ClassCategory: 0, DurationInMin: 185, DepDaytimeCategory: 0, ArrDaytimeCategory: 0, Month: 2, Stops: 1},
		{Airline: 9, From: 0, To: 0, StopsCategory: 0, ClassCategory: 0, DurationInMin: 130, DepDaytimeCategory: 0, ArrDaytimeCategory: 0, Month: 4, Stops: 0},
		{Airline: 1, From: 0, To: 0, StopsCategory: 0, ClassCategory: 5, DurationInMin: 130, DepDaytimeCategory: 0, ArrDaytimeCategory: 0, Month: 4, Stops: 0},
	}
}

// OpenStore opens an empty sqlite store in a temporary directory.
func OpenStore(t testing.TB) *database.Store {
	t.Helper()
	store, err := database.Open(config.DatabaseConfig{
		Driver: "sqlite3",
		Path:   filepath.Join(t.TempDir(), "dropdown_data.db"),
	}, Logger())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// SeededStore opens a sqlite store and initializes it from the fixtures.
func SeededStore(t testing.TB) *database.Store {
	t.Helper()
	store := OpenStore(t)
	_, err := store.Initialize(context.Background(), Catalog(t), EncodedRoutes())
	require.NoError(t, err)
	return store
}
