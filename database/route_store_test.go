package database_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/adseawright/flight-price-backend/database"
	"github.com/adseawright/flight-price-backend/dataset"
	"github.com/adseawright/flight-price-backend/models"
	"github.com/adseawright/flight-price-backend/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitialize_Report(t *testing.T) {
	store := testutil.OpenStore(t)

	report, err := store.Initialize(context.Background(), testutil.Catalog(t), testutil.EncodedRoutes())
	require.NoError(t, err)

	assert.Equal(t, models.SeedReport{
		Airlines:        4,
		Cities:          4,
		StopsCategories: 3,
		ClassCategories: 2,
		RoutesInserted:  testutil.RoutesInserted,
		RoutesSkipped:   testutil.RoutesSkipped,
	}, report)

	stats, err := store.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, testutil.RoutesInserted, stats.Routes)
	assert.Equal(t, 4, stats.Cities)
}

func TestInitialize_IsIdempotent(t *testing.T) {
	store := testutil.OpenStore(t)
	ctx := context.Background()

	first, err := store.Initialize(ctx, testutil.Catalog(t), testutil.EncodedRoutes())
	require.NoError(t, err)
	second, err := store.Initialize(ctx, testutil.Catalog(t), testutil.EncodedRoutes())
	require.NoError(t, err)
	assert.Equal(t, first, second)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, testutil.RoutesInserted, stats.Routes, "rebuild must not append to old rows")
}

func TestInitialize_SkipsMalformedCells(t *testing.T) {
	store := testutil.OpenStore(t)
	ctx := context.Background()

	csvData := testutil.EncodedRoutesCSV +
		"1,0,0,0,0,NaN,0,0,12,0,5000\n" +
		",0,0,0,0,130,0,0,12,0,5000\n" +
		"1,0,0,0,0,130,0,0,,0,5000\n" +
		"1,0,0,0,0,1e12,0,0,12,0,5000\n"
	rows, err := dataset.ParseEncodedRoutesCsv(strings.NewReader(csvData))
	require.NoError(t, err)

	report, err := store.Initialize(ctx, testutil.Catalog(t), rows)
	require.NoError(t, err)
	assert.Equal(t, testutil.RoutesInserted, report.RoutesInserted)
	assert.Equal(t, testutil.RoutesSkipped+4, report.RoutesSkipped)

	session, err := store.Acquire(ctx)
	require.NoError(t, err)
	defer session.Close()

	durations, err := session.DistinctInts(ctx, models.ColDuration, nil)
	require.NoError(t, err)
	assert.Equal(t, []int64{125, 130, 135, 140, 185, 240}, durations)
}

func TestInitialize_NoOrphansAndUniqueNames(t *testing.T) {
	store := testutil.SeededStore(t)
	ctx := context.Background()

	session, err := store.Acquire(ctx)
	require.NoError(t, err)
	defer session.Close()

	refs := []struct {
		column string
		dim    models.Dimension
	}{
		{models.ColAirline, models.Airlines},
		{models.ColFromCity, models.Cities},
		{models.ColToCity, models.Cities},
		{models.ColStopsCategory, models.StopsCategories},
		{models.ColClassCategory, models.ClassCategories},
	}
	for _, ref := range refs {
		ids, err := session.DistinctInts(ctx, ref.column, nil)
		require.NoError(t, err)
		names, err := session.DistinctNames(ctx, ref.column, ref.dim, nil)
		require.NoError(t, err)
		// An inner join drops orphans, so equal counts means every id resolves.
		assert.Len(t, names, len(ids), "orphan reference in %s", ref.column)
	}

	for _, name := range []string{"Air India", "Indigo", "Vistara", "SpiceJet"} {
		_, ok, err := session.LookupID(ctx, models.Airlines, name)
		require.NoError(t, err)
		assert.True(t, ok, name)
	}
}

func TestSession_Lookups(t *testing.T) {
	store := testutil.SeededStore(t)
	ctx := context.Background()

	session, err := store.Acquire(ctx)
	require.NoError(t, err)
	defer session.Close()

	indigo, ok, err := session.LookupID(ctx, models.Airlines, "Indigo")
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = session.LookupID(ctx, models.Airlines, "DoesNotExist")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = session.LookupID(ctx, models.Airlines, "indigo")
	require.NoError(t, err)
	assert.False(t, ok, "lookups are exact-match")

	cities, err := session.DistinctNames(ctx, models.ColFromCity, models.Cities,
		[]database.Filter{{Column: models.ColAirline, Value: indigo}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Delhi", "Mumbai"}, cities)

	durations, err := session.DistinctInts(ctx, models.ColDuration,
		[]database.Filter{{Column: models.ColAirline, Value: indigo}})
	require.NoError(t, err)
	assert.Equal(t, []int64{125, 130, 140, 185}, durations)

	_, err = session.DistinctInts(ctx, "price; DROP TABLE airlines", nil)
	assert.Error(t, err)
	_, err = session.DistinctInts(ctx, models.ColStops, []database.Filter{{Column: "1=1 OR airline", Value: 1}})
	assert.Error(t, err)
}

func TestServeLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db.lock")

	require.NoError(t, database.EnsureNotServing(path))

	lock, err := database.AcquireServeLock(path)
	require.NoError(t, err)

	_, err = database.AcquireServeLock(path)
	assert.ErrorIs(t, err, database.ErrStoreInUse)
	assert.ErrorIs(t, database.EnsureNotServing(path), database.ErrStoreInUse)

	require.NoError(t, lock.Release())
	assert.NoError(t, database.EnsureNotServing(path))
	assert.NoError(t, lock.Release(), "releasing twice is harmless")
}
