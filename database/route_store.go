package database

import (
	"context"
	"fmt"
	"math"

	"github.com/adseawright/flight-price-backend/catalog"
	"github.com/adseawright/flight-price-backend/models"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

// Initialize rebuilds the store from the category catalog and the encoded
// training rows. All tables are dropped and recreated, so running it twice
// with the same input yields the same store.
//
// Rows whose codes cannot be decoded through the catalog, whose numeric
// cells are not finite, or whose names do not resolve to a dimension row are
// logged and skipped.
//
// On SQLite the whole rebuild is one transaction. MySQL commits DDL
// implicitly, so there the tables are recreated before the transaction that
// loads them; a failure after that point leaves empty tables, not old data.
func (s *Store) Initialize(ctx context.Context, cat *catalog.Catalog, rows []models.EncodedRoute) (models.SeedReport, error) {
	var report models.SeedReport

	// Step 1: recreate tables.
	if !s.dialect.transactionalDDL {
		if err := execAll(ctx, s.db, s.dialect.rebuildStatements()); err != nil {
			return report, err
		}
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return report, fmt.Errorf("failed to begin transaction for store rebuild: %w", err)
	}
	defer tx.Rollback()

	if s.dialect.transactionalDDL {
		if err := execAll(ctx, tx, s.dialect.rebuildStatements()); err != nil {
			return report, err
		}
	}

	// Step 2: dimension names.
	dimensionNames := map[models.Dimension][]string{
		models.Airlines:        cat.Names(catalog.KeyAirline),
		models.Cities:          cat.Cities(),
		models.StopsCategories: cat.Names(catalog.KeyStopsCategory),
		models.ClassCategories: cat.Names(catalog.KeyClassCategory),
	}
	ids := make(map[models.Dimension]map[string]int64, len(dimensionNames))
	for _, dim := range models.AllDimensions {
		if err := s.insertNames(ctx, tx, dim, dimensionNames[dim]); err != nil {
			return report, err
		}
		byName, err := loadIDs(ctx, tx, dim)
		if err != nil {
			return report, err
		}
		ids[dim] = byName
	}
	report.Airlines = len(ids[models.Airlines])
	report.Cities = len(ids[models.Cities])
	report.StopsCategories = len(ids[models.StopsCategories])
	report.ClassCategories = len(ids[models.ClassCategories])
	s.logger.WithFields(logrus.Fields{
		"airlines":         report.Airlines,
		"cities":           report.Cities,
		"stops_categories": report.StopsCategories,
		"class_categories": report.ClassCategories,
	}).Info("Dimension tables populated")

	// Steps 3-4: decode, resolve and insert fact rows.
	stmt, err := tx.PreparexContext(ctx, insertRouteStatement)
	if err != nil {
		return report, fmt.Errorf("failed to prepare flight route insert statement: %w", err)
	}
	defer stmt.Close()

	for i, row := range rows {
		route, err := resolveRoute(cat, ids, row)
		if err != nil {
			s.logger.WithFields(logrus.Fields{"row": i, "reason": err.Error()}).Warn("Skipping encoded route")
			report.RoutesSkipped++
			continue
		}
		_, err = stmt.ExecContext(ctx,
			route.AirlineID, route.FromCityID, route.ToCityID, route.StopsCategoryID, route.ClassCategoryID,
			route.Duration, route.DepDaytimeCategory, route.ArrDaytimeCategory, route.Month, route.Stops,
		)
		if err != nil {
			return report, fmt.Errorf("failed to insert flight route for row %d: %w", i, err)
		}
		report.RoutesInserted++
	}

	if err := tx.Commit(); err != nil {
		return report, fmt.Errorf("failed to commit store rebuild: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"inserted": report.RoutesInserted,
		"skipped":  report.RoutesSkipped,
	}).Info("Flight routes inserted")
	return report, nil
}

func execAll(ctx context.Context, db sqlx.ExecerContext, stmts []string) error {
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to recreate lookup tables: %w", err)
		}
	}
	return nil
}

func (s *Store) insertNames(ctx context.Context, tx *sqlx.Tx, dim models.Dimension, names []string) error {
	stmt, err := tx.PreparexContext(ctx, s.dialect.insertNameStatement(dim))
	if err != nil {
		return fmt.Errorf("failed to prepare %s insert statement: %w", dim.Table, err)
	}
	defer stmt.Close()

	for _, name := range names {
		if _, err := stmt.ExecContext(ctx, name); err != nil {
			return fmt.Errorf("failed to insert %s %q: %w", dim.Name, name, err)
		}
	}
	return nil
}

func loadIDs(ctx context.Context, tx *sqlx.Tx, dim models.Dimension) (map[string]int64, error) {
	var rows []models.DimensionRow
	if err := tx.SelectContext(ctx, &rows, "SELECT id, name FROM "+dim.Table); err != nil {
		return nil, fmt.Errorf("failed to read back %s: %w", dim.Table, err)
	}
	byName := make(map[string]int64, len(rows))
	for _, r := range rows {
		byName[r.Name] = r.ID
	}
	return byName, nil
}

// resolveRoute decodes an encoded row into names and maps every name onto its
// surrogate id.
func resolveRoute(cat *catalog.Catalog, ids map[models.Dimension]map[string]int64, row models.EncodedRoute) (models.FlightRoute, error) {
	var route models.FlightRoute

	refs := []struct {
		key  string
		code float64
		dim  models.Dimension
		dst  *int64
	}{
		{catalog.KeyAirline, row.Airline, models.Airlines, &route.AirlineID},
		{catalog.KeyFrom, row.From, models.Cities, &route.FromCityID},
		{catalog.KeyTo, row.To, models.Cities, &route.ToCityID},
		{catalog.KeyStopsCategory, row.StopsCategory, models.StopsCategories, &route.StopsCategoryID},
		{catalog.KeyClassCategory, row.ClassCategory, models.ClassCategories, &route.ClassCategoryID},
	}
	for _, ref := range refs {
		code, err := wholeNumber(ref.key, ref.code)
		if err != nil {
			return route, err
		}
		name, err := cat.Decode(ref.key, code)
		if err != nil {
			return route, err
		}
		id, ok := ids[ref.dim][name]
		if !ok {
			return route, fmt.Errorf("%s %q not found in %s", ref.dim.Name, name, ref.dim.Table)
		}
		*ref.dst = id
	}

	numeric := []struct {
		column string
		value  float64
		dst    *int
	}{
		{"duration_in_min", row.DurationInMin, &route.Duration},
		{"dep_daytime_category", row.DepDaytimeCategory, &route.DepDaytimeCategory},
		{"arr_daytime_category", row.ArrDaytimeCategory, &route.ArrDaytimeCategory},
		{"month", row.Month, &route.Month},
		{"stops", row.Stops, &route.Stops},
	}
	for _, n := range numeric {
		v, err := wholeNumber(n.column, n.value)
		if err != nil {
			return route, err
		}
		*n.dst = v
	}
	return route, nil
}

// wholeNumber truncates v toward zero. NaN, infinities and values outside
// the int32 range are rejected.
func wholeNumber(column string, v float64) (int, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%s is not a number", column)
	}
	if v < math.MinInt32 || v > math.MaxInt32 {
		return 0, fmt.Errorf("%s value %v is out of range", column, v)
	}
	return int(v), nil
}

// Stats returns row counts for every table.
func (s *Store) Stats(ctx context.Context) (models.StoreStats, error) {
	var stats models.StoreStats
	err := s.db.GetContext(ctx, &stats, `
		SELECT
			(SELECT COUNT(*) FROM airlines) AS airlines,
			(SELECT COUNT(*) FROM cities) AS cities,
			(SELECT COUNT(*) FROM stops_category) AS stops_categories,
			(SELECT COUNT(*) FROM class_category) AS class_categories,
			(SELECT COUNT(*) FROM flight_routes) AS routes
	`)
	if err != nil {
		return stats, fmt.Errorf("failed to query store stats: %w", err)
	}
	return stats, nil
}
