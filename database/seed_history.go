package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/adseawright/flight-price-backend/models"
	"github.com/sirupsen/logrus"
)

// RecordSeed appends one entry to the rebuild log.
func (s *Store) RecordSeed(ctx context.Context, rec models.SeedRecord) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.seedHistoryStatement()); err != nil {
		return fmt.Errorf("failed to create seed_history table: %w", err)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO seed_history (
			source_file, source_url, data_hash, routes_inserted, routes_skipped, seeded_at
		) VALUES (?, ?, ?, ?, ?, ?)
	`, rec.SourceFile, rec.SourceURL, rec.DataHash, rec.RoutesInserted, rec.RoutesSkipped, rec.SeededAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to record seed for %s: %w", rec.SourceFile, err)
	}

	s.logger.WithFields(logrus.Fields{
		"source_file": rec.SourceFile,
		"data_hash":   rec.DataHash,
	}).Info("Recorded lookup store rebuild")
	return nil
}

// SeedHistory returns up to limit rebuild log entries, newest first.
func (s *Store) SeedHistory(ctx context.Context, limit int) ([]models.SeedRecord, error) {
	records := []models.SeedRecord{}
	err := s.db.SelectContext(ctx, &records, `
		SELECT id, source_file, source_url, data_hash, routes_inserted, routes_skipped, seeded_at
		FROM seed_history
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query seed_history: %w", err)
	}
	return records, nil
}

// LastSeed returns the newest rebuild log entry, or nil when the store has
// never been seeded through the rebuild command.
func (s *Store) LastSeed(ctx context.Context) (*models.SeedRecord, error) {
	var rec models.SeedRecord
	err := s.db.GetContext(ctx, &rec, `
		SELECT id, source_file, source_url, data_hash, routes_inserted, routes_skipped, seeded_at
		FROM seed_history
		ORDER BY id DESC
		LIMIT 1
	`)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query last seed: %w", err)
	}
	return &rec, nil
}
