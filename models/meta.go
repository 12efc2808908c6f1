package models

import "time"

// SeedReport summarizes one rebuild of the lookup store.
type SeedReport struct {
	Airlines        int `json:"airlines"`
	Cities          int `json:"cities"`
	StopsCategories int `json:"stops_categories"`
	ClassCategories int `json:"class_categories"`
	RoutesInserted  int `json:"routes_inserted"`
	RoutesSkipped   int `json:"routes_skipped"`
}

// StoreStats holds row counts of the lookup store, reported by /health.
type StoreStats struct {
	Airlines        int `db:"airlines" json:"airlines"`
	Cities          int `db:"cities" json:"cities"`
	StopsCategories int `db:"stops_categories" json:"stops_categories"`
	ClassCategories int `db:"class_categories" json:"class_categories"`
	Routes          int `db:"routes" json:"routes"`
}

// SeedRecord is one entry of the rebuild log.
type SeedRecord struct {
	ID             int64     `db:"id" json:"id"`
	SourceFile     string    `db:"source_file" json:"source_file"`
	SourceURL      string    `db:"source_url" json:"source_url,omitempty"`
	DataHash       string    `db:"data_hash" json:"data_hash"` // sha256 of the encoded CSV
	RoutesInserted int       `db:"routes_inserted" json:"routes_inserted"`
	RoutesSkipped  int       `db:"routes_skipped" json:"routes_skipped"`
	SeededAt       time.Time `db:"seeded_at" json:"seeded_at"`
}
