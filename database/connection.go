package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adseawright/flight-price-backend/config"
	_ "github.com/go-sql-driver/mysql" // MariaDB/MySQL driver
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/sirupsen/logrus"
)

// Store is the route lookup store: four dimension tables plus the
// flight_routes fact table.
type Store struct {
	db       *sqlx.DB
	dialect  dialect
	lockPath string
	logger   *logrus.Logger
}

// Open connects to the store described by cfg and verifies the connection.
func Open(cfg config.DatabaseConfig, logger *logrus.Logger) (*Store, error) {
	var dsn, lockPath string
	switch cfg.Driver {
	case "sqlite3":
		dsn = fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", cfg.Path)
		lockPath = cfg.Path + ".lock"
	case "mysql":
		// DSN: username:password@protocol(address)/dbname?param=value
		dsn = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
			cfg.User,
			cfg.Password,
			cfg.Host,
			cfg.Port,
			cfg.DBName,
		)
		lockPath = filepath.Join(os.TempDir(), "flight-price-"+cfg.DBName+".lock")
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := sqlx.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := NewStore(db, cfg.Driver, logger)
	store.lockPath = lockPath
	logger.WithField("driver", cfg.Driver).Info("Successfully connected to the lookup store")
	return store, nil
}

// NewStore wraps an existing connection. driver selects the SQL dialect and
// is "sqlite3" or "mysql"; any other value falls back to sqlite syntax.
func NewStore(db *sqlx.DB, driver string, logger *logrus.Logger) *Store {
	return &Store{
		db:      db,
		dialect: dialectFor(driver),
		logger:  logger,
	}
}

// Ping verifies the store is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.logger.Info("Lookup store connection closed")
	return err
}

// LockPath is the serve-lock file guarding this store, empty when the store
// was built with NewStore.
func (s *Store) LockPath() string {
	return s.lockPath
}
