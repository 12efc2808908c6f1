package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/adseawright/flight-price-backend/catalog"
	"github.com/adseawright/flight-price-backend/config"
	"github.com/adseawright/flight-price-backend/database"
	"github.com/adseawright/flight-price-backend/dataset"
	"github.com/adseawright/flight-price-backend/models"
	"github.com/sirupsen/logrus"
)

// SeedService rebuilds the lookup store from the training artifacts.
type SeedService struct {
	store      *database.Store
	downloader *dataset.Downloader
	data       config.DataConfig
	logger     *logrus.Logger
}

func NewSeedService(store *database.Store, data config.DataConfig, logger *logrus.Logger) *SeedService {
	return &SeedService{
		store:      store,
		downloader: dataset.NewDownloader(logger),
		data:       data,
		logger:     logger,
	}
}

// Run performs the offline rebuild. It refuses to touch a store that a
// running server holds.
func (s *SeedService) Run(ctx context.Context) (models.SeedReport, error) {
	var report models.SeedReport

	if err := database.EnsureNotServing(s.store.LockPath()); err != nil {
		return report, err
	}

	if s.data.EncodedTrainingURL != "" {
		if err := s.downloader.DownloadFile(ctx, s.data.EncodedTrainingURL, s.data.EncodedTrainingData); err != nil {
			return report, fmt.Errorf("failed to download encoded training data: %w", err)
		}
	}

	cat, err := catalog.Load(s.data.CategoryMapping)
	if err != nil {
		return report, err
	}
	s.logger.WithField("path", s.data.CategoryMapping).Info("Category mapping loaded")

	rows, err := dataset.LoadEncodedRoutes(s.data.EncodedTrainingData)
	if err != nil {
		return report, err
	}
	s.logger.WithFields(logrus.Fields{
		"path": s.data.EncodedTrainingData,
		"rows": len(rows),
	}).Info("Encoded training data loaded")

	report, err = s.store.Initialize(ctx, cat, rows)
	if err != nil {
		return report, fmt.Errorf("failed to initialize lookup store: %w", err)
	}

	hash, err := fileSHA256(s.data.EncodedTrainingData)
	if err != nil {
		return report, err
	}
	err = s.store.RecordSeed(ctx, models.SeedRecord{
		SourceFile:     s.data.EncodedTrainingData,
		SourceURL:      s.data.EncodedTrainingURL,
		DataHash:       hash,
		RoutesInserted: report.RoutesInserted,
		RoutesSkipped:  report.RoutesSkipped,
		SeededAt:       time.Now(),
	})
	if err != nil {
		return report, err
	}
	return report, nil
}

func fileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
