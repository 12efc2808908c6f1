package dataset

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

// Downloader fetches a remote training export to a local path before seeding.
type Downloader struct {
	client *http.Client
	logger *logrus.Logger
}

// NewDownloader returns a Downloader with a sensible timeout for file downloads.
func NewDownloader(logger *logrus.Logger) *Downloader {
	return &Downloader{
		client: &http.Client{Timeout: 30 * time.Second},
		logger: logger,
	}
}

// DownloadFile downloads url and saves it to localSavePath.
// The file is written to a temporary sibling first so a failed download never
// leaves a truncated export in place.
func (d *Downloader) DownloadFile(ctx context.Context, url, localSavePath string) error {
	d.logger.WithFields(logrus.Fields{"url": url, "path": localSavePath}).Info("Downloading training export")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build GET request for %s: %w", url, err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make GET request to %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to download file from %s: received status code %d", url, resp.StatusCode)
	}

	dir := filepath.Dir(localSavePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(localSavePath)+".*.part")
	if err != nil {
		return fmt.Errorf("failed to create temporary file in %s: %w", dir, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to copy downloaded content to %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), localSavePath); err != nil {
		return fmt.Errorf("failed to move download into %s: %w", localSavePath, err)
	}

	d.logger.WithField("path", localSavePath).Info("Training export downloaded")
	return nil
}
