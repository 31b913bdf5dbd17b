package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/ginjaninja78/sales-analytics/internal/logger"
	"github.com/golang/snappy"
)

// diskEntry is the cached catalog response, stored as snappy-compressed JSON.
type diskEntry struct {
	URL       string    `json:"url"`
	FetchedAt time.Time `json:"fetched_at"`
	Products  []Product `json:"products"`
}

// readDiskCache returns the cached products when the cache file exists, was
// written for the same URL and is younger than the TTL.
func (c *Client) readDiskCache(requestURL string) ([]Product, bool) {
	if c.cacheFile == "" {
		return nil, false
	}

	entry, err := loadDiskEntry(c.cacheFile)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.L.Warn("Ignoring unreadable catalog cache", "file", c.cacheFile, "error", err)
		}
		return nil, false
	}

	if entry.URL != requestURL {
		logger.L.Debug("Catalog cache is for another url", "file", c.cacheFile, "cached", entry.URL)
		return nil, false
	}
	if age := c.now().Sub(entry.FetchedAt); age > c.cacheTTL {
		logger.L.Debug("Catalog cache is stale", "file", c.cacheFile, "age", age)
		return nil, false
	}

	logger.L.Info("Catalog served from disk cache", "file", c.cacheFile, "count", len(entry.Products))
	return entry.Products, true
}

// writeDiskCache stores the products. Failures are logged, not returned.
func (c *Client) writeDiskCache(requestURL string, products []Product) {
	if c.cacheFile == "" {
		return
	}
	entry := diskEntry{URL: requestURL, FetchedAt: c.now().UTC(), Products: products}
	if err := saveDiskEntry(c.cacheFile, entry); err != nil {
		logger.L.Warn("Failed to write catalog cache", "file", c.cacheFile, "error", err)
	}
}

func loadDiskEntry(path string) (*diskEntry, error) {
	compressed, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	raw, err := snappy.Decode(nil, compressed)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress: %w", err)
	}
	var entry diskEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, fmt.Errorf("failed to decode: %w", err)
	}
	return &entry, nil
}

func saveDiskEntry(path string, entry diskEntry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, snappy.Encode(nil, raw), 0644)
}
