package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"

	"github.com/vadimtrunov/PopularMovies/internal/catalog"
)

const lastModeName = "last_listing"

// loadLastMode returns the listing saved in dataDir, or popular when none
// was saved or the file is unreadable.
func loadLastMode(dataDir string) catalog.Mode {
	data, err := os.ReadFile(filepath.Join(dataDir, lastModeName))
	if err != nil {
		return catalog.ModePopular
	}
	mode, err := catalog.ParseMode(strings.TrimSpace(string(data)))
	if err != nil || mode == catalog.ModeSearch {
		return catalog.ModePopular
	}
	return mode
}

// saveLastMode records mode in dataDir. Search is never saved since it needs
// a query.
func saveLastMode(dataDir string, mode catalog.Mode) error {
	if mode == "" || mode == catalog.ModeSearch {
		return nil
	}
	if err := os.MkdirAll(dataDir, 0o750); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	if err := renameio.WriteFile(filepath.Join(dataDir, lastModeName), []byte(string(mode)+"\n"), 0o600); err != nil {
		return fmt.Errorf("write last listing: %w", err)
	}
	return nil
}
