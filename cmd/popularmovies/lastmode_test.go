package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/vadimtrunov/PopularMovies/internal/catalog"
)

func TestLastMode_RoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")

	if got := loadLastMode(dir); got != catalog.ModePopular {
		t.Errorf("no saved listing: got %v, want popular", got)
	}

	for _, mode := range []catalog.Mode{catalog.ModeTopRated, catalog.ModeFavorites} {
		if err := saveLastMode(dir, mode); err != nil {
			t.Fatalf("saveLastMode(%v): %v", mode, err)
		}
		if got := loadLastMode(dir); got != mode {
			t.Errorf("loadLastMode = %v, want %v", got, mode)
		}
	}

	// Search needs a query and is never reopened.
	if err := saveLastMode(dir, catalog.ModeSearch); err != nil {
		t.Fatalf("saveLastMode(search): %v", err)
	}
	if got := loadLastMode(dir); got != catalog.ModeFavorites {
		t.Errorf("search overwrote the saved listing: got %v", got)
	}
}

func TestLastMode_Garbage(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, lastModeName), []byte("upcoming\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if got := loadLastMode(dir); got != catalog.ModePopular {
		t.Errorf("got %v, want popular for an unknown listing", got)
	}
}
