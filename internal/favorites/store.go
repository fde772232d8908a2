// Package favorites persists favorited movies keyed by movie ID.
//
// The existence of a row is the only record of "is a favorite". Rows are
// inserted and deleted, never updated. Every backend signals subscribers
// after a mutation that changed the table.
package favorites

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vadimtrunov/PopularMovies/internal/movie"
)

// ErrDuplicate is returned by Insert when the movie ID is already stored.
var ErrDuplicate = errors.New("favorites: movie already stored")

// Store is the favorites table.
type Store interface {
	// Insert adds a row. It fails with ErrDuplicate when the ID exists.
	Insert(ctx context.Context, m movie.Movie) error
	// Delete removes the row for id and reports rows affected (0 or 1).
	Delete(ctx context.Context, id int) (int64, error)
	// Query returns every row ordered by ID, or only the row matching id.
	Query(ctx context.Context, id *int) ([]movie.Movie, error)
	// Exists reports whether a row for id is stored.
	Exists(ctx context.Context, id int) (bool, error)
	// Subscribe returns a channel that receives a value after each change.
	// The returned func unsubscribes and closes the channel.
	Subscribe() (<-chan struct{}, func())
	Close() error
}

// Driver names accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

// Config selects and configures a backend.
type Config struct {
	Driver string
	// Path is the SQLite database file.
	Path string
	// DSN is the Postgres connection string.
	DSN string
	// RedisURL is a redis:// URL or a bare host:port.
	RedisURL string
}

// Open creates the configured backend.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch cfg.Driver {
	case "", DriverSQLite:
		return OpenSQLite(cfg.Path, logger)
	case DriverPostgres:
		return OpenPostgres(ctx, cfg.DSN, logger)
	case DriverRedis:
		return OpenRedis(ctx, cfg.RedisURL, logger)
	}
	return nil, fmt.Errorf("favorites: unknown driver %q", cfg.Driver)
}

// Get returns the stored row for id, if any.
func Get(ctx context.Context, s Store, id int) (movie.Movie, bool, error) {
	rows, err := s.Query(ctx, &id)
	if err != nil {
		return movie.Movie{}, false, err
	}
	if len(rows) == 0 {
		return movie.Movie{}, false, nil
	}
	return rows[0], true, nil
}

// row strips detail data and applies the title fallback before storing.
func row(m movie.Movie) movie.Movie {
	m = m.WithoutDetail()
	m.Normalize()
	return m
}
