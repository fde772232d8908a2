package favorites

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vadimtrunov/PopularMovies/internal/metrics"
	"github.com/vadimtrunov/PopularMovies/internal/movie"
)

// PostgresStore keeps favorites in a shared Postgres database.
type PostgresStore struct {
	notifier
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// OpenPostgres connects to dsn and creates the favorites table if missing.
func OpenPostgres(ctx context.Context, dsn string, logger *slog.Logger) (*PostgresStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("favorites: postgres dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	const schema = `
	CREATE TABLE IF NOT EXISTS favorites (
		id BIGINT PRIMARY KEY,
		original_title TEXT NOT NULL DEFAULT '',
		title TEXT NOT NULL DEFAULT '',
		poster_path TEXT NOT NULL DEFAULT '',
		backdrop_path TEXT NOT NULL DEFAULT '',
		overview TEXT NOT NULL DEFAULT '',
		vote_average DOUBLE PRECISION NOT NULL DEFAULT 0,
		release_date TEXT NOT NULL DEFAULT ''
	)`
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &PostgresStore{pool: pool, logger: logger}, nil
}

// Close closes subscriber channels and the pool.
func (s *PostgresStore) Close() error {
	s.closeAll()
	s.pool.Close()
	return nil
}

// Insert uses ON CONFLICT so a duplicate ID is detected atomically.
func (s *PostgresStore) Insert(ctx context.Context, m movie.Movie) error {
	m = row(m)
	const q = `INSERT INTO favorites (id, original_title, title, poster_path, backdrop_path, overview, vote_average, release_date)
	           VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	           ON CONFLICT (id) DO NOTHING`

	tag, err := s.pool.Exec(ctx, q,
		m.ID, m.OriginalTitle, m.Title, m.PosterPath, m.BackdropPath, m.Overview, m.Rating, m.ReleaseDate)
	if err != nil {
		metrics.RecordFavoriteOp(DriverPostgres, "insert", metrics.OutcomeError)
		return fmt.Errorf("insert favorite %d: %w", m.ID, err)
	}
	if tag.RowsAffected() == 0 {
		metrics.RecordFavoriteOp(DriverPostgres, "insert", metrics.OutcomeConflict)
		return fmt.Errorf("insert favorite %d: %w", m.ID, ErrDuplicate)
	}

	metrics.RecordFavoriteOp(DriverPostgres, "insert", metrics.OutcomeOK)
	s.logger.Debug("favorite added", slog.Int("movie_id", m.ID))
	s.notify()
	return nil
}

// Delete removes a favorite and reports how many rows were removed.
func (s *PostgresStore) Delete(ctx context.Context, id int) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM favorites WHERE id = $1`, id)
	if err != nil {
		metrics.RecordFavoriteOp(DriverPostgres, "delete", metrics.OutcomeError)
		return 0, fmt.Errorf("delete favorite %d: %w", id, err)
	}
	n := tag.RowsAffected()
	if n == 0 {
		metrics.RecordFavoriteOp(DriverPostgres, "delete", metrics.OutcomeNoop)
		return 0, nil
	}

	metrics.RecordFavoriteOp(DriverPostgres, "delete", metrics.OutcomeOK)
	s.logger.Debug("favorite removed", slog.Int("movie_id", id))
	s.notify()
	return n, nil
}

// Query returns all favorites ordered by ID, or the one matching id.
func (s *PostgresStore) Query(ctx context.Context, id *int) ([]movie.Movie, error) {
	q := `SELECT id, original_title, title, poster_path, backdrop_path, overview, vote_average, release_date
	      FROM favorites`
	var args []any
	if id != nil {
		q += ` WHERE id = $1`
		args = append(args, *id)
	}
	q += ` ORDER BY id`

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query favorites: %w", err)
	}
	defer rows.Close()

	var out []movie.Movie
	for rows.Next() {
		var m movie.Movie
		var rowID int64
		if err := rows.Scan(&rowID, &m.OriginalTitle, &m.Title, &m.PosterPath, &m.BackdropPath,
			&m.Overview, &m.Rating, &m.ReleaseDate); err != nil {
			return nil, fmt.Errorf("scan favorite: %w", err)
		}
		m.ID = int(rowID)
		out = append(out, m)
	}
	return out, rows.Err()
}

// Exists reports whether id is a favorite.
func (s *PostgresStore) Exists(ctx context.Context, id int) (bool, error) {
	var one int
	err := s.pool.QueryRow(ctx, `SELECT 1 FROM favorites WHERE id = $1`, id).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check favorite %d: %w", id, err)
	}
	return true, nil
}
