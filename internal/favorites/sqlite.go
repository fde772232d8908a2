package favorites

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver (pure Go, no CGO)

	"github.com/vadimtrunov/PopularMovies/internal/metrics"
	"github.com/vadimtrunov/PopularMovies/internal/movie"
)

const sqliteBusyTimeout = 5 * time.Second

// SQLiteStore keeps favorites in a local SQLite file.
type SQLiteStore struct {
	notifier
	db     *sql.DB
	logger *slog.Logger
}

// OpenSQLite opens (creating if needed) the database at path and runs
// migrations. WAL mode and busy_timeout apply to every pooled connection.
func OpenSQLite(path string, logger *slog.Logger) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("favorites: sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=synchronous(NORMAL)",
		path, sqliteBusyTimeout.Milliseconds())
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &SQLiteStore{db: db, logger: logger}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS favorites (
		id INTEGER PRIMARY KEY,
		original_title TEXT NOT NULL DEFAULT '',
		title TEXT NOT NULL DEFAULT '',
		poster_path TEXT NOT NULL DEFAULT '',
		backdrop_path TEXT NOT NULL DEFAULT '',
		overview TEXT NOT NULL DEFAULT '',
		vote_average REAL NOT NULL DEFAULT 0,
		release_date TEXT NOT NULL DEFAULT ''
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes subscriber channels and the database.
func (s *SQLiteStore) Close() error {
	s.closeAll()
	return s.db.Close()
}

// Insert adds a favorite, failing with ErrDuplicate if the ID exists.
func (s *SQLiteStore) Insert(ctx context.Context, m movie.Movie) error {
	m = row(m)
	const query = `
	INSERT INTO favorites (id, original_title, title, poster_path, backdrop_path, overview, vote_average, release_date)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO NOTHING
	`
	res, err := s.db.ExecContext(ctx, query,
		m.ID, m.OriginalTitle, m.Title, m.PosterPath, m.BackdropPath, m.Overview, m.Rating, m.ReleaseDate)
	if err != nil {
		metrics.RecordFavoriteOp(DriverSQLite, "insert", metrics.OutcomeError)
		return fmt.Errorf("insert favorite %d: %w", m.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		metrics.RecordFavoriteOp(DriverSQLite, "insert", metrics.OutcomeError)
		return fmt.Errorf("insert favorite %d: %w", m.ID, err)
	}
	if n == 0 {
		metrics.RecordFavoriteOp(DriverSQLite, "insert", metrics.OutcomeConflict)
		return fmt.Errorf("insert favorite %d: %w", m.ID, ErrDuplicate)
	}

	metrics.RecordFavoriteOp(DriverSQLite, "insert", metrics.OutcomeOK)
	s.logger.Debug("favorite added", slog.Int("movie_id", m.ID))
	s.notify()
	return nil
}

// Delete removes a favorite and reports how many rows were removed.
func (s *SQLiteStore) Delete(ctx context.Context, id int) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM favorites WHERE id = ?`, id)
	if err != nil {
		metrics.RecordFavoriteOp(DriverSQLite, "delete", metrics.OutcomeError)
		return 0, fmt.Errorf("delete favorite %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		metrics.RecordFavoriteOp(DriverSQLite, "delete", metrics.OutcomeError)
		return 0, fmt.Errorf("delete favorite %d: %w", id, err)
	}
	if n == 0 {
		metrics.RecordFavoriteOp(DriverSQLite, "delete", metrics.OutcomeNoop)
		return 0, nil
	}

	metrics.RecordFavoriteOp(DriverSQLite, "delete", metrics.OutcomeOK)
	s.logger.Debug("favorite removed", slog.Int("movie_id", id))
	s.notify()
	return n, nil
}

// Query returns all favorites ordered by ID, or the one matching id.
func (s *SQLiteStore) Query(ctx context.Context, id *int) ([]movie.Movie, error) {
	query := `
	SELECT id, original_title, title, poster_path, backdrop_path, overview, vote_average, release_date
	FROM favorites
	`
	var args []any
	if id != nil {
		query += ` WHERE id = ?`
		args = append(args, *id)
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query favorites: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []movie.Movie
	for rows.Next() {
		var m movie.Movie
		if err := rows.Scan(&m.ID, &m.OriginalTitle, &m.Title, &m.PosterPath, &m.BackdropPath,
			&m.Overview, &m.Rating, &m.ReleaseDate); err != nil {
			return nil, fmt.Errorf("scan favorite: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Exists reports whether id is a favorite.
func (s *SQLiteStore) Exists(ctx context.Context, id int) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM favorites WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check favorite %d: %w", id, err)
	}
	return true, nil
}
