package favorites

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/redis/go-redis/v9"

	"github.com/vadimtrunov/PopularMovies/internal/movie"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func fightClub() movie.Movie {
	return movie.Movie{
		ID:            550,
		OriginalTitle: "Fight Club",
		Title:         "Fight Club",
		PosterPath:    "/poster.jpg",
		BackdropPath:  "/backdrop.jpg",
		Overview:      "An insomniac office worker...",
		Rating:        8.4,
		ReleaseDate:   "1999-10-15",
	}
}

func openSQLiteForTest(t *testing.T) Store {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "favorites.db"), discardLogger)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	return s
}

func openRedisForTest(t *testing.T) Store {
	t.Helper()
	mr := miniredis.RunT(t)
	return newRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}), discardLogger)
}

func openPostgresForTest(t *testing.T) Store {
	t.Helper()
	dsn := os.Getenv("POPULARMOVIES_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("POPULARMOVIES_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	s, err := OpenPostgres(ctx, dsn, discardLogger)
	if err != nil {
		t.Fatalf("OpenPostgres: %v", err)
	}
	if _, err := s.pool.Exec(ctx, `TRUNCATE favorites`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return s
}

var backends = map[string]func(t *testing.T) Store{
	DriverSQLite:   openSQLiteForTest,
	DriverRedis:    openRedisForTest,
	DriverPostgres: openPostgresForTest,
}

func forEachBackend(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Helper()
	for name, open := range backends {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			t.Cleanup(func() { _ = s.Close() })
			fn(t, s)
		})
	}
}

// received drains at most one pending signal.
func received(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

func TestStore_InsertQueryDelete(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		m := fightClub()
		m.Videos = []movie.Video{{Key: "x", Site: "YouTube"}}

		if err := s.Insert(ctx, m); err != nil {
			t.Fatalf("Insert: %v", err)
		}

		rows, err := s.Query(ctx, nil)
		if err != nil {
			t.Fatalf("Query: %v", err)
		}
		if diff := cmp.Diff([]movie.Movie{fightClub()}, rows); diff != "" {
			t.Errorf("Query() mismatch (-want +got):\n%s", diff)
		}

		ok, err := s.Exists(ctx, 550)
		if err != nil || !ok {
			t.Fatalf("Exists(550) = %v, %v", ok, err)
		}

		n, err := s.Delete(ctx, 550)
		if err != nil || n != 1 {
			t.Fatalf("Delete(550) = %d, %v, want 1", n, err)
		}
		ok, err = s.Exists(ctx, 550)
		if err != nil || ok {
			t.Fatalf("Exists after delete = %v, %v", ok, err)
		}
		rows, err = s.Query(ctx, nil)
		if err != nil || len(rows) != 0 {
			t.Fatalf("Query after delete = %v, %v", rows, err)
		}
	})
}

func TestStore_DuplicateInsert(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		changes, cancel := s.Subscribe()
		defer cancel()

		m := movie.Movie{ID: 42, Title: "The Answer", OriginalTitle: "The Answer"}
		if err := s.Insert(ctx, m); err != nil {
			t.Fatalf("first Insert: %v", err)
		}
		if !received(changes) {
			t.Fatal("expected change signal after first insert")
		}

		err := s.Insert(ctx, m)
		if !errors.Is(err, ErrDuplicate) {
			t.Fatalf("second Insert error = %v, want ErrDuplicate", err)
		}
		if received(changes) {
			t.Error("duplicate insert must not signal a change")
		}

		rows, err := s.Query(ctx, nil)
		if err != nil {
			t.Fatalf("Query: %v", err)
		}
		if len(rows) != 1 {
			t.Errorf("expected exactly one row for id 42, got %d", len(rows))
		}
	})
}

func TestStore_DeleteMissing(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		changes, cancel := s.Subscribe()
		defer cancel()

		n, err := s.Delete(context.Background(), 999)
		if err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if n != 0 {
			t.Errorf("rows affected = %d, want 0", n)
		}
		if received(changes) {
			t.Error("deleting a missing row must not signal a change")
		}
	})
}

func TestStore_QueryByIDAndOrdering(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		for _, id := range []int{300, 12, 77} {
			if err := s.Insert(ctx, movie.Movie{ID: id, Title: "m"}); err != nil {
				t.Fatalf("Insert(%d): %v", id, err)
			}
		}

		rows, err := s.Query(ctx, nil)
		if err != nil {
			t.Fatalf("Query: %v", err)
		}
		var ids []int
		for _, r := range rows {
			ids = append(ids, r.ID)
		}
		if diff := cmp.Diff([]int{12, 77, 300}, ids); diff != "" {
			t.Errorf("ordering mismatch (-want +got):\n%s", diff)
		}

		got, ok, err := Get(ctx, s, 77)
		if err != nil || !ok || got.ID != 77 {
			t.Fatalf("Get(77) = %+v, %v, %v", got, ok, err)
		}
		_, ok, err = Get(ctx, s, 5)
		if err != nil || ok {
			t.Fatalf("Get(5) = %v, %v, want not found", ok, err)
		}
	})
}

func TestStore_TitleFallbackOnInsert(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		if err := s.Insert(ctx, movie.Movie{ID: 129, OriginalTitle: "千と千尋の神隠し"}); err != nil {
			t.Fatalf("Insert: %v", err)
		}
		got, _, err := Get(ctx, s, 129)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got.Title != "千と千尋の神隠し" {
			t.Errorf("Title = %q, want original title fallback", got.Title)
		}
	})
}

func TestStore_CloseClosesSubscribers(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		changes, cancel := s.Subscribe()
		if err := s.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
		select {
		case _, ok := <-changes:
			if ok {
				t.Error("expected closed channel")
			}
		case <-time.After(time.Second):
			t.Fatal("subscriber channel not closed")
		}
		// Cancelling after Close must be harmless.
		cancel()
	})
}

func TestOpen_UnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), Config{Driver: "mysql"}, discardLogger); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestOpen_DefaultsToSQLite(t *testing.T) {
	s, err := Open(context.Background(), Config{Path: filepath.Join(t.TempDir(), "f.db")}, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()
	if _, ok := s.(*SQLiteStore); !ok {
		t.Errorf("expected *SQLiteStore, got %T", s)
	}
}

func TestOpenSQLite_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "favorites.db")
	s, err := OpenSQLite(path, discardLogger)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if err := s.Insert(context.Background(), fightClub()); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	_ = s.Close()

	s, err = OpenSQLite(path, discardLogger)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	ok, err := s.Exists(context.Background(), 550)
	if err != nil || !ok {
		t.Fatalf("Exists after reopen = %v, %v", ok, err)
	}
}

func TestOpenRedis_BareAddress(t *testing.T) {
	mr := miniredis.RunT(t)
	s, err := OpenRedis(context.Background(), mr.Addr(), discardLogger)
	if err != nil {
		t.Fatalf("OpenRedis: %v", err)
	}
	defer s.Close()
	if err := s.Insert(context.Background(), fightClub()); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if !mr.Exists(redisKey(550)) {
		t.Error("expected movie hash in redis")
	}
}

func TestRedisStore_InsertWritesIndexAndHashTogether(t *testing.T) {
	mr := miniredis.RunT(t)
	s := newRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}), discardLogger)
	defer s.Close()
	ctx := context.Background()

	const workers = 8
	errs := make(chan error, workers)
	for range workers {
		go func() { errs <- s.Insert(ctx, fightClub()) }()
	}
	var added, dup int
	for range workers {
		switch err := <-errs; {
		case err == nil:
			added++
		case errors.Is(err, ErrDuplicate):
			dup++
		default:
			t.Fatalf("Insert: %v", err)
		}
	}
	if added != 1 || dup != workers-1 {
		t.Errorf("added=%d duplicates=%d, want 1 and %d", added, dup, workers-1)
	}

	if got := mr.HGet(redisKey(550), "title"); got != "Fight Club" {
		t.Errorf("hash title = %q, want Fight Club", got)
	}
	members, err := mr.ZMembers(redisIndexKey)
	if err != nil {
		t.Fatalf("ZMembers: %v", err)
	}
	if diff := cmp.Diff([]string{"550"}, members); diff != "" {
		t.Errorf("index mismatch (-want +got):\n%s", diff)
	}

	// A rejected duplicate leaves the stored fields untouched.
	other := fightClub()
	other.Title = "Other"
	if err := s.Insert(ctx, other); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("duplicate Insert err = %v", err)
	}
	rows, err := s.Query(ctx, nil)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if diff := cmp.Diff([]movie.Movie{fightClub()}, rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestNotifier_CoalescesBursts(t *testing.T) {
	var n notifier
	ch, cancel := n.Subscribe()
	defer cancel()

	for range 5 {
		n.notify()
	}
	if !received(ch) {
		t.Fatal("expected a signal")
	}
	if received(ch) {
		t.Error("burst should coalesce into a single pending signal")
	}

	cancel()
	cancel()
	n.notify()
}
