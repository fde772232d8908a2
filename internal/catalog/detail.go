package catalog

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/vadimtrunov/PopularMovies/internal/favorites"
	"github.com/vadimtrunov/PopularMovies/internal/metadata/tmdb"
	"github.com/vadimtrunov/PopularMovies/internal/movie"
)

// maxCachedDetails bounds the per-movie replay cache.
const maxCachedDetails = 64

// Outcome is the user-visible result of a favorite toggle.
type Outcome int

const (
	OutcomeFailed Outcome = iota
	OutcomeAdded
	OutcomeRemoved
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAdded:
		return "added"
	case OutcomeRemoved:
		return "removed"
	default:
		return "failed"
	}
}

// DetailController enriches one movie with videos and reviews and toggles
// its favorite status.
type DetailController struct {
	fetcher Fetcher
	store   favorites.Store
	logger  *slog.Logger

	mu    sync.Mutex
	cache map[int]detail
}

// detail is the fetched part of a movie, kept for replay.
type detail struct {
	videos  []movie.Video
	reviews []movie.Review
}

// NewDetailController creates a detail controller.
func NewDetailController(fetcher Fetcher, store favorites.Store, logger *slog.Logger) *DetailController {
	if logger == nil {
		logger = slog.Default()
	}
	return &DetailController{
		fetcher: fetcher,
		store:   store,
		logger:  logger,
		cache:   make(map[int]detail),
	}
}

// Load returns m with videos and reviews attached. A previously completed
// enrichment for the same ID is replayed onto m without fetching. Fetch
// failures are logged and leave the affected set nil; base fields are never
// lost.
func (d *DetailController) Load(ctx context.Context, m movie.Movie) movie.Movie {
	d.mu.Lock()
	cached, ok := d.cache[m.ID]
	d.mu.Unlock()
	if ok {
		out := m.WithoutDetail()
		out.Normalize()
		out.Videos = cached.videos
		out.Reviews = cached.reviews
		return out
	}
	return d.Refresh(ctx, m)
}

// Refresh fetches videos and reviews for m, bypassing the replay cache.
func (d *DetailController) Refresh(ctx context.Context, m movie.Movie) movie.Movie {
	base := m.WithoutDetail()
	base.Normalize()
	logger := d.logger.With(slog.Int("movie_id", m.ID))

	var (
		videos    []movie.Video
		reviews   []movie.Review
		videosOK  bool
		reviewsOK bool
	)

	// Neither fetch cancels the other; each failure only drops its own set.
	var g errgroup.Group
	g.Go(func() error {
		raw, err := d.fetcher.FetchVideos(ctx, m.ID)
		if err == nil {
			videos, err = tmdb.DecodeVideos(raw)
		}
		if err != nil {
			logger.Warn("videos unavailable", slog.String("error", err.Error()))
			return nil
		}
		videosOK = true
		return nil
	})
	g.Go(func() error {
		raw, err := d.fetcher.FetchReviews(ctx, m.ID)
		if err == nil {
			reviews, err = tmdb.DecodeReviews(raw)
		}
		if err != nil {
			logger.Warn("reviews unavailable", slog.String("error", err.Error()))
			return nil
		}
		reviewsOK = true
		return nil
	})
	_ = g.Wait()

	base.Videos = videos
	base.Reviews = reviews

	if videosOK && reviewsOK {
		d.remember(m.ID, detail{videos: videos, reviews: reviews})
	}
	return base
}

func (d *DetailController) remember(id int, det detail) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.cache[id]; !ok && len(d.cache) >= maxCachedDetails {
		for evict := range d.cache {
			delete(d.cache, evict)
			break
		}
	}
	d.cache[id] = det
}

// IsFavorite reports whether id is stored as a favorite.
func (d *DetailController) IsFavorite(ctx context.Context, id int) (bool, error) {
	return d.store.Exists(ctx, id)
}

// Add stores m as a favorite. A duplicate or a store error is OutcomeFailed.
func (d *DetailController) Add(ctx context.Context, m movie.Movie) Outcome {
	if err := d.store.Insert(ctx, m); err != nil {
		if errors.Is(err, favorites.ErrDuplicate) {
			d.logger.Info("movie already a favorite", slog.Int("movie_id", m.ID))
		} else {
			d.logger.Error("failed to add favorite", slog.Int("movie_id", m.ID), slog.String("error", err.Error()))
		}
		return OutcomeFailed
	}
	return OutcomeAdded
}

// Remove deletes m from favorites. Removing an absent movie is OutcomeFailed.
func (d *DetailController) Remove(ctx context.Context, m movie.Movie) Outcome {
	n, err := d.store.Delete(ctx, m.ID)
	if err != nil {
		d.logger.Error("failed to remove favorite", slog.Int("movie_id", m.ID), slog.String("error", err.Error()))
		return OutcomeFailed
	}
	if n == 0 {
		d.logger.Info("movie was not a favorite", slog.Int("movie_id", m.ID))
		return OutcomeFailed
	}
	return OutcomeRemoved
}

// Toggle adds m when it is not a favorite and removes it otherwise.
func (d *DetailController) Toggle(ctx context.Context, m movie.Movie) Outcome {
	fav, err := d.IsFavorite(ctx, m.ID)
	if err != nil {
		d.logger.Error("failed to read favorite status", slog.Int("movie_id", m.ID), slog.String("error", err.Error()))
		return OutcomeFailed
	}
	if fav {
		return d.Remove(ctx, m)
	}
	return d.Add(ctx, m)
}

// Undo reverses a successful Add or Remove of m. Undoing a failure is a
// failure.
func (d *DetailController) Undo(ctx context.Context, done Outcome, m movie.Movie) Outcome {
	switch done {
	case OutcomeAdded:
		return d.Remove(ctx, m)
	case OutcomeRemoved:
		return d.Add(ctx, m)
	}
	return OutcomeFailed
}
