// Package catalog drives the movie list and movie detail screens: it decides
// whether to read the remote catalog or the favorites store, tracks paging,
// and discards results that arrive after a newer request has started.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/vadimtrunov/PopularMovies/internal/favorites"
	"github.com/vadimtrunov/PopularMovies/internal/metadata/tmdb"
	"github.com/vadimtrunov/PopularMovies/internal/metrics"
	"github.com/vadimtrunov/PopularMovies/internal/pagination"
)

var (
	// ErrPageOutOfRange is returned by navigation outside [1, total pages].
	ErrPageOutOfRange = errors.New("catalog: page out of range")
	// ErrSuperseded is returned by a load whose result was discarded because
	// a newer load started before it finished.
	ErrSuperseded = errors.New("catalog: load superseded")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("catalog: controller closed")
)

// Fetcher is the remote catalog as seen by the controllers.
type Fetcher interface {
	FetchList(ctx context.Context, req tmdb.ListRequest) ([]byte, error)
	FetchVideos(ctx context.Context, movieID int) ([]byte, error)
	FetchReviews(ctx context.Context, movieID int) ([]byte, error)
}

// Mode is the list being shown.
type Mode string

const (
	ModePopular   Mode = "popular"
	ModeTopRated  Mode = "top_rated"
	ModeSearch    Mode = "search"
	ModeFavorites Mode = "favorites"
)

// ParseMode accepts mode names and the sort key aliases understood by
// tmdb.ParseSortKey.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "popular", "most-popular", "most_popular":
		return ModePopular, nil
	case "top_rated", "top-rated", "toprated":
		return ModeTopRated, nil
	case "search":
		return ModeSearch, nil
	case "favorites", "favourites", "favorite":
		return ModeFavorites, nil
	}
	return "", fmt.Errorf("catalog: unknown mode %q", s)
}

// sortKey maps a browse mode to its remote sort key.
func (m Mode) sortKey() (tmdb.SortKey, bool) {
	switch m {
	case ModePopular:
		return tmdb.SortPopular, true
	case ModeTopRated:
		return tmdb.SortTopRated, true
	}
	return "", false
}

// State is the list screen state.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateLoaded
	StateEmpty
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateEmpty:
		return "empty"
	case StateFailed:
		return "failed"
	default:
		return "idle"
	}
}

// Snapshot is a consistent view of the controller.
type Snapshot struct {
	Mode    Mode
	Query   string
	State   State
	Records RecordSet
	// Err is the cause of StateFailed.
	Err        error
	Page       int
	TotalPages int
	TotalKnown bool
	CanNext    bool
	CanPrev    bool
}

// ListController runs the fetch-or-read cycle for one list screen. It owns
// its page cursors. Loads may be issued from any goroutine; each new load
// cancels the previous one and only the newest result is applied.
type ListController struct {
	fetcher Fetcher
	store   favorites.Store
	logger  *slog.Logger

	mu       sync.Mutex
	mode     Mode
	lastSort Mode
	query    string
	cursors  *pagination.Cursors
	last     Snapshot
	gen      uint64
	cancel   context.CancelFunc
	closed   bool
}

// NewListController creates a controller in popular mode on page 1.
func NewListController(fetcher Fetcher, store favorites.Store, logger *slog.Logger) *ListController {
	if logger == nil {
		logger = slog.Default()
	}
	c := &ListController{
		fetcher:  fetcher,
		store:    store,
		logger:   logger,
		mode:     ModePopular,
		lastSort: ModePopular,
		cursors:  pagination.NewCursors(),
	}
	c.last = c.snapshotLocked(StateIdle, RemoteRecords{}, nil)
	return c
}

// loadPlan is what one load will fetch.
type loadPlan struct {
	gen   uint64
	mode  Mode
	query string
	page  int
}

// Load (re)loads the current mode and page.
func (c *ListController) Load(ctx context.Context) (Snapshot, error) {
	return c.start(ctx, nil)
}

// Refresh is Load under the name the UI uses for retry.
func (c *ListController) Refresh(ctx context.Context) (Snapshot, error) {
	return c.Load(ctx)
}

// NextPage loads the page after the current one. It is a no-op in
// favorites mode.
func (c *ListController) NextPage(ctx context.Context) (Snapshot, error) {
	return c.start(ctx, func(cur *pagination.Cursor) (int, error) {
		if !cur.HasNext() {
			return 0, fmt.Errorf("%w: no page after %d", ErrPageOutOfRange, cur.Current())
		}
		return cur.Current() + 1, nil
	})
}

// PrevPage loads the page before the current one. It is a no-op in
// favorites mode.
func (c *ListController) PrevPage(ctx context.Context) (Snapshot, error) {
	return c.start(ctx, func(cur *pagination.Cursor) (int, error) {
		if !cur.HasPrev() {
			return 0, fmt.Errorf("%w: no page before %d", ErrPageOutOfRange, cur.Current())
		}
		return cur.Current() - 1, nil
	})
}

// GoToPage loads page n, which must be within [1, total pages]. Before the
// first successful load only the lower bound applies.
func (c *ListController) GoToPage(ctx context.Context, n int) (Snapshot, error) {
	return c.start(ctx, func(cur *pagination.Cursor) (int, error) {
		if n < 1 || (cur.TotalKnown() && !cur.InRange(n)) {
			return 0, fmt.Errorf("%w: page %d not in [1, %d]", ErrPageOutOfRange, n, cur.Total())
		}
		return n, nil
	})
}

// SetMode switches the list and loads it. Changing the sort key starts the
// browse cursor over at page 1. Search mode needs a prior Search call.
func (c *ListController) SetMode(ctx context.Context, mode Mode) (Snapshot, error) {
	c.mu.Lock()
	err := c.switchLocked(mode, "")
	c.mu.Unlock()
	if err != nil {
		return Snapshot{}, err
	}
	return c.Load(ctx)
}

// Search switches to search mode for query, starting at page 1.
func (c *ListController) Search(ctx context.Context, query string) (Snapshot, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Snapshot{}, fmt.Errorf("%w: search query is empty", tmdb.ErrInvalidRequest)
	}

	c.mu.Lock()
	err := c.switchLocked(ModeSearch, query)
	c.cursors.Search.Reset()
	c.mu.Unlock()
	if err != nil {
		return Snapshot{}, err
	}
	return c.Load(ctx)
}

// Open switches to mode (with query for search) and loads page directly.
// It serves deep links where the page is known before any load.
func (c *ListController) Open(ctx context.Context, mode Mode, query string, page int) (Snapshot, error) {
	if mode == ModeSearch {
		query = strings.TrimSpace(query)
		if query == "" {
			return Snapshot{}, fmt.Errorf("%w: search query is empty", tmdb.ErrInvalidRequest)
		}
	}

	c.mu.Lock()
	err := c.switchLocked(mode, query)
	c.mu.Unlock()
	if err != nil {
		return Snapshot{}, err
	}
	switch {
	case mode == ModeFavorites:
		return c.Load(ctx)
	case page == 1:
		// Page 1 is always requestable, even when the known total is 0.
		return c.start(ctx, func(*pagination.Cursor) (int, error) { return 1, nil })
	}
	return c.GoToPage(ctx, page)
}

// switchLocked changes mode without loading. A new query resets the search
// cursor; a new sort key resets the browse cursor.
func (c *ListController) switchLocked(mode Mode, query string) error {
	switch mode {
	case ModePopular, ModeTopRated:
		if mode != c.lastSort {
			c.cursors.Browse.Reset()
			c.lastSort = mode
		}
	case ModeSearch:
		if query != "" && query != c.query {
			c.query = query
			c.cursors.Search.Reset()
		}
		if c.query == "" {
			return fmt.Errorf("%w: no search query", tmdb.ErrInvalidRequest)
		}
	case ModeFavorites:
	default:
		return fmt.Errorf("catalog: unknown mode %q", mode)
	}
	c.invalidateLocked()
	c.mode = mode
	return nil
}

// Snapshot returns the latest applied state. It never triggers a fetch.
func (c *ListController) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// Follow reloads the list whenever the favorites store changes while the
// controller is in favorites mode, passing each applied reload to onReload
// when it is non-nil. It blocks until ctx is done or the store is closed.
func (c *ListController) Follow(ctx context.Context, onReload func(Snapshot, error)) error {
	changes, unsubscribe := c.store.Subscribe()
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-changes:
			if !ok {
				return nil
			}
			c.mu.Lock()
			follow := c.mode == ModeFavorites && !c.closed
			c.mu.Unlock()
			if !follow {
				continue
			}
			snap, err := c.Load(ctx)
			if errors.Is(err, ErrSuperseded) {
				continue
			}
			if err != nil {
				c.logger.Warn("favorites reload failed", slog.String("error", err.Error()))
			}
			if onReload != nil {
				onReload(snap, err)
			}
		}
	}
}

// Close cancels any in-flight load and returns the controller to idle.
func (c *ListController) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidateLocked()
	c.closed = true
	c.last = c.snapshotLocked(StateIdle, RemoteRecords{}, nil)
}

// start plans a load, moves to Loading, and runs it. pick chooses the
// target page for navigation; nil reloads the current page.
func (c *ListController) start(ctx context.Context, pick func(*pagination.Cursor) (int, error)) (Snapshot, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Snapshot{}, ErrClosed
	}
	if pick != nil && c.mode == ModeFavorites {
		snap := c.last
		c.mu.Unlock()
		return snap, nil
	}

	cur := c.cursors.For(c.context())
	page := cur.Current()
	if pick != nil {
		p, err := pick(cur)
		if err != nil {
			c.mu.Unlock()
			return Snapshot{}, err
		}
		page = p
	}

	c.invalidateLocked()
	loadCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	plan := loadPlan{gen: c.gen, mode: c.mode, query: c.query, page: page}
	c.last.State = StateLoading
	c.last.Err = nil
	c.last.CanNext = false
	c.last.CanPrev = false
	c.mu.Unlock()

	defer cancel()
	return c.run(loadCtx, plan)
}

func (c *ListController) run(ctx context.Context, plan loadPlan) (Snapshot, error) {
	logger := c.logger.With(slog.String("mode", string(plan.mode)), slog.Int("page", plan.page))

	if plan.mode == ModeFavorites {
		rows, err := c.store.Query(ctx, nil)
		if err != nil {
			logger.Warn("favorites read failed", slog.String("error", err.Error()))
			return c.apply(plan, nil, StoreRecords{}, err)
		}
		return c.apply(plan, nil, StoreRecords{Rows: rows}, nil)
	}

	req := tmdb.ListRequest{Mode: tmdb.ModeBrowse, Page: plan.page}
	if plan.mode == ModeSearch {
		req.Mode = tmdb.ModeSearch
		req.Query = plan.query
	} else {
		req.Sort, _ = plan.mode.sortKey()
	}

	raw, err := c.fetcher.FetchList(ctx, req)
	if err != nil {
		logger.Warn("catalog fetch failed", slog.String("error", err.Error()))
		return c.apply(plan, nil, RemoteRecords{}, err)
	}
	page, err := tmdb.DecodeMovieList(raw)
	if err != nil {
		logger.Warn("catalog decode failed", slog.String("error", err.Error()))
		return c.apply(plan, nil, RemoteRecords{}, err)
	}
	return c.apply(plan, &page, RemoteRecords{Page: page}, nil)
}

// apply commits a finished load unless a newer one has started.
func (c *ListController) apply(plan loadPlan, page *tmdb.ListPage, records RecordSet, loadErr error) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if plan.gen != c.gen {
		metrics.RecordSuperseded()
		c.logger.Debug("discarding stale list result",
			slog.String("mode", string(plan.mode)), slog.Int("page", plan.page))
		return c.last, ErrSuperseded
	}
	c.cancel = nil

	if plan.mode != ModeFavorites {
		cur := c.cursors.For(contextFor(plan.mode))
		cur.SetCurrent(plan.page)
		if page != nil {
			cur.SetTotal(page.TotalPages)
		}
	}

	state := StateLoaded
	switch {
	case loadErr != nil:
		state = StateFailed
	case records.Len() == 0:
		state = StateEmpty
	}
	metrics.RecordListLoad(string(plan.mode), state.String())

	c.last = c.snapshotLocked(state, records, loadErr)
	if loadErr != nil {
		return c.last, loadErr
	}
	return c.last, nil
}

// invalidateLocked cancels the in-flight load, if any, and makes its result
// stale.
func (c *ListController) invalidateLocked() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.gen++
}

func (c *ListController) context() pagination.Context {
	return contextFor(c.mode)
}

func contextFor(m Mode) pagination.Context {
	if m == ModeSearch {
		return pagination.Search
	}
	return pagination.Browse
}

func (c *ListController) snapshotLocked(state State, records RecordSet, err error) Snapshot {
	snap := Snapshot{
		Mode:    c.mode,
		Query:   c.query,
		State:   state,
		Records: records,
		Err:     err,
	}
	if c.mode == ModeFavorites {
		snap.Page = 1
		snap.TotalPages = 1
		snap.TotalKnown = true
		return snap
	}
	cur := c.cursors.For(c.context())
	snap.Page = cur.Current()
	snap.TotalPages = cur.Total()
	snap.TotalKnown = cur.TotalKnown()
	snap.CanNext = cur.HasNext()
	snap.CanPrev = cur.HasPrev()
	return snap
}
