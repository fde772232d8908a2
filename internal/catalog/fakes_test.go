package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/vadimtrunov/PopularMovies/internal/favorites"
	"github.com/vadimtrunov/PopularMovies/internal/metadata/tmdb"
	"github.com/vadimtrunov/PopularMovies/internal/movie"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// fakeFetcher answers from funcs and records list requests.
type fakeFetcher struct {
	mu       sync.Mutex
	requests []tmdb.ListRequest

	list    func(ctx context.Context, req tmdb.ListRequest) ([]byte, error)
	videos  func(ctx context.Context, id int) ([]byte, error)
	reviews func(ctx context.Context, id int) ([]byte, error)
}

func (f *fakeFetcher) FetchList(ctx context.Context, req tmdb.ListRequest) ([]byte, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if f.list == nil {
		return nil, tmdb.ErrUnavailable
	}
	return f.list(ctx, req)
}

func (f *fakeFetcher) FetchVideos(ctx context.Context, id int) ([]byte, error) {
	if f.videos == nil {
		return []byte(`{"id":1,"results":[]}`), nil
	}
	return f.videos(ctx, id)
}

func (f *fakeFetcher) FetchReviews(ctx context.Context, id int) ([]byte, error) {
	if f.reviews == nil {
		return []byte(`{"id":1,"results":[]}`), nil
	}
	return f.reviews(ctx, id)
}

func (f *fakeFetcher) listRequests() []tmdb.ListRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]tmdb.ListRequest(nil), f.requests...)
}

// listBody renders a list payload for the given page with one movie per ID.
func listBody(page, totalPages int, ids ...int) []byte {
	type entry struct {
		ID    int    `json:"id"`
		Title string `json:"title"`
	}
	results := make([]entry, 0, len(ids))
	for _, id := range ids {
		results = append(results, entry{ID: id, Title: fmt.Sprintf("Movie %d", id)})
	}
	body, _ := json.Marshal(map[string]any{
		"page":          page,
		"total_pages":   totalPages,
		"total_results": totalPages * 20,
		"results":       results,
	})
	return body
}

// memStore is an in-memory favorites.Store.
type memStore struct {
	mu   sync.Mutex
	rows map[int]movie.Movie
	subs []chan struct{}
}

var _ favorites.Store = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{rows: make(map[int]movie.Movie)}
}

func (s *memStore) Insert(_ context.Context, m movie.Movie) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[m.ID]; ok {
		return favorites.ErrDuplicate
	}
	s.rows[m.ID] = m.WithoutDetail()
	s.notifyLocked()
	return nil
}

func (s *memStore) Delete(_ context.Context, id int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[id]; !ok {
		return 0, nil
	}
	delete(s.rows, id)
	s.notifyLocked()
	return 1, nil
}

func (s *memStore) Query(_ context.Context, id *int) ([]movie.Movie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []movie.Movie
	for _, m := range s.rows {
		if id == nil || m.ID == *id {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) Exists(_ context.Context, id int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.rows[id]
	return ok, nil
}

func (s *memStore) Subscribe() (<-chan struct{}, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan struct{}, 1)
	s.subs = append(s.subs, ch)
	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, c := range s.subs {
			if c == ch {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				close(ch)
				return
			}
		}
	}
}

func (s *memStore) Close() error { return nil }

func (s *memStore) notifyLocked() {
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
