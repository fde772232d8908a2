package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vadimtrunov/PopularMovies/internal/httpclient"
	"github.com/vadimtrunov/PopularMovies/internal/metadata/tmdb"
)

func TestListController_RefreshDuringLoadAgainstClient(t *testing.T) {
	arrived := make(chan struct{}, 1)
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		select {
		case arrived <- struct{}{}:
		default:
		}
		<-release
		w.Write(listBody(1, 4, 11, 12))
	}))
	t.Cleanup(server.Close)

	client := tmdb.New(tmdb.Options{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Timeout: 5 * time.Second,
		HTTP:    httpclient.Config{MaxAttempts: 1, Timeout: 5 * time.Second},
	}, discardLogger)
	c := NewListController(client, newMemStore(), discardLogger)
	ctx := context.Background()

	loadErr := make(chan error, 1)
	go func() {
		_, err := c.Load(ctx)
		loadErr <- err
	}()
	<-arrived

	type result struct {
		snap Snapshot
		err  error
	}
	refreshed := make(chan result, 1)
	go func() {
		snap, err := c.Refresh(ctx)
		refreshed <- result{snap, err}
	}()

	if err := <-loadErr; !errors.Is(err, ErrSuperseded) {
		t.Fatalf("first load err = %v, want ErrSuperseded", err)
	}
	close(release)

	select {
	case got := <-refreshed:
		if got.err != nil {
			t.Fatalf("Refresh: %v", got.err)
		}
		if got.snap.State != StateLoaded || got.snap.TotalPages != 4 {
			t.Errorf("Refresh snapshot = %v (total %d), want loaded with 4 pages", got.snap.State, got.snap.TotalPages)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Refresh did not finish")
	}
}
