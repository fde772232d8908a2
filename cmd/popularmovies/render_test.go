package main

import (
	"strings"
	"testing"

	"github.com/vadimtrunov/PopularMovies/internal/catalog"
	"github.com/vadimtrunov/PopularMovies/internal/metadata/tmdb"
	"github.com/vadimtrunov/PopularMovies/internal/movie"
)

func TestRatingBar(t *testing.T) {
	tests := []struct {
		name   string
		rating float64
		filled int
		label  string
	}{
		{"unrated", 0, 0, "unrated"},
		{"high", 8.4, 8, "8.4/10"},
		{"perfect", 10, 10, "10.0/10"},
		{"clamped", 12, 10, "12.0/10"},
		{"negative", -1, 0, "unrated"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ratingBar(tt.rating, 10)
			if n := strings.Count(got, "█"); n != tt.filled {
				t.Errorf("ratingBar(%v) filled = %d, want %d (%q)", tt.rating, n, tt.filled, got)
			}
			if n := strings.Count(got, "░"); n != 10-tt.filled {
				t.Errorf("ratingBar(%v) empty = %d, want %d", tt.rating, n, 10-tt.filled)
			}
			if !strings.Contains(got, tt.label) {
				t.Errorf("ratingBar(%v) = %q, want label %q", tt.rating, got, tt.label)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"short", "hello", 10, "hello"},
		{"exact", "hello", 5, "hello"},
		{"cut", "hello world", 5, "hell…"},
		{"trims", "  hi  ", 5, "hi"},
		{"runes", "héllo wörld", 6, "héllo…"},
		{"tiny", "hello", 1, "…"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := truncate(tt.in, tt.n); got != tt.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
			}
		})
	}
}

func TestListHeading(t *testing.T) {
	tests := []struct {
		name string
		snap catalog.Snapshot
		want string
	}{
		{"popular_known", catalog.Snapshot{Mode: catalog.ModePopular, Page: 2, TotalPages: 9, TotalKnown: true}, "Most popular  page 2/9"},
		{"top_rated_unknown", catalog.Snapshot{Mode: catalog.ModeTopRated, Page: 1}, "Top rated  page 1"},
		{"search", catalog.Snapshot{Mode: catalog.ModeSearch, Query: "dune", Page: 1, TotalPages: 3, TotalKnown: true}, `Search: "dune"  page 1/3`},
		{"search_no_results", catalog.Snapshot{Mode: catalog.ModeSearch, Query: "zzz", Page: 1, TotalKnown: true}, `Search: "zzz"  page 1`},
		{"favorites", catalog.Snapshot{Mode: catalog.ModeFavorites, Page: 1, TotalPages: 1, TotalKnown: true}, "Favorites"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := listHeading(tt.snap); got != tt.want {
				t.Errorf("listHeading() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatList(t *testing.T) {
	snap := catalog.Snapshot{
		Mode:       catalog.ModePopular,
		State:      catalog.StateLoaded,
		Page:       1,
		TotalPages: 5,
		TotalKnown: true,
		Records: catalog.RemoteRecords{Page: tmdb.ListPage{Movies: []movie.Movie{
			{ID: 550, Title: "Fight Club", ReleaseDate: "1999-10-15", Rating: 8.4},
			{ID: 7, ReleaseDate: "2"},
		}}},
	}

	got := formatList(snap)
	for _, want := range []string{"Most popular  page 1/5", "1.", "Fight Club", "(1999)", "#550", "Untitled", "#7"} {
		if !strings.Contains(got, want) {
			t.Errorf("formatList() missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "(2)") {
		t.Errorf("short release date should not render a year:\n%s", got)
	}
}

func TestFormatList_Empty(t *testing.T) {
	got := formatList(catalog.Snapshot{Mode: catalog.ModeSearch, Query: "zzz", State: catalog.StateEmpty, Page: 1})
	if !strings.Contains(got, "No movies match this search.") {
		t.Errorf("formatList() = %q, want the empty search text", got)
	}
	got = formatList(catalog.Snapshot{Mode: catalog.ModeFavorites, State: catalog.StateEmpty, Page: 1})
	if !strings.Contains(got, "No favorites yet.") {
		t.Errorf("formatList() = %q, want the empty favorites text", got)
	}
}

func TestFormatDetail(t *testing.T) {
	m := movie.Movie{
		ID:            550,
		Title:         "Fight Club",
		OriginalTitle: "Fight Club",
		Overview:      "An insomniac office worker crosses paths with a soap maker.",
		PosterPath:    "/p.jpg",
		Rating:        8.4,
		ReleaseDate:   "1999-10-15",
		Videos:        []movie.Video{{Key: "SUXWAEX2jlg", Name: "Trailer", Site: "YouTube"}},
		Reviews:       []movie.Review{{Author: "Goddard", Content: "Pretty awesome movie.", URL: "https://example.org/r1"}},
	}

	got := formatDetail(m, true, 60)
	for _, want := range []string{
		"Fight Club",
		"8.4/10",
		"1999-10-15",
		"favorite",
		"insomniac",
		"https://image.tmdb.org/t/p/w342/p.jpg",
		"https://www.youtube.com/watch?v=SUXWAEX2jlg",
		"Goddard",
		"https://example.org/r1",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("formatDetail() missing %q:\n%s", want, got)
		}
	}
}

func TestFormatDetail_NoExtras(t *testing.T) {
	got := formatDetail(movie.Movie{ID: 1, OriginalTitle: "Amélie"}, false, 0)
	if !strings.Contains(got, "Amélie") {
		t.Errorf("title fallback missing:\n%s", got)
	}
	if n := strings.Count(got, "none"); n != 2 {
		t.Errorf("expected trailers and reviews to read none, got %d:\n%s", n, got)
	}
	if strings.Contains(got, "favorite") || strings.Contains(got, "Poster") {
		t.Errorf("unexpected favorite or poster line:\n%s", got)
	}
}
