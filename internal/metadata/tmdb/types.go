package tmdb

import (
	"fmt"
	"strings"

	"github.com/vadimtrunov/PopularMovies/internal/movie"
)

// Mode selects between browsing by sort key and free-text search.
type Mode int

const (
	// ModeBrowse lists movies by a fixed sort key.
	ModeBrowse Mode = iota
	// ModeSearch lists movies matching a query.
	ModeSearch
)

// SortKey is the fixed enumeration of browse orderings.
type SortKey string

const (
	SortPopular  SortKey = "popular"
	SortTopRated SortKey = "top_rated"
)

// Valid reports whether k is one of the supported sort keys.
func (k SortKey) Valid() bool {
	return k == SortPopular || k == SortTopRated
}

// ParseSortKey accepts the API names and a few friendly aliases.
func ParseSortKey(s string) (SortKey, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "popular", "most-popular", "most_popular":
		return SortPopular, nil
	case "top_rated", "top-rated", "toprated":
		return SortTopRated, nil
	}
	return "", fmt.Errorf("%w: unknown sort key %q", ErrInvalidRequest, s)
}

// ListRequest describes one page of a browse or search listing.
type ListRequest struct {
	Mode  Mode
	Sort  SortKey
	Query string
	Page  int
}

// Validate checks that the request can be turned into a URL.
func (r ListRequest) Validate() error {
	if r.Page < 1 {
		return fmt.Errorf("%w: page must be >= 1, got %d", ErrInvalidRequest, r.Page)
	}
	switch r.Mode {
	case ModeBrowse:
		if !r.Sort.Valid() {
			return fmt.Errorf("%w: unknown sort key %q", ErrInvalidRequest, r.Sort)
		}
	case ModeSearch:
		if strings.TrimSpace(r.Query) == "" {
			return fmt.Errorf("%w: search query is empty", ErrInvalidRequest)
		}
	default:
		return fmt.Errorf("%w: unknown mode %d", ErrInvalidRequest, r.Mode)
	}
	return nil
}

// endpoint returns the metrics/log label for the request.
func (r ListRequest) endpoint() string {
	if r.Mode == ModeSearch {
		return "search"
	}
	return string(r.Sort)
}

// ListPage is a decoded list or search response.
type ListPage struct {
	Page         int
	TotalPages   int
	TotalResults int
	Movies       []movie.Movie
}

// Empty reports whether the page holds no movies.
func (p ListPage) Empty() bool {
	return len(p.Movies) == 0
}

// listResponse is the TMDb paginated list/search payload.
type listResponse struct {
	Page         int          `json:"page"`
	Results      *[]wireMovie `json:"results"`
	TotalPages   int          `json:"total_pages"`
	TotalResults int          `json:"total_results"`
}

// wireMovie mirrors one entry of a list payload. Image paths may be null.
type wireMovie struct {
	ID            int     `json:"id"`
	OriginalTitle string  `json:"original_title"`
	Title         string  `json:"title"`
	PosterPath    *string `json:"poster_path"`
	BackdropPath  *string `json:"backdrop_path"`
	Overview      string  `json:"overview"`
	VoteAverage   float64 `json:"vote_average"`
	ReleaseDate   string  `json:"release_date"`
}

func (w wireMovie) toMovie() movie.Movie {
	return movie.New(w.ID, w.OriginalTitle, w.Title, deref(w.PosterPath), deref(w.BackdropPath),
		w.Overview, w.VoteAverage, w.ReleaseDate)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// videoResponse is the /movie/{id}/videos payload.
type videoResponse struct {
	ID      int           `json:"id"`
	Results []movie.Video `json:"results"`
}

// reviewResponse is the /movie/{id}/reviews payload.
type reviewResponse struct {
	ID           int            `json:"id"`
	Page         int            `json:"page"`
	TotalPages   int            `json:"total_pages"`
	TotalResults int            `json:"total_results"`
	Results      []movie.Review `json:"results"`
}
