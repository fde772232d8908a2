package tmdb

import (
	"encoding/json"
	"fmt"

	"github.com/vadimtrunov/PopularMovies/internal/metrics"
	"github.com/vadimtrunov/PopularMovies/internal/movie"
)

// DecodeMovieList parses a list or search payload. A malformed payload or
// one without a results array fails with ErrDecode; a valid payload with no
// results returns an empty page and a nil error.
func DecodeMovieList(raw []byte) (ListPage, error) {
	var resp listResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		metrics.RecordDecode("list", metrics.OutcomeError)
		return ListPage{}, fmt.Errorf("%w: movie list: %v", ErrDecode, err)
	}
	if resp.Results == nil {
		metrics.RecordDecode("list", metrics.OutcomeError)
		return ListPage{}, fmt.Errorf("%w: movie list: missing results", ErrDecode)
	}

	page := ListPage{
		Page:         resp.Page,
		TotalPages:   resp.TotalPages,
		TotalResults: resp.TotalResults,
	}
	if len(*resp.Results) > 0 {
		page.Movies = make([]movie.Movie, 0, len(*resp.Results))
		for _, w := range *resp.Results {
			page.Movies = append(page.Movies, w.toMovie())
		}
	}

	if page.Empty() {
		metrics.RecordDecode("list", metrics.OutcomeEmpty)
	} else {
		metrics.RecordDecode("list", metrics.OutcomeOK)
	}
	return page, nil
}

// DecodeVideos parses a videos payload and keeps YouTube entries only. It
// returns nil when nothing survives the filter.
func DecodeVideos(raw []byte) ([]movie.Video, error) {
	var resp videoResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		metrics.RecordDecode("videos", metrics.OutcomeError)
		return nil, fmt.Errorf("%w: videos: %v", ErrDecode, err)
	}
	videos := movie.FilterYouTube(resp.Results)
	if videos == nil {
		metrics.RecordDecode("videos", metrics.OutcomeEmpty)
	} else {
		metrics.RecordDecode("videos", metrics.OutcomeOK)
	}
	return videos, nil
}

// DecodeReviews parses the first page of a reviews payload.
func DecodeReviews(raw []byte) ([]movie.Review, error) {
	var resp reviewResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		metrics.RecordDecode("reviews", metrics.OutcomeError)
		return nil, fmt.Errorf("%w: reviews: %v", ErrDecode, err)
	}
	if len(resp.Results) == 0 {
		metrics.RecordDecode("reviews", metrics.OutcomeEmpty)
		return nil, nil
	}
	metrics.RecordDecode("reviews", metrics.OutcomeOK)
	return resp.Results, nil
}
