package api

import (
	"github.com/vadimtrunov/PopularMovies/internal/catalog"
	"github.com/vadimtrunov/PopularMovies/internal/movie"
)

type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

type movieResponse struct {
	ID            int     `json:"id"`
	Title         string  `json:"title"`
	OriginalTitle string  `json:"original_title"`
	Overview      string  `json:"overview"`
	Rating        float64 `json:"vote_average"`
	ReleaseDate   string  `json:"release_date"`
	ReleaseYear   string  `json:"release_year,omitempty"`
	PosterPath    string  `json:"poster_path"`
	BackdropPath  string  `json:"backdrop_path"`
	PosterURL     string  `json:"poster_url,omitempty"`
	BackdropURL   string  `json:"backdrop_url,omitempty"`
}

func newMovieResponse(m movie.Movie) movieResponse {
	return movieResponse{
		ID:            m.ID,
		Title:         m.DisplayTitle(),
		OriginalTitle: m.DisplayOriginalTitle(),
		Overview:      m.Overview,
		Rating:        m.Rating,
		ReleaseDate:   m.ReleaseDate,
		ReleaseYear:   m.ReleaseYear(),
		PosterPath:    m.PosterPath,
		BackdropPath:  m.BackdropPath,
		PosterURL:     m.PosterURL(),
		BackdropURL:   m.BackdropURL(),
	}
}

type videoResponse struct {
	Key          string `json:"key"`
	Name         string `json:"name"`
	Type         string `json:"type"`
	WatchURL     string `json:"watch_url"`
	AppURL       string `json:"app_url"`
	ThumbnailURL string `json:"thumbnail_url"`
}

func newVideoResponse(v movie.Video) videoResponse {
	return videoResponse{
		Key:          v.Key,
		Name:         v.Name,
		Type:         v.Type,
		WatchURL:     v.WatchURL(),
		AppURL:       v.AppURL(),
		ThumbnailURL: v.ThumbnailURL(),
	}
}

type detailResponse struct {
	movieResponse
	Favorite bool            `json:"favorite"`
	Videos   []videoResponse `json:"videos"`
	Reviews  []movie.Review  `json:"reviews"`
}

type listResponse struct {
	Mode       string          `json:"mode"`
	Query      string          `json:"query,omitempty"`
	State      string          `json:"state"`
	Source     string          `json:"source"`
	Page       int             `json:"page"`
	TotalPages int             `json:"total_pages"`
	CanNext    bool            `json:"can_next"`
	CanPrev    bool            `json:"can_prev"`
	Movies     []movieResponse `json:"movies"`
}

func newListResponse(snap catalog.Snapshot) listResponse {
	resp := listResponse{
		Mode:       string(snap.Mode),
		Query:      snap.Query,
		State:      snap.State.String(),
		Page:       snap.Page,
		TotalPages: snap.TotalPages,
		CanNext:    snap.CanNext,
		CanPrev:    snap.CanPrev,
		Movies:     []movieResponse{},
	}
	if snap.Records != nil {
		resp.Source = snap.Records.Source().String()
		for _, m := range catalog.Movies(snap.Records) {
			resp.Movies = append(resp.Movies, newMovieResponse(m))
		}
	}
	return resp
}
