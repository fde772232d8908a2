package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/vadimtrunov/PopularMovies/internal/catalog"
	"github.com/vadimtrunov/PopularMovies/internal/config"
	"github.com/vadimtrunov/PopularMovies/internal/favorites"
	"github.com/vadimtrunov/PopularMovies/internal/metadata/tmdb"
	"github.com/vadimtrunov/PopularMovies/internal/movie"
)

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	mode, err := catalog.ParseMode(r.URL.Query().Get("mode"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_mode", err.Error())
		return
	}
	if mode == catalog.ModeSearch {
		writeError(w, http.StatusBadRequest, "invalid_mode", "use /api/search for search")
		return
	}
	s.serveList(w, r, mode, "")
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	s.serveList(w, r, catalog.ModeSearch, r.URL.Query().Get("q"))
}

func (s *Server) serveList(w http.ResponseWriter, r *http.Request, mode catalog.Mode, query string) {
	page, err := pageParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_page", err.Error())
		return
	}

	logger := config.LoggerFromContext(r.Context())
	c := catalog.NewListController(s.fetcher, s.store, logger)
	defer c.Close()

	snap, err := c.Open(r.Context(), mode, query, page)
	if err != nil {
		writeCatalogError(w, logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newListResponse(snap))
}

func (s *Server) handleDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	fallback, err := movieFromQuery(r, id)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_query", err.Error())
		return
	}
	base, stored, err := favorites.Get(r.Context(), s.store, id)
	if err != nil {
		writeCatalogError(w, config.LoggerFromContext(r.Context()), err)
		return
	}
	if !stored {
		base = fallback
	}

	m := s.details.Load(r.Context(), base)
	resp := detailResponse{movieResponse: newMovieResponse(m), Favorite: stored}
	for _, v := range m.Videos {
		resp.Videos = append(resp.Videos, newVideoResponse(v))
	}
	resp.Reviews = m.Reviews
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleFavorites(w http.ResponseWriter, r *http.Request) {
	rows, err := s.store.Query(r.Context(), nil)
	if err != nil {
		writeCatalogError(w, config.LoggerFromContext(r.Context()), err)
		return
	}
	resp := make([]movieResponse, 0, len(rows))
	for _, m := range rows {
		resp = append(resp, newMovieResponse(m))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleFavorite(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	m, found, err := favorites.Get(r.Context(), s.store, id)
	if err != nil {
		writeCatalogError(w, config.LoggerFromContext(r.Context()), err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "not_found", fmt.Sprintf("movie %d is not a favorite", id))
		return
	}
	writeJSON(w, http.StatusOK, newMovieResponse(m))
}

func (s *Server) handleAddFavorite(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	var m movie.Movie
	if r.ContentLength != 0 {
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&m); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_body", "body must be a movie JSON object")
			return
		}
	}
	if m.ID != 0 && m.ID != id {
		writeError(w, http.StatusBadRequest, "invalid_body", "body id does not match path id")
		return
	}
	m.ID = id

	switch s.details.Add(r.Context(), m) {
	case catalog.OutcomeAdded:
		stored, _, _ := favorites.Get(r.Context(), s.store, id)
		writeJSON(w, http.StatusCreated, newMovieResponse(stored))
	default:
		if exists, err := s.store.Exists(r.Context(), id); err == nil && exists {
			writeError(w, http.StatusConflict, "already_favorite", fmt.Sprintf("movie %d is already a favorite", id))
			return
		}
		writeError(w, http.StatusInternalServerError, "store_error", "could not add favorite")
	}
}

func (s *Server) handleRemoveFavorite(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	switch s.details.Remove(r.Context(), movie.Movie{ID: id}) {
	case catalog.OutcomeRemoved:
		w.WriteHeader(http.StatusNoContent)
	default:
		if exists, err := s.store.Exists(r.Context(), id); err == nil && !exists {
			writeError(w, http.StatusNotFound, "not_found", fmt.Sprintf("movie %d is not a favorite", id))
			return
		}
		writeError(w, http.StatusInternalServerError, "store_error", "could not remove favorite")
	}
}

// movieFromQuery reads the base fields a client already has for a movie that
// is not a favorite, since only videos and reviews are fetched by ID.
func movieFromQuery(r *http.Request, id int) (movie.Movie, error) {
	q := r.URL.Query()
	m := movie.Movie{
		ID:            id,
		Title:         q.Get("title"),
		OriginalTitle: q.Get("original_title"),
		Overview:      q.Get("overview"),
		PosterPath:    q.Get("poster_path"),
		BackdropPath:  q.Get("backdrop_path"),
		ReleaseDate:   q.Get("release_date"),
	}
	if raw := q.Get("vote_average"); raw != "" {
		rating, err := strconv.ParseFloat(raw, 64)
		if err != nil || rating < 0 || rating > 10 {
			return movie.Movie{}, fmt.Errorf("vote_average must be a number in [0, 10], got %q", raw)
		}
		m.Rating = rating
	}
	return m, nil
}

func pageParam(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("page")
	if raw == "" {
		return 1, nil
	}
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 0, fmt.Errorf("page must be a positive integer, got %q", raw)
	}
	return page, nil
}

func idParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_id", fmt.Sprintf("movie id must be a positive integer, got %q", raw))
		return 0, false
	}
	return id, true
}

// writeCatalogError maps catalog and store errors to HTTP statuses.
func writeCatalogError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, tmdb.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, catalog.ErrPageOutOfRange):
		writeError(w, http.StatusBadRequest, "page_out_of_range", err.Error())
	case errors.Is(err, tmdb.ErrUnavailable), errors.Is(err, tmdb.ErrDecode):
		logger.Warn("catalog unavailable", slog.String("error", err.Error()))
		writeError(w, http.StatusBadGateway, "catalog_unavailable", "the movie catalog is unavailable")
	default:
		logger.Error("request failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	writeJSON(w, status, errorResponse{Error: code, Detail: detail})
}
