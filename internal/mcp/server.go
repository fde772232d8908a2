// Package mcp exposes the catalog and favorites as MCP tools.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/vadimtrunov/PopularMovies/internal/catalog"
	"github.com/vadimtrunov/PopularMovies/internal/favorites"
	"github.com/vadimtrunov/PopularMovies/internal/movie"
)

// Deps holds backend dependencies for MCP tool handlers.
type Deps struct {
	Catalog catalog.Fetcher
	Store   favorites.Store
}

// Server wraps an MCP SDK server with the movie tool handlers.
type Server struct {
	server  *mcpsdk.Server
	deps    Deps
	details *catalog.DetailController
	logger  *slog.Logger
}

// NewServer creates an MCP server with all tools registered.
func NewServer(deps Deps, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    "popularmovies",
			Version: version,
		},
		&mcpsdk.ServerOptions{Logger: logger},
	)

	srv := &Server{server: s, deps: deps, logger: logger}
	if deps.Catalog != nil && deps.Store != nil {
		srv.details = catalog.NewDetailController(deps.Catalog, deps.Store, logger)
	}
	srv.registerTools()
	return srv
}

// ServeStdio runs the MCP server over stdin/stdout.
func (s *Server) ServeStdio(ctx context.Context) error {
	return s.server.Run(ctx, &mcpsdk.StdioTransport{})
}

// MCPServer returns the underlying MCP SDK server (for testing).
func (s *Server) MCPServer() *mcpsdk.Server {
	return s.server
}

func (s *Server) registerTools() {
	s.server.AddTool(browseMoviesTool(), s.handleBrowseMovies)
	s.server.AddTool(searchMoviesTool(), s.handleSearchMovies)
	s.server.AddTool(getMovieDetailTool(), s.handleGetMovieDetail)
	s.server.AddTool(listFavoritesTool(), s.handleListFavorites)
	s.server.AddTool(addFavoriteTool(), s.handleAddFavorite)
	s.server.AddTool(removeFavoriteTool(), s.handleRemoveFavorite)
}

func browseMoviesTool() *mcpsdk.Tool {
	return &mcpsdk.Tool{
		Name:        "browse_movies",
		Description: "List one page of movies ordered by popularity or rating, or the stored favorites. Returns the page number, total pages and the movies on the page.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"mode": map[string]any{
					"type":        "string",
					"enum":        []any{"popular", "top_rated", "favorites"},
					"description": "Listing to browse, defaults to popular",
				},
				"page": pageProperty(),
			},
		},
	}
}

func searchMoviesTool() *mcpsdk.Tool {
	return &mcpsdk.Tool{
		Name:        "search_movies",
		Description: "Search the movie catalog by title. Returns one page of matching movies with their TMDb IDs.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "The movie title to search for",
				},
				"page": pageProperty(),
			},
			"required": []any{"query"},
		},
	}
}

func getMovieDetailTool() *mcpsdk.Tool {
	return &mcpsdk.Tool{
		Name:        "get_movie_detail",
		Description: "Get a movie with its YouTube trailers and first page of reviews, and whether it is a favorite.",
		InputSchema: idSchema("The TMDb ID of the movie"),
	}
}

func listFavoritesTool() *mcpsdk.Tool {
	return &mcpsdk.Tool{
		Name:        "list_favorites",
		Description: "List all favorite movies ordered by TMDb ID.",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
	}
}

func addFavoriteTool() *mcpsdk.Tool {
	return &mcpsdk.Tool{
		Name:        "add_favorite",
		Description: "Store a movie as a favorite. Fails if it is already a favorite.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"id":             map[string]any{"type": "integer", "description": "The TMDb ID of the movie"},
				"title":          map[string]any{"type": "string"},
				"original_title": map[string]any{"type": "string"},
				"overview":       map[string]any{"type": "string"},
				"poster_path":    map[string]any{"type": "string"},
				"backdrop_path":  map[string]any{"type": "string"},
				"vote_average":   map[string]any{"type": "number"},
				"release_date":   map[string]any{"type": "string"},
			},
			"required": []any{"id"},
		},
	}
}

func removeFavoriteTool() *mcpsdk.Tool {
	return &mcpsdk.Tool{
		Name:        "remove_favorite",
		Description: "Remove a movie from the favorites. Fails if it is not a favorite.",
		InputSchema: idSchema("The TMDb ID of the movie"),
	}
}

func pageProperty() map[string]any {
	return map[string]any{
		"type":        "integer",
		"minimum":     1,
		"description": "1-based page number, defaults to 1",
	}
}

func idSchema(desc string) map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"id": map[string]any{
				"type":        "integer",
				"description": desc,
			},
		},
		"required": []any{"id"},
	}
}

// listResult is the JSON shape of a browse or search page.
type listResult struct {
	Mode       string        `json:"mode"`
	Query      string        `json:"query,omitempty"`
	State      string        `json:"state"`
	Page       int           `json:"page"`
	TotalPages int           `json:"total_pages"`
	Movies     []movie.Movie `json:"movies"`
}

type detailResult struct {
	movie.Movie
	Favorite bool `json:"favorite"`
}

func (s *Server) handleBrowseMovies(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	var args struct {
		Mode string `json:"mode"`
		Page int    `json:"page"`
	}
	if err := unmarshalArgs(req.Params.Arguments, &args); err != nil {
		return toolError(err.Error()), nil
	}
	mode, err := catalog.ParseMode(args.Mode)
	if err != nil {
		return toolError(err.Error()), nil
	}
	if mode == catalog.ModeSearch {
		return toolError("use search_movies to search"), nil
	}
	return s.list(ctx, mode, "", args.Page)
}

func (s *Server) handleSearchMovies(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	var args struct {
		Query string `json:"query"`
		Page  int    `json:"page"`
	}
	if err := unmarshalArgs(req.Params.Arguments, &args); err != nil {
		return toolError(err.Error()), nil
	}
	if args.Query == "" {
		return toolError("search_movies requires a 'query' string argument"), nil
	}
	return s.list(ctx, catalog.ModeSearch, args.Query, args.Page)
}

func (s *Server) list(ctx context.Context, mode catalog.Mode, query string, page int) (*mcpsdk.CallToolResult, error) {
	if s.deps.Catalog == nil || s.deps.Store == nil {
		return toolError("movie catalog not configured"), nil
	}
	if page == 0 {
		page = 1
	}

	c := catalog.NewListController(s.deps.Catalog, s.deps.Store, s.logger)
	defer c.Close()

	snap, err := c.Open(ctx, mode, query, page)
	if err != nil {
		return toolError(fmt.Sprintf("load %s page %d: %v", mode, page, err)), nil
	}
	movies := catalog.Movies(snap.Records)
	if movies == nil {
		movies = []movie.Movie{}
	}
	return toolJSON(listResult{
		Mode:       string(snap.Mode),
		Query:      snap.Query,
		State:      snap.State.String(),
		Page:       snap.Page,
		TotalPages: snap.TotalPages,
		Movies:     movies,
	})
}

func (s *Server) handleGetMovieDetail(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	if s.details == nil {
		return toolError("movie catalog not configured"), nil
	}

	id, err := extractIntFromArgs(req.Params.Arguments, "id")
	if err != nil {
		return toolError(err.Error()), nil
	}

	base, stored, err := favorites.Get(ctx, s.deps.Store, id)
	if err != nil {
		return toolError(fmt.Sprintf("read favorite %d: %v", id, err)), nil
	}
	if !stored {
		base = movie.Movie{ID: id}
	}
	return toolJSON(detailResult{Movie: s.details.Load(ctx, base), Favorite: stored})
}

func (s *Server) handleListFavorites(ctx context.Context, _ *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	if s.deps.Store == nil {
		return toolError("favorites store not configured"), nil
	}

	rows, err := s.deps.Store.Query(ctx, nil)
	if err != nil {
		return toolError(fmt.Sprintf("list favorites failed: %v", err)), nil
	}
	if rows == nil {
		rows = []movie.Movie{}
	}
	return toolJSON(rows)
}

func (s *Server) handleAddFavorite(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	if s.deps.Store == nil {
		return toolError("favorites store not configured"), nil
	}

	var m movie.Movie
	if err := unmarshalArgs(req.Params.Arguments, &m); err != nil {
		return toolError(err.Error()), nil
	}
	if m.ID <= 0 {
		return toolError("id must be a positive integer"), nil
	}

	if err := s.deps.Store.Insert(ctx, m); err != nil {
		if errors.Is(err, favorites.ErrDuplicate) {
			return toolError(fmt.Sprintf("movie %d is already a favorite", m.ID)), nil
		}
		return toolError(fmt.Sprintf("add favorite failed: %v", err)), nil
	}
	m.Normalize()
	return toolJSON(map[string]any{
		"status": "added",
		"id":     m.ID,
		"title":  m.DisplayTitle(),
	})
}

func (s *Server) handleRemoveFavorite(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	if s.deps.Store == nil {
		return toolError("favorites store not configured"), nil
	}

	id, err := extractIntFromArgs(req.Params.Arguments, "id")
	if err != nil {
		return toolError(err.Error()), nil
	}

	n, err := s.deps.Store.Delete(ctx, id)
	if err != nil {
		return toolError(fmt.Sprintf("remove favorite failed: %v", err)), nil
	}
	if n == 0 {
		return toolError(fmt.Sprintf("movie %d is not a favorite", id)), nil
	}
	return toolJSON(map[string]any{
		"status": "removed",
		"id":     id,
	})
}

// toolJSON marshals v to JSON and returns it as text content.
func toolJSON(v any) (*mcpsdk.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return toolError(fmt.Sprintf("marshal result: %v", err)), nil
	}
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: string(data)}},
	}, nil
}

// toolError returns a tool result indicating an error.
func toolError(msg string) *mcpsdk.CallToolResult {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: msg}},
		IsError: true,
	}
}

// unmarshalArgs decodes raw arguments into v. Absent arguments leave v zero.
func unmarshalArgs(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// extractIntFromArgs extracts a positive integer argument from raw JSON
// arguments. Numeric strings are accepted.
func extractIntFromArgs(raw json.RawMessage, key string) (int, error) {
	var args map[string]any
	if err := unmarshalArgs(raw, &args); err != nil {
		return 0, err
	}

	val, ok := args[key]
	if !ok {
		return 0, fmt.Errorf("%s is required", key)
	}

	var n int
	switch v := val.(type) {
	case float64:
		n = int(v)
	case string:
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("%s must be a number: %w", key, err)
		}
		n = parsed
	default:
		return 0, fmt.Errorf("%s must be a number, got %T", key, val)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %d", key, n)
	}
	return n, nil
}
