package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vadimtrunov/PopularMovies/internal/catalog"
	"github.com/vadimtrunov/PopularMovies/internal/favorites"
	"github.com/vadimtrunov/PopularMovies/internal/movie"
)

func newSearchCmd() *cobra.Command {
	var page int

	cmd := &cobra.Command{
		Use:   "search [title]",
		Short: "Search movies by title",
		Long:  "Search the catalog by title and print one page of results.",
		Example: `  popularmovies search "fight club"
  popularmovies search dune --page 2`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, catalog.ModeSearch, strings.Join(args, " "), page)
		},
	}
	cmd.Flags().IntVarP(&page, "page", "p", 1, "page to show")
	return cmd
}

// runList loads one page of a listing and prints it.
func runList(cmd *cobra.Command, mode catalog.Mode, query string, page int) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	svc, _, logger, err := setup(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	list := catalog.NewListController(svc.catalog, svc.store, logger)
	defer list.Close()

	out, err := runTask(ctx, os.Stderr, "Loading", func(ctx context.Context) (string, error) {
		snap, err := list.Open(ctx, mode, query, page)
		if err != nil {
			return "", err
		}
		return formatList(snap), nil
	})
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
	return nil
}

func newDetailCmd() *cobra.Command {
	var m movie.Movie

	cmd := &cobra.Command{
		Use:   "detail [movie id]",
		Short: "Show a movie with its trailers and reviews",
		Long: "Show a movie with its trailers and reviews.\n\n" +
			"Trailers and reviews are fetched from TMDb. The title, overview and other\n" +
			"base fields come from the favorites store when the movie is a favorite,\n" +
			"and from the flags otherwise.",
		Example: `  popularmovies detail 550
  popularmovies detail 603 --title "The Matrix" --release-date 1999-03-30`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseMovieID(args[0])
			if err != nil {
				return err
			}
			m.ID = id
			return runDetail(cmd, m)
		},
	}
	addMovieFlags(cmd, &m)
	return cmd
}

// runDetail shows fallback enriched with videos and reviews, or the stored
// favorite with the same ID when there is one.
func runDetail(cmd *cobra.Command, fallback movie.Movie) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	svc, _, logger, err := setup(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	details := catalog.NewDetailController(svc.catalog, svc.store, logger)

	out, err := runTask(ctx, os.Stderr, "Loading", func(ctx context.Context) (string, error) {
		base, stored, err := favorites.Get(ctx, svc.store, fallback.ID)
		if err != nil {
			return "", fmt.Errorf("read favorite %d: %w", fallback.ID, err)
		}
		if !stored {
			base = fallback
		}
		return formatDetail(details.Load(ctx, base), stored, 80), nil
	})
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
	return nil
}

func parseMovieID(raw string) (int, error) {
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("movie id must be a positive integer, got %q", raw)
	}
	return id, nil
}
