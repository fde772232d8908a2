package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vadimtrunov/PopularMovies/internal/catalog"
	"github.com/vadimtrunov/PopularMovies/internal/movie"
)

// newFavoritesCmd returns the "favorites" command group. Without a
// subcommand it lists the favorites.
func newFavoritesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "favorites",
		Aliases: []string{"fav"},
		Short:   "List and edit favorite movies",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd, catalog.ModeFavorites, "", 1)
		},
	}

	cmd.AddCommand(
		newFavoritesAddCmd(),
		newFavoritesRemoveCmd(),
	)
	return cmd
}

func newFavoritesAddCmd() *cobra.Command {
	var m movie.Movie

	cmd := &cobra.Command{
		Use:     "add [movie id]",
		Short:   "Add a movie to the favorites",
		Example: `  popularmovies favorites add 550 --title "Fight Club" --release-date 1999-10-15`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseMovieID(args[0])
			if err != nil {
				return err
			}
			m.ID = id
			return runFavoriteChange(cmd, m, true)
		},
	}
	addMovieFlags(cmd, &m)
	return cmd
}

// addMovieFlags binds the base movie fields to flags on cmd.
func addMovieFlags(cmd *cobra.Command, m *movie.Movie) {
	cmd.Flags().StringVar(&m.Title, "title", "", "movie title")
	cmd.Flags().StringVar(&m.OriginalTitle, "original-title", "", "original title")
	cmd.Flags().StringVar(&m.Overview, "overview", "", "plot overview")
	cmd.Flags().StringVar(&m.PosterPath, "poster-path", "", "TMDb poster path")
	cmd.Flags().StringVar(&m.BackdropPath, "backdrop-path", "", "TMDb backdrop path")
	cmd.Flags().Float64Var(&m.Rating, "rating", 0, "average vote, 0-10")
	cmd.Flags().StringVar(&m.ReleaseDate, "release-date", "", "release date, YYYY-MM-DD")
}

func newFavoritesRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "remove [movie id]",
		Aliases: []string{"rm"},
		Short:   "Remove a movie from the favorites",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseMovieID(args[0])
			if err != nil {
				return err
			}
			return runFavoriteChange(cmd, movie.Movie{ID: id}, false)
		},
	}
}

func runFavoriteChange(cmd *cobra.Command, m movie.Movie, add bool) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	svc, _, logger, err := setup(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	details := catalog.NewDetailController(svc.catalog, svc.store, logger)

	var outcome catalog.Outcome
	if add {
		outcome = details.Add(ctx, m)
	} else {
		outcome = details.Remove(ctx, m)
	}

	switch outcome {
	case catalog.OutcomeAdded:
		fmt.Fprintln(cmd.OutOrStdout(), styleSuccess.Render(fmt.Sprintf("✓ Added %d to favorites", m.ID)))
	case catalog.OutcomeRemoved:
		fmt.Fprintln(cmd.OutOrStdout(), styleSuccess.Render(fmt.Sprintf("✓ Removed %d from favorites", m.ID)))
	default:
		if add {
			return fmt.Errorf("could not add movie %d: it may already be a favorite", m.ID)
		}
		return fmt.Errorf("could not remove movie %d: it may not be a favorite", m.ID)
	}
	return nil
}
