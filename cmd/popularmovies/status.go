package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vadimtrunov/PopularMovies/internal/config"
	"github.com/vadimtrunov/PopularMovies/internal/favorites"
	"github.com/vadimtrunov/PopularMovies/internal/metadata/tmdb"
)

const statusTimeout = 15 * time.Second

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check the catalog and the favorites store",
		Long:  "Fetch the first popular page from TMDb and read the favorites store to confirm both are reachable.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd.OutOrStdout())
		},
	}
}

func runStatus(out io.Writer) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, statusTimeout)
	defer cancelTimeout()

	svc, cfg, _, err := setup(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	fmt.Fprintln(out, styleHeader.Render("Status"))
	catalogErr := checkCatalog(ctx, out, svc.catalog)
	storeErr := checkStore(ctx, out, svc.store, cfg.Store)
	if catalogErr != nil || storeErr != nil {
		return fmt.Errorf("some services are unavailable")
	}
	return nil
}

// checkCatalog fetches and decodes page 1 of the popular listing.
func checkCatalog(ctx context.Context, out io.Writer, client *tmdb.Client) error {
	raw, err := client.FetchList(ctx, tmdb.ListRequest{Mode: tmdb.ModeBrowse, Sort: tmdb.SortPopular, Page: 1})
	if err == nil {
		var page tmdb.ListPage
		if page, err = tmdb.DecodeMovieList(raw); err == nil {
			printCheck(out, "TMDb", nil, fmt.Sprintf("%d popular pages", page.TotalPages))
			return nil
		}
	}
	printCheck(out, "TMDb", err, "")
	return err
}

// checkStore reads every favorite row.
func checkStore(ctx context.Context, out io.Writer, store favorites.Store, sc config.StoreConfig) error {
	rows, err := store.Query(ctx, nil)
	name := "Favorites (" + sc.Driver + ")"
	if err != nil {
		printCheck(out, name, err, "")
		return err
	}
	printCheck(out, name, nil, fmt.Sprintf("%d stored at %s", len(rows), storeLocation(sc)))
	return nil
}

func printCheck(out io.Writer, name string, err error, detail string) {
	if err != nil {
		fmt.Fprintf(out, "%s %s  %s\n", styleError.Render("✗"), styleTitle.Render(name), styleError.Render(err.Error()))
		return
	}
	fmt.Fprintf(out, "%s %s  %s\n", styleSuccess.Render("✓"), styleTitle.Render(name), styleDim.Render(detail))
}
