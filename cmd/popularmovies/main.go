package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

var configPath string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, styleError.Render(err.Error()))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "popularmovies",
		Short: "Browse popular movies and keep favorites",
		Long: "PopularMovies browses the TMDb catalog by popularity or rating, searches it,\n" +
			"shows trailers and reviews, and keeps a local list of favorite movies.",
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"path to configuration file (defaults and POPULARMOVIES_* variables when empty)")

	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	rootCmd.AddCommand(
		newVersionCmd(),
		newBrowseCmd(),
		newSearchCmd(),
		newDetailCmd(),
		newFavoritesCmd(),
		newStatusCmd(),
		newServeCmd(),
		newMCPServeCmd(),
		newConfigCmd(),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "PopularMovies v%s\n", version)
		},
	}
}
