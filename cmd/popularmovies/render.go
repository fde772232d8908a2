package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vadimtrunov/PopularMovies/internal/catalog"
	"github.com/vadimtrunov/PopularMovies/internal/movie"
)

const (
	ratingBarWidth   = 10
	reviewPreviewLen = 280
)

// formatMovieLine renders one list row: index, title, year and rating.
func formatMovieLine(index int, m movie.Movie) string {
	label := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	line := fmt.Sprintf("%s %s", label.Render(fmt.Sprintf("%2d.", index)), styleTitle.Render(orUntitled(m.DisplayTitle())))
	if year := m.ReleaseYear(); year != "" {
		line += " " + styleDim.Render("("+year+")")
	}
	return line + "  " + ratingBar(m.Rating, ratingBarWidth)
}

// formatList renders a page of movies with a page header.
func formatList(snap catalog.Snapshot) string {
	var sb strings.Builder
	sb.WriteString(styleHeader.Render(listHeading(snap)))
	sb.WriteString("\n")

	movies := catalog.Movies(snap.Records)
	if len(movies) == 0 {
		sb.WriteString(styleDim.Render(emptyText(snap.Mode)))
		sb.WriteString("\n")
		return sb.String()
	}
	for i, m := range movies {
		sb.WriteString(formatMovieLine(i+1, m))
		sb.WriteString(styleDim.Render(fmt.Sprintf("  #%d", m.ID)))
		sb.WriteString("\n")
	}
	return sb.String()
}

// listHeading names the listing and, for paged modes, the page position.
func listHeading(snap catalog.Snapshot) string {
	var title string
	switch snap.Mode {
	case catalog.ModeTopRated:
		title = "Top rated"
	case catalog.ModeSearch:
		title = fmt.Sprintf("Search: %q", snap.Query)
	case catalog.ModeFavorites:
		return "Favorites"
	default:
		title = "Most popular"
	}
	if snap.TotalKnown && snap.TotalPages > 0 {
		return fmt.Sprintf("%s  page %d/%d", title, snap.Page, snap.TotalPages)
	}
	return fmt.Sprintf("%s  page %d", title, snap.Page)
}

// emptyText is shown when a listing loaded without error but has no rows.
func emptyText(mode catalog.Mode) string {
	switch mode {
	case catalog.ModeSearch:
		return "No movies match this search."
	case catalog.ModeFavorites:
		return "No favorites yet."
	}
	return "No movies on this page."
}

// formatDetail renders a movie with its trailers and reviews, wrapped to width.
func formatDetail(m movie.Movie, favorite bool, width int) string {
	if width <= 0 {
		width = 80
	}
	wrap := lipgloss.NewStyle().Width(width)

	var sb strings.Builder
	sb.WriteString(styleHeader.Render(orUntitled(m.DisplayTitle())))
	sb.WriteString("\n")
	if orig := m.DisplayOriginalTitle(); orig != "" && orig != m.DisplayTitle() {
		sb.WriteString(styleDim.Render(orig))
		sb.WriteString("\n")
	}

	facts := []string{ratingBar(m.Rating, ratingBarWidth)}
	if year := m.ReleaseYear(); year != "" {
		facts = append(facts, styleDim.Render(m.ReleaseDate))
	}
	if favorite {
		facts = append(facts, styleSuccess.Render("★ favorite"))
	}
	sb.WriteString(strings.Join(facts, "  "))
	sb.WriteString("\n\n")

	if m.Overview != "" {
		sb.WriteString(wrap.Render(m.Overview))
		sb.WriteString("\n\n")
	}
	if poster := m.PosterURL(); poster != "" {
		sb.WriteString(styleDim.Render("Poster: " + poster))
		sb.WriteString("\n\n")
	}

	sb.WriteString(styleInfo.Render("Trailers"))
	sb.WriteString("\n")
	if len(m.Videos) == 0 {
		sb.WriteString(styleDim.Render("  none"))
		sb.WriteString("\n")
	}
	for _, v := range m.Videos {
		fmt.Fprintf(&sb, "  %s  %s\n", v.Name, styleDim.Render(v.WatchURL()))
	}

	sb.WriteString("\n")
	sb.WriteString(styleInfo.Render("Reviews"))
	sb.WriteString("\n")
	if len(m.Reviews) == 0 {
		sb.WriteString(styleDim.Render("  none"))
		sb.WriteString("\n")
	}
	for _, r := range m.Reviews {
		sb.WriteString(styleTitle.Render(r.Author))
		sb.WriteString("\n")
		sb.WriteString(wrap.Render(truncate(r.Content, reviewPreviewLen)))
		sb.WriteString("\n")
		if r.URL != "" {
			sb.WriteString(styleDim.Render(r.URL))
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func ratingColor(rating float64) lipgloss.Color {
	switch {
	case rating >= 7.5:
		return lipgloss.Color("10") // green
	case rating >= 6:
		return lipgloss.Color("11") // yellow
	case rating > 0:
		return lipgloss.Color("9") // red
	default:
		return lipgloss.Color("8") // gray
	}
}

// ratingBar draws a 0-10 rating as a filled bar followed by the value.
func ratingBar(rating float64, width int) string {
	filled := int(rating / 10 * float64(width))
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}
	empty := width - filled

	bar := lipgloss.NewStyle().Foreground(ratingColor(rating)).Render(strings.Repeat("█", filled)) +
		styleDim.Render(strings.Repeat("░", empty))
	return fmt.Sprintf("%s %s", bar, styleDim.Render(formatRating(rating)))
}

func formatRating(rating float64) string {
	if rating <= 0 {
		return "unrated"
	}
	return fmt.Sprintf("%.1f/10", rating)
}

// truncate shortens s to at most n runes, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	if n <= 1 {
		return "…"
	}
	return strings.TrimSpace(string(r[:n-1])) + "…"
}

func orUntitled(title string) string {
	if title == "" {
		return "Untitled"
	}
	return title
}
