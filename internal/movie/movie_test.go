package movie

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNew_TitleFallback(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		originalTitle string
		title         string
		wantOriginal  string
		wantTitle     string
	}{
		{"both_set", "Le Samouraï", "The Samurai", "Le Samouraï", "The Samurai"},
		{"missing_title", "Amélie", "", "Amélie", "Amélie"},
		{"missing_original", "", "Heat", "Heat", "Heat"},
		{"both_empty", "", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := New(1, tt.originalTitle, tt.title, "", "", "", 0, "")
			if m.OriginalTitle != tt.wantOriginal || m.DisplayOriginalTitle() != tt.wantOriginal {
				t.Errorf("original title = %q/%q, want %q", m.OriginalTitle, m.DisplayOriginalTitle(), tt.wantOriginal)
			}
			if m.Title != tt.wantTitle || m.DisplayTitle() != tt.wantTitle {
				t.Errorf("title = %q/%q, want %q", m.Title, m.DisplayTitle(), tt.wantTitle)
			}
		})
	}
}

func TestDisplayTitle_UnnormalizedRecord(t *testing.T) {
	t.Parallel()

	m := Movie{ID: 7, OriginalTitle: "Oldboy"}
	if got := m.DisplayTitle(); got != "Oldboy" {
		t.Errorf("DisplayTitle() = %q, want Oldboy", got)
	}
	m = Movie{ID: 7, Title: "Oldboy"}
	if got := m.DisplayOriginalTitle(); got != "Oldboy" {
		t.Errorf("DisplayOriginalTitle() = %q, want Oldboy", got)
	}
}

func TestReleaseYear(t *testing.T) {
	t.Parallel()

	tests := []struct {
		date string
		want string
	}{
		{"1999-10-15", "1999"},
		{"2010", "2010"},
		{"", ""},
		{"19", ""},
	}
	for _, tt := range tests {
		m := Movie{ReleaseDate: tt.date}
		if got := m.ReleaseYear(); got != tt.want {
			t.Errorf("ReleaseYear(%q) = %q, want %q", tt.date, got, tt.want)
		}
	}
}

func TestImageURLs(t *testing.T) {
	t.Parallel()

	m := Movie{PosterPath: "/poster.jpg", BackdropPath: "/backdrop.jpg"}
	if got, want := m.PosterURL(), "https://image.tmdb.org/t/p/w342/poster.jpg"; got != want {
		t.Errorf("PosterURL() = %q, want %q", got, want)
	}
	if got, want := m.BackdropURL(), "https://image.tmdb.org/t/p/w780/backdrop.jpg"; got != want {
		t.Errorf("BackdropURL() = %q, want %q", got, want)
	}
	if got := (Movie{}).PosterURL(); got != "" {
		t.Errorf("PosterURL() for empty path = %q, want empty", got)
	}
}

func TestFilterYouTube(t *testing.T) {
	t.Parallel()

	in := []Video{
		{Key: "a", Site: "YouTube"},
		{Key: "b", Site: "Vimeo"},
		{Key: "c", Site: "YouTube"},
		{Key: "d", Site: "youtube"},
	}
	want := []Video{{Key: "a", Site: "YouTube"}, {Key: "c", Site: "YouTube"}}
	if diff := cmp.Diff(want, FilterYouTube(in)); diff != "" {
		t.Errorf("FilterYouTube() mismatch (-want +got):\n%s", diff)
	}

	if got := FilterYouTube([]Video{{Key: "x", Site: "Vimeo"}}); got != nil {
		t.Errorf("expected nil for all-filtered input, got %+v", got)
	}
	if got := FilterYouTube(nil); got != nil {
		t.Errorf("expected nil for empty input, got %+v", got)
	}
}

func TestVideoURLs(t *testing.T) {
	t.Parallel()

	v := Video{Key: "SUXWAEX2jlg", Site: "YouTube"}
	if got := v.WatchURL(); got != "https://www.youtube.com/watch?v=SUXWAEX2jlg" {
		t.Errorf("WatchURL() = %q", got)
	}
	if got := v.AppURL(); got != "vnd.youtube:SUXWAEX2jlg" {
		t.Errorf("AppURL() = %q", got)
	}
	if got := v.ThumbnailURL(); got != "https://img.youtube.com/vi/SUXWAEX2jlg/0.jpg" {
		t.Errorf("ThumbnailURL() = %q", got)
	}
}
