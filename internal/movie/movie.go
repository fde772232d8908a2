// Package movie holds the record types shared by the remote catalog, the
// favorites store and the controllers.
package movie

import "strings"

const (
	imageBaseURL     = "https://image.tmdb.org/t/p/"
	posterSize       = "w342"
	backdropSize     = "w780"
	youTubeSite      = "YouTube"
	youTubeWatchURL  = "https://www.youtube.com/watch?v="
	youTubeAppScheme = "vnd.youtube:"
	youTubeThumbURL  = "https://img.youtube.com/vi/"
)

// Movie is a single catalog entry. ID is stable across the remote API and
// the favorites store.
type Movie struct {
	ID            int      `json:"id"`
	OriginalTitle string   `json:"original_title"`
	Title         string   `json:"title"`
	PosterPath    string   `json:"poster_path"`
	BackdropPath  string   `json:"backdrop_path"`
	Overview      string   `json:"overview"`
	Rating        float64  `json:"vote_average"`
	ReleaseDate   string   `json:"release_date"`
	Videos        []Video  `json:"videos,omitempty"`
	Reviews       []Review `json:"reviews,omitempty"`
}

// New builds a Movie with the title fallback already applied.
func New(id int, originalTitle, title, posterPath, backdropPath, overview string, rating float64, releaseDate string) Movie {
	m := Movie{
		ID:            id,
		OriginalTitle: originalTitle,
		Title:         title,
		PosterPath:    posterPath,
		BackdropPath:  backdropPath,
		Overview:      overview,
		Rating:        rating,
		ReleaseDate:   releaseDate,
	}
	m.Normalize()
	return m
}

// Normalize unifies Title and OriginalTitle when exactly one of them is empty.
func (m *Movie) Normalize() {
	switch {
	case m.OriginalTitle == "" && m.Title != "":
		m.OriginalTitle = m.Title
	case m.Title == "" && m.OriginalTitle != "":
		m.Title = m.OriginalTitle
	}
}

// DisplayTitle returns Title, falling back to OriginalTitle.
func (m Movie) DisplayTitle() string {
	if m.Title == "" {
		return m.OriginalTitle
	}
	return m.Title
}

// DisplayOriginalTitle returns OriginalTitle, falling back to Title.
func (m Movie) DisplayOriginalTitle() string {
	if m.OriginalTitle == "" {
		return m.Title
	}
	return m.OriginalTitle
}

// ReleaseYear returns the first four characters of the release date, or ""
// when the date is too short to carry a year.
func (m Movie) ReleaseYear() string {
	if len(m.ReleaseDate) < 4 {
		return ""
	}
	return m.ReleaseDate[:4]
}

// PosterURL returns the poster image URL, or "" when the movie has no poster.
func (m Movie) PosterURL() string {
	return ImageURL(m.PosterPath, posterSize)
}

// BackdropURL returns the backdrop image URL, or "" when the movie has none.
func (m Movie) BackdropURL() string {
	return ImageURL(m.BackdropPath, backdropSize)
}

// ImageURL joins a TMDb relative image path with a size class.
func ImageURL(relPath, size string) string {
	relPath = strings.TrimPrefix(relPath, "/")
	if relPath == "" {
		return ""
	}
	return imageBaseURL + size + "/" + relPath
}

// WithoutDetail returns a copy of m with videos and reviews dropped.
func (m Movie) WithoutDetail() Movie {
	m.Videos = nil
	m.Reviews = nil
	return m
}

// Video is a trailer or clip attached to a movie.
type Video struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Name string `json:"name"`
	Site string `json:"site"`
	Type string `json:"type"`
	Size int    `json:"size"`
}

// IsYouTube reports whether the video is hosted on YouTube.
func (v Video) IsYouTube() bool {
	return v.Site == youTubeSite
}

// WatchURL returns the web URL for the video.
func (v Video) WatchURL() string {
	return youTubeWatchURL + v.Key
}

// AppURL returns the URL that opens the video in the native YouTube app.
func (v Video) AppURL() string {
	return youTubeAppScheme + v.Key
}

// ThumbnailURL returns the default thumbnail image for the video.
func (v Video) ThumbnailURL() string {
	return youTubeThumbURL + v.Key + "/0.jpg"
}

// Review is a user review attached to a movie.
type Review struct {
	ID      string `json:"id"`
	Author  string `json:"author"`
	Content string `json:"content"`
	URL     string `json:"url"`
}

// FilterYouTube keeps only YouTube videos in their original order. It returns
// nil when nothing survives.
func FilterYouTube(videos []Video) []Video {
	var out []Video
	for _, v := range videos {
		if v.IsYouTube() {
			out = append(out, v)
		}
	}
	return out
}
