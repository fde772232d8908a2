package catalog

import (
	"github.com/vadimtrunov/PopularMovies/internal/metadata/tmdb"
	"github.com/vadimtrunov/PopularMovies/internal/movie"
)

// Source tells where a RecordSet came from.
type Source int

const (
	SourceRemote Source = iota
	SourceStore
)

func (s Source) String() string {
	if s == SourceStore {
		return "store"
	}
	return "remote"
}

// RecordSet is a read-only sequence of movies, either a decoded remote page
// or a favorites snapshot. Implementations are RemoteRecords and StoreRecords.
type RecordSet interface {
	Len() int
	At(i int) movie.Movie
	Source() Source
	sealed()
}

// RemoteRecords is one decoded page from the remote catalog.
type RemoteRecords struct {
	Page tmdb.ListPage
}

func (r RemoteRecords) Len() int { return len(r.Page.Movies) }
func (r RemoteRecords) At(i int) movie.Movie { return r.Page.Movies[i] }
func (r RemoteRecords) Source() Source { return SourceRemote }
func (RemoteRecords) sealed() {}

// StoreRecords is a snapshot of the favorites store.
type StoreRecords struct {
	Rows []movie.Movie
}

func (s StoreRecords) Len() int { return len(s.Rows) }
func (s StoreRecords) At(i int) movie.Movie { return s.Rows[i] }
func (s StoreRecords) Source() Source { return SourceStore }
func (StoreRecords) sealed() {}

// Movies copies a record set into a slice. A nil set yields nil.
func Movies(rs RecordSet) []movie.Movie {
	if rs == nil || rs.Len() == 0 {
		return nil
	}
	out := make([]movie.Movie, rs.Len())
	for i := range out {
		out[i] = rs.At(i)
	}
	return out
}
