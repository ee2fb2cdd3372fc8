package pgs

import "time"

// Photo is an immutable snapshot of one photo's membership in one album.
// The same physical photo appearing in two albums yields two Photos with the
// same UUID but different AlbumName.
type Photo struct {
	UUID         string // stable unique identifier within the source library
	Filename     string
	OriginalPath string // filesystem path the exporter reads from
	AlbumName    string

	// Best-effort metadata; zero values mean unknown.
	DateTaken time.Time
	Width     int
	Height    int
}

// Album describes one album available from a PhotoSource.
type Album struct {
	Name       string
	PhotoCount int
}

// PhotoSource is the capability interface for a photo library. Implementations
// enumerate albums and photos; they never mutate the library.
type PhotoSource interface {
	// ListAlbums returns all albums available from this source.
	ListAlbums() ([]Album, error)

	// GetPhotos returns all photos in the named album. It fails with
	// ErrAlbumNotFound if the album does not exist, and returns an empty
	// slice (not an error) if the album exists but has no retrievable photos.
	GetPhotos(albumName string) ([]Photo, error)

	// Close releases any resources held by the source.
	Close() error
}
