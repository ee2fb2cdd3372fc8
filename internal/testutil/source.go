package testutil

import (
	"fmt"
	"sort"

	"pgs-go/internal/pgs"
)

// FakeSource is an in-memory pgs.PhotoSource backed by a map of album name
// to photos.
type FakeSource struct {
	Photos map[string][]pgs.Photo
	Closed bool
}

var _ pgs.PhotoSource = (*FakeSource)(nil)

// NewFakeSource creates a FakeSource with the given albums.
func NewFakeSource(photos map[string][]pgs.Photo) *FakeSource {
	if photos == nil {
		photos = make(map[string][]pgs.Photo)
	}
	return &FakeSource{Photos: photos}
}

func (s *FakeSource) ListAlbums() ([]pgs.Album, error) {
	names := make([]string, 0, len(s.Photos))
	for name := range s.Photos {
		names = append(names, name)
	}
	sort.Strings(names)

	albums := make([]pgs.Album, 0, len(names))
	for _, name := range names {
		albums = append(albums, pgs.Album{Name: name, PhotoCount: len(s.Photos[name])})
	}
	return albums, nil
}

func (s *FakeSource) GetPhotos(albumName string) ([]pgs.Photo, error) {
	photos, ok := s.Photos[albumName]
	if !ok {
		return nil, fmt.Errorf("album %q: %w", albumName, pgs.ErrAlbumNotFound)
	}
	return photos, nil
}

func (s *FakeSource) Close() error {
	s.Closed = true
	return nil
}
