package provider

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/barasher/go-exiftool"
	"github.com/google/uuid"
	"github.com/karrick/godirwalk"

	"pgs-go/internal/pgs"
)

// image file extensions the folder provider recognizes, lowercase.
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".tif":  true,
	".tiff": true,
	".heic": true,
}

const exifDateFormat = "2006:01:02 15:04:05"

// FolderProvider reads albums from a directory tree: each immediate
// subdirectory of the root is one album, and every image file under it
// (recursively) is a photo in that album.
//
// Photo UUIDs are derived from the file's URL with a SHA-1 namespace UUID,
// so they are stable across runs and identical for the same file reached
// through different albums.
type FolderProvider struct {
	root string
	et   *exiftool.Exiftool // nil when the exiftool binary is unavailable
}

var _ pgs.PhotoSource = (*FolderProvider)(nil)

// NewFolderProvider creates a provider rooted at the given directory.
// EXIF metadata (dimensions, taken date) is read through exiftool when the
// binary is available; without it photos carry mtime and zero dimensions.
func NewFolderProvider(root string, logger pgs.Logger) (*FolderProvider, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("opening photo root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("photo root is not a directory: %s", root)
	}

	et, err := exiftool.NewExiftool()
	if err != nil {
		logger.Warn("exiftool unavailable, photo metadata will be limited", "error", err)
		et = nil
	}

	return &FolderProvider{root: root, et: et}, nil
}

// ListAlbums returns one album per immediate subdirectory of the root,
// sorted by name, with recursive image counts.
func (p *FolderProvider) ListAlbums() ([]pgs.Album, error) {
	entries, err := os.ReadDir(p.root)
	if err != nil {
		return nil, fmt.Errorf("reading photo root: %w", err)
	}

	var albums []pgs.Album
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		files, err := p.imageFiles(filepath.Join(p.root, entry.Name()))
		if err != nil {
			return nil, err
		}
		albums = append(albums, pgs.Album{Name: entry.Name(), PhotoCount: len(files)})
	}

	sort.Slice(albums, func(i, j int) bool { return albums[i].Name < albums[j].Name })
	return albums, nil
}

// GetPhotos returns the photos in the named album, sorted by path. It fails
// with pgs.ErrAlbumNotFound if no such subdirectory exists, and returns an
// empty slice for an album directory with no images.
func (p *FolderProvider) GetPhotos(albumName string) ([]pgs.Photo, error) {
	// Album names are single directory names; anything that would join
	// outside the root is treated as not found.
	if albumName == "" || albumName == ".." ||
		strings.ContainsAny(albumName, `/\`) {
		return nil, fmt.Errorf("album %q: %w", albumName, pgs.ErrAlbumNotFound)
	}

	albumDir := filepath.Join(p.root, albumName)
	info, err := os.Stat(albumDir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("album %q: %w", albumName, pgs.ErrAlbumNotFound)
	}

	files, err := p.imageFiles(albumDir)
	if err != nil {
		return nil, err
	}

	photos := make([]pgs.Photo, 0, len(files))
	for _, path := range files {
		photo := pgs.Photo{
			UUID:         photoUUID(path),
			Filename:     filepath.Base(path),
			OriginalPath: path,
			AlbumName:    albumName,
		}
		p.fillMetadata(&photo)
		photos = append(photos, photo)
	}
	return photos, nil
}

// Close releases the exiftool process, if one was started.
func (p *FolderProvider) Close() error {
	if p.et != nil {
		return p.et.Close()
	}
	return nil
}

// imageFiles walks dir recursively and returns sorted paths of image files.
func (p *FolderProvider) imageFiles(dir string) ([]string, error) {
	var files []string
	err := godirwalk.Walk(dir, &godirwalk.Options{
		Unsorted: true,
		Callback: func(path string, de *godirwalk.Dirent) error {
			if de.IsDir() {
				if strings.HasPrefix(de.Name(), ".") && path != dir {
					return filepath.SkipDir
				}
				return nil
			}
			if imageExtensions[strings.ToLower(filepath.Ext(path))] {
				files = append(files, path)
			}
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}

// fillMetadata adds best-effort dimensions and taken date. EXIF wins; the
// file mtime is the taken-date fallback.
func (p *FolderProvider) fillMetadata(photo *pgs.Photo) {
	if info, err := os.Stat(photo.OriginalPath); err == nil {
		photo.DateTaken = info.ModTime()
	}

	if p.et == nil {
		return
	}

	mds := p.et.ExtractMetadata(photo.OriginalPath)
	if len(mds) == 0 || mds[0].Err != nil {
		return
	}
	md := mds[0]

	if w, err := md.GetInt("ImageWidth"); err == nil {
		photo.Width = int(w)
	}
	if h, err := md.GetInt("ImageHeight"); err == nil {
		photo.Height = int(h)
	}
	if taken, err := md.GetString("DateTimeOriginal"); err == nil {
		if t, err := time.ParseInLocation(exifDateFormat, taken, time.Local); err == nil {
			photo.DateTaken = t
		}
	}
}

// photoUUID derives a stable identifier from the file location.
func photoUUID(path string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+path)).String()
}
