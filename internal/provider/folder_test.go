package provider

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"pgs-go/internal/pgs"
)

func makeLibrary(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func newProvider(t *testing.T, root string) *FolderProvider {
	t.Helper()
	p, err := NewFolderProvider(root, pgs.NewNopLogger())
	if err != nil {
		t.Fatalf("NewFolderProvider: %v", err)
	}
	t.Cleanup(func() { p.Close() })
	return p
}

func TestFolderProvider_ListAlbums(t *testing.T) {
	root := makeLibrary(t, map[string]string{
		"Eagles vs Giants/a.jpg":        "x",
		"Eagles vs Giants/b.png":        "x",
		"Eagles vs Giants/notes.txt":    "not a photo",
		"Trip to Rome/day1/sunrise.jpg": "x",
		"Empty Album/.keep":             "",
		".hidden/secret.jpg":            "x",
	})
	p := newProvider(t, root)

	albums, err := p.ListAlbums()
	if err != nil {
		t.Fatalf("ListAlbums: %v", err)
	}

	want := map[string]int{
		"Eagles vs Giants": 2,
		"Trip to Rome":     1,
		"Empty Album":      0,
	}
	if len(albums) != len(want) {
		t.Fatalf("got %d albums: %+v", len(albums), albums)
	}
	for _, a := range albums {
		count, ok := want[a.Name]
		if !ok {
			t.Errorf("unexpected album %q", a.Name)
			continue
		}
		if a.PhotoCount != count {
			t.Errorf("album %q count = %d, want %d", a.Name, a.PhotoCount, count)
		}
	}

	// Sorted by name.
	for i := 1; i < len(albums); i++ {
		if albums[i-1].Name > albums[i].Name {
			t.Errorf("albums not sorted: %q before %q", albums[i-1].Name, albums[i].Name)
		}
	}
}

func TestFolderProvider_GetPhotos(t *testing.T) {
	t.Run("returns image files recursively, sorted", func(t *testing.T) {
		root := makeLibrary(t, map[string]string{
			"Trip/b.jpg":      "x",
			"Trip/a.jpg":      "x",
			"Trip/sub/c.heic": "x",
			"Trip/skip.txt":   "x",
		})
		p := newProvider(t, root)

		photos, err := p.GetPhotos("Trip")
		if err != nil {
			t.Fatalf("GetPhotos: %v", err)
		}
		if len(photos) != 3 {
			t.Fatalf("got %d photos: %+v", len(photos), photos)
		}
		if photos[0].Filename != "a.jpg" || photos[1].Filename != "b.jpg" || photos[2].Filename != "c.heic" {
			t.Errorf("wrong order: %s, %s, %s", photos[0].Filename, photos[1].Filename, photos[2].Filename)
		}
		for _, photo := range photos {
			if photo.AlbumName != "Trip" {
				t.Errorf("photo %s album = %q", photo.Filename, photo.AlbumName)
			}
			if photo.DateTaken.IsZero() {
				t.Errorf("photo %s has no taken date (mtime fallback missing)", photo.Filename)
			}
		}
	})

	t.Run("missing album fails with not-found", func(t *testing.T) {
		root := makeLibrary(t, map[string]string{"Trip/a.jpg": "x"})
		p := newProvider(t, root)

		_, err := p.GetPhotos("No Such Album")
		if !errors.Is(err, pgs.ErrAlbumNotFound) {
			t.Fatalf("expected ErrAlbumNotFound, got %v", err)
		}
	})

	t.Run("album name cannot reach outside the root", func(t *testing.T) {
		root := makeLibrary(t, map[string]string{"Trip/a.jpg": "x"})
		// A sibling directory that a traversal name would otherwise reach.
		sibling := filepath.Join(filepath.Dir(root), "elsewhere")
		if err := os.MkdirAll(sibling, 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(sibling, "b.jpg"), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
		p := newProvider(t, root)

		for _, name := range []string{"../elsewhere", "..", "Trip/..", `a\b`, ""} {
			_, err := p.GetPhotos(name)
			if !errors.Is(err, pgs.ErrAlbumNotFound) {
				t.Errorf("GetPhotos(%q): expected ErrAlbumNotFound, got %v", name, err)
			}
		}
	})

	t.Run("album with no images is empty, not an error", func(t *testing.T) {
		root := makeLibrary(t, map[string]string{"Docs/readme.txt": "x"})
		p := newProvider(t, root)

		photos, err := p.GetPhotos("Docs")
		if err != nil {
			t.Fatalf("GetPhotos: %v", err)
		}
		if len(photos) != 0 {
			t.Errorf("got %d photos, want 0", len(photos))
		}
	})
}

func TestPhotoUUID_Stable(t *testing.T) {
	if photoUUID("/library/Trip/a.jpg") != photoUUID("/library/Trip/a.jpg") {
		t.Error("uuid not deterministic for the same path")
	}
	if photoUUID("/library/Trip/a.jpg") == photoUUID("/library/Trip/b.jpg") {
		t.Error("distinct paths produced the same uuid")
	}
}

func TestNewFolderProvider_BadRoot(t *testing.T) {
	if _, err := NewFolderProvider(filepath.Join(t.TempDir(), "missing"), pgs.NewNopLogger()); err == nil {
		t.Error("expected error for missing root")
	}

	file := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFolderProvider(file, pgs.NewNopLogger()); err == nil {
		t.Error("expected error for non-directory root")
	}
}
