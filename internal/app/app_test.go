package app

import (
	"testing"

	"pgs-go/internal/pgs"
)

func TestRenderCommitMessage(t *testing.T) {
	tests := []struct {
		name     string
		template string
		count    int
		albums   []string
		want     string
	}{
		{
			name:     "substitutes count and albums",
			template: "gallery: sync {count} photos from {albums}",
			count:    3,
			albums:   []string{"Eagles vs Giants", "Keepers"},
			want:     "gallery: sync 3 photos from Eagles vs Giants, Keepers",
		},
		{
			name:     "single album",
			template: "sync {count} from {albums}",
			count:    1,
			albums:   []string{"Trip"},
			want:     "sync 1 from Trip",
		},
		{
			name:     "template without placeholders",
			template: "update gallery",
			count:    5,
			albums:   []string{"A"},
			want:     "update gallery",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := renderCommitMessage(tt.template, tt.count, tt.albums); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExportedAlbums(t *testing.T) {
	summary := &pgs.RunSummary{
		Results: []pgs.PhotoResult{
			{Photo: pgs.Photo{AlbumName: "Album B"}, Outcome: pgs.ExportedNew},
			{Photo: pgs.Photo{AlbumName: "Album A"}, Outcome: pgs.SkipUnchanged},
			{Photo: pgs.Photo{AlbumName: "Album B"}, Outcome: pgs.ExportedChanged},
			{Photo: pgs.Photo{AlbumName: "Album C"}, Outcome: pgs.Errored},
			{Photo: pgs.Photo{AlbumName: "Album A"}, Outcome: pgs.ExportedNew},
		},
	}

	got := exportedAlbums(summary)
	want := []string{"Album B", "Album A"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v (first-export order, no duplicates)", got, want)
		}
	}
}
