package transform

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	_ "image/jpeg"

	"pgs-go/internal/pgs"
)

// writeTestImage writes a width x height PNG with a simple gradient.
func writeTestImage(t *testing.T, path string, width, height int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func decodeSize(t *testing.T, path string) (int, int) {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		t.Fatalf("decoding %s: %v", path, err)
	}
	return cfg.Width, cfg.Height
}

func TestBildTransformer_Export(t *testing.T) {
	tr := NewBildTransformer(pgs.NewNopLogger())

	t.Run("downscales to max width preserving aspect ratio", func(t *testing.T) {
		dir := t.TempDir()
		src := filepath.Join(dir, "src.png")
		dest := filepath.Join(dir, "out.jpg")
		writeTestImage(t, src, 400, 300)

		checksum, err := tr.Export(src, dest, pgs.ExportOptions{MaxWidth: 200, Format: "jpg", Quality: 85})
		if err != nil {
			t.Fatalf("Export: %v", err)
		}
		if checksum == "" {
			t.Error("empty checksum")
		}

		w, h := decodeSize(t, dest)
		if w != 200 || h != 150 {
			t.Errorf("output is %dx%d, want 200x150", w, h)
		}
	})

	t.Run("never upscales", func(t *testing.T) {
		dir := t.TempDir()
		src := filepath.Join(dir, "src.png")
		dest := filepath.Join(dir, "out.jpg")
		writeTestImage(t, src, 100, 80)

		if _, err := tr.Export(src, dest, pgs.ExportOptions{MaxWidth: 2048, Format: "jpg", Quality: 85}); err != nil {
			t.Fatalf("Export: %v", err)
		}

		w, h := decodeSize(t, dest)
		if w != 100 || h != 80 {
			t.Errorf("output is %dx%d, want unchanged 100x80", w, h)
		}
	})

	t.Run("creates nested destination directories", func(t *testing.T) {
		dir := t.TempDir()
		src := filepath.Join(dir, "src.png")
		dest := filepath.Join(dir, "eagles", "eagles-vs-giants", "out.png")
		writeTestImage(t, src, 10, 10)

		if _, err := tr.Export(src, dest, pgs.ExportOptions{MaxWidth: 2048, Format: "png", Quality: 85}); err != nil {
			t.Fatalf("Export: %v", err)
		}
		if _, err := os.Stat(dest); err != nil {
			t.Errorf("destination missing: %v", err)
		}
	})

	t.Run("unsupported format is an export error", func(t *testing.T) {
		dir := t.TempDir()
		src := filepath.Join(dir, "src.png")
		writeTestImage(t, src, 10, 10)

		_, err := tr.Export(src, filepath.Join(dir, "out.tiff"), pgs.ExportOptions{Format: "tiff", Quality: 85})
		var exportErr *pgs.ExportError
		if !errors.As(err, &exportErr) {
			t.Fatalf("expected *ExportError, got %T: %v", err, err)
		}
	})

	t.Run("unreadable source is an export error", func(t *testing.T) {
		dir := t.TempDir()
		_, err := tr.Export(filepath.Join(dir, "missing.jpg"), filepath.Join(dir, "out.jpg"), pgs.ExportOptions{Format: "jpg", Quality: 85})
		var exportErr *pgs.ExportError
		if !errors.As(err, &exportErr) {
			t.Fatalf("expected *ExportError, got %T: %v", err, err)
		}
	})
}

func TestBildTransformer_Checksum(t *testing.T) {
	tr := NewBildTransformer(pgs.NewNopLogger())
	dir := t.TempDir()
	path := filepath.Join(dir, "file.bin")

	content := []byte("photo bytes")
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatal(err)
	}

	got, err := tr.Checksum(path)
	if err != nil {
		t.Fatalf("Checksum: %v", err)
	}
	sum := sha256.Sum256(content)
	if want := hex.EncodeToString(sum[:]); got != want {
		t.Errorf("checksum = %s, want %s", got, want)
	}

	if err := os.WriteFile(path, []byte("edited bytes"), 0644); err != nil {
		t.Fatal(err)
	}
	changed, err := tr.Checksum(path)
	if err != nil {
		t.Fatal(err)
	}
	if changed == got {
		t.Error("checksum unchanged after edit")
	}
}
