package transform

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/anthonynsimon/bild/transform"
	"github.com/barasher/go-exiftool"
	"github.com/chai2010/webp"

	"pgs-go/internal/pgs"
)

// BildTransformer implements pgs.Transformer: Lanczos downscaling and
// re-encoding via bild, webp encoding via chai2010/webp, and best-effort
// GPS stripping through exiftool.
type BildTransformer struct {
	logger pgs.Logger
}

var _ pgs.Transformer = (*BildTransformer)(nil)

// NewBildTransformer creates a transformer. logger receives warnings for
// best-effort steps that fail.
func NewBildTransformer(logger pgs.Logger) *BildTransformer {
	return &BildTransformer{logger: logger}
}

// Export reads sourcePath, resizes to at most opts.MaxWidth wide (never
// upscaling, preserving aspect ratio), writes destPath in opts.Format and
// returns the hex SHA-256 of the written file.
func (t *BildTransformer) Export(sourcePath, destPath string, opts pgs.ExportOptions) (string, error) {
	img, err := imgio.Open(sourcePath)
	if err != nil {
		return "", &pgs.ExportError{Source: sourcePath, Err: fmt.Errorf("decoding: %w", err)}
	}

	bounds := img.Bounds()
	if opts.MaxWidth > 0 && bounds.Dx() > opts.MaxWidth {
		newHeight := int(math.Round(float64(bounds.Dy()) * float64(opts.MaxWidth) / float64(bounds.Dx())))
		img = transform.Resize(img, opts.MaxWidth, newHeight, transform.Lanczos)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return "", &pgs.ExportError{Source: sourcePath, Err: fmt.Errorf("creating output directory: %w", err)}
	}

	if err := t.encode(img, destPath, opts); err != nil {
		return "", &pgs.ExportError{Source: sourcePath, Err: err}
	}

	// Re-encoding already drops source metadata; the exiftool pass clears
	// anything the encoder may have carried over. Best-effort: a failure
	// here never fails the export.
	if opts.StripGPS {
		if err := stripGPS(destPath); err != nil {
			t.logger.Warn("unable to strip location metadata", "path", destPath, "error", err)
		}
	}

	return t.Checksum(destPath)
}

func (t *BildTransformer) encode(img image.Image, destPath string, opts pgs.ExportOptions) error {
	switch strings.ToLower(opts.Format) {
	case "jpg", "jpeg":
		return imgio.Save(destPath, img, imgio.JPEGEncoder(opts.Quality))
	case "png":
		return imgio.Save(destPath, img, imgio.PNGEncoder())
	case "webp":
		f, err := os.Create(destPath)
		if err != nil {
			return fmt.Errorf("creating %s: %w", destPath, err)
		}
		defer f.Close()
		if err := webp.Encode(f, img, &webp.Options{Quality: float32(opts.Quality)}); err != nil {
			return fmt.Errorf("encoding webp: %w", err)
		}
		return f.Close()
	default:
		return fmt.Errorf("unsupported format: %q", opts.Format)
	}
}

// Checksum returns the hex SHA-256 checksum of the file at path.
func (t *BildTransformer) Checksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// stripGPS removes GPS tags from the file in place via exiftool.
func stripGPS(path string) error {
	et, err := exiftool.NewExiftool()
	if err != nil {
		return fmt.Errorf("starting exiftool: %w", err)
	}
	defer et.Close()

	mds := et.ExtractMetadata(path)
	if len(mds) == 0 {
		return fmt.Errorf("no metadata result for %s", path)
	}
	md := mds[0]
	if md.Err != nil {
		return fmt.Errorf("reading metadata: %w", md.Err)
	}

	cleared := false
	for field := range md.Fields {
		if strings.HasPrefix(field, "GPS") {
			md.Clear(field)
			cleared = true
		}
	}
	if !cleared {
		return nil
	}

	et.WriteMetadata(mds)
	if mds[0].Err != nil {
		return fmt.Errorf("writing metadata: %w", mds[0].Err)
	}
	return nil
}
