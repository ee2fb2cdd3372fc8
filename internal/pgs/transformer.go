package pgs

// ExportOptions controls how a photo is transformed on export.
type ExportOptions struct {
	MaxWidth int    // resize only if the source is wider, preserving aspect ratio
	Format   string // "jpg", "png" or "webp"
	Quality  int    // 1-100, lossy formats only
	StripGPS bool   // best-effort location-metadata removal
}

// Transformer produces destination files from source photos.
type Transformer interface {
	// Export reads sourcePath, applies the transform and writes destPath,
	// creating parent directories as needed. It returns the hex SHA-256
	// checksum of the written file. Failures surface as *ExportError.
	// Location-metadata stripping is best-effort: its failure does not fail
	// the export.
	Export(sourcePath, destPath string, opts ExportOptions) (string, error)

	// Checksum returns the hex SHA-256 checksum of the file at path.
	// Read-only; the file is not modified.
	Checksum(path string) (string, error)
}
