package pgs

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	// \w in RE2 is ASCII-only; spell out the classes so letters like é in
	// album names survive slugification.
	slugStrip  = regexp.MustCompile(`[^\p{L}\p{N}_\s-]`)
	slugSpaces = regexp.MustCompile(`[\s_]+`)
	slugDashes = regexp.MustCompile(`-+`)
)

// Slugify converts text to a filesystem- and URL-safe slug: lowercased,
// punctuation stripped, whitespace and underscores collapsed to single
// hyphens. Idempotent; empty input yields empty output.
func Slugify(text string) string {
	s := strings.ToLower(strings.TrimSpace(text))
	s = slugStrip.ReplaceAllString(s, "")
	s = slugSpaces.ReplaceAllString(s, "-")
	s = slugDashes.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// RenderOutputPath substitutes the {category}, {album_slug} and {filename}
// placeholders into pattern and returns the rendered relative path.
//
// It fails with ErrPathTraversal if the result contains ".." anywhere —
// the check runs after substitution, so hostile category/slug/filename
// values are caught, not just hostile templates.
func RenderOutputPath(pattern, category, albumSlug, filename string) (string, error) {
	rendered := strings.NewReplacer(
		"{category}", category,
		"{album_slug}", albumSlug,
		"{filename}", filename,
	).Replace(pattern)

	if strings.Contains(rendered, "..") {
		return "", fmt.Errorf("rendered path %q: %w", rendered, ErrPathTraversal)
	}
	return rendered, nil
}

// ResolveSafe joins relative onto base and canonicalizes the result,
// resolving symlinks in every existing ancestor even when the destination
// file does not exist yet. It fails with ErrPathEscape if the canonical
// result is not base itself or nested under it. This is the last line of
// defense behind RenderOutputPath.
func ResolveSafe(base, relative string) (string, error) {
	absBase, err := filepath.Abs(base)
	if err != nil {
		return "", fmt.Errorf("resolving base %q: %w", base, err)
	}
	// Canonicalize the base if it exists; a base that doesn't exist yet
	// (first run) can't contain symlinks.
	if eval, err := filepath.EvalSymlinks(absBase); err == nil {
		absBase = eval
	}

	joined, err := resolveExisting(filepath.Join(absBase, relative))
	if err != nil {
		return "", fmt.Errorf("resolving %q under %q: %w", relative, absBase, err)
	}

	if joined != absBase && !strings.HasPrefix(joined, absBase+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q relative to %q: %w", joined, absBase, ErrPathEscape)
	}
	return joined, nil
}

// resolveExisting canonicalizes path by resolving symlinks in its deepest
// existing ancestor and re-joining the not-yet-created remainder. A
// symlinked directory anywhere above a new file is therefore resolved to
// its target before the containment check runs.
func resolveExisting(path string) (string, error) {
	eval, err := filepath.EvalSymlinks(path)
	if err == nil {
		return eval, nil
	}
	if !os.IsNotExist(err) {
		return "", err
	}

	var missing []string
	for cur := path; ; {
		parent := filepath.Dir(cur)
		if parent == cur {
			// Hit the root without finding an existing ancestor.
			return path, nil
		}
		missing = append(missing, filepath.Base(cur))
		cur = parent

		eval, err := filepath.EvalSymlinks(cur)
		if err == nil {
			for i := len(missing) - 1; i >= 0; i-- {
				eval = filepath.Join(eval, missing[i])
			}
			return eval, nil
		}
		if !os.IsNotExist(err) {
			return "", err
		}
	}
}
