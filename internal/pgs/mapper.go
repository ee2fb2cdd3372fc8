package pgs

import "regexp"

// RuleSource records the provenance of a mapping decision.
type RuleSource string

const (
	RuleExplicit  RuleSource = "explicit"
	RulePattern   RuleSource = "pattern"
	RuleUnmatched RuleSource = "unmatched"
)

// AlbumMapping is a user-authored override mapping one exact album name to a
// category and slug.
type AlbumMapping struct {
	Category string
	Slug     string
}

// PatternRule maps album names matching a regex to a category. Rules are
// evaluated in declaration order with first-match-wins, so they live in a
// slice, never a map.
type PatternRule struct {
	Pattern  *regexp.Regexp
	Category string
}

// Rules is the read-only mapping configuration consumed by ResolveAlbum.
type Rules struct {
	Albums   map[string]AlbumMapping
	Patterns []PatternRule
}

// ResolvedMapping is the result of resolving one album name. Recomputed on
// every call, never persisted. Category is empty iff Source is RuleUnmatched.
type ResolvedMapping struct {
	AlbumName string
	Category  string
	Slug      string
	Source    RuleSource
}

// ResolveAlbum resolves an album name to a category and slug.
//
// Priority:
//  1. Exact-match explicit mapping (slug taken verbatim, not re-slugified).
//  2. First pattern rule whose regex matches from the start of the name.
//  3. Unmatched: empty category, slugified name.
func ResolveAlbum(albumName string, rules Rules) ResolvedMapping {
	if m, ok := rules.Albums[albumName]; ok {
		return ResolvedMapping{
			AlbumName: albumName,
			Category:  m.Category,
			Slug:      m.Slug,
			Source:    RuleExplicit,
		}
	}

	for _, rule := range rules.Patterns {
		if rule.Pattern.MatchString(albumName) {
			return ResolvedMapping{
				AlbumName: albumName,
				Category:  rule.Category,
				Slug:      Slugify(albumName),
				Source:    RulePattern,
			}
		}
	}

	return ResolvedMapping{
		AlbumName: albumName,
		Slug:      Slugify(albumName),
		Source:    RuleUnmatched,
	}
}

// ResolveAlbums resolves each name in order, one result per input.
func ResolveAlbums(albumNames []string, rules Rules) []ResolvedMapping {
	resolved := make([]ResolvedMapping, len(albumNames))
	for i, name := range albumNames {
		resolved[i] = ResolveAlbum(name, rules)
	}
	return resolved
}
