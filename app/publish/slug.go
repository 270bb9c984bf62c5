package publish

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	maxSlugLength    = 80
	maxSlugAttempts  = 50
	fallbackSlugBase = "untitled"
)

var deaccenter = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify derives a URL slug from a title: diacritics stripped, lowercased,
// non-alphanumerics collapsed to single hyphens, length-capped at a hyphen
// boundary.
func Slugify(title string) string {
	flat, _, err := transform.String(deaccenter, title)
	if err != nil {
		flat = title
	}

	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(flat) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}

	slug := strings.Trim(b.String(), "-")
	if len(slug) > maxSlugLength {
		slug = slug[:maxSlugLength]
		if idx := strings.LastIndexByte(slug, '-'); idx > 0 {
			slug = slug[:idx]
		}
	}
	if slug == "" {
		slug = fallbackSlugBase
	}

	return slug
}

// SlugChecker reports whether a slug is already taken in an entity table.
type SlugChecker interface {
	SlugExists(table string, slug string) (bool, error)
}

// UniqueSlug appends -2, -3... until the slug is free in the target table.
func UniqueSlug(checker SlugChecker, table string, title string) (string, error) {
	base := Slugify(title)

	slug := base
	for i := 2; i <= maxSlugAttempts; i++ {
		exists, err := checker.SlugExists(table, slug)
		if err != nil {
			return "", fmt.Errorf("failed to check slug %s: %w", slug, err)
		}
		if !exists {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}

	return "", fmt.Errorf("failed to find a free slug for %q after %d attempts", base, maxSlugAttempts)
}
