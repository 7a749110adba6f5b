package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const maxSlugLength = 200

// diacriticStripper decomposes characters and drops the combining marks, so
// "Wärmetauscher" folds to "Warmetauscher" before slugging.
var diacriticStripper = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// ComputeHash returns the SHA-256 of the content as a hex string, used for
// duplicate detection across uploads.
func ComputeHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// SlugifyFilename converts a filename to a URL-safe slug while keeping the
// original extension.
func SlugifyFilename(filename string) string {
	ext := fileExtension(filename)
	name := filename
	if idx := strings.LastIndexByte(filename, '.'); idx >= 0 {
		name = filename[:idx]
	}

	slug := slugify(name)
	if ext != "" {
		return slug + "." + ext
	}
	return slug
}

// slugify lowercases, folds diacritics to ASCII, and replaces every run of
// non-alphanumeric characters with a single hyphen.
func slugify(s string) string {
	if folded, _, err := transform.String(diacriticStripper, s); err == nil {
		s = folded
	}
	s = strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(s))
	pendingHyphen := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
		default:
			pendingHyphen = true
		}
	}

	slug := b.String()
	if len(slug) > maxSlugLength {
		slug = slug[:maxSlugLength]
		slug = strings.TrimRight(slug, "-")
	}
	return slug
}
