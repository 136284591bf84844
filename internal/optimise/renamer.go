package optimise

import (
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Renamer defines the interface for choosing output base names.
type Renamer interface {
	// OutputStem returns the base name (no extension) to write under
	// dir for an input with the given stem. The returned stem is
	// unique within the run for that directory.
	OutputStem(dir, stem string) string
}

// renamer implements the Renamer interface. It tracks reserved names
// for the whole run so flattened outputs from same-named inputs in
// different subdirectories never overwrite each other.
type renamer struct {
	rename bool
	used   map[string]bool
}

// NewRenamer creates a new Renamer instance. When rename is set, stems
// are converted to SEO-safe slugs; otherwise the original stem is kept.
func NewRenamer(rename bool) Renamer {
	return &renamer{
		rename: rename,
		used:   map[string]bool{},
	}
}

// OutputStem returns a unique base name for dir. Collisions get a
// numeric suffix in walk order: photo, photo-2, photo-3, ...
func (r *renamer) OutputStem(dir, stem string) string {
	if r.rename {
		stem = slugify(stem)
	}

	candidate := stem
	for n := 2; r.used[filepath.Join(dir, candidate)]; n++ {
		candidate = stem + "-" + strconv.Itoa(n)
	}
	r.used[filepath.Join(dir, candidate)] = true
	return candidate
}

// slugify produces a filesystem- and URL-safe name: accents stripped,
// lowercased, separators collapsed to single hyphens, everything
// outside [a-z0-9-] dropped.
func slugify(stem string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if decomposed, _, err := transform.String(t, stem); err == nil {
		stem = decomposed
	}
	stem = strings.ToLower(stem)

	var b strings.Builder
	pendingHyphen := false
	for _, r := range stem {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_', r == '.':
			pendingHyphen = true
		}
	}

	if b.Len() == 0 {
		return "image"
	}
	return b.String()
}
