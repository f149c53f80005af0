/*
normalize.go - Assignee key normalization

PURPOSE:
  Aggregation keys must be stable across the raw encodings a display name
  can arrive in (dropdown option text vs free text, varying case, stray
  whitespace, Turkish diacritics). NormalizeKey folds all of those into one
  canonical identifier so "Gül Yılmaz" and "gul  yilmaz" always land in the
  same bucket.

INVARIANTS:
  - Idempotent: NormalizeKey(NormalizeKey(x)) == NormalizeKey(x).
  - Collision-preserving: names differing only by case, diacritics or
    spacing map to the same key.
*/
package board

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks decomposes characters and removes combining marks, turning
// "ç" into "c" and "ü" into "u".
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeKey derives the canonical aggregation key for a display name.
func NormalizeKey(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	if folded, _, err := transform.String(stripMarks, s); err == nil {
		s = folded
	}
	// Dotless i has no decomposition, so mark stripping leaves it alone.
	s = strings.ReplaceAll(s, "ı", "i")
	return strings.Join(strings.Fields(s), "_")
}
