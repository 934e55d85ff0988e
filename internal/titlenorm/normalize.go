package titlenorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldMarks decomposes runes and drops combining marks so accented and plain
// spellings collide ("Pokémon" and "Pokemon" normalize identically).
var foldMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize lowercases a title, strips trademark glyphs and apostrophe
// variants, folds diacritics, maps every other rune outside [a-z0-9 :.-] to a
// space, and collapses whitespace runs. It is pure, total, and idempotent.
func Normalize(title string) string {
	if folded, _, err := transform.String(foldMarks, title); err == nil {
		title = folded
	}
	title = strings.ToLower(title)

	var b strings.Builder
	b.Grow(len(title))
	pendingSpace := false
	for _, r := range title {
		switch {
		case r == '™' || r == '®' || r == '©':
			// Dropped outright: "Portal 2™" and "Portal 2" must collide.
		case r == '\'' || r == '’' || r == '‘' || r == 'ʼ':
			// Apostrophes vanish without a separator ("don't" -> "dont").
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == ':' || r == '.' || r == '-':
			b.WriteRune(r)
			pendingSpace = false
		default:
			if !pendingSpace {
				b.WriteByte(' ')
				pendingSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}
