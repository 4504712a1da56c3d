package collab

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// FoldQuery lowercases the query and strips diacritics so that
// "Sébastien" and "sebastien" match the same profiles. The profiles
// table stores a matching folded search_text column.
func FoldQuery(q string) string {
	lowered := strings.ToLower(strings.TrimSpace(q))
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, lowered)
	if err != nil {
		return lowered
	}
	return folded
}
