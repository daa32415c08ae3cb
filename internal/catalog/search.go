package catalog

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// fold lowercases s and strips diacritics, so "Gödel" matches "godel".
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// Match reports whether term occurs in the title or author of a book,
// ignoring case and diacritics.
func Match(title, author, term string) bool {
	q := fold(term)
	return strings.Contains(fold(title), q) || strings.Contains(fold(author), q)
}
