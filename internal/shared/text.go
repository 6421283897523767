package shared

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// NormalizeText trims s, collapses inner whitespace, applies NFC and folds case.
//
// Two strings that differ only by case, surrounding whitespace or Unicode
// composition normalize to the same value.
func NormalizeText(s string) string {
	s = norm.NFC.String(s)
	s = strings.Join(strings.Fields(s), " ")
	// A Caser keeps state between calls and cannot be shared.
	return cases.Fold().String(s)
}

// NormalizeSongKey builds the comparison key used to detect songs that were already performed.
func NormalizeSongKey(title, author string) string {
	return NormalizeText(title) + "|" + NormalizeText(author)
}
