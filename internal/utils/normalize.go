package utils

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// NormalizeQuery folds pasted sequence text into matrix symbols.
// NFKC maps full-width letters to ASCII; whitespace, control characters and
// digits (GenBank position columns) are dropped and letters are upper-cased.
func NormalizeQuery(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || unicode.IsControl(r) || unicode.IsDigit(r) {
			return -1
		}
		return unicode.ToUpper(r)
	}, norm.NFKC.String(s))
}
