package utils

import "strings"

// IsResidue reports whether c can appear in a sequence: an ASCII letter or '*' (stop)
func IsResidue(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || c == '*'
}

// IsValidQuery checks if input should be processed as a sequence.
// Returns false for empty strings and strings holding anything but residues.
func IsValidQuery(s string) bool {
	if len(s) == 0 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !IsResidue(s[i]) {
			return false
		}
	}
	return true
}

// FirstForeign returns the index of the first byte of s that is not in alphabet, or -1
func FirstForeign(s, alphabet string) int {
	for i := 0; i < len(s); i++ {
		if strings.IndexByte(alphabet, s[i]) < 0 {
			return i
		}
	}
	return -1
}

// IsRepetitive checks if a string consists of one repeated character (e.g. "AAAA").
// Such low-complexity queries produce the same neighborhood at every offset.
func IsRepetitive(s string) bool {
	if len(s) <= 2 {
		return false
	}
	for i := 1; i < len(s); i++ {
		if s[i] != s[0] {
			return false
		}
	}
	return true
}
