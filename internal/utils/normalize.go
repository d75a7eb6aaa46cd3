package utils

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Lowercase returns s lowercased when enabled, s unchanged otherwise.
func Lowercase(s string, enabled bool) string {
	if !enabled {
		return s
	}
	return strings.ToLower(s)
}

// StripDiacritics decomposes s (NFD) and drops every combining mark,
// so "café" becomes "cafe".
func StripDiacritics(s string) string {
	if isASCII(s) {
		return s
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Normalize applies the same folding to indexed words and to queries.
// Both paths must call it with identical flags.
func Normalize(s string, ignoreCase, ignoreDiacritics bool) string {
	s = Lowercase(s, ignoreCase)
	if ignoreDiacritics {
		s = StripDiacritics(s)
	}
	return s
}

// PrefixMatch reports whether candidate starts with query.
// Callers normalize both sides first.
func PrefixMatch(candidate, query string) bool {
	return strings.HasPrefix(candidate, query)
}

// FirstChar returns the first rune of s as a string, or "" for empty input.
func FirstChar(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError && size <= 1 {
		return ""
	}
	return s[:size]
}

// RuneTail returns the runes of s after the first n.
func RuneTail(s string, n int) string {
	if n <= 0 {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[pos:]
		}
		i++
	}
	return ""
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
