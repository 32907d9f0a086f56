package scraper

import "strings"

// NormalizePrice keeps only ASCII digits and '.' from s. It is purely
// character based: "was £5 now £3" becomes "53". An input with no digits
// yields "", never "0".
func NormalizePrice(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if c := s[i]; (c >= '0' && c <= '9') || c == '.' {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// MatchesTerm reports whether name contains term, ignoring case.
func MatchesTerm(name, term string) bool {
	return strings.Contains(strings.ToLower(name), strings.ToLower(term))
}
