package conversion

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// parseLeadingFloat reads the longest decimal number at the start of s,
// the way a browser's parseFloat does: leading whitespace is skipped,
// an optional sign, digits with an optional fraction and an optional
// exponent are consumed, and anything after the number is ignored.
//
// "12.5 acres" parses as 12.5, "1,000" as 1, and "abc" fails.
// Thousands separators are not accepted. Non-finite values fail.
func parseLeadingFloat(s string) (float64, bool) {
	s = strings.TrimLeftFunc(s, isLeadingSpace)

	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}

	intDigits := countDigits(s[end:])
	end += intDigits

	fracDigits := 0
	if end < len(s) && s[end] == '.' {
		fracDigits = countDigits(s[end+1:])
		if intDigits > 0 || fracDigits > 0 {
			end += 1 + fracDigits
		}
	}

	if intDigits == 0 && fracDigits == 0 {
		return 0, false
	}

	// An exponent only counts when at least one digit follows it.
	if end < len(s) && (s[end] == 'e' || s[end] == 'E') {
		j := end + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		if n := countDigits(s[j:]); n > 0 {
			end = j + n
		}
	}

	v, err := strconv.ParseFloat(s[:end], 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// countDigits returns the number of ASCII digits at the start of s.
func countDigits(s string) int {
	n := 0
	for n < len(s) && s[n] >= '0' && s[n] <= '9' {
		n++
	}
	return n
}

// isLeadingSpace matches what parseFloat skips. Two behaviors are
// intended: the word "Infinity" and overflowing inputs read as invalid
// rather than "∞", and a negative zero prints unsigned (see Format).
func isLeadingSpace(r rune) bool {
	return unicode.IsSpace(r) || r == '\uFEFF'
}
