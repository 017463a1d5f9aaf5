package collection

import (
	"unicode"
	"unicode/utf8"
)

// NaturalLess reports whether a sorts before b under a human-friendly
// ordering: letters compare case-insensitively and runs of digits compare
// by numeric value, so "file2" comes before "file10" and "Report" sits
// next to "report". Use with a stable sort; strings that differ only in
// case or leading zeros compare equal.
func NaturalLess(a, b string) bool {
	for len(a) > 0 && len(b) > 0 {
		if isDigit(a[0]) && isDigit(b[0]) {
			an, aRest := takeDigits(a)
			bn, bRest := takeDigits(b)
			if c := compareNumeric(an, bn); c != 0 {
				return c < 0
			}
			a, b = aRest, bRest
			continue
		}
		ar, an := utf8.DecodeRuneInString(a)
		br, bn := utf8.DecodeRuneInString(b)
		al, bl := unicode.ToLower(ar), unicode.ToLower(br)
		if al != bl {
			return al < bl
		}
		a, b = a[an:], b[bn:]
	}
	return len(a) < len(b) // a is a strict prefix of b
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func takeDigits(s string) (digits, rest string) {
	i := 0
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	return s[:i], s[i:]
}

// compareNumeric compares two digit runs by value. Leading zeros are
// ignored, so "007" and "7" compare equal.
func compareNumeric(a, b string) int {
	a = trimZeros(a)
	b = trimZeros(b)
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func trimZeros(s string) string {
	i := 0
	for i < len(s)-1 && s[i] == '0' {
		i++
	}
	return s[i:]
}
