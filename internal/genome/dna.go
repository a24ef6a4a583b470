package genome

import "strings"

var complement = map[byte]byte{
	'A': 'T', 'T': 'A', 'C': 'G', 'G': 'C',
	'a': 't', 't': 'a', 'c': 'g', 'g': 'c',
}

// IsACGT reports whether s is non-empty and every byte is one of
// A/C/G/T in either case.
func IsACGT(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if _, ok := complement[s[i]]; !ok {
			return false
		}
	}
	return true
}

// ReverseComplement returns the reverse complement of s, preserving case.
// Bytes outside A/C/G/T pass through unchanged (only reversed).
func ReverseComplement(s string) string {
	n := len(s)
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		b := s[n-1-i]
		if c, ok := complement[b]; ok {
			out[i] = c
		} else {
			out[i] = b
		}
	}
	return string(out)
}

// EqualFold reports whether a and b are equal ignoring case, a thin
// wrapper kept so callers don't import strings directly for this one
// comparison.
func EqualFold(a, b string) bool {
	return strings.EqualFold(a, b)
}
