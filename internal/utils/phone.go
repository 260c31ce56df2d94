package utils

import (
	"strings"
	"unicode"
)

// NormalizePhone drops whitespace and dashes and nothing else:
// "010 1234-5678" becomes "01012345678", "+82 10" becomes "+8210".
func NormalizePhone(phone string) string {
	return strings.Map(func(r rune) rune {
		if r == '-' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, phone)
}
