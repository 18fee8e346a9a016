// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package validate

import (
	"regexp"
	"strings"
	"unicode"
)

// # Credential Policy Rules
//
// Stateless predicates. They never mutate or repair their input and are safe
// for concurrent use.

// mobileRegex matches a normalized domestic mobile number: the 01 prefix, a
// carrier block of 0, 1 or 6, then a 7 or 8 digit subscriber number.
var mobileRegex = regexp.MustCompile(`^01[016][0-9]{7,8}$`)

// HasRequiredCaseVariety reports whether s contains both an uppercase and a
// lowercase letter.
//
// In non-strict mode any Unicode cased letter counts. In strict mode only the
// ASCII Latin letters A-Z and a-z count.
func HasRequiredCaseVariety(s string, strict bool) bool {
	var hasUpper, hasLower bool

	for _, r := range s {
		if strict && r > unicode.MaxASCII {
			continue
		}
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		}
		if hasUpper && hasLower {
			return true
		}
	}

	return false
}

// HasDigit reports whether s contains at least one decimal digit (0-9).
func HasDigit(s string) bool {
	return strings.IndexFunc(s, isASCIIDigit) >= 0
}

// HasSpecialChar reports whether s contains at least one character outside
// the ASCII alphanumeric set.
func HasSpecialChar(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool {
		return !isASCIIAlphanumeric(r)
	}) >= 0
}

// IsValidMobileShape strips every non-digit character from s and reports
// whether the remaining digits form a valid mobile number.
//
// "010-1234-5678" normalizes to "01012345678" and is accepted.
func IsValidMobileShape(s string) bool {
	return mobileRegex.MatchString(digitsOnly(s))
}

// digitsOnly removes every rune that is not an ASCII digit.
func digitsOnly(s string) string {
	var builder strings.Builder
	builder.Grow(len(s))

	for _, r := range s {
		if isASCIIDigit(r) {
			builder.WriteRune(r)
		}
	}

	return builder.String()
}

func isASCIIDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isASCIIAlphanumeric(r rune) bool {
	return isASCIIDigit(r) || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
