// Package validate holds the storefront's input validation rules.
package validate

import (
	"regexp"
	"unicode"
)

var (
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	// Mainland mobile numbers: 11 digits starting 13-19.
	phoneRe = regexp.MustCompile(`^1[3-9]\d{9}$`)

	passwordCharset = regexp.MustCompile(`^[A-Za-z\d@$!%*#?&]+$`)
)

func Email(s string) bool {
	return emailRe.MatchString(s)
}

func Phone(s string) bool {
	return phoneRe.MatchString(s)
}

// Password requires at least 8 characters from the allowed set, containing
// both a letter and a digit.
func Password(s string) bool {
	if len(s) < 8 || !passwordCharset.MatchString(s) {
		return false
	}
	hasLetter, hasDigit := false, false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	return hasLetter && hasDigit
}
