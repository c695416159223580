package helper

import (
	"errors"
	"strings"
	"unicode"
)

var ErrInvalidPhone = errors.New("invalid phone number")

const normalizedPhoneLen = 13

// NormalizePhone turns local and international spellings of a mobile number
// into +<country><subscriber>. Letters anywhere in the input reject it outright.
//
//	0712345678     -> +254712345678
//	254712345678   -> +254712345678
//	712345678      -> +254712345678
func NormalizePhone(raw, countryPrefix string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrInvalidPhone
	}
	if countryPrefix == "" {
		countryPrefix = "254"
	}

	var b strings.Builder
	for i, r := range raw {
		switch {
		case unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '+' && i == 0:
		case r == ' ' || r == '-' || r == '(' || r == ')' || r == '.':
		default:
			return "", ErrInvalidPhone
		}
	}
	digits := b.String()

	switch {
	case strings.HasPrefix(digits, "0"):
		digits = countryPrefix + digits[1:]
	case strings.HasPrefix(digits, countryPrefix):
	case len(digits) == 9:
		digits = countryPrefix + digits
	}

	out := "+" + digits
	if len(out) != normalizedPhoneLen {
		return "", ErrInvalidPhone
	}
	return out, nil
}
