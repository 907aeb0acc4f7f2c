package utils

import (
	"errors"
	"strings"
	"unicode"
)

// ErrInvalidPhone is returned for inputs that cannot be normalized to a
// Russian mobile number.
var ErrInvalidPhone = errors.New("invalid phone number")

// NormalizePhone reduces any reasonable spelling of a Russian phone number
// to the canonical +7XXXXXXXXXX form. Accepted inputs are 10 digits (bare
// subscriber number) or 11 digits starting with 7 or 8; everything else is
// rejected.
func NormalizePhone(raw string) (string, error) {
	var digits strings.Builder
	for _, r := range raw {
		if unicode.IsDigit(r) {
			digits.WriteRune(r)
		}
	}

	s := digits.String()
	switch len(s) {
	case 10:
		return "+7" + s, nil
	case 11:
		if s[0] == '7' || s[0] == '8' {
			return "+7" + s[1:], nil
		}
	}

	return "", ErrInvalidPhone
}

// PrettyPhone formats a canonical +7XXXXXXXXXX number for display:
// +7 (XXX) XXX-XX-XX. Non-canonical input is returned unchanged.
func PrettyPhone(phone string) string {
	if len(phone) != 12 || !strings.HasPrefix(phone, "+7") {
		return phone
	}
	d := phone[2:]
	return "+7 (" + d[0:3] + ") " + d[3:6] + "-" + d[6:8] + "-" + d[8:10]
}
