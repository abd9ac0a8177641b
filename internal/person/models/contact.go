package models

import (
	"regexp"
	"strings"

	dErrors "rollcall/pkg/domain-errors"
)

// EmailAddress is a validated, normalized (lower-cased) email address.
// The zero value means absent.
type EmailAddress string

// PhoneNumber is a validated phone number. The zero value means absent.
type PhoneNumber string

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ParseEmailAddress returns the absent value for blank input and a
// CodeValidation error for anything that does not look like
// local@domain.tld. Valid addresses are trimmed and lower-cased.
func ParseEmailAddress(raw string) (EmailAddress, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", nil
	}
	if !emailPattern.MatchString(trimmed) {
		return "", dErrors.Newf(dErrors.CodeValidation, "invalid email address format: %q", trimmed)
	}
	return EmailAddress(strings.ToLower(trimmed)), nil
}

// ParsePhoneNumber returns the absent value for blank input. A phone
// number must be at least 10 characters drawn from digits, spaces and
// the punctuation conventionally found in phone numbers.
func ParsePhoneNumber(raw string) (PhoneNumber, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", nil
	}
	if len(trimmed) < 10 {
		return "", dErrors.Newf(dErrors.CodeValidation, "phone number too short: %q", trimmed)
	}
	for _, r := range trimmed {
		switch {
		case r >= '0' && r <= '9':
		case r == ' ' || r == '+' || r == '-' || r == '(' || r == ')' || r == '.':
		default:
			return "", dErrors.Newf(dErrors.CodeValidation, "invalid character in phone number: %q", trimmed)
		}
	}
	return PhoneNumber(trimmed), nil
}

func (e EmailAddress) String() string { return string(e) }

func (p PhoneNumber) String() string { return string(p) }
