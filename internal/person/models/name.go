package models

import (
	"strings"

	dErrors "rollcall/pkg/domain-errors"
)

// PersonName is the structured name of a person. Prefix and Surname are
// optional; the empty string means absent. FullName is the identity key
// the import pipeline matches on, so its shape must stay stable.
type PersonName struct {
	FirstName string
	Prefix    string
	Surname   string
}

// NewPersonName validates and normalizes the parts. FirstName must be
// non-blank after trimming; blank optional parts collapse to absent.
func NewPersonName(firstName, prefix, surname string) (PersonName, error) {
	firstName = strings.TrimSpace(firstName)
	if firstName == "" {
		return PersonName{}, dErrors.New(dErrors.CodeValidation, "first name is required")
	}
	return PersonName{
		FirstName: firstName,
		Prefix:    strings.TrimSpace(prefix),
		Surname:   strings.TrimSpace(surname),
	}, nil
}

// FullName joins the present parts with single spaces.
func (n PersonName) FullName() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{n.FirstName, n.Prefix, n.Surname} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

func (n PersonName) String() string { return n.FullName() }
