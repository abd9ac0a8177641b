// Package domain holds the typed identifiers shared across features.
// Wrapping uuid.UUID in distinct named types makes it impossible to
// pass a group id where a person id is expected.
package domain

import (
	"github.com/google/uuid"

	dErrors "rollcall/pkg/domain-errors"
)

// PersonID identifies a person. Generated at creation time, immutable.
type PersonID uuid.UUID

// GroupID identifies a group. Generated at creation time, immutable.
type GroupID uuid.UUID

// NewPersonID returns a fresh random person id.
func NewPersonID() PersonID {
	return PersonID(uuid.New())
}

// NewGroupID returns a fresh random group id.
func NewGroupID() GroupID {
	return GroupID(uuid.New())
}

// ParsePersonID validates and converts a string into a PersonID.
// IDs must be valid, non-nil UUIDs.
func ParsePersonID(s string) (PersonID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return PersonID{}, err
	}
	return PersonID(u), nil
}

// ParseGroupID validates and converts a string into a GroupID.
func ParseGroupID(s string) (GroupID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return GroupID{}, err
	}
	return GroupID(u), nil
}

func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "id must be a valid uuid")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be the nil uuid")
	}
	return u, nil
}

func (id PersonID) String() string { return uuid.UUID(id).String() }

func (id GroupID) String() string { return uuid.UUID(id).String() }

// IsNil reports whether the id is the zero value.
func (id PersonID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// IsNil reports whether the id is the zero value.
func (id GroupID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
