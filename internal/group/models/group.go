// Package models holds the group aggregate.
package models

import (
	"slices"
	"strings"

	id "rollcall/pkg/domain"
	dErrors "rollcall/pkg/domain-errors"
)

// Group is the group aggregate. Name uniqueness across groups is a
// cross-aggregate invariant enforced by the group service at write
// time; the coordinator-must-be-member rule is enforced there too. The
// aggregate only guarantees local consistency: removing the member who
// is coordinator clears the coordinator in the same operation.
type Group struct {
	ID            id.GroupID
	Name          string
	CoordinatorID *id.PersonID
	MemberIDs     []id.PersonID
}

// NewGroup creates a group with a fresh id, no coordinator and no
// members. The name must be non-blank after trimming.
func NewGroup(name string) (*Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "group name is required")
	}
	return &Group{ID: id.NewGroupID(), Name: name}, nil
}

// UpdateName re-validates that the name stays non-blank.
func (g *Group) UpdateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return dErrors.New(dErrors.CodeValidation, "group name is required")
	}
	g.Name = name
	return nil
}

// SetCoordinator assigns the coordinator; nil clears it.
func (g *Group) SetCoordinator(personID *id.PersonID) {
	g.CoordinatorID = personID
}

// AddMember records membership. Idempotent.
func (g *Group) AddMember(personID id.PersonID) {
	if !g.HasMember(personID) {
		g.MemberIDs = append(g.MemberIDs, personID)
	}
}

// RemoveMember drops the membership if present. When the removed member
// is the coordinator the coordinator is cleared as part of the same
// operation, so the coordinator-in-members invariant is never
// observably false.
func (g *Group) RemoveMember(personID id.PersonID) {
	g.MemberIDs = slices.DeleteFunc(g.MemberIDs, func(m id.PersonID) bool {
		return m == personID
	})
	if g.CoordinatorID != nil && *g.CoordinatorID == personID {
		g.CoordinatorID = nil
	}
}

// HasMember reports whether the person is a member.
func (g *Group) HasMember(personID id.PersonID) bool {
	return slices.Contains(g.MemberIDs, personID)
}

// MemberCount returns the number of members.
func (g *Group) MemberCount() int { return len(g.MemberIDs) }

// Clone returns a deep copy, detached from store-internal state.
func (g *Group) Clone() *Group {
	c := *g
	if g.CoordinatorID != nil {
		coord := *g.CoordinatorID
		c.CoordinatorID = &coord
	}
	c.MemberIDs = slices.Clone(g.MemberIDs)
	return &c
}
