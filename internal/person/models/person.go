// Package models holds the person aggregate and its value objects.
package models

import (
	"slices"
	"time"

	id "rollcall/pkg/domain"
)

// Person is the person aggregate. It carries its group membership list
// from the person side; the membership service keeps the edge store and
// the group side in sync. Cross-aggregate invariants (group-name
// uniqueness, coordinator membership) live in the services, not here.
type Person struct {
	ID           id.PersonID
	Name         PersonName
	DateOfBirth  time.Time // zero value means unknown
	Address      *Address
	PhoneNumber  PhoneNumber
	EmailAddress EmailAddress
	GroupIDs     []id.GroupID
}

// NewPerson creates a person with a fresh id and the given name.
func NewPerson(name PersonName) *Person {
	return &Person{ID: id.NewPersonID(), Name: name}
}

func (p *Person) UpdateName(name PersonName) {
	p.Name = name
}

func (p *Person) UpdateDateOfBirth(dob time.Time) {
	p.DateOfBirth = dob
}

// UpdateAddress replaces the address; nil clears it. An empty address
// is stored as absent.
func (p *Person) UpdateAddress(a *Address) {
	if a != nil && a.IsEmpty() {
		a = nil
	}
	p.Address = a
}

func (p *Person) UpdatePhoneNumber(phone PhoneNumber) {
	p.PhoneNumber = phone
}

func (p *Person) UpdateEmailAddress(email EmailAddress) {
	p.EmailAddress = email
}

// AddToGroup records membership on the person side. Idempotent.
func (p *Person) AddToGroup(groupID id.GroupID) {
	if !p.IsMemberOf(groupID) {
		p.GroupIDs = append(p.GroupIDs, groupID)
	}
}

// RemoveFromGroup drops the membership if present. Idempotent.
func (p *Person) RemoveFromGroup(groupID id.GroupID) {
	p.GroupIDs = slices.DeleteFunc(p.GroupIDs, func(g id.GroupID) bool {
		return g == groupID
	})
}

// IsMemberOf reports whether the person belongs to the group.
func (p *Person) IsMemberOf(groupID id.GroupID) bool {
	return slices.Contains(p.GroupIDs, groupID)
}

// Clone returns a deep copy, detached from store-internal state.
func (p *Person) Clone() *Person {
	c := *p
	if p.Address != nil {
		addr := *p.Address
		c.Address = &addr
	}
	c.GroupIDs = slices.Clone(p.GroupIDs)
	return &c
}
