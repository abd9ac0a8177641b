// Package memory provides an in-memory store implementing the person,
// group and membership contracts. It keeps the initial implementation
// lightweight and testable, favoring clarity over performance. The
// membership edges are the source of truth for member lists; aggregates
// are hydrated from them on read.
package memory

import (
	"context"
	"slices"
	"sync"

	groupmodels "rollcall/internal/group/models"
	"rollcall/internal/membership"
	personmodels "rollcall/internal/person/models"
	id "rollcall/pkg/domain"
	"rollcall/pkg/platform/sentinel"
)

type edgeKey struct {
	personID id.PersonID
	groupID  id.GroupID
}

// Store holds all records behind one lock so cascade deletes stay
// atomic without cross-store coordination.
type Store struct {
	mu      sync.RWMutex
	persons map[id.PersonID]*personmodels.Person
	groups  map[id.GroupID]*groupmodels.Group

	// Insertion order, for deterministic listings.
	personOrder []id.PersonID
	groupOrder  []id.GroupID
	edges       []edgeKey
}

// New constructs an empty Store.
func New() *Store {
	return &Store{
		persons: make(map[id.PersonID]*personmodels.Person),
		groups:  make(map[id.GroupID]*groupmodels.Group),
	}
}

// Init satisfies the schema-ensure contract; nothing to do in memory.
func (s *Store) Init(context.Context) error { return nil }

// --- person store ---

func (s *Store) FindByID(_ context.Context, personID id.PersonID) (*personmodels.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	person, ok := s.persons[personID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.hydratePerson(person), nil
}

func (s *Store) List(_ context.Context) ([]*personmodels.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*personmodels.Person, 0, len(s.personOrder))
	for _, personID := range s.personOrder {
		out = append(out, s.hydratePerson(s.persons[personID]))
	}
	return out, nil
}

func (s *Store) ListByGroup(_ context.Context, groupID id.GroupID) ([]*personmodels.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*personmodels.Person
	for _, e := range s.edges {
		if e.groupID == groupID {
			if person, ok := s.persons[e.personID]; ok {
				out = append(out, s.hydratePerson(person))
			}
		}
	}
	return out, nil
}

func (s *Store) Save(_ context.Context, person *personmodels.Person) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.persons[person.ID]; !ok {
		s.personOrder = append(s.personOrder, person.ID)
	}
	s.persons[person.ID] = person.Clone()
	return nil
}

func (s *Store) Update(_ context.Context, person *personmodels.Person) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.persons[person.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.persons[person.ID] = person.Clone()
	return nil
}

// Delete removes the person, cascades their membership edges and clears
// any coordinator references to them.
func (s *Store) Delete(_ context.Context, personID id.PersonID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.persons[personID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.persons, personID)
	s.personOrder = slices.DeleteFunc(s.personOrder, func(p id.PersonID) bool { return p == personID })
	s.edges = slices.DeleteFunc(s.edges, func(e edgeKey) bool { return e.personID == personID })
	for _, group := range s.groups {
		if group.CoordinatorID != nil && *group.CoordinatorID == personID {
			group.CoordinatorID = nil
		}
	}
	return nil
}

func (s *Store) Exists(_ context.Context, personID id.PersonID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.persons[personID]
	return ok, nil
}

// --- group store ---

func (s *Store) FindGroupByID(_ context.Context, groupID id.GroupID) (*groupmodels.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	group, ok := s.groups[groupID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.hydrateGroup(group), nil
}

func (s *Store) ListGroups(_ context.Context) ([]*groupmodels.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*groupmodels.Group, 0, len(s.groupOrder))
	for _, groupID := range s.groupOrder {
		out = append(out, s.hydrateGroup(s.groups[groupID]))
	}
	return out, nil
}

func (s *Store) ListGroupsByPerson(_ context.Context, personID id.PersonID) ([]*groupmodels.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*groupmodels.Group
	for _, e := range s.edges {
		if e.personID == personID {
			if group, ok := s.groups[e.groupID]; ok {
				out = append(out, s.hydrateGroup(group))
			}
		}
	}
	return out, nil
}

func (s *Store) SaveGroup(_ context.Context, group *groupmodels.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.groups {
		if existing.ID != group.ID && existing.Name == group.Name {
			return sentinel.ErrConflict
		}
	}
	if _, ok := s.groups[group.ID]; !ok {
		s.groupOrder = append(s.groupOrder, group.ID)
	}
	s.groups[group.ID] = group.Clone()
	return nil
}

func (s *Store) UpdateGroup(_ context.Context, group *groupmodels.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[group.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.groups[group.ID] = group.Clone()
	return nil
}

func (s *Store) DeleteGroup(_ context.Context, groupID id.GroupID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[groupID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.groups, groupID)
	s.groupOrder = slices.DeleteFunc(s.groupOrder, func(g id.GroupID) bool { return g == groupID })
	s.edges = slices.DeleteFunc(s.edges, func(e edgeKey) bool { return e.groupID == groupID })
	return nil
}

func (s *Store) GroupExists(_ context.Context, groupID id.GroupID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.groups[groupID]
	return ok, nil
}

// IsNameUnique checks for a case-sensitive exact name collision,
// optionally ignoring one group (the one being renamed).
func (s *Store) IsNameUnique(_ context.Context, name string, excludeID *id.GroupID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, group := range s.groups {
		if excludeID != nil && group.ID == *excludeID {
			continue
		}
		if group.Name == name {
			return false, nil
		}
	}
	return true, nil
}

// --- membership store ---

func (s *Store) AddEdge(_ context.Context, personID id.PersonID, groupID id.GroupID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := edgeKey{personID: personID, groupID: groupID}
	if slices.Contains(s.edges, key) {
		return sentinel.ErrConflict
	}
	s.edges = append(s.edges, key)
	return nil
}

func (s *Store) RemoveEdge(_ context.Context, personID id.PersonID, groupID id.GroupID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := edgeKey{personID: personID, groupID: groupID}
	if !slices.Contains(s.edges, key) {
		return sentinel.ErrNotFound
	}
	s.edges = slices.DeleteFunc(s.edges, func(e edgeKey) bool { return e == key })
	return nil
}

func (s *Store) EdgeExists(_ context.Context, personID id.PersonID, groupID id.GroupID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Contains(s.edges, edgeKey{personID: personID, groupID: groupID}), nil
}

func (s *Store) ListGroupsForPerson(_ context.Context, personID id.PersonID) ([]id.GroupID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []id.GroupID
	for _, e := range s.edges {
		if e.personID == personID {
			out = append(out, e.groupID)
		}
	}
	return out, nil
}

func (s *Store) ListPersonsForGroup(_ context.Context, groupID id.GroupID) ([]id.PersonID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []id.PersonID
	for _, e := range s.edges {
		if e.groupID == groupID {
			out = append(out, e.personID)
		}
	}
	return out, nil
}

func (s *Store) ListAll(_ context.Context) ([]membership.Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]membership.Edge, 0, len(s.edges))
	for _, e := range s.edges {
		out = append(out, membership.Edge{PersonID: e.personID, GroupID: e.groupID})
	}
	return out, nil
}

// hydratePerson clones the stored person and fills the membership list
// from the edges. Callers must hold the lock.
func (s *Store) hydratePerson(person *personmodels.Person) *personmodels.Person {
	out := person.Clone()
	out.GroupIDs = nil
	for _, e := range s.edges {
		if e.personID == person.ID {
			out.GroupIDs = append(out.GroupIDs, e.groupID)
		}
	}
	return out
}

// hydrateGroup clones the stored group and fills the member list from
// the edges. Callers must hold the lock.
func (s *Store) hydrateGroup(group *groupmodels.Group) *groupmodels.Group {
	out := group.Clone()
	out.MemberIDs = nil
	for _, e := range s.edges {
		if e.groupID == group.ID {
			out.MemberIDs = append(out.MemberIDs, e.personID)
		}
	}
	return out
}
