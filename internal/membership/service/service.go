// Package service implements membership commands. Adding and removing
// are idempotent by explicit existence checks rather than by catching
// already-exists failures, so storage conflicts keep meaning something.
package service

import (
	"context"
	"errors"
	"log/slog"

	groupmodels "rollcall/internal/group/models"
	"rollcall/internal/membership"
	id "rollcall/pkg/domain"
	dErrors "rollcall/pkg/domain-errors"
	"rollcall/pkg/platform/sentinel"
)

// Store is the membership edge repository contract.
type Store interface {
	Add(ctx context.Context, personID id.PersonID, groupID id.GroupID) error
	Remove(ctx context.Context, personID id.PersonID, groupID id.GroupID) error
	Exists(ctx context.Context, personID id.PersonID, groupID id.GroupID) (bool, error)
	ListGroupsForPerson(ctx context.Context, personID id.PersonID) ([]id.GroupID, error)
	ListPersonsForGroup(ctx context.Context, groupID id.GroupID) ([]id.PersonID, error)
	ListAll(ctx context.Context) ([]membership.Edge, error)
}

// PersonChecker answers whether a person exists.
type PersonChecker interface {
	Exists(ctx context.Context, personID id.PersonID) (bool, error)
}

// GroupStore provides the group operations membership removal needs to
// keep the coordinator-in-members invariant intact.
type GroupStore interface {
	FindByID(ctx context.Context, groupID id.GroupID) (*groupmodels.Group, error)
	Update(ctx context.Context, group *groupmodels.Group) error
	Exists(ctx context.Context, groupID id.GroupID) (bool, error)
}

// Service manages membership edges.
type Service struct {
	edges   Store
	persons PersonChecker
	groups  GroupStore
	logger  *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// New constructs a Service.
func New(edges Store, persons PersonChecker, groups GroupStore, opts ...Option) *Service {
	s := &Service{edges: edges, persons: persons, groups: groups, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddPersonToGroup creates the edge. Adding an existing membership is a
// no-op, not an error.
func (s *Service) AddPersonToGroup(ctx context.Context, personID id.PersonID, groupID id.GroupID) error {
	if err := s.requireEndpoints(ctx, personID, groupID); err != nil {
		return err
	}

	exists, err := s.edges.Exists(ctx, personID, groupID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "check membership")
	}
	if exists {
		return nil
	}

	if err := s.edges.Add(ctx, personID, groupID); err != nil {
		// A concurrent interactive writer may have created the edge
		// between the check and the add; that is still the no-op case.
		if errors.Is(err, sentinel.ErrConflict) {
			return nil
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "add membership")
	}
	return nil
}

// RemovePersonFromGroup removes the edge if present. When the removed
// member is the group's coordinator, the coordinator is cleared in the
// same operation.
func (s *Service) RemovePersonFromGroup(ctx context.Context, personID id.PersonID, groupID id.GroupID) error {
	group, err := s.groups.FindByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "group not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "load group")
	}

	if err := s.edges.Remove(ctx, personID, groupID); err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "remove membership")
		}
	}

	if group.CoordinatorID != nil && *group.CoordinatorID == personID {
		group.RemoveMember(personID)
		if err := s.groups.Update(ctx, group); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "clear coordinator")
		}
	}
	return nil
}

// ListGroupsForPerson returns the group ids a person belongs to.
func (s *Service) ListGroupsForPerson(ctx context.Context, personID id.PersonID) ([]id.GroupID, error) {
	groupIDs, err := s.edges.ListGroupsForPerson(ctx, personID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list groups for person")
	}
	return groupIDs, nil
}

// ListPersonsForGroup returns the member ids of a group.
func (s *Service) ListPersonsForGroup(ctx context.Context, groupID id.GroupID) ([]id.PersonID, error) {
	personIDs, err := s.edges.ListPersonsForGroup(ctx, groupID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list persons for group")
	}
	return personIDs, nil
}

// ListAll returns every membership edge.
func (s *Service) ListAll(ctx context.Context) ([]membership.Edge, error) {
	edges, err := s.edges.ListAll(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list memberships")
	}
	return edges, nil
}

func (s *Service) requireEndpoints(ctx context.Context, personID id.PersonID, groupID id.GroupID) error {
	personExists, err := s.persons.Exists(ctx, personID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "check person")
	}
	if !personExists {
		return dErrors.Newf(dErrors.CodeNotFound, "person %s not found", personID)
	}
	groupExists, err := s.groups.Exists(ctx, groupID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "check group")
	}
	if !groupExists {
		return dErrors.Newf(dErrors.CodeNotFound, "group %s not found", groupID)
	}
	return nil
}
