// Package service implements the group commands. Cross-aggregate
// invariants are enforced here: group names stay unique (case-sensitive
// exact match, checked explicitly before every write) and a coordinator
// can only be set when they are a current member of the group.
package service

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"rollcall/internal/audit"
	"rollcall/internal/group/models"
	id "rollcall/pkg/domain"
	dErrors "rollcall/pkg/domain-errors"
	"rollcall/pkg/platform/sentinel"
)

// Store is the group repository contract consumed by the service.
// Deleting a group cascades its membership edges in the store.
type Store interface {
	FindByID(ctx context.Context, groupID id.GroupID) (*models.Group, error)
	List(ctx context.Context) ([]*models.Group, error)
	ListByPerson(ctx context.Context, personID id.PersonID) ([]*models.Group, error)
	Save(ctx context.Context, group *models.Group) error
	Update(ctx context.Context, group *models.Group) error
	Delete(ctx context.Context, groupID id.GroupID) error
	Exists(ctx context.Context, groupID id.GroupID) (bool, error)
	IsNameUnique(ctx context.Context, name string, excludeID *id.GroupID) (bool, error)
}

// PersonChecker answers whether a person exists.
type PersonChecker interface {
	Exists(ctx context.Context, personID id.PersonID) (bool, error)
}

// MembershipReader lists the current members of a group.
type MembershipReader interface {
	ListPersonsForGroup(ctx context.Context, groupID id.GroupID) ([]id.PersonID, error)
}

// Service orchestrates group commands on top of the stores.
type Service struct {
	groups      Store
	persons     PersonChecker
	memberships MembershipReader
	logger      *slog.Logger
	auditor     audit.Publisher
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(p audit.Publisher) Option {
	return func(s *Service) { s.auditor = p }
}

// New constructs a Service.
func New(groups Store, persons PersonChecker, memberships MembershipReader, opts ...Option) *Service {
	s := &Service{
		groups:      groups,
		persons:     persons,
		memberships: memberships,
		logger:      slog.Default(),
		auditor:     audit.NoopPublisher{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create makes a new group. A coordinator may be set at creation and
// only needs to exist; the membership requirement applies on update,
// when the group can actually have members.
func (s *Service) Create(ctx context.Context, name string, coordinatorID *id.PersonID) (*models.Group, error) {
	group, err := models.NewGroup(name)
	if err != nil {
		return nil, err
	}

	unique, err := s.groups.IsNameUnique(ctx, group.Name, nil)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "check group name")
	}
	if !unique {
		return nil, dErrors.Newf(dErrors.CodeConflict, "a group named %q already exists", group.Name)
	}

	if coordinatorID != nil {
		if err := s.requirePerson(ctx, *coordinatorID); err != nil {
			return nil, err
		}
		group.SetCoordinator(coordinatorID)
	}

	if err := s.groups.Save(ctx, group); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.Newf(dErrors.CodeConflict, "a group named %q already exists", group.Name)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "save group")
	}

	s.logger.Info("group created", "group_id", group.ID, "name", group.Name)
	s.emit(ctx, audit.New(audit.EventGroupCreated).WithEntity(group.ID.String()))
	return group, nil
}

// Update renames the group and/or changes its coordinator. Setting a
// coordinator requires that person to be a current member; nil clears
// the coordinator.
func (s *Service) Update(ctx context.Context, groupID id.GroupID, name string, coordinatorID *id.PersonID) error {
	group, err := s.find(ctx, groupID)
	if err != nil {
		return err
	}

	if err := group.UpdateName(name); err != nil {
		return err
	}
	unique, err := s.groups.IsNameUnique(ctx, group.Name, &groupID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "check group name")
	}
	if !unique {
		return dErrors.Newf(dErrors.CodeConflict, "a group named %q already exists", group.Name)
	}

	if coordinatorID != nil {
		if err := s.requirePerson(ctx, *coordinatorID); err != nil {
			return err
		}
		memberIDs, err := s.memberships.ListPersonsForGroup(ctx, groupID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "list group members")
		}
		if !slices.Contains(memberIDs, *coordinatorID) {
			return dErrors.New(dErrors.CodeInvariantViolation, "coordinator must be a member of the group")
		}
		group.SetCoordinator(coordinatorID)
	} else {
		group.SetCoordinator(nil)
	}

	if err := s.groups.Update(ctx, group); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "update group")
	}
	return nil
}

// Delete removes the group; membership edges cascade in the store.
func (s *Service) Delete(ctx context.Context, groupID id.GroupID) error {
	if err := s.groups.Delete(ctx, groupID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "group not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "delete group")
	}
	s.emit(ctx, audit.New(audit.EventGroupDeleted).WithEntity(groupID.String()))
	return nil
}

// Get fetches a group by id.
func (s *Service) Get(ctx context.Context, groupID id.GroupID) (*models.Group, error) {
	return s.find(ctx, groupID)
}

// List returns all groups.
func (s *Service) List(ctx context.Context) ([]*models.Group, error) {
	groups, err := s.groups.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list groups")
	}
	return groups, nil
}

// ListByPerson returns the groups a person belongs to.
func (s *Service) ListByPerson(ctx context.Context, personID id.PersonID) ([]*models.Group, error) {
	groups, err := s.groups.ListByPerson(ctx, personID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list groups by person")
	}
	return groups, nil
}

func (s *Service) find(ctx context.Context, groupID id.GroupID) (*models.Group, error) {
	group, err := s.groups.FindByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "group not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load group")
	}
	return group, nil
}

func (s *Service) requirePerson(ctx context.Context, personID id.PersonID) error {
	exists, err := s.persons.Exists(ctx, personID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "check coordinator")
	}
	if !exists {
		return dErrors.Newf(dErrors.CodeNotFound, "coordinator %s not found", personID)
	}
	return nil
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.Warn("audit emit failed", "event", event.Type, "error", err)
	}
}
