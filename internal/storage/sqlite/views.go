package sqlite

import (
	"context"

	groupmodels "rollcall/internal/group/models"
	"rollcall/internal/membership"
	id "rollcall/pkg/domain"
)

// Groups returns the group-repository view of the store.
func (s *Store) Groups() *GroupStore { return &GroupStore{s: s} }

// Memberships returns the membership-edge view of the store.
func (s *Store) Memberships() *MembershipStore { return &MembershipStore{s: s} }

type GroupStore struct{ s *Store }

func (v *GroupStore) FindByID(ctx context.Context, groupID id.GroupID) (*groupmodels.Group, error) {
	return v.s.FindGroupByID(ctx, groupID)
}

func (v *GroupStore) List(ctx context.Context) ([]*groupmodels.Group, error) {
	return v.s.ListGroups(ctx)
}

func (v *GroupStore) ListByPerson(ctx context.Context, personID id.PersonID) ([]*groupmodels.Group, error) {
	return v.s.ListGroupsByPerson(ctx, personID)
}

func (v *GroupStore) Save(ctx context.Context, group *groupmodels.Group) error {
	return v.s.SaveGroup(ctx, group)
}

func (v *GroupStore) Update(ctx context.Context, group *groupmodels.Group) error {
	return v.s.UpdateGroup(ctx, group)
}

func (v *GroupStore) Delete(ctx context.Context, groupID id.GroupID) error {
	return v.s.DeleteGroup(ctx, groupID)
}

func (v *GroupStore) Exists(ctx context.Context, groupID id.GroupID) (bool, error) {
	return v.s.GroupExists(ctx, groupID)
}

func (v *GroupStore) IsNameUnique(ctx context.Context, name string, excludeID *id.GroupID) (bool, error) {
	return v.s.IsNameUnique(ctx, name, excludeID)
}

type MembershipStore struct{ s *Store }

func (v *MembershipStore) Add(ctx context.Context, personID id.PersonID, groupID id.GroupID) error {
	return v.s.AddEdge(ctx, personID, groupID)
}

func (v *MembershipStore) Remove(ctx context.Context, personID id.PersonID, groupID id.GroupID) error {
	return v.s.RemoveEdge(ctx, personID, groupID)
}

func (v *MembershipStore) Exists(ctx context.Context, personID id.PersonID, groupID id.GroupID) (bool, error) {
	return v.s.EdgeExists(ctx, personID, groupID)
}

func (v *MembershipStore) ListGroupsForPerson(ctx context.Context, personID id.PersonID) ([]id.GroupID, error) {
	return v.s.ListGroupsForPerson(ctx, personID)
}

func (v *MembershipStore) ListPersonsForGroup(ctx context.Context, groupID id.GroupID) ([]id.PersonID, error) {
	return v.s.ListPersonsForGroup(ctx, groupID)
}

func (v *MembershipStore) ListAll(ctx context.Context) ([]membership.Edge, error) {
	return v.s.ListAll(ctx)
}
