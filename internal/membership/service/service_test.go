package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	groupmodels "rollcall/internal/group/models"
	membershipservice "rollcall/internal/membership/service"
	personmodels "rollcall/internal/person/models"
	"rollcall/internal/storage/memory"
	id "rollcall/pkg/domain"
	dErrors "rollcall/pkg/domain-errors"
)

type MembershipServiceSuite struct {
	suite.Suite
	ctx   context.Context
	store *memory.Store
	svc   *membershipservice.Service
}

func (s *MembershipServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memory.New()
	s.svc = membershipservice.New(s.store.Memberships(), s.store, s.store.Groups())
}

func TestMembershipServiceSuite(t *testing.T) {
	suite.Run(t, new(MembershipServiceSuite))
}

func (s *MembershipServiceSuite) newPerson(first string) id.PersonID {
	name, err := personmodels.NewPersonName(first, "", "Berg")
	s.Require().NoError(err)
	person := personmodels.NewPerson(name)
	s.Require().NoError(s.store.Save(s.ctx, person))
	return person.ID
}

func (s *MembershipServiceSuite) newGroup(name string) id.GroupID {
	group, err := groupmodels.NewGroup(name)
	s.Require().NoError(err)
	s.Require().NoError(s.store.SaveGroup(s.ctx, group))
	return group.ID
}

func (s *MembershipServiceSuite) TestAddIsIdempotent() {
	person := s.newPerson("Jan")
	group := s.newGroup("Alpha Group")

	s.Require().NoError(s.svc.AddPersonToGroup(s.ctx, person, group))
	s.Require().NoError(s.svc.AddPersonToGroup(s.ctx, person, group))

	members, err := s.svc.ListPersonsForGroup(s.ctx, group)
	s.Require().NoError(err)
	s.Len(members, 1, "exactly one edge after adding twice")
}

func (s *MembershipServiceSuite) TestAddRequiresEndpoints() {
	person := s.newPerson("Jan")
	group := s.newGroup("Alpha Group")

	err := s.svc.AddPersonToGroup(s.ctx, id.NewPersonID(), group)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	err = s.svc.AddPersonToGroup(s.ctx, person, id.NewGroupID())
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *MembershipServiceSuite) TestRemoveClearsCoordinator() {
	person := s.newPerson("Jan")
	group := s.newGroup("Alpha Group")
	s.Require().NoError(s.svc.AddPersonToGroup(s.ctx, person, group))

	stored, err := s.store.FindGroupByID(s.ctx, group)
	s.Require().NoError(err)
	stored.SetCoordinator(&person)
	s.Require().NoError(s.store.UpdateGroup(s.ctx, stored))

	s.Require().NoError(s.svc.RemovePersonFromGroup(s.ctx, person, group))

	after, err := s.store.FindGroupByID(s.ctx, group)
	s.Require().NoError(err)
	s.Nil(after.CoordinatorID, "coordinator cleared in the same operation")
	s.False(after.HasMember(person))
}

func (s *MembershipServiceSuite) TestRemoveIsIdempotent() {
	person := s.newPerson("Jan")
	group := s.newGroup("Alpha Group")
	s.Require().NoError(s.svc.AddPersonToGroup(s.ctx, person, group))

	s.Require().NoError(s.svc.RemovePersonFromGroup(s.ctx, person, group))
	s.Require().NoError(s.svc.RemovePersonFromGroup(s.ctx, person, group), "removing an absent edge is a no-op")
}

func (s *MembershipServiceSuite) TestListBothDirections() {
	jan := s.newPerson("Jan")
	piet := s.newPerson("Piet")
	alpha := s.newGroup("Alpha Group")
	beta := s.newGroup("Beta Group")

	s.Require().NoError(s.svc.AddPersonToGroup(s.ctx, jan, alpha))
	s.Require().NoError(s.svc.AddPersonToGroup(s.ctx, jan, beta))
	s.Require().NoError(s.svc.AddPersonToGroup(s.ctx, piet, beta))

	groups, err := s.svc.ListGroupsForPerson(s.ctx, jan)
	s.Require().NoError(err)
	s.Len(groups, 2)

	members, err := s.svc.ListPersonsForGroup(s.ctx, beta)
	s.Require().NoError(err)
	s.Len(members, 2)

	edges, err := s.svc.ListAll(s.ctx)
	s.Require().NoError(err)
	s.Len(edges, 3)
}
