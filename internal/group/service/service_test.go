package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	groupservice "rollcall/internal/group/service"
	membershipservice "rollcall/internal/membership/service"
	personmodels "rollcall/internal/person/models"
	"rollcall/internal/storage/memory"
	id "rollcall/pkg/domain"
	dErrors "rollcall/pkg/domain-errors"
)

type GroupServiceSuite struct {
	suite.Suite
	ctx     context.Context
	store   *memory.Store
	svc     *groupservice.Service
	members *membershipservice.Service
}

func (s *GroupServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memory.New()
	s.members = membershipservice.New(s.store.Memberships(), s.store, s.store.Groups())
	s.svc = groupservice.New(s.store.Groups(), s.store, s.members)
}

func TestGroupServiceSuite(t *testing.T) {
	suite.Run(t, new(GroupServiceSuite))
}

func (s *GroupServiceSuite) newPerson(first, surname string) id.PersonID {
	name, err := personmodels.NewPersonName(first, "", surname)
	s.Require().NoError(err)
	person := personmodels.NewPerson(name)
	s.Require().NoError(s.store.Save(s.ctx, person))
	return person.ID
}

func (s *GroupServiceSuite) TestCreate() {
	s.Run("creates a group without coordinator", func() {
		group, err := s.svc.Create(s.ctx, "Alpha Group", nil)
		s.Require().NoError(err)
		s.Equal("Alpha Group", group.Name)
		s.Nil(group.CoordinatorID)
	})

	s.Run("duplicate name conflicts, other records unaffected", func() {
		_, err := s.svc.Create(s.ctx, "Alpha Group", nil)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))

		_, err = s.svc.Create(s.ctx, "Beta Group", nil)
		s.Require().NoError(err, "subsequent creates keep working")

		groups, err := s.svc.List(s.ctx)
		s.Require().NoError(err)
		s.Len(groups, 2)
	})

	s.Run("coordinator must exist but need not be a member yet", func() {
		coordinator := s.newPerson("Jan", "Berg")
		group, err := s.svc.Create(s.ctx, "Gamma Group", &coordinator)
		s.Require().NoError(err)
		s.Require().NotNil(group.CoordinatorID)
		s.Equal(coordinator, *group.CoordinatorID)
	})

	s.Run("unknown coordinator is rejected", func() {
		ghost := id.NewPersonID()
		_, err := s.svc.Create(s.ctx, "Delta Group", &ghost)
		s.Require().Error(err)
	})
}

func (s *GroupServiceSuite) TestUpdateCoordinatorInvariant() {
	group, err := s.svc.Create(s.ctx, "Alpha Group", nil)
	s.Require().NoError(err)
	person := s.newPerson("Jan", "Berg")

	s.Run("rejects a coordinator who is not a member", func() {
		err := s.svc.Update(s.ctx, group.ID, "Alpha Group", &person)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	s.Run("accepts a member as coordinator", func() {
		s.Require().NoError(s.members.AddPersonToGroup(s.ctx, person, group.ID))
		s.Require().NoError(s.svc.Update(s.ctx, group.ID, "Alpha Group", &person))

		updated, err := s.svc.Get(s.ctx, group.ID)
		s.Require().NoError(err)
		s.Require().NotNil(updated.CoordinatorID)
		s.Equal(person, *updated.CoordinatorID)
	})

	s.Run("nil clears the coordinator", func() {
		s.Require().NoError(s.svc.Update(s.ctx, group.ID, "Alpha Group", nil))
		updated, err := s.svc.Get(s.ctx, group.ID)
		s.Require().NoError(err)
		s.Nil(updated.CoordinatorID)
	})
}

func (s *GroupServiceSuite) TestUpdateNameUniqueness() {
	alpha, err := s.svc.Create(s.ctx, "Alpha Group", nil)
	s.Require().NoError(err)
	_, err = s.svc.Create(s.ctx, "Beta Group", nil)
	s.Require().NoError(err)

	s.Run("renaming onto an existing name conflicts", func() {
		err := s.svc.Update(s.ctx, alpha.ID, "Beta Group", nil)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("keeping the own name is allowed", func() {
		s.Require().NoError(s.svc.Update(s.ctx, alpha.ID, "Alpha Group", nil))
	})
}

func (s *GroupServiceSuite) TestDelete() {
	group, err := s.svc.Create(s.ctx, "Alpha Group", nil)
	s.Require().NoError(err)

	s.Require().NoError(s.svc.Delete(s.ctx, group.ID))
	err = s.svc.Delete(s.ctx, group.ID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}
