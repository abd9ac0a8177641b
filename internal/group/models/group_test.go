package models

import (
	"testing"

	"github.com/stretchr/testify/suite"

	id "rollcall/pkg/domain"
	dErrors "rollcall/pkg/domain-errors"
)

type GroupSuite struct {
	suite.Suite
}

func TestGroupSuite(t *testing.T) {
	suite.Run(t, new(GroupSuite))
}

func (s *GroupSuite) TestNewGroup() {
	s.Run("trims the name", func() {
		group, err := NewGroup("  Alpha Group ")
		s.Require().NoError(err)
		s.Equal("Alpha Group", group.Name)
		s.Nil(group.CoordinatorID)
		s.Zero(group.MemberCount())
	})

	s.Run("rejects blank names", func() {
		_, err := NewGroup("   ")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *GroupSuite) TestMembers() {
	group, err := NewGroup("Alpha Group")
	s.Require().NoError(err)
	member := id.NewPersonID()

	s.Run("add is idempotent", func() {
		group.AddMember(member)
		group.AddMember(member)
		s.Equal(1, group.MemberCount())
		s.True(group.HasMember(member))
	})

	s.Run("remove is idempotent", func() {
		group.RemoveMember(member)
		group.RemoveMember(member)
		s.Zero(group.MemberCount())
	})
}

func (s *GroupSuite) TestCoordinatorClearedWithMember() {
	group, err := NewGroup("Alpha Group")
	s.Require().NoError(err)

	coordinator := id.NewPersonID()
	other := id.NewPersonID()
	group.AddMember(coordinator)
	group.AddMember(other)
	group.SetCoordinator(&coordinator)

	group.RemoveMember(other)
	s.Require().NotNil(group.CoordinatorID, "removing another member keeps the coordinator")

	group.RemoveMember(coordinator)
	s.Nil(group.CoordinatorID, "removing the coordinator clears the assignment")
	s.False(group.HasMember(coordinator))
}

func (s *GroupSuite) TestUpdateName() {
	group, err := NewGroup("Alpha Group")
	s.Require().NoError(err)

	s.Require().NoError(group.UpdateName(" Beta Group "))
	s.Equal("Beta Group", group.Name)

	err = group.UpdateName("  ")
	s.Require().Error(err)
	s.Equal("Beta Group", group.Name, "failed update leaves the name unchanged")
}
