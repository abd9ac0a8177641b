package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	groupmodels "rollcall/internal/group/models"
	personmodels "rollcall/internal/person/models"
	id "rollcall/pkg/domain"
	"rollcall/pkg/platform/sentinel"
)

type SQLiteStoreSuite struct {
	suite.Suite
	ctx   context.Context
	store *Store
}

func (s *SQLiteStoreSuite) SetupTest() {
	s.ctx = context.Background()
	store, err := Open(filepath.Join(s.T().TempDir(), "register.db"))
	s.Require().NoError(err)
	s.store = store
}

func (s *SQLiteStoreSuite) TearDownTest() {
	s.Require().NoError(s.store.Close())
}

func TestSQLiteStoreSuite(t *testing.T) {
	suite.Run(t, new(SQLiteStoreSuite))
}

func (s *SQLiteStoreSuite) newPerson(first, prefix, surname string) *personmodels.Person {
	name, err := personmodels.NewPersonName(first, prefix, surname)
	s.Require().NoError(err)
	person := personmodels.NewPerson(name)
	s.Require().NoError(s.store.Save(s.ctx, person))
	return person
}

func (s *SQLiteStoreSuite) newGroup(name string) *groupmodels.Group {
	group, err := groupmodels.NewGroup(name)
	s.Require().NoError(err)
	s.Require().NoError(s.store.SaveGroup(s.ctx, group))
	return group
}

func (s *SQLiteStoreSuite) TestInitIsIdempotent() {
	s.Require().NoError(s.store.Init(s.ctx))
	s.Require().NoError(s.store.Init(s.ctx))
}

func (s *SQLiteStoreSuite) TestPersonRoundTrip() {
	person := s.newPerson("Jan", "van", "Berg")
	person.UpdateDateOfBirth(time.Date(1961, time.August, 5, 0, 0, 0, 0, time.UTC))
	person.UpdateAddress(personmodels.NewAddress("Kerkstraat 1", "1234 AB", "Utrecht"))
	person.UpdatePhoneNumber("0612345678")
	person.UpdateEmailAddress("jan@example.com")
	s.Require().NoError(s.store.Update(s.ctx, person))

	found, err := s.store.FindByID(s.ctx, person.ID)
	s.Require().NoError(err)
	s.Equal("Jan van Berg", found.Name.FullName())
	s.Equal(1961, found.DateOfBirth.Year())
	s.Require().NotNil(found.Address)
	s.Equal("Utrecht", found.Address.City)
	s.Equal(personmodels.EmailAddress("jan@example.com"), found.EmailAddress)
}

func (s *SQLiteStoreSuite) TestUnknownDateOfBirthStaysAbsent() {
	person := s.newPerson("Piet", "", "Smit")

	found, err := s.store.FindByID(s.ctx, person.ID)
	s.Require().NoError(err)
	s.True(found.DateOfBirth.IsZero())
	s.Nil(found.Address)
}

func (s *SQLiteStoreSuite) TestGroupNameUnique() {
	s.newGroup("Alpha Group")

	dup, err := groupmodels.NewGroup("Alpha Group")
	s.Require().NoError(err)
	s.Require().ErrorIs(s.store.SaveGroup(s.ctx, dup), sentinel.ErrConflict)
}

func (s *SQLiteStoreSuite) TestMembershipCascades() {
	person := s.newPerson("Jan", "", "Berg")
	group := s.newGroup("Alpha Group")
	s.Require().NoError(s.store.AddEdge(s.ctx, person.ID, group.ID))
	s.Require().ErrorIs(s.store.AddEdge(s.ctx, person.ID, group.ID), sentinel.ErrConflict)

	stored, err := s.store.FindGroupByID(s.ctx, group.ID)
	s.Require().NoError(err)
	stored.SetCoordinator(&person.ID)
	s.Require().NoError(s.store.UpdateGroup(s.ctx, stored))

	// Deleting the person cascades the edge and clears the coordinator.
	s.Require().NoError(s.store.Delete(s.ctx, person.ID))

	after, err := s.store.FindGroupByID(s.ctx, group.ID)
	s.Require().NoError(err)
	s.Zero(after.MemberCount())
	s.Nil(after.CoordinatorID)
}

func (s *SQLiteStoreSuite) TestForeignKeysEnforced() {
	var enabled int
	s.Require().NoError(s.store.sqlDB.QueryRowContext(s.ctx, "PRAGMA foreign_keys").Scan(&enabled))
	s.Equal(1, enabled)

	person := s.newPerson("Jan", "", "Visser")
	s.Require().NoError(s.store.Save(s.ctx, person))
	s.Error(s.store.AddEdge(s.ctx, person.ID, id.NewGroupID()))
}

func (s *SQLiteStoreSuite) TestFindMissingReturnsNotFound() {
	_, err := s.store.FindByID(s.ctx, id.NewPersonID())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}
