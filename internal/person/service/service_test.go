package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	personmodels "rollcall/internal/person/models"
	personservice "rollcall/internal/person/service"
	"rollcall/internal/storage/memory"
	id "rollcall/pkg/domain"
	dErrors "rollcall/pkg/domain-errors"
)

type PersonServiceSuite struct {
	suite.Suite
	ctx   context.Context
	store *memory.Store
	svc   *personservice.Service
}

func (s *PersonServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memory.New()
	s.svc = personservice.New(s.store)
}

func TestPersonServiceSuite(t *testing.T) {
	suite.Run(t, new(PersonServiceSuite))
}

func (s *PersonServiceSuite) TestCreate() {
	s.Run("parses and normalizes contact details", func() {
		person, err := s.svc.Create(s.ctx, personservice.CreateInput{
			FirstName:    "Jan",
			Prefix:       "van",
			Surname:      "Berg",
			DateOfBirth:  time.Date(1961, time.August, 5, 0, 0, 0, 0, time.UTC),
			Street:       "Kerkstraat 1",
			ZipCode:      "1234 AB",
			City:         "Utrecht",
			PhoneNumber:  "06 1234 5678",
			EmailAddress: "Jan.Berg@Example.COM",
		})
		s.Require().NoError(err)
		s.Equal("Jan van Berg", person.Name.FullName())
		s.Equal(personmodels.EmailAddress("jan.berg@example.com"), person.EmailAddress)
		s.Require().NotNil(person.Address)
		s.Equal("Utrecht", person.Address.City)

		stored, err := s.svc.Get(s.ctx, person.ID)
		s.Require().NoError(err)
		s.Equal(person.ID, stored.ID)
	})

	s.Run("blank optional fields are absent", func() {
		person, err := s.svc.Create(s.ctx, personservice.CreateInput{FirstName: "Piet"})
		s.Require().NoError(err)
		s.True(person.DateOfBirth.IsZero())
		s.Nil(person.Address)
		s.Empty(person.PhoneNumber)
		s.Empty(person.EmailAddress)
	})

	s.Run("invalid email fails validation", func() {
		_, err := s.svc.Create(s.ctx, personservice.CreateInput{
			FirstName:    "Piet",
			EmailAddress: "not-an-address",
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("blank first name fails validation", func() {
		_, err := s.svc.Create(s.ctx, personservice.CreateInput{Surname: "Berg"})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("duplicate full names are allowed", func() {
		first, err := s.svc.Create(s.ctx, personservice.CreateInput{FirstName: "Kees", Surname: "Smit"})
		s.Require().NoError(err)
		second, err := s.svc.Create(s.ctx, personservice.CreateInput{FirstName: "Kees", Surname: "Smit"})
		s.Require().NoError(err)
		s.NotEqual(first.ID, second.ID)
	})
}

func (s *PersonServiceSuite) TestUpdate() {
	person, err := s.svc.Create(s.ctx, personservice.CreateInput{FirstName: "Jan", Surname: "Berg"})
	s.Require().NoError(err)

	err = s.svc.Update(s.ctx, person.ID, personservice.CreateInput{
		FirstName:   "Jan",
		Surname:     "Berg",
		PhoneNumber: "0612345678",
	})
	s.Require().NoError(err)

	updated, err := s.svc.Get(s.ctx, person.ID)
	s.Require().NoError(err)
	s.Equal(personmodels.PhoneNumber("0612345678"), updated.PhoneNumber)
}

func (s *PersonServiceSuite) TestDelete() {
	person, err := s.svc.Create(s.ctx, personservice.CreateInput{FirstName: "Jan"})
	s.Require().NoError(err)

	s.Require().NoError(s.svc.Delete(s.ctx, person.ID))

	_, err = s.svc.Get(s.ctx, person.ID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	err = s.svc.Delete(s.ctx, id.NewPersonID())
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}
