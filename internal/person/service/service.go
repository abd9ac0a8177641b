// Package service implements the person commands used by both
// interactive CRUD and the import pipeline.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"rollcall/internal/audit"
	"rollcall/internal/person/models"
	id "rollcall/pkg/domain"
	dErrors "rollcall/pkg/domain-errors"
	"rollcall/pkg/platform/sentinel"
)

// Store is the person repository contract consumed by the service.
// Deleting a person cascades its membership edges in the store.
type Store interface {
	FindByID(ctx context.Context, personID id.PersonID) (*models.Person, error)
	List(ctx context.Context) ([]*models.Person, error)
	ListByGroup(ctx context.Context, groupID id.GroupID) ([]*models.Person, error)
	Save(ctx context.Context, person *models.Person) error
	Update(ctx context.Context, person *models.Person) error
	Delete(ctx context.Context, personID id.PersonID) error
	Exists(ctx context.Context, personID id.PersonID) (bool, error)
}

// CreateInput carries the raw fields of a person as entered by a user
// or read from an import source. Value parsing happens here so both
// paths share the same rules.
type CreateInput struct {
	FirstName    string
	Prefix       string
	Surname      string
	DateOfBirth  time.Time // zero means unknown
	Street       string
	ZipCode      string
	City         string
	PhoneNumber  string
	EmailAddress string
}

// Service orchestrates person commands on top of the store.
type Service struct {
	persons Store
	logger  *slog.Logger
	auditor audit.Publisher
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(p audit.Publisher) Option {
	return func(s *Service) { s.auditor = p }
}

// New constructs a Service.
func New(persons Store, opts ...Option) *Service {
	s := &Service{
		persons: persons,
		logger:  slog.Default(),
		auditor: audit.NoopPublisher{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates the input, builds the aggregate and persists it.
// Blank optional fields are stored as absent; an address with all
// parts blank is stored as absent too.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Person, error) {
	name, err := models.NewPersonName(in.FirstName, in.Prefix, in.Surname)
	if err != nil {
		return nil, err
	}

	person := models.NewPerson(name)
	if err := applyDetails(person, in); err != nil {
		return nil, err
	}

	if err := s.persons.Save(ctx, person); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "save person")
	}

	s.logger.Info("person created", "person_id", person.ID, "name", name.FullName())
	s.emit(ctx, audit.New(audit.EventPersonCreated).WithEntity(person.ID.String()))
	return person, nil
}

// Update replaces the person's details with the given input.
func (s *Service) Update(ctx context.Context, personID id.PersonID, in CreateInput) error {
	person, err := s.find(ctx, personID)
	if err != nil {
		return err
	}

	name, err := models.NewPersonName(in.FirstName, in.Prefix, in.Surname)
	if err != nil {
		return err
	}
	person.UpdateName(name)
	if err := applyDetails(person, in); err != nil {
		return err
	}

	if err := s.persons.Update(ctx, person); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "update person")
	}
	return nil
}

// Delete removes the person. Membership edges cascade in the store and
// groups that had this person as coordinator lose their coordinator.
func (s *Service) Delete(ctx context.Context, personID id.PersonID) error {
	if err := s.persons.Delete(ctx, personID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "person not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "delete person")
	}
	s.emit(ctx, audit.New(audit.EventPersonDeleted).WithEntity(personID.String()))
	return nil
}

// Get fetches a person by id.
func (s *Service) Get(ctx context.Context, personID id.PersonID) (*models.Person, error) {
	return s.find(ctx, personID)
}

// List returns all persons.
func (s *Service) List(ctx context.Context) ([]*models.Person, error) {
	persons, err := s.persons.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list persons")
	}
	return persons, nil
}

// ListByGroup returns the members of a group.
func (s *Service) ListByGroup(ctx context.Context, groupID id.GroupID) ([]*models.Person, error) {
	persons, err := s.persons.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list persons by group")
	}
	return persons, nil
}

func (s *Service) find(ctx context.Context, personID id.PersonID) (*models.Person, error) {
	person, err := s.persons.FindByID(ctx, personID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "person not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load person")
	}
	return person, nil
}

func applyDetails(person *models.Person, in CreateInput) error {
	person.UpdateDateOfBirth(in.DateOfBirth)
	person.UpdateAddress(models.NewAddress(in.Street, in.ZipCode, in.City))

	phone, err := models.ParsePhoneNumber(in.PhoneNumber)
	if err != nil {
		return err
	}
	person.UpdatePhoneNumber(phone)

	email, err := models.ParseEmailAddress(in.EmailAddress)
	if err != nil {
		return err
	}
	person.UpdateEmailAddress(email)
	return nil
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.Warn("audit emit failed", "event", event.Type, "error", err)
	}
}
