// Package importer rebuilds the member register from two
// semicolon-separated source files: one with persons and their group
// abbreviations, one with groups and their coordinators. The current
// database is moved aside first, so a run replaces the register rather
// than merging into it. Records that cannot be processed are logged
// and skipped; only a structural parse failure or a declined backup
// stops the run.
package importer

//go:generate mockgen -source=importer.go -destination=mocks/mocks.go -package=mocks Backup,Initializer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"rollcall/internal/audit"
	groupmodels "rollcall/internal/group/models"
	"rollcall/internal/importer/metrics"
	personmodels "rollcall/internal/person/models"
	personservice "rollcall/internal/person/service"
	id "rollcall/pkg/domain"
)

// ErrCancelled reports a run cancelled at the backup prompt. No writes
// have happened when it is returned.
var ErrCancelled = errors.New("import cancelled by operator")

// ProgressFunc receives one human-readable line per notable event.
// Lines starting with "WAARSCHUWING:" are warnings, lines starting
// with "FOUT" report per-record errors; neither stops the run.
type ProgressFunc func(line string)

// YieldFunc runs at record-creation boundaries so an interactive host
// can keep its event loop responsive. It must not mutate import state.
type YieldFunc func()

// Backup moves the current database aside. Returning false cancels
// the run.
type Backup interface {
	Snapshot(ctx context.Context) (bool, error)
}

// Initializer prepares a fresh target store. Must be idempotent.
type Initializer interface {
	Init(ctx context.Context) error
}

// InitializerFunc adapts a function to the Initializer interface.
type InitializerFunc func(ctx context.Context) error

func (f InitializerFunc) Init(ctx context.Context) error { return f(ctx) }

// PersonWriter is the person-creation command surface, the same one
// interactive use goes through.
type PersonWriter interface {
	Create(ctx context.Context, in personservice.CreateInput) (*personmodels.Person, error)
}

// GroupWriter creates groups and later assigns their coordinators. The
// update path re-validates that the coordinator is a member.
type GroupWriter interface {
	Create(ctx context.Context, name string, coordinatorID *id.PersonID) (*groupmodels.Group, error)
	Update(ctx context.Context, groupID id.GroupID, name string, coordinatorID *id.PersonID) error
}

// MembershipWriter links a person to a group. Adding an existing link
// is a no-op.
type MembershipWriter interface {
	AddPersonToGroup(ctx context.Context, personID id.PersonID, groupID id.GroupID) error
}

// Importer drives one reconciliation run.
type Importer struct {
	backup  Backup
	store   Initializer
	persons PersonWriter
	groups  GroupWriter
	members MembershipWriter
	logger  *slog.Logger
	metrics *metrics.Metrics
	auditor audit.Publisher
	yield   YieldFunc
}

// Option configures an Importer.
type Option func(*Importer)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Importer) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// WithMetrics attaches run counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(i *Importer) { i.metrics = m }
}

// WithAuditPublisher sets the audit sink for run lifecycle events.
func WithAuditPublisher(p audit.Publisher) Option {
	return func(i *Importer) {
		if p != nil {
			i.auditor = p
		}
	}
}

// WithYield sets the cooperative yield hook.
func WithYield(y YieldFunc) Option {
	return func(i *Importer) {
		if y != nil {
			i.yield = y
		}
	}
}

// New builds an Importer around the backup collaborator, the target
// store and the command services.
func New(backup Backup, store Initializer, persons PersonWriter, groups GroupWriter, members MembershipWriter, opts ...Option) *Importer {
	imp := &Importer{
		backup:  backup,
		store:   store,
		persons: persons,
		groups:  groups,
		members: members,
		logger:  slog.Default(),
		auditor: audit.NoopPublisher{},
		yield:   func() {},
	}
	for _, opt := range opts {
		opt(imp)
	}
	return imp
}

// lookups carries the id maps built during a run. Keys are lowercased
// for case-insensitive exact matching; personNames keeps insertion
// order for the coordinator fallback scan.
type lookups struct {
	codeToGroup   map[string]id.GroupID
	nameToGroup   map[string]id.GroupID
	nameToPerson  map[string]id.PersonID
	emailToPerson map[string]id.PersonID
	personNames   []personEntry
}

type personEntry struct {
	fullName string
	personID id.PersonID
}

func newLookups() *lookups {
	return &lookups{
		codeToGroup:   make(map[string]id.GroupID),
		nameToGroup:   make(map[string]id.GroupID),
		nameToPerson:  make(map[string]id.PersonID),
		emailToPerson: make(map[string]id.PersonID),
	}
}

func (l *lookups) group(name string) (id.GroupID, bool) {
	groupID, ok := l.nameToGroup[strings.ToLower(name)]
	return groupID, ok
}

func (l *lookups) groupByCode(code string) (id.GroupID, bool) {
	groupID, ok := l.codeToGroup[strings.ToLower(code)]
	return groupID, ok
}

func (l *lookups) person(fullName string) (id.PersonID, bool) {
	personID, ok := l.nameToPerson[strings.ToLower(fullName)]
	return personID, ok
}

// findPerson tries the exact lowercased key first and falls back to a
// scan in creation order, first match wins. The fallback is weaker on
// purpose: coordinator names in the groups source are hand-typed.
func (l *lookups) findPerson(fullName string) (id.PersonID, bool) {
	name := strings.TrimSpace(fullName)
	if personID, ok := l.person(name); ok {
		return personID, true
	}
	for _, entry := range l.personNames {
		if strings.EqualFold(entry.fullName, name) {
			return entry.personID, true
		}
	}
	return id.PersonID{}, false
}

// Run executes a full reconciliation from the two source files.
// Returns ErrCancelled when the operator declines the backup; any
// other error is fatal and happened before the first write.
func (i *Importer) Run(ctx context.Context, personsPath, groupsPath string, progress ProgressFunc) error {
	if progress == nil {
		progress = func(string) {}
	}
	progress("Importproces starten...")
	i.emit(ctx, audit.New(audit.EventImportStarted))

	err := i.run(ctx, personsPath, groupsPath, progress)
	switch {
	case errors.Is(err, ErrCancelled):
		i.metrics.RunFinished("cancelled")
		i.emit(ctx, audit.New(audit.EventImportCancelled))
	case err != nil:
		i.metrics.RunFinished("failed")
		i.emit(ctx, audit.New(audit.EventImportFailed).WithDetail(err.Error()))
	default:
		i.metrics.RunFinished("completed")
		i.emit(ctx, audit.New(audit.EventImportCompleted))
	}
	return err
}

func (i *Importer) emit(ctx context.Context, event audit.Event) {
	if err := i.auditor.Emit(ctx, event); err != nil {
		i.logger.Warn("audit emit failed", "event", event.Type, "error", err)
	}
}

func (i *Importer) run(ctx context.Context, personsPath, groupsPath string, progress ProgressFunc) error {
	// Snapshot. Nothing is written before this point, so a declined
	// backup leaves the store untouched.
	progress("Database back-uppen...")
	ok, err := i.backup.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("backup database: %w", err)
	}
	if !ok {
		progress("Import geannuleerd door gebruiker.")
		return ErrCancelled
	}
	progress("Database back-up voltooid.")

	// Initialize the fresh store. The backup moved the old file aside,
	// so this starts from an empty database.
	progress("Database initialiseren...")
	if err := i.store.Init(ctx); err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	progress("Database geïnitialiseerd.")

	// Parse both sources before any write.
	progress("Bronbestanden inlezen...")
	defs, records, err := i.parseSources(personsPath, groupsPath, progress)
	if err != nil {
		progress(fmt.Sprintf("FOUT bij het inlezen van bronbestanden: %v", err))
		return err
	}

	look := newLookups()
	i.createGroups(ctx, defs, look, progress)
	i.createPersons(ctx, records, look, progress)
	i.createMemberships(ctx, records, look, progress)
	i.resolveCoordinators(ctx, defs, look, progress)

	progress("Import succesvol voltooid!")
	return nil
}

func (i *Importer) parseSources(personsPath, groupsPath string, progress ProgressFunc) ([]GroupDefinition, []PersonRecord, error) {
	groupsRaw, err := os.ReadFile(groupsPath)
	if err != nil {
		return nil, nil, fmt.Errorf("read groups source: %w", err)
	}
	defs, err := ParseGroupsSource(groupsRaw)
	if err != nil {
		return nil, nil, err
	}
	progress(fmt.Sprintf("%d groepen gevonden in het groepenbestand.", len(defs)))

	codeToName := make(map[string]string, len(defs))
	for _, def := range defs {
		codeToName[def.Code] = def.Name
	}

	personsRaw, err := os.ReadFile(personsPath)
	if err != nil {
		return nil, nil, fmt.Errorf("read persons source: %w", err)
	}
	records, err := ParsePersonsSource(personsRaw, codeToName)
	if err != nil {
		return nil, nil, err
	}
	progress(fmt.Sprintf("%d personen gevonden in het personenbestand.", len(records)))
	return defs, records, nil
}

func (i *Importer) createGroups(ctx context.Context, defs []GroupDefinition, look *lookups, progress ProgressFunc) {
	progress("Groepen aanmaken...")
	for _, def := range defs {
		group, err := i.groups.Create(ctx, def.Name, nil)
		if err != nil {
			i.logger.Warn("group creation failed", "group", def.Name, "error", err)
			progress(fmt.Sprintf("FOUT bij aanmaken groep %s: %v", def.Name, err))
			i.metrics.RecordSkipped()
			continue
		}
		look.codeToGroup[strings.ToLower(def.Code)] = group.ID
		look.nameToGroup[strings.ToLower(def.Name)] = group.ID
		i.metrics.GroupCreated()
		progress(fmt.Sprintf("Groep aangemaakt: %s (code: %s)", def.Name, def.Code))
		i.yield()
	}
}

func (i *Importer) createPersons(ctx context.Context, records []PersonRecord, look *lookups, progress ProgressFunc) {
	progress("Personen aanmaken...")
	for _, rec := range records {
		fullName := rec.FullName()
		person, err := i.persons.Create(ctx, personservice.CreateInput{
			FirstName:    rec.FirstName,
			Prefix:       rec.Prefix,
			Surname:      rec.Surname,
			DateOfBirth:  ParseDateOfBirth(rec.DateOfBirth),
			Street:       rec.Street,
			ZipCode:      rec.ZipCode,
			City:         rec.City,
			PhoneNumber:  rec.PhoneNumber,
			EmailAddress: rec.EmailAddress,
		})
		if err != nil {
			i.logger.Warn("person creation failed", "person", fullName, "error", err)
			progress(fmt.Sprintf("FOUT bij aanmaken persoon %s: %v", fullName, err))
			i.metrics.RecordSkipped()
			continue
		}
		// Duplicate full names overwrite earlier entries; the last
		// created person wins the name key.
		look.nameToPerson[strings.ToLower(fullName)] = person.ID
		look.personNames = append(look.personNames, personEntry{fullName: fullName, personID: person.ID})
		if rec.EmailAddress != "" {
			look.emailToPerson[strings.ToLower(rec.EmailAddress)] = person.ID
		}
		i.metrics.PersonCreated()
		progress(fmt.Sprintf("Persoon aangemaakt: %s", fullName))
		i.yield()
	}
}

func (i *Importer) createMemberships(ctx context.Context, records []PersonRecord, look *lookups, progress ProgressFunc) {
	progress("Groepslidmaatschappen aanmaken...")
	for _, rec := range records {
		fullName := rec.FullName()
		personID, ok := look.person(fullName)
		if !ok {
			progress(fmt.Sprintf("WAARSCHUWING: persoon '%s' niet gevonden bij aanmaken lidmaatschappen", fullName))
			i.metrics.RecordSkipped()
			continue
		}
		for _, groupName := range rec.GroupNames {
			groupID, ok := look.group(groupName)
			if !ok {
				progress(fmt.Sprintf("WAARSCHUWING: groep '%s' niet gevonden voor persoon '%s'", groupName, fullName))
				i.metrics.RecordSkipped()
				continue
			}
			if err := i.members.AddPersonToGroup(ctx, personID, groupID); err != nil {
				i.logger.Warn("membership creation failed", "person", fullName, "group", groupName, "error", err)
				progress(fmt.Sprintf("FOUT bij toevoegen '%s' aan groep '%s': %v", fullName, groupName, err))
				i.metrics.RecordSkipped()
				continue
			}
			i.metrics.MembershipCreated()
			progress(fmt.Sprintf("'%s' toegevoegd aan groep '%s'", fullName, groupName))
			i.yield()
		}
	}
}

func (i *Importer) resolveCoordinators(ctx context.Context, defs []GroupDefinition, look *lookups, progress ProgressFunc) {
	progress("Coördinatoren instellen voor groepen...")
	for _, def := range defs {
		if strings.TrimSpace(def.CoordinatorName) == "" {
			continue
		}
		coordinatorID, ok := look.findPerson(def.CoordinatorName)
		if !ok {
			progress(fmt.Sprintf("WAARSCHUWING: coördinator '%s' niet gevonden voor groep %s", def.CoordinatorName, def.Name))
			i.metrics.RecordSkipped()
			continue
		}
		groupID, ok := look.groupByCode(def.Code)
		if !ok {
			progress(fmt.Sprintf("WAARSCHUWING: groepscode '%s' niet gevonden bij instellen coördinator", def.Code))
			i.metrics.RecordSkipped()
			continue
		}

		// The coordinator must be a member before the update path will
		// accept the assignment. An existing membership is fine.
		if err := i.members.AddPersonToGroup(ctx, coordinatorID, groupID); err != nil {
			i.logger.Warn("coordinator membership failed", "group", def.Name, "coordinator", def.CoordinatorName, "error", err)
		}

		if err := i.groups.Update(ctx, groupID, def.Name, &coordinatorID); err != nil {
			i.logger.Warn("coordinator assignment failed", "group", def.Name, "coordinator", def.CoordinatorName, "error", err)
			progress(fmt.Sprintf("FOUT bij instellen coördinator voor groep %s: %v", def.Name, err))
			i.metrics.RecordSkipped()
			continue
		}
		progress(fmt.Sprintf("Coördinator '%s' ingesteld voor groep: %s", def.CoordinatorName, def.Name))
		i.yield()
	}
}
