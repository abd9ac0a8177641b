// Package sqlite persists persons, groups and membership edges in an
// embedded SQLite database. Membership cascade delete and coordinator
// clearing on person delete are enforced by foreign keys so partial
// failures cannot leave dangling edges.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	groupmodels "rollcall/internal/group/models"
	"rollcall/internal/membership"
	personmodels "rollcall/internal/person/models"
	id "rollcall/pkg/domain"
	"rollcall/pkg/platform/sentinel"
)

const dateLayout = "2006-01-02"

const schema = `
CREATE TABLE IF NOT EXISTS persons (
	id TEXT PRIMARY KEY,
	first_name TEXT NOT NULL,
	prefix TEXT NOT NULL DEFAULT '',
	surname TEXT NOT NULL DEFAULT '',
	date_of_birth TEXT NOT NULL DEFAULT '',
	street TEXT NOT NULL DEFAULT '',
	zip_code TEXT NOT NULL DEFAULT '',
	city TEXT NOT NULL DEFAULT '',
	phone_number TEXT NOT NULL DEFAULT '',
	email_address TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS groups (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	coordinator_id TEXT REFERENCES persons(id) ON DELETE SET NULL
);

CREATE TABLE IF NOT EXISTS memberships (
	person_id TEXT NOT NULL REFERENCES persons(id) ON DELETE CASCADE,
	group_id TEXT NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
	PRIMARY KEY (person_id, group_id)
);

CREATE INDEX IF NOT EXISTS idx_memberships_group ON memberships(group_id);
`

// Store persists all records in one SQLite database.
type Store struct {
	path  string
	sqlDB *sql.DB
}

// New prepares a store for the given database file without touching the
// filesystem. Init opens the database and ensures the schema; keeping
// the open lazy lets the import pipeline move the old file aside first.
func New(path string) *Store {
	return &Store{path: filepath.Clean(path)}
}

// Open constructs the store and initializes it immediately.
func Open(path string) (*Store, error) {
	s := New(path)
	if err := s.Init(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

// Init opens the database file (creating it when absent) and ensures
// the schema exists. Idempotent.
func (s *Store) Init(ctx context.Context) error {
	if s.sqlDB == nil {
		if strings.TrimSpace(s.path) == "" {
			return fmt.Errorf("database path is required")
		}
		// modernc.org/sqlite only honors pragmas in the _pragma=name(value) form.
		dsn := s.path + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
		sqlDB, err := sql.Open("sqlite", dsn)
		if err != nil {
			return fmt.Errorf("open sqlite db: %w", err)
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			_ = sqlDB.Close()
			return fmt.Errorf("ping sqlite db: %w", err)
		}
		if err := ensureForeignKeysEnabled(ctx, sqlDB); err != nil {
			_ = sqlDB.Close()
			return err
		}
		s.sqlDB = sqlDB
	}
	if _, err := s.sqlDB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Reopen closes the current handle and initializes a fresh database
// file, used after the import pipeline moves the old file aside.
func (s *Store) Reopen(ctx context.Context) error {
	if s.sqlDB != nil {
		_ = s.sqlDB.Close()
		s.sqlDB = nil
	}
	return s.Init(ctx)
}

// Close closes the database handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// ensureForeignKeysEnabled fails fast when the connection does not
// enforce foreign keys; the schema relies on cascade deletes and
// coordinator clearing through FK actions.
func ensureForeignKeysEnabled(ctx context.Context, db *sql.DB) error {
	var enabled int
	if err := db.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&enabled); err != nil {
		return fmt.Errorf("check sqlite foreign key pragma: %w", err)
	}
	if enabled != 1 {
		return fmt.Errorf("sqlite foreign keys are disabled")
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var serr *msqlite.Error
	if errors.As(err, &serr) {
		code := serr.Code()
		return code == sqlite3lib.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}

// --- person store ---

func (s *Store) FindByID(ctx context.Context, personID id.PersonID) (*personmodels.Person, error) {
	row := s.sqlDB.QueryRowContext(ctx, `
		SELECT id, first_name, prefix, surname, date_of_birth,
		       street, zip_code, city, phone_number, email_address
		FROM persons WHERE id = ?`, personID.String())
	person, err := scanPerson(row)
	if err != nil {
		return nil, err
	}
	groupIDs, err := s.ListGroupsForPerson(ctx, personID)
	if err != nil {
		return nil, err
	}
	person.GroupIDs = groupIDs
	return person, nil
}

func (s *Store) List(ctx context.Context) ([]*personmodels.Person, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `
		SELECT id, first_name, prefix, surname, date_of_birth,
		       street, zip_code, city, phone_number, email_address
		FROM persons ORDER BY surname, first_name`)
	if err != nil {
		return nil, fmt.Errorf("list persons: %w", err)
	}
	defer rows.Close()
	return collectPersons(rows)
}

func (s *Store) ListByGroup(ctx context.Context, groupID id.GroupID) ([]*personmodels.Person, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `
		SELECT p.id, p.first_name, p.prefix, p.surname, p.date_of_birth,
		       p.street, p.zip_code, p.city, p.phone_number, p.email_address
		FROM persons p
		JOIN memberships m ON m.person_id = p.id
		WHERE m.group_id = ?
		ORDER BY p.surname, p.first_name`, groupID.String())
	if err != nil {
		return nil, fmt.Errorf("list persons by group: %w", err)
	}
	defer rows.Close()
	return collectPersons(rows)
}

func (s *Store) Save(ctx context.Context, person *personmodels.Person) error {
	_, err := s.sqlDB.ExecContext(ctx, `
		INSERT INTO persons (id, first_name, prefix, surname, date_of_birth,
		                     street, zip_code, city, phone_number, email_address)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		personArgs(person)...)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("save person: %w", err)
	}
	return nil
}

func (s *Store) Update(ctx context.Context, person *personmodels.Person) error {
	args := personArgs(person)
	// id moves from first to last for the WHERE clause.
	args = append(args[1:], args[0])
	res, err := s.sqlDB.ExecContext(ctx, `
		UPDATE persons SET first_name = ?, prefix = ?, surname = ?, date_of_birth = ?,
		                   street = ?, zip_code = ?, city = ?, phone_number = ?, email_address = ?
		WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("update person: %w", err)
	}
	return requireRow(res)
}

func (s *Store) Delete(ctx context.Context, personID id.PersonID) error {
	res, err := s.sqlDB.ExecContext(ctx, `DELETE FROM persons WHERE id = ?`, personID.String())
	if err != nil {
		return fmt.Errorf("delete person: %w", err)
	}
	return requireRow(res)
}

func (s *Store) Exists(ctx context.Context, personID id.PersonID) (bool, error) {
	var n int
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM persons WHERE id = ?`, personID.String()).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("person exists: %w", err)
	}
	return n > 0, nil
}

// --- group store ---

func (s *Store) FindGroupByID(ctx context.Context, groupID id.GroupID) (*groupmodels.Group, error) {
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT id, name, coordinator_id FROM groups WHERE id = ?`, groupID.String())
	group, err := scanGroup(row)
	if err != nil {
		return nil, err
	}
	memberIDs, err := s.ListPersonsForGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	group.MemberIDs = memberIDs
	return group, nil
}

func (s *Store) ListGroups(ctx context.Context) ([]*groupmodels.Group, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, name, coordinator_id FROM groups ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	defer rows.Close()
	return collectGroups(rows)
}

func (s *Store) ListGroupsByPerson(ctx context.Context, personID id.PersonID) ([]*groupmodels.Group, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `
		SELECT g.id, g.name, g.coordinator_id
		FROM groups g
		JOIN memberships m ON m.group_id = g.id
		WHERE m.person_id = ?
		ORDER BY g.name`, personID.String())
	if err != nil {
		return nil, fmt.Errorf("list groups by person: %w", err)
	}
	defer rows.Close()
	return collectGroups(rows)
}

func (s *Store) SaveGroup(ctx context.Context, group *groupmodels.Group) error {
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO groups (id, name, coordinator_id) VALUES (?, ?, ?)`,
		group.ID.String(), group.Name, coordinatorArg(group))
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("save group: %w", err)
	}
	return nil
}

func (s *Store) UpdateGroup(ctx context.Context, group *groupmodels.Group) error {
	res, err := s.sqlDB.ExecContext(ctx,
		`UPDATE groups SET name = ?, coordinator_id = ? WHERE id = ?`,
		group.Name, coordinatorArg(group), group.ID.String())
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("update group: %w", err)
	}
	return requireRow(res)
}

func (s *Store) DeleteGroup(ctx context.Context, groupID id.GroupID) error {
	res, err := s.sqlDB.ExecContext(ctx, `DELETE FROM groups WHERE id = ?`, groupID.String())
	if err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	return requireRow(res)
}

func (s *Store) GroupExists(ctx context.Context, groupID id.GroupID) (bool, error) {
	var n int
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM groups WHERE id = ?`, groupID.String()).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("group exists: %w", err)
	}
	return n > 0, nil
}

func (s *Store) IsNameUnique(ctx context.Context, name string, excludeID *id.GroupID) (bool, error) {
	query := `SELECT COUNT(1) FROM groups WHERE name = ?`
	args := []any{name}
	if excludeID != nil {
		query += ` AND id != ?`
		args = append(args, excludeID.String())
	}
	var n int
	if err := s.sqlDB.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return false, fmt.Errorf("check group name: %w", err)
	}
	return n == 0, nil
}

// --- membership store ---

func (s *Store) AddEdge(ctx context.Context, personID id.PersonID, groupID id.GroupID) error {
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO memberships (person_id, group_id) VALUES (?, ?)`,
		personID.String(), groupID.String())
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("add membership: %w", err)
	}
	return nil
}

func (s *Store) RemoveEdge(ctx context.Context, personID id.PersonID, groupID id.GroupID) error {
	res, err := s.sqlDB.ExecContext(ctx,
		`DELETE FROM memberships WHERE person_id = ? AND group_id = ?`,
		personID.String(), groupID.String())
	if err != nil {
		return fmt.Errorf("remove membership: %w", err)
	}
	return requireRow(res)
}

func (s *Store) EdgeExists(ctx context.Context, personID id.PersonID, groupID id.GroupID) (bool, error) {
	var n int
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM memberships WHERE person_id = ? AND group_id = ?`,
		personID.String(), groupID.String()).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("membership exists: %w", err)
	}
	return n > 0, nil
}

func (s *Store) ListGroupsForPerson(ctx context.Context, personID id.PersonID) ([]id.GroupID, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT group_id FROM memberships WHERE person_id = ?`, personID.String())
	if err != nil {
		return nil, fmt.Errorf("list groups for person: %w", err)
	}
	defer rows.Close()
	var out []id.GroupID
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		groupID, err := id.ParseGroupID(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, groupID)
	}
	return out, rows.Err()
}

func (s *Store) ListPersonsForGroup(ctx context.Context, groupID id.GroupID) ([]id.PersonID, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT person_id FROM memberships WHERE group_id = ?`, groupID.String())
	if err != nil {
		return nil, fmt.Errorf("list persons for group: %w", err)
	}
	defer rows.Close()
	var out []id.PersonID
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		personID, err := id.ParsePersonID(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, personID)
	}
	return out, rows.Err()
}

func (s *Store) ListAll(ctx context.Context) ([]membership.Edge, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT person_id, group_id FROM memberships`)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	defer rows.Close()
	var out []membership.Edge
	for rows.Next() {
		var rawPerson, rawGroup string
		if err := rows.Scan(&rawPerson, &rawGroup); err != nil {
			return nil, err
		}
		personID, err := id.ParsePersonID(rawPerson)
		if err != nil {
			return nil, err
		}
		groupID, err := id.ParseGroupID(rawGroup)
		if err != nil {
			return nil, err
		}
		out = append(out, membership.Edge{PersonID: personID, GroupID: groupID})
	}
	return out, rows.Err()
}

// --- row helpers ---

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPerson(row rowScanner) (*personmodels.Person, error) {
	var (
		rawID, firstName, prefix, surname, dob       string
		street, zipCode, city, phoneNumber, emailRaw string
	)
	err := row.Scan(&rawID, &firstName, &prefix, &surname, &dob,
		&street, &zipCode, &city, &phoneNumber, &emailRaw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan person: %w", err)
	}
	personID, err := id.ParsePersonID(rawID)
	if err != nil {
		return nil, err
	}
	person := &personmodels.Person{
		ID: personID,
		Name: personmodels.PersonName{
			FirstName: firstName,
			Prefix:    prefix,
			Surname:   surname,
		},
		Address:      personmodels.NewAddress(street, zipCode, city),
		PhoneNumber:  personmodels.PhoneNumber(phoneNumber),
		EmailAddress: personmodels.EmailAddress(emailRaw),
	}
	if dob != "" {
		if t, err := time.Parse(dateLayout, dob); err == nil {
			person.DateOfBirth = t
		}
	}
	return person, nil
}

func collectPersons(rows *sql.Rows) ([]*personmodels.Person, error) {
	var out []*personmodels.Person
	for rows.Next() {
		person, err := scanPerson(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, person)
	}
	return out, rows.Err()
}

func scanGroup(row rowScanner) (*groupmodels.Group, error) {
	var (
		rawID, name string
		rawCoord    sql.NullString
	)
	if err := row.Scan(&rawID, &name, &rawCoord); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan group: %w", err)
	}
	groupID, err := id.ParseGroupID(rawID)
	if err != nil {
		return nil, err
	}
	group := &groupmodels.Group{ID: groupID, Name: name}
	if rawCoord.Valid {
		coordID, err := id.ParsePersonID(rawCoord.String)
		if err != nil {
			return nil, err
		}
		group.CoordinatorID = &coordID
	}
	return group, nil
}

func collectGroups(rows *sql.Rows) ([]*groupmodels.Group, error) {
	var out []*groupmodels.Group
	for rows.Next() {
		group, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, group)
	}
	return out, rows.Err()
}

func personArgs(person *personmodels.Person) []any {
	var street, zipCode, city string
	if person.Address != nil {
		street, zipCode, city = person.Address.Street, person.Address.ZipCode, person.Address.City
	}
	var dob string
	if !person.DateOfBirth.IsZero() {
		dob = person.DateOfBirth.Format(dateLayout)
	}
	return []any{
		person.ID.String(),
		person.Name.FirstName,
		person.Name.Prefix,
		person.Name.Surname,
		dob,
		street,
		zipCode,
		city,
		string(person.PhoneNumber),
		string(person.EmailAddress),
	}
}

func coordinatorArg(group *groupmodels.Group) any {
	if group.CoordinatorID == nil {
		return nil
	}
	return group.CoordinatorID.String()
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
