package importer_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	groupservice "rollcall/internal/group/service"
	"rollcall/internal/importer"
	"rollcall/internal/importer/mocks"
	membershipservice "rollcall/internal/membership/service"
	personservice "rollcall/internal/person/service"
	"rollcall/internal/storage/memory"
)

type ImporterSuite struct {
	suite.Suite

	ctrl   *gomock.Controller
	backup *mocks.MockBackup
	store  *memory.Store
	imp    *importer.Importer

	persons *personservice.Service
	groups  *groupservice.Service
	members *membershipservice.Service
}

func (s *ImporterSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.backup = mocks.NewMockBackup(s.ctrl)
	s.store = memory.New()

	s.persons = personservice.New(s.store)
	s.members = membershipservice.New(s.store.Memberships(), s.store, s.store.Groups())
	s.groups = groupservice.New(s.store.Groups(), s.store, s.members)

	s.imp = importer.New(s.backup, s.store, s.persons, s.groups, s.members)
}

func TestImporterSuite(t *testing.T) {
	suite.Run(t, new(ImporterSuite))
}

func (s *ImporterSuite) writeSource(name, content string) string {
	path := filepath.Join(s.T().TempDir(), name)
	s.Require().NoError(os.WriteFile(path, []byte(content), 0o600))
	return path
}

func (s *ImporterSuite) runImport(personsSrc, groupsSrc string) ([]string, error) {
	personsPath := s.writeSource("persons.csv", personsSrc)
	groupsPath := s.writeSource("groups.csv", groupsSrc)
	var lines []string
	err := s.imp.Run(context.Background(), personsPath, groupsPath, func(line string) {
		lines = append(lines, line)
	})
	return lines, err
}

func countMarked(lines []string, marker string) int {
	n := 0
	for _, line := range lines {
		if strings.HasPrefix(line, marker) {
			n++
		}
	}
	return n
}

const groupsHeader = "Groepen en coördinatoren\nCode;Naam;;Coördinator\n"
const personsHeader = "Personen\nNr;Voornaam;Tussenvoegsel;Achternaam;Geslacht;Telefoon;E-mail;Straat;Postcode;Plaats;Land;Geboortedatum"

func (s *ImporterSuite) TestFullRun() {
	s.backup.EXPECT().Snapshot(gomock.Any()).Return(true, nil)

	lines, err := s.runImport(
		personsHeader+";AA;BB\n"+
			"1;Jan;van;Berg;M;06 1234 5678;jan@example.com;Kerkstraat 1;1234 AB;Utrecht;NL;05-08-61;AA;BB\n"+
			"2;Piet;;Smit;M;;;;;;;12-01-85;;BB\n",
		groupsHeader+
			"AA;Alpha Group;;Jan van Berg\n"+
			"BB;Beta Group;;\n",
	)
	s.Require().NoError(err)
	s.Zero(countMarked(lines, "WAARSCHUWING:"))
	s.Zero(countMarked(lines, "FOUT"))

	ctx := context.Background()
	persons, err := s.store.List(ctx)
	s.Require().NoError(err)
	s.Require().Len(persons, 2)

	groups, err := s.store.ListGroups(ctx)
	s.Require().NoError(err)
	s.Require().Len(groups, 2)

	var jan = persons[0]
	for _, p := range persons {
		if p.Name.FullName() == "Jan van Berg" {
			jan = p
		}
	}
	s.Equal("jan@example.com", string(jan.EmailAddress))
	s.Equal(1961, jan.DateOfBirth.Year())
	s.Require().NotNil(jan.Address)
	s.Equal("Utrecht", jan.Address.City)

	for _, g := range groups {
		switch g.Name {
		case "Alpha Group":
			s.Require().NotNil(g.CoordinatorID, "coordinator should be set")
			s.Equal(jan.ID, *g.CoordinatorID)
			s.True(g.HasMember(jan.ID))
		case "Beta Group":
			s.Nil(g.CoordinatorID)
			s.Equal(2, g.MemberCount())
		}
	}
}

func (s *ImporterSuite) TestDeclinedBackupWritesNothing() {
	s.backup.EXPECT().Snapshot(gomock.Any()).Return(false, nil)
	store := mocks.NewMockInitializer(s.ctrl)
	// Init must never run after a declined backup.
	imp := importer.New(s.backup, store, s.persons, s.groups, s.members)

	personsPath := s.writeSource("persons.csv", personsHeader+"\n1;Jan;;Berg;;;;;;;;\n")
	groupsPath := s.writeSource("groups.csv", groupsHeader+"AA;Alpha Group;;\n")

	err := imp.Run(context.Background(), personsPath, groupsPath, nil)
	s.Require().ErrorIs(err, importer.ErrCancelled)

	persons, err := s.store.List(context.Background())
	s.Require().NoError(err)
	s.Empty(persons)
}

func (s *ImporterSuite) TestStructuralErrorAbortsBeforeWrites() {
	s.backup.EXPECT().Snapshot(gomock.Any()).Return(true, nil)

	_, err := s.runImport(
		personsHeader+"\n1;Jan;;Berg;;;;;;;;\n",
		"only one row",
	)
	s.Require().Error(err)

	groups, err := s.store.ListGroups(context.Background())
	s.Require().NoError(err)
	s.Empty(groups)
	persons, err := s.store.List(context.Background())
	s.Require().NoError(err)
	s.Empty(persons)
}

func (s *ImporterSuite) TestDuplicateFullNameLastWriteWins() {
	s.backup.EXPECT().Snapshot(gomock.Any()).Return(true, nil)

	lines, err := s.runImport(
		personsHeader+";AA\n"+
			"1;Jan;;Berg;;;jan.one@example.com;;;;;01-01-60;\n"+
			"2;Jan;;Berg;;;jan.two@example.com;;;;;02-02-70;AA\n",
		groupsHeader+"AA;Alpha Group;;\n",
	)
	s.Require().NoError(err)
	s.Zero(countMarked(lines, "FOUT"))

	ctx := context.Background()
	persons, err := s.store.List(ctx)
	s.Require().NoError(err)
	s.Len(persons, 2, "duplicate full names both persist")

	groups, err := s.store.ListGroups(ctx)
	s.Require().NoError(err)
	s.Require().Len(groups, 1)
	members, err := s.store.ListPersonsForGroup(ctx, groups[0].ID)
	s.Require().NoError(err)
	s.Require().Len(members, 1)

	// The membership attaches to the later of the two records.
	linked, err := s.store.FindByID(ctx, members[0])
	s.Require().NoError(err)
	s.Equal(1970, linked.DateOfBirth.Year())
}

func (s *ImporterSuite) TestCoordinatorNameMatchesCaseInsensitively() {
	s.backup.EXPECT().Snapshot(gomock.Any()).Return(true, nil)

	lines, err := s.runImport(
		personsHeader+";AA\n"+
			"1;Jan;van;Berg;;;;;;;;;AA\n",
		groupsHeader+"AA;Alpha Group;;JAN VAN BERG\n",
	)
	s.Require().NoError(err)
	s.Zero(countMarked(lines, "WAARSCHUWING:"))

	groups, err := s.store.ListGroups(context.Background())
	s.Require().NoError(err)
	s.Require().Len(groups, 1)
	s.NotNil(groups[0].CoordinatorID)
}

func (s *ImporterSuite) TestUnknownReferencesWarnAndContinue() {
	s.backup.EXPECT().Snapshot(gomock.Any()).Return(true, nil)

	lines, err := s.runImport(
		personsHeader+";AA\n"+
			"1;Jan;;Berg;;;;;;;;;AA\n",
		groupsHeader+
			"AA;Alpha Group;;Onbekende Persoon\n",
	)
	s.Require().NoError(err, "unresolved coordinator must not fail the run")
	s.Equal(1, countMarked(lines, "WAARSCHUWING:"))

	groups, err := s.store.ListGroups(context.Background())
	s.Require().NoError(err)
	s.Require().Len(groups, 1)
	s.Nil(groups[0].CoordinatorID)
}

func (s *ImporterSuite) TestDuplicateGroupNameSkipsRecordOnly() {
	s.backup.EXPECT().Snapshot(gomock.Any()).Return(true, nil)

	lines, err := s.runImport(
		personsHeader+"\n1;Jan;;Berg;;;;;;;;\n",
		groupsHeader+
			"AA;Alpha Group;;\n"+
			"AB;Alpha Group;;\n"+
			"BB;Beta Group;;\n",
	)
	s.Require().NoError(err)
	s.Equal(1, countMarked(lines, "FOUT"))

	groups, err := s.store.ListGroups(context.Background())
	s.Require().NoError(err)
	s.Len(groups, 2, "first Alpha and Beta survive, duplicate skipped")
}
