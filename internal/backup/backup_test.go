package backup

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"
)

type SnapshotterSuite struct {
	suite.Suite
	dir string
}

func (s *SnapshotterSuite) SetupTest() {
	s.dir = s.T().TempDir()
}

func TestSnapshotterSuite(t *testing.T) {
	suite.Run(t, new(SnapshotterSuite))
}

func (s *SnapshotterSuite) dbPath() string {
	return filepath.Join(s.dir, "register.db")
}

func (s *SnapshotterSuite) writeDB(content string) {
	s.Require().NoError(os.WriteFile(s.dbPath(), []byte(content), 0o600))
}

func (s *SnapshotterSuite) TestMissingFileIsSuccessfulNoop() {
	snap := New(s.dbPath(), AlwaysConfirm)
	ok, err := snap.Snapshot(context.Background())
	s.Require().NoError(err)
	s.True(ok)
}

func (s *SnapshotterSuite) TestRenamesToOld() {
	s.writeDB("data")
	snap := New(s.dbPath(), AlwaysConfirm)

	ok, err := snap.Snapshot(context.Background())
	s.Require().NoError(err)
	s.True(ok)

	_, err = os.Stat(s.dbPath())
	s.True(os.IsNotExist(err), "original file should be gone")
	moved, err := os.ReadFile(s.dbPath() + ".old")
	s.Require().NoError(err)
	s.Equal("data", string(moved))
}

func (s *SnapshotterSuite) TestNumbersSubsequentBackups() {
	snap := New(s.dbPath(), AlwaysConfirm)

	for i, want := range []string{".old", ".old.1", ".old.2"} {
		s.writeDB("run")
		ok, err := snap.Snapshot(context.Background())
		s.Require().NoError(err, "run %d", i)
		s.True(ok)
		_, err = os.Stat(s.dbPath() + want)
		s.Require().NoError(err, "expected %s after run %d", want, i)
	}
}

func (s *SnapshotterSuite) TestDeclinedLeavesFileInPlace() {
	s.writeDB("data")
	decline := func(context.Context) (bool, error) { return false, nil }
	snap := New(s.dbPath(), decline)

	ok, err := snap.Snapshot(context.Background())
	s.Require().NoError(err)
	s.False(ok)

	_, err = os.Stat(s.dbPath())
	s.Require().NoError(err, "file must remain untouched")
	_, err = os.Stat(s.dbPath() + ".old")
	s.True(os.IsNotExist(err))
}

func (s *SnapshotterSuite) TestConfirmerErrorPropagates() {
	s.writeDB("data")
	boom := errors.New("prompt failed")
	snap := New(s.dbPath(), func(context.Context) (bool, error) { return false, boom })

	_, err := snap.Snapshot(context.Background())
	s.Require().ErrorIs(err, boom)
}
