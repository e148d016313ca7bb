package store

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ademuri/track-dashboard/internal/dataset"
)

func createTestDb(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "snapshots.db")

	store, err := New(dbPath)
	if err != nil {
		t.Fatalf("New(%s) error: %v", dbPath, err)
	}

	return store
}

const testCSV = `name,artists,year,popularity,energy,duration_ms
Song A,['Ed Sheeran'],2017,80,0.5,233713
Song B,Maroon 5,2019,67,,
Song C,Maroon 5,1850,67,,
`

func parseTestTable(t *testing.T, source string) *dataset.Table {
	t.Helper()
	table, err := dataset.Parse(source, strings.NewReader(testCSV))
	if err != nil {
		t.Fatalf("dataset.Parse: %v", err)
	}
	return table
}

func TestSaveAndLoadTable(t *testing.T) {
	s := createTestDb(t)
	defer s.Close()

	table := parseTestTable(t, "tracks.csv")
	if err := s.SaveTable(table); err != nil {
		t.Fatalf("SaveTable() error: %v", err)
	}

	got, err := s.LoadTable("tracks.csv")
	if err != nil {
		t.Fatalf("LoadTable() error: %v", err)
	}

	if got.Digest() != table.Digest() {
		t.Errorf("Digest() = %q, want %q", got.Digest(), table.Digest())
	}
	if diff := cmp.Diff(table.Tracks(), got.Tracks()); diff != "" {
		t.Errorf("tracks mismatch (-saved +loaded):\n%s", diff)
	}
	if diff := cmp.Diff(table.Columns(), got.Columns()); diff != "" {
		t.Errorf("columns mismatch (-saved +loaded):\n%s", diff)
	}
	if diff := cmp.Diff(table.Stats(), got.Stats()); diff != "" {
		t.Errorf("stats mismatch (-saved +loaded):\n%s", diff)
	}
	if !got.LoadedAt().Equal(table.LoadedAt()) {
		t.Errorf("LoadedAt() = %v, want %v", got.LoadedAt(), table.LoadedAt())
	}

	// Saving again replaces rather than appends.
	if err := s.SaveTable(table); err != nil {
		t.Fatalf("SaveTable() repeat error: %v", err)
	}
	again, err := s.LoadTable("tracks.csv")
	if err != nil {
		t.Fatalf("LoadTable() error: %v", err)
	}
	if again.Len() != table.Len() {
		t.Errorf("Len() after repeat save = %d, want %d", again.Len(), table.Len())
	}
}

func TestLoadTableMissing(t *testing.T) {
	s := createTestDb(t)
	defer s.Close()

	_, err := s.LoadTable("nope.csv")
	if !errors.Is(err, dataset.ErrNoSnapshot) {
		t.Fatalf("LoadTable() error = %v, want ErrNoSnapshot", err)
	}
}

func TestSchemaWarningsSurvive(t *testing.T) {
	s := createTestDb(t)
	defer s.Close()

	table, err := dataset.Parse("partial.csv", strings.NewReader("artists,popularity\nA,1\n"))
	if err != nil {
		t.Fatalf("dataset.Parse: %v", err)
	}
	if err := s.SaveTable(table); err != nil {
		t.Fatalf("SaveTable() error: %v", err)
	}
	got, err := s.LoadTable("partial.csv")
	if err != nil {
		t.Fatalf("LoadTable() error: %v", err)
	}
	if diff := cmp.Diff(table.Warnings(), got.Warnings()); diff != "" {
		t.Errorf("warnings mismatch (-saved +loaded):\n%s", diff)
	}
}

func TestListAndDeleteSnapshots(t *testing.T) {
	s := createTestDb(t)
	defer s.Close()

	for _, source := range []string{"b.csv", "a.csv"} {
		if err := s.SaveTable(parseTestTable(t, source)); err != nil {
			t.Fatalf("SaveTable(%s) error: %v", source, err)
		}
	}

	infos, err := s.ListSnapshots()
	if err != nil {
		t.Fatalf("ListSnapshots() error: %v", err)
	}
	if len(infos) != 2 || infos[0].Source != "a.csv" || infos[1].Source != "b.csv" {
		t.Fatalf("ListSnapshots() = %+v, want a.csv then b.csv", infos)
	}
	if infos[0].Rows != 2 {
		t.Errorf("Rows = %d, want 2", infos[0].Rows)
	}

	deleted, err := s.DeleteSnapshot("a.csv")
	if err != nil || !deleted {
		t.Fatalf("DeleteSnapshot(a.csv) = %v, %v, want true, nil", deleted, err)
	}
	deleted, err = s.DeleteSnapshot("a.csv")
	if err != nil || deleted {
		t.Errorf("DeleteSnapshot(a.csv) again = %v, %v, want false, nil", deleted, err)
	}

	infos, err = s.ListSnapshots()
	if err != nil {
		t.Fatalf("ListSnapshots() error: %v", err)
	}
	if len(infos) != 1 {
		t.Errorf("len(ListSnapshots()) = %d, want 1", len(infos))
	}
}
