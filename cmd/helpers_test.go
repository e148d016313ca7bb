package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ademuri/track-dashboard/internal/dataset"
)

const testCSV = `name,artists,year,popularity,energy
One,['A'],1995,80,0.5
Two,['A'],1998,60,0.25
Three,['B & <Co>'],2003,70,
Old,['C'],1925,10,0.1
`

func writeTestCSV(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tracks.csv")
	if err := os.WriteFile(path, []byte(testCSV), 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}

func parseTestTable(t *testing.T) *dataset.Table {
	t.Helper()
	table, err := dataset.Parse("tracks.csv", strings.NewReader(testCSV))
	if err != nil {
		t.Fatalf("dataset.Parse: %v", err)
	}
	return table
}
