package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/xuri/excelize/v2"

	"github.com/ademuri/track-dashboard/internal/dataset"
	"github.com/ademuri/track-dashboard/internal/pipeline"
)

const testCSV = `name,artists,year,popularity,energy
Song A,Maroon 5,2017,80,0.5
Song B,Adele,2011,67,
Song C,Maroon 5,1995,40,0.25
`

func testResult(t *testing.T) ([]pipeline.ColumnSpec, *pipeline.Result) {
	t.Helper()
	table, err := dataset.Parse("tracks.csv", strings.NewReader(testCSV))
	if err != nil {
		t.Fatalf("dataset.Parse: %v", err)
	}
	r, err := pipeline.Apply(table, pipeline.Filter{MinYear: 2000, MaxYear: 2020})
	if err != nil {
		t.Fatalf("pipeline.Apply: %v", err)
	}
	return pipeline.GridColumns(table), r
}

func TestWriteCSV(t *testing.T) {
	cols, r := testResult(t)

	var buf bytes.Buffer
	if err := Write(&buf, FormatCSV, cols, r); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	got, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("reading csv back: %v", err)
	}
	want := [][]string{
		{"name", "artists", "year", "popularity", "energy"},
		{"Song A", "Maroon 5", "2017", "80", "0.50"},
		{"Song B", "Adele", "2011", "67", ""},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("csv mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteXLSX(t *testing.T) {
	cols, r := testResult(t)

	var buf bytes.Buffer
	if err := Write(&buf, FormatXLSX, cols, r); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("excelize.OpenReader: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(TracksSheet, excelize.Options{RawCellValue: true})
	if err != nil {
		t.Fatalf("GetRows(%s): %v", TracksSheet, err)
	}
	want := [][]string{
		{"Track", "Artist(s)", "Year", "Popularity", "Energy"},
		{"Song A", "Maroon 5", "2017", "80", "0.5"},
		{"Song B", "Adele", "2011", "67"},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("tracks sheet mismatch (-want +got):\n%s", diff)
	}

	count, err := f.GetCellValue(SummarySheet, "B3")
	if err != nil {
		t.Fatalf("GetCellValue(%s, B3): %v", SummarySheet, err)
	}
	if count != "2" {
		t.Errorf("summary track count = %q, want %q", count, "2")
	}
	modal, err := f.GetCellValue(SummarySheet, "B5")
	if err != nil {
		t.Fatalf("GetCellValue(%s, B5): %v", SummarySheet, err)
	}
	if modal != "Maroon 5" {
		t.Errorf("summary modal artist = %q, want %q", modal, "Maroon 5")
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"csv", FormatCSV, false},
		{"XLSX", FormatXLSX, false},
		{".xlsx", FormatXLSX, false},
		{"pdf", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
