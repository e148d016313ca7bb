package pipeline

import (
	"math"
	"testing"

	"github.com/ademuri/track-dashboard/internal/dataset"
)

func TestGridColumnsOrderAndPresence(t *testing.T) {
	table := parseTable(t, `popularity,name,artists,year,energy
50,Song,A,1999,0.5
`)
	var keys []dataset.Column
	for _, c := range GridColumns(table) {
		keys = append(keys, c.Key)
	}
	want := []dataset.Column{dataset.ColName, dataset.ColArtists, dataset.ColYear, dataset.ColPopularity, dataset.ColEnergy}
	if len(keys) != len(want) {
		t.Fatalf("GridColumns() = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("GridColumns()[%d] = %q, want %q", i, keys[i], want[i])
		}
	}
}

func TestColumnText(t *testing.T) {
	energy := 0.456
	duration := int64(180533)
	tr := dataset.Track{Name: "Song", Artists: "A", Year: 1999, Popularity: 73, Energy: &energy, DurationMS: &duration}

	tests := []struct {
		col  dataset.Column
		want string
	}{
		{dataset.ColName, "Song"},
		{dataset.ColYear, "1999"},
		{dataset.ColPopularity, "73"},
		{dataset.ColEnergy, "0.46"},
		{dataset.ColValence, ""},
		{dataset.ColDurationMS, "180533"},
	}
	for _, tt := range tests {
		for _, c := range Columns {
			if c.Key != tt.col {
				continue
			}
			if got := c.Text(tr); got != tt.want {
				t.Errorf("Text(%s) = %q, want %q", tt.col, got, tt.want)
			}
		}
	}
}

func TestPage(t *testing.T) {
	rows := make([]dataset.Track, 5)
	tests := []struct {
		offset, limit, want int
	}{
		{0, 0, 5},
		{0, 2, 2},
		{4, 2, 1},
		{5, 2, 0},
		{-1, 3, 3},
		{1, math.MaxInt, 4},
	}
	for _, tt := range tests {
		if got := len(Page(rows, tt.offset, tt.limit)); got != tt.want {
			t.Errorf("len(Page(offset=%d, limit=%d)) = %d, want %d", tt.offset, tt.limit, got, tt.want)
		}
	}
}
