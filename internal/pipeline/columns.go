package pipeline

import (
	"fmt"
	"strconv"

	"github.com/ademuri/track-dashboard/internal/dataset"
)

// ColumnKind tells a grid how to display a column.
type ColumnKind string

const (
	KindText     ColumnKind = "text"
	KindInteger  ColumnKind = "integer"
	KindProgress ColumnKind = "progress"
)

// ColumnSpec describes one column of the filtered-track grid.
type ColumnSpec struct {
	Key    dataset.Column `json:"key"`
	Label  string         `json:"label"`
	Kind   ColumnKind     `json:"kind"`
	Min    float64        `json:"min,omitempty"`
	Max    float64        `json:"max,omitempty"`
	Format string         `json:"format,omitempty"`
	Help   string         `json:"help,omitempty"`
}

// Columns is the grid's declared column order. The decade is a grouping
// aid and is not shown.
var Columns = []ColumnSpec{
	{Key: dataset.ColName, Label: "Track", Kind: KindText},
	{Key: dataset.ColArtists, Label: "Artist(s)", Kind: KindText},
	{Key: dataset.ColYear, Label: "Year", Kind: KindInteger, Format: "%d", Help: "Release year"},
	{Key: dataset.ColPopularity, Label: "Popularity", Kind: KindProgress, Min: 0, Max: 100, Format: "%d"},
	{Key: dataset.ColEnergy, Label: "Energy", Kind: KindProgress, Min: 0, Max: 1, Format: "%.2f"},
	{Key: dataset.ColDanceability, Label: "Danceability", Kind: KindProgress, Min: 0, Max: 1, Format: "%.2f"},
	{Key: dataset.ColValence, Label: "Valence", Kind: KindProgress, Min: 0, Max: 1, Format: "%.2f"},
	{Key: dataset.ColDurationMS, Label: "Duration (ms)", Kind: KindInteger, Format: "%d"},
}

// GridColumns returns the Columns the table actually carries.
func GridColumns(t *dataset.Table) []ColumnSpec {
	var cols []ColumnSpec
	for _, c := range Columns {
		if t.Has(c.Key) {
			cols = append(cols, c)
		}
	}
	return cols
}

// Value returns the typed cell value, or nil when the track has none.
func (c ColumnSpec) Value(tr dataset.Track) interface{} {
	switch c.Key {
	case dataset.ColName:
		return tr.Name
	case dataset.ColArtists:
		return tr.Artists
	case dataset.ColYear:
		return tr.Year
	case dataset.ColPopularity:
		return tr.Popularity
	case dataset.ColEnergy:
		return floatOrNil(tr.Energy)
	case dataset.ColDanceability:
		return floatOrNil(tr.Danceability)
	case dataset.ColValence:
		return floatOrNil(tr.Valence)
	case dataset.ColDurationMS:
		if tr.DurationMS == nil {
			return nil
		}
		return *tr.DurationMS
	}
	return nil
}

// Text formats the cell for display using the column's format.
func (c ColumnSpec) Text(tr dataset.Track) string {
	v := c.Value(tr)
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		if c.Format == "%d" {
			return strconv.FormatInt(int64(v), 10)
		}
		return fmt.Sprintf(c.Format, v)
	default:
		return fmt.Sprint(v)
	}
}

func floatOrNil(f *float64) interface{} {
	if f == nil {
		return nil
	}
	return *f
}

// Page returns rows[offset:offset+limit], clamped. A limit <= 0 means all
// remaining rows.
func Page(rows []dataset.Track, offset, limit int) []dataset.Track {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(rows) {
		return nil
	}
	end := len(rows)
	if limit > 0 && limit < end-offset {
		end = offset + limit
	}
	return rows[offset:end]
}
