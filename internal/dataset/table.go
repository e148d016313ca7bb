package dataset

import (
	"fmt"
	"time"
)

// Column is a canonical column name of the normalized table.
type Column string

const (
	ColName         Column = "name"
	ColArtists      Column = "artists"
	ColYear         Column = "year"
	ColPopularity   Column = "popularity"
	ColDecade       Column = "decade"
	ColEnergy       Column = "energy"
	ColDanceability Column = "danceability"
	ColValence      Column = "valence"
	ColDurationMS   Column = "duration_ms"

	// colReleaseDate is only an input column: it feeds the year and is not kept.
	colReleaseDate Column = "release_date"
)

// RequiredColumns must be present in every retained row, for those of them
// the source actually carries.
var RequiredColumns = []Column{ColName, ColArtists, ColPopularity, ColYear}

const (
	MinYear = 1921
	MaxYear = 2020

	// UnknownDecade is used when the source has no usable year column.
	UnknownDecade = "unknown"
)

// Track is one row of the normalized table.
type Track struct {
	Name         string   `json:"name" yaml:"name"`
	Artists      string   `json:"artists" yaml:"artists"`
	Year         int      `json:"year" yaml:"year"`
	Popularity   float64  `json:"popularity" yaml:"popularity"`
	Decade       string   `json:"-" yaml:"-"`
	Energy       *float64 `json:"energy,omitempty" yaml:"energy,omitempty"`
	Danceability *float64 `json:"danceability,omitempty" yaml:"danceability,omitempty"`
	Valence      *float64 `json:"valence,omitempty" yaml:"valence,omitempty"`
	DurationMS   *int64   `json:"duration_ms,omitempty" yaml:"duration_ms,omitempty"`
}

// DecadeOf returns the decade bucket label for a year, e.g. 1995 -> "1990s".
func DecadeOf(year int) string {
	return fmt.Sprintf("%ds", year/10*10)
}

// LoadStats counts what happened to the source rows during normalization.
type LoadStats struct {
	Read       int `json:"read"`
	Kept       int `json:"kept"`
	Missing    int `json:"missing"`
	Unparsable int `json:"unparsable"`
	OutOfRange int `json:"out_of_range"`
}

// Dropped is the number of source rows excluded from the table.
func (s LoadStats) Dropped() int {
	return s.Missing + s.Unparsable + s.OutOfRange
}

// Table is the normalized, immutable in-memory dataset. All accessors
// return copies.
type Table struct {
	source   string
	digest   string
	schema   string
	columns  []Column
	warnings []SchemaWarning
	stats    LoadStats
	loadedAt time.Time
	tracks   []Track
}

func (t *Table) Source() string      { return t.source }
func (t *Table) Digest() string      { return t.digest }
func (t *Table) Schema() string      { return t.schema }
func (t *Table) Stats() LoadStats    { return t.stats }
func (t *Table) LoadedAt() time.Time { return t.loadedAt }
func (t *Table) Len() int            { return len(t.tracks) }

// At returns the i'th track.
func (t *Table) At(i int) Track { return t.tracks[i] }

// Tracks returns a copy of all rows.
func (t *Table) Tracks() []Track {
	out := make([]Track, len(t.tracks))
	copy(out, t.tracks)
	return out
}

// Columns lists the canonical columns present, in canonical order.
func (t *Table) Columns() []Column {
	out := make([]Column, len(t.columns))
	copy(out, t.columns)
	return out
}

// Has reports whether the source provided column c (directly or derived).
func (t *Table) Has(c Column) bool {
	for _, col := range t.columns {
		if col == c {
			return true
		}
	}
	return false
}

// Warnings lists the SchemaIncomplete conditions found at load time.
func (t *Table) Warnings() []SchemaWarning {
	out := make([]SchemaWarning, len(t.warnings))
	copy(out, t.warnings)
	return out
}

// Snapshot is the flat form of a Table, used to persist and restore it.
type Snapshot struct {
	Source   string
	Digest   string
	Schema   string
	Columns  []Column
	Warnings []SchemaWarning
	Stats    LoadStats
	LoadedAt time.Time
	Tracks   []Track
}

func (t *Table) Snapshot() Snapshot {
	return Snapshot{
		Source:   t.source,
		Digest:   t.digest,
		Schema:   t.schema,
		Columns:  t.Columns(),
		Warnings: t.Warnings(),
		Stats:    t.stats,
		LoadedAt: t.loadedAt,
		Tracks:   t.Tracks(),
	}
}

// FromSnapshot rebuilds a Table. The snapshot's slices are copied.
func FromSnapshot(s Snapshot) *Table {
	t := &Table{
		source:   s.Source,
		digest:   s.Digest,
		schema:   s.Schema,
		columns:  append([]Column(nil), s.Columns...),
		warnings: append([]SchemaWarning(nil), s.Warnings...),
		stats:    s.Stats,
		loadedAt: s.LoadedAt,
		tracks:   append([]Track(nil), s.Tracks...),
	}
	return t
}
