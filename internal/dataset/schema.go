package dataset

import (
	"strings"
)

// SourceSchema maps the raw header names of one known dataset variant to
// canonical columns.
type SourceSchema struct {
	Name    string
	Columns map[string]Column
}

// Schemas lists the known source variants. A header may mix names from
// several variants; the first header cell that maps to a canonical column
// wins.
var Schemas = []SourceSchema{
	{
		Name: "tracks",
		Columns: map[string]Column{
			"name":         ColName,
			"artists":      ColArtists,
			"year":         ColYear,
			"popularity":   ColPopularity,
			"energy":       ColEnergy,
			"danceability": ColDanceability,
			"valence":      ColValence,
			"duration_ms":  ColDurationMS,
		},
	},
	{
		Name: "playlist-tracks",
		Columns: map[string]Column{
			"track_name":               ColName,
			"track_artist":             ColArtists,
			"track_album_release_date": colReleaseDate,
			"popularity":               ColPopularity,
			"track_popularity":         ColPopularity,
			"energy":                   ColEnergy,
			"danceability":             ColDanceability,
			"valence":                  ColValence,
			"duration_ms":              ColDurationMS,
		},
	},
}

// canonicalOrder is the column order of a normalized table.
var canonicalOrder = []Column{
	ColName, ColArtists, ColYear, ColPopularity, ColDecade,
	ColEnergy, ColDanceability, ColValence, ColDurationMS,
}

// Mapping is a SourceSchema resolved against a concrete header row.
type Mapping struct {
	Schema string
	index  map[Column]int
}

// ResolveSchema matches a header row against Schemas. The schema with the
// most matching header cells names the mapping; column positions are taken
// from every known schema so mixed headers still resolve.
func ResolveSchema(header []string) (Mapping, []SchemaWarning) {
	m := Mapping{index: make(map[Column]int)}

	best := -1
	for _, s := range Schemas {
		hits := 0
		for i, raw := range header {
			col, ok := s.Columns[normalizeHeader(raw)]
			if !ok {
				continue
			}
			hits++
			if _, seen := m.index[col]; !seen {
				m.index[col] = i
			}
		}
		if hits > best {
			best = hits
			m.Schema = s.Name
		}
	}

	var warnings []SchemaWarning
	for _, col := range RequiredColumns {
		if !m.Has(col) {
			warnings = append(warnings, SchemaWarning{Column: col})
		}
	}
	return m, warnings
}

// Has reports whether the canonical column can be produced. The year counts
// as present when only a release date is available.
func (m Mapping) Has(col Column) bool {
	if col == ColYear {
		return m.has(ColYear) || m.has(colReleaseDate)
	}
	if col == ColDecade {
		return true
	}
	return m.has(col)
}

func (m Mapping) has(col Column) bool {
	_, ok := m.index[col]
	return ok
}

// Columns lists the canonical columns the mapping produces.
func (m Mapping) Columns() []Column {
	var cols []Column
	for _, c := range canonicalOrder {
		if m.Has(c) {
			cols = append(cols, c)
		}
	}
	return cols
}

// field returns the trimmed raw value of col, or false when the column is
// absent or the cell is empty.
func (m Mapping) field(record []string, col Column) (string, bool) {
	i, ok := m.index[col]
	if !ok || i >= len(record) {
		return "", false
	}
	v := strings.TrimSpace(record[i])
	if v == "" {
		return "", false
	}
	return v, true
}

func normalizeHeader(raw string) string {
	raw = strings.TrimPrefix(raw, "\ufeff")
	return strings.ToLower(strings.TrimSpace(raw))
}
