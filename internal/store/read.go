package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/ademuri/track-dashboard/internal/dataset"
)

// SnapshotInfo summarizes one persisted table.
type SnapshotInfo struct {
	Source   string
	Digest   string
	Schema   string
	Rows     int
	LoadedAt time.Time
}

// LoadTable restores the snapshot for source. It returns an error wrapping
// dataset.ErrNoSnapshot when there is none.
func (s *Store) LoadTable(source string) (*dataset.Table, error) {
	snap := dataset.Snapshot{Source: source}
	var columns, missing string
	row := s.db.QueryRow(`
	SELECT digest, schema_name, columns, missing_columns,
		rows_read, rows_missing, rows_unparsable, rows_out_of_range, loaded_at
	FROM Snapshot WHERE source = ?`, source)
	err := row.Scan(&snap.Digest, &snap.Schema, &columns, &missing,
		&snap.Stats.Read, &snap.Stats.Missing, &snap.Stats.Unparsable, &snap.Stats.OutOfRange,
		&snap.LoadedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%q: %w", source, dataset.ErrNoSnapshot)
	}
	if err != nil {
		return nil, fmt.Errorf("reading snapshot %q: %w", source, err)
	}
	snap.Columns = splitColumns(columns)
	for _, c := range splitColumns(missing) {
		snap.Warnings = append(snap.Warnings, dataset.SchemaWarning{Column: c})
	}

	rows, err := s.db.Query(`
	SELECT name, artists, year, popularity, decade, energy, danceability, valence, duration_ms
	FROM Track WHERE source = ? ORDER BY position`, source)
	if err != nil {
		return nil, fmt.Errorf("querying tracks of %q: %w", source, err)
	}
	defer rows.Close()

	for rows.Next() {
		var tr dataset.Track
		var energy, danceability, valence sql.NullFloat64
		var duration sql.NullInt64
		if err := rows.Scan(&tr.Name, &tr.Artists, &tr.Year, &tr.Popularity, &tr.Decade,
			&energy, &danceability, &valence, &duration); err != nil {
			return nil, fmt.Errorf("scanning track of %q: %w", source, err)
		}
		tr.Energy = floatPtr(energy)
		tr.Danceability = floatPtr(danceability)
		tr.Valence = floatPtr(valence)
		if duration.Valid {
			d := duration.Int64
			tr.DurationMS = &d
		}
		snap.Tracks = append(snap.Tracks, tr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tracks of %q: %w", source, err)
	}

	snap.Stats.Kept = len(snap.Tracks)
	return dataset.FromSnapshot(snap), nil
}

// ListSnapshots returns every persisted table, ordered by source.
func (s *Store) ListSnapshots() ([]SnapshotInfo, error) {
	rows, err := s.db.Query(`
	SELECT Snapshot.source, digest, schema_name, loaded_at, COUNT(Track.position)
	FROM Snapshot
	LEFT JOIN Track ON Track.source = Snapshot.source
	GROUP BY Snapshot.source
	ORDER BY Snapshot.source`)
	if err != nil {
		return nil, fmt.Errorf("querying snapshots: %w", err)
	}
	defer rows.Close()

	var infos []SnapshotInfo
	for rows.Next() {
		var info SnapshotInfo
		if err := rows.Scan(&info.Source, &info.Digest, &info.Schema, &info.LoadedAt, &info.Rows); err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	f := n.Float64
	return &f
}

func splitColumns(s string) []dataset.Column {
	if s == "" {
		return nil
	}
	var cols []dataset.Column
	for _, part := range strings.Split(s, ",") {
		cols = append(cols, dataset.Column(part))
	}
	return cols
}
