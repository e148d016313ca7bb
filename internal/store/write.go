package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/ademuri/track-dashboard/internal/dataset"
)

// SaveTable replaces the snapshot for t's source in a single transaction.
func (s *Store) SaveTable(t *dataset.Table) error {
	snap := t.Snapshot()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := deleteSnapshot(tx, snap.Source); err != nil {
		return err
	}

	_, err = tx.Exec(`
	INSERT INTO Snapshot (source, digest, schema_name, columns, missing_columns,
		rows_read, rows_missing, rows_unparsable, rows_out_of_range, loaded_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.Source, snap.Digest, snap.Schema,
		joinColumns(snap.Columns), joinWarnings(snap.Warnings),
		snap.Stats.Read, snap.Stats.Missing, snap.Stats.Unparsable, snap.Stats.OutOfRange,
		snap.LoadedAt.UTC())
	if err != nil {
		return fmt.Errorf("inserting snapshot %q: %w", snap.Source, err)
	}

	stmt, err := tx.Prepare(`
	INSERT INTO Track (source, position, name, artists, year, popularity, decade,
		energy, danceability, valence, duration_ms)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing track insert: %w", err)
	}
	defer stmt.Close()

	for i, tr := range snap.Tracks {
		_, err := stmt.Exec(snap.Source, i, tr.Name, tr.Artists, tr.Year, tr.Popularity, tr.Decade,
			nullFloat(tr.Energy), nullFloat(tr.Danceability), nullFloat(tr.Valence), nullInt(tr.DurationMS))
		if err != nil {
			return fmt.Errorf("inserting track %d of %q: %w", i, snap.Source, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// DeleteSnapshot removes the snapshot for source. It reports whether one
// existed.
func (s *Store) DeleteSnapshot(source string) (bool, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var dummy string
	err = tx.QueryRow("SELECT source FROM Snapshot WHERE source = ?", source).Scan(&dummy)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking snapshot %q: %w", source, err)
	}

	if err := deleteSnapshot(tx, source); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing transaction: %w", err)
	}
	return true, nil
}

func deleteSnapshot(tx *sql.Tx, source string) error {
	if _, err := tx.Exec("DELETE FROM Track WHERE source = ?", source); err != nil {
		return fmt.Errorf("deleting tracks of %q: %w", source, err)
	}
	if _, err := tx.Exec("DELETE FROM Snapshot WHERE source = ?", source); err != nil {
		return fmt.Errorf("deleting snapshot %q: %w", source, err)
	}
	return nil
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func nullInt(i *int64) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *i, Valid: true}
}

func joinColumns(cols []dataset.Column) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = string(c)
	}
	return strings.Join(parts, ",")
}

func joinWarnings(warnings []dataset.SchemaWarning) string {
	parts := make([]string, len(warnings))
	for i, w := range warnings {
		parts[i] = string(w.Column)
	}
	return strings.Join(parts, ",")
}
