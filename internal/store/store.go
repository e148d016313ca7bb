package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Store persists normalized tables in SQLite so a later session can skip
// fetching and parsing the source.
type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating tables: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

const createSchema = `
CREATE TABLE IF NOT EXISTS Snapshot (
  source TEXT PRIMARY KEY,
  digest TEXT NOT NULL,
  schema_name TEXT NOT NULL,
  columns TEXT NOT NULL,
  missing_columns TEXT NOT NULL,
  rows_read INTEGER NOT NULL,
  rows_missing INTEGER NOT NULL,
  rows_unparsable INTEGER NOT NULL,
  rows_out_of_range INTEGER NOT NULL,
  loaded_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS Track (
  source TEXT NOT NULL,
  position INTEGER NOT NULL,
  name TEXT NOT NULL,
  artists TEXT NOT NULL,
  year INTEGER NOT NULL,
  popularity REAL NOT NULL,
  decade TEXT NOT NULL,
  energy REAL,
  danceability REAL,
  valence REAL,
  duration_ms INTEGER,
  FOREIGN KEY (source) REFERENCES Snapshot(source),
  PRIMARY KEY (source, position)
);
`

func createTables(db *sql.DB) error {
	exists, err := dbExists(db)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	if _, err := db.Exec(createSchema); err != nil {
		return fmt.Errorf("executing schema: %w", err)
	}
	return nil
}

func dbExists(db *sql.DB) (bool, error) {
	// Check for the 'Snapshot' table as a proxy for DB existence
	row := db.QueryRow("SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'Snapshot'")
	var name string
	err := row.Scan(&name)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking db existence: %w", err)
	}
	return true, nil
}
