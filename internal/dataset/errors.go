package dataset

import (
	"errors"
	"fmt"
)

var (
	// ErrSourceUnavailable means the input could not be read at all. It is
	// fatal: nothing downstream should run.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrSchemaIncomplete matches every SchemaWarning.
	ErrSchemaIncomplete = errors.New("schema incomplete")

	// ErrNoSnapshot is returned by a Persister that holds nothing for a source.
	ErrNoSnapshot = errors.New("no snapshot for source")
)

// SchemaWarning reports a required column that is wholly absent from the
// source. It is non-fatal.
type SchemaWarning struct {
	Column Column `json:"column" yaml:"column"`
}

func (w SchemaWarning) Error() string {
	return fmt.Sprintf("required column %q is missing from the source", w.Column)
}

func (w SchemaWarning) Is(target error) bool {
	return target == ErrSchemaIncomplete
}
