package database

import (
	"github.com/mediapulse/socimport/app/flattener"
)

// ImportLog is the persistence contract for the at-most-once import gate
type ImportLog interface {
	Contains(filename string) (bool, error)
	Add(filename string) error
	Count() (int, error)
	ImportedOn(date string) ([]string, error)
}

// PostStore is the persistence contract for flattened post records.
// StoreBatch is all-or-nothing: a failed call leaves no partial batch behind.
type PostStore interface {
	StoreBatch(records []flattener.FlatRecord) error
	Count() (int, error)
}
