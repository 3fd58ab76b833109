// Package store provides named persistence for Newick trees.
//
// A store maps user-chosen names to tree entries, so a tree parsed once
// can be reused across commands ("phylotangle trees save mammals
// mammals.nwk", later "phylotangle tangle store:mammals store:birds").
// Two backends implement the same interface:
//   - file: one JSON file per tree under the config directory, for CLI use
//   - mongo: a MongoDB collection, for the HTTP service
//
// Trees are stored as Newick text, not as serialized node structures:
// the codec is the single source of truth for the wire format.
package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned by Get and Delete when no tree with the
	// requested name exists.
	ErrNotFound = errors.New("tree not found")

	// ErrDuplicate is returned by Save when a tree with the same name
	// already exists and overwrite was not requested.
	ErrDuplicate = errors.New("tree already exists")
)

// Entry is one stored tree.
type Entry struct {
	ID        string    `json:"id" bson:"_id"`
	Name      string    `json:"name" bson:"name"`
	Newick    string    `json:"newick" bson:"newick"`
	Leaves    int       `json:"leaves" bson:"leaves"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// Store persists named trees. Implementations are safe for concurrent
// use.
type Store interface {
	// Save stores entry under entry.Name. With overwrite false, saving
	// an existing name returns ErrDuplicate.
	Save(ctx context.Context, entry Entry, overwrite bool) error

	// Get returns the entry stored under name, or ErrNotFound.
	Get(ctx context.Context, name string) (*Entry, error)

	// List returns all entries sorted by name.
	List(ctx context.Context) ([]Entry, error)

	// Delete removes the entry stored under name, or returns
	// ErrNotFound.
	Delete(ctx context.Context, name string) error

	// Close releases backend resources.
	Close(ctx context.Context) error
}
