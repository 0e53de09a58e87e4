// Package db defines the key-value storage interface used to persist
// the surety state machine, so a restarted node recovers every
// committed operation.
package db

import (
	"fmt"
	"io"
)

// ErrKeyNotFound is used to indicate that a key does not exist in the db.
var ErrKeyNotFound = fmt.Errorf("key not found")

// Options defines generic parameters for creating a new Database.
type Options struct {
	Path string
}

// Database wraps all database operations. All methods are safe for
// concurrent use.
type Database interface {
	io.Closer

	// Get retrieves the value for the given key. If the key does not
	// exist, returns the error ErrKeyNotFound.
	Get(key []byte) ([]byte, error)

	// Iterate calls callback with all key-value pairs in the database
	// whose key starts with prefix. The calls are ordered
	// lexicographically by key.
	//
	// The iteration is stopped early when the callback function
	// returns false.
	//
	// It is not safe to use the key or value slices after the callback
	// returns. To use the values for longer, make a copy.
	Iterate(prefix []byte, callback func(key, value []byte) bool) error

	// WriteTx creates a new write transaction.
	WriteTx() WriteTx
}

// WriteTx is a set of writes applied atomically on Commit.
type WriteTx interface {
	// Get retrieves the value for the given key, observing the
	// transaction's own pending writes.
	Get(key []byte) ([]byte, error)
	// Set adds a key-value pair. If the key already exists, its value
	// is updated.
	Set(key, value []byte) error
	// Delete deletes a key and its value.
	Delete(key []byte) error
	// Commit commits the transaction into the db. Calling Commit more
	// than once, or after Discard, is an error.
	Commit() error
	// Discard releases the transaction's resources without committing.
	// It is safe to call after Commit, as a no-op.
	Discard()
}
