// Package badgerdb implements the db.Database interface on BadgerDB.
package badgerdb

import (
	"errors"
	"os"

	"github.com/dgraph-io/badger/v3"

	"github.com/flightsurety/suretynode/db"
)

// WriteTx implements the interface db.WriteTx
type WriteTx struct {
	tx *badger.Txn
}

// check that WriteTx implements the db.WriteTx interface
var _ db.WriteTx = (*WriteTx)(nil)

// Get implements the db.WriteTx.Get interface method
func (tx WriteTx) Get(k []byte) ([]byte, error) {
	item, err := tx.tx.Get(k)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, db.ErrKeyNotFound
	}
	if err != nil {
		return nil, err
	}
	return item.ValueCopy(nil)
}

// Set implements the db.WriteTx.Set interface method
func (tx WriteTx) Set(k, v []byte) error {
	return tx.tx.Set(k, v)
}

// Delete implements the db.WriteTx.Delete interface method
func (tx WriteTx) Delete(k []byte) error {
	return tx.tx.Delete(k)
}

// Commit implements the db.WriteTx.Commit interface method
func (tx WriteTx) Commit() error {
	// Badger's Txn.Commit does not discard transactions with zero
	// pending writes, so always discard.
	defer tx.tx.Discard()
	return tx.tx.Commit()
}

// Discard implements the db.WriteTx.Discard interface method
func (tx WriteTx) Discard() {
	tx.tx.Discard()
}

// BadgerDB implements db.Database interface
type BadgerDB struct {
	db *badger.DB
}

// check that BadgerDB implements the db.Database interface
var _ db.Database = (*BadgerDB)(nil)

// New returns a BadgerDB using the given Options, which implements the
// db.Database interface
func New(opts db.Options) (*BadgerDB, error) {
	if err := os.MkdirAll(opts.Path, os.ModePerm); err != nil {
		return nil, err
	}
	badgerOpts := badger.DefaultOptions(opts.Path).
		WithLogger(nil).
		WithSyncWrites(false).
		WithCompression(0).
		WithBlockCacheSize(0).
		WithNumMemtables(1)
	bdb, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, err
	}
	return &BadgerDB{db: bdb}, nil
}

// Get implements the db.Database.Get interface method
func (d *BadgerDB) Get(k []byte) ([]byte, error) {
	var value []byte
	err := d.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(k)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return db.ErrKeyNotFound
		}
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	return value, err
}

// WriteTx returns a db.WriteTx
func (d *BadgerDB) WriteTx() db.WriteTx {
	return WriteTx{tx: d.db.NewTransaction(true)}
}

// Close closes the BadgerDB
func (d *BadgerDB) Close() error {
	return d.db.Close()
}

// Iterate implements the db.Database.Iterate interface method
func (d *BadgerDB) Iterate(prefix []byte, callback func(k, v []byte) bool) error {
	return d.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		if prefix != nil {
			opts.Prefix = prefix
		}
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			stopIter := false
			err := item.Value(func(v []byte) error {
				if cont := callback(item.Key(), v); !cont {
					stopIter = true
				}
				return nil
			})
			if err != nil {
				return err
			}
			if stopIter {
				break
			}
		}
		return nil
	})
}
