// Package database provides the single-writer transactional key/value stores
// the dataset is written to.
package database

import (
	"os"

	"github.com/pkg/errors"
)

// Backend names a store implementation.
type Backend string

const (
	Bolt   Backend = "bolt"
	SQLite Backend = "sqlite"
)

// DefaultMapSize is the address space reserved up front for a store.
const DefaultMapSize = 1 << 30

// ErrStoreExists is returned when the output directory is already present.
var ErrStoreExists = errors.New("store directory already exists")

// Store holds one long-lived write transaction. It is not safe for
// concurrent use; a single goroutine must own it.
type Store interface {
	// Put inserts key/value into the open transaction.
	Put(key, value []byte) error
	// Commit commits the open transaction, then commits an empty one to
	// force everything to disk. No further Puts are allowed.
	Commit() error
	// Rollback discards the open transaction.
	Rollback() error
	// Close releases the environment. It does not commit.
	Close() error
}

// Options tune store creation.
type Options struct {
	// MapSize is the address space to reserve so the store never has to
	// grow while writers are running.
	MapSize int64
}

// ParseBackend validates a backend name.
func ParseBackend(name string) (Backend, error) {
	switch Backend(name) {
	case Bolt, SQLite:
		return Backend(name), nil
	}
	return "", errors.Errorf("unknown store backend %q", name)
}

// Create makes dir, opens a new store of the given backend inside it and
// begins its write transaction. dir must not exist.
func Create(backend Backend, dir string, opts Options) (Store, error) {
	if opts.MapSize <= 0 {
		opts.MapSize = DefaultMapSize
	}
	if _, err := os.Stat(dir); err == nil {
		return nil, errors.Wrap(ErrStoreExists, dir)
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "stat %s", dir)
	}
	if err := os.Mkdir(dir, 0744); err != nil {
		return nil, errors.Wrapf(err, "mkdir %s", dir)
	}

	switch backend {
	case Bolt:
		return createBolt(dir, opts)
	case SQLite:
		return createSQLite(dir, opts)
	}
	return nil, errors.Errorf("unknown store backend %q", backend)
}

// ForEach calls fn for every record in dir in ascending key order.
func ForEach(backend Backend, dir string, fn func(key, value []byte) error) error {
	switch backend {
	case Bolt:
		return forEachBolt(dir, fn)
	case SQLite:
		return forEachSQLite(dir, fn)
	}
	return errors.Errorf("unknown store backend %q", backend)
}
