package database

import (
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
)

const boltFile = "data.db"

var bucketRecords = []byte("records")

type boltStore struct {
	db *bolt.DB
	tx *bolt.Tx
	b  *bolt.Bucket
}

func createBolt(dir string, opts Options) (Store, error) {
	path := filepath.Join(dir, boltFile)
	db, err := bolt.Open(path, 0664, &bolt.Options{
		Timeout:         1 * time.Second,
		InitialMmapSize: int(opts.MapSize),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}

	tx, err := db.Begin(true)
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "begin write transaction")
	}
	b, err := tx.CreateBucket(bucketRecords)
	if err != nil {
		tx.Rollback()
		db.Close()
		return nil, errors.Wrap(err, "create bucket")
	}
	return &boltStore{db: db, tx: tx, b: b}, nil
}

func (s *boltStore) Put(key, value []byte) error {
	if s.tx == nil {
		return errors.New("no open transaction")
	}
	return s.b.Put(key, value)
}

func (s *boltStore) Commit() error {
	if s.tx == nil {
		return errors.New("no open transaction")
	}
	tx := s.tx
	s.tx, s.b = nil, nil
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit")
	}
	if err := s.db.Update(func(*bolt.Tx) error { return nil }); err != nil {
		return errors.Wrap(err, "commit empty transaction")
	}
	return s.db.Sync()
}

func (s *boltStore) Rollback() error {
	if s.tx == nil {
		return nil
	}
	tx := s.tx
	s.tx, s.b = nil, nil
	return tx.Rollback()
}

func (s *boltStore) Close() error {
	if err := s.Rollback(); err != nil {
		s.db.Close()
		return err
	}
	return s.db.Close()
}

func forEachBolt(dir string, fn func(key, value []byte) error) error {
	path := filepath.Join(dir, boltFile)
	db, err := bolt.Open(path, 0444, &bolt.Options{Timeout: 1 * time.Second, ReadOnly: true})
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer db.Close()

	return db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketRecords)
		if b == nil {
			return errors.Errorf("%s has no %s bucket", path, bucketRecords)
		}
		return b.ForEach(fn)
	})
}
