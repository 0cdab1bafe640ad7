package database

import (
	"database/sql"
	"fmt"
	"path/filepath"

	"github.com/pkg/errors"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteFile = "data.sqlite"

type sqliteStore struct {
	db   *sql.DB
	tx   *sql.Tx
	stmt *sql.Stmt
}

func createSQLite(dir string, opts Options) (Store, error) {
	path := filepath.Join(dir, sqliteFile)
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	// One connection keeps the transaction and the pragmas on the same handle.
	db.SetMaxOpenConns(1)

	setupSQL := fmt.Sprintf(`
	PRAGMA mmap_size = %d;
	CREATE TABLE records (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL
	) WITHOUT ROWID;`, opts.MapSize)
	if _, err := db.Exec(setupSQL); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "create schema")
	}

	tx, err := db.Begin()
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "begin write transaction")
	}
	stmt, err := tx.Prepare(`INSERT INTO records (key, value) VALUES (?, ?)`)
	if err != nil {
		tx.Rollback()
		db.Close()
		return nil, errors.Wrap(err, "prepare insert")
	}
	return &sqliteStore{db: db, tx: tx, stmt: stmt}, nil
}

func (s *sqliteStore) Put(key, value []byte) error {
	if s.tx == nil {
		return errors.New("no open transaction")
	}
	_, err := s.stmt.Exec(string(key), value)
	return err
}

func (s *sqliteStore) Commit() error {
	if s.tx == nil {
		return errors.New("no open transaction")
	}
	tx, stmt := s.tx, s.stmt
	s.tx, s.stmt = nil, nil
	stmt.Close()
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit")
	}
	empty, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(err, "begin empty transaction")
	}
	return errors.Wrap(empty.Commit(), "commit empty transaction")
}

func (s *sqliteStore) Rollback() error {
	if s.tx == nil {
		return nil
	}
	tx, stmt := s.tx, s.stmt
	s.tx, s.stmt = nil, nil
	stmt.Close()
	return tx.Rollback()
}

func (s *sqliteStore) Close() error {
	if err := s.Rollback(); err != nil {
		s.db.Close()
		return err
	}
	return s.db.Close()
}

func forEachSQLite(dir string, fn func(key, value []byte) error) error {
	path := filepath.Join(dir, sqliteFile)
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer db.Close()

	rows, err := db.Query(`SELECT key, value FROM records ORDER BY key`)
	if err != nil {
		return errors.Wrap(err, "query records")
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var value []byte
		if err := rows.Scan(&key, &value); err != nil {
			return errors.Wrap(err, "scan record")
		}
		if err := fn([]byte(key), value); err != nil {
			return err
		}
	}
	return rows.Err()
}
