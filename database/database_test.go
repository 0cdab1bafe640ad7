package database

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var backends = []Backend{Bolt, SQLite}

func TestCreateCommitForEach(t *testing.T) {
	for _, backend := range backends {
		t.Run(string(backend), func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "out")
			s, err := Create(backend, dir, Options{MapSize: 1 << 24})
			require.NoError(t, err)

			// Insert out of order; reads come back sorted by key.
			for _, i := range []int{2, 0, 1} {
				require.NoError(t, s.Put([]byte(fmt.Sprintf("%08d", i)), []byte{byte(i)}))
			}
			require.NoError(t, s.Commit())
			require.Error(t, s.Put([]byte("late"), nil))
			require.NoError(t, s.Close())

			var keys []string
			var values []byte
			require.NoError(t, ForEach(backend, dir, func(k, v []byte) error {
				keys = append(keys, string(k))
				values = append(values, v...)
				return nil
			}))
			assert.Equal(t, []string{"00000000", "00000001", "00000002"}, keys)
			assert.Equal(t, []byte{0, 1, 2}, values)
		})
	}
}

func TestCreateExistingDir(t *testing.T) {
	for _, backend := range backends {
		t.Run(string(backend), func(t *testing.T) {
			_, err := Create(backend, t.TempDir(), Options{})
			require.Error(t, err)
			assert.Equal(t, ErrStoreExists, errors.Cause(err))
		})
	}
}

func TestRollbackDiscards(t *testing.T) {
	for _, backend := range backends {
		t.Run(string(backend), func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "out")
			s, err := Create(backend, dir, Options{MapSize: 1 << 24})
			require.NoError(t, err)
			require.NoError(t, s.Put([]byte("00000000"), []byte("x")))
			require.NoError(t, s.Rollback())
			require.NoError(t, s.Close())

			n := 0
			err = ForEach(backend, dir, func(k, v []byte) error {
				n++
				return nil
			})
			// A rolled back bolt store never created its bucket.
			if backend == Bolt {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Zero(t, n)
		})
	}
}

func TestDuplicateKeyFailsOnSQLite(t *testing.T) {
	s, err := Create(SQLite, filepath.Join(t.TempDir(), "out"), Options{})
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Put([]byte("00000000"), []byte("a")))
	assert.Error(t, s.Put([]byte("00000000"), []byte("b")))
}

func TestParseBackend(t *testing.T) {
	b, err := ParseBackend("bolt")
	require.NoError(t, err)
	assert.Equal(t, Bolt, b)
	_, err = ParseBackend("lmdb")
	assert.Error(t, err)
}
