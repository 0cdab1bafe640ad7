package dataset

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"bmpconverter/database"
	"bmpconverter/datum"
	"bmpconverter/logging"
	"bmpconverter/types"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pixels(v byte) []byte {
	p := make([]byte, types.CanonicalPixels)
	for i := range p {
		p[i] = v
	}
	return p
}

func openSink(t *testing.T, backend database.Backend) (*Sink, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lmdb")
	s, err := Open(path, Options{Backend: backend, MapSize: 1 << 26, Logger: logging.NewTestLogger(t)})
	require.NoError(t, err)
	return s, path
}

func readAll(t *testing.T, backend database.Backend, path string) ([]string, []types.Record) {
	t.Helper()
	var keys []string
	var records []types.Record
	require.NoError(t, database.ForEach(backend, path, func(k, v []byte) error {
		r, err := datum.Unmarshal(v)
		if err != nil {
			return err
		}
		keys = append(keys, string(k))
		records = append(records, r)
		return nil
	}))
	return keys, records
}

func TestFormatKey(t *testing.T) {
	tests := []struct {
		index   int64
		want    string
		wantErr bool
	}{
		{0, "00000000", false},
		{42, "00000042", false},
		{MaxItems - 1, "99999999", false},
		{MaxItems, "", true},
		{-1, "", true},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.index), func(t *testing.T) {
			got, err := FormatKey(tt.index)
			if tt.wantErr {
				assert.Equal(t, ErrKeySpaceExhausted, errors.Cause(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSubmitSequentialKeys(t *testing.T) {
	for _, backend := range []database.Backend{database.Bolt, database.SQLite} {
		t.Run(string(backend), func(t *testing.T) {
			s, path := openSink(t, backend)
			ctx := context.Background()

			for i := 0; i < 3; i++ {
				e, err := s.Submit(ctx, pixels(byte(i)), i)
				require.NoError(t, err)
				assert.Equal(t, int64(i), e.Index)
				assert.Equal(t, fmt.Sprintf("%08d", i), e.Key)
			}
			require.NoError(t, s.Close())
			assert.Equal(t, int64(3), s.Counters().Items())

			keys, records := readAll(t, backend, path)
			assert.Equal(t, []string{"00000000", "00000001", "00000002"}, keys)
			for i, r := range records {
				assert.Equal(t, types.NewRecord(pixels(byte(i)), i), r)
			}
		})
	}
}

func TestSubmitConcurrent(t *testing.T) {
	s, path := openSink(t, database.Bolt)
	ctx := context.Background()

	const workers, perWorker = 16, 40
	var wg sync.WaitGroup
	var mu sync.Mutex
	seen := make(map[int64]bool)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				s.BumpFileCounter()
				e, err := s.Submit(ctx, pixels(byte(w)), w%10)
				if !assert.NoError(t, err) {
					return
				}
				mu.Lock()
				assert.False(t, seen[e.Index], "duplicate index %d", e.Index)
				seen[e.Index] = true
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	require.NoError(t, s.Close())

	total := workers * perWorker
	assert.Equal(t, int64(total), s.Counters().Files())
	assert.Equal(t, int64(total), s.Counters().Items())

	keys, records := readAll(t, database.Bolt, path)
	require.Len(t, keys, total)
	assert.True(t, sort.StringsAreSorted(keys))
	for i, k := range keys {
		assert.Equal(t, fmt.Sprintf("%08d", i), k)
	}
	perLabel := make(map[int]int)
	for _, r := range records {
		perLabel[r.Label]++
	}
	for label := 0; label < 10; label++ {
		want := 0
		for w := 0; w < workers; w++ {
			if w%10 == label {
				want += perWorker
			}
		}
		assert.Equal(t, want, perLabel[label], "label %d", label)
	}
}

func TestSubmitAfterClose(t *testing.T) {
	s, _ := openSink(t, database.Bolt)
	require.NoError(t, s.Close())

	_, err := s.Submit(context.Background(), pixels(1), 1)
	assert.Equal(t, ErrClosed, err)
	assert.Equal(t, ErrClosed, s.Close())
	assert.Equal(t, ErrClosed, s.Abort())
}

func TestSubmitCanceled(t *testing.T) {
	s, _ := openSink(t, database.Bolt)
	defer s.Abort()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// The writer is idle, so either branch may win; a canceled submit must
	// never report success without a key.
	e, err := s.Submit(ctx, pixels(1), 1)
	if err != nil {
		assert.Equal(t, context.Canceled, err)
		return
	}
	assert.Equal(t, "00000000", e.Key)
}

func TestAbortDiscards(t *testing.T) {
	s, path := openSink(t, database.SQLite)
	_, err := s.Submit(context.Background(), pixels(1), 1)
	require.NoError(t, err)
	require.NoError(t, s.Abort())

	keys, _ := readAll(t, database.SQLite, path)
	assert.Empty(t, keys)
}

func TestOpenExisting(t *testing.T) {
	_, err := Open(t.TempDir(), Options{})
	require.Error(t, err)
	assert.Equal(t, database.ErrStoreExists, errors.Cause(err))
}

func TestKeySpaceExhaustedIsFatal(t *testing.T) {
	s, _ := openSink(t, database.Bolt)
	s.counters.items.Store(MaxItems)

	_, err := s.Submit(context.Background(), pixels(1), 1)
	assert.Equal(t, ErrKeySpaceExhausted, errors.Cause(err))
	_, err = s.Submit(context.Background(), pixels(1), 1)
	assert.Equal(t, ErrKeySpaceExhausted, errors.Cause(err))

	err = s.Close()
	assert.Equal(t, ErrKeySpaceExhausted, errors.Cause(err))
}

func TestBadRecordIsFatal(t *testing.T) {
	s, _ := openSink(t, database.Bolt)
	_, err := s.Submit(context.Background(), []byte{1, 2, 3}, 1)
	require.Error(t, err)
	assert.Error(t, s.Close())
	assert.Zero(t, s.Counters().Items())
}
