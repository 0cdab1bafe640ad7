// Package dataset owns the output store of a run. All writes funnel through
// one goroutine, which assigns every record the next sequential key.
package dataset

import (
	"context"
	"fmt"
	"sync"

	"bmpconverter/database"
	"bmpconverter/datum"
	"bmpconverter/logging"
	"bmpconverter/types"

	"github.com/pkg/errors"
)

// KeyWidth is the number of zero padded decimal digits in a record key.
const KeyWidth = 8

// MaxItems is the first index that no longer fits in KeyWidth digits.
const MaxItems = 100_000_000

var (
	// ErrKeySpaceExhausted is returned once MaxItems records have been written.
	ErrKeySpaceExhausted = errors.New("record key space exhausted")
	// ErrClosed is returned by Submit after Close or Abort.
	ErrClosed = errors.New("dataset sink closed")
)

// FormatKey renders index as a fixed width key, for example "00000042".
func FormatKey(index int64) (string, error) {
	if index < 0 || index >= MaxItems {
		return "", errors.Wrapf(ErrKeySpaceExhausted, "index %d", index)
	}
	return fmt.Sprintf("%0*d", KeyWidth, index), nil
}

// Options configure Open.
type Options struct {
	Backend database.Backend
	MapSize int64
	// Counters are shared with the workers; nil allocates new ones.
	Counters *Counters
	Logger   logging.Logger
}

// Entry identifies a written record.
type Entry struct {
	Key   string
	Index int64
}

type submission struct {
	record types.Record
	reply  chan result
}

type result struct {
	entry Entry
	err   error
}

// Sink serializes record writes into a single store transaction.
type Sink struct {
	path     string
	store    database.Store
	counters *Counters
	log      logging.Logger

	requests chan submission
	quit     chan struct{}
	done     chan struct{}
	once     sync.Once

	// fatal is owned by the writer goroutine until done is closed.
	fatal error
}

// Open creates the store directory at path and starts the writer. It fails
// if path exists or the store cannot be opened.
func Open(path string, opts Options) (*Sink, error) {
	if opts.Backend == "" {
		opts.Backend = database.Bolt
	}
	if opts.Counters == nil {
		opts.Counters = NewCounters()
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop
	}

	opts.Logger.Infof("Opening %s store %s", opts.Backend, path)
	store, err := database.Create(opts.Backend, path, database.Options{MapSize: opts.MapSize})
	if err != nil {
		return nil, errors.Wrap(err, "open dataset")
	}

	s := &Sink{
		path:     path,
		store:    store,
		counters: opts.Counters,
		log:      opts.Logger,
		requests: make(chan submission),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go s.run()
	return s, nil
}

// Counters returns the counters the sink advances.
func (s *Sink) Counters() *Counters {
	return s.counters
}

// BumpFileCounter counts one observed file and returns the new total.
func (s *Sink) BumpFileCounter() int64 {
	return s.counters.BumpFiles()
}

// Submit writes one canonical record and returns its key. It is safe for
// concurrent use; writes are applied one at a time in arrival order. Any
// error is fatal for the run.
func (s *Sink) Submit(ctx context.Context, pixels []byte, label int) (Entry, error) {
	req := submission{
		record: types.NewRecord(pixels, label),
		reply:  make(chan result, 1),
	}
	select {
	case s.requests <- req:
	case <-s.quit:
		return Entry{}, ErrClosed
	case <-ctx.Done():
		return Entry{}, ctx.Err()
	}
	// Once received the write is applied, so wait for it regardless of ctx.
	res := <-req.reply
	return res.entry, res.err
}

func (s *Sink) run() {
	defer close(s.done)
	for {
		select {
		case <-s.quit:
			return
		case req := <-s.requests:
			entry, err := s.write(req.record)
			req.reply <- result{entry: entry, err: err}
		}
	}
}

func (s *Sink) write(r types.Record) (Entry, error) {
	if s.fatal != nil {
		return Entry{}, s.fatal
	}

	index := s.counters.items.Load()
	key, err := FormatKey(index)
	if err != nil {
		s.fatal = err
		return Entry{}, err
	}
	value, err := datum.Marshal(r)
	if err != nil {
		s.fatal = errors.Wrapf(err, "encode %s", key)
		return Entry{}, s.fatal
	}
	// The store keeps key and value until commit; both are fresh slices.
	if err := s.store.Put([]byte(key), value); err != nil {
		s.fatal = errors.Wrapf(err, "put %s", key)
		return Entry{}, s.fatal
	}
	s.counters.items.Add(1)
	return Entry{Key: key, Index: index}, nil
}

// Close stops the writer, commits everything written and closes the store.
// If a write failed earlier the transaction is rolled back instead and that
// failure is returned.
func (s *Sink) Close() error {
	return s.finish(true)
}

// Abort stops the writer and discards the transaction.
func (s *Sink) Abort() error {
	return s.finish(false)
}

func (s *Sink) finish(commit bool) error {
	err := ErrClosed
	s.once.Do(func() {
		close(s.quit)
		<-s.done
		err = s.settle(commit && s.fatal == nil)
		if commit && s.fatal != nil {
			err = s.fatal
		}
	})
	return err
}

func (s *Sink) settle(commit bool) error {
	var err error
	if commit {
		if err = s.store.Commit(); err == nil {
			s.log.Infof("Committed %d items to %s", s.counters.Items(), s.path)
		}
	} else {
		err = s.store.Rollback()
		s.log.Warnf("Discarded dataset transaction for %s", s.path)
	}
	if cerr := s.store.Close(); err == nil {
		err = cerr
	}
	return errors.Wrap(err, "close dataset")
}
