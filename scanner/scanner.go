package scanner

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"bmpconverter/dataset"
	"bmpconverter/imageprocessor"
	"bmpconverter/labels"
	"bmpconverter/logging"
	"bmpconverter/types"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// ScanAndStoreFolder converts every image in the immediate subdirectories of
// options.RootPath and stores the results in a new dataset at
// options.StorePath. Per-file problems are logged and skipped; only store
// failures and cancellation end the run early, in which case the dataset is
// discarded.
func ScanAndStoreFolder(ctx context.Context, options ScanOptions) (Summary, error) {
	options = options.withDefaults()
	log := options.Logger

	stats, err := countFilesToProcess(options.RootPath, log)
	if err != nil {
		return Summary{}, err
	}
	PrintStartupInfo(options.Out, stats, options)

	counters := dataset.NewCounters()
	storeOptions := options.Store
	storeOptions.Counters = counters
	storeOptions.Logger = log
	sink, err := dataset.Open(options.StorePath, storeOptions)
	if err != nil {
		return Summary{}, err
	}

	tracker := NewProgressTracker(options.Out, stats.TotalFiles, options.ProgressEvery, counters, log, options.Metrics)
	w := &worker{
		options: options,
		sink:    sink,
		tracker: tracker,
		log:     log,
	}

	startTime := time.Now()
	err = dispatch(ctx, options.Schedule, options.MaxWorkers, stats.Directories, w.processDirectory)
	if err != nil {
		if aerr := sink.Abort(); aerr != nil {
			log.Errorf("Discarding dataset: %v", aerr)
		}
		return tracker.Summary(len(stats.Directories), time.Since(startTime)), err
	}
	if err := sink.Close(); err != nil {
		return tracker.Summary(len(stats.Directories), time.Since(startTime)), err
	}

	summary := tracker.Summary(len(stats.Directories), time.Since(startTime))
	log.Infof("Scan completed in %v. Processed: %d, stored: %d, skipped: %v",
		summary.Elapsed, summary.Processed, summary.Accepted, summary.Skipped)
	PrintCompletionStats(options.Out, summary, options.StorePath)
	return summary, nil
}

func (o ScanOptions) withDefaults() ScanOptions {
	if o.Extension == "" {
		o.Extension = ".bmp"
	}
	if o.MaxWorkers <= 0 {
		o.MaxWorkers = MaxConcurrency
	}
	if o.Schedule == "" {
		o.Schedule = Waves
	}
	if o.ProgressEvery <= 0 {
		o.ProgressEvery = DefaultProgressEvery
	}
	if o.Loader == nil {
		o.Loader = imageprocessor.NewImageLoaderRegistry(imageprocessor.DefaultMaxPixels)
	}
	if o.Normalizer == nil {
		o.Normalizer = imageprocessor.NewNormalizer(imageprocessor.DefaultScale)
	}
	if o.Logger == nil {
		o.Logger = logging.Nop
	}
	if o.Out == nil {
		o.Out = io.Discard
	}
	return o
}

// dispatch runs task once per directory with at most limit tasks in flight.
// The first error cancels the context handed to the remaining tasks.
func dispatch(ctx context.Context, schedule Schedule, limit int, dirs []string,
	task func(ctx context.Context, dir string) error) error {
	if schedule == Pool {
		return runPool(ctx, limit, dirs, task)
	}
	return runWaves(ctx, limit, dirs, task)
}

// runWaves starts batches of up to limit tasks and joins each batch before
// starting the next, so a slow directory holds back the following wave.
func runWaves(ctx context.Context, limit int, dirs []string,
	task func(ctx context.Context, dir string) error) error {
	for start := 0; start < len(dirs); start += limit {
		if err := ctx.Err(); err != nil {
			return err
		}
		g, gctx := errgroup.WithContext(ctx)
		for _, dir := range dirs[start:min(start+limit, len(dirs))] {
			g.Go(func() error { return task(gctx, dir) })
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}
	return nil
}

// runPool keeps up to limit tasks running, starting the next directory as
// soon as one finishes.
func runPool(ctx context.Context, limit int, dirs []string,
	task func(ctx context.Context, dir string) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, dir := range dirs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			// A slot may free up only after another task failed.
			if err := gctx.Err(); err != nil {
				return err
			}
			return task(gctx, dir)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

type worker struct {
	options ScanOptions
	sink    *dataset.Sink
	tracker *ProgressTracker
	log     logging.Logger
}

// processDirectory converts the regular files directly inside dir.
func (w *worker) processDirectory(ctx context.Context, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		// Entries read before the failure are still processed.
		w.log.Errorf("Error reading directory %s: %v", dir, err)
	}
	w.log.Debugf("Processing %d entries in %s", len(entries), dir)

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !e.Type().IsRegular() {
			continue
		}
		if err := w.processFile(ctx, filepath.Join(dir, e.Name())); err != nil {
			return err
		}
	}
	w.options.Metrics.DirectoryDone()
	return nil
}

// processFile moves one file to its terminal state. Only store failures are
// returned.
func (w *worker) processFile(ctx context.Context, path string) error {
	w.sink.BumpFileCounter()

	if !imageprocessor.HasExtension(path, w.options.Extension) {
		w.tracker.Skipped(path, types.SkippedExtension, nil)
		return nil
	}

	label, err := labels.FromFilename(path, w.options.LabelSet)
	if err != nil {
		w.tracker.Skipped(path, types.SkippedLabel, err)
		return nil
	}

	pixels, outcome, err := w.canonicalize(path)
	if err != nil {
		w.tracker.Skipped(path, outcome, err)
		return nil
	}

	entry, err := w.sink.Submit(ctx, pixels, label)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Cause(err) == ctxErr {
			return err
		}
		return errors.Wrapf(err, "store %s", path)
	}
	w.tracker.Accepted(path, entry)
	return nil
}

// canonicalize decodes and normalizes path. The returned outcome names the
// failing stage when err is set.
func (w *worker) canonicalize(path string) (pixels []byte, outcome types.Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			pixels, outcome = nil, types.SkippedNormalize
			err = fmt.Errorf("panic while processing %s: %v", path, r)
		}
	}()

	img, err := w.options.Loader.LoadImage(path)
	if err != nil {
		return nil, types.SkippedDecode, err
	}
	canonical, err := w.options.Normalizer.Normalize(img)
	if err != nil {
		return nil, types.SkippedNormalize, err
	}
	return imageprocessor.Pixels(canonical), types.Accepted, nil
}
