package scanner

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"bmpconverter/dataset"
	"bmpconverter/logging"
	"bmpconverter/metrics"
	"bmpconverter/types"
	"bmpconverter/utils"
)

// ProgressTracker tallies file outcomes and prints a progress line every
// `every` stored items.
type ProgressTracker struct {
	out        io.Writer
	mu         sync.Mutex
	totalFiles int64
	every      int64
	counters   *dataset.Counters
	outcomes   [len(types.Outcomes)]atomic.Int64
	log        logging.Logger
	metrics    *metrics.Metrics
}

// NewProgressTracker initializes the progress tracker
func NewProgressTracker(out io.Writer, totalFiles, every int64, counters *dataset.Counters,
	log logging.Logger, m *metrics.Metrics) *ProgressTracker {
	if every <= 0 {
		every = DefaultProgressEvery
	}
	return &ProgressTracker{
		out:        out,
		totalFiles: totalFiles,
		every:      every,
		counters:   counters,
		log:        log,
		metrics:    m,
	}
}

// Skipped records a file that produced no record.
func (p *ProgressTracker) Skipped(path string, o types.Outcome, reason error) {
	p.outcomes[o].Add(1)
	p.metrics.Observe(o)
	msg := o.String()
	if reason != nil {
		msg += ": " + reason.Error()
	}
	p.log.ImageProcessed(path, false, msg)
}

// Accepted records a stored file and prints progress on every multiple of
// the progress interval. Indices are unique, so exactly one worker prints
// each line.
func (p *ProgressTracker) Accepted(path string, e dataset.Entry) {
	p.outcomes[types.Accepted].Add(1)
	p.metrics.Observe(types.Accepted)
	p.log.ImageProcessed(path, true, "")
	if (e.Index+1)%p.every == 0 {
		p.printProgress(e.Index + 1)
	}
}

func (p *ProgressTracker) printProgress(items int64) {
	files := p.counters.Files()
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "Processed %s files, stored %s items (%.1f%%)\n",
		utils.FormatCount(files), utils.FormatCount(items), utils.Percent(files, p.totalFiles))
}

// Count returns the tally for one outcome.
func (p *ProgressTracker) Count(o types.Outcome) int64 {
	return p.outcomes[o].Load()
}

// Summary snapshots the tallies.
func (p *ProgressTracker) Summary(dirs int, elapsed time.Duration) Summary {
	s := Summary{
		Directories: dirs,
		TotalFiles:  p.totalFiles,
		Processed:   p.counters.Files(),
		Accepted:    p.counters.Items(),
		Skipped:     make(map[string]int64),
		Elapsed:     elapsed,
	}
	for _, o := range types.Outcomes[1:] {
		if n := p.Count(o); n > 0 {
			s.Skipped[o.String()] = n
		}
	}
	return s
}

// PrintStartupInfo displays information about the scan before starting
func PrintStartupInfo(out io.Writer, stats FileStats, options ScanOptions) {
	fmt.Fprintf(out, "Starting conversion of %s...\n", options.RootPath)
	fmt.Fprintf(out, "Found %s files in %d subdirectories\n",
		utils.FormatCount(stats.TotalFiles), len(stats.Directories))
	fmt.Fprintf(out, "Label set: %s, workers: %d (%s)\n", options.LabelSet, options.MaxWorkers, options.Schedule)
}

// PrintCompletionStats displays statistics after scan completion
func PrintCompletionStats(out io.Writer, s Summary, storePath string) {
	fmt.Fprintf(out, "Processed %s of %s files in %v.\n",
		utils.FormatCount(s.Processed), utils.FormatCount(s.TotalFiles), s.Elapsed.Round(time.Millisecond))
	for _, o := range types.Outcomes[1:] {
		if n := s.Skipped[o.String()]; n > 0 {
			fmt.Fprintf(out, "Skipped %s files (%s).\n", utils.FormatCount(n), o)
		}
	}
	fmt.Fprintf(out, "%s items have been processed and stored to %s.\n", utils.FormatCount(s.Accepted), storePath)
}
