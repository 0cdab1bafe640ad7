package scanner

import (
	"io"
	"time"

	"bmpconverter/dataset"
	"bmpconverter/imageprocessor"
	"bmpconverter/logging"
	"bmpconverter/metrics"
	"bmpconverter/types"

	"github.com/pkg/errors"
)

// MaxConcurrency is the default number of subdirectories processed at once.
const MaxConcurrency = 10

// DefaultProgressEvery is how many stored items separate two progress lines.
const DefaultProgressEvery = 3000

// Schedule selects how subdirectory tasks are dispatched.
type Schedule string

const (
	// Waves starts up to MaxWorkers tasks and waits for all of them before
	// starting the next batch.
	Waves Schedule = "waves"
	// Pool starts a new task as soon as any running one finishes.
	Pool Schedule = "pool"
)

// ParseSchedule validates a schedule name.
func ParseSchedule(name string) (Schedule, error) {
	switch Schedule(name) {
	case Waves, Pool:
		return Schedule(name), nil
	}
	return "", errors.Errorf("unknown schedule %q", name)
}

// ScanOptions defines the options for scanning
type ScanOptions struct {
	// RootPath holds one subdirectory per task.
	RootPath string
	LabelSet types.LabelSet
	// Extension is the file extension of images to convert, e.g. ".bmp".
	Extension string

	StorePath string
	Store     dataset.Options

	MaxWorkers    int
	Schedule      Schedule
	ProgressEvery int64

	Loader     imageprocessor.ImageLoader
	Normalizer *imageprocessor.Normalizer

	Logger  logging.Logger
	Metrics *metrics.Metrics
	// Out receives progress and summary lines.
	Out io.Writer
}

// Summary describes a finished run.
type Summary struct {
	Directories int
	// TotalFiles is the pre-scan estimate used for progress percentages.
	TotalFiles int64
	Processed  int64
	Accepted   int64
	// Skipped counts files per skip reason.
	Skipped map[string]int64
	Elapsed time.Duration
}
