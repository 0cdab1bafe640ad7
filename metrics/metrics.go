// Package metrics counts the outcomes of an ingestion run in prometheus form.
package metrics

import (
	"bmpconverter/types"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "bmpconv"

const (
	MetricFilesProcessed = "files_processed_total"
	MetricItemsAccepted  = "items_accepted_total"
	MetricFilesSkipped   = "files_skipped_total"
	MetricDirectories    = "directories_done_total"
)

// Metrics holds the counters of one run on a private registry. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	registry       *prometheus.Registry
	filesProcessed prometheus.Counter
	itemsAccepted  prometheus.Counter
	filesSkipped   *prometheus.CounterVec
	directories    prometheus.Counter
}

// New registers a fresh set of counters.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		filesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      MetricFilesProcessed,
			Help:      "Regular files observed by workers.",
		}),
		itemsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      MetricItemsAccepted,
			Help:      "Records written to the dataset store.",
		}),
		filesSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      MetricFilesSkipped,
			Help:      "Files that produced no record, by reason.",
		}, []string{"reason"}),
		directories: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      MetricDirectories,
			Help:      "Subdirectories fully processed.",
		}),
	}
	m.registry.MustRegister(m.filesProcessed, m.itemsAccepted, m.filesSkipped, m.directories)
	// Export every reason, zero or not.
	for _, o := range types.Outcomes[1:] {
		m.filesSkipped.WithLabelValues(o.String())
	}
	return m
}

// Observe counts one file reaching its terminal state.
func (m *Metrics) Observe(o types.Outcome) {
	if m == nil {
		return
	}
	m.filesProcessed.Inc()
	if o == types.Accepted {
		m.itemsAccepted.Inc()
		return
	}
	m.filesSkipped.WithLabelValues(o.String()).Inc()
}

// DirectoryDone counts a finished subdirectory.
func (m *Metrics) DirectoryDone() {
	if m == nil {
		return
	}
	m.directories.Inc()
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes the counters in the text exposition format, for the
// node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return errors.Wrapf(prometheus.WriteToTextfile(path, m.registry), "write metrics to %s", path)
}
