package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"bmpconverter/types"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserve(t *testing.T) {
	m := New()
	m.Observe(types.Accepted)
	m.Observe(types.Accepted)
	m.Observe(types.SkippedLabel)
	m.Observe(types.SkippedNormalize)
	m.DirectoryDone()

	assert.Equal(t, 4.0, testutil.ToFloat64(m.filesProcessed))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.itemsAccepted))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.filesSkipped.WithLabelValues("label_reject")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.directories))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.Observe(types.Accepted)
	m.DirectoryDone()
	assert.NoError(t, m.WriteTextfile(filepath.Join(t.TempDir(), "x.prom")))
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.Observe(types.SkippedDecode)
	path := filepath.Join(t.TempDir(), "run.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `bmpconv_files_skipped_total{reason="decode_failure"} 1`)
	assert.Contains(t, string(data), "bmpconv_files_processed_total 1")
	assert.Contains(t, string(data), `bmpconv_files_skipped_total{reason="label_reject"} 0`)
}
