package scanner

import (
	"os"
	"path/filepath"

	"bmpconverter/logging"

	"github.com/pkg/errors"
)

// FileStats is the result of the pre-scan.
type FileStats struct {
	// Directories are the immediate subdirectories of the root, one task each.
	Directories []string
	// TotalFiles counts the regular files directly inside them.
	TotalFiles int64
}

// countFilesToProcess lists the task directories under root and counts their
// regular files.
func countFilesToProcess(root string, log logging.Logger) (FileStats, error) {
	var stats FileStats

	entries, err := os.ReadDir(root)
	if err != nil {
		return stats, errors.Wrapf(err, "read %s", root)
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(root, e.Name())
		stats.Directories = append(stats.Directories, dir)

		n, err := countRegularFiles(dir)
		if err != nil {
			log.Warnf("Cannot count files in %s: %v", dir, err)
		}
		stats.TotalFiles += n
	}
	return stats, nil
}

func countRegularFiles(dir string) (int64, error) {
	entries, err := os.ReadDir(dir)
	var n int64
	for _, e := range entries {
		if e.Type().IsRegular() {
			n++
		}
	}
	return n, err
}
