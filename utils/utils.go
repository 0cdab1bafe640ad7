package utils

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
)

// PrintUsage outputs the command-line usage instructions
func PrintUsage(w io.Writer, prog, flagUsage string) {
	fmt.Fprintf(w, "Usage:\n")
	fmt.Fprintf(w, "  %s <input-root-dir> <label-set> <output-store-path> [options]\n", prog)
	fmt.Fprintf(w, "\nArguments:\n")
	fmt.Fprintf(w, "  input-root-dir    : Directory whose subdirectories hold the bitmaps\n")
	fmt.Fprintf(w, "  label-set         : d|D digits, c|C capital letters, s|S small letters\n")
	fmt.Fprintf(w, "  output-store-path : Dataset directory to create (must not exist)\n")
	fmt.Fprintf(w, "\nOptions:\n%s", flagUsage)
	fmt.Fprintf(w, "\nExamples:\n")
	fmt.Fprintf(w, "  %s /data/glyphs d /data/digits-lmdb\n", prog)
	fmt.Fprintf(w, "  %s /data/glyphs c /data/caps --backend=sqlite --workers=4 --debug\n", prog)
}

// FormatCount renders n with thousands separators.
func FormatCount(n int64) string {
	return humanize.Comma(n)
}

// Percent returns part as a percentage of total, or 0 when total is 0.
func Percent(part, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return 100 * float64(part) / float64(total)
}

// ParseSize parses a human readable byte size such as "1GiB" or "512MB".
func ParseSize(s string) (int64, error) {
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %v", s, err)
	}
	if n > 1<<62 {
		return 0, fmt.Errorf("size %q too large", s)
	}
	return int64(n), nil
}
