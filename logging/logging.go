// Package logging provides the leveled logger shared by the scanner and the
// dataset sink.
package logging

import (
	"io"
	"log"
	"os"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Levels, most severe first.
const (
	LevelError = iota
	LevelWarn
	LevelInfo
	LevelDebug
)

func levelPrefix(level int) string {
	return [...]string{"ERROR: ", "WARNING: ", "INFO: ", "DEBUG: "}[level]
}

// Logger is the logging interface passed to pipeline components.
type Logger interface {
	Debugf(format string, v ...interface{})
	Infof(format string, v ...interface{})
	Warnf(format string, v ...interface{})
	Errorf(format string, v ...interface{})
	// ImageProcessed records the terminal state of a single file.
	ImageProcessed(path string, success bool, reason string)
}

// Nop discards everything.
var Nop Logger = nopLogger{}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{})       {}
func (nopLogger) Infof(string, ...interface{})        {}
func (nopLogger) Warnf(string, ...interface{})        {}
func (nopLogger) Errorf(string, ...interface{})       {}
func (nopLogger) ImageProcessed(string, bool, string) {}

// StandardLogger writes timestamped lines to an io.Writer.
type StandardLogger struct {
	mu        sync.Mutex
	logger    *log.Logger
	verbosity int
	closer    io.Closer
}

// NewStandardLogger logs at INFO and above to w.
func NewStandardLogger(w io.Writer) *StandardLogger {
	return &StandardLogger{logger: log.New(w, "", log.LstdFlags), verbosity: LevelInfo}
}

// NewVerboseLogger logs at every level to w.
func NewVerboseLogger(w io.Writer) *StandardLogger {
	l := NewStandardLogger(w)
	l.verbosity = LevelDebug
	return l
}

// FileOptions configure SetupLogger.
type FileOptions struct {
	Path  string
	Debug bool
	// MaxSizeMB rotates the file once it grows past this size.
	MaxSizeMB  int
	MaxBackups int
}

// SetupLogger returns a logger for a run. Without a path it logs to stderr.
// With a path it writes a size-rotated log file, mirrored to stderr in debug
// mode.
func SetupLogger(opts FileOptions) *StandardLogger {
	if opts.Path == "" {
		if opts.Debug {
			return NewVerboseLogger(os.Stderr)
		}
		return NewStandardLogger(os.Stderr)
	}

	if opts.MaxSizeMB <= 0 {
		opts.MaxSizeMB = 100
	}
	file := &lumberjack.Logger{
		Filename:   opts.Path,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
	}

	var l *StandardLogger
	if opts.Debug {
		l = NewVerboseLogger(io.MultiWriter(os.Stderr, file))
	} else {
		l = NewStandardLogger(file)
	}
	l.closer = file
	l.Infof("--- Log started at %s ---", time.Now().Format(time.RFC3339))
	return l
}

// Close closes the log file, if any.
func (l *StandardLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closer == nil {
		return nil
	}
	l.logger.Printf(levelPrefix(LevelInfo)+"--- Log closed at %s ---", time.Now().Format(time.RFC3339))
	err := l.closer.Close()
	l.closer = nil
	return err
}

func (l *StandardLogger) printf(level int, format string, v ...interface{}) {
	if level > l.verbosity {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logger.Printf(levelPrefix(level)+format, v...)
}

func (l *StandardLogger) Debugf(format string, v ...interface{}) { l.printf(LevelDebug, format, v...) }
func (l *StandardLogger) Infof(format string, v ...interface{})  { l.printf(LevelInfo, format, v...) }
func (l *StandardLogger) Warnf(format string, v ...interface{})  { l.printf(LevelWarn, format, v...) }
func (l *StandardLogger) Errorf(format string, v ...interface{}) { l.printf(LevelError, format, v...) }

// ImageProcessed logs accepted files at DEBUG and skipped files at WARNING.
func (l *StandardLogger) ImageProcessed(path string, success bool, reason string) {
	if success {
		l.printf(LevelDebug, "PROCESSED: %s", path)
		return
	}
	l.printf(LevelWarn, "SKIPPED: %s - %s", path, reason)
}

// Logfer is anything with a Logf method, like *testing.T.
type Logfer interface {
	Logf(format string, v ...interface{})
}

// TestLogger forwards every message to a Logfer.
type TestLogger struct {
	wrapped Logfer
}

// NewTestLogger wraps t.
func NewTestLogger(t Logfer) *TestLogger {
	return &TestLogger{wrapped: t}
}

func (l *TestLogger) Debugf(format string, v ...interface{}) { l.wrapped.Logf("DEBUG: "+format, v...) }
func (l *TestLogger) Infof(format string, v ...interface{})  { l.wrapped.Logf("INFO: "+format, v...) }
func (l *TestLogger) Warnf(format string, v ...interface{})  { l.wrapped.Logf("WARNING: "+format, v...) }
func (l *TestLogger) Errorf(format string, v ...interface{}) { l.wrapped.Logf("ERROR: "+format, v...) }

func (l *TestLogger) ImageProcessed(path string, success bool, reason string) {
	if success {
		l.wrapped.Logf("PROCESSED: %s", path)
		return
	}
	l.wrapped.Logf("SKIPPED: %s - %s", path, reason)
}

