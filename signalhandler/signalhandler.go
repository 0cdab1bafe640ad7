package signalhandler

import (
	"context"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
)

// Signals that stop a conversion run.
var Signals = []os.Signal{syscall.SIGINT, syscall.SIGTERM}

// SetupHandler returns a context that is canceled on SIGINT or SIGTERM so
// the run can roll back the open store instead of leaving it half written.
// A second signal after cancellation terminates the process.
func SetupHandler(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigChan := make(chan os.Signal, 2)
	done := make(chan struct{})
	signal.Notify(sigChan, Signals...)

	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-done:
			return
		}
		select {
		case <-sigChan:
			os.Exit(130)
		case <-done:
		}
	}()

	var once sync.Once
	return ctx, func() {
		once.Do(func() {
			signal.Stop(sigChan)
			close(done)
			cancel()
		})
	}
}

// GetOptimalProcs returns the GOMAXPROCS value for a run. Decoding goes
// through cgo, so one core is left for the sink and the runtime.
func GetOptimalProcs() int {
	numCPU := runtime.NumCPU()

	maxProcs := (numCPU * 3) / 4
	if maxProcs < 1 {
		maxProcs = 1
	}

	return maxProcs
}
