package parallel

import (
	"errors"
	"fmt"
)

// Sentinel errors for the parallel package.
var (
	// ErrPoolClosed is returned when jobs are submitted after the pool was shut down.
	ErrPoolClosed = errors.New("parallel: pool closed")

	// ErrNilTarget is returned when an Invoke job carries no target.
	ErrNilTarget = errors.New("parallel: invoke job has nil target")

	// ErrShutdownTimeout is returned by Shutdown when a worker did not exit
	// before the context ended.
	ErrShutdownTimeout = errors.New("parallel: worker did not terminate")
)

// JobPanicError describes a job whose Update panicked. The worker that ran
// it recovered and kept serving the queue.
type JobPanicError struct {
	Worker int
	Value  any
}

func (e *JobPanicError) Error() string {
	return fmt.Sprintf("parallel: job panicked on worker %d: %v", e.Worker, e.Value)
}
