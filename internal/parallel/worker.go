package parallel

import (
	"runtime/debug"
	"sync/atomic"
)

// WorkerState is the lifecycle state of a pool worker.
type WorkerState int32

const (
	// WorkerIdle means the worker is blocked waiting for a job.
	WorkerIdle WorkerState = iota
	// WorkerRunning means the worker is executing a job.
	WorkerRunning
	// WorkerTerminated means the worker received Terminate and exited.
	WorkerTerminated
)

// String returns the state name.
func (s WorkerState) String() string {
	switch s {
	case WorkerIdle:
		return "idle"
	case WorkerRunning:
		return "running"
	case WorkerTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// worker is one pool goroutine. exited is closed when its loop returns and
// serves as the join handle.
type worker struct {
	id     int
	state  atomic.Int32
	exited chan struct{}
}

func newWorker(id int) *worker {
	return &worker{
		id:     id,
		exited: make(chan struct{}),
	}
}

// State returns the worker's current state.
func (w *worker) State() WorkerState {
	return WorkerState(w.state.Load())
}

// run is the main loop for each worker goroutine:
// pop a job, execute it, report completion. Terminate ends the loop.
func (p *Pool) run(w *worker) {
	defer close(w.exited)

	for {
		w.state.Store(int32(WorkerIdle))
		job := p.queue.pop()

		if job.IsTerminate() {
			w.state.Store(int32(WorkerTerminated))
			p.release(1)
			return
		}

		w.state.Store(int32(WorkerRunning))
		p.execute(w.id, job)
		p.executed.Add(1)
		p.release(1)
	}
}

// execute runs job. A panic is recovered, logged and counted; the worker
// keeps running.
func (p *Pool) execute(id int, job Job) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		p.panics.Add(1)
		err := &JobPanicError{Worker: id, Value: r}
		slogger().Error("parallel: job panicked",
			"worker", id,
			"panic", r,
			"stack", string(debug.Stack()))
		if p.onPanic != nil {
			p.onPanic(err)
		}
	}()
	job.Execute()
}
