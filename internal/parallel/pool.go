package parallel

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"
)

// Pool is a fixed-size pool of worker goroutines with a frame barrier.
//
// All workers consume from one shared unbounded queue. Every submitted job
// increments a shared outstanding counter before it is queued, and the worker
// that finishes it decrements the counter afterwards. Whichever worker brings
// the counter to zero fires a single-slot completion signal that wakes Wait.
//
// Thread safety: Pool is safe for concurrent use. The frame driver is
// expected to be the only caller of Wait.
type Pool struct {
	// workers are created by NewPool and joined by Shutdown.
	workers []*worker

	// queue is shared by all workers.
	queue *jobQueue

	// outstanding counts jobs submitted but not yet finished.
	outstanding atomic.Int64

	// done is the completion signal. Capacity 1: a drain to zero leaves at
	// most one pending token.
	done chan struct{}

	// running indicates whether the pool accepts work.
	running atomic.Bool

	executed atomic.Uint64
	panics   atomic.Uint64

	onPanic func(*JobPanicError)
}

// PoolOption configures a Pool during creation.
type PoolOption func(*poolOptions)

type poolOptions struct {
	onPanic func(*JobPanicError)
}

// WithPanicHandler registers fn to be called, on the worker goroutine, each
// time a job panics. The worker has already recovered when fn runs.
func WithPanicHandler(fn func(*JobPanicError)) PoolOption {
	return func(o *poolOptions) {
		o.onPanic = fn
	}
}

// NewPool creates a pool with the specified number of workers.
// If workers is 0 or negative, GOMAXPROCS is used.
// The workers start immediately and block until jobs arrive.
func NewPool(workers int, opts ...PoolOption) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	var o poolOptions
	for _, opt := range opts {
		opt(&o)
	}

	p := &Pool{
		workers: make([]*worker, workers),
		queue:   newJobQueue(),
		done:    make(chan struct{}, 1),
		onPanic: o.onPanic,
	}
	p.running.Store(true)

	for i := range workers {
		w := newWorker(i)
		p.workers[i] = w
		go p.run(w)
	}

	slogger().Debug("parallel: pool started", "workers", workers)
	return p
}

// Submit queues a single job.
//
// The outstanding counter is incremented before the job becomes visible to
// the workers, so a worker can never observe a finished job that is not
// yet accounted for.
func (p *Pool) Submit(job Job) error {
	if err := job.validate(); err != nil {
		return err
	}
	p.outstanding.Add(1)
	if err := p.queue.push(job); err != nil {
		p.release(1)
		return err
	}
	return nil
}

// SubmitMany queues all jobs with a single counter update, so a concurrent
// Wait never sees the counter at zero in the middle of the batch.
// Either all jobs are queued or none are.
func (p *Pool) SubmitMany(jobs ...Job) error {
	if len(jobs) == 0 {
		return nil
	}
	for _, j := range jobs {
		if err := j.validate(); err != nil {
			return err
		}
	}

	n := int64(len(jobs))
	p.outstanding.Add(n)
	if err := p.queue.push(jobs...); err != nil {
		p.release(n)
		return err
	}
	return nil
}

// Broadcast queues one copy of job per worker.
func (p *Pool) Broadcast(job Job) error {
	jobs := make([]Job, len(p.workers))
	for i := range jobs {
		jobs[i] = job
	}
	return p.SubmitMany(jobs...)
}

// Wait blocks until every job submitted so far has finished executing.
// It returns immediately, without touching the completion signal, when no
// job is outstanding. Wait has no timeout.
func (p *Pool) Wait() {
	// The signal may hold a stale token from an earlier drain that nobody
	// waited for, so the counter is re-checked after every wake-up.
	for p.outstanding.Load() > 0 {
		<-p.done
	}
}

// ExecuteAll runs every function on the pool and waits for all of them.
// It is a convenience for callers that own the pool's frame barrier.
func (p *Pool) ExecuteAll(work ...func()) error {
	if len(work) == 0 {
		return nil
	}
	jobs := make([]Job, 0, len(work))
	for _, fn := range work {
		if fn == nil {
			return ErrNilTarget
		}
		jobs = append(jobs, Invoke(TargetFunc(fn)))
	}
	if err := p.SubmitMany(jobs...); err != nil {
		return err
	}
	p.Wait()
	return nil
}

// Close shuts the pool down and waits for every worker to exit.
// It is equivalent to Shutdown with a background context.
func (p *Pool) Close() error {
	return p.Shutdown(context.Background())
}

// Shutdown sends one Terminate job per worker and joins the workers in
// order. Jobs queued before Shutdown still run. Submissions made after
// Shutdown fail with ErrPoolClosed.
//
// If ctx ends before a worker exits, Shutdown returns an error wrapping
// ErrShutdownTimeout and ctx.Err(); that worker is stuck inside a job.
// Calling Shutdown again is a no-op.
func (p *Pool) Shutdown(ctx context.Context) error {
	if !p.running.CompareAndSwap(true, false) {
		return nil
	}

	terminate := make([]Job, len(p.workers))
	for i := range terminate {
		terminate[i] = Terminate()
	}
	n := int64(len(terminate))
	p.outstanding.Add(n)
	if err := p.queue.close(terminate...); err != nil {
		p.release(n)
		return err
	}

	for _, w := range p.workers {
		select {
		case <-w.exited:
		case <-ctx.Done():
			return fmt.Errorf("%w: worker %d: %w", ErrShutdownTimeout, w.id, ctx.Err())
		}
	}

	slogger().Debug("parallel: pool stopped",
		"workers", len(p.workers),
		"executed", p.executed.Load(),
		"panics", p.panics.Load())
	return nil
}

// release subtracts n from the outstanding counter and fires the completion
// signal if this call drained it. The zero test uses the value returned by
// the atomic subtraction, never a separate load.
func (p *Pool) release(n int64) {
	left := p.outstanding.Add(-n)
	if left < 0 {
		panic("parallel: outstanding job count went negative")
	}
	if left == 0 {
		select {
		case p.done <- struct{}{}:
		default:
			// A token is already pending.
		}
	}
}

// Workers returns the number of workers in the pool.
func (p *Pool) Workers() int {
	return len(p.workers)
}

// IsRunning returns true if the pool is still accepting work.
func (p *Pool) IsRunning() bool {
	return p.running.Load()
}

// Outstanding returns the number of jobs submitted but not yet finished.
func (p *Pool) Outstanding() int {
	return int(p.outstanding.Load())
}

// Queued returns the number of jobs waiting in the queue.
// This is an approximation as workers drain the queue concurrently.
func (p *Pool) Queued() int {
	return p.queue.len()
}

// Executed returns the number of Invoke jobs finished so far, including
// jobs that panicked.
func (p *Pool) Executed() uint64 {
	return p.executed.Load()
}

// Panics returns the number of jobs that panicked.
func (p *Pool) Panics() uint64 {
	return p.panics.Load()
}

// WorkerStates returns a snapshot of each worker's state, indexed by worker id.
func (p *Pool) WorkerStates() []WorkerState {
	states := make([]WorkerState, len(p.workers))
	for i, w := range p.workers {
		states[i] = w.State()
	}
	return states
}
