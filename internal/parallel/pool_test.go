package parallel

import (
	"context"
	"errors"
	"runtime"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// counterTarget counts its updates.
type counterTarget struct {
	n atomic.Int64
}

func (c *counterTarget) Update() { c.n.Add(1) }

// joinWorkers fails the test if any worker has not exited within d.
func joinWorkers(t *testing.T, p *Pool, d time.Duration) {
	t.Helper()
	deadline := time.After(d)
	for _, w := range p.workers {
		select {
		case <-w.exited:
		case <-deadline:
			t.Fatalf("worker %d did not exit", w.id)
		}
	}
}

// =============================================================================
// Pool Creation Tests
// =============================================================================

func TestPool_Create(t *testing.T) {
	pool := NewPool(4)
	defer pool.Close()

	if pool.Workers() != 4 {
		t.Errorf("Workers() = %d, want 4", pool.Workers())
	}
	if !pool.IsRunning() {
		t.Error("Pool should be running after creation")
	}
	if pool.Outstanding() != 0 {
		t.Errorf("Outstanding() = %d, want 0", pool.Outstanding())
	}
}

func TestPool_CreateDefaultWorkers(t *testing.T) {
	tests := []struct {
		name    string
		workers int
	}{
		{"zero", 0},
		{"negative", -5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool := NewPool(tt.workers)
			defer pool.Close()

			expected := runtime.GOMAXPROCS(0)
			if pool.Workers() != expected {
				t.Errorf("Workers() = %d, want %d (GOMAXPROCS)", pool.Workers(), expected)
			}
		})
	}
}

// =============================================================================
// Scenario Tests
// =============================================================================

// Four jobs on four workers, each recording its own index.
func TestPool_ScenarioIndexCollection(t *testing.T) {
	pool := NewPool(4)
	defer pool.Close()

	var mu sync.Mutex
	var got []int

	for i := range 4 {
		err := pool.Submit(Invoke(TargetFunc(func() {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
		})))
		if err != nil {
			t.Fatalf("Submit(%d): %v", i, err)
		}
	}
	pool.Wait()

	mu.Lock()
	defer mu.Unlock()
	slices.Sort(got)
	if !slices.Equal(got, []int{0, 1, 2, 3}) {
		t.Errorf("collected %v, want [0 1 2 3]", got)
	}
}

// Wait on an idle pool must not block.
func TestPool_ScenarioIdleWait(t *testing.T) {
	pool := NewPool(1)
	defer pool.Close()

	start := time.Now()
	pool.Wait()
	if elapsed := time.Since(start); elapsed > 10*time.Millisecond {
		t.Errorf("idle Wait took %v, want < 10ms", elapsed)
	}
}

// One SubmitMany of 100 jobs on 8 workers.
func TestPool_ScenarioSubmitMany(t *testing.T) {
	pool := NewPool(8)
	defer pool.Close()

	target := &counterTarget{}
	jobs := make([]Job, 100)
	for i := range jobs {
		jobs[i] = Invoke(target)
	}

	if err := pool.SubmitMany(jobs...); err != nil {
		t.Fatalf("SubmitMany: %v", err)
	}
	pool.Wait()

	if got := target.n.Load(); got != 100 {
		t.Errorf("counter = %d, want 100", got)
	}
	if got := pool.Executed(); got != 100 {
		t.Errorf("Executed() = %d, want 100", got)
	}
}

// Immediate teardown: every worker receives Terminate and exits.
func TestPool_ScenarioImmediateShutdown(t *testing.T) {
	pool := NewPool(2)

	if err := pool.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	joinWorkers(t, pool, time.Second)
	for i, s := range pool.WorkerStates() {
		if s != WorkerTerminated {
			t.Errorf("worker %d state = %v, want terminated", i, s)
		}
	}
	if pool.IsRunning() {
		t.Error("Pool should not be running after Close")
	}
	if pool.Outstanding() != 0 {
		t.Errorf("Outstanding() = %d after Close, want 0", pool.Outstanding())
	}
}

// =============================================================================
// Barrier Property Tests
// =============================================================================

func TestPool_DrainToZeroAcrossFrames(t *testing.T) {
	pool := NewPool(4)
	defer pool.Close()

	const frames = 200
	const perFrame = 16

	counts := make([]atomic.Int64, perFrame)
	for frame := range frames {
		jobs := make([]Job, perFrame)
		for i := range jobs {
			jobs[i] = Invoke(TargetFunc(func() { counts[i].Add(1) }))
		}
		if err := pool.SubmitMany(jobs...); err != nil {
			t.Fatalf("frame %d: SubmitMany: %v", frame, err)
		}
		pool.Wait()

		// Every job of this frame has run exactly once by now.
		for i := range counts {
			if got := counts[i].Load(); got != int64(frame+1) {
				t.Fatalf("frame %d: job %d ran %d times, want %d", frame, i, got, frame+1)
			}
		}
	}
}

func TestPool_NoDoubleDelivery(t *testing.T) {
	pool := NewPool(8)
	defer pool.Close()

	const numJobs = 1000
	hits := make([]atomic.Int32, numJobs)

	jobs := make([]Job, numJobs)
	for i := range jobs {
		jobs[i] = Invoke(TargetFunc(func() { hits[i].Add(1) }))
	}
	if err := pool.SubmitMany(jobs...); err != nil {
		t.Fatalf("SubmitMany: %v", err)
	}
	pool.Wait()

	for i := range hits {
		if got := hits[i].Load(); got != 1 {
			t.Errorf("job %d delivered %d times, want 1", i, got)
		}
	}
}

func TestPool_MixedSubmitAndWait(t *testing.T) {
	pool := NewPool(3)
	defer pool.Close()

	target := &counterTarget{}
	for i := range 50 {
		if err := pool.Submit(Invoke(target)); err != nil {
			t.Fatalf("Submit: %v", err)
		}
		if i%7 == 0 {
			pool.Wait()
		}
	}
	if err := pool.SubmitMany(Invoke(target), Invoke(target)); err != nil {
		t.Fatalf("SubmitMany: %v", err)
	}
	pool.Wait()

	if got := target.n.Load(); got != 52 {
		t.Errorf("counter = %d, want 52", got)
	}
}

// A drain that nobody waits for leaves a token behind; the next Wait must
// still block until its own jobs are done.
func TestPool_StaleSignalDoesNotReleaseWait(t *testing.T) {
	pool := NewPool(2)
	defer pool.Close()

	if err := pool.Submit(Invoke(TargetFunc(func() {}))); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	for pool.Outstanding() != 0 {
		runtime.Gosched()
	}

	release := make(chan struct{})
	var finished atomic.Bool
	err := pool.Submit(Invoke(TargetFunc(func() {
		<-release
		finished.Store(true)
	})))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	go func() {
		time.Sleep(20 * time.Millisecond)
		close(release)
	}()
	pool.Wait()

	if !finished.Load() {
		t.Error("Wait returned before the outstanding job finished")
	}
}

func TestPool_CounterNeverNegative(t *testing.T) {
	pool := NewPool(4)
	defer pool.Close()

	stop := make(chan struct{})
	var negative atomic.Bool
	var observer sync.WaitGroup
	observer.Add(1)
	go func() {
		defer observer.Done()
		for {
			select {
			case <-stop:
				return
			default:
				if pool.Outstanding() < 0 {
					negative.Store(true)
				}
			}
		}
	}()

	target := &counterTarget{}
	for range 100 {
		jobs := []Job{Invoke(target), Invoke(target), Invoke(target)}
		if err := pool.SubmitMany(jobs...); err != nil {
			t.Fatalf("SubmitMany: %v", err)
		}
		pool.Wait()
	}
	close(stop)
	observer.Wait()

	if negative.Load() {
		t.Error("Outstanding() was observed below zero")
	}
}

// =============================================================================
// Submission Tests
// =============================================================================

func TestPool_Broadcast(t *testing.T) {
	pool := NewPool(5)
	defer pool.Close()

	target := &counterTarget{}
	if err := pool.Broadcast(Invoke(target)); err != nil {
		t.Fatalf("Broadcast: %v", err)
	}
	pool.Wait()

	if got := target.n.Load(); got != 5 {
		t.Errorf("counter = %d, want 5 (one per worker)", got)
	}
}

func TestPool_SubmitManyEmpty(t *testing.T) {
	pool := NewPool(2)
	defer pool.Close()

	if err := pool.SubmitMany(); err != nil {
		t.Errorf("SubmitMany() = %v, want nil", err)
	}
	if pool.Outstanding() != 0 {
		t.Errorf("Outstanding() = %d, want 0", pool.Outstanding())
	}
}

func TestPool_NilTarget(t *testing.T) {
	pool := NewPool(2)
	defer pool.Close()

	if err := pool.Submit(Invoke(nil)); !errors.Is(err, ErrNilTarget) {
		t.Errorf("Submit(Invoke(nil)) = %v, want ErrNilTarget", err)
	}

	// The whole batch is rejected.
	target := &counterTarget{}
	err := pool.SubmitMany(Invoke(target), Invoke(nil))
	if !errors.Is(err, ErrNilTarget) {
		t.Errorf("SubmitMany with nil target = %v, want ErrNilTarget", err)
	}
	pool.Wait()
	if target.n.Load() != 0 {
		t.Error("valid job of a rejected batch was executed")
	}
	if pool.Outstanding() != 0 {
		t.Errorf("Outstanding() = %d, want 0", pool.Outstanding())
	}
}

func TestPool_SubmitAfterClose(t *testing.T) {
	pool := NewPool(2)
	if err := pool.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	target := &counterTarget{}
	tests := []struct {
		name   string
		submit func() error
	}{
		{"Submit", func() error { return pool.Submit(Invoke(target)) }},
		{"SubmitMany", func() error { return pool.SubmitMany(Invoke(target), Invoke(target)) }},
		{"Broadcast", func() error { return pool.Broadcast(Invoke(target)) }},
		{"ExecuteAll", func() error { return pool.ExecuteAll(func() {}) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.submit(); !errors.Is(err, ErrPoolClosed) {
				t.Errorf("%s after Close = %v, want ErrPoolClosed", tt.name, err)
			}
		})
	}

	if pool.Outstanding() != 0 {
		t.Errorf("Outstanding() = %d after rejected submissions, want 0", pool.Outstanding())
	}
	// Wait on a closed, drained pool returns immediately.
	pool.Wait()
}

func TestPool_ExecuteAll(t *testing.T) {
	pool := NewPool(4)
	defer pool.Close()

	var counter atomic.Int64
	work := make([]func(), 100)
	for i := range work {
		work[i] = func() { counter.Add(1) }
	}

	if err := pool.ExecuteAll(work...); err != nil {
		t.Fatalf("ExecuteAll: %v", err)
	}
	if counter.Load() != 100 {
		t.Errorf("counter = %d, want 100", counter.Load())
	}

	if err := pool.ExecuteAll(); err != nil {
		t.Errorf("ExecuteAll() = %v, want nil", err)
	}
	if err := pool.ExecuteAll(nil); !errors.Is(err, ErrNilTarget) {
		t.Errorf("ExecuteAll(nil) = %v, want ErrNilTarget", err)
	}
}

// =============================================================================
// Fault Isolation Tests
// =============================================================================

func TestPool_PanicIsolation(t *testing.T) {
	var mu sync.Mutex
	var reported []*JobPanicError

	pool := NewPool(2, WithPanicHandler(func(e *JobPanicError) {
		mu.Lock()
		reported = append(reported, e)
		mu.Unlock()
	}))
	defer pool.Close()

	target := &counterTarget{}
	err := pool.SubmitMany(
		Invoke(TargetFunc(func() { panic("boom") })),
		Invoke(target),
		Invoke(target),
	)
	if err != nil {
		t.Fatalf("SubmitMany: %v", err)
	}
	pool.Wait()

	if target.n.Load() != 2 {
		t.Errorf("counter = %d, want 2", target.n.Load())
	}
	if pool.Panics() != 1 {
		t.Errorf("Panics() = %d, want 1", pool.Panics())
	}
	if pool.Executed() != 3 {
		t.Errorf("Executed() = %d, want 3", pool.Executed())
	}

	mu.Lock()
	if len(reported) != 1 {
		t.Fatalf("handler called %d times, want 1", len(reported))
	}
	e := reported[0]
	mu.Unlock()
	if e.Value != "boom" {
		t.Errorf("panic value = %v, want boom", e.Value)
	}
	if e.Worker < 0 || e.Worker >= pool.Workers() {
		t.Errorf("panic worker = %d, out of range", e.Worker)
	}

	// Workers are still alive after the panic.
	if err := pool.Broadcast(Invoke(target)); err != nil {
		t.Fatalf("Broadcast: %v", err)
	}
	pool.Wait()
	if target.n.Load() != 4 {
		t.Errorf("counter = %d after broadcast, want 4", target.n.Load())
	}
}

// =============================================================================
// Shutdown Tests
// =============================================================================

func TestPool_ShutdownRunsQueuedJobs(t *testing.T) {
	pool := NewPool(1)

	target := &counterTarget{}
	jobs := make([]Job, 20)
	for i := range jobs {
		jobs[i] = Invoke(target)
	}
	if err := pool.SubmitMany(jobs...); err != nil {
		t.Fatalf("SubmitMany: %v", err)
	}
	if err := pool.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if target.n.Load() != 20 {
		t.Errorf("counter = %d, want 20 (queued jobs run before Terminate)", target.n.Load())
	}
}

func TestPool_ShutdownIdempotent(t *testing.T) {
	pool := NewPool(2)

	if err := pool.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := pool.Close(); err != nil {
		t.Errorf("second Close = %v, want nil", err)
	}
}

func TestPool_ShutdownTimeout(t *testing.T) {
	pool := NewPool(2)

	block := make(chan struct{})
	started := make(chan struct{})
	err := pool.Submit(Invoke(TargetFunc(func() {
		close(started)
		<-block
	})))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err = pool.Shutdown(ctx)
	if !errors.Is(err, ErrShutdownTimeout) {
		t.Errorf("Shutdown = %v, want ErrShutdownTimeout", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Shutdown = %v, want wrapped context.DeadlineExceeded", err)
	}

	// Once the stuck job returns the worker still picks up its Terminate.
	close(block)
	joinWorkers(t, pool, time.Second)
	pool.Wait()
}

func TestPool_WorkerStates(t *testing.T) {
	pool := NewPool(1)
	defer pool.Close()

	block := make(chan struct{})
	started := make(chan struct{})
	err := pool.Submit(Invoke(TargetFunc(func() {
		close(started)
		<-block
	})))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	<-started

	if s := pool.WorkerStates()[0]; s != WorkerRunning {
		t.Errorf("state while executing = %v, want running", s)
	}
	close(block)
	pool.Wait()

	// The worker stores Idle right after it reports completion.
	deadline := time.Now().Add(time.Second)
	for pool.WorkerStates()[0] != WorkerIdle {
		if time.Now().After(deadline) {
			t.Fatalf("state after Wait = %v, want idle", pool.WorkerStates()[0])
		}
		runtime.Gosched()
	}
}

func TestWorkerState_String(t *testing.T) {
	tests := []struct {
		state WorkerState
		want  string
	}{
		{WorkerIdle, "idle"},
		{WorkerRunning, "running"},
		{WorkerTerminated, "terminated"},
		{WorkerState(42), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("WorkerState(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

// =============================================================================
// Benchmarks
// =============================================================================

func BenchmarkPool_Frame(b *testing.B) {
	pool := NewPool(0)
	defer pool.Close()

	target := &counterTarget{}
	jobs := make([]Job, 64)
	for i := range jobs {
		jobs[i] = Invoke(target)
	}

	b.ResetTimer()
	for range b.N {
		_ = pool.SubmitMany(jobs...)
		pool.Wait()
	}
}
