// Package parallel provides the frame-synchronized worker pool used by rayengine.
//
// A Pool owns a fixed set of worker goroutines that consume Jobs from one
// shared, unbounded queue. The frame driver submits a batch of update jobs,
// calls Wait to block until every job of the batch has executed, and only
// then records rendering work:
//
//	pool := parallel.NewPool(0) // GOMAXPROCS workers
//	defer pool.Close()
//
//	jobs := make([]parallel.Job, 0, len(scripts))
//	for _, s := range scripts {
//		jobs = append(jobs, parallel.Invoke(s))
//	}
//	if err := pool.SubmitMany(jobs...); err != nil {
//		return err
//	}
//	pool.Wait()
//
// Completion is tracked by a single outstanding-job counter shared by the
// pool and its workers, plus a single-slot completion signal fired whenever
// a worker drains the counter to zero.
//
// The package also contains the 64x64 tile grid used by the CPU ray marcher
// to split a frame into independently renderable jobs.
//
// Thread safety: Pool is safe for concurrent use. TileGrid is not.
package parallel
