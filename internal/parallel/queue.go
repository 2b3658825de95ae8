package parallel

import "sync"

// minQueueCap is the initial ring capacity of a jobQueue.
const minQueueCap = 16

// jobQueue is an unbounded FIFO of Jobs safe for many producers and many
// consumers. push never blocks; pop blocks until a job is available.
//
// Jobs live in a growable ring buffer guarded by mu. Consumers park on
// nonEmpty while the ring is empty.
type jobQueue struct {
	mu       sync.Mutex
	nonEmpty *sync.Cond

	buf    []Job
	head   int // index of the oldest job
	count  int // number of queued jobs
	closed bool
}

func newJobQueue() *jobQueue {
	q := &jobQueue{buf: make([]Job, minQueueCap)}
	q.nonEmpty = sync.NewCond(&q.mu)
	return q
}

// push appends jobs in order. It fails with ErrPoolClosed once close has run;
// no job of a failed call is enqueued.
func (q *jobQueue) push(jobs ...Job) error {
	if len(jobs) == 0 {
		return nil
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrPoolClosed
	}
	q.appendLocked(jobs)
	q.mu.Unlock()

	if len(jobs) == 1 {
		q.nonEmpty.Signal()
	} else {
		q.nonEmpty.Broadcast()
	}
	return nil
}

// close appends the final jobs and refuses every later push.
// Calling close twice returns ErrPoolClosed.
func (q *jobQueue) close(final ...Job) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrPoolClosed
	}
	q.appendLocked(final)
	q.closed = true
	q.mu.Unlock()

	q.nonEmpty.Broadcast()
	return nil
}

// pop removes and returns the oldest job, blocking while the queue is empty.
func (q *jobQueue) pop() Job {
	q.mu.Lock()
	for q.count == 0 {
		q.nonEmpty.Wait()
	}
	j := q.buf[q.head]
	q.buf[q.head] = Job{} // drop the target reference
	q.head = (q.head + 1) % len(q.buf)
	q.count--
	q.mu.Unlock()
	return j
}

// len returns the number of queued jobs.
func (q *jobQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// appendLocked copies jobs to the tail of the ring, growing it as needed.
// q.mu must be held.
func (q *jobQueue) appendLocked(jobs []Job) {
	if need := q.count + len(jobs); need > len(q.buf) {
		q.grow(need)
	}
	for _, j := range jobs {
		q.buf[(q.head+q.count)%len(q.buf)] = j
		q.count++
	}
}

// grow reallocates the ring so it can hold at least n jobs, unwrapping the
// queued jobs to the front of the new buffer.
func (q *jobQueue) grow(n int) {
	newCap := len(q.buf) * 2
	for newCap < n {
		newCap *= 2
	}
	buf := make([]Job, newCap)
	for i := range q.count {
		buf[i] = q.buf[(q.head+i)%len(q.buf)]
	}
	q.buf = buf
	q.head = 0
}
