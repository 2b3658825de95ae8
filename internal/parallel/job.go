package parallel

// Target is anything a Job can update. Implementations must tolerate being
// called from any worker goroutine.
type Target interface {
	Update()
}

// TargetFunc adapts an ordinary function to the Target interface.
type TargetFunc func()

// Update calls f.
func (f TargetFunc) Update() { f() }

// jobKind discriminates the Job variants.
type jobKind uint8

const (
	jobTerminate jobKind = iota
	jobInvoke
)

// Job is an immutable unit of work: either a terminate signal for the worker
// that receives it, or an update of a shared Target.
//
// The zero Job is Terminate. Copying a Job shares its target; the target
// itself is never copied.
type Job struct {
	kind   jobKind
	target Target
}

// Terminate returns the job that makes the receiving worker exit its loop.
func Terminate() Job {
	return Job{kind: jobTerminate}
}

// Invoke returns a job that calls t.Update when executed.
func Invoke(t Target) Job {
	return Job{kind: jobInvoke, target: t}
}

// IsTerminate reports whether j is the terminate signal.
func (j Job) IsTerminate() bool {
	return j.kind == jobTerminate
}

// Target returns the target of an Invoke job, or nil for Terminate.
func (j Job) Target() Target {
	return j.target
}

// Execute runs the job. Executing Terminate does nothing.
func (j Job) Execute() {
	switch j.kind {
	case jobInvoke:
		j.target.Update()
	case jobTerminate:
	}
}

// validate rejects Invoke jobs without a target.
func (j Job) validate() error {
	if j.kind == jobInvoke && j.target == nil {
		return ErrNilTarget
	}
	return nil
}
