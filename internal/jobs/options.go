package jobs

import (
	"errors"
	"sync/atomic"
)

// State is the lifecycle of a Job.
type State int32

const (
	Pending State = iota
	Running
	Done
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Running:
		return "running"
	case Done:
		return "done"
	}
	return "unknown"
}

// Job exposes the progress of a run to other goroutines.
type Job struct {
	state atomic.Int32
	total atomic.Int64
	done  atomic.Int64
}

func (j *Job) State() State { return State(j.state.Load()) }

// Progress returns how many items have completed out of the total.
func (j *Job) Progress() (done, total int) {
	return int(j.done.Load()), int(j.total.Load())
}

func (j *Job) start(n int) {
	j.total.Store(int64(n))
	j.done.Store(0)
	j.state.Store(int32(Running))
}

func (j *Job) finish() { j.state.Store(int32(Done)) }

type options struct {
	job        *Job
	onError    func(i int, err error)
	onProgress func(done, total int)
}

// Option configures a run. Hooks may be called from several workers at once.
type Option func(*options)

// OnError receives non-fatal item errors of Run.
func OnError(fn func(i int, err error)) Option {
	return func(o *options) { o.onError = fn }
}

// OnProgress is called after every completed item.
func OnProgress(fn func(done, total int)) Option {
	return func(o *options) { o.onProgress = fn }
}

// Track records the run's state and progress in j.
func Track(j *Job) Option {
	return func(o *options) { o.job = j }
}

func collect(opts []Option) *options {
	o := &options{
		job:     &Job{},
		onError: func(int, error) {},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *options) advance(total int) {
	d := o.job.done.Add(1)
	if o.onProgress != nil {
		o.onProgress(int(d), total)
	}
}

type fatalError struct{ err error }

func (e *fatalError) Error() string { return e.err.Error() }
func (e *fatalError) Unwrap() error { return e.err }

// Fatal marks err as one that must stop the whole run.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &fatalError{err: err}
}

// IsFatal reports whether err, or anything it wraps, was marked by Fatal.
func IsFatal(err error) bool {
	var fe *fatalError
	return errors.As(err, &fe)
}
