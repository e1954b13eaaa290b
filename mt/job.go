package mt

import (
	"context"
	"sync/atomic"

	"github.com/ByteMirror/mailmt/concurrency"
)

// ID identifies a job. IDs increase monotonically and are never reused
// within a Core.
type ID uint64

// NoID is returned when no job was queued, for example by RunOnUI when it
// ran its function inline.
const NoID ID = 0

// Port carries jobs between goroutines.
type Port = concurrency.Port[*Job]

// NewPort creates a job port, for callers that want replies delivered
// somewhere other than the Core's reply port.
func NewPort() *Port {
	return concurrency.NewPort[*Job]()
}

// Ops is the behavior of one kind of job.
type Ops interface {
	// Receive does the work. It runs exactly once, on a worker goroutine,
	// or on the UI goroutine for jobs put on the inbound port.
	Receive(j *Job)
	// Reply runs on the UI goroutine after Receive, when the job has a
	// reply port.
	Reply(j *Job)
	// Destroy releases operation-specific resources. It always runs,
	// exactly once, last.
	Destroy(j *Job)
	// Describe returns a short human description, or "" for jobs that
	// should not show progress.
	Describe(j *Job) string
}

// OpsFuncs adapts plain functions to Ops. Nil functions do nothing.
type OpsFuncs struct {
	ReceiveFunc  func(j *Job)
	ReplyFunc    func(j *Job)
	DestroyFunc  func(j *Job)
	DescribeFunc func(j *Job) string
}

func (f OpsFuncs) Receive(j *Job) {
	if f.ReceiveFunc != nil {
		f.ReceiveFunc(j)
	}
}

func (f OpsFuncs) Reply(j *Job) {
	if f.ReplyFunc != nil {
		f.ReplyFunc(j)
	}
}

func (f OpsFuncs) Destroy(j *Job) {
	if f.DestroyFunc != nil {
		f.DestroyFunc(j)
	}
}

func (f OpsFuncs) Describe(j *Job) string {
	if f.DescribeFunc != nil {
		return f.DescribeFunc(j)
	}
	return ""
}

// ActivityState tracks the lifecycle of a job's Activity.
type ActivityState int

const (
	ActivityNone ActivityState = iota
	ActivityCreating
	ActivityActive
	ActivityPendingFree
)

func (s ActivityState) String() string {
	switch s {
	case ActivityNone:
		return "none"
	case ActivityCreating:
		return "creating"
	case ActivityActive:
		return "active"
	case ActivityPendingFree:
		return "pending-free"
	default:
		return "unknown"
	}
}

// Job is a unit of asynchronous work.
type Job struct {
	id    ID
	ops   Ops
	core  *Core
	token *Token
	err   ErrorSlot
	reply *Port

	// Guarded by the registry lock.
	activityState ActivityState
	activity      Activity

	// deferred is set by an inbound Receive that replies on its own later.
	// Only touched on the UI goroutine.
	deferred bool

	released atomic.Bool
}

// ID returns the job's id.
func (j *Job) ID() ID { return j.id }

// Core returns the core the job belongs to.
func (j *Job) Core() *Core { return j.core }

// Token returns the job's cancellation token.
func (j *Job) Token() *Token { return j.token }

// Context is cancelled when the job is cancelled.
func (j *Job) Context() context.Context { return j.token.Context() }

// Cancelled reports whether the job has been cancelled.
func (j *Job) Cancelled() bool { return j.token.Cancelled() }

// SetError records the job's failure. Only the first error is kept.
func (j *Job) SetError(err error) bool { return j.err.Set(err) }

// Err returns the recorded failure, if any.
func (j *Job) Err() error { return j.err.Err() }

// ReplyPort returns the port the job is delivered to after Receive.
func (j *Job) ReplyPort() *Port { return j.reply }

// Describe returns the job's description.
func (j *Job) Describe() string { return j.ops.Describe(j) }

// Progress reports progress for the job.
func (j *Job) Progress(text string, percent int) { j.token.Progress(text, percent) }
