package mt

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ByteMirror/mailmt/concurrency"
	"github.com/ByteMirror/mailmt/log"
)

// Pool selects the executor a job runs on.
type Pool int

const (
	// Queued runs jobs one at a time in submission order.
	Queued Pool = iota
	// PerSubmission runs every job on its own goroutine.
	PerSubmission
)

func (p Pool) String() string {
	switch p {
	case Queued:
		return "queued"
	case PerSubmission:
		return "per-submission"
	default:
		return "unknown"
	}
}

// Option configures a Core.
type Option func(*Core)

// WithActivityHost sets who creates progress indicators.
func WithActivityHost(h ActivityHost) Option {
	return func(c *Core) { c.activities = h }
}

// WithPrompter sets who answers secret and confirmation requests.
func WithPrompter(p Prompter) Option {
	return func(c *Core) { c.prompter = p }
}

// WithErrorPresenter sets who shows failed jobs to the user.
func WithErrorPresenter(e ErrorPresenter) Option {
	return func(c *Core) { c.errors = e }
}

// WithMaxThreads caps concurrent PerSubmission jobs. 0 means unlimited.
func WithMaxThreads(n int) Option {
	return func(c *Core) { c.maxThreads = int64(n) }
}

// WithStatusLogInterval rate-limits debug logging of status updates.
func WithStatusLogInterval(d time.Duration) Option {
	return func(c *Core) { c.statusLog = log.NewEvery(d) }
}

// Metrics counts job lifecycle events.
type Metrics struct {
	JobsCreated       atomic.Uint64
	JobsReleased      atomic.Uint64
	ActivitiesCreated atomic.Uint64
	ActivitiesClosed  atomic.Uint64
	StatusDropped     atomic.Uint64
	ErrorsPresented   atomic.Uint64
}

func (m *Metrics) String() string {
	return fmt.Sprintf(
		"Jobs: %d created, %d released | Activities: %d created, %d closed | "+
			"Status: %d dropped | Errors: %d presented",
		m.JobsCreated.Load(), m.JobsReleased.Load(),
		m.ActivitiesCreated.Load(), m.ActivitiesClosed.Load(),
		m.StatusDropped.Load(), m.ErrorsPresented.Load(),
	)
}

// Core owns the active job table, the executors and the ports that lead to
// the UI goroutine.
type Core struct {
	reg *registry

	// guiPort carries jobs that must run on the UI goroutine; replyPort
	// carries finished jobs waiting for Reply.
	guiPort   *Port
	replyPort *Port

	queued     *concurrency.Thread[*Job]
	fresh      *concurrency.Thread[*Job]
	maxThreads int64

	uiGoroutine atomic.Uint64
	closed      atomic.Bool

	activities ActivityHost
	prompter   Prompter
	errors     ErrorPresenter

	busy    busyState
	windows windowSet
	// modalMu lets only one worker surface a modal request at a time.
	modalMu sync.Mutex

	statusLog *log.Every
	metrics   Metrics
}

// New creates a Core and starts its executors.
func New(opts ...Option) *Core {
	c := &Core{
		reg:       newRegistry(),
		guiPort:   NewPort(),
		replyPort: NewPort(),
		statusLog: log.NewEvery(time.Second),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.activities == nil {
		c.activities = nopActivityHost{}
	}

	c.queued = concurrency.NewThread(c.threadConfig(concurrency.PolicyQueue))
	c.fresh = concurrency.NewThread(c.threadConfig(concurrency.PolicyNew))
	return c
}

func (c *Core) threadConfig(policy concurrency.Policy) concurrency.ThreadConfig[*Job] {
	return concurrency.ThreadConfig[*Job]{
		Policy:     policy,
		MaxThreads: c.maxThreads,
		Received:   c.received,
		ReplyPort:  func(j *Job) *Port { return j.reply },
		Destroy:    c.destroy,
	}
}

// Close stops both executors and waits for running jobs. Replies still
// queued for the UI goroutine are delivered by the next Drain.
func (c *Core) Close(ctx context.Context) error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	errQueued := c.queued.Close(ctx)
	errFresh := c.fresh.Close(ctx)
	if n := c.reg.len(); n > 0 {
		log.InfoLog.Printf("closing job core with %d jobs still registered", n)
	}
	log.InfoLog.Printf("job core metrics: %s", &c.metrics)
	log.InfoLog.Printf("%s pool: %s", Queued, c.queued.Metrics())
	log.InfoLog.Printf("%s pool: %s", PerSubmission, c.fresh.Metrics())
	return errors.Join(errQueued, errFresh)
}

// Metrics returns the core's counters.
func (c *Core) Metrics() *Metrics { return &c.metrics }

// ThreadMetrics returns the counters of the executor behind pool.
func (c *Core) ThreadMetrics(pool Pool) *concurrency.ThreadMetrics {
	return c.thread(pool).Metrics()
}

// ReplyPort is the port drained by the UI goroutine. Pass it to Submit to
// have Reply run on the UI goroutine.
func (c *Core) ReplyPort() *Port { return c.replyPort }

// BindUI marks the calling goroutine as the UI goroutine.
func (c *Core) BindUI() {
	c.uiGoroutine.Store(concurrency.GoroutineID())
}

// IsUIGoroutine reports whether the caller is the bound UI goroutine.
func (c *Core) IsUIGoroutine() bool {
	id := c.uiGoroutine.Load()
	return id != 0 && id == concurrency.GoroutineID()
}

// NewJob allocates and registers a job without queuing it anywhere.
func (c *Core) NewJob(ops Ops, reply *Port) *Job {
	j := &Job{ops: ops, core: c, reply: reply}
	id := c.reg.insert(j, func(id ID) {
		j.token = newToken(id, c.statusUpdate)
	})
	c.metrics.JobsCreated.Add(1)
	log.DebugLog.Printf("job %d created", id)
	return j
}

// Submit creates a job and queues it on pool. It returns as soon as the job
// is queued.
func (c *Core) Submit(pool Pool, ops Ops, reply *Port) (ID, error) {
	j := c.NewJob(ops, reply)
	if err := c.Put(pool, j); err != nil {
		return NoID, err
	}
	return j.id, nil
}

// Put queues an existing job on pool. If the pool no longer accepts work the
// job is failed and freed.
func (c *Core) Put(pool Pool, j *Job) error {
	if c.closed.Load() {
		c.abandon(j)
		return ErrClosed
	}
	if err := c.thread(pool).Put(j); err != nil {
		c.abandon(j)
		if errors.Is(err, concurrency.ErrThreadClosed) {
			return ErrClosed
		}
		return fmt.Errorf("queue job %d on %s pool: %w", j.id, pool, err)
	}
	return nil
}

func (c *Core) abandon(j *Job) {
	j.SetError(&SystemError{Msg: "job core is closed"})
	c.free(j)
}

func (c *Core) thread(pool Pool) *concurrency.Thread[*Job] {
	if pool == PerSubmission {
		return c.fresh
	}
	return c.queued
}

// Cancel flags the job with the given id. Unknown ids are ignored.
func (c *Core) Cancel(id ID) {
	c.reg.mu.Lock()
	defer c.reg.mu.Unlock()
	if j := c.reg.active[id]; j != nil {
		j.token.Cancel()
		c.reg.broadcastLocked()
	}
}

// CancelAll flags every active job.
func (c *Core) CancelAll() {
	c.reg.mu.Lock()
	defer c.reg.mu.Unlock()
	for _, j := range c.reg.active {
		j.token.Cancel()
	}
	c.reg.broadcastLocked()
}

// IsActive reports whether id is still registered.
func (c *Core) IsActive(id ID) bool {
	return c.reg.lookup(id) != nil
}

// ActiveJobs returns the number of registered jobs.
func (c *Core) ActiveJobs() int {
	return c.reg.len()
}

// WaitFor blocks until the job with the given id has been released. On the
// UI goroutine it keeps draining the ports, since replies can only be
// delivered there.
func (c *Core) WaitFor(id ID) {
	if !c.IsUIGoroutine() {
		c.reg.wait(id)
		return
	}
	for {
		changed := c.reg.changedCh()
		inbound, replies := c.portsChanged()
		if !c.IsActive(id) {
			return
		}
		c.Drain()
		if !c.IsActive(id) {
			return
		}
		select {
		case <-inbound:
		case <-replies:
		case <-changed:
		}
	}
}

// Drain delivers everything waiting for the UI goroutine: replies first,
// then inbound jobs, one at a time. It binds the UI goroutine on first use
// and must not be called from any other goroutine. It returns how many jobs
// it handled.
func (c *Core) Drain() int {
	if c.uiGoroutine.Load() == 0 {
		c.BindUI()
	}
	if !c.IsUIGoroutine() {
		log.ErrorLog.Printf("Drain called off the UI goroutine; ignoring")
		return 0
	}

	n := 0
	for {
		j, ok := c.replyPort.Get()
		if !ok {
			break
		}
		c.deliverReply(j)
		n++
	}
	for {
		j, ok := c.guiPort.Get()
		if !ok {
			break
		}
		c.deliverInbound(j)
		n++
	}
	return n
}

// WaitReady blocks until one of the UI ports has work or ctx is done. Any
// number of goroutines may wait at once.
func (c *Core) WaitReady(ctx context.Context) error {
	inbound, replies := c.portsChanged()
	if c.replyPort.Len() > 0 || c.guiPort.Len() > 0 {
		return nil
	}
	select {
	case <-inbound:
		return nil
	case <-replies:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Core) portsChanged() (inbound, replies <-chan struct{}) {
	return c.guiPort.Changed(), c.replyPort.Changed()
}

// Run is a minimal UI loop for hosts without an event loop of their own. It
// binds the calling goroutine and drains until ctx is done.
func (c *Core) Run(ctx context.Context) error {
	c.BindUI()
	for {
		c.Drain()
		if err := c.WaitReady(ctx); err != nil {
			c.Drain()
			return err
		}
	}
}

// RunOnUI runs fn on the UI goroutine. On the UI goroutine it runs inline and
// returns NoID; otherwise it queues fn and returns the id of the carrier job.
func (c *Core) RunOnUI(fn func()) ID {
	if c.IsUIGoroutine() {
		fn()
		return NoID
	}
	j := c.NewJob(OpsFuncs{ReceiveFunc: func(*Job) { fn() }}, nil)
	c.guiPort.Put(j)
	return j.id
}

// deliverReply handles a finished job on the UI goroutine.
func (c *Core) deliverReply(j *Job) {
	j.ops.Reply(j)
	c.checkError(j)
	c.destroy(j)
}

// deliverInbound runs a job that was sent to the UI goroutine.
func (c *Core) deliverInbound(j *Job) {
	j.ops.Receive(j)
	if j.reply != nil {
		if !j.deferred {
			j.reply.Put(j)
		}
		return
	}
	j.ops.Reply(j)
	c.free(j)
}

// received wraps Receive on a worker goroutine.
func (c *Core) received(j *Job) {
	if what := j.Describe(); what != "" {
		j.token.Start(what)
	}

	c.enableStop()
	defer c.disableStop()
	defer func() {
		if r := recover(); r != nil {
			log.ErrorLog.Printf("job %d panicked: %v\n%s", j.id, r, debug.Stack())
			j.SetError(&SystemError{Msg: fmt.Sprintf("internal error: %v", r)})
		}
	}()
	j.ops.Receive(j)
}

// destroy ends the job's progress and frees it.
func (c *Core) destroy(j *Job) {
	if j.Describe() != "" {
		j.token.End()
	}
	c.free(j)
}

// free runs Destroy, deregisters the job and releases it unless its activity
// is still being created, in which case the creator releases it.
func (c *Core) free(j *Job) {
	j.ops.Destroy(j)

	c.reg.mu.Lock()
	c.reg.removeLocked(j.id)
	var activity Activity
	switch j.activityState {
	case ActivityCreating:
		j.activityState = ActivityPendingFree
		c.reg.mu.Unlock()
		return
	case ActivityActive:
		activity = j.activity
		j.activity = nil
	}
	c.reg.mu.Unlock()

	if activity != nil {
		c.closeActivity(activity)
	}
	c.release(j)
}

// release is the single point where a job's resources go away.
func (c *Core) release(j *Job) {
	if !j.released.CompareAndSwap(false, true) {
		panic(fmt.Sprintf("mt: job %d released twice", j.id))
	}
	j.token.Unref()
	c.metrics.JobsReleased.Add(1)
	log.DebugLog.Printf("job %d released", j.id)
}

// checkError presents the job's error unless it is a user cancellation.
func (c *Core) checkError(j *Job) {
	err := j.Err()
	if err == nil || IsUserCancel(err) {
		return
	}

	var text string
	if what := j.Describe(); what != "" {
		text = fmt.Sprintf("Error while '%s':\n%s", what, err.Error())
	} else {
		text = fmt.Sprintf("Error while performing operation:\n%s", err.Error())
	}
	log.ErrorLog.Printf("job %d: %s", j.id, log.SanitizeURLs(text))
	c.metrics.ErrorsPresented.Add(1)
	if c.errors != nil {
		c.errors.PresentError(text)
	}
}
