package mt

import "sync"

// registry is the table of active jobs. mu also guards every job's activity
// fields.
type registry struct {
	mu     sync.Mutex
	cond   *sync.Cond
	seq    ID
	active map[ID]*Job
	// changed is closed and replaced whenever a job is removed, so the UI
	// goroutine can select on removals next to port readiness.
	changed chan struct{}
}

func newRegistry() *registry {
	r := &registry{
		active:  make(map[ID]*Job),
		changed: make(chan struct{}),
	}
	r.cond = sync.NewCond(&r.mu)
	return r
}

// insert assigns the next id to j, runs init with it and registers j. init
// runs under mu, so j is complete before any lookup can see it.
func (r *registry) insert(j *Job, init func(id ID)) ID {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	j.id = r.seq
	if init != nil {
		init(j.id)
	}
	r.active[j.id] = j
	return j.id
}

func (r *registry) lookup(id ID) *Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active[id]
}

func (r *registry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.active)
}

// removeLocked deletes id and wakes every waiter. Caller holds mu.
func (r *registry) removeLocked(id ID) {
	delete(r.active, id)
	r.broadcastLocked()
}

func (r *registry) broadcastLocked() {
	r.cond.Broadcast()
	close(r.changed)
	r.changed = make(chan struct{})
}

func (r *registry) changedCh() <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.changed
}

// wait blocks until id is no longer registered.
func (r *registry) wait(id ID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for r.active[id] != nil {
		r.cond.Wait()
	}
}
