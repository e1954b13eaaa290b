package mt

import "github.com/ByteMirror/mailmt/log"

// DefaultActivityText labels activities of jobs without a description.
const DefaultActivityText = "Working"

// Activity is a user-visible progress indicator for one job. All methods are
// called on the UI goroutine.
type Activity interface {
	Update(text string, percent int)
	Close()
}

// ActivityHost creates activities. NewActivity runs on the UI goroutine
// without any core lock held, so it may submit jobs of its own.
type ActivityHost interface {
	NewActivity(id ID, what string) Activity
}

// ErrorPresenter shows the error of a finished job. Called on the UI
// goroutine.
type ErrorPresenter interface {
	PresentError(text string)
}

type nopActivityHost struct{}

func (nopActivityHost) NewActivity(ID, string) Activity { return nopActivity{} }

type nopActivity struct{}

func (nopActivity) Update(string, int) {}
func (nopActivity) Close()             {}

// statusUpdate is every token's StatusFunc. It runs on whichever goroutine
// reported progress and hands the update to the UI goroutine.
func (c *Core) statusUpdate(id ID, text string, percent int) {
	percent = normalizePercent(percent)
	if c.statusLog.ShouldLog() {
		log.DebugLog.Printf("job %d status %q %d%%", id, text, percent)
	}
	j := c.NewJob(OpsFuncs{ReceiveFunc: func(*Job) {
		c.applyStatus(id, text, percent)
	}}, nil)
	c.guiPort.Put(j)
}

// applyStatus runs on the UI goroutine. It is the only place activities are
// created.
func (c *Core) applyStatus(id ID, text string, percent int) {
	c.reg.mu.Lock()
	j := c.reg.active[id]
	if j == nil {
		c.reg.mu.Unlock()
		c.dropStatus(id, "job is gone")
		return
	}

	switch j.activityState {
	case ActivityActive:
		activity := j.activity
		c.reg.mu.Unlock()
		activity.Update(text, percent)

	case ActivityNone:
		j.activityState = ActivityCreating
		c.reg.mu.Unlock()

		what := j.Describe()
		if what == "" {
			what = DefaultActivityText
		}
		activity := c.activities.NewActivity(id, what)
		if activity == nil {
			activity = nopActivity{}
		}
		c.metrics.ActivitiesCreated.Add(1)

		c.reg.mu.Lock()
		if j.activityState == ActivityPendingFree {
			// The job was freed while the activity was being created; the
			// release is ours.
			c.reg.mu.Unlock()
			c.closeActivity(activity)
			c.release(j)
			return
		}
		j.activity = activity
		j.activityState = ActivityActive
		c.reg.mu.Unlock()
		activity.Update(text, percent)

	default:
		state := j.activityState
		c.reg.mu.Unlock()
		c.dropStatus(id, "activity is "+state.String())
	}
}

func (c *Core) dropStatus(id ID, reason string) {
	c.metrics.StatusDropped.Add(1)
	log.DebugLog.Printf("dropping status for job %d: %s", id, reason)
}

// closeActivity closes a on the UI goroutine.
func (c *Core) closeActivity(a Activity) {
	c.RunOnUI(func() {
		a.Close()
		c.metrics.ActivitiesClosed.Add(1)
	})
}
