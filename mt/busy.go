package mt

import (
	"sync"

	"github.com/ByteMirror/mailmt/log"
)

// Window is a collaborator that shows a stop affordance while jobs run.
// SetStopSensitive is called on the UI goroutine.
type Window interface {
	SetStopSensitive(sensitive bool)
}

// busyState counts jobs inside Receive.
type busyState struct {
	mu    sync.Mutex
	count int
	// shown is the value last broadcast to windows. UI goroutine only.
	shown bool
}

type windowSet struct {
	mu      sync.Mutex
	windows []Window
}

// AddWindow registers w for stop affordance updates and brings it up to
// date. Call it on the UI goroutine.
func (c *Core) AddWindow(w Window) {
	c.windows.mu.Lock()
	c.windows.windows = append(c.windows.windows, w)
	c.windows.mu.Unlock()
	w.SetStopSensitive(c.busy.shown)
}

// RemoveWindow unregisters w.
func (c *Core) RemoveWindow(w Window) {
	c.windows.mu.Lock()
	defer c.windows.mu.Unlock()
	for i, existing := range c.windows.windows {
		if existing == w {
			c.windows.windows = append(c.windows.windows[:i], c.windows.windows[i+1:]...)
			return
		}
	}
}

// Busy reports how many jobs are currently inside Receive.
func (c *Core) Busy() int {
	c.busy.mu.Lock()
	defer c.busy.mu.Unlock()
	return c.busy.count
}

func (c *Core) enableStop() {
	c.busy.mu.Lock()
	defer c.busy.mu.Unlock()
	c.busy.count++
	if c.busy.count == 1 {
		c.postSetStop(true)
	}
}

func (c *Core) disableStop() {
	c.busy.mu.Lock()
	defer c.busy.mu.Unlock()
	c.busy.count--
	if c.busy.count == 0 {
		c.postSetStop(false)
	}
}

// postSetStop queues the new sensitivity for the UI goroutine. Caller holds
// busy.mu so edges are posted in the order they happen.
func (c *Core) postSetStop(sensitive bool) {
	j := c.NewJob(OpsFuncs{ReceiveFunc: func(*Job) {
		c.setStop(sensitive)
	}}, nil)
	c.guiPort.Put(j)
}

func (c *Core) setStop(sensitive bool) {
	if c.busy.shown == sensitive {
		return
	}
	c.busy.shown = sensitive
	log.DebugLog.Printf("stop affordance sensitive=%v", sensitive)

	c.windows.mu.Lock()
	windows := make([]Window, len(c.windows.windows))
	copy(windows, c.windows.windows)
	c.windows.mu.Unlock()

	for _, w := range windows {
		w.SetStopSensitive(sensitive)
	}
}
