package mt

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusyPostsOnlyOnEdges(t *testing.T) {
	c := newTestCore(t)
	w := &recordingWindow{}
	c.AddWindow(w)

	// 0→1→2→1→2→1→0
	c.enableStop()
	c.enableStop()
	c.disableStop()
	c.enableStop()
	c.disableStop()
	c.disableStop()
	assert.Equal(t, 2, c.guiPort.Len(), "only the two edges post a job")

	c.Drain()
	assert.Equal(t, []bool{false, true, false}, w.calls)
}

func TestSetStopIsDeduplicated(t *testing.T) {
	c := newTestCore(t)
	w := &recordingWindow{}
	c.AddWindow(w)

	c.setStop(true)
	c.setStop(true)
	c.setStop(false)
	c.setStop(false)
	assert.Equal(t, []bool{false, true, false}, w.calls)
}

func TestStopBroadcastReachesEveryWindow(t *testing.T) {
	c := newTestCore(t)
	a, b, removed := &recordingWindow{}, &recordingWindow{}, &recordingWindow{}
	c.AddWindow(a)
	c.AddWindow(b)
	c.AddWindow(removed)
	c.RemoveWindow(removed)

	c.setStop(true)
	assert.Equal(t, []bool{false, true}, a.calls)
	assert.Equal(t, []bool{false, true}, b.calls)
	assert.Equal(t, []bool{false}, removed.calls)
}

func TestBusyAroundConcurrentJobs(t *testing.T) {
	c := newTestCore(t)
	w := &recordingWindow{}
	c.AddWindow(w)

	release := make(chan struct{})
	var started sync.WaitGroup
	for i := 0; i < 2; i++ {
		started.Add(1)
		_, err := c.Submit(PerSubmission, OpsFuncs{
			ReceiveFunc: func(*Job) {
				started.Done()
				<-release
			},
		}, c.ReplyPort())
		require.NoError(t, err)
	}

	started.Wait()
	assert.Equal(t, 2, c.Busy())
	close(release)

	settle(t, c)
	assert.Equal(t, []bool{false, true, false}, w.calls)
}
