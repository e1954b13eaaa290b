package overlay

import (
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager() *ToastManager {
	s := spinner.New()
	tm := NewToastManager(&s, 20, 0)
	tm.SetSize(120, 40)
	return tm
}

func makeVisible(tm *ToastManager) {
	for _, t := range tm.toasts {
		t.Phase = PhaseVisible
		t.PhaseStart = time.Now()
	}
}

func TestToastKinds(t *testing.T) {
	tm := newTestManager()

	ids := map[string]bool{
		tm.Info("info"):      true,
		tm.Success("ok"):     true,
		tm.Error("bad"):      true,
		tm.Activity("fetch"): true,
	}
	assert.Len(t, ids, 4, "toast IDs must be unique")
	require.Len(t, tm.toasts, 4)
	assert.Equal(t, DefaultErrorDismiss, tm.toasts[2].Duration)
	assert.Zero(t, tm.toasts[3].Duration, "activities never auto-dismiss")
	assert.Equal(t, 1, tm.Count(ToastActivity))
}

func TestToastAnimationPhases(t *testing.T) {
	tm := newTestManager()
	tm.Info("hello")
	require.Len(t, tm.toasts, 1)
	assert.Equal(t, PhaseSlidingIn, tm.toasts[0].Phase)

	tm.toasts[0].PhaseStart = time.Now().Add(-SlideInDuration - time.Millisecond)
	tm.Tick()
	assert.Equal(t, PhaseVisible, tm.toasts[0].Phase)

	tm.toasts[0].PhaseStart = time.Now().Add(-InfoDismissAfter - time.Millisecond)
	tm.Tick()
	assert.Equal(t, PhaseSlidingOut, tm.toasts[0].Phase)

	tm.toasts[0].PhaseStart = time.Now().Add(-SlideOutDuration - time.Millisecond)
	tm.Tick()
	assert.Empty(t, tm.toasts)
	assert.False(t, tm.HasActiveToasts())
}

func TestActivityToastLifecycle(t *testing.T) {
	tm := newTestManager()
	id := tm.Activity("Fetching origin in repo")
	makeVisible(tm)

	tm.toasts[0].PhaseStart = time.Now().Add(-time.Hour)
	tm.Tick()
	require.Len(t, tm.toasts, 1, "activities stay until finished")

	tm.Progress(id, "Receiving objects", 40)
	assert.Equal(t, "Receiving objects", tm.toasts[0].Detail)
	assert.Equal(t, 40, tm.toasts[0].Percent)

	view := tm.View()
	assert.Contains(t, view, "Fetching origin in repo")
	assert.Contains(t, view, "Receiving objects")

	tm.Finish(id)
	assert.Equal(t, PhaseSlidingOut, tm.toasts[0].Phase)
	tm.toasts[0].PhaseStart = time.Now().Add(-SlideOutDuration - time.Millisecond)
	tm.Tick()
	assert.Empty(t, tm.toasts)
}

func TestUnknownIDsAreIgnored(t *testing.T) {
	tm := newTestManager()
	assert.NotPanics(t, func() {
		tm.Progress("missing", "x", 10)
		tm.Finish("missing")
		tm.Tick()
	})
	assert.Empty(t, tm.View())
}

func TestEvictionPrefersNotifications(t *testing.T) {
	tm := newTestManager()
	activity := tm.Activity("long job")
	for i := 0; i < MaxToasts+2; i++ {
		tm.Info("note")
	}
	assert.Len(t, tm.toasts, MaxToasts)
	assert.NotNil(t, tm.find(activity), "the activity outlives notifications")
}

func TestLongActivityTitleIsTruncated(t *testing.T) {
	tm := newTestManager()
	tm.Activity("Fetching a remote with an extremely long name that cannot fit in the toast at all")
	makeVisible(tm)
	assert.Contains(t, tm.View(), "…")
}

func TestErrorToastWraps(t *testing.T) {
	tm := newTestManager()
	tm.Error("Error while 'Fetching origin in repo':\nfetch: authentication required for this remote")
	makeVisible(tm)
	view := tm.View()
	assert.Contains(t, view, "authentication")
	assert.Contains(t, view, "Error while")
}
