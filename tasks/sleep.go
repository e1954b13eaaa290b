package tasks

import (
	"fmt"
	"time"

	"github.com/ByteMirror/mailmt/mt"
)

// Sleep is a demo job that ticks through Steps over Duration.
type Sleep struct {
	Name     string
	Duration time.Duration
	Steps    int
	OnDone   func(completed int, err error)

	completed int
}

func (s *Sleep) Describe(*mt.Job) string {
	if s.Name == "" {
		return fmt.Sprintf("Sleeping %s", s.Duration)
	}
	return s.Name
}

func (s *Sleep) Receive(j *mt.Job) {
	steps := s.Steps
	if steps <= 0 {
		steps = 10
	}
	interval := s.Duration / time.Duration(steps)
	if interval <= 0 {
		interval = time.Millisecond
	}
	tick := time.NewTicker(interval)
	defer tick.Stop()

	for s.completed < steps {
		select {
		case <-j.Context().Done():
			j.SetError(mt.ErrUserCancelled)
			return
		case <-tick.C:
			s.completed++
			j.Progress(fmt.Sprintf("step %d of %d", s.completed, steps), s.completed*100/steps)
		}
	}
}

func (s *Sleep) Reply(j *mt.Job) {
	if s.OnDone != nil {
		s.OnDone(s.completed, j.Err())
	}
}

func (s *Sleep) Destroy(*mt.Job) {}
