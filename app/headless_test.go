package app

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByteMirror/mailmt/mt"
	"github.com/ByteMirror/mailmt/tasks"
)

func TestHeadlessPrintsProgress(t *testing.T) {
	var out bytes.Buffer
	h := NewHeadless(&out, strings.NewReader(""))

	var completed int
	err := RunHeadless(context.Background(), h, nil, mt.PerSubmission, &tasks.Sleep{
		Name:     "Napping",
		Duration: 40 * time.Millisecond,
		Steps:    4,
		OnDone:   func(n int, _ error) { completed = n },
	})
	require.NoError(t, err)
	assert.Equal(t, 4, completed)

	text := out.String()
	assert.Contains(t, text, "[Napping] step 1 of 4 25%")
	assert.Contains(t, text, "[Napping] done")
}

func TestHeadlessReportsFailure(t *testing.T) {
	var out bytes.Buffer
	h := NewHeadless(&out, strings.NewReader(""))

	err := RunHeadless(context.Background(), h, nil, mt.Queued, mt.OpsFuncs{
		DescribeFunc: func(*mt.Job) string { return "Indexing" },
		ReceiveFunc:  func(j *mt.Job) { j.SetError(errors.New("no space left")) },
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Error while 'Indexing':")
	assert.Equal(t, 1, h.Errors())
	assert.Contains(t, out.String(), "no space left")
}

func TestHeadlessAnswersPromptsFromInput(t *testing.T) {
	var out bytes.Buffer
	h := NewHeadless(&out, strings.NewReader("yes\nalice\n"))

	var (
		confirmed bool
		user      string
		ok        bool
	)
	err := RunHeadless(context.Background(), h, nil, mt.PerSubmission, mt.OpsFuncs{
		ReceiveFunc: func(j *mt.Job) {
			confirmed = j.Core().RequestConfirmation(mt.KindQuestion, "Continue?", true)
			user, ok = j.Core().RequestSecret("Username", false)
		},
	})
	require.NoError(t, err)
	assert.True(t, confirmed)
	assert.True(t, ok)
	assert.Equal(t, "alice", user)
	assert.Contains(t, out.String(), "Continue? [y/N]")
	assert.Contains(t, out.String(), "Username:")
}

func TestHeadlessEndOfInputCancels(t *testing.T) {
	h := NewHeadless(&bytes.Buffer{}, strings.NewReader(""))

	ok := true
	err := RunHeadless(context.Background(), h, nil, mt.PerSubmission, mt.OpsFuncs{
		ReceiveFunc: func(j *mt.Job) {
			_, ok = j.Core().RequestSecret("Password", true)
		},
	})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHeadlessCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	h := NewHeadless(&out, strings.NewReader(""))
	var gotErr error
	err := RunHeadless(ctx, h, nil, mt.PerSubmission, mt.OpsFuncs{
		ReceiveFunc: func(j *mt.Job) {
			<-j.Context().Done()
			j.SetError(mt.ErrUserCancelled)
		},
		ReplyFunc: func(j *mt.Job) { gotErr = j.Err() },
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, mt.IsUserCancel(gotErr))
	assert.Zero(t, h.Errors(), "user cancellation is not presented")
}
