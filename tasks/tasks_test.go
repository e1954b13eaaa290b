package tasks

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByteMirror/mailmt/mt"
)

type answeringPrompter struct {
	mu       sync.Mutex
	confirm  bool
	prompts  []string
	username string
	password string
}

func (p *answeringPrompter) PromptSecret(req mt.SecretRequest, answer func(string, bool)) {
	p.mu.Lock()
	p.prompts = append(p.prompts, req.Prompt)
	p.mu.Unlock()
	if req.Secret {
		answer(p.password, p.password != "")
		return
	}
	answer(p.username, p.username != "")
}

func (p *answeringPrompter) Confirm(req mt.ConfirmRequest, answer func(bool)) {
	p.mu.Lock()
	p.prompts = append(p.prompts, req.Prompt)
	p.mu.Unlock()
	answer(p.confirm)
}

func newCore(t *testing.T, opts ...mt.Option) *mt.Core {
	t.Helper()
	c := mt.New(opts...)
	c.BindUI()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		require.NoError(t, c.Close(ctx))
	})
	return c
}

// run submits ops and waits on the UI goroutine until the job is released.
func run(t *testing.T, c *mt.Core, ops mt.Ops) {
	t.Helper()
	id, err := c.Submit(mt.Queued, ops, c.ReplyPort())
	require.NoError(t, err)
	c.WaitFor(id)
}

// initRepo creates a repository with n commits and returns its path.
func initRepo(t *testing.T, n int, authors ...string) string {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)

	if len(authors) == 0 {
		authors = []string{"Ada"}
	}
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("file%d.txt", i)
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(name), 0644))
		_, err := wt.Add(name)
		require.NoError(t, err)
		author := authors[i%len(authors)]
		_, err = wt.Commit(fmt.Sprintf("commit %d", i), &git.CommitOptions{
			Author: &object.Signature{
				Name:  author,
				Email: author + "@example.com",
				When:  time.Unix(int64(1700000000+i), 0),
			},
		})
		require.NoError(t, err)
	}
	return dir
}

func addRemote(t *testing.T, repoPath, name, url string) {
	t.Helper()
	repo, err := git.PlainOpen(repoPath)
	require.NoError(t, err)
	_, err = repo.CreateRemote(&gitconfig.RemoteConfig{Name: name, URLs: []string{url}})
	require.NoError(t, err)
}

func TestLogWalkCountsCommits(t *testing.T) {
	dir := initRepo(t, 5, "Ada", "Grace", "Ada")
	c := newCore(t)

	var got LogResult
	run(t, c, &LogWalk{RepoPath: dir, ReportEvery: 2, OnDone: func(r LogResult) { got = r }})

	require.NoError(t, got.Err)
	assert.Equal(t, 5, got.Commits)
	assert.Equal(t, []AuthorCount{{"Ada", 4}, {"Grace", 1}}, got.Authors)
}

func TestLogWalkStopsAtLimit(t *testing.T) {
	dir := initRepo(t, 6)
	c := newCore(t)

	var got LogResult
	run(t, c, &LogWalk{RepoPath: dir, Limit: 3, OnDone: func(r LogResult) { got = r }})

	require.NoError(t, got.Err)
	assert.Equal(t, 3, got.Commits)
}

func TestLogWalkHonoursCancel(t *testing.T) {
	dir := initRepo(t, 3)
	c := newCore(t)

	var got LogResult
	walk := &LogWalk{RepoPath: dir, OnDone: func(r LogResult) { got = r }}
	j := c.NewJob(walk, c.ReplyPort())
	c.Cancel(j.ID())
	require.NoError(t, c.Put(mt.Queued, j))
	c.WaitFor(j.ID())

	assert.ErrorIs(t, got.Err, mt.ErrUserCancelled)
	assert.Zero(t, got.Commits)
}

func TestLogWalkMissingRepo(t *testing.T) {
	c := newCore(t)
	var got LogResult
	run(t, c, &LogWalk{RepoPath: t.TempDir(), OnDone: func(r LogResult) { got = r }})
	assert.ErrorIs(t, got.Err, git.ErrRepositoryNotExists)
}

func TestFetchDeclinedForNonDefaultRemote(t *testing.T) {
	src := initRepo(t, 1)
	dst := initRepo(t, 1)
	addRemote(t, dst, "upstream", src)

	prompter := &answeringPrompter{confirm: false}
	c := newCore(t, mt.WithPrompter(prompter))

	var got FetchResult
	run(t, c, &Fetch{RepoPath: dst, Remote: "upstream", OnDone: func(r FetchResult) { got = r }})

	assert.ErrorIs(t, got.Err, mt.ErrUserCancelled)
	require.Len(t, prompter.prompts, 1)
	assert.Contains(t, prompter.prompts[0], "upstream")
}

func TestFetchUnknownRemote(t *testing.T) {
	dst := initRepo(t, 1)
	c := newCore(t)

	var got FetchResult
	run(t, c, &Fetch{RepoPath: dst, OnDone: func(r FetchResult) { got = r }})
	assert.ErrorIs(t, got.Err, git.ErrRemoteNotFound)
	assert.Equal(t, "origin", got.Remote)
}

func TestFetchFromLocalRemote(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git is needed for the file transport")
	}
	src := initRepo(t, 3)
	dst := initRepo(t, 1)
	addRemote(t, dst, "origin", src)
	c := newCore(t)

	var got FetchResult
	run(t, c, &Fetch{RepoPath: dst, OnDone: func(r FetchResult) { got = r }})
	require.NoError(t, got.Err)
	assert.False(t, got.UpToDate)

	repo, err := git.PlainOpen(dst)
	require.NoError(t, err)
	_, err = repo.Reference(plumbing.NewRemoteReferenceName("origin", "master"), true)
	assert.NoError(t, err)

	run(t, c, &Fetch{RepoPath: dst, OnDone: func(r FetchResult) { got = r }})
	require.NoError(t, got.Err)
	assert.True(t, got.UpToDate)
}

func TestSleepCompletesAndCancels(t *testing.T) {
	c := newCore(t)

	var completed int
	var sleepErr error
	run(t, c, &Sleep{Duration: 10 * time.Millisecond, Steps: 2, OnDone: func(n int, err error) {
		completed, sleepErr = n, err
	}})
	assert.Equal(t, 2, completed)
	assert.NoError(t, sleepErr)

	s := &Sleep{Duration: time.Hour, Steps: 2, OnDone: func(n int, err error) {
		completed, sleepErr = n, err
	}}
	id, err := c.Submit(mt.PerSubmission, s, c.ReplyPort())
	require.NoError(t, err)
	c.Cancel(id)
	c.WaitFor(id)
	assert.Zero(t, completed)
	assert.ErrorIs(t, sleepErr, mt.ErrUserCancelled)
}

func TestProgressWriterParsesSideband(t *testing.T) {
	type report struct {
		text    string
		percent int
	}
	var got []report
	w := newProgressWriter(func(text string, percent int) {
		got = append(got, report{text, percent})
	})

	_, _ = w.Write([]byte("Counting objects:  50% (1/2)\rCounting obj"))
	_, _ = w.Write([]byte("ects: 100% (2/2), done.\n"))
	_, _ = w.Write([]byte("remote: Compressing objects:  33% (1/3)\r"))
	_, _ = w.Write([]byte("Total 3 (delta 0), reused 0\n"))

	assert.Equal(t, []report{
		{"Counting objects", 50},
		{"Counting objects", 100},
		{"Compressing objects", 33},
	}, got)
}
