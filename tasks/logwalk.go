package tasks

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"

	"github.com/ByteMirror/mailmt/mt"
)

// AuthorCount is the number of commits by one author.
type AuthorCount struct {
	Name    string
	Commits int
}

// LogResult is handed to LogWalk.OnDone on the UI goroutine.
type LogResult struct {
	Commits int
	Authors []AuthorCount
	Err     error
}

// LogWalk walks the history reachable from HEAD, checking for cancellation
// at every commit.
type LogWalk struct {
	RepoPath string
	// Limit stops the walk after that many commits. 0 walks everything.
	Limit int
	// ReportEvery sets how many commits pass between progress reports.
	ReportEvery int
	OnDone      func(LogResult)

	result LogResult
}

func (w *LogWalk) Describe(*mt.Job) string {
	return fmt.Sprintf("Reading history of %s", filepath.Base(w.RepoPath))
}

func (w *LogWalk) Receive(j *mt.Job) {
	if err := w.walk(j); err != nil {
		w.result.Err = err
		j.SetError(err)
	}
}

func (w *LogWalk) walk(j *mt.Job) error {
	repo, err := git.PlainOpen(w.RepoPath)
	if err != nil {
		return fmt.Errorf("failed to open repository: %w", err)
	}
	head, err := repo.Head()
	if err != nil {
		return fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	iter, err := repo.Log(&git.LogOptions{From: head.Hash()})
	if err != nil {
		return fmt.Errorf("failed to read log: %w", err)
	}
	defer iter.Close()

	every := w.ReportEvery
	if every <= 0 {
		every = 100
	}
	authors := make(map[string]int)
	err = iter.ForEach(func(c *object.Commit) error {
		if j.Cancelled() {
			return mt.ErrUserCancelled
		}
		w.result.Commits++
		authors[c.Author.Name]++
		if w.result.Commits%every == 0 {
			j.Progress(fmt.Sprintf("%d commits", w.result.Commits), w.percent())
		}
		if w.Limit > 0 && w.result.Commits >= w.Limit {
			return storer.ErrStop
		}
		return nil
	})
	w.result.Authors = sortAuthors(authors)
	if errors.Is(err, mt.ErrUserCancelled) {
		return err
	}
	if err != nil {
		return &mt.OperationError{Op: "log", Err: err}
	}
	return nil
}

func (w *LogWalk) percent() int {
	if w.Limit <= 0 {
		return 0
	}
	return w.result.Commits * 100 / w.Limit
}

func sortAuthors(authors map[string]int) []AuthorCount {
	out := make([]AuthorCount, 0, len(authors))
	for name, n := range authors {
		out = append(out, AuthorCount{Name: name, Commits: n})
	}
	sort.Slice(out, func(i, k int) bool {
		if out[i].Commits != out[k].Commits {
			return out[i].Commits > out[k].Commits
		}
		return out[i].Name < out[k].Name
	})
	return out
}

func (w *LogWalk) Reply(*mt.Job) {
	if w.OnDone != nil {
		w.OnDone(w.result)
	}
}

func (w *LogWalk) Destroy(*mt.Job) {}
