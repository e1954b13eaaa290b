package tasks

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"

	"github.com/ByteMirror/mailmt/log"
	"github.com/ByteMirror/mailmt/mt"
)

// FetchResult is handed to Fetch.OnDone on the UI goroutine.
type FetchResult struct {
	Remote   string
	URL      string
	UpToDate bool
	Err      error
}

// Fetch updates the remote-tracking refs of a local repository.
type Fetch struct {
	RepoPath string
	// Remote defaults to DefaultRemote, which defaults to "origin".
	Remote        string
	DefaultRemote string
	// OnDone runs on the UI goroutine once the fetch has finished.
	OnDone func(FetchResult)

	repo   *git.Repository
	result FetchResult
}

func (f *Fetch) defaultRemote() string {
	if f.DefaultRemote == "" {
		return "origin"
	}
	return f.DefaultRemote
}

func (f *Fetch) remote() string {
	if f.Remote == "" {
		return f.defaultRemote()
	}
	return f.Remote
}

func (f *Fetch) Describe(*mt.Job) string {
	return fmt.Sprintf("Fetching %s in %s", f.remote(), filepath.Base(f.RepoPath))
}

func (f *Fetch) Receive(j *mt.Job) {
	f.result.Remote = f.remote()
	if err := f.run(j); err != nil {
		f.result.Err = err
		j.SetError(err)
	}
}

func (f *Fetch) run(j *mt.Job) error {
	repo, err := git.PlainOpen(f.RepoPath)
	if err != nil {
		return fmt.Errorf("failed to open repository: %w", err)
	}
	f.repo = repo

	remote, err := repo.Remote(f.remote())
	if err != nil {
		return fmt.Errorf("failed to find remote %s: %w", f.remote(), err)
	}
	if urls := remote.Config().URLs; len(urls) > 0 {
		f.result.URL = urls[0]
	}

	if f.remote() != f.defaultRemote() {
		prompt := fmt.Sprintf("Fetch from remote '%s' (%s)?", f.remote(), log.SanitizeURL(f.result.URL))
		if !j.Core().RequestConfirmationContext(j.Context(), mt.KindQuestion, prompt, true) {
			return mt.ErrUserCancelled
		}
	}

	opts := &git.FetchOptions{
		RemoteName: f.remote(),
		Progress:   newProgressWriter(j.Progress),
	}
	err = repo.FetchContext(j.Context(), opts)
	if errors.Is(err, transport.ErrAuthenticationRequired) || errors.Is(err, transport.ErrAuthorizationFailed) {
		auth, authErr := f.askCredentials(j)
		if authErr != nil {
			return authErr
		}
		opts.Auth = auth
		err = repo.FetchContext(j.Context(), opts)
	}

	switch {
	case errors.Is(err, git.NoErrAlreadyUpToDate):
		f.result.UpToDate = true
		return nil
	case err == nil:
		return nil
	case j.Cancelled():
		return mt.ErrUserCancelled
	default:
		log.WarningLog.Printf("fetch %s from %s failed: %v", f.remote(), log.SanitizeURL(f.result.URL), err)
		return &mt.OperationError{Op: "fetch", Err: err}
	}
}

// askCredentials prompts for HTTP basic auth credentials.
func (f *Fetch) askCredentials(j *mt.Job) (transport.AuthMethod, error) {
	target := log.SanitizeURL(f.result.URL)
	user, ok := j.Core().RequestSecretContext(j.Context(), fmt.Sprintf("Username for %s", target), false)
	if !ok {
		return nil, mt.ErrUserCancelled
	}
	pass, ok := j.Core().RequestSecretContext(j.Context(), fmt.Sprintf("Password for %s@%s", user, target), true)
	if !ok {
		return nil, mt.ErrUserCancelled
	}
	return &http.BasicAuth{Username: user, Password: pass}, nil
}

func (f *Fetch) Reply(*mt.Job) {
	if f.OnDone != nil {
		f.OnDone(f.result)
	}
}

func (f *Fetch) Destroy(*mt.Job) {
	f.repo = nil
}
