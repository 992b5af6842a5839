package git

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v5"
	ggitcfg "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/storage/filesystem"

	"git.home.luguber.info/inful/reportpub/internal/config"
	"git.home.luguber.info/inful/reportpub/internal/foundation/errors"
	"git.home.luguber.info/inful/reportpub/internal/logfields"
)

// Client exposes the primitive repository operations the publisher needs:
// stage-all, commit, push, read-local-tip and read-remote-tip.
type Client struct {
	root        string
	repo        *git.Repository
	remote      string
	branch      string
	auth        transport.AuthMethod
	authorName  string
	authorEmail string
}

// Open opens the repository at cfg.RepoRoot.
func Open(cfg *config.Config) (*Client, error) {
	repo, err := git.PlainOpen(cfg.RepoRoot)
	if err != nil {
		return nil, errors.VCSError("failed to open repository").
			WithCause(err).
			WithContext("path", cfg.RepoRoot).
			Build()
	}
	auth, err := authMethod(cfg.Git.Auth)
	if err != nil {
		return nil, errors.ConfigError("failed to setup authentication").WithCause(err).Build()
	}
	return &Client{
		root:        cfg.RepoRoot,
		repo:        repo,
		remote:      cfg.Git.Remote,
		branch:      cfg.Git.Branch,
		auth:        auth,
		authorName:  cfg.Git.AuthorName,
		authorEmail: cfg.Git.AuthorEmail,
	}, nil
}

// Root returns the working tree path.
func (c *Client) Root() string { return c.root }

// GitDir returns the repository metadata directory (.git).
func (c *Client) GitDir() string {
	if fs, ok := c.repo.Storer.(*filesystem.Storage); ok {
		return fs.Filesystem().Root()
	}
	return filepath.Join(c.root, ".git")
}

// StageAll stages every working-tree change, deletions included.
func (c *Client) StageAll() error {
	wt, err := c.repo.Worktree()
	if err != nil {
		return errors.VCSError("failed to get worktree").WithCause(err).Build()
	}
	status, err := wt.Status()
	if err != nil {
		return errors.VCSError("failed to get status").WithCause(err).Build()
	}
	for path, st := range status {
		if st.Worktree == git.Unmodified {
			continue
		}
		if st.Worktree == git.Deleted {
			_, err = wt.Remove(path)
		} else {
			_, err = wt.Add(path)
		}
		if err != nil {
			return errors.VCSError("failed to stage change").
				WithCause(err).
				WithContext("file", path).
				Build()
		}
	}
	return nil
}

// HasStaged reports whether the index differs from HEAD.
func (c *Client) HasStaged() (bool, error) {
	wt, err := c.repo.Worktree()
	if err != nil {
		return false, errors.VCSError("failed to get worktree").WithCause(err).Build()
	}
	status, err := wt.Status()
	if err != nil {
		return false, errors.VCSError("failed to get status").WithCause(err).Build()
	}
	for _, st := range status {
		if st.Staging != git.Unmodified && st.Staging != git.Untracked {
			return true, nil
		}
	}
	return false, nil
}

// Commit records the staged changes. Empty commits are refused.
func (c *Client) Commit(message string) (string, error) {
	wt, err := c.repo.Worktree()
	if err != nil {
		return "", errors.VCSError("failed to get worktree").WithCause(err).Build()
	}
	hash, err := wt.Commit(message, &git.CommitOptions{
		Author: &object.Signature{Name: c.authorName, Email: c.authorEmail, When: time.Now()},
	})
	if err != nil {
		return "", errors.VCSError("failed to commit").WithCause(err).Build()
	}
	slog.Info("Committed changes", logfields.Commit(hash.String()))
	return hash.String(), nil
}

// Push pushes the checked-out branch to the configured remote branch.
// An up-to-date remote is success.
func (c *Client) Push(ctx context.Context) error {
	head, err := c.repo.Head()
	if err != nil {
		return errors.VCSError("failed to resolve HEAD").WithCause(err).Build()
	}
	if !head.Name().IsBranch() {
		return errors.VCSError("HEAD is detached; refusing to push").
			WithContext("head", head.Hash().String()).
			Build()
	}
	spec := ggitcfg.RefSpec(fmt.Sprintf("%s:%s", head.Name(), plumbing.NewBranchReferenceName(c.branch)))
	err = c.repo.PushContext(ctx, &git.PushOptions{
		RemoteName: c.remote,
		RefSpecs:   []ggitcfg.RefSpec{spec},
		Auth:       c.auth,
	})
	if err != nil && !stderrors.Is(err, git.NoErrAlreadyUpToDate) {
		return ClassifyGitError(err, "push", c.remote)
	}
	return nil
}

// LocalTip returns the commit HEAD points to.
func (c *Client) LocalTip() (string, error) {
	head, err := c.repo.Head()
	if err != nil {
		return "", errors.VCSError("failed to read local tip").WithCause(err).Build()
	}
	return head.Hash().String(), nil
}

// RemoteTip lists the remote (ls-remote) and returns the tip of the configured
// branch, or "" when the branch does not exist there.
func (c *Client) RemoteTip(ctx context.Context) (string, error) {
	remote, err := c.repo.Remote(c.remote)
	if err != nil {
		return "", errors.VCSError("unknown remote").
			WithCause(err).
			WithContext("remote", c.remote).
			Build()
	}
	refs, err := remote.ListContext(ctx, &git.ListOptions{Auth: c.auth})
	if err != nil {
		if stderrors.Is(err, transport.ErrEmptyRemoteRepository) {
			return "", nil
		}
		return "", ClassifyGitError(err, "ls-remote", c.remote)
	}
	want := plumbing.NewBranchReferenceName(c.branch)
	for _, ref := range refs {
		if ref.Name() == want && ref.Type() == plumbing.HashReference {
			return ref.Hash().String(), nil
		}
	}
	return "", nil
}
