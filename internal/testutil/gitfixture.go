// Package testutil holds repository fixtures and assertions shared by tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	ggitcfg "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Branch is the branch go-git initializes repositories on.
const Branch = "master"

// RemotePair is a working repository whose origin is a local bare repository.
type RemotePair struct {
	Work string
	Bare string
	Repo *git.Repository
}

// NewRemotePair initializes a bare remote and a working repository under a
// temporary directory.
func NewRemotePair(t *testing.T) RemotePair {
	t.Helper()
	tmp := t.TempDir()
	bare := filepath.Join(tmp, "remote.git")
	if _, err := git.PlainInit(bare, true); err != nil {
		t.Fatalf("failed to initialize bare repo: %v", err)
	}
	work := filepath.Join(tmp, "work")
	repo, err := git.PlainInit(work, false)
	if err != nil {
		t.Fatalf("failed to initialize git repo: %v", err)
	}
	if _, err := repo.CreateRemote(&ggitcfg.RemoteConfig{Name: "origin", URLs: []string{bare}}); err != nil {
		t.Fatalf("failed to create remote: %v", err)
	}
	return RemotePair{Work: work, Bare: bare, Repo: repo}
}

// Seed commits a file in the working repository, pushes it to origin and
// returns the commit hash.
func (p RemotePair) Seed(t *testing.T, name, content string) string {
	t.Helper()
	WriteFile(t, p.Work, name, content)
	wt, err := p.Repo.Worktree()
	if err != nil {
		t.Fatalf("failed to get worktree: %v", err)
	}
	if _, err := wt.Add(name); err != nil {
		t.Fatalf("failed to stage %s: %v", name, err)
	}
	hash, err := wt.Commit("seed "+name, &git.CommitOptions{
		Author: &object.Signature{Name: "seed", Email: "seed@example.com", When: time.Now()},
	})
	if err != nil {
		t.Fatalf("failed to commit: %v", err)
	}
	refspec := ggitcfg.RefSpec("refs/heads/" + Branch + ":refs/heads/" + Branch)
	if err := p.Repo.Push(&git.PushOptions{RemoteName: "origin", RefSpecs: []ggitcfg.RefSpec{refspec}}); err != nil {
		t.Fatalf("failed to push seed commit: %v", err)
	}
	return hash.String()
}

// RemoteTip returns the branch tip of the bare remote.
func (p RemotePair) RemoteTip(t *testing.T) string {
	t.Helper()
	remote, err := git.PlainOpen(p.Bare)
	if err != nil {
		t.Fatalf("failed to open remote: %v", err)
	}
	ref, err := remote.Reference(plumbing.NewBranchReferenceName(Branch), true)
	if err != nil {
		t.Fatalf("failed to read remote branch: %v", err)
	}
	return ref.Hash().String()
}

// RemoteCommit loads a commit object from the bare remote.
func (p RemotePair) RemoteCommit(t *testing.T, hash string) *object.Commit {
	t.Helper()
	remote, err := git.PlainOpen(p.Bare)
	if err != nil {
		t.Fatalf("failed to open remote: %v", err)
	}
	c, err := remote.CommitObject(plumbing.NewHash(hash))
	if err != nil {
		t.Fatalf("failed to load commit %s: %v", hash, err)
	}
	return c
}

// WriteFile creates root/name with content, including parent directories.
func WriteFile(t *testing.T, root, name, content string) {
	t.Helper()
	path := filepath.Join(root, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatalf("failed to create %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}
