// Package gitops provides the version-control view the engine needs:
// file content at a commit and the set of files changed between commits.
package gitops

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Repository wraps a git repository opened from a working directory.
type Repository struct {
	repo *git.Repository
}

// Open locates the repository containing path, walking up to the nearest
// .git directory.
func Open(path string) (*Repository, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("opening repository at %s: %w", path, err)
	}
	return &Repository{repo: repo}, nil
}

// NewRepository wraps an already opened go-git repository. Used by tests
// that build repositories in temp directories.
func NewRepository(repo *git.Repository) *Repository {
	return &Repository{repo: repo}
}

// Head returns the current HEAD commit hash.
func (r *Repository) Head() (string, error) {
	head, err := r.repo.Head()
	if err != nil {
		return "", fmt.Errorf("reading HEAD: %w", err)
	}
	return head.Hash().String(), nil
}

// FileAtCommit returns the content of path at the given commit or revision.
func (r *Repository) FileAtCommit(_ context.Context, commit, path string) (string, error) {
	c, err := r.commitAt(commit)
	if err != nil {
		return "", err
	}

	file, err := c.File(path)
	if err != nil {
		return "", fmt.Errorf("file %s at %s: %w", path, commit, err)
	}
	content, err := file.Contents()
	if err != nil {
		return "", fmt.Errorf("reading %s at %s: %w", path, commit, err)
	}
	return content, nil
}

// ChangedFiles lists the paths that differ between two commits. Renames
// contribute both sides.
func (r *Repository) ChangedFiles(_ context.Context, from, to string) ([]string, error) {
	fromCommit, err := r.commitAt(from)
	if err != nil {
		return nil, err
	}
	toCommit, err := r.commitAt(to)
	if err != nil {
		return nil, err
	}

	fromTree, err := fromCommit.Tree()
	if err != nil {
		return nil, fmt.Errorf("tree of %s: %w", from, err)
	}
	toTree, err := toCommit.Tree()
	if err != nil {
		return nil, fmt.Errorf("tree of %s: %w", to, err)
	}

	changes, err := object.DiffTree(fromTree, toTree)
	if err != nil {
		return nil, fmt.Errorf("diffing %s..%s: %w", from, to, err)
	}

	seen := make(map[string]bool)
	var paths []string
	for _, change := range changes {
		for _, name := range []string{change.From.Name, change.To.Name} {
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			paths = append(paths, name)
		}
	}
	return paths, nil
}

// CommitsTouching returns the hashes of commits that modified path, newest
// first, up to limit (0 means all).
func (r *Repository) CommitsTouching(_ context.Context, path string, limit int) ([]string, error) {
	iter, err := r.repo.Log(&git.LogOptions{FileName: &path})
	if err != nil {
		return nil, fmt.Errorf("log for %s: %w", path, err)
	}
	defer iter.Close()

	var hashes []string
	err = iter.ForEach(func(c *object.Commit) error {
		if limit > 0 && len(hashes) >= limit {
			return io.EOF
		}
		hashes = append(hashes, c.Hash.String())
		return nil
	})
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("iterating log for %s: %w", path, err)
	}
	return hashes, nil
}

// FileAtHead returns the content of path at HEAD, or "" when the file does
// not exist there. Used by the capture hooks to recover before-content.
func (r *Repository) FileAtHead(ctx context.Context, path string) (string, error) {
	head, err := r.Head()
	if err != nil {
		return "", err
	}
	content, err := r.FileAtCommit(ctx, head, path)
	if err != nil {
		if errors.Is(err, object.ErrFileNotFound) {
			return "", nil
		}
		return "", err
	}
	return content, nil
}

func (r *Repository) commitAt(rev string) (*object.Commit, error) {
	hash, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", rev, err)
	}
	commit, err := r.repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("loading commit %s: %w", rev, err)
	}
	return commit, nil
}
