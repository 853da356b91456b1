package git

import (
	"errors"
	"fmt"

	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing"
	"github.com/go-git/go-git/v6/plumbing/object"
	"github.com/go-git/go-git/v6/storage/memory"
)

var (
	ErrOpenFailed     = errors.New("failed to open repository")
	ErrUnknownRef     = errors.New("unknown revision")
	ErrFileNotFound   = errors.New("file not found in repository")
	ErrMissingPath    = errors.New("file path is required")
	ErrMissingLocator = errors.New("repository location is required")
)

// OpenRepository opens a Git repository from a local path
func OpenRepository(path string) (*git.Repository, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrOpenFailed, path, err)
	}
	return repo, nil
}

// CloneRepository clones a Git repository to memory.
// Without a ref only the tip of the default branch is fetched.
func CloneRepository(url, ref string) (*git.Repository, error) {
	options := &git.CloneOptions{URL: url}
	if ref == "" {
		options.Depth = 1
		options.SingleBranch = true
	}

	repo, err := git.Clone(memory.NewStorage(), nil, options)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrOpenFailed, url, err)
	}
	return repo, nil
}

// ResolveCommit returns the commit ref points at, or HEAD when ref is empty
func ResolveCommit(repo *git.Repository, ref string) (*object.Commit, error) {
	var hash plumbing.Hash
	if ref == "" {
		head, err := repo.Head()
		if err != nil {
			return nil, fmt.Errorf("%w: HEAD: %w", ErrUnknownRef, err)
		}
		hash = head.Hash()
	} else {
		resolved, err := repo.ResolveRevision(plumbing.Revision(ref))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrUnknownRef, ref, err)
		}
		hash = *resolved
	}

	commit, err := repo.CommitObject(hash)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnknownRef, hash, err)
	}
	return commit, nil
}

// ReadFile reads path from the commit ref resolves to
func ReadFile(repo *git.Repository, ref, path string) (*File, error) {
	if path == "" {
		return nil, ErrMissingPath
	}

	commit, err := ResolveCommit(repo, ref)
	if err != nil {
		return nil, err
	}

	file, err := commit.File(path)
	if err != nil {
		if errors.Is(err, object.ErrFileNotFound) {
			return nil, fmt.Errorf("%w: %s at %s", ErrFileNotFound, path, commit.Hash.String()[:8])
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	contents, err := file.Contents()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	return &File{
		Path:   path,
		Commit: commit.Hash.String(),
		Data:   []byte(contents),
	}, nil
}

// LoadFile opens or clones the source repository and reads the file from it
func LoadFile(source Source) (*File, error) {
	if source.Location == "" {
		return nil, ErrMissingLocator
	}
	if source.Path == "" {
		return nil, ErrMissingPath
	}

	var (
		repo *git.Repository
		err  error
	)
	if source.IsRemote() {
		repo, err = CloneRepository(source.Location, source.Ref)
	} else {
		repo, err = OpenRepository(source.Location)
	}
	if err != nil {
		return nil, err
	}

	file, err := ReadFile(repo, source.Ref, source.Path)
	if err != nil {
		return nil, err
	}
	file.Origin = GetRemoteURL(repo, "origin")
	return file, nil
}

// GetRemoteURL returns the URL for a given remote name (e.g., "origin")
// Returns empty string if remote doesn't exist
func GetRemoteURL(repo *git.Repository, remoteName string) string {
	remote, err := repo.Remote(remoteName)
	if err != nil {
		return ""
	}

	config := remote.Config()
	if len(config.URLs) == 0 {
		return ""
	}

	return config.URLs[0]
}
