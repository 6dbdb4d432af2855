package gitrepo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
)

const (
	gitDirectoryNameConstant               = ".git"
	repositoryNotFoundMessageConstant      = "couldn't find a .git/ directory in the given path; are you in the root of the git repository?"
	gitPathNotDirectoryMessageConstant     = "found a file named .git, but it should be a directory"
	detachedHeadMessageConstant            = "HEAD is detached; check out a branch before collecting"
	repositoryEmptyMessageConstant         = "repository has no commits"
	repositoryPathRequiredMessageConstant  = "repository path must be provided"
	repositoryHandleMissingMessageConstant = "repository handle must be provided"
	repositoryStatErrorTemplateConstant    = "unable to inspect %s: %w"
	repositoryOpenErrorTemplateConstant    = "unable to open repository at %s: %w"
	repositoryPathErrorTemplateConstant    = "unable to resolve repository path %s: %w"
	headLookupErrorTemplateConstant        = "unable to resolve HEAD: %w"
	configurationReadErrorTemplateConstant = "unable to read git configuration: %w"
	worktreeErrorTemplateConstant          = "unable to open worktree: %w"
	statusErrorTemplateConstant            = "unable to read worktree status: %w"
)

// ErrRepositoryNotFound indicates the path has no .git entry.
var ErrRepositoryNotFound = errors.New(repositoryNotFoundMessageConstant)

// ErrGitPathNotDirectory indicates the .git entry exists but is not a directory.
var ErrGitPathNotDirectory = errors.New(gitPathNotDirectoryMessageConstant)

// ErrDetachedHead indicates HEAD does not point at a branch.
var ErrDetachedHead = errors.New(detachedHeadMessageConstant)

// ErrRepositoryEmpty indicates HEAD does not resolve to any commit yet.
var ErrRepositoryEmpty = errors.New(repositoryEmptyMessageConstant)

// ErrRepositoryPathRequired indicates an empty repository path was supplied.
var ErrRepositoryPathRequired = errors.New(repositoryPathRequiredMessageConstant)

// ErrRepositoryHandleMissing indicates NewRepository received a nil handle.
var ErrRepositoryHandleMissing = errors.New(repositoryHandleMissingMessageConstant)

// Identity holds the user identity read from git configuration.
type Identity struct {
	Name  string
	Email string
}

// Repository is an open git repository rooted at Path.
type Repository struct {
	path       string
	repository *git.Repository
}

// Open verifies that repositoryPath contains a .git directory and opens it.
func Open(repositoryPath string) (*Repository, error) {
	if len(repositoryPath) == 0 {
		return nil, ErrRepositoryPathRequired
	}

	absolutePath, absoluteError := filepath.Abs(repositoryPath)
	if absoluteError != nil {
		return nil, fmt.Errorf(repositoryPathErrorTemplateConstant, repositoryPath, absoluteError)
	}

	gitDirectoryPath := filepath.Join(absolutePath, gitDirectoryNameConstant)
	gitDirectoryInfo, statError := os.Stat(gitDirectoryPath)
	if statError != nil {
		if errors.Is(statError, os.ErrNotExist) {
			return nil, ErrRepositoryNotFound
		}
		return nil, fmt.Errorf(repositoryStatErrorTemplateConstant, gitDirectoryPath, statError)
	}
	if !gitDirectoryInfo.IsDir() {
		return nil, ErrGitPathNotDirectory
	}

	openedRepository, openError := git.PlainOpen(absolutePath)
	if openError != nil {
		if errors.Is(openError, git.ErrRepositoryNotExists) {
			return nil, ErrRepositoryNotFound
		}
		return nil, fmt.Errorf(repositoryOpenErrorTemplateConstant, absolutePath, openError)
	}

	return &Repository{path: absolutePath, repository: openedRepository}, nil
}

// NewRepository wraps an already opened go-git repository, such as one backed by in-memory storage.
func NewRepository(repositoryPath string, openedRepository *git.Repository) (*Repository, error) {
	if openedRepository == nil {
		return nil, ErrRepositoryHandleMissing
	}
	return &Repository{path: repositoryPath, repository: openedRepository}, nil
}

// Path returns the repository root.
func (repository *Repository) Path() string {
	return repository.path
}

// Identity reads user.name and user.email from the local configuration merged over the global one.
func (repository *Repository) Identity() (Identity, error) {
	mergedConfiguration, configurationError := repository.repository.ConfigScoped(config.GlobalScope)
	if configurationError != nil {
		return Identity{}, fmt.Errorf(configurationReadErrorTemplateConstant, configurationError)
	}
	return Identity{Name: mergedConfiguration.User.Name, Email: mergedConfiguration.User.Email}, nil
}

// CurrentBranch returns the short name of the branch HEAD points at.
func (repository *Repository) CurrentBranch() (string, error) {
	headReference, headError := repository.head()
	if headError != nil {
		return "", headError
	}
	if !headReference.Name().IsBranch() {
		return "", ErrDetachedHead
	}
	return headReference.Name().Short(), nil
}

// UntrackedFiles lists worktree paths git reports as untracked, sorted.
func (repository *Repository) UntrackedFiles() ([]string, error) {
	worktree, worktreeError := repository.repository.Worktree()
	if worktreeError != nil {
		return nil, fmt.Errorf(worktreeErrorTemplateConstant, worktreeError)
	}

	worktreeStatus, statusError := worktree.Status()
	if statusError != nil {
		return nil, fmt.Errorf(statusErrorTemplateConstant, statusError)
	}

	untrackedPaths := []string{}
	for filePath, fileStatus := range worktreeStatus {
		if fileStatus.Worktree == git.Untracked {
			untrackedPaths = append(untrackedPaths, filePath)
		}
	}
	sort.Strings(untrackedPaths)

	return untrackedPaths, nil
}

func (repository *Repository) head() (*plumbing.Reference, error) {
	headReference, headError := repository.repository.Head()
	if headError != nil {
		if errors.Is(headError, plumbing.ErrReferenceNotFound) {
			return nil, ErrRepositoryEmpty
		}
		return nil, fmt.Errorf(headLookupErrorTemplateConstant, headError)
	}
	return headReference, nil
}
